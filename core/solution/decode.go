package solution

import (
	"fmt"
	"math"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/energy"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/model"
)

// Trajectory is the simulated outcome of an encoding over a route.
type Trajectory struct {
	Steps                []energy.Result
	TotalEnergyKWh       float64
	TotalEmissionsKg     float64
	ObjectiveEmissionsKg float64
	ElectricKm           float64
	MinChargeKWh         float64
	MinSOC               float64
	Violation            float64
	Feasible             bool
}

// Objectives returns the minimized objective vector: penalized emissions
// and total energy.
func (t Trajectory) Objectives() [2]float64 {
	return [2]float64{t.ObjectiveEmissionsKg, t.TotalEnergyKWh}
}

// Simulator decodes encodings for one route and vehicle. It is read-only
// after construction and safe for concurrent use.
type Simulator struct {
	model         *energy.Model
	legs          []model.Leg
	vehicle       model.VehicleProfile
	initialCharge float64
}

// NewSimulator validates the inputs. initialSOC is a fraction of capacity.
func NewSimulator(m *energy.Model, data model.RouteData, v model.VehicleProfile, initialSOC float64) (*Simulator, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if initialSOC < 0 || initialSOC > 1 {
		return nil, fmt.Errorf("initial soc %v out of [0,1]", initialSOC)
	}
	return &Simulator{
		model:         m,
		legs:          data.Clone().Legs(),
		vehicle:       v.Clone(),
		initialCharge: initialSOC * v.BatteryKWh,
	}, nil
}

// Len returns the number of segments.
func (s *Simulator) Len() int { return len(s.legs) }

// Legs returns the resolved segments.
func (s *Simulator) Legs() []model.Leg { return s.legs }

// Vehicle returns the simulated vehicle profile.
func (s *Simulator) Vehicle() model.VehicleProfile { return s.vehicle }

// Decode walks the route carrying charge and speed forward.
func (s *Simulator) Decode(e Encoding) (Trajectory, error) {
	if len(e) != len(s.legs) {
		return Trajectory{}, fmt.Errorf("encoding has %d genes, route has %d segments", len(e), len(s.legs))
	}
	t := Trajectory{Steps: make([]energy.Result, len(e)), MinChargeKWh: s.initialCharge, Feasible: true}
	st := energy.State{ChargeKWh: s.initialCharge, First: true}
	var zez float64
	for i, leg := range s.legs {
		r := s.model.Evaluate(leg, s.vehicle, e[i], st)
		t.Steps[i] = r
		t.TotalEnergyKWh += r.EnergyKWh
		t.TotalEmissionsKg += r.EmissionsKg
		t.ObjectiveEmissionsKg += r.ObjectiveEmissionsKg
		if e[i] == model.ModeElectric {
			t.ElectricKm += leg.Segment.DistanceM / 1000
		}
		t.MinChargeKWh = math.Min(t.MinChargeKWh, r.LowestChargeKWh)
		zez += r.ZEZViolationKWh
		if !r.Feasible {
			t.Feasible = false
		}
		st = energy.State{ChargeKWh: r.ChargeAfterKWh, SpeedMS: r.ExitSpeedMS}
	}
	if t.Feasible && t.MinChargeKWh < 0 {
		t.MinChargeKWh = 0
	}
	t.Violation = zez + math.Max(0, -t.MinChargeKWh)
	if s.vehicle.BatteryKWh > 0 {
		t.MinSOC = t.MinChargeKWh / s.vehicle.BatteryKWh
	}
	return t, nil
}

// Dominates reports whether a dominates b. Feasible beats infeasible, two
// infeasible trajectories compare by violation, and two feasible ones by
// Pareto dominance on Objectives.
func Dominates(a, b Trajectory) bool {
	switch {
	case a.Feasible && !b.Feasible:
		return true
	case !a.Feasible && b.Feasible:
		return false
	case !a.Feasible && !b.Feasible:
		return a.Violation < b.Violation
	}
	ao, bo := a.Objectives(), b.Objectives()
	return ao[0] <= bo[0] && ao[1] <= bo[1] && (ao[0] < bo[0] || ao[1] < bo[1])
}

// ToSolution converts a decoded encoding into a persistable solution.
func ToSolution(e Encoding, t Trajectory, legs []model.Leg, routeID, vehicleID string) model.Solution {
	sol := model.Solution{
		RouteID:          routeID,
		VehicleID:        vehicleID,
		Feasible:         t.Feasible,
		TotalEnergyKWh:   t.TotalEnergyKWh,
		TotalEmissionsKg: t.TotalEmissionsKg,
		ElectricKm:       t.ElectricKm,
		Decisions:        make([]model.SegmentDecision, len(e)),
	}
	for i, r := range t.Steps {
		soc := r.SOCAfter
		if t.Feasible && soc < 0 {
			soc = 0
		}
		sol.Decisions[i] = model.SegmentDecision{
			SegmentID:   legs[i].Segment.ID,
			Mode:        e[i],
			EnergyKWh:   r.EnergyKWh,
			EmissionsKg: r.EmissionsKg,
			SOCAfter:    soc,
			RechargeKWh: r.RechargeKWh,
		}
	}
	return sol
}
