package energy

import (
	"math"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/model"
)

// Options tunes how segment outcomes are scored.
type Options struct {
	Params Params `json:"params"`
	// REZPenalty scales the objective emissions of combustion inside a
	// restricted-emission zone by 1+REZPenalty.
	REZPenalty float64 `json:"rez_penalty"`
	// ChargeCap is the fraction of capacity a charging point tops up to.
	ChargeCap float64 `json:"charge_cap"`
	// ChargePerStopKWh limits the energy added at one charging point. Zero
	// means no limit other than ChargeCap.
	ChargePerStopKWh float64 `json:"charge_per_stop_kwh"`
	// TakeStops makes the vehicle halt at every stop node and recharge there
	// as it would at a charging point.
	TakeStops bool `json:"take_stops"`
}

// DefaultREZPenalty doubles the weight of combustion emissions in REZ.
const DefaultREZPenalty = 1.0

// zezViolationFloor keeps a combustion segment in a ZEZ infeasible even when
// it consumes no fuel.
const zezViolationFloor = 1.0

// socTolerance absorbs rounding on the feasibility boundary.
const socTolerance = 1e-9

// SetDefaults applies default values.
func (o *Options) SetDefaults() {
	o.Params = o.Params.withDefaults()
	if o.ChargeCap <= 0 || o.ChargeCap > 1 {
		o.ChargeCap = 1
	}
	if o.REZPenalty < 0 {
		o.REZPenalty = 0
	}
}

// State is what carries over from one segment to the next.
type State struct {
	ChargeKWh float64
	SpeedMS   float64
	First     bool
}

// Result is the outcome of driving one segment in one mode.
type Result struct {
	Mode                 model.DrivingMode
	TractionKWh          float64
	EnergyKWh            float64
	EmissionsKg          float64
	ObjectiveEmissionsKg float64
	RegenKWh             float64
	RechargeKWh          float64
	// LowestChargeKWh is the charge at the end of the segment before any
	// recharge. A negative value is a battery deficit.
	LowestChargeKWh float64
	ChargeAfterKWh  float64
	SOCAfter        float64
	ExitSpeedMS     float64
	ZEZViolation    bool
	ZEZViolationKWh float64
	Feasible        bool
	// Violation is the ZEZ violation plus the battery deficit at the end
	// of this segment.
	Violation float64
}

// Model evaluates segments. It has no mutable state and is safe for
// concurrent use.
type Model struct {
	opts Options
}

// New creates a Model with defaults applied to opts.
func New(opts Options) *Model {
	opts.SetDefaults()
	return &Model{opts: opts}
}

// Options returns the effective options.
func (m *Model) Options() Options { return m.opts }

// EntrySpeed returns the speed at which the vehicle enters the leg.
func (m *Model) EntrySpeed(leg model.Leg, st State) float64 {
	if st.First || (m.opts.TakeStops && leg.From.IsStop) {
		return 0
	}
	return st.SpeedMS
}

// Evaluate simulates driving leg in the given mode starting from st.
func (m *Model) Evaluate(leg model.Leg, v model.VehicleProfile, mode model.DrivingMode, st State) Result {
	p := m.opts.Params
	seg := leg.Segment
	tr := p.Drive(m.EntrySpeed(leg, st), seg.SpeedMS(), seg.DistanceM, seg.SlopeRad(),
		v.Acceleration(), v.MaxPowerKW(mode), v.MassKg, v.FrontalAreaM2)

	res := Result{Mode: mode, TractionKWh: tr.KWh, RegenKWh: tr.RegenKWh, ExitSpeedMS: tr.ExitSpeed, Feasible: true}
	charge := st.ChargeKWh

	switch mode {
	case model.ModeElectric:
		if tr.KWh >= 0 {
			res.EnergyKWh = tr.KWh / v.EVEfficiency
		} else {
			res.EnergyKWh = tr.KWh * v.EVEfficiency
		}
		charge -= res.EnergyKWh
		if charge > v.BatteryKWh {
			charge = v.BatteryKWh
		}
	default:
		res.EnergyKWh = math.Max(tr.KWh, 0) / v.ICEEfficiency
		res.EmissionsKg = res.EnergyKWh * p.GallonPerKWh * p.KgCO2PerGal
		res.ObjectiveEmissionsKg = res.EmissionsKg
		if seg.InREZ() {
			res.ObjectiveEmissionsKg *= 1 + m.opts.REZPenalty
		}
		if seg.InZEZ() {
			res.ZEZViolation = true
			res.Feasible = false
			res.ZEZViolationKWh = math.Max(res.EnergyKWh, zezViolationFloor)
			res.Violation += res.ZEZViolationKWh
		}
	}

	res.LowestChargeKWh = charge
	if charge < -socTolerance {
		res.Feasible = false
		res.Violation += -charge
	}

	if leg.To.IsChargingPoint || (m.opts.TakeStops && leg.To.IsStop) {
		target := m.opts.ChargeCap * v.BatteryKWh
		if charge < target {
			add := target - charge
			if m.opts.ChargePerStopKWh > 0 && add > m.opts.ChargePerStopKWh {
				add = m.opts.ChargePerStopKWh
			}
			charge += add
			res.RechargeKWh = add
		}
	}

	res.ChargeAfterKWh = charge
	if v.BatteryKWh > 0 {
		res.SOCAfter = charge / v.BatteryKWh
	}
	return res
}
