package solution

import (
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/model"
)

// Repair moves an infeasible encoding toward feasibility. ZEZ segments are
// forced to electric, then the most energy-hungry electric segment before
// the first battery deficit is switched to combustion until the battery
// never runs dry or no candidate is left. The returned trajectory belongs
// to the returned encoding, which may still be infeasible.
func (s *Simulator) Repair(e Encoding) (Encoding, Trajectory, error) {
	out := e.Clone()
	for i, leg := range s.legs {
		if leg.Segment.InZEZ() {
			out[i] = model.ModeElectric
		}
	}
	t, err := s.Decode(out)
	if err != nil {
		return nil, Trajectory{}, err
	}
	for !t.Feasible {
		first := firstDeficit(t)
		if first < 0 {
			break
		}
		pick := -1
		for i := 0; i <= first; i++ {
			if out[i] != model.ModeElectric || s.legs[i].Segment.InZEZ() || t.Steps[i].EnergyKWh <= 0 {
				continue
			}
			if pick < 0 || t.Steps[i].EnergyKWh > t.Steps[pick].EnergyKWh {
				pick = i
			}
		}
		if pick < 0 {
			break
		}
		out[pick] = model.ModeCombustion
		if t, err = s.Decode(out); err != nil {
			return nil, Trajectory{}, err
		}
	}
	return out, t, nil
}

func firstDeficit(t Trajectory) int {
	for i, r := range t.Steps {
		if r.LowestChargeKWh < -socTolerance {
			return i
		}
	}
	return -1
}

const socTolerance = 1e-9
