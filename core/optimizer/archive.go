package optimizer

import "sort"

// archive keeps every non-dominated individual seen during a run, one per
// mode sequence.
type archive struct {
	members []Individual
	keys    map[string]struct{}
}

func newArchive() *archive {
	return &archive{keys: make(map[string]struct{})}
}

// add inserts ind unless an archived member dominates it or shares its
// mode sequence. Members dominated by ind are evicted.
func (a *archive) add(ind Individual) bool {
	key := ind.Encoding.Key()
	if _, ok := a.keys[key]; ok {
		return false
	}
	for _, m := range a.members {
		if dominates(m, ind) {
			return false
		}
	}
	kept := a.members[:0]
	for _, m := range a.members {
		if dominates(ind, m) {
			delete(a.keys, m.Encoding.Key())
			continue
		}
		kept = append(kept, m)
	}
	a.members = append(kept, ind)
	a.keys[key] = struct{}{}
	return true
}

func (a *archive) addAll(inds []Individual) {
	for _, ind := range inds {
		a.add(ind)
	}
}

// front returns the archived individuals ordered by objectives then mode
// sequence.
func (a *archive) front() []Individual {
	out := append([]Individual(nil), a.members...)
	sort.SliceStable(out, func(i, j int) bool {
		oi, oj := out[i].Trajectory.Objectives(), out[j].Trajectory.Objectives()
		if out[i].Trajectory.Violation != out[j].Trajectory.Violation {
			return out[i].Trajectory.Violation < out[j].Trajectory.Violation
		}
		if oi[0] != oj[0] {
			return oi[0] < oj[0]
		}
		if oi[1] != oj[1] {
			return oi[1] < oj[1]
		}
		return out[i].Encoding.Key() < out[j].Encoding.Key()
	})
	return out
}
