package optimizer

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/solution"
)

// Individual is an evaluated encoding.
type Individual struct {
	Encoding   solution.Encoding
	Trajectory solution.Trajectory

	rank     int
	crowding float64
}

// Rank is the index of the non-dominated front the individual was last
// sorted into, 0 being the best.
func (i Individual) Rank() int { return i.rank }

// scalar is the weighted-sum fallback used to break ties between
// incomparable individuals.
func (i Individual) scalar() float64 {
	t := i.Trajectory
	if !t.Feasible {
		return math.Inf(1)
	}
	return t.ObjectiveEmissionsKg + t.TotalEnergyKWh
}

func dominates(a, b Individual) bool { return solution.Dominates(a.Trajectory, b.Trajectory) }

// sortFronts performs a fast non-dominated sort and returns the fronts as
// index lists into pop. Ranks are written back.
func sortFronts(pop []Individual) [][]int {
	n := len(pop)
	dominatedBy := make([][]int, n)
	counts := make([]int, n)
	var fronts [][]int
	var current []int
	for p := 0; p < n; p++ {
		for q := 0; q < n; q++ {
			if p == q {
				continue
			}
			if dominates(pop[p], pop[q]) {
				dominatedBy[p] = append(dominatedBy[p], q)
			} else if dominates(pop[q], pop[p]) {
				counts[p]++
			}
		}
		if counts[p] == 0 {
			pop[p].rank = 0
			current = append(current, p)
		}
	}
	for r := 0; len(current) > 0; r++ {
		fronts = append(fronts, current)
		var next []int
		for _, p := range current {
			for _, q := range dominatedBy[p] {
				counts[q]--
				if counts[q] == 0 {
					pop[q].rank = r + 1
					next = append(next, q)
				}
			}
		}
		sort.Ints(next)
		current = next
	}
	return fronts
}

// assignCrowding sets the crowding distance of every member of front.
func assignCrowding(pop []Individual, front []int) {
	for _, i := range front {
		pop[i].crowding = 0
	}
	if len(front) <= 2 {
		for _, i := range front {
			pop[i].crowding = math.Inf(1)
		}
		return
	}
	values := make([]float64, len(front))
	order := make([]int, len(front))
	for m := 0; m < 2; m++ {
		for k, i := range front {
			values[k] = pop[i].Trajectory.Objectives()[m]
		}
		floats.Argsort(values, order)
		span := values[len(values)-1] - values[0]
		pop[front[order[0]]].crowding = math.Inf(1)
		pop[front[order[len(order)-1]]].crowding = math.Inf(1)
		if span <= 0 {
			continue
		}
		for k := 1; k < len(order)-1; k++ {
			pop[front[order[k]]].crowding += (values[k+1] - values[k-1]) / span
		}
	}
}

// survivors keeps the best size individuals of pop by rank, then crowding.
func survivors(pop []Individual, size int) []Individual {
	fronts := sortFronts(pop)
	out := make([]Individual, 0, size)
	for _, front := range fronts {
		assignCrowding(pop, front)
		if len(out)+len(front) <= size {
			for _, i := range front {
				out = append(out, pop[i])
			}
			continue
		}
		sorted := append([]int(nil), front...)
		sort.SliceStable(sorted, func(a, b int) bool {
			return pop[sorted[a]].crowding > pop[sorted[b]].crowding
		})
		for _, i := range sorted[:size-len(out)] {
			out = append(out, pop[i])
		}
		break
	}
	return out
}
