package optimizer

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/model"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/solution"
)

// better orders individuals by rank, then by the weighted-sum fallback.
func better(a, b Individual) bool {
	if a.rank != b.rank {
		return a.rank < b.rank
	}
	return a.scalar() < b.scalar()
}

// selectParent samples k members of pop and returns the best one.
func selectParent(pop []Individual, k int, rng *rand.Rand) Individual {
	if k > len(pop) {
		k = len(pop)
	}
	best := rng.Intn(len(pop))
	for j := 1; j < k; j++ {
		c := rng.Intn(len(pop))
		if better(pop[c], pop[best]) {
			best = c
		}
	}
	return pop[best]
}

// crossover joins the head of a and the tail of b at a random cut point.
func crossover(a, b solution.Encoding, rng *rand.Rand) solution.Encoding {
	child := a.Clone()
	if len(a) < 2 {
		return child
	}
	cut := 1 + rng.Intn(len(a)-1)
	copy(child[cut:], b[cut:])
	return child
}

// mutate flips each gene with probability p.
func mutate(e solution.Encoding, p float64, rng *rand.Rand) {
	for i := range e {
		if rng.Float64() < p {
			if e[i] == model.ModeElectric {
				e[i] = model.ModeCombustion
			} else {
				e[i] = model.ModeElectric
			}
		}
	}
}

// heuristicEncoding builds a greedy starting point: ZEZ segments run
// electric, then segments are switched to electric in decreasing order of
// combustion emissions per km as long as the plan stays feasible.
func heuristicEncoding(sim *solution.Simulator) solution.Encoding {
	n := sim.Len()
	legs := sim.Legs()
	e := solution.Uniform(n, model.ModeCombustion)
	for i, leg := range legs {
		if leg.Segment.InZEZ() {
			e[i] = model.ModeElectric
		}
	}
	base, err := sim.Decode(solution.Uniform(n, model.ModeCombustion))
	if err != nil {
		return e
	}
	score := make([]float64, n)
	for i, leg := range legs {
		score[i] = -base.Steps[i].EmissionsKg / (leg.Segment.DistanceM / 1000)
	}
	order := make([]int, n)
	floats.Argsort(score, order)
	for _, i := range order {
		if e[i] == model.ModeElectric {
			continue
		}
		e[i] = model.ModeElectric
		tr, err := sim.Decode(e)
		if err != nil || !tr.Feasible {
			e[i] = model.ModeCombustion
		}
	}
	return e
}
