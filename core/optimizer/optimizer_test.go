package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/energy"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/model"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/solution"
)

func truck(battery float64) model.VehicleProfile {
	return model.VehicleProfile{
		ID: "t1", BatteryKWh: battery, MassKg: 27000, FrontalAreaM2: 7,
		ICEEfficiency: 0.5, EVEfficiency: 0.9, MaxICEPowerKW: 190, MaxEVPowerKW: 115,
	}
}

func route(n int, distance float64) model.RouteData {
	d := model.RouteData{Route: model.CompleteRoute{ID: "r"}, Nodes: map[string]model.Node{}}
	for i := 0; i <= n; i++ {
		id := fmt.Sprintf("n%d", i)
		d.Nodes[id] = model.Node{ID: id}
	}
	for i := 0; i < n; i++ {
		d.Segments = append(d.Segments, model.Segment{
			ID:          fmt.Sprintf("s%d", i),
			Origin:      fmt.Sprintf("n%d", i),
			Destination: fmt.Sprintf("n%d", i+1),
			DistanceM:   distance * float64(1+i%3),
			AvgSpeedKmh: 40 + float64(10*(i%4)),
			SlopeDeg:    float64(i%5) - 2,
		})
	}
	return d
}

func sim(t *testing.T, d model.RouteData, v model.VehicleProfile) *solution.Simulator {
	t.Helper()
	s, err := solution.NewSimulator(energy.New(energy.Options{REZPenalty: 1}), d, v, 1)
	require.NoError(t, err)
	return s
}

func baseConfig() Config {
	return Config{
		PopulationSize:       12,
		OffspringSize:        6,
		CrossoverProbability: 0.9,
		NeighborhoodSize:     3,
		MaxEvaluations:       300,
		Seed:                 42,
		ProcessID:            "test",
	}
}

func keys(front []Individual) []string {
	out := make([]string, len(front))
	for i, ind := range front {
		out[i] = ind.Encoding.Key()
	}
	return out
}

func TestConfigValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"populationSize":       func(c *Config) { c.PopulationSize = 0 },
		"offspringSize":        func(c *Config) { c.OffspringSize = 0 },
		"crossoverProbability": func(c *Config) { c.CrossoverProbability = 1.5 },
		"neighborhoodSize":     func(c *Config) { c.NeighborhoodSize = 0 },
		"maxEvaluations":       func(c *Config) { c.MaxEvaluations = 0 },
		"mutationProbability":  func(c *Config) { c.MutationProbability = -0.1 },
		"workers":              func(c *Config) { c.Workers = -1 },
	}
	require.NoError(t, baseConfig().Validate())
	for field, mutate := range cases {
		c := baseConfig()
		mutate(&c)
		err := c.Validate()
		var fe *FieldError
		require.True(t, errors.As(err, &fe), field)
		assert.Equal(t, field, fe.Field)
	}
}

func flat(d model.RouteData) model.RouteData {
	for i := range d.Segments {
		d.Segments[i].SlopeDeg = 0
	}
	return d
}

func TestShortRouteFindsAllElectric(t *testing.T) {
	d := flat(route(2, 1000))
	o, err := New(baseConfig(), sim(t, d, truck(90)))
	require.NoError(t, err)
	res, err := o.Run(context.Background())
	require.NoError(t, err)
	require.True(t, res.Feasible)
	assert.Contains(t, keys(res.Front), "EE")
	assert.Equal(t, "EE", res.Front[0].Encoding.Key())
	assert.Zero(t, res.Front[0].Trajectory.TotalEmissionsKg)
	assert.Equal(t, 300, res.Evaluations)
}

func TestEmptyBatteryInZEZIsInfeasibleRun(t *testing.T) {
	d := flat(route(1, 1000))
	d.Segments[0].ZEZ = []string{"centre"}
	cfg := baseConfig()
	cfg.MaxEvaluations = 50
	cfg.Repair = true
	o, err := New(cfg, sim(t, d, truck(0)))
	require.NoError(t, err)
	res, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Feasible)
	require.NotEmpty(t, res.Front)
	for _, ind := range res.Front {
		assert.False(t, ind.Trajectory.Feasible)
	}
	assert.Equal(t, 50, res.Evaluations)
}

func TestREZPenaltyDrivesDominance(t *testing.T) {
	d := flat(route(3, 1500))
	d.Segments[1].REZ = []string{"ring"}
	s := sim(t, d, truck(90))

	clean := solution.Encoding{model.ModeCombustion, model.ModeElectric, model.ModeCombustion}
	dirty := solution.Encoding{model.ModeCombustion, model.ModeCombustion, model.ModeCombustion}
	a, err := s.Decode(clean)
	require.NoError(t, err)
	b, err := s.Decode(dirty)
	require.NoError(t, err)
	assert.Less(t, a.ObjectiveEmissionsKg, b.ObjectiveEmissionsKg)
	assert.Greater(t, b.ObjectiveEmissionsKg, b.TotalEmissionsKg)
	assert.True(t, solution.Dominates(a, b))
}

func TestSameSeedSameFront(t *testing.T) {
	d := route(10, 2500)
	v := truck(12)
	cfg := baseConfig()
	cfg.Repair = true

	run := func(workers int) Result {
		c := cfg
		c.Workers = workers
		o, err := New(c, sim(t, d, v))
		require.NoError(t, err)
		res, err := o.Run(context.Background())
		require.NoError(t, err)
		return res
	}
	a, b, c := run(0), run(0), run(4)
	assert.Equal(t, keys(a.Front), keys(b.Front))
	assert.Equal(t, keys(a.Front), keys(c.Front))
	for i := range a.Front {
		assert.Equal(t, a.Front[i].Trajectory.Objectives(), c.Front[i].Trajectory.Objectives())
	}
}

func TestLargerBudgetIsNeverDominated(t *testing.T) {
	d := route(12, 2000)
	v := truck(15)
	run := func(budget int) Result {
		cfg := baseConfig()
		cfg.MaxEvaluations = budget
		o, err := New(cfg, sim(t, d, v))
		require.NoError(t, err)
		res, err := o.Run(context.Background())
		require.NoError(t, err)
		return res
	}
	small := run(12 + 6*5)
	large := run(12 + 6*30)
	for _, b := range large.Front {
		for _, a := range small.Front {
			assert.False(t, dominates(a, b), "%s dominated by %s", b.Encoding.Key(), a.Encoding.Key())
		}
	}
}

func TestCancelledRunStopsBetweenGenerations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o, err := New(baseConfig(), sim(t, route(4, 1000), truck(90)))
	require.NoError(t, err)
	res, err := o.Run(ctx)
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.Equal(t, 12, res.Evaluations)
	assert.NotEmpty(t, res.Front)
}

type flakyDecoder struct {
	inner    Decoder
	mu       sync.Mutex
	attempts map[string]int
	broken   string
}

func (f *flakyDecoder) Decode(e solution.Encoding) (solution.Trajectory, error) {
	f.mu.Lock()
	f.attempts[e.Key()]++
	n := f.attempts[e.Key()]
	f.mu.Unlock()
	if e.Key() == f.broken {
		panic("decoder crashed")
	}
	if n == 1 {
		return solution.Trajectory{}, errors.New("transient")
	}
	return f.inner.Decode(e)
}

func TestEvaluationFailuresAreRetriedThenDegraded(t *testing.T) {
	s := sim(t, route(2, 1000), truck(90))
	dec := &flakyDecoder{inner: s, attempts: map[string]int{}, broken: "EE"}
	cfg := baseConfig()
	cfg.Workers = 3
	o, err := New(cfg, s, WithDecoder(dec))
	require.NoError(t, err)
	res, err := o.Run(context.Background())
	require.NoError(t, err)
	require.True(t, res.Feasible)
	assert.NotContains(t, keys(res.Front), "EE")
	for _, ind := range res.Front {
		assert.True(t, ind.Trajectory.Feasible)
	}
}

func TestObserverSeesPhases(t *testing.T) {
	var phases []Phase
	cfg := baseConfig()
	cfg.MaxEvaluations = 24
	o, err := New(cfg, sim(t, route(3, 1000), truck(90)), WithObserver(func(p Progress) {
		phases = append(phases, p.Phase)
		assert.Equal(t, "test", p.ProcessID)
	}))
	require.NoError(t, err)
	_, err = o.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, phases)
	assert.Equal(t, PhaseInit, phases[0])
	assert.Equal(t, PhaseTerminate, phases[len(phases)-1])
	assert.Contains(t, phases, PhaseSelect)
	assert.Contains(t, phases, PhaseVary)
	assert.Contains(t, phases, PhaseReplace)
}

func TestHeuristicSeedRespectsBattery(t *testing.T) {
	d := flat(route(6, 1000))
	d.Segments[2].ZEZ = []string{"z"}
	s := sim(t, d, truck(10))
	e := heuristicEncoding(s)
	tr, err := s.Decode(e)
	require.NoError(t, err)
	assert.True(t, tr.Feasible)
	assert.Equal(t, model.ModeElectric, e[2])
	assert.Greater(t, e.Electric(), 0)
}

func TestSurvivorsKeepBestFront(t *testing.T) {
	mk := func(key string, em, en float64, feasible bool) Individual {
		tr := solution.Trajectory{Feasible: feasible, ObjectiveEmissionsKg: em, TotalEnergyKWh: en}
		if !feasible {
			tr.Violation = 1
		}
		return Individual{Encoding: solution.ParseKey(key), Trajectory: tr}
	}
	pop := []Individual{
		mk("CC", 10, 10, true),
		mk("EC", 5, 8, true),
		mk("CE", 4, 9, true),
		mk("EE", 0, 0, false),
		mk("CCC", 3, 12, true),
	}
	out := survivors(pop, 3)
	require.Len(t, out, 3)
	got := keys(out)
	assert.ElementsMatch(t, []string{"EC", "CE", "CCC"}, got)
	for _, ind := range out {
		assert.Equal(t, 0, ind.Rank())
	}
}

func TestCrossoverAndMutation(t *testing.T) {
	a := solution.Uniform(6, model.ModeElectric)
	b := solution.Uniform(6, model.ModeCombustion)
	rng := rand.New(rand.NewSource(1))
	child := crossover(a, b, rng)
	assert.Equal(t, model.ModeElectric, child[0])
	assert.Equal(t, model.ModeCombustion, child[5])
	assert.Equal(t, solution.Uniform(6, model.ModeElectric), a)

	m := a.Clone()
	mutate(m, 1, rng)
	assert.Equal(t, b, m)
	mutate(m, 0, rng)
	assert.Equal(t, b, m)
}
