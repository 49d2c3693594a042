package optimizer

import (
	"context"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/logger"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/solution"
)

// Phase names a step of the evolutionary loop.
type Phase string

const (
	PhaseInit      Phase = "init"
	PhaseEvaluate  Phase = "evaluate"
	PhaseSelect    Phase = "select"
	PhaseVary      Phase = "vary"
	PhaseReplace   Phase = "replace"
	PhaseTerminate Phase = "terminate"
)

// Progress is reported to the observer as the run advances.
type Progress struct {
	ProcessID       string
	Phase           Phase
	Generation      int
	Evaluations     int
	MaxEvaluations  int
	FrontSize       int
	Feasible        bool
	BestEmissionsKg float64
	BestEnergyKWh   float64
	MeanEmissionsKg float64
}

// Observer receives progress notifications on the run goroutine.
type Observer func(Progress)

// Result is the outcome of a run.
type Result struct {
	Front       []Individual
	Evaluations int
	Generations int
	// Feasible is false when no feasible encoding was found. Front then
	// holds the least infeasible encodings.
	Feasible  bool
	Cancelled bool
}

// Option customizes an Optimizer.
type Option func(*Optimizer)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(o *Optimizer) { o.log = logger.OrNop(l) } }

// WithObserver registers a progress observer.
func WithObserver(fn Observer) Option { return func(o *Optimizer) { o.observer = fn } }

// WithDecoder replaces the decoder used for evaluations.
func WithDecoder(d Decoder) Option { return func(o *Optimizer) { o.decoder = d } }

// Optimizer searches for non-dominated driving-mode assignments.
type Optimizer struct {
	cfg      Config
	sim      *solution.Simulator
	decoder  Decoder
	log      logger.Logger
	observer Observer
}

// New validates cfg and returns an Optimizer bound to sim.
func New(cfg Config, sim *solution.Simulator, opts ...Option) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sim == nil {
		return nil, fmt.Errorf("optimizer: nil simulator")
	}
	o := &Optimizer{cfg: cfg, sim: sim, decoder: sim, log: logger.NopLogger{}}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run executes the search until the evaluation budget is spent or ctx is
// cancelled. Cancellation is checked between generations; a cancelled run
// returns the front reached so far with Cancelled set.
func (o *Optimizer) Run(ctx context.Context) (Result, error) {
	cfg := o.cfg
	rng := rand.New(rand.NewSource(cfg.Seed))
	n := o.sim.Len()
	pm := cfg.MutationProbability
	if pm == 0 {
		pm = 1 / float64(n)
	}
	ev := &evaluator{sim: o.sim, decoder: o.decoder, repair: cfg.Repair, workers: cfg.Workers, log: o.log, process: cfg.ProcessID}
	arch := newArchive()

	o.report(Progress{Phase: PhaseInit}, arch)
	encs := make([]solution.Encoding, cfg.PopulationSize)
	for i := range encs {
		if i == 0 && cfg.HeuristicSeed {
			encs[i] = heuristicEncoding(o.sim)
			continue
		}
		encs[i] = solution.Random(n, rng)
	}
	pop := ev.evaluate(encs)
	evals := len(pop)
	arch.addAll(pop)
	sortFronts(pop)
	o.report(Progress{Phase: PhaseEvaluate, Evaluations: evals}, arch)

	gen := 0
	cancelled := false
	for evals < cfg.MaxEvaluations {
		if ctx.Err() != nil {
			cancelled = true
			o.log.Infof("run %s cancelled after %d evaluations", cfg.ProcessID, evals)
			break
		}
		batch := cfg.OffspringSize
		if rest := cfg.MaxEvaluations - evals; batch > rest {
			batch = rest
		}

		o.report(Progress{Phase: PhaseSelect, Generation: gen, Evaluations: evals}, arch)
		children := make([]solution.Encoding, batch)
		for i := range children {
			p1 := selectParent(pop, cfg.NeighborhoodSize, rng)
			var child solution.Encoding
			if rng.Float64() < cfg.CrossoverProbability {
				p2 := selectParent(pop, cfg.NeighborhoodSize, rng)
				child = crossover(p1.Encoding, p2.Encoding, rng)
			} else {
				child = p1.Encoding.Clone()
			}
			mutate(child, pm, rng)
			children[i] = child
		}
		o.report(Progress{Phase: PhaseVary, Generation: gen, Evaluations: evals}, arch)

		offspring := ev.evaluate(children)
		evals += len(offspring)
		arch.addAll(offspring)
		o.report(Progress{Phase: PhaseEvaluate, Generation: gen, Evaluations: evals}, arch)

		pop = survivors(append(pop, offspring...), cfg.PopulationSize)
		gen++
		o.report(Progress{Phase: PhaseReplace, Generation: gen, Evaluations: evals}, arch)
		o.log.Debugw("generation done", map[string]any{
			"process_id":  cfg.ProcessID,
			"generation":  gen,
			"evaluations": evals,
			"archive":     len(arch.members),
		})
	}

	front := arch.front()
	res := Result{
		Front:       front,
		Evaluations: evals,
		Generations: gen,
		Feasible:    len(front) > 0 && front[0].Trajectory.Feasible,
		Cancelled:   cancelled,
	}
	o.report(Progress{Phase: PhaseTerminate, Generation: gen, Evaluations: evals}, arch)
	return res, nil
}

func (o *Optimizer) report(p Progress, arch *archive) {
	if o.observer == nil {
		return
	}
	p.ProcessID = o.cfg.ProcessID
	p.MaxEvaluations = o.cfg.MaxEvaluations
	p.FrontSize = len(arch.members)
	if p.FrontSize > 0 {
		front := arch.front()
		p.Feasible = front[0].Trajectory.Feasible
		p.BestEmissionsKg = front[0].Trajectory.ObjectiveEmissionsKg
		p.BestEnergyKWh = front[0].Trajectory.TotalEnergyKWh
		for _, ind := range front[1:] {
			if ind.Trajectory.TotalEnergyKWh < p.BestEnergyKWh {
				p.BestEnergyKWh = ind.Trajectory.TotalEnergyKWh
			}
		}
		em := make([]float64, len(front))
		for i, ind := range front {
			em[i] = ind.Trajectory.ObjectiveEmissionsKg
		}
		p.MeanEmissionsKg = stat.Mean(em, nil)
	}
	o.observer(p)
}
