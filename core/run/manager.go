package run

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/catalog"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/energy"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/events"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/logger"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/model"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/monitoring"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/optimizer"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/solution"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/store"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/internal/eventbus"
)

// ArtifactWriter stores the front of a run under its process id. Fronts of
// infeasible and cancelled runs are written too.
type ArtifactWriter interface {
	WriteFront(processID string, front []model.Solution) error
}

// Outcome is what Execute returns.
type Outcome struct {
	Status Status
	// Front holds the final non-dominated solutions, persisted or not.
	Front []model.Solution
}

// Config tunes the manager.
type Config struct {
	// MaxConcurrent bounds the runs executing at once. Further runs wait in
	// the pending state. Zero means no limit.
	MaxConcurrent int64
	Energy        energy.Options
	// AllPhases publishes a progress event for every optimizer phase. By
	// default only the replacement step of each generation is published.
	AllPhases bool
	// DeliveryTimeout bounds how long a lifecycle event waits for a full
	// subscriber. Progress events never wait. Zero selects DefaultDeliveryTimeout.
	DeliveryTimeout time.Duration
}

// DefaultDeliveryTimeout is used when Config.DeliveryTimeout is zero.
const DefaultDeliveryTimeout = 5 * time.Second

type job struct {
	req    Request
	sim    *solution.Simulator
	opt    *optimizer.Optimizer
	cycle  *lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu         sync.Mutex
	status     Status
	bestEm     float64
	bestEnergy float64
	front      []model.Solution
	err        error
}

func (j *job) snapshot() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	st := j.status
	st.SolutionIDs = append([]string(nil), st.SolutionIDs...)
	return st
}

func (j *job) update(fn func(*Status)) Status {
	j.mu.Lock()
	fn(&j.status)
	j.mu.Unlock()
	return j.snapshot()
}

// Manager starts, tracks and cancels optimization runs.
type Manager struct {
	catalog   catalog.Provider
	store     store.SolutionStore
	registry  StatusRegistry
	bus       *eventbus.TypedBus[events.RunEvent]
	artifacts ArtifactWriter
	log       logger.Logger
	cfg       Config
	sem       *semaphore.Weighted
	now       func() time.Time

	base     context.Context
	shutdown context.CancelFunc
	wg       sync.WaitGroup

	mu     sync.Mutex
	active map[string]*job
}

// NewManager creates a Manager. A nil registry selects a MemoryRegistry.
func NewManager(cat catalog.Provider, st store.SolutionStore, reg StatusRegistry, cfg Config, log logger.Logger) (*Manager, error) {
	if cat == nil {
		return nil, fmt.Errorf("run manager: catalog is required")
	}
	if st == nil {
		return nil, fmt.Errorf("run manager: solution store is required")
	}
	if reg == nil {
		reg = NewMemoryRegistry()
	}
	base, cancel := context.WithCancel(context.Background())
	m := &Manager{
		catalog:  cat,
		store:    st,
		registry: reg,
		log:      logger.OrNop(log),
		cfg:      cfg,
		now:      time.Now,
		base:     base,
		shutdown: cancel,
		active:   map[string]*job{},
	}
	if cfg.MaxConcurrent > 0 {
		m.sem = semaphore.NewWeighted(cfg.MaxConcurrent)
	}
	return m, nil
}

// SetBus configures the bus run events are published on.
func (m *Manager) SetBus(bus *eventbus.TypedBus[events.RunEvent]) {
	m.mu.Lock()
	m.bus = bus
	m.mu.Unlock()
}

// SetArtifacts configures where run fronts are written.
func (m *Manager) SetArtifacts(w ArtifactWriter) {
	m.mu.Lock()
	m.artifacts = w
	m.mu.Unlock()
}

// Submit validates req, loads its data and starts the run in the
// background. Configuration and data errors are returned immediately and
// nothing is recorded for them.
func (m *Manager) Submit(ctx context.Context, req Request) (Status, error) {
	j, err := m.prepare(ctx, req, m.base)
	if err != nil {
		return Status{}, err
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer j.cancel()
		m.execute(j.ctx, j)
	}()
	return j.snapshot(), nil
}

// Execute runs req synchronously. A run cancelled through ctx or Cancel
// returns its outcome together with ErrCancelled.
func (m *Manager) Execute(ctx context.Context, req Request) (Outcome, error) {
	j, err := m.prepare(ctx, req, ctx)
	if err != nil {
		return Outcome{}, err
	}
	defer j.cancel()
	m.execute(j.ctx, j)
	out := Outcome{Status: j.snapshot(), Front: j.front}
	switch out.Status.State {
	case StateCancelled:
		return out, ErrCancelled
	case StateFailed:
		return out, j.err
	}
	return out, nil
}

// Cancel requests cooperative cancellation. The run stops at the next
// generation boundary and persists nothing.
func (m *Manager) Cancel(ctx context.Context, processID string) error {
	m.mu.Lock()
	j, ok := m.active[processID]
	m.mu.Unlock()
	if ok {
		j.cancel()
		return nil
	}
	st, err := m.registry.Get(ctx, processID)
	if err != nil {
		return err
	}
	if st.State.Terminal() {
		return ErrRunFinished
	}
	return ErrUnknownRun
}

// Status returns the latest known status of a run.
func (m *Manager) Status(ctx context.Context, processID string) (Status, error) {
	m.mu.Lock()
	j, ok := m.active[processID]
	m.mu.Unlock()
	if ok {
		return j.snapshot(), nil
	}
	return m.registry.Get(ctx, processID)
}

// List returns the statuses of every run the registry knows.
func (m *Manager) List(ctx context.Context) ([]Status, error) {
	return m.registry.List(ctx)
}

// Wait blocks until the run reaches a terminal state or ctx ends.
func (m *Manager) Wait(ctx context.Context, processID string) (Status, error) {
	m.mu.Lock()
	j, ok := m.active[processID]
	m.mu.Unlock()
	if ok {
		select {
		case <-j.done:
			return j.snapshot(), nil
		case <-ctx.Done():
			return j.snapshot(), ctx.Err()
		}
	}
	return m.registry.Get(ctx, processID)
}

// Close cancels every active run and waits for them to stop.
func (m *Manager) Close() error {
	m.shutdown()
	m.wg.Wait()
	return nil
}

// prepare loads the data of req and registers the job. The run context is
// derived from parent.
func (m *Manager) prepare(ctx context.Context, req Request, parent context.Context) (*job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.ProcessID == "" {
		req.ProcessID = uuid.NewString()
	}
	route, err := m.catalog.CompleteRoute(ctx, req.RouteID)
	if err != nil {
		return nil, fmt.Errorf("%w: route %s: %w", ErrDataUnavailable, req.RouteID, err)
	}
	vehicle, err := m.catalog.Vehicle(ctx, req.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("%w: vehicle %s: %w", ErrDataUnavailable, req.VehicleID, err)
	}
	opts := m.cfg.Energy
	opts.TakeStops = req.TakeStops
	sim, err := solution.NewSimulator(energy.New(opts), route, vehicle, req.InitialSOC)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}

	j := &job{req: req, sim: sim, done: make(chan struct{})}
	j.status = Status{
		ProcessID:      req.ProcessID,
		RouteID:        req.RouteID,
		VehicleID:      req.VehicleID,
		State:          StatePending,
		MaxEvaluations: req.MaxEvaluations,
		SolutionIDs:    []string{},
		SubmittedAt:    m.now().UTC(),
	}
	j.cycle = newLifecycle(func(s State) {
		j.mu.Lock()
		j.status.State = s
		j.mu.Unlock()
	})
	opt, err := optimizer.New(req.OptimizerConfig(), sim,
		optimizer.WithLogger(m.log),
		optimizer.WithObserver(func(p optimizer.Progress) { m.progress(j, p) }))
	if err != nil {
		return nil, &ConfigError{"optimizer", err.Error()}
	}
	j.opt = opt

	m.mu.Lock()
	if _, busy := m.active[req.ProcessID]; busy {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrRunActive, req.ProcessID)
	}
	j.ctx, j.cancel = context.WithCancel(parent)
	m.active[req.ProcessID] = j
	m.mu.Unlock()

	m.record(ctx, j)
	m.publish(j, events.KindSubmitted, "")
	m.log.Infof("run %s submitted for route %s and vehicle %s", req.ProcessID, req.RouteID, req.VehicleID)
	return j, nil
}

func (m *Manager) execute(ctx context.Context, j *job) {
	start := m.now()
	defer func() {
		if r := recover(); r != nil {
			err := monitoring.CapturePanic(r, map[string]string{"process_id": j.req.ProcessID})
			m.finish(ctx, j, evFail, err, start)
		}
	}()

	if m.sem != nil {
		if err := m.sem.Acquire(ctx, 1); err != nil {
			m.finish(ctx, j, evCancel, nil, start)
			return
		}
		defer m.sem.Release(1)
	}
	if err := j.cycle.fire(evStart); err != nil {
		m.finish(ctx, j, evFail, err, start)
		return
	}
	started := m.now().UTC()
	j.update(func(s *Status) { s.StartedAt = &started })
	m.record(ctx, j)
	m.publish(j, events.KindStarted, "")

	res, err := j.opt.Run(ctx)
	if err != nil {
		m.finish(ctx, j, evFail, err, start)
		return
	}
	j.front = m.toSolutions(j, res.Front)
	j.update(func(s *Status) {
		s.Evaluations = res.Evaluations
		s.Generation = res.Generations
		s.FrontSize = len(res.Front)
		s.Feasible = res.Feasible
	})
	m.writeArtifacts(j)

	switch {
	case res.Cancelled:
		m.finish(ctx, j, evCancel, nil, start)
	case !res.Feasible:
		m.finish(ctx, j, evInfeasible, nil, start)
	default:
		// Persistence must not be interrupted by the run context: the
		// search is over and the front is written whole or not at all.
		ids, err := m.store.Persist(context.WithoutCancel(ctx), j.req.RouteID, j.req.VehicleID, j.front)
		if err != nil {
			m.finish(ctx, j, evFail, fmt.Errorf("persist front: %w", err), start)
			return
		}
		j.update(func(s *Status) { s.SolutionIDs = ids })
		m.finish(ctx, j, evComplete, nil, start)
	}
}

func (m *Manager) finish(ctx context.Context, j *job, event string, cause error, start time.Time) {
	if err := j.cycle.fire(event); err != nil {
		m.log.Errorf("run %s: transition %s: %v", j.req.ProcessID, event, err)
	}
	finished := m.now().UTC()
	j.update(func(s *Status) {
		s.FinishedAt = &finished
		if cause != nil {
			s.Error = cause.Error()
		}
	})
	j.mu.Lock()
	j.err = cause
	j.mu.Unlock()
	if cause != nil {
		m.log.Errorf("run %s failed: %v", j.req.ProcessID, cause)
		monitoring.CaptureException(cause, map[string]string{"process_id": j.req.ProcessID})
	}

	m.record(context.WithoutCancel(ctx), j)
	st := j.snapshot()
	ev := m.event(j, kindFor(st.State), "")
	ev.Duration = m.now().Sub(start).Seconds()
	ev.Persisted = len(st.SolutionIDs)
	if cause != nil {
		ev.Error = cause.Error()
	}
	m.emit(ev)
	m.log.Infof("run %s %s after %d evaluations, %d solutions persisted", st.ProcessID, st.State, st.Evaluations, len(st.SolutionIDs))

	m.mu.Lock()
	delete(m.active, j.req.ProcessID)
	m.mu.Unlock()
	close(j.done)
}

func kindFor(s State) events.Kind {
	switch s {
	case StateCompleted:
		return events.KindCompleted
	case StateInfeasible:
		return events.KindInfeasible
	case StateCancelled:
		return events.KindCancelled
	default:
		return events.KindFailed
	}
}

func (m *Manager) progress(j *job, p optimizer.Progress) {
	j.mu.Lock()
	j.bestEm, j.bestEnergy = p.BestEmissionsKg, p.BestEnergyKWh
	j.mu.Unlock()
	j.update(func(s *Status) {
		s.Phase = string(p.Phase)
		s.Generation = p.Generation
		s.Evaluations = p.Evaluations
		s.FrontSize = p.FrontSize
		s.Feasible = p.Feasible
	})
	if m.cfg.AllPhases || p.Phase == optimizer.PhaseReplace {
		m.publish(j, events.KindProgress, string(p.Phase))
	}
	if p.Phase == optimizer.PhaseReplace {
		m.record(context.Background(), j)
	}
}

func (m *Manager) toSolutions(j *job, front []optimizer.Individual) []model.Solution {
	legs := j.sim.Legs()
	out := make([]model.Solution, len(front))
	for i, ind := range front {
		sol := solution.ToSolution(ind.Encoding, ind.Trajectory, legs, j.req.RouteID, j.req.VehicleID)
		sol.ProcessID = j.req.ProcessID
		out[i] = sol
	}
	return out
}

func (m *Manager) writeArtifacts(j *job) {
	m.mu.Lock()
	w := m.artifacts
	m.mu.Unlock()
	if w == nil {
		return
	}
	if err := w.WriteFront(j.req.ProcessID, j.front); err != nil {
		m.log.Warnf("run %s: write artifacts: %v", j.req.ProcessID, err)
	}
}

func (m *Manager) record(ctx context.Context, j *job) {
	if err := m.registry.Put(ctx, j.snapshot()); err != nil {
		m.log.Warnf("run %s: record status: %v", j.req.ProcessID, err)
	}
}

func (m *Manager) event(j *job, kind events.Kind, phase string) events.RunEvent {
	st := j.snapshot()
	j.mu.Lock()
	bestEm, bestEnergy := j.bestEm, j.bestEnergy
	j.mu.Unlock()
	return events.RunEvent{
		ProcessID:       st.ProcessID,
		RouteID:         st.RouteID,
		VehicleID:       st.VehicleID,
		Kind:            kind,
		Phase:           phase,
		Generation:      st.Generation,
		Evaluations:     st.Evaluations,
		MaxEvaluations:  st.MaxEvaluations,
		FrontSize:       st.FrontSize,
		Feasible:        st.Feasible,
		BestEmissionsKg: bestEm,
		BestEnergyKWh:   bestEnergy,
		Time:            m.now().UTC(),
	}
}

func (m *Manager) publish(j *job, kind events.Kind, phase string) {
	m.emit(m.event(j, kind, phase))
}

func (m *Manager) emit(ev events.RunEvent) {
	m.mu.Lock()
	bus := m.bus
	m.mu.Unlock()
	if bus == nil {
		return
	}
	if ev.Kind == events.KindProgress {
		bus.Publish(ev)
		return
	}
	timeout := m.cfg.DeliveryTimeout
	if timeout <= 0 {
		timeout = DefaultDeliveryTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := bus.PublishWait(ctx, ev); err != nil {
		m.log.Warnf("run %s: %s event not delivered to every subscriber: %v", ev.ProcessID, ev.Kind, err)
	}
}
