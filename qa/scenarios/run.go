package scenarios

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/catalog"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/energy"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/events"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/logger"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/model"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/run"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/solution"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/store"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/infra/metrics"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/infra/mqtt"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/internal/eventbus"
)

// RunScenario executes sc against in-memory adapters and checks its
// expectations.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	pub := mqtt.NewMockPublisher()
	bus := eventbus.NewTypedSize[events.RunEvent](4096)
	defer bus.Close()
	metrics.StartEventCollector(ctx, bus, sink, 1, logger.NopLogger{})
	publisher := mqtt.NewEventPublisher(pub, mqtt.Config{}, logger.NopLogger{})
	sub := bus.Subscribe()
	go func() {
		for ev := range sub {
			_ = publisher.Handle(ev)
		}
	}()

	data := sc.Catalog()
	cat, err := catalog.NewMemoryCatalog(data)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	st := store.NewMemoryStore()
	opts := energy.Options{REZPenalty: sc.REZPenalty}
	if opts.REZPenalty == 0 {
		opts.REZPenalty = energy.DefaultREZPenalty
	}
	mgr, err := run.NewManager(cat, st, nil, run.Config{Energy: opts}, logger.NopLogger{})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	defer func() { _ = mgr.Close() }()
	mgr.SetBus(bus)

	req := sc.RunRequest()
	out, err := mgr.Execute(ctx, req)
	if err != nil && !errors.Is(err, run.ErrCancelled) {
		t.Fatalf("scenario %s: %v", sc.Name, err)
	}
	exp := sc.Expected
	if exp.State != "" && string(out.Status.State) != exp.State {
		t.Fatalf("scenario %s expected state %s, got %s", sc.Name, exp.State, out.Status.State)
	}
	if exp.AllElectric && !hasAllElectric(out.Front) {
		t.Errorf("scenario %s: all-electric plan missing from front", sc.Name)
	}
	if exp.MaxBestEmissionsKg != nil {
		if best := bestEmissions(out.Front); best > *exp.MaxBestEmissionsKg {
			t.Errorf("scenario %s: best emissions %.4f kg above %.4f", sc.Name, best, *exp.MaxBestEmissionsKg)
		}
	}
	if exp.NoFeasible {
		for _, s := range out.Front {
			if s.Feasible {
				t.Errorf("scenario %s: feasible plan %s in front", sc.Name, modes(s))
			}
		}
	}
	if exp.Persisted != nil {
		saved, err := st.ListByRoute(ctx, sc.RouteID())
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(saved) != *exp.Persisted {
			t.Errorf("scenario %s expected %d persisted, got %d", sc.Name, *exp.Persisted, len(saved))
		}
	}
	if exp.REZClean {
		checkREZClean(t, sc, data, opts, req, out.Front)
	}
	if len(exp.Published) > 0 {
		checkPublished(t, sc, pub, exp.Published)
	}
	waitFor(t, func() bool {
		n, err := testutil.GatherAndCount(reg, "ecodrive_runs_total")
		return err == nil && n == 1
	}, "scenario %s: run not counted", sc.Name)
}

func hasAllElectric(front []model.Solution) bool {
	for _, s := range front {
		all := s.Feasible
		for _, d := range s.Decisions {
			all = all && d.Mode == model.ModeElectric
		}
		if all {
			return true
		}
	}
	return false
}

func bestEmissions(front []model.Solution) float64 {
	best := -1.0
	for _, s := range front {
		if s.Feasible && (best < 0 || s.TotalEmissionsKg < best) {
			best = s.TotalEmissionsKg
		}
	}
	return best
}

func modes(s model.Solution) string {
	var b strings.Builder
	for _, m := range s.Modes() {
		b.WriteString(m.String())
		b.WriteByte(' ')
	}
	return strings.TrimSpace(b.String())
}

// checkREZClean compares the front against driving the whole route in
// combustion, whose penalized emissions must exceed its real ones.
func checkREZClean(t *testing.T, sc *Scenario, data catalog.Data, opts energy.Options, req run.Request, front []model.Solution) {
	t.Helper()
	cat, err := catalog.NewMemoryCatalog(data)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	route, err := cat.CompleteRoute(context.Background(), sc.RouteID())
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	sim, err := solution.NewSimulator(energy.New(opts), route, sc.Vehicle, req.InitialSOC)
	if err != nil {
		t.Fatalf("simulator: %v", err)
	}
	dirty, err := sim.Decode(solution.Uniform(sim.Len(), model.ModeCombustion))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dirty.ObjectiveEmissionsKg <= dirty.TotalEmissionsKg {
		t.Fatalf("scenario %s: REZ penalty not applied", sc.Name)
	}
	rez := map[string]bool{}
	for _, leg := range sim.Legs() {
		if leg.Segment.InREZ() {
			rez[leg.Segment.ID] = true
		}
	}
	for _, s := range front {
		clean := s.Feasible
		for _, d := range s.Decisions {
			if rez[d.SegmentID] && d.Mode == model.ModeCombustion {
				clean = false
			}
		}
		if clean && s.TotalEmissionsKg < dirty.TotalEmissionsKg {
			return
		}
	}
	t.Errorf("scenario %s: no plan avoids combustion in the REZ", sc.Name)
}

func checkPublished(t *testing.T, sc *Scenario, pub *mqtt.MockPublisher, want []string) {
	t.Helper()
	topic := "ecodrive/runs/" + sc.Name + "/status"
	seen := func() []string {
		var kinds []string
		for _, m := range pub.Snapshot() {
			if m.Topic != topic || !m.Retained {
				continue
			}
			var ev events.RunEvent
			if err := json.Unmarshal(m.Payload, &ev); err == nil {
				kinds = append(kinds, string(ev.Kind))
			}
		}
		return kinds
	}
	waitFor(t, func() bool { return len(seen()) >= len(want) },
		"scenario %s: expected %v on %s, got %v", sc.Name, want, topic, seen())
	got := seen()
	for i, k := range want {
		if got[i] != k {
			t.Errorf("scenario %s: event %d is %s, want %s", sc.Name, i, got[i], k)
		}
	}
}

func waitFor(t *testing.T, cond func() bool, format string, args ...any) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Errorf(format, args...)
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}
