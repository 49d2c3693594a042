package store

import (
	"context"
	"time"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/metrics"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/model"
)

// Instrumented wraps a SolutionStore and reports each operation to a
// metrics sink implementing metrics.StoreRecorder. Other sinks are ignored.
type Instrumented struct {
	SolutionStore
	backend string
	rec     metrics.StoreRecorder
}

// Instrument wraps s when sink records store operations and returns s
// unchanged otherwise.
func Instrument(s SolutionStore, backend string, sink metrics.MetricsSink) SolutionStore {
	rec, ok := sink.(metrics.StoreRecorder)
	if !ok {
		return s
	}
	return &Instrumented{SolutionStore: s, backend: backend, rec: rec}
}

func (s *Instrumented) observe(op string, start time.Time, count int, err error) {
	_ = s.rec.RecordStore(metrics.StoreRecord{
		Backend:   s.backend,
		Operation: op,
		Count:     count,
		Err:       err != nil,
		Latency:   time.Since(start),
		Time:      start,
	})
}

func (s *Instrumented) Persist(ctx context.Context, routeID, vehicleID string, sols []model.Solution) ([]string, error) {
	start := time.Now()
	ids, err := s.SolutionStore.Persist(ctx, routeID, vehicleID, sols)
	s.observe("persist", start, len(ids), err)
	return ids, err
}

func (s *Instrumented) ListByRoute(ctx context.Context, routeID string) ([]model.Solution, error) {
	start := time.Now()
	out, err := s.SolutionStore.ListByRoute(ctx, routeID)
	s.observe("list_by_route", start, len(out), err)
	return out, err
}

func (s *Instrumented) ListByVehicle(ctx context.Context, vehicleID string) ([]model.Solution, error) {
	start := time.Now()
	out, err := s.SolutionStore.ListByVehicle(ctx, vehicleID)
	s.observe("list_by_vehicle", start, len(out), err)
	return out, err
}

func (s *Instrumented) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := s.SolutionStore.Delete(ctx, id)
	s.observe("delete", start, 1, err)
	return err
}
