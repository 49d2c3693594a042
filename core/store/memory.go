package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/model"
)

// MemoryStore keeps solutions in memory for tests or lightweight usage.
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string]model.Solution
	order []string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]model.Solution{}}
}

func (s *MemoryStore) Persist(ctx context.Context, routeID, vehicleID string, sols []model.Solution) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prepared := Prepare(routeID, vehicleID, sols, time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sol := range prepared {
		s.data[sol.ID] = sol
		s.order = append(s.order, sol.ID)
	}
	return IDs(prepared), nil
}

func (s *MemoryStore) list(match func(model.Solution) bool) []model.Solution {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Solution{}
	for _, id := range s.order {
		sol, ok := s.data[id]
		if ok && match(sol) {
			sol.Decisions = append([]model.SegmentDecision{}, sol.Decisions...)
			out = append(out, sol)
		}
	}
	return out
}

func (s *MemoryStore) ListByRoute(_ context.Context, routeID string) ([]model.Solution, error) {
	return s.list(func(sol model.Solution) bool { return sol.RouteID == routeID }), nil
}

func (s *MemoryStore) ListByVehicle(_ context.Context, vehicleID string) ([]model.Solution, error) {
	return s.list(func(sol model.Solution) bool { return sol.VehicleID == vehicleID }), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (model.Solution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sol, ok := s.data[id]
	if !ok {
		return model.Solution{}, ErrNotFound
	}
	sol.Decisions = append([]model.SegmentDecision{}, sol.Decisions...)
	return sol, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		return nil
	}
	delete(s.data, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) RoutesWithSolutions(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]struct{}{}
	out := []string{}
	for _, sol := range s.data {
		if _, ok := seen[sol.RouteID]; ok {
			continue
		}
		seen[sol.RouteID] = struct{}{}
		out = append(out, sol.RouteID)
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
