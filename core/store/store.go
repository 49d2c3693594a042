// Package store defines the solution persistence boundary and an in-memory
// implementation. SQL backends live under infra/store.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/model"
)

// ErrNotFound is returned by Get when no solution has the given id.
var ErrNotFound = errors.New("solution not found")

// SolutionStore persists the non-dominated solutions of finished runs.
// Lists return an empty slice rather than an error when nothing matches and
// Delete is idempotent.
type SolutionStore interface {
	// Persist stores sols atomically for the route and vehicle and returns
	// the ids in the same order.
	Persist(ctx context.Context, routeID, vehicleID string, sols []model.Solution) ([]string, error)
	ListByRoute(ctx context.Context, routeID string) ([]model.Solution, error)
	ListByVehicle(ctx context.Context, vehicleID string) ([]model.Solution, error)
	Get(ctx context.Context, id string) (model.Solution, error)
	Delete(ctx context.Context, id string) error
	// RoutesWithSolutions lists the ids of routes that have at least one
	// stored solution, in lexical order.
	RoutesWithSolutions(ctx context.Context) ([]string, error)
	Close() error
}

// Prepare stamps sols with fresh ids, the owning route and vehicle and a
// common creation time. Backends call it before writing.
func Prepare(routeID, vehicleID string, sols []model.Solution, now time.Time) []model.Solution {
	out := make([]model.Solution, len(sols))
	for i, s := range sols {
		s.ID = uuid.NewString()
		s.RouteID = routeID
		s.VehicleID = vehicleID
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		s.CreatedAt = s.CreatedAt.UTC()
		s.Decisions = append([]model.SegmentDecision(nil), s.Decisions...)
		out[i] = s
	}
	return out
}

// IDs returns the ids of sols.
func IDs(sols []model.Solution) []string {
	ids := make([]string, len(sols))
	for i, s := range sols {
		ids[i] = s.ID
	}
	return ids
}
