// Package catalog resolves the route and vehicle data a run needs. Data is
// fetched once when a run starts; the optimizer never calls back into it.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/model"
)

// ErrNotFound wraps every lookup miss.
var ErrNotFound = errors.New("not found")

// RouteProvider returns a complete route with its segments in traversal
// order and the nodes they reference.
type RouteProvider interface {
	CompleteRoute(ctx context.Context, id string) (model.RouteData, error)
}

// VehicleProvider returns a vehicle profile.
type VehicleProvider interface {
	Vehicle(ctx context.Context, id string) (model.VehicleProfile, error)
}

// Provider is implemented by catalogs serving both lookups.
type Provider interface {
	RouteProvider
	VehicleProvider
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}
