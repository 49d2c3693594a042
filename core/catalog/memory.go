package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/model"
)

// Data is the raw content of a catalog.
type Data struct {
	Nodes          []model.Node           `json:"nodes" yaml:"nodes"`
	Segments       []model.Segment        `json:"segments" yaml:"segments"`
	Routes         []model.Route          `json:"routes" yaml:"routes"`
	CompleteRoutes []model.CompleteRoute  `json:"complete_routes" yaml:"complete_routes"`
	Vehicles       []model.VehicleProfile `json:"vehicles" yaml:"vehicles"`
	Zones          []model.Zone           `json:"zones" yaml:"zones"`
}

// MemoryCatalog serves lookups from an in-memory copy of Data.
type MemoryCatalog struct {
	mu             sync.RWMutex
	nodes          map[string]model.Node
	segments       map[string]model.Segment
	routes         map[string]model.Route
	completeRoutes map[string]model.CompleteRoute
	vehicles       map[string]model.VehicleProfile
	zones          []model.Zone
}

// NewMemoryCatalog indexes d. Duplicate ids are rejected and every vehicle
// is validated.
func NewMemoryCatalog(d Data) (*MemoryCatalog, error) {
	c := &MemoryCatalog{
		nodes:          make(map[string]model.Node, len(d.Nodes)),
		segments:       make(map[string]model.Segment, len(d.Segments)),
		routes:         make(map[string]model.Route, len(d.Routes)),
		completeRoutes: make(map[string]model.CompleteRoute, len(d.CompleteRoutes)),
		vehicles:       make(map[string]model.VehicleProfile, len(d.Vehicles)),
		zones:          append([]model.Zone(nil), d.Zones...),
	}
	for _, n := range d.Nodes {
		if _, dup := c.nodes[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node %s", n.ID)
		}
		c.nodes[n.ID] = n
	}
	for _, s := range d.Segments {
		if _, dup := c.segments[s.ID]; dup {
			return nil, fmt.Errorf("duplicate segment %s", s.ID)
		}
		c.segments[s.ID] = s
	}
	for _, r := range d.Routes {
		if _, dup := c.routes[r.ID]; dup {
			return nil, fmt.Errorf("duplicate route %s", r.ID)
		}
		c.routes[r.ID] = r
	}
	for _, r := range d.CompleteRoutes {
		if _, dup := c.completeRoutes[r.ID]; dup {
			return nil, fmt.Errorf("duplicate complete route %s", r.ID)
		}
		c.completeRoutes[r.ID] = r
	}
	for _, v := range d.Vehicles {
		if err := v.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.vehicles[v.ID]; dup {
			return nil, fmt.Errorf("duplicate vehicle %s", v.ID)
		}
		c.vehicles[v.ID] = v.Clone()
	}
	return c, nil
}

// CompleteRoute resolves the route, checks that segments chain and returns
// a copy the caller owns.
func (c *MemoryCatalog) CompleteRoute(ctx context.Context, id string) (model.RouteData, error) {
	if err := ctx.Err(); err != nil {
		return model.RouteData{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	cr, ok := c.completeRoutes[id]
	if !ok {
		return model.RouteData{}, notFound("complete route", id)
	}
	d := model.RouteData{Route: cr, Nodes: map[string]model.Node{}}
	d.Route.RouteIDs = append([]string(nil), cr.RouteIDs...)
	for _, rid := range cr.RouteIDs {
		r, ok := c.routes[rid]
		if !ok {
			return model.RouteData{}, notFound("route", rid)
		}
		for _, sid := range r.SegmentIDs {
			s, ok := c.segments[sid]
			if !ok {
				return model.RouteData{}, notFound("segment", sid)
			}
			for _, nid := range []string{s.Origin, s.Destination} {
				n, ok := c.nodes[nid]
				if !ok {
					return model.RouteData{}, notFound("node", nid)
				}
				d.Nodes[nid] = n
			}
			d.Segments = append(d.Segments, s)
		}
	}
	if err := d.Validate(); err != nil {
		return model.RouteData{}, err
	}
	return d.Clone(), nil
}

// Vehicle returns a copy of the profile.
func (c *MemoryCatalog) Vehicle(ctx context.Context, id string) (model.VehicleProfile, error) {
	if err := ctx.Err(); err != nil {
		return model.VehicleProfile{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.vehicles[id]
	if !ok {
		return model.VehicleProfile{}, notFound("vehicle", id)
	}
	return v.Clone(), nil
}

// SetNodeFlags toggles the stop and charging-point flags of a node. Runs
// already started keep the copy they loaded.
func (c *MemoryCatalog) SetNodeFlags(id string, isStop, isChargingPoint bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.nodes[id]
	if !ok {
		return notFound("node", id)
	}
	n.IsStop = isStop
	n.IsChargingPoint = isChargingPoint
	c.nodes[id] = n
	return nil
}

// CompleteRouteIDs lists the complete routes in lexical order.
func (c *MemoryCatalog) CompleteRouteIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.completeRoutes))
	for id := range c.completeRoutes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// VehicleIDs lists the vehicles in lexical order.
func (c *MemoryCatalog) VehicleIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.vehicles))
	for id := range c.vehicles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Zones returns the zones declared in the catalog.
func (c *MemoryCatalog) Zones() []model.Zone {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Zone(nil), c.zones...)
}
