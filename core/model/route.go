package model

import (
	"fmt"
	"math"
)

// Node is a point of a route.
type Node struct {
	ID              string  `json:"id" yaml:"id"`
	Lat             float64 `json:"lat" yaml:"lat"`
	Lng             float64 `json:"lng" yaml:"lng"`
	ElevationM      float64 `json:"elevation_m" yaml:"elevation_m"`
	IsStop          bool    `json:"is_stop" yaml:"is_stop"`
	IsChargingPoint bool    `json:"is_charging_point" yaml:"is_charging_point"`
}

// Segment connects two nodes and carries the data the energy model needs.
type Segment struct {
	ID          string   `json:"id" yaml:"id"`
	Origin      string   `json:"origin" yaml:"origin"`
	Destination string   `json:"destination" yaml:"destination"`
	DistanceM   float64  `json:"distance_m" yaml:"distance_m"`
	AvgSpeedKmh float64  `json:"avg_speed_kmh" yaml:"avg_speed_kmh"`
	SlopePct    float64  `json:"slope_pct" yaml:"slope_pct"`
	SlopeDeg    float64  `json:"slope_deg" yaml:"slope_deg"`
	ZEZ         []string `json:"zez,omitempty" yaml:"zez,omitempty"`
	REZ         []string `json:"rez,omitempty" yaml:"rez,omitempty"`
}

// InZEZ reports whether the segment crosses a zero-emission zone.
func (s Segment) InZEZ() bool { return len(s.ZEZ) > 0 }

// InREZ reports whether the segment crosses a restricted-emission zone.
func (s Segment) InREZ() bool { return len(s.REZ) > 0 }

// SpeedMS returns the average speed in m/s.
func (s Segment) SpeedMS() float64 { return s.AvgSpeedKmh / 3.6 }

// SlopeRad returns the slope angle in radians.
func (s Segment) SlopeRad() float64 { return s.SlopeDeg * math.Pi / 180 }

// Validate checks the physical fields of the segment.
func (s Segment) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("segment id is required")
	}
	if s.DistanceM <= 0 {
		return fmt.Errorf("segment %s: distance must be positive", s.ID)
	}
	if s.AvgSpeedKmh <= 0 {
		return fmt.Errorf("segment %s: average speed must be positive", s.ID)
	}
	if math.Abs(s.SlopeDeg) >= 90 {
		return fmt.Errorf("segment %s: slope angle out of range", s.ID)
	}
	return nil
}

// Route is an ordered list of segment ids.
type Route struct {
	ID         string   `json:"id" yaml:"id"`
	SegmentIDs []string `json:"segments" yaml:"segments"`
}

// CompleteRoute concatenates routes into the itinerary optimized as one unit.
type CompleteRoute struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	RouteIDs []string `json:"routes" yaml:"routes"`
}

// Leg pairs a segment with its resolved endpoints.
type Leg struct {
	Segment Segment
	From    Node
	To      Node
}

// RouteData is everything the optimizer needs about a complete route,
// with segments in traversal order.
type RouteData struct {
	Route    CompleteRoute
	Segments []Segment
	Nodes    map[string]Node
}

// Validate checks that the segments chain and that every endpoint is known.
func (d RouteData) Validate() error {
	if len(d.Segments) == 0 {
		return fmt.Errorf("route %s has no segments", d.Route.ID)
	}
	for i, s := range d.Segments {
		if err := s.Validate(); err != nil {
			return err
		}
		if _, ok := d.Nodes[s.Origin]; !ok {
			return fmt.Errorf("segment %s: unknown origin node %s", s.ID, s.Origin)
		}
		if _, ok := d.Nodes[s.Destination]; !ok {
			return fmt.Errorf("segment %s: unknown destination node %s", s.ID, s.Destination)
		}
		if i > 0 && d.Segments[i-1].Destination != s.Origin {
			return fmt.Errorf("segment %s does not start where %s ends", s.ID, d.Segments[i-1].ID)
		}
	}
	return nil
}

// Legs resolves segment endpoints. Call Validate first.
func (d RouteData) Legs() []Leg {
	legs := make([]Leg, len(d.Segments))
	for i, s := range d.Segments {
		legs[i] = Leg{Segment: s, From: d.Nodes[s.Origin], To: d.Nodes[s.Destination]}
	}
	return legs
}

// Clone returns a deep copy of the route data.
func (d RouteData) Clone() RouteData {
	c := RouteData{Route: d.Route}
	c.Route.RouteIDs = append([]string(nil), d.Route.RouteIDs...)
	c.Segments = make([]Segment, len(d.Segments))
	for i, s := range d.Segments {
		s.ZEZ = append([]string(nil), s.ZEZ...)
		s.REZ = append([]string(nil), s.REZ...)
		c.Segments[i] = s
	}
	c.Nodes = make(map[string]Node, len(d.Nodes))
	for k, n := range d.Nodes {
		c.Nodes[k] = n
	}
	return c
}
