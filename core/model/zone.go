package model

import "fmt"

// ZoneKind distinguishes hard and soft emission zones.
type ZoneKind string

const (
	// ZoneZEZ is a zero-emission zone: combustion is forbidden.
	ZoneZEZ ZoneKind = "zez"
	// ZoneREZ is a restricted-emission zone: combustion is penalized.
	ZoneREZ ZoneKind = "rez"
)

// Coordinate is a WGS84 position.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Zone is a polygon with an emission policy.
type Zone struct {
	ID       string       `json:"id" yaml:"id"`
	Kind     ZoneKind     `json:"kind" yaml:"kind"`
	Vertices []Coordinate `json:"vertices" yaml:"vertices"`
}

// Validate checks the zone kind and vertex count. A vertices value of 0
// accepts any polygon with at least three vertices.
func (z Zone) Validate(vertices int) error {
	if z.ID == "" {
		return fmt.Errorf("zone id is required")
	}
	if z.Kind != ZoneZEZ && z.Kind != ZoneREZ {
		return fmt.Errorf("zone %s: unknown kind %q", z.ID, z.Kind)
	}
	if vertices > 0 && len(z.Vertices) != vertices {
		return fmt.Errorf("zone %s: expected %d vertices, got %d", z.ID, vertices, len(z.Vertices))
	}
	if len(z.Vertices) < 3 {
		return fmt.Errorf("zone %s: a polygon needs at least 3 vertices", z.ID)
	}
	return nil
}
