package geo

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/model"
)

// NormalizeZone orders the vertices clockwise around their centroid,
// starting from the vertex with the largest angle. The input is not modified.
func NormalizeZone(z model.Zone) model.Zone {
	out := z
	out.Vertices = append([]model.Coordinate(nil), z.Vertices...)
	if len(out.Vertices) == 0 {
		return out
	}
	var cx, cy float64
	for _, c := range out.Vertices {
		cx += c.Lng
		cy += c.Lat
	}
	cx /= float64(len(out.Vertices))
	cy /= float64(len(out.Vertices))
	angle := func(c model.Coordinate) float64 { return math.Atan2(c.Lat-cy, c.Lng-cx) }
	sort.SliceStable(out.Vertices, func(i, j int) bool {
		return angle(out.Vertices[i]) > angle(out.Vertices[j])
	})
	return out
}

// Ring converts the zone vertices to a closed orb ring.
func Ring(z model.Zone) orb.Ring {
	r := make(orb.Ring, 0, len(z.Vertices)+1)
	for _, c := range z.Vertices {
		r = append(r, orb.Point{c.Lng, c.Lat})
	}
	if len(r) > 0 && !r.Closed() {
		r = append(r, r[0])
	}
	return r
}

type indexedZone struct {
	zone  model.Zone
	poly  orb.Polygon
	bound orb.Bound
}

// ZoneIndex answers zone membership queries for nodes and segments.
type ZoneIndex struct {
	zones []indexedZone
}

// NewZoneIndex validates and normalizes the zones once. vertices is the
// required vertex count per zone, 0 for any.
func NewZoneIndex(zones []model.Zone, vertices int) (*ZoneIndex, error) {
	ix := &ZoneIndex{}
	seen := make(map[string]struct{}, len(zones))
	for _, z := range zones {
		if err := z.Validate(vertices); err != nil {
			return nil, err
		}
		if _, dup := seen[z.ID]; dup {
			return nil, fmt.Errorf("duplicate zone %s", z.ID)
		}
		seen[z.ID] = struct{}{}
		n := NormalizeZone(z)
		poly := orb.Polygon{Ring(n)}
		ix.zones = append(ix.zones, indexedZone{zone: n, poly: poly, bound: poly.Bound()})
	}
	return ix, nil
}

// Zones returns the normalized zones.
func (ix *ZoneIndex) Zones() []model.Zone {
	out := make([]model.Zone, len(ix.zones))
	for i, z := range ix.zones {
		out[i] = z.zone
	}
	return out
}

// Contains returns the ids of the zones of the given kind containing c.
func (ix *ZoneIndex) Contains(c model.Coordinate, kind model.ZoneKind) []string {
	p := orb.Point{c.Lng, c.Lat}
	var ids []string
	for _, z := range ix.zones {
		if z.zone.Kind != kind || !z.bound.Contains(p) {
			continue
		}
		if planar.PolygonContains(z.poly, p) {
			ids = append(ids, z.zone.ID)
		}
	}
	return ids
}

// Locate returns the ZEZ and REZ ids touched by the segment from a to b.
// A segment belongs to a zone when either endpoint or its midpoint lies inside.
func (ix *ZoneIndex) Locate(a, b model.Node) (zez, rez []string) {
	pts := []model.Coordinate{
		{Lat: a.Lat, Lng: a.Lng},
		{Lat: (a.Lat + b.Lat) / 2, Lng: (a.Lng + b.Lng) / 2},
		{Lat: b.Lat, Lng: b.Lng},
	}
	return ix.collect(pts, model.ZoneZEZ), ix.collect(pts, model.ZoneREZ)
}

func (ix *ZoneIndex) collect(pts []model.Coordinate, kind model.ZoneKind) []string {
	var ids []string
	seen := map[string]struct{}{}
	for _, p := range pts {
		for _, id := range ix.Contains(p, kind) {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}
