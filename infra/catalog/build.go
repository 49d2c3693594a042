package catalog

import (
	"context"
	"fmt"

	corecatalog "github.com/goal-group-uca/EcoDrivePlanner-eMob/core/catalog"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/geo"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/logger"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/model"
)

// ElevationSource returns the ground elevation in meters of each point.
type ElevationSource interface {
	Elevations(ctx context.Context, pts []model.Coordinate) ([]float64, error)
}

// BuildOptions controls Build.
type BuildOptions struct {
	// Vertices is the required vertex count of every zone, 0 for any.
	Vertices int
	// Elevation fills node elevations when set.
	Elevation ElevationSource
	// OverwriteElevation also replaces elevations already present.
	OverwriteElevation bool
	// DefaultSpeedKmh is used for segments without an average speed.
	DefaultSpeedKmh float64
	Log             logger.Logger
}

// Build recomputes segment distances and slopes from node positions and
// elevations, and zone membership from the zone polygons. Segments keep
// their id, endpoints and speed.
func Build(ctx context.Context, d corecatalog.Data, opts BuildOptions) (corecatalog.Data, error) {
	log := logger.OrNop(opts.Log)
	ix, err := geo.NewZoneIndex(d.Zones, opts.Vertices)
	if err != nil {
		return d, err
	}
	d.Zones = ix.Zones()

	nodes := append([]model.Node(nil), d.Nodes...)
	if opts.Elevation != nil {
		var idx []int
		var pts []model.Coordinate
		for i, n := range nodes {
			if n.ElevationM == 0 || opts.OverwriteElevation {
				idx = append(idx, i)
				pts = append(pts, model.Coordinate{Lat: n.Lat, Lng: n.Lng})
			}
		}
		if len(pts) > 0 {
			elev, err := opts.Elevation.Elevations(ctx, pts)
			if err != nil {
				return d, fmt.Errorf("elevation lookup: %w", err)
			}
			if len(elev) != len(pts) {
				return d, fmt.Errorf("elevation lookup returned %d values for %d points", len(elev), len(pts))
			}
			for k, i := range idx {
				nodes[i].ElevationM = elev[k]
			}
			log.Infof("filled elevation of %d nodes", len(pts))
		}
	}
	byID := make(map[string]model.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	segs := make([]model.Segment, len(d.Segments))
	for i, s := range d.Segments {
		a, ok := byID[s.Origin]
		if !ok {
			return d, fmt.Errorf("segment %s: unknown origin node %s", s.ID, s.Origin)
		}
		b, ok := byID[s.Destination]
		if !ok {
			return d, fmt.Errorf("segment %s: unknown destination node %s", s.ID, s.Destination)
		}
		speed := s.AvgSpeedKmh
		if speed <= 0 {
			speed = opts.DefaultSpeedKmh
		}
		built := geo.BuildSegment(s.ID, a, b, speed, ix)
		if built.DistanceM <= 0 {
			// Coincident endpoints keep the declared length.
			built.DistanceM = s.DistanceM
		}
		segs[i] = built
	}
	d.Nodes = nodes
	d.Segments = segs
	log.Infof("built %d segments against %d zones", len(segs), len(d.Zones))
	return d, nil
}
