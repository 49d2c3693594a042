package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/model"
)

// Distance returns the great-circle distance between two nodes in meters.
func Distance(a, b model.Node) float64 {
	return orbgeo.DistanceHaversine(orb.Point{a.Lng, a.Lat}, orb.Point{b.Lng, b.Lat})
}

// Slope returns the grade in percent and the angle in degrees between two
// nodes separated by distance meters.
func Slope(a, b model.Node, distance float64) (pct, deg float64) {
	if distance <= 0 {
		return 0, 0
	}
	rise := b.ElevationM - a.ElevationM
	pct = rise / distance * 100
	deg = math.Atan(rise/distance) * 180 / math.Pi
	return pct, deg
}

// BuildSegment derives the geometric fields of a segment from its endpoints.
// A nil index leaves the zone lists empty.
func BuildSegment(id string, a, b model.Node, speedKmh float64, ix *ZoneIndex) model.Segment {
	d := Distance(a, b)
	pct, deg := Slope(a, b, d)
	s := model.Segment{
		ID:          id,
		Origin:      a.ID,
		Destination: b.ID,
		DistanceM:   d,
		AvgSpeedKmh: speedKmh,
		SlopePct:    pct,
		SlopeDeg:    deg,
	}
	if ix != nil {
		s.ZEZ, s.REZ = ix.Locate(a, b)
	}
	return s
}
