package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/model"
)

func sampleData() Data {
	return Data{
		Nodes: []model.Node{{ID: "a"}, {ID: "b", IsStop: true}, {ID: "c"}},
		Segments: []model.Segment{
			{ID: "ab", Origin: "a", Destination: "b", DistanceM: 1000, AvgSpeedKmh: 40},
			{ID: "bc", Origin: "b", Destination: "c", DistanceM: 800, AvgSpeedKmh: 30, ZEZ: []string{"z1"}},
		},
		Routes: []model.Route{
			{ID: "r1", SegmentIDs: []string{"ab"}},
			{ID: "r2", SegmentIDs: []string{"bc"}},
		},
		CompleteRoutes: []model.CompleteRoute{{ID: "full", Name: "Full", RouteIDs: []string{"r1", "r2"}}},
		Vehicles: []model.VehicleProfile{{
			ID: "t1", BatteryKWh: 90, MassKg: 27000, FrontalAreaM2: 7,
			ICEEfficiency: 0.5, EVEfficiency: 0.9, MaxICEPowerKW: 190, MaxEVPowerKW: 115,
		}},
	}
}

func TestCompleteRouteResolvesSegmentsInOrder(t *testing.T) {
	c, err := NewMemoryCatalog(sampleData())
	require.NoError(t, err)
	d, err := c.CompleteRoute(context.Background(), "full")
	require.NoError(t, err)
	require.Len(t, d.Segments, 2)
	assert.Equal(t, "ab", d.Segments[0].ID)
	assert.Equal(t, "bc", d.Segments[1].ID)
	assert.Len(t, d.Nodes, 3)
	assert.True(t, d.Nodes["b"].IsStop)

	d.Segments[1].ZEZ[0] = "mutated"
	again, err := c.CompleteRoute(context.Background(), "full")
	require.NoError(t, err)
	assert.Equal(t, "z1", again.Segments[1].ZEZ[0])
}

func TestLookupMisses(t *testing.T) {
	c, err := NewMemoryCatalog(sampleData())
	require.NoError(t, err)
	_, err = c.CompleteRoute(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = c.Vehicle(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrNotFound))

	d := sampleData()
	d.Routes[1].SegmentIDs = []string{"missing"}
	c, err = NewMemoryCatalog(d)
	require.NoError(t, err)
	_, err = c.CompleteRoute(context.Background(), "full")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBrokenChainIsRejected(t *testing.T) {
	d := sampleData()
	d.Segments[1].Origin = "a"
	c, err := NewMemoryCatalog(d)
	require.NoError(t, err)
	_, err = c.CompleteRoute(context.Background(), "full")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestDuplicatesAndInvalidVehicles(t *testing.T) {
	d := sampleData()
	d.Nodes = append(d.Nodes, model.Node{ID: "a"})
	_, err := NewMemoryCatalog(d)
	assert.Error(t, err)

	d = sampleData()
	d.Vehicles[0].Extra = map[string]string{"Battery_KWh": "1"}
	_, err = NewMemoryCatalog(d)
	assert.Error(t, err)
}

func TestSetNodeFlags(t *testing.T) {
	c, err := NewMemoryCatalog(sampleData())
	require.NoError(t, err)
	require.NoError(t, c.SetNodeFlags("c", false, true))
	d, err := c.CompleteRoute(context.Background(), "full")
	require.NoError(t, err)
	assert.True(t, d.Nodes["c"].IsChargingPoint)
	assert.ErrorIs(t, c.SetNodeFlags("zz", true, true), ErrNotFound)
	assert.Equal(t, []string{"full"}, c.CompleteRouteIDs())
	assert.Equal(t, []string{"t1"}, c.VehicleIDs())
}
