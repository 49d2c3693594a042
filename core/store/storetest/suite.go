// Package storetest holds the behaviour every SolutionStore backend must
// share. Backend tests call Run with a constructor for a fresh store.
package storetest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/model"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/store"
)

// Sample returns a solution with n decisions and distinct float values.
func Sample(n int, seed float64) model.Solution {
	sol := model.Solution{
		ProcessID:        "proc",
		Feasible:         true,
		TotalEnergyKWh:   12.345678901234 + seed,
		TotalEmissionsKg: 0.1 + seed/3,
		ElectricKm:       1.5,
		CreatedAt:        time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	for i := 0; i < n; i++ {
		mode := model.ModeCombustion
		if i%2 == 0 {
			mode = model.ModeElectric
		}
		sol.Decisions = append(sol.Decisions, model.SegmentDecision{
			SegmentID:   "seg-" + string(rune('a'+i)),
			Mode:        mode,
			EnergyKWh:   float64(i) + seed/7,
			EmissionsKg: float64(i) / 9,
			SOCAfter:    1 - float64(i)/float64(n+1),
			RechargeKWh: float64(i%3) * 0.25,
		})
	}
	return sol
}

// Run exercises the SolutionStore contract against stores built by newStore.
func Run(t *testing.T, newStore func(t *testing.T) store.SolutionStore) {
	t.Run("RoundTrip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		in := []model.Solution{Sample(4, 1), Sample(4, 2)}
		ids, err := s.Persist(ctx, "route-1", "truck-1", in)
		require.NoError(t, err)
		require.Len(t, ids, 2)
		assert.NotEqual(t, ids[0], ids[1])

		out, err := s.ListByRoute(ctx, "route-1")
		require.NoError(t, err)
		require.Len(t, out, 2)
		for i, sol := range out {
			assert.Equal(t, ids[i], sol.ID)
			assert.Equal(t, "route-1", sol.RouteID)
			assert.Equal(t, "truck-1", sol.VehicleID)
			assert.Equal(t, in[i].Modes(), sol.Modes())
			assert.Equal(t, in[i].TotalEnergyKWh, sol.TotalEnergyKWh)
			assert.Equal(t, in[i].TotalEmissionsKg, sol.TotalEmissionsKg)
			assert.Equal(t, in[i].Decisions, sol.Decisions)
			assert.True(t, in[i].CreatedAt.Equal(sol.CreatedAt))
		}
	})

	t.Run("ListsAreEmptyNotErrors", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		byRoute, err := s.ListByRoute(ctx, "missing")
		require.NoError(t, err)
		assert.NotNil(t, byRoute)
		assert.Empty(t, byRoute)
		byVehicle, err := s.ListByVehicle(ctx, "missing")
		require.NoError(t, err)
		assert.Empty(t, byVehicle)
		routes, err := s.RoutesWithSolutions(ctx)
		require.NoError(t, err)
		assert.Empty(t, routes)
	})

	t.Run("ListByVehicle", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.Persist(ctx, "r1", "truck-a", []model.Solution{Sample(2, 1)})
		require.NoError(t, err)
		_, err = s.Persist(ctx, "r2", "truck-a", []model.Solution{Sample(3, 2)})
		require.NoError(t, err)
		_, err = s.Persist(ctx, "r2", "truck-b", []model.Solution{Sample(3, 3)})
		require.NoError(t, err)

		out, err := s.ListByVehicle(ctx, "truck-a")
		require.NoError(t, err)
		require.Len(t, out, 2)
		for _, sol := range out {
			assert.Equal(t, "truck-a", sol.VehicleID)
		}
		routes, err := s.RoutesWithSolutions(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"r1", "r2"}, routes)
	})

	t.Run("GetAndDelete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		ids, err := s.Persist(ctx, "r", "v", []model.Solution{Sample(3, 1)})
		require.NoError(t, err)

		sol, err := s.Get(ctx, ids[0])
		require.NoError(t, err)
		assert.Len(t, sol.Decisions, 3)

		require.NoError(t, s.Delete(ctx, ids[0]))
		require.NoError(t, s.Delete(ctx, ids[0]))
		require.NoError(t, s.Delete(ctx, "never-existed"))

		_, err = s.Get(ctx, ids[0])
		assert.ErrorIs(t, err, store.ErrNotFound)
		out, err := s.ListByRoute(ctx, "r")
		require.NoError(t, err)
		assert.Empty(t, out)
		routes, err := s.RoutesWithSolutions(ctx)
		require.NoError(t, err)
		assert.Empty(t, routes)
	})

	t.Run("NoDecisionsReadBackEmpty", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		ids, err := s.Persist(ctx, "r", "v", []model.Solution{Sample(0, 1)})
		require.NoError(t, err)
		sol, err := s.Get(ctx, ids[0])
		require.NoError(t, err)
		if sol.Decisions == nil {
			t.Fatalf("decisions read back as nil")
		}
		assert.Empty(t, sol.Decisions)
		body, err := json.Marshal(sol)
		require.NoError(t, err)
		assert.Contains(t, string(body), `"decisions":[]`)
		out, err := s.ListByRoute(ctx, "r")
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.NotNil(t, out[0].Decisions)
	})

	t.Run("PersistNothing", func(t *testing.T) {
		s := newStore(t)
		ids, err := s.Persist(context.Background(), "r", "v", nil)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}
