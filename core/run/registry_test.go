package run

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRegistryOrdersBySubmission(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()
	t0 := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, r.Put(ctx, Status{ProcessID: "b", SubmittedAt: t0.Add(time.Minute)}))
	require.NoError(t, r.Put(ctx, Status{ProcessID: "a", SubmittedAt: t0.Add(time.Minute)}))
	require.NoError(t, r.Put(ctx, Status{ProcessID: "c", SubmittedAt: t0, SolutionIDs: []string{"x"}}))

	all, err := r.List(ctx)
	require.NoError(t, err)
	var ids []string
	for _, st := range all {
		ids = append(ids, st.ProcessID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)

	st, err := r.Get(ctx, "c")
	require.NoError(t, err)
	st.SolutionIDs[0] = "mutated"
	again, _ := r.Get(ctx, "c")
	assert.Equal(t, "x", again.SolutionIDs[0])

	_, err = r.Get(ctx, "zzz")
	assert.ErrorIs(t, err, ErrUnknownRun)
}

func TestRequestDecodingKeepsDefaults(t *testing.T) {
	req := DefaultRequest()
	body := `{"processId":"p1","route_id":"r1","vehicle_id":"v1","maxEvaluations":200,"takeStops":true}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	require.NoError(t, req.Validate())
	assert.Equal(t, 50, req.PopulationSize)
	assert.Equal(t, 200, req.MaxEvaluations)
	assert.True(t, req.TakeStops)
	assert.Equal(t, "p1", req.OptimizerConfig().ProcessID)

	req.NeighborhoodSize = 0
	err := req.Validate()
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "neighborhoodSize")
}

func TestStateTerminal(t *testing.T) {
	for _, s := range []State{StateCompleted, StateInfeasible, StateCancelled, StateFailed} {
		assert.True(t, s.Terminal(), s)
	}
	assert.False(t, StatePending.Terminal())
	assert.False(t, StateRunning.Terminal())
}
