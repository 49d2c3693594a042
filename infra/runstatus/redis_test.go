package runstatus

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/events"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/run"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/internal/eventbus"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisRegistryRoundTrip(t *testing.T) {
	mr, rdb := newRedis(t)
	reg := NewRedisRegistryWithClient(rdb, "test", time.Hour)
	ctx := context.Background()
	t0 := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	finished := t0.Add(time.Minute)

	require.NoError(t, reg.Put(ctx, run.Status{ProcessID: "late", State: run.StateRunning, SubmittedAt: t0.Add(time.Second)}))
	require.NoError(t, reg.Put(ctx, run.Status{
		ProcessID: "early", State: run.StateCompleted, SubmittedAt: t0,
		FinishedAt: &finished, SolutionIDs: []string{"a", "b"}, Evaluations: 500,
	}))

	st, err := reg.Get(ctx, "early")
	require.NoError(t, err)
	assert.Equal(t, run.StateCompleted, st.State)
	assert.Equal(t, []string{"a", "b"}, st.SolutionIDs)
	assert.True(t, finished.Equal(*st.FinishedAt))

	all, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "early", all[0].ProcessID)
	assert.Equal(t, "late", all[1].ProcessID)

	assert.Equal(t, time.Hour, mr.TTL("test:run:early"))
	assert.Zero(t, mr.TTL("test:run:late"))

	_, err = reg.Get(ctx, "missing")
	assert.ErrorIs(t, err, run.ErrUnknownRun)
}

func TestRedisRegistryPrunesExpired(t *testing.T) {
	mr, rdb := newRedis(t)
	reg := NewRedisRegistryWithClient(rdb, "", time.Minute)
	ctx := context.Background()
	require.NoError(t, reg.Put(ctx, run.Status{ProcessID: "gone", State: run.StateCancelled, SubmittedAt: time.Now()}))
	mr.FastForward(2 * time.Minute)

	all, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	members, err := mr.ZMembers("ecodrive:runs")
	if err == nil {
		assert.Empty(t, members)
	}
}

func TestRegistryBacksManagerStatus(t *testing.T) {
	_, rdb := newRedis(t)
	var reg run.StatusRegistry = NewRedisRegistryWithClient(rdb, "m", 0)
	_, err := reg.Get(context.Background(), "x")
	assert.ErrorIs(t, err, run.ErrUnknownRun)
}

func TestRelayForwardsBetweenReplicas(t *testing.T) {
	_, rdb := newRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	localA := eventbus.NewTyped[events.RunEvent]()
	remoteB := eventbus.NewTyped[events.RunEvent]()
	remoteA := eventbus.NewTyped[events.RunEvent]()

	a := NewRelay(rdb, "ch", "a", nil)
	b := NewRelay(rdb, "ch", "b", nil)
	require.NoError(t, b.Receive(ctx, remoteB))
	require.NoError(t, a.Receive(ctx, remoteA))
	gotB := remoteB.Subscribe()
	gotA := remoteA.Subscribe()

	go a.Forward(ctx, localA)
	require.Eventually(t, func() bool { return localA.Subscribers() > 0 }, time.Second, 10*time.Millisecond)
	localA.Publish(events.RunEvent{ProcessID: "p1", Kind: events.KindCompleted})

	select {
	case ev := <-gotB:
		assert.Equal(t, "p1", ev.ProcessID)
		assert.Equal(t, events.KindCompleted, ev.Kind)
	case <-time.After(2 * time.Second):
		t.Fatalf("event not relayed")
	}
	select {
	case ev := <-gotA:
		t.Fatalf("own event echoed back: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}
