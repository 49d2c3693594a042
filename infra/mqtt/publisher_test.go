package mqtt

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/events"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/internal/eventbus"
)

func TestEventPublisherTopics(t *testing.T) {
	mock := NewMockPublisher()
	p := NewEventPublisher(mock, Config{TopicPrefix: "fleet/"}, nil)

	require.NoError(t, p.Handle(events.RunEvent{ProcessID: "p1", Kind: events.KindProgress}))
	require.NoError(t, p.Handle(events.RunEvent{ProcessID: "p1", Kind: events.KindCompleted, Persisted: 4}))

	msgs := mock.Snapshot()
	require.Len(t, msgs, 1, "progress is off by default")
	assert.Equal(t, "fleet/runs/p1/status", msgs[0].Topic)
	assert.True(t, msgs[0].Retained)
	var ev events.RunEvent
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &ev))
	assert.Equal(t, 4, ev.Persisted)

	p = NewEventPublisher(mock, Config{Progress: true}, nil)
	require.NoError(t, p.Handle(events.RunEvent{ProcessID: "p2", Kind: events.KindProgress}))
	last := mock.Snapshot()[1]
	assert.Equal(t, "ecodrive/runs/p2/progress", last.Topic)
	assert.False(t, last.Retained)
}

func TestEventPublisherRunsOnBus(t *testing.T) {
	mock := NewMockPublisher()
	p := NewEventPublisher(mock, Config{}, nil)
	bus := eventbus.NewTyped[events.RunEvent]()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx, bus)
		close(done)
	}()
	require.Eventually(t, func() bool { return bus.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	bus.Publish(events.RunEvent{ProcessID: "a", Kind: events.KindStarted})
	bus.Publish(events.RunEvent{ProcessID: "a", Kind: events.KindCancelled})
	require.Eventually(t, func() bool { return len(mock.Snapshot()) == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.Zero(t, bus.Subscribers())
}

func TestMockPublisherFailureAndCancel(t *testing.T) {
	mock := NewMockPublisher()
	mock.FailAll = true
	p := NewEventPublisher(mock, Config{}, nil)
	assert.Error(t, p.Handle(events.RunEvent{ProcessID: "x", Kind: events.KindFailed}))

	var got string
	mock.OnCancel(func(id string) { got = id })
	mock.Cancel("x")
	assert.Equal(t, "x", got)
}
