package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/events"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/logger"
	coremqtt "github.com/goal-group-uca/EcoDrivePlanner-eMob/core/mqtt"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/internal/eventbus"
)

// Client mirrors the core mqtt.Client interface.
type Client = coremqtt.Client

// EventPublisher forwards run events from the bus to the broker. Lifecycle
// events go to <prefix>/runs/<id>/status as retained messages and progress
// events, when enabled, to <prefix>/runs/<id>/progress.
type EventPublisher struct {
	client   Client
	prefix   string
	progress bool
	log      logger.Logger
}

// NewEventPublisher creates a publisher for cfg's prefix.
func NewEventPublisher(client Client, cfg Config, log logger.Logger) *EventPublisher {
	cfg.SetDefaults()
	return &EventPublisher{
		client:   client,
		prefix:   strings.TrimSuffix(cfg.TopicPrefix, "/"),
		progress: cfg.Progress,
		log:      logger.OrNop(log),
	}
}

// Topic returns the topic an event is published on.
func (p *EventPublisher) Topic(ev events.RunEvent) string {
	leaf := "status"
	if ev.Kind == events.KindProgress {
		leaf = "progress"
	}
	return fmt.Sprintf("%s/runs/%s/%s", p.prefix, ev.ProcessID, leaf)
}

// Handle publishes a single event.
func (p *EventPublisher) Handle(ev events.RunEvent) error {
	if ev.Kind == events.KindProgress && !p.progress {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.client.Publish(p.Topic(ev), payload, ev.Kind != events.KindProgress)
}

// Run consumes bus until ctx ends.
func (p *EventPublisher) Run(ctx context.Context, bus *eventbus.TypedBus[events.RunEvent]) {
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := p.Handle(ev); err != nil {
				p.log.Warnf("publish run event %s/%s: %v", ev.ProcessID, ev.Kind, err)
			}
		}
	}
}

// Message is a payload recorded by MockPublisher.
type Message struct {
	Topic    string
	Payload  []byte
	Retained bool
}

// MockPublisher is a simple client used in tests.
type MockPublisher struct {
	Messages []Message
	FailAll  bool
	mu       sync.Mutex
	cancel   func(string)
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher { return &MockPublisher{} }

// Publish records the message or returns an error if configured to fail.
func (m *MockPublisher) Publish(topic string, payload []byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return fmt.Errorf("publish failed")
	}
	m.Messages = append(m.Messages, Message{Topic: topic, Payload: payload, Retained: retained})
	return nil
}

// OnCancel stores the handler so tests can trigger it with Cancel.
func (m *MockPublisher) OnCancel(fn func(string)) {
	m.mu.Lock()
	m.cancel = fn
	m.mu.Unlock()
}

// Cancel simulates a remote cancel command.
func (m *MockPublisher) Cancel(processID string) {
	m.mu.Lock()
	fn := m.cancel
	m.mu.Unlock()
	if fn != nil {
		fn(processID)
	}
}

// Snapshot returns a copy of the recorded messages.
func (m *MockPublisher) Snapshot() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.Messages...)
}
