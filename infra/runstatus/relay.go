package runstatus

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/events"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/logger"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/internal/eventbus"
)

// Relay forwards run events between replicas over Redis Pub/Sub. Events
// published on the local bus are sent to the channel and events received
// from other replicas are published on the remote bus.
type Relay struct {
	rdb     *redis.Client
	channel string
	origin  string
	log     logger.Logger
}

type envelope struct {
	Origin string          `json:"origin"`
	Event  events.RunEvent `json:"event"`
}

// NewRelay creates a relay. origin identifies this replica so that its own
// messages are not echoed back.
func NewRelay(rdb *redis.Client, channel, origin string, log logger.Logger) *Relay {
	if channel == "" {
		channel = "ecodrive:events"
	}
	return &Relay{rdb: rdb, channel: channel, origin: origin, log: logger.OrNop(log)}
}

// Forward sends every event of local to Redis until ctx ends.
func (r *Relay) Forward(ctx context.Context, local *eventbus.TypedBus[events.RunEvent]) {
	ch := local.Subscribe()
	defer local.Unsubscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(envelope{Origin: r.origin, Event: ev})
			if err != nil {
				continue
			}
			pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			if err := r.rdb.Publish(pctx, r.channel, data).Err(); err != nil {
				r.log.Warnf("relay publish: %v", err)
			}
			cancel()
		}
	}
}

// Receive publishes events from other replicas on remote until ctx ends.
// It returns once the subscription is confirmed and consumes in the
// background.
func (r *Relay) Receive(ctx context.Context, remote *eventbus.TypedBus[events.RunEvent]) error {
	ps := r.rdb.Subscribe(ctx, r.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return err
	}
	go func() {
		defer func() { _ = ps.Close() }()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var env envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					r.log.Warnf("relay decode: %v", err)
					continue
				}
				if env.Origin == r.origin {
					continue
				}
				remote.Publish(env.Event)
			}
		}
	}()
	return nil
}
