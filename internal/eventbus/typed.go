package eventbus

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the channel capacity given to each subscriber.
const DefaultBuffer = 8

// TypedBus is a type-safe publish/subscribe bus for events of type T.
// Publish never blocks: a subscriber whose buffer is full misses the
// event and the drop is counted. PublishWait waits for room instead.
type TypedBus[T any] struct {
	mu      sync.RWMutex
	subs    []chan T
	buffer  int
	dropped atomic.Uint64
	closed  bool
}

// NewTyped creates a TypedBus with DefaultBuffer per subscriber.
func NewTyped[T any]() *TypedBus[T] { return NewTypedSize[T](DefaultBuffer) }

// NewTypedSize creates a TypedBus whose subscribers buffer n events.
func NewTypedSize[T any](n int) *TypedBus[T] {
	if n < 1 {
		n = 1
	}
	return &TypedBus[T]{buffer: n}
}

// Publish sends the event to all subscribers.
func (b *TypedBus[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

// PublishWait sends the event to all subscribers, waiting for buffer space
// until ctx is done. Subscribers still full at that point miss the event,
// the drop is counted and ctx's error is returned.
func (b *TypedBus[T]) PublishWait(ctx context.Context, e T) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}
	var err error
	for _, ch := range b.subs {
		if err != nil {
			select {
			case ch <- e:
			default:
				b.dropped.Add(1)
			}
			continue
		}
		select {
		case ch <- e:
		case <-ctx.Done():
			err = ctx.Err()
			b.dropped.Add(1)
		}
	}
	return err
}

// Subscribe registers a subscriber and returns its channel.
func (b *TypedBus[T]) Subscribe() <-chan T {
	ch := make(chan T, b.buffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *TypedBus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Subscribers returns the number of active subscribers.
func (b *TypedBus[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber
// was not keeping up.
func (b *TypedBus[T]) Dropped() uint64 { return b.dropped.Load() }

// Close closes the bus and all subscriber channels.
func (b *TypedBus[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
	b.mu.Unlock()
}
