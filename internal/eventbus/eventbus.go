// Package eventbus implements the in-process fan-out bus carrying
// dispatch events to live consumers such as the SSE stream.
package eventbus

import (
	"context"
	"sync"

	"github.com/lifeline-ems/lifeline/core/model"
)

// Bus fans dispatch events out to subscriber channels. Delivery is
// non-blocking: a subscriber that falls behind its buffer drops events
// rather than stalling the publisher. Bus implements events.Notifier.
type Bus struct {
	mu     sync.RWMutex
	subs   []chan model.Event
	closed bool
}

// New creates a new Bus.
func New() *Bus { return &Bus{} }

// Publish sends the event to all subscribers. Delivery is non-blocking.
func (b *Bus) Publish(_ context.Context, ev model.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

// Subscribe registers a new subscriber and returns its channel.
func (b *Bus) Subscribe() <-chan model.Event {
	ch := make(chan model.Event, 16)
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
func (b *Bus) Unsubscribe(sub <-chan model.Event) {
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

// Close closes all subscriber channels and clears the list.
func (b *Bus) Close() {
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
