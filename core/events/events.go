// Package events defines the domain events emitted by the dispatch
// coordinator and the notifier port used to broadcast them.
//
// Delivery is fire-and-forget, at-most-once: publish failures are
// logged by the caller and never block a dispatch operation.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lifeline-ems/lifeline/core/model"
)

// Notifier broadcasts a named event to subscribers.
type Notifier interface {
	Publish(ctx context.Context, ev model.Event) error
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) Publish(context.Context, model.Event) error { return nil }

// New builds an event with a fresh id and the current UTC timestamp.
func New(typ model.EventType, detail string) model.Event {
	return model.Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	}
}
