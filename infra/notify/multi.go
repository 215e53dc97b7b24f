package notify

import (
	"context"
	"errors"

	"github.com/lifeline-ems/lifeline/core/events"
	"github.com/lifeline-ems/lifeline/core/model"
)

// Multi fans one event out to several notifiers. Every notifier is
// attempted; errors are joined.
type Multi struct {
	notifiers []events.Notifier
}

// NewMulti builds a combined notifier, skipping nil entries.
func NewMulti(notifiers ...events.Notifier) *Multi {
	m := &Multi{}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

// Publish implements events.Notifier.
func (m *Multi) Publish(ctx context.Context, ev model.Event) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
