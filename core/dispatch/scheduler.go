package dispatch

import (
	"time"

	"github.com/lifeline-ems/lifeline/core/logger"
)

// Scheduler arms one-shot deferred accept-timeout checks. A timer is
// never cancelled: it always fires and the callback re-validates
// against the request's current state and the ambulance id captured at
// arming time, so a stale timer from an earlier assignment cycle cannot
// interfere with a newer one.
type Scheduler struct {
	timeout time.Duration
	fire    func(requestID, ambulanceID string)
	log     logger.Logger
}

// NewScheduler creates a scheduler calling fire after timeout. A
// non-positive timeout defaults to thirty seconds.
func NewScheduler(timeout time.Duration, fire func(requestID, ambulanceID string), log logger.Logger) *Scheduler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scheduler{timeout: timeout, fire: fire, log: log}
}

// Timeout returns the configured accept-timeout.
func (s *Scheduler) Timeout() time.Duration { return s.timeout }

// Arm schedules the deferred check for the given assignment. The
// callback runs on the timer goroutine.
func (s *Scheduler) Arm(requestID, ambulanceID string) {
	s.log.Debugw("arming accept-timeout", map[string]any{
		"request_id":   requestID,
		"ambulance_id": ambulanceID,
		"timeout":      s.timeout.String(),
	})
	time.AfterFunc(s.timeout, func() {
		s.fire(requestID, ambulanceID)
	})
}
