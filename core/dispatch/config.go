package dispatch

import "time"

// Config defines dispatch-related settings.
type Config struct {
	// AcceptTimeout is how long an assigned driver has to accept before
	// the assignment is abandoned and retried with another ambulance.
	AcceptTimeout time.Duration `json:"accept_timeout"`
}

// SetDefaults applies the documented default timeout.
func (c *Config) SetDefaults() {
	if c.AcceptTimeout <= 0 {
		c.AcceptTimeout = 30 * time.Second
	}
}
