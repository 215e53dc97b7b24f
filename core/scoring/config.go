package scoring

import "fmt"

// Weights holds the six composite score weights. They must sum to 1.00;
// this is validated once at startup, not per call.
type Weights struct {
	Facility   float64 `json:"facility"`
	Distance   float64 `json:"distance"`
	Bed        float64 `json:"bed"`
	Specialist float64 `json:"specialist"`
	Prediction float64 `json:"prediction"`
	History    float64 `json:"history"`
}

// DefaultWeights returns the standard weight set.
func DefaultWeights() Weights {
	return Weights{
		Facility:   0.30,
		Distance:   0.20,
		Bed:        0.20,
		Specialist: 0.15,
		Prediction: 0.10,
		History:    0.05,
	}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Facility + w.Distance + w.Bed + w.Specialist + w.Prediction + w.History
}

// Validate checks the weight-sum invariant.
func (w Weights) Validate() error {
	const eps = 1e-9
	if s := w.Sum(); s < 1-eps || s > 1+eps {
		return fmt.Errorf("scoring weights must sum to 1.00, got %.4f", s)
	}
	return nil
}

// Config defines scoring parameters loaded from configuration.
type Config struct {
	Weights        Weights `json:"weights"`
	SearchRadiusKm float64 `json:"search_radius_km"`
	AvgSpeedKmh    float64 `json:"avg_speed_kmh"`
}

const (
	// DefaultSearchRadiusKm bounds the candidate search area.
	DefaultSearchRadiusKm = 15.0
	// DefaultAvgSpeedKmh is the assumed ambulance travel speed.
	DefaultAvgSpeedKmh = 40.0
)

// SetDefaults applies documented defaults. Non-positive radius or speed
// fall back to the defaults rather than failing.
func (c *Config) SetDefaults() {
	if c.Weights == (Weights{}) {
		c.Weights = DefaultWeights()
	}
	if c.SearchRadiusKm <= 0 {
		c.SearchRadiusKm = DefaultSearchRadiusKm
	}
	if c.AvgSpeedKmh <= 0 {
		c.AvgSpeedKmh = DefaultAvgSpeedKmh
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	return c.Weights.Validate()
}
