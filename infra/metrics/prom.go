// Package metrics provides the concrete observability sinks: Prometheus
// counters for operational dashboards and InfluxDB points for scoring
// analytics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/lifeline-ems/lifeline/core/metrics"
	"github.com/lifeline-ems/lifeline/core/model"
)

// PromSink records dispatch activity in Prometheus metrics.
type PromSink struct {
	intakes     *prometheus.CounterVec
	assignments *prometheus.CounterVec
	transitions *prometheus.CounterVec
	distance    prometheus.Histogram
}

// NewPromSink registers dispatch metrics on the default Prometheus
// registerer. The Prometheus server is started separately.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	intakes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sos_requests_total",
		Help: "Total number of SOS requests received",
	}, []string{"emergency_type", "severity"})
	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ambulance_assignments_total",
		Help: "Total number of ambulance assignments",
	}, []string{"reassigned"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "request_transitions_total",
		Help: "Total number of request status transitions",
	}, []string{"status"})
	distance := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "assignment_distance_km",
		Help:    "Distance between assigned ambulance and patient",
		Buckets: []float64{0.5, 1, 2, 5, 10, 15, 25},
	})

	if err := reg.Register(intakes); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			intakes = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(assignments); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			assignments = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(transitions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			transitions = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(distance); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			distance = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		intakes:     intakes,
		assignments: assignments,
		transitions: transitions,
		distance:    distance,
	}, nil
}

// RecordIntake increments the SOS request counter.
func (s *PromSink) RecordIntake(rec coremetrics.IntakeRecord) error {
	s.intakes.WithLabelValues(rec.EmergencyType, rec.Severity).Inc()
	return nil
}

// RecordAssignment increments the assignment counter and observes the
// pickup distance.
func (s *PromSink) RecordAssignment(rec coremetrics.AssignmentRecord) error {
	label := "false"
	if rec.Reassigned {
		label = "true"
	}
	s.assignments.WithLabelValues(label).Inc()
	s.distance.Observe(rec.DistanceKm)
	return nil
}

// RecordTransition increments the per-status transition counter.
func (s *PromSink) RecordTransition(_ string, to model.RequestStatus, _ time.Time) error {
	s.transitions.WithLabelValues(string(to)).Inc()
	return nil
}
