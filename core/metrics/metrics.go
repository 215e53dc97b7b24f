// Package metrics defines the observability sink consumed by the
// dispatch coordinator. Concrete sinks live under infra/metrics;
// optional capabilities are discovered by type assertion.
package metrics

import (
	"time"

	"github.com/lifeline-ems/lifeline/core/model"
)

// IntakeRecord captures one SOS intake.
type IntakeRecord struct {
	RequestID     string
	EmergencyType string
	Severity      string
	Candidates    int
	Time          time.Time
}

// AssignmentRecord captures an ambulance assignment.
type AssignmentRecord struct {
	RequestID   string
	AmbulanceID string
	DistanceKm  float64
	Reassigned  bool
	Time        time.Time
}

// Sink records dispatch activity for observability purposes.
type Sink interface {
	RecordIntake(rec IntakeRecord) error
	RecordAssignment(rec AssignmentRecord) error
}

// TransitionRecorder records request state transitions. Optional.
type TransitionRecorder interface {
	RecordTransition(requestID string, to model.RequestStatus, at time.Time) error
}

// ScoreRecorder records the per-candidate score breakdown of a ranking
// call. Optional; intended for analytics backends.
type ScoreRecorder interface {
	RecordScores(requestID string, recs []model.ScoreRecord) error
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) RecordIntake(IntakeRecord) error         { return nil }
func (NopSink) RecordAssignment(AssignmentRecord) error { return nil }
