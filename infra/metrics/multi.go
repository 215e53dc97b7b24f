package metrics

import (
	"time"

	coremetrics "github.com/lifeline-ems/lifeline/core/metrics"
	"github.com/lifeline-ems/lifeline/core/model"
)

// MultiSink fans records out to multiple sinks. Optional capabilities
// are forwarded only to sinks that implement them.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks, skipping
// nil entries.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.Sinks = append(m.Sinks, s)
		}
	}
	return m
}

// RecordIntake forwards the record to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordIntake(rec coremetrics.IntakeRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordIntake(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordAssignment forwards the record to all sinks.
func (m *MultiSink) RecordAssignment(rec coremetrics.AssignmentRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordAssignment(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordTransition forwards status transitions to sinks that track them.
func (m *MultiSink) RecordTransition(requestID string, to model.RequestStatus, at time.Time) error {
	for _, s := range m.Sinks {
		if tr, ok := s.(coremetrics.TransitionRecorder); ok {
			if err := tr.RecordTransition(requestID, to, at); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordScores forwards score breakdowns to sinks that track them.
func (m *MultiSink) RecordScores(requestID string, recs []model.ScoreRecord) error {
	for _, s := range m.Sinks {
		if sr, ok := s.(coremetrics.ScoreRecorder); ok {
			if err := sr.RecordScores(requestID, recs); err != nil {
				return err
			}
		}
	}
	return nil
}
