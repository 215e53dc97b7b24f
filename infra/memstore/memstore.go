// Package memstore provides a mutex-guarded in-memory implementation
// of the dispatch store. It is the default backend for development and
// tests; production deployments use the postgres store.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lifeline-ems/lifeline/core/dispatch"
	"github.com/lifeline-ems/lifeline/core/model"
)

// Store keeps all dispatch state in process memory. All methods are
// safe for concurrent use; values are copied on the way in and out so
// callers never share mutable state with the store.
type Store struct {
	mu         sync.RWMutex
	hospitals  map[string]model.Hospital
	ambulances map[string]model.Ambulance
	requests   map[string]model.SOSRequest
	scores     []model.ScoreRecord
	events     []model.Event
}

// New returns an empty store.
func New() *Store {
	return &Store{
		hospitals:  make(map[string]model.Hospital),
		ambulances: make(map[string]model.Ambulance),
		requests:   make(map[string]model.SOSRequest),
	}
}

func (s *Store) Hospitals(_ context.Context) ([]model.Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Hospital, 0, len(s.hospitals))
	for _, h := range s.hospitals {
		out = append(out, h)
	}
	return out, nil
}

func (s *Store) HospitalByID(_ context.Context, id string) (model.Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hospitals[id]
	if !ok {
		return model.Hospital{}, fmt.Errorf("hospital %s: %w", id, dispatch.ErrNotFound)
	}
	return h, nil
}

func (s *Store) SaveHospital(_ context.Context, h model.Hospital) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hospitals[h.ID] = h
	return nil
}

func (s *Store) AvailableAmbulances(_ context.Context) ([]model.Ambulance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Ambulance
	for _, a := range s.ambulances {
		if a.Status == model.AmbulanceAvailable {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) AmbulanceByID(_ context.Context, id string) (model.Ambulance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.ambulances[id]
	if !ok {
		return model.Ambulance{}, fmt.Errorf("ambulance %s: %w", id, dispatch.ErrNotFound)
	}
	return a, nil
}

func (s *Store) SaveAmbulance(_ context.Context, a model.Ambulance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ambulances[a.ID] = a
	return nil
}

// ClaimAmbulance is a compare-and-set on the ambulance status: only an
// available unit can move to busy, under the store lock, so exactly one
// of any number of concurrent claims succeeds.
func (s *Store) ClaimAmbulance(_ context.Context, ambulanceID, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.ambulances[ambulanceID]
	if !ok {
		return fmt.Errorf("ambulance %s: %w", ambulanceID, dispatch.ErrNotFound)
	}
	if a.Status != model.AmbulanceAvailable {
		return fmt.Errorf("ambulance %s is %s: %w", ambulanceID, a.Status, dispatch.ErrClaimConflict)
	}
	a.Status = model.AmbulanceBusy
	a.ActiveRequestID = requestID
	a.UpdatedAt = time.Now().UTC()
	s.ambulances[ambulanceID] = a
	return nil
}

func (s *Store) ReleaseAmbulance(_ context.Context, ambulanceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.ambulances[ambulanceID]
	if !ok {
		return fmt.Errorf("ambulance %s: %w", ambulanceID, dispatch.ErrNotFound)
	}
	a.Status = model.AmbulanceAvailable
	a.ActiveRequestID = ""
	a.UpdatedAt = time.Now().UTC()
	s.ambulances[ambulanceID] = a
	return nil
}

func (s *Store) CreateRequest(_ context.Context, r *model.SOSRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[r.ID]; exists {
		return fmt.Errorf("request %s already exists", r.ID)
	}
	s.requests[r.ID] = *r
	return nil
}

func (s *Store) RequestByID(_ context.Context, id string) (model.SOSRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return model.SOSRequest{}, fmt.Errorf("request %s: %w", id, dispatch.ErrNotFound)
	}
	return r, nil
}

func (s *Store) UpdateRequest(_ context.Context, r model.SOSRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[r.ID]; !ok {
		return fmt.Errorf("request %s: %w", r.ID, dispatch.ErrNotFound)
	}
	s.requests[r.ID] = r
	return nil
}

func (s *Store) ActiveRequestForAmbulance(_ context.Context, ambulanceID string) (model.SOSRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.requests {
		if r.AssignedAmbulanceID == ambulanceID && r.Active() {
			return r, nil
		}
	}
	return model.SOSRequest{}, fmt.Errorf("no active request for ambulance %s: %w", ambulanceID, dispatch.ErrNotFound)
}

func (s *Store) ActiveRequests(_ context.Context) ([]model.SOSRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.SOSRequest
	for _, r := range s.requests {
		if r.Active() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) AppendScores(_ context.Context, recs []model.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores = append(s.scores, recs...)
	return nil
}

// ScoresForRequest returns the stored score records for a request,
// in append order.
func (s *Store) ScoresForRequest(_ context.Context, requestID string) ([]model.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.ScoreRecord
	for _, rec := range s.scores {
		if rec.RequestID == requestID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *Store) AppendEvent(_ context.Context, ev model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// Events returns a copy of the event log in append order.
func (s *Store) Events(_ context.Context) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Event, len(s.events))
	copy(out, s.events)
	return out, nil
}

// EventsForRequest returns the event log entries of one request in
// append order.
func (s *Store) EventsForRequest(_ context.Context, requestID string) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Event
	for _, ev := range s.events {
		if ev.RequestID == requestID {
			out = append(out, ev)
		}
	}
	return out, nil
}
