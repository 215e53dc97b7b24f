package dispatch

import (
	"context"

	"github.com/lifeline-ems/lifeline/core/model"
)

// Store is the persistence port consumed by the coordinator. Lookup
// methods return ErrNotFound (possibly wrapped) for unknown ids;
// persistence failures are surfaced to the caller, never swallowed.
type Store interface {
	// Hospitals returns all registered hospitals.
	Hospitals(ctx context.Context) ([]model.Hospital, error)
	HospitalByID(ctx context.Context, id string) (model.Hospital, error)
	// SaveHospital inserts or updates a hospital.
	SaveHospital(ctx context.Context, h model.Hospital) error

	// AvailableAmbulances returns ambulances in the available status.
	AvailableAmbulances(ctx context.Context) ([]model.Ambulance, error)
	AmbulanceByID(ctx context.Context, id string) (model.Ambulance, error)
	SaveAmbulance(ctx context.Context, a model.Ambulance) error

	// ClaimAmbulance atomically marks the ambulance busy and links it
	// to the request. It returns ErrClaimConflict when the ambulance is
	// not available, so a concurrent dispatch that lost the race can
	// move on to its next candidate.
	ClaimAmbulance(ctx context.Context, ambulanceID, requestID string) error
	// ReleaseAmbulance returns the ambulance to the available pool and
	// clears its request link.
	ReleaseAmbulance(ctx context.Context, ambulanceID string) error

	CreateRequest(ctx context.Context, r *model.SOSRequest) error
	RequestByID(ctx context.Context, id string) (model.SOSRequest, error)
	UpdateRequest(ctx context.Context, r model.SOSRequest) error
	// ActiveRequestForAmbulance returns the non-terminal request
	// currently served by the ambulance, or ErrNotFound.
	ActiveRequestForAmbulance(ctx context.Context, ambulanceID string) (model.SOSRequest, error)
	ActiveRequests(ctx context.Context) ([]model.SOSRequest, error)

	// AppendScores persists the per-candidate score records of one
	// ranking call. Append-only.
	AppendScores(ctx context.Context, recs []model.ScoreRecord) error
	// ScoresForRequest returns the stored score records of one request
	// in append order.
	ScoresForRequest(ctx context.Context, requestID string) ([]model.ScoreRecord, error)

	// AppendEvent persists an event log entry. Append-only.
	AppendEvent(ctx context.Context, ev model.Event) error
	// EventsForRequest returns the event log of one request in append
	// order.
	EventsForRequest(ctx context.Context, requestID string) ([]model.Event, error)
}
