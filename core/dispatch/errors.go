package dispatch

import "errors"

var (
	// ErrInvalidInput marks an intake rejected before any persistence
	// write: missing coordinates or an unknown emergency type.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks an unknown hospital, ambulance or request id.
	ErrNotFound = errors.New("not found")

	// ErrNoCandidates is returned when no hospital lies within the
	// search radius. The request stays created but unassigned.
	ErrNoCandidates = errors.New("no hospital candidates within search radius")

	// ErrNoAvailableAmbulance is returned when the available pool is
	// empty. The request stays pending.
	ErrNoAvailableAmbulance = errors.New("no available ambulance")

	// ErrInvalidTransition marks a driver or administrative action that
	// does not match the request's current state or assigned ambulance.
	// The request state is left unchanged.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrClaimConflict is returned by Store.ClaimAmbulance when the
	// ambulance is no longer available. Callers retry with the next
	// candidate.
	ErrClaimConflict = errors.New("ambulance already claimed")

	// ErrUnauthorized marks an administrative action the actor is not
	// allowed to perform.
	ErrUnauthorized = errors.New("unauthorized")
)
