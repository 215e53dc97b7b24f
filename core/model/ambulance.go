package model

import "time"

// AmbulanceStatus is the lifecycle state of an ambulance.
type AmbulanceStatus string

const (
	AmbulanceAvailable AmbulanceStatus = "available"
	AmbulanceBusy      AmbulanceStatus = "busy"
	AmbulanceOffline   AmbulanceStatus = "offline"
)

// Ambulance represents a dispatchable unit.
//
// ActiveRequestID is set iff Status is AmbulanceBusy; at most one
// non-terminal request may reference a given ambulance at a time.
type Ambulance struct {
	ID              string          `json:"id"`
	Callsign        string          `json:"callsign,omitempty"`
	Location        Coordinate      `json:"location"`
	Status          AmbulanceStatus `json:"status"`
	ActiveRequestID string          `json:"active_request_id,omitempty"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
