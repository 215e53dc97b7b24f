package model

import "time"

// EventType names a domain event emitted on the notification channel
// and appended to the event log.
type EventType string

const (
	EventNewSOS            EventType = "new_sos"
	EventDriverAssignment  EventType = "driver_assignment"
	EventDriverAccepted    EventType = "driver_accepted"
	EventStatusChanged     EventType = "status_changed"
	EventDriverReassigned  EventType = "driver_reassigned"
	EventNoDriverAvailable EventType = "no_driver_available"
	EventTripCompleted     EventType = "trip_completed"
	EventHospitalUpdated   EventType = "hospital_updated"
)

// Event is an append-only log entry. Events are never mutated or
// deleted. Timestamp marshals as RFC3339 (ISO-8601).
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	RequestID   string    `json:"request_id,omitempty"`
	AmbulanceID string    `json:"ambulance_id,omitempty"`
	HospitalID  string    `json:"hospital_id,omitempty"`
	// Status carries the new request status for status_changed events.
	Status    RequestStatus `json:"status,omitempty"`
	Detail    string        `json:"detail,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}
