package model

import "time"

// RequestStatus is a state of the SOS request lifecycle.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusAssigned  RequestStatus = "assigned"
	StatusAccepted  RequestStatus = "accepted"
	StatusEnroute   RequestStatus = "enroute"
	StatusArrived   RequestStatus = "arrived"
	StatusCompleted RequestStatus = "completed"
	StatusCancelled RequestStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s RequestStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// SOSRequest is one emergency intake event and its dispatch state.
// Zero-value timestamps mean the corresponding transition has not
// happened yet.
type SOSRequest struct {
	ID            string     `json:"id"`
	Location      Coordinate `json:"location"`
	EmergencyType string     `json:"emergency_type"`
	Severity      string     `json:"severity"`
	Notes         string     `json:"notes,omitempty"`

	Status RequestStatus `json:"status"`

	SelectedHospitalID  string `json:"selected_hospital_id,omitempty"`
	BackupHospitalID    string `json:"backup_hospital_id,omitempty"`
	AssignedAmbulanceID string `json:"assigned_ambulance_id,omitempty"`

	CreatedAt   time.Time `json:"created_at"`
	AssignedAt  time.Time `json:"assigned_at,omitzero"`
	AcceptedAt  time.Time `json:"accepted_at,omitzero"`
	EnrouteAt   time.Time `json:"enroute_at,omitzero"`
	ArrivedAt   time.Time `json:"arrived_at,omitzero"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
	CancelledAt time.Time `json:"cancelled_at,omitzero"`
}

// Active reports whether the request still occupies dispatch resources.
func (r SOSRequest) Active() bool { return !r.Status.Terminal() }
