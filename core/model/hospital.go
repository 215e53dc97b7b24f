package model

import "time"

// Hospital represents a care facility participating in emergency routing.
type Hospital struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Address  string     `json:"address,omitempty"`
	Phone    string     `json:"phone,omitempty"`
	Location Coordinate `json:"location"`

	// Specializations lists the emergency types the hospital declares
	// itself specialized in (e.g. "cardiac", "trauma").
	Specializations []string `json:"specializations"`
	// Facilities lists the equipment and wards available on site.
	Facilities []string `json:"facilities"`
	// DoctorsOnDuty lists the specialist roles currently on shift.
	DoctorsOnDuty []string `json:"doctors_on_duty"`

	TotalBeds            int `json:"total_beds"`
	ICUBeds              int `json:"icu_beds"`
	AvailableICUBeds     int `json:"available_icu_beds"`
	AvailableGeneralBeds int `json:"available_general_beds"`

	// LoadPercentage is the current occupancy load in [0,100]. Values
	// outside the range are clamped by the scorer.
	LoadPercentage float64 `json:"load_percentage"`
	// HistoricalSuccessRate is the hospital's track record in [0,1].
	// A non-positive value means unknown.
	HistoricalSuccessRate float64 `json:"historical_success_rate"`

	Verified  bool      `json:"verified"`
	UpdatedAt time.Time `json:"updated_at"`
}
