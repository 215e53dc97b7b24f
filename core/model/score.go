package model

import "time"

// ScoreRecord holds the readiness score computed for one hospital
// against one request. Records are immutable and append-only; they are
// kept for analytics.
type ScoreRecord struct {
	ID         string `json:"id"`
	RequestID  string `json:"request_id"`
	HospitalID string `json:"hospital_id"`

	Facility   float64 `json:"facility_score"`
	Distance   float64 `json:"distance_score"`
	Bed        float64 `json:"bed_score"`
	Specialist float64 `json:"specialist_score"`
	Prediction float64 `json:"prediction_score"`
	History    float64 `json:"history_score"`

	Total      float64 `json:"total_score"`
	DistanceKm float64 `json:"distance_km"`
	ETAMinutes float64 `json:"eta_minutes"`

	CreatedAt time.Time `json:"created_at"`
}
