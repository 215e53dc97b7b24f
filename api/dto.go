package api

import (
	"fmt"

	"github.com/lifeline-ems/lifeline/core/model"
	"github.com/lifeline-ems/lifeline/core/scoring"
)

type createSOSRequest struct {
	Lat           float64 `json:"lat" binding:"required"`
	Lng           float64 `json:"lng" binding:"required"`
	EmergencyType string  `json:"emergency_type" binding:"required"`
	Severity      string  `json:"severity"`
	Notes         string  `json:"notes"`
}

type confirmHospitalRequest struct {
	HospitalID string `json:"hospital_id" binding:"required"`
}

type driverActionRequest struct {
	AmbulanceID string `json:"ambulance_id" binding:"required"`
}

type updateLocationRequest struct {
	Lat float64 `json:"lat" binding:"required"`
	Lng float64 `json:"lng" binding:"required"`
}

type updateHospitalStatusRequest struct {
	AvailableICUBeds      *int     `json:"available_icu_beds"`
	AvailableGeneralBeds  *int     `json:"available_general_beds"`
	LoadPercentage        *float64 `json:"load_percentage"`
	HistoricalSuccessRate *float64 `json:"historical_success_rate"`
	DoctorsOnDuty         []string `json:"doctors_on_duty"`
}

type candidateResponse struct {
	HospitalID string  `json:"hospital_id"`
	Name       string  `json:"name"`
	TotalScore float64 `json:"total_score"`
	DistanceKm float64 `json:"distance_km"`
	ETAMinutes float64 `json:"eta_minutes"`

	FacilityScore   float64 `json:"facility_score"`
	DistanceScore   float64 `json:"distance_score"`
	BedScore        float64 `json:"bed_score"`
	SpecialistScore float64 `json:"specialist_score"`
	PredictionScore float64 `json:"prediction_score"`
	HistoryScore    float64 `json:"history_score"`
}

type sosResponse struct {
	Request    model.SOSRequest    `json:"request"`
	Candidates []candidateResponse `json:"candidates,omitempty"`
	Message    string              `json:"message,omitempty"`
}

type activeTripResponse struct {
	Request       model.SOSRequest `json:"request"`
	NavigationURL string           `json:"navigation_url"`
}

func toCandidates(ranking scoring.Ranking) []candidateResponse {
	out := make([]candidateResponse, 0, len(ranking.Ranked))
	for _, c := range ranking.Ranked {
		out = append(out, candidateResponse{
			HospitalID:      c.Hospital.ID,
			Name:            c.Hospital.Name,
			TotalScore:      c.Record.Total,
			DistanceKm:      c.Record.DistanceKm,
			ETAMinutes:      c.Record.ETAMinutes,
			FacilityScore:   c.Record.Facility,
			DistanceScore:   c.Record.Distance,
			BedScore:        c.Record.Bed,
			SpecialistScore: c.Record.Specialist,
			PredictionScore: c.Record.Prediction,
			HistoryScore:    c.Record.History,
		})
	}
	return out
}

// navigationURL builds a Google Maps driving link to the given
// coordinate, used by the driver app.
func navigationURL(loc model.Coordinate) string {
	return fmt.Sprintf("https://www.google.com/maps/dir/?api=1&destination=%f,%f", loc.Lat, loc.Lng)
}
