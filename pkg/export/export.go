// Package export serializes score records and event logs for analysts,
// in JSON or CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/lifeline-ems/lifeline/core/model"
)

// WriteScoresJSON writes the score records to w in JSON format.
func WriteScoresJSON(w io.Writer, recs []model.ScoreRecord) error {
	enc := json.NewEncoder(w)
	return enc.Encode(recs)
}

// WriteScoresCSV writes the score records to w as CSV with a header row.
func WriteScoresCSV(w io.Writer, recs []model.ScoreRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"request_id", "hospital_id",
		"facility_score", "distance_score", "bed_score",
		"specialist_score", "prediction_score", "history_score",
		"total_score", "distance_km", "eta_minutes", "created_at",
	}); err != nil {
		return err
	}
	for _, r := range recs {
		rec := []string{
			r.RequestID,
			r.HospitalID,
			formatFloat(r.Facility),
			formatFloat(r.Distance),
			formatFloat(r.Bed),
			formatFloat(r.Specialist),
			formatFloat(r.Prediction),
			formatFloat(r.History),
			formatFloat(r.Total),
			formatFloat(r.DistanceKm),
			formatFloat(r.ETAMinutes),
			r.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEventsJSON writes the events to w in JSON format.
func WriteEventsJSON(w io.Writer, events []model.Event) error {
	enc := json.NewEncoder(w)
	return enc.Encode(events)
}

// WriteEventsCSV writes the events to w as CSV with a header row.
func WriteEventsCSV(w io.Writer, events []model.Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"id", "type", "request_id", "ambulance_id", "hospital_id", "status", "detail", "timestamp",
	}); err != nil {
		return err
	}
	for _, ev := range events {
		rec := []string{
			ev.ID,
			string(ev.Type),
			ev.RequestID,
			ev.AmbulanceID,
			ev.HospitalID,
			string(ev.Status),
			ev.Detail,
			ev.Timestamp.Format(time.RFC3339),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
