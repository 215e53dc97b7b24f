// Package pgstore implements the dispatch store on PostgreSQL using
// pgx. It is the production backend; schema management lives in the
// embedded migrations.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lifeline-ems/lifeline/core/dispatch"
	"github.com/lifeline-ems/lifeline/core/model"
)

// Store persists dispatch state in PostgreSQL. All methods are safe
// for concurrent use; the claim operation relies on a conditional
// UPDATE so only one of any number of concurrent claims succeeds.
type Store struct {
	db *pgxpool.Pool
}

// NewPool connects a pgx pool and verifies the connection.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return pool, nil
}

// New wraps an existing pool.
func New(db *pgxpool.Pool) *Store { return &Store{db: db} }

// Close releases the underlying pool.
func (s *Store) Close() { s.db.Close() }

const hospitalColumns = `
	id, name, address, phone, lat, lng,
	specializations, facilities, doctors_on_duty,
	total_beds, icu_beds, available_icu_beds, available_general_beds,
	load_percentage, historical_success_rate, verified, updated_at`

func scanHospital(row pgx.Row) (model.Hospital, error) {
	var h model.Hospital
	err := row.Scan(
		&h.ID, &h.Name, &h.Address, &h.Phone, &h.Location.Lat, &h.Location.Lng,
		&h.Specializations, &h.Facilities, &h.DoctorsOnDuty,
		&h.TotalBeds, &h.ICUBeds, &h.AvailableICUBeds, &h.AvailableGeneralBeds,
		&h.LoadPercentage, &h.HistoricalSuccessRate, &h.Verified, &h.UpdatedAt,
	)
	return h, err
}

func (s *Store) Hospitals(ctx context.Context) ([]model.Hospital, error) {
	rows, err := s.db.Query(ctx, `SELECT `+hospitalColumns+` FROM hospitals ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query hospitals: %w", err)
	}
	defer rows.Close()

	var out []model.Hospital
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hospital: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) HospitalByID(ctx context.Context, id string) (model.Hospital, error) {
	h, err := scanHospital(s.db.QueryRow(ctx, `SELECT `+hospitalColumns+` FROM hospitals WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Hospital{}, fmt.Errorf("hospital %s: %w", id, dispatch.ErrNotFound)
	}
	if err != nil {
		return model.Hospital{}, fmt.Errorf("failed to get hospital: %w", err)
	}
	return h, nil
}

func (s *Store) SaveHospital(ctx context.Context, h model.Hospital) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO hospitals (`+hospitalColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			phone = EXCLUDED.phone,
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			specializations = EXCLUDED.specializations,
			facilities = EXCLUDED.facilities,
			doctors_on_duty = EXCLUDED.doctors_on_duty,
			total_beds = EXCLUDED.total_beds,
			icu_beds = EXCLUDED.icu_beds,
			available_icu_beds = EXCLUDED.available_icu_beds,
			available_general_beds = EXCLUDED.available_general_beds,
			load_percentage = EXCLUDED.load_percentage,
			historical_success_rate = EXCLUDED.historical_success_rate,
			verified = EXCLUDED.verified,
			updated_at = EXCLUDED.updated_at`,
		h.ID, h.Name, h.Address, h.Phone, h.Location.Lat, h.Location.Lng,
		h.Specializations, h.Facilities, h.DoctorsOnDuty,
		h.TotalBeds, h.ICUBeds, h.AvailableICUBeds, h.AvailableGeneralBeds,
		h.LoadPercentage, h.HistoricalSuccessRate, h.Verified, h.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save hospital: %w", err)
	}
	return nil
}

const ambulanceColumns = `id, callsign, lat, lng, status, active_request_id, updated_at`

func scanAmbulance(row pgx.Row) (model.Ambulance, error) {
	var a model.Ambulance
	err := row.Scan(&a.ID, &a.Callsign, &a.Location.Lat, &a.Location.Lng, &a.Status, &a.ActiveRequestID, &a.UpdatedAt)
	return a, err
}

func (s *Store) AvailableAmbulances(ctx context.Context) ([]model.Ambulance, error) {
	rows, err := s.db.Query(ctx, `SELECT `+ambulanceColumns+` FROM ambulances WHERE status = $1 ORDER BY id`,
		model.AmbulanceAvailable)
	if err != nil {
		return nil, fmt.Errorf("failed to query ambulances: %w", err)
	}
	defer rows.Close()

	var out []model.Ambulance
	for rows.Next() {
		a, err := scanAmbulance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ambulance: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) AmbulanceByID(ctx context.Context, id string) (model.Ambulance, error) {
	a, err := scanAmbulance(s.db.QueryRow(ctx, `SELECT `+ambulanceColumns+` FROM ambulances WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Ambulance{}, fmt.Errorf("ambulance %s: %w", id, dispatch.ErrNotFound)
	}
	if err != nil {
		return model.Ambulance{}, fmt.Errorf("failed to get ambulance: %w", err)
	}
	return a, nil
}

func (s *Store) SaveAmbulance(ctx context.Context, a model.Ambulance) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ambulances (`+ambulanceColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET
			callsign = EXCLUDED.callsign,
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			status = EXCLUDED.status,
			active_request_id = EXCLUDED.active_request_id,
			updated_at = EXCLUDED.updated_at`,
		a.ID, a.Callsign, a.Location.Lat, a.Location.Lng, a.Status, a.ActiveRequestID, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save ambulance: %w", err)
	}
	return nil
}

// ClaimAmbulance performs the claim as a conditional UPDATE. Zero rows
// affected means the ambulance either does not exist or is no longer
// available; the two cases map to ErrNotFound and ErrClaimConflict.
func (s *Store) ClaimAmbulance(ctx context.Context, ambulanceID, requestID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE ambulances
		SET status = $1, active_request_id = $2, updated_at = now()
		WHERE id = $3 AND status = $4`,
		model.AmbulanceBusy, requestID, ambulanceID, model.AmbulanceAvailable,
	)
	if err != nil {
		return fmt.Errorf("failed to claim ambulance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var status model.AmbulanceStatus
		err := s.db.QueryRow(ctx, `SELECT status FROM ambulances WHERE id = $1`, ambulanceID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("ambulance %s: %w", ambulanceID, dispatch.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check ambulance: %w", err)
		}
		return fmt.Errorf("ambulance %s is %s: %w", ambulanceID, status, dispatch.ErrClaimConflict)
	}
	return nil
}

func (s *Store) ReleaseAmbulance(ctx context.Context, ambulanceID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE ambulances
		SET status = $1, active_request_id = '', updated_at = now()
		WHERE id = $2`,
		model.AmbulanceAvailable, ambulanceID,
	)
	if err != nil {
		return fmt.Errorf("failed to release ambulance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ambulance %s: %w", ambulanceID, dispatch.ErrNotFound)
	}
	return nil
}

const requestColumns = `
	id, lat, lng, emergency_type, severity, notes, status,
	selected_hospital_id, backup_hospital_id, assigned_ambulance_id,
	created_at, assigned_at, accepted_at, enroute_at, arrived_at, completed_at, cancelled_at`

func scanRequest(row pgx.Row) (model.SOSRequest, error) {
	var (
		r                                                     model.SOSRequest
		assigned, accepted, enroute, arrived, completed, gone *time.Time
	)
	err := row.Scan(
		&r.ID, &r.Location.Lat, &r.Location.Lng, &r.EmergencyType, &r.Severity, &r.Notes, &r.Status,
		&r.SelectedHospitalID, &r.BackupHospitalID, &r.AssignedAmbulanceID,
		&r.CreatedAt, &assigned, &accepted, &enroute, &arrived, &completed, &gone,
	)
	if err != nil {
		return model.SOSRequest{}, err
	}
	r.AssignedAt = timeVal(assigned)
	r.AcceptedAt = timeVal(accepted)
	r.EnrouteAt = timeVal(enroute)
	r.ArrivedAt = timeVal(arrived)
	r.CompletedAt = timeVal(completed)
	r.CancelledAt = timeVal(gone)
	return r, nil
}

func (s *Store) CreateRequest(ctx context.Context, r *model.SOSRequest) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO sos_requests (`+requestColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		r.ID, r.Location.Lat, r.Location.Lng, r.EmergencyType, r.Severity, r.Notes, r.Status,
		r.SelectedHospitalID, r.BackupHospitalID, r.AssignedAmbulanceID,
		r.CreatedAt, nullTime(r.AssignedAt), nullTime(r.AcceptedAt), nullTime(r.EnrouteAt),
		nullTime(r.ArrivedAt), nullTime(r.CompletedAt), nullTime(r.CancelledAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return nil
}

func (s *Store) RequestByID(ctx context.Context, id string) (model.SOSRequest, error) {
	r, err := scanRequest(s.db.QueryRow(ctx, `SELECT `+requestColumns+` FROM sos_requests WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.SOSRequest{}, fmt.Errorf("request %s: %w", id, dispatch.ErrNotFound)
	}
	if err != nil {
		return model.SOSRequest{}, fmt.Errorf("failed to get request: %w", err)
	}
	return r, nil
}

func (s *Store) UpdateRequest(ctx context.Context, r model.SOSRequest) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE sos_requests SET
			emergency_type = $2, severity = $3, notes = $4, status = $5,
			selected_hospital_id = $6, backup_hospital_id = $7, assigned_ambulance_id = $8,
			assigned_at = $9, accepted_at = $10, enroute_at = $11,
			arrived_at = $12, completed_at = $13, cancelled_at = $14
		WHERE id = $1`,
		r.ID, r.EmergencyType, r.Severity, r.Notes, r.Status,
		r.SelectedHospitalID, r.BackupHospitalID, r.AssignedAmbulanceID,
		nullTime(r.AssignedAt), nullTime(r.AcceptedAt), nullTime(r.EnrouteAt),
		nullTime(r.ArrivedAt), nullTime(r.CompletedAt), nullTime(r.CancelledAt),
	)
	if err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("request %s: %w", r.ID, dispatch.ErrNotFound)
	}
	return nil
}

func (s *Store) ActiveRequestForAmbulance(ctx context.Context, ambulanceID string) (model.SOSRequest, error) {
	r, err := scanRequest(s.db.QueryRow(ctx, `
		SELECT `+requestColumns+` FROM sos_requests
		WHERE assigned_ambulance_id = $1 AND status NOT IN ($2, $3)
		LIMIT 1`,
		ambulanceID, model.StatusCompleted, model.StatusCancelled,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.SOSRequest{}, fmt.Errorf("no active request for ambulance %s: %w", ambulanceID, dispatch.ErrNotFound)
	}
	if err != nil {
		return model.SOSRequest{}, fmt.Errorf("failed to get active request: %w", err)
	}
	return r, nil
}

func (s *Store) ActiveRequests(ctx context.Context) ([]model.SOSRequest, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+requestColumns+` FROM sos_requests
		WHERE status NOT IN ($1, $2)
		ORDER BY created_at`,
		model.StatusCompleted, model.StatusCancelled,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query active requests: %w", err)
	}
	defer rows.Close()

	var out []model.SOSRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) AppendScores(ctx context.Context, recs []model.ScoreRecord) error {
	batch := &pgx.Batch{}
	for _, rec := range recs {
		batch.Queue(`
			INSERT INTO score_records (
				id, request_id, hospital_id,
				facility_score, distance_score, bed_score,
				specialist_score, prediction_score, history_score,
				total_score, distance_km, eta_minutes, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
			rec.ID, rec.RequestID, rec.HospitalID,
			rec.Facility, rec.Distance, rec.Bed,
			rec.Specialist, rec.Prediction, rec.History,
			rec.Total, rec.DistanceKm, rec.ETAMinutes, rec.CreatedAt,
		)
	}
	if err := s.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to append score records: %w", err)
	}
	return nil
}

// ScoresForRequest returns the stored score records for a request, in
// append order.
func (s *Store) ScoresForRequest(ctx context.Context, requestID string) ([]model.ScoreRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, request_id, hospital_id,
			facility_score, distance_score, bed_score,
			specialist_score, prediction_score, history_score,
			total_score, distance_km, eta_minutes, created_at
		FROM score_records WHERE request_id = $1 ORDER BY created_at`,
		requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query score records: %w", err)
	}
	defer rows.Close()

	var out []model.ScoreRecord
	for rows.Next() {
		var rec model.ScoreRecord
		if err := rows.Scan(
			&rec.ID, &rec.RequestID, &rec.HospitalID,
			&rec.Facility, &rec.Distance, &rec.Bed,
			&rec.Specialist, &rec.Prediction, &rec.History,
			&rec.Total, &rec.DistanceKm, &rec.ETAMinutes, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan score record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) AppendEvent(ctx context.Context, ev model.Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO events (id, type, request_id, ambulance_id, hospital_id, status, detail, ts)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		ev.ID, ev.Type, ev.RequestID, ev.AmbulanceID, ev.HospitalID, ev.Status, ev.Detail, ev.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// EventsForRequest returns the event log entries of one request in
// append order.
func (s *Store) EventsForRequest(ctx context.Context, requestID string) ([]model.Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, type, request_id, ambulance_id, hospital_id, status, detail, ts
		FROM events WHERE request_id = $1 ORDER BY ts`,
		requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var ev model.Event
		if err := rows.Scan(&ev.ID, &ev.Type, &ev.RequestID, &ev.AmbulanceID, &ev.HospitalID, &ev.Status, &ev.Detail, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func timeVal(p *time.Time) time.Time {
	if p == nil {
		return time.Time{}
	}
	return *p
}
