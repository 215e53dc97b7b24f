package dispatch

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lifeline-ems/lifeline/core/auth"
	"github.com/lifeline-ems/lifeline/core/catalog"
	"github.com/lifeline-ems/lifeline/core/events"
	"github.com/lifeline-ems/lifeline/core/geo"
	"github.com/lifeline-ems/lifeline/core/logger"
	"github.com/lifeline-ems/lifeline/core/metrics"
	"github.com/lifeline-ems/lifeline/core/model"
	"github.com/lifeline-ems/lifeline/core/scoring"
)

// Intake is the payload of a new SOS request.
type Intake struct {
	Location      model.Coordinate
	EmergencyType string
	Severity      string
	Notes         string
}

// Coordinator owns the SOS request state machine. Transitions on a
// single request are serialized through striped per-request locks;
// transitions on different requests run concurrently.
type Coordinator struct {
	store    Store
	scorer   *scoring.Scorer
	notifier events.Notifier
	auth     auth.Authorizer
	metrics  metrics.Sink
	log      logger.Logger
	sched    *Scheduler

	locks [64]sync.Mutex
}

// NewCoordinator creates a coordinator. Store, scorer, authorizer and
// logger are required; a nil notifier or metrics sink defaults to the
// no-op implementation.
func NewCoordinator(store Store, scorer *scoring.Scorer, notifier events.Notifier, authorizer auth.Authorizer, sink metrics.Sink, log logger.Logger, cfg Config) (*Coordinator, error) {
	if store == nil || scorer == nil || authorizer == nil || log == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to NewCoordinator")
	}
	if notifier == nil {
		notifier = events.NopNotifier{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	cfg.SetDefaults()

	c := &Coordinator{
		store:    store,
		scorer:   scorer,
		notifier: notifier,
		auth:     authorizer,
		metrics:  sink,
		log:      log,
	}
	c.sched = NewScheduler(cfg.AcceptTimeout, c.handleAcceptTimeout, log)
	return c, nil
}

// AcceptTimeout returns the effective accept-timeout interval.
func (c *Coordinator) AcceptTimeout() time.Duration { return c.sched.Timeout() }

// CreateRequest validates the intake, persists the request in pending
// state, ranks all hospitals and stores their score records together
// with the best and backup picks.
//
// When no hospital lies within the search radius the request is still
// created and ErrNoCandidates is returned alongside it.
func (c *Coordinator) CreateRequest(ctx context.Context, in Intake) (model.SOSRequest, scoring.Ranking, error) {
	if !in.Location.Valid() {
		return model.SOSRequest{}, scoring.Ranking{}, fmt.Errorf("%w: GPS coordinates required", ErrInvalidInput)
	}
	etype := strings.ToLower(strings.TrimSpace(in.EmergencyType))
	if !catalog.Known(etype) {
		return model.SOSRequest{}, scoring.Ranking{}, fmt.Errorf("%w: unknown emergency type %q", ErrInvalidInput, in.EmergencyType)
	}
	severity := in.Severity
	if severity == "" {
		severity = "medium"
	}

	req := model.SOSRequest{
		ID:            uuid.NewString(),
		Location:      in.Location,
		EmergencyType: etype,
		Severity:      severity,
		Notes:         in.Notes,
		Status:        model.StatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	if err := c.store.CreateRequest(ctx, &req); err != nil {
		return model.SOSRequest{}, scoring.Ranking{}, fmt.Errorf("create request: %w", err)
	}

	hospitals, err := c.store.Hospitals(ctx)
	if err != nil {
		return req, scoring.Ranking{}, fmt.Errorf("load hospitals: %w", err)
	}
	ranking := c.scorer.Rank(hospitals, req.Location, req.EmergencyType)
	c.log.Infof("sos %s: scored %d hospitals, %d within radius", req.ID, ranking.Evaluated, len(ranking.Ranked))

	recs := make([]model.ScoreRecord, 0, len(ranking.Ranked))
	for _, cand := range ranking.Ranked {
		rec := cand.Record
		rec.RequestID = req.ID
		recs = append(recs, rec)
	}
	if len(recs) > 0 {
		if err := c.store.AppendScores(ctx, recs); err != nil {
			return req, ranking, fmt.Errorf("persist scores: %w", err)
		}
	}

	if err := c.metrics.RecordIntake(metrics.IntakeRecord{
		RequestID:     req.ID,
		EmergencyType: req.EmergencyType,
		Severity:      req.Severity,
		Candidates:    len(ranking.Ranked),
		Time:          req.CreatedAt,
	}); err != nil {
		c.log.Errorf("metrics error: %v", err)
	}
	if sr, ok := c.metrics.(metrics.ScoreRecorder); ok {
		if err := sr.RecordScores(req.ID, recs); err != nil {
			c.log.Errorf("score metrics error: %v", err)
		}
	}

	if ranking.Best == nil {
		return req, ranking, ErrNoCandidates
	}

	req.SelectedHospitalID = ranking.Best.Hospital.ID
	if ranking.Backup != nil {
		req.BackupHospitalID = ranking.Backup.Hospital.ID
	}
	if err := c.store.UpdateRequest(ctx, req); err != nil {
		return req, ranking, fmt.Errorf("store hospital picks: %w", err)
	}

	ev := events.New(model.EventNewSOS, fmt.Sprintf("%s emergency, best hospital %s, ETA %.1f min",
		req.EmergencyType, ranking.Best.Hospital.Name, ranking.Best.Record.ETAMinutes))
	ev.RequestID = req.ID
	ev.HospitalID = ranking.Best.Hospital.ID
	c.emit(ctx, ev)

	return req, ranking, nil
}

// ConfirmHospital pins the destination hospital and dispatches the
// nearest available ambulance. On ErrNoAvailableAmbulance the hospital
// choice is kept and the request stays pending; the caller may retry.
func (c *Coordinator) ConfirmHospital(ctx context.Context, requestID, hospitalID string) (model.SOSRequest, error) {
	mu := c.lockFor(requestID)
	mu.Lock()
	defer mu.Unlock()

	req, err := c.store.RequestByID(ctx, requestID)
	if err != nil {
		return model.SOSRequest{}, err
	}
	if req.Status != model.StatusPending {
		return req, fmt.Errorf("%w: cannot confirm hospital in status %s", ErrInvalidTransition, req.Status)
	}
	hospital, err := c.store.HospitalByID(ctx, hospitalID)
	if err != nil {
		return req, err
	}
	req.SelectedHospitalID = hospital.ID

	amb, distKm, err := c.claimNearest(ctx, req, nil)
	if err != nil {
		if errors.Is(err, ErrNoAvailableAmbulance) {
			// Keep the confirmed hospital even though dispatch failed.
			if uerr := c.store.UpdateRequest(ctx, req); uerr != nil {
				return req, fmt.Errorf("store hospital choice: %w", uerr)
			}
		}
		return req, err
	}
	return c.finishAssignment(ctx, req, amb, distKm, false)
}

// DriverAccept records the driver's acknowledgment of an assignment.
// The acting ambulance must be the one currently assigned.
func (c *Coordinator) DriverAccept(ctx context.Context, requestID, ambulanceID string) (model.SOSRequest, error) {
	mu := c.lockFor(requestID)
	mu.Lock()
	defer mu.Unlock()

	req, err := c.store.RequestByID(ctx, requestID)
	if err != nil {
		return model.SOSRequest{}, err
	}
	if req.Status != model.StatusAssigned || req.AssignedAmbulanceID != ambulanceID {
		return req, fmt.Errorf("%w: accept from %s in status %s", ErrInvalidTransition, ambulanceID, req.Status)
	}
	now := time.Now().UTC()
	req.Status = model.StatusAccepted
	req.AcceptedAt = now
	if err := c.store.UpdateRequest(ctx, req); err != nil {
		return req, fmt.Errorf("update request: %w", err)
	}
	ev := events.New(model.EventDriverAccepted, "driver accepted the assignment")
	ev.RequestID = req.ID
	ev.AmbulanceID = ambulanceID
	ev.Status = req.Status
	c.emit(ctx, ev)
	c.recordTransition(req)
	return req, nil
}

// DriverEnroute marks the ambulance as travelling to the patient.
func (c *Coordinator) DriverEnroute(ctx context.Context, requestID, ambulanceID string) (model.SOSRequest, error) {
	return c.driverTransition(ctx, requestID, ambulanceID, model.StatusAccepted, model.StatusEnroute)
}

// DriverArrived marks the ambulance as on scene.
func (c *Coordinator) DriverArrived(ctx context.Context, requestID, ambulanceID string) (model.SOSRequest, error) {
	return c.driverTransition(ctx, requestID, ambulanceID, model.StatusEnroute, model.StatusArrived)
}

// Complete finishes the trip and releases the ambulance. With a
// non-empty ambulanceID it is a driver action validated against the
// assignment; otherwise it is administrative and requires the
// complete_request capability.
func (c *Coordinator) Complete(ctx context.Context, requestID, ambulanceID string, actor auth.Actor) (model.SOSRequest, error) {
	mu := c.lockFor(requestID)
	mu.Lock()
	defer mu.Unlock()

	req, err := c.store.RequestByID(ctx, requestID)
	if err != nil {
		return model.SOSRequest{}, err
	}
	if ambulanceID == "" {
		if !c.auth.Allow(actor, auth.ActionCompleteRequest) {
			return req, fmt.Errorf("%w: %s may not complete requests", ErrUnauthorized, actor.Role)
		}
	} else if req.AssignedAmbulanceID != ambulanceID {
		return req, fmt.Errorf("%w: complete from ambulance %s", ErrInvalidTransition, ambulanceID)
	}
	if req.Status != model.StatusArrived {
		return req, fmt.Errorf("%w: cannot complete in status %s", ErrInvalidTransition, req.Status)
	}

	if req.AssignedAmbulanceID != "" {
		if err := c.store.ReleaseAmbulance(ctx, req.AssignedAmbulanceID); err != nil {
			return req, fmt.Errorf("release ambulance: %w", err)
		}
	}
	now := time.Now().UTC()
	req.Status = model.StatusCompleted
	req.CompletedAt = now
	if err := c.store.UpdateRequest(ctx, req); err != nil {
		return req, fmt.Errorf("update request: %w", err)
	}
	ev := events.New(model.EventTripCompleted, "trip completed")
	ev.RequestID = req.ID
	ev.AmbulanceID = req.AssignedAmbulanceID
	ev.Status = req.Status
	c.emit(ctx, ev)
	c.recordTransition(req)
	return req, nil
}

// Cancel aborts a non-terminal request, releasing any claimed
// ambulance. Administrative action.
func (c *Coordinator) Cancel(ctx context.Context, requestID string, actor auth.Actor) (model.SOSRequest, error) {
	if !c.auth.Allow(actor, auth.ActionCancelRequest) {
		return model.SOSRequest{}, fmt.Errorf("%w: %s may not cancel requests", ErrUnauthorized, actor.Role)
	}
	mu := c.lockFor(requestID)
	mu.Lock()
	defer mu.Unlock()

	req, err := c.store.RequestByID(ctx, requestID)
	if err != nil {
		return model.SOSRequest{}, err
	}
	if req.Status.Terminal() {
		return req, fmt.Errorf("%w: cannot cancel in status %s", ErrInvalidTransition, req.Status)
	}
	if req.AssignedAmbulanceID != "" {
		if err := c.store.ReleaseAmbulance(ctx, req.AssignedAmbulanceID); err != nil {
			return req, fmt.Errorf("release ambulance: %w", err)
		}
	}
	req.Status = model.StatusCancelled
	req.CancelledAt = time.Now().UTC()
	if err := c.store.UpdateRequest(ctx, req); err != nil {
		return req, fmt.Errorf("update request: %w", err)
	}
	ev := events.New(model.EventStatusChanged, "request cancelled")
	ev.RequestID = req.ID
	ev.Status = req.Status
	c.emit(ctx, ev)
	c.recordTransition(req)
	return req, nil
}

// Reassign abandons the current assignment and dispatches another
// ambulance, excluding the abandoned one. Administrative action.
func (c *Coordinator) Reassign(ctx context.Context, requestID string, actor auth.Actor) (model.SOSRequest, error) {
	if !c.auth.Allow(actor, auth.ActionReassignRequest) {
		return model.SOSRequest{}, fmt.Errorf("%w: %s may not reassign requests", ErrUnauthorized, actor.Role)
	}
	mu := c.lockFor(requestID)
	mu.Lock()
	defer mu.Unlock()

	req, err := c.store.RequestByID(ctx, requestID)
	if err != nil {
		return model.SOSRequest{}, err
	}
	if req.Status != model.StatusAssigned {
		return req, fmt.Errorf("%w: cannot reassign in status %s", ErrInvalidTransition, req.Status)
	}
	return c.redispatch(ctx, req, req.AssignedAmbulanceID)
}

// driverTransition applies a driver action that moves the request from
// one status to the next, validating the acting ambulance.
func (c *Coordinator) driverTransition(ctx context.Context, requestID, ambulanceID string, from, to model.RequestStatus) (model.SOSRequest, error) {
	mu := c.lockFor(requestID)
	mu.Lock()
	defer mu.Unlock()

	req, err := c.store.RequestByID(ctx, requestID)
	if err != nil {
		return model.SOSRequest{}, err
	}
	if req.Status != from || req.AssignedAmbulanceID != ambulanceID {
		return req, fmt.Errorf("%w: %s -> %s from ambulance %s", ErrInvalidTransition, req.Status, to, ambulanceID)
	}
	now := time.Now().UTC()
	req.Status = to
	switch to {
	case model.StatusEnroute:
		req.EnrouteAt = now
	case model.StatusArrived:
		req.ArrivedAt = now
	}
	if err := c.store.UpdateRequest(ctx, req); err != nil {
		return req, fmt.Errorf("update request: %w", err)
	}
	ev := events.New(model.EventStatusChanged, fmt.Sprintf("driver reported %s", to))
	ev.RequestID = req.ID
	ev.AmbulanceID = ambulanceID
	ev.Status = to
	c.emit(ctx, ev)
	c.recordTransition(req)
	return req, nil
}

// handleAcceptTimeout is the scheduler callback. It fires once per
// armed assignment and re-validates against both the current status and
// the ambulance captured at arming time; anything else means the
// request moved on and the timer is stale.
func (c *Coordinator) handleAcceptTimeout(requestID, ambulanceID string) {
	ctx := context.Background()
	mu := c.lockFor(requestID)
	mu.Lock()
	defer mu.Unlock()

	req, err := c.store.RequestByID(ctx, requestID)
	if err != nil {
		c.log.Errorf("accept-timeout: load request %s: %v", requestID, err)
		return
	}
	if req.Status != model.StatusAssigned || req.AssignedAmbulanceID != ambulanceID {
		c.log.Debugw("accept-timeout: stale timer", map[string]any{
			"request_id": requestID,
			"status":     string(req.Status),
			"armed_for":  ambulanceID,
			"current":    req.AssignedAmbulanceID,
		})
		return
	}
	c.log.Warnf("sos %s: ambulance %s did not accept in time, redispatching", requestID, ambulanceID)
	if _, err := c.redispatch(ctx, req, ambulanceID); err != nil && !errors.Is(err, ErrNoAvailableAmbulance) {
		c.log.Errorf("accept-timeout: redispatch %s: %v", requestID, err)
	}
}

// redispatch releases the non-responding ambulance, moves the request
// back to pending and tries exactly one more assignment cycle excluding
// that ambulance. Caller must hold the request lock.
func (c *Coordinator) redispatch(ctx context.Context, req model.SOSRequest, failedAmbulanceID string) (model.SOSRequest, error) {
	if err := c.store.ReleaseAmbulance(ctx, failedAmbulanceID); err != nil {
		return req, fmt.Errorf("release ambulance: %w", err)
	}
	req.Status = model.StatusPending
	req.AssignedAmbulanceID = ""
	if err := c.store.UpdateRequest(ctx, req); err != nil {
		return req, fmt.Errorf("update request: %w", err)
	}

	amb, distKm, err := c.claimNearest(ctx, req, map[string]bool{failedAmbulanceID: true})
	if err != nil {
		if errors.Is(err, ErrNoAvailableAmbulance) {
			ev := events.New(model.EventNoDriverAvailable, "no replacement ambulance available")
			ev.RequestID = req.ID
			c.emit(ctx, ev)
		}
		return req, err
	}
	return c.finishAssignment(ctx, req, amb, distKm, true)
}

// finishAssignment commits the assigned state, emits the assignment
// event and arms the accept-timeout. Caller must hold the request lock
// and have claimed the ambulance already.
func (c *Coordinator) finishAssignment(ctx context.Context, req model.SOSRequest, amb model.Ambulance, distKm float64, reassigned bool) (model.SOSRequest, error) {
	now := time.Now().UTC()
	req.Status = model.StatusAssigned
	req.AssignedAmbulanceID = amb.ID
	req.AssignedAt = now
	if err := c.store.UpdateRequest(ctx, req); err != nil {
		return req, fmt.Errorf("update request: %w", err)
	}

	typ := model.EventDriverAssignment
	detail := fmt.Sprintf("ambulance %s assigned, %.2f km away", amb.ID, distKm)
	if reassigned {
		typ = model.EventDriverReassigned
		detail = fmt.Sprintf("ambulance %s reassigned, %.2f km away", amb.ID, distKm)
	}
	ev := events.New(typ, detail)
	ev.RequestID = req.ID
	ev.AmbulanceID = amb.ID
	ev.HospitalID = req.SelectedHospitalID
	ev.Status = req.Status
	c.emit(ctx, ev)

	if err := c.metrics.RecordAssignment(metrics.AssignmentRecord{
		RequestID:   req.ID,
		AmbulanceID: amb.ID,
		DistanceKm:  distKm,
		Reassigned:  reassigned,
		Time:        now,
	}); err != nil {
		c.log.Errorf("metrics error: %v", err)
	}
	c.recordTransition(req)
	c.sched.Arm(req.ID, amb.ID)
	return req, nil
}

// claimNearest finds and atomically claims the closest available
// ambulance. A claim conflict means another dispatch won the race for
// that unit; the loser excludes it and tries the next candidate.
func (c *Coordinator) claimNearest(ctx context.Context, req model.SOSRequest, exclude map[string]bool) (model.Ambulance, float64, error) {
	if exclude == nil {
		exclude = make(map[string]bool)
	}
	for {
		pool, err := c.store.AvailableAmbulances(ctx)
		if err != nil {
			return model.Ambulance{}, 0, fmt.Errorf("load ambulances: %w", err)
		}
		amb, err := NearestAvailable(pool, req.Location, exclude)
		if err != nil {
			return model.Ambulance{}, 0, err
		}
		if err := c.store.ClaimAmbulance(ctx, amb.ID, req.ID); err != nil {
			if errors.Is(err, ErrClaimConflict) {
				exclude[amb.ID] = true
				continue
			}
			return model.Ambulance{}, 0, fmt.Errorf("claim ambulance: %w", err)
		}
		return amb, geo.DistanceKm(req.Location, amb.Location), nil
	}
}

// emit appends the event to the log and broadcasts it. Both paths are
// best-effort: failures are logged, the transition has already been
// committed.
func (c *Coordinator) emit(ctx context.Context, ev model.Event) {
	if err := c.store.AppendEvent(ctx, ev); err != nil {
		c.log.Errorf("append event %s: %v", ev.Type, err)
	}
	if err := c.notifier.Publish(ctx, ev); err != nil {
		c.log.Warnf("publish event %s: %v", ev.Type, err)
	}
}

func (c *Coordinator) recordTransition(req model.SOSRequest) {
	if tr, ok := c.metrics.(metrics.TransitionRecorder); ok {
		if err := tr.RecordTransition(req.ID, req.Status, time.Now().UTC()); err != nil {
			c.log.Errorf("transition metrics error: %v", err)
		}
	}
}

func (c *Coordinator) lockFor(requestID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(requestID))
	return &c.locks[h.Sum32()%uint32(len(c.locks))]
}
