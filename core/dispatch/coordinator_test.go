package dispatch_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifeline-ems/lifeline/core/auth"
	"github.com/lifeline-ems/lifeline/core/dispatch"
	"github.com/lifeline-ems/lifeline/core/model"
	"github.com/lifeline-ems/lifeline/core/scoring"
	"github.com/lifeline-ems/lifeline/infra/logger"
	"github.com/lifeline-ems/lifeline/infra/memstore"
)

// captureNotifier records every published event for assertions.
type captureNotifier struct {
	mu     sync.Mutex
	events []model.Event
}

func (n *captureNotifier) Publish(_ context.Context, ev model.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func (n *captureNotifier) types() []model.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]model.EventType, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Type)
	}
	return out
}

func (n *captureNotifier) last(typ model.EventType) (model.Event, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.events) - 1; i >= 0; i-- {
		if n.events[i].Type == typ {
			return n.events[i], true
		}
	}
	return model.Event{}, false
}

type fixture struct {
	coord    *dispatch.Coordinator
	store    *memstore.Store
	notifier *captureNotifier
}

// newFixture seeds two hospitals and two ambulances around a patient
// at (11.0, 77.0): hospital h1 is closer and better equipped than h2,
// ambulance a1 is closer than a2.
func newFixture(t *testing.T, cfg dispatch.Config) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()

	require.NoError(t, store.SaveHospital(ctx, model.Hospital{
		ID:       "h1",
		Name:     "City General",
		Location: model.Coordinate{Lat: 11.02, Lng: 77.0},
		Facilities: []string{
			"ICU", "Cath Lab", "Emergency Ward", "Blood Bank", "CT Scan", "Ventilator",
		},
		DoctorsOnDuty:        []string{"Cardiologist", "Emergency Physician"},
		Specializations:      []string{"cardiac"},
		TotalBeds:            120,
		AvailableICUBeds:     6,
		AvailableGeneralBeds: 30,
		LoadPercentage:       40,
	}))
	require.NoError(t, store.SaveHospital(ctx, model.Hospital{
		ID:                   "h2",
		Name:                 "Rural Clinic",
		Location:             model.Coordinate{Lat: 11.05, Lng: 77.0},
		Facilities:           []string{"Emergency Ward"},
		TotalBeds:            20,
		AvailableGeneralBeds: 4,
		LoadPercentage:       70,
	}))
	require.NoError(t, store.SaveAmbulance(ctx, model.Ambulance{
		ID: "a1", Status: model.AmbulanceAvailable,
		Location: model.Coordinate{Lat: 11.005, Lng: 77.0},
	}))
	require.NoError(t, store.SaveAmbulance(ctx, model.Ambulance{
		ID: "a2", Status: model.AmbulanceAvailable,
		Location: model.Coordinate{Lat: 11.03, Lng: 77.0},
	}))

	scorer, err := scoring.NewScorer(scoring.Config{})
	require.NoError(t, err)

	notifier := &captureNotifier{}
	coord, err := dispatch.NewCoordinator(store, scorer, notifier, auth.NewRoleAuthorizer(), nil, logger.NopLogger{}, cfg)
	require.NoError(t, err)
	return &fixture{coord: coord, store: store, notifier: notifier}
}

func patientLocation() model.Coordinate { return model.Coordinate{Lat: 11.0, Lng: 77.0} }

func (f *fixture) createAndAssign(t *testing.T, ctx context.Context) model.SOSRequest {
	t.Helper()
	req, _, err := f.coord.CreateRequest(ctx, dispatch.Intake{
		Location:      patientLocation(),
		EmergencyType: "cardiac",
	})
	require.NoError(t, err)
	req, err = f.coord.ConfirmHospital(ctx, req.ID, req.SelectedHospitalID)
	require.NoError(t, err)
	require.Equal(t, model.StatusAssigned, req.Status)
	return req
}

func TestCreateRequestRanksHospitals(t *testing.T) {
	f := newFixture(t, dispatch.Config{})
	ctx := context.Background()

	req, ranking, err := f.coord.CreateRequest(ctx, dispatch.Intake{
		Location:      patientLocation(),
		EmergencyType: "Cardiac",
		Notes:         "chest pain",
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, req.Status)
	assert.Equal(t, "cardiac", req.EmergencyType)
	assert.Equal(t, "medium", req.Severity)
	assert.Equal(t, "h1", req.SelectedHospitalID, "better equipped and closer hospital must win")
	assert.Equal(t, "h2", req.BackupHospitalID)
	assert.Equal(t, 2, ranking.Evaluated)

	recs, err := f.store.ScoresForRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	ev, ok := f.notifier.last(model.EventNewSOS)
	require.True(t, ok)
	assert.Equal(t, req.ID, ev.RequestID)
	assert.Equal(t, "h1", ev.HospitalID)
}

func TestCreateRequestRejectsBadInput(t *testing.T) {
	f := newFixture(t, dispatch.Config{})
	ctx := context.Background()

	_, _, err := f.coord.CreateRequest(ctx, dispatch.Intake{EmergencyType: "cardiac"})
	assert.ErrorIs(t, err, dispatch.ErrInvalidInput)

	_, _, err = f.coord.CreateRequest(ctx, dispatch.Intake{
		Location:      patientLocation(),
		EmergencyType: "dragon attack",
	})
	assert.ErrorIs(t, err, dispatch.ErrInvalidInput)
}

func TestCreateRequestNoCandidatesWithinRadius(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	// ~111 km away, far outside the default 15 km radius.
	require.NoError(t, store.SaveHospital(ctx, model.Hospital{
		ID: "far", Name: "Far Away",
		Location: model.Coordinate{Lat: 12.0, Lng: 77.0},
	}))
	scorer, err := scoring.NewScorer(scoring.Config{})
	require.NoError(t, err)
	coord, err := dispatch.NewCoordinator(store, scorer, nil, auth.AllowAll{}, nil, logger.NopLogger{}, dispatch.Config{})
	require.NoError(t, err)

	req, ranking, err := coord.CreateRequest(ctx, dispatch.Intake{
		Location:      patientLocation(),
		EmergencyType: "general",
	})
	assert.ErrorIs(t, err, dispatch.ErrNoCandidates)
	assert.Nil(t, ranking.Best)
	assert.Equal(t, 1, ranking.Evaluated)

	// The request is created anyway so an operator can intervene.
	got, err := store.RequestByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Empty(t, got.SelectedHospitalID)
}

func TestConfirmHospitalDispatchesNearestAmbulance(t *testing.T) {
	f := newFixture(t, dispatch.Config{})
	ctx := context.Background()

	req := f.createAndAssign(t, ctx)
	assert.Equal(t, "a1", req.AssignedAmbulanceID)
	assert.False(t, req.AssignedAt.IsZero())

	amb, err := f.store.AmbulanceByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, model.AmbulanceBusy, amb.Status)
	assert.Equal(t, req.ID, amb.ActiveRequestID)

	ev, ok := f.notifier.last(model.EventDriverAssignment)
	require.True(t, ok)
	assert.Equal(t, "a1", ev.AmbulanceID)

	// Confirming twice is an invalid transition.
	_, err = f.coord.ConfirmHospital(ctx, req.ID, "h1")
	assert.ErrorIs(t, err, dispatch.ErrInvalidTransition)
}

func TestConfirmHospitalNoAmbulanceKeepsRequestPending(t *testing.T) {
	f := newFixture(t, dispatch.Config{})
	ctx := context.Background()

	for _, id := range []string{"a1", "a2"} {
		require.NoError(t, f.store.ClaimAmbulance(ctx, id, "other"))
	}
	req, _, err := f.coord.CreateRequest(ctx, dispatch.Intake{
		Location:      patientLocation(),
		EmergencyType: "cardiac",
	})
	require.NoError(t, err)

	_, err = f.coord.ConfirmHospital(ctx, req.ID, "h1")
	assert.ErrorIs(t, err, dispatch.ErrNoAvailableAmbulance)

	got, err := f.store.RequestByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Equal(t, "h1", got.SelectedHospitalID, "hospital choice survives dispatch failure")
}

func TestDriverLifecycle(t *testing.T) {
	f := newFixture(t, dispatch.Config{})
	ctx := context.Background()
	req := f.createAndAssign(t, ctx)

	req, err := f.coord.DriverAccept(ctx, req.ID, "a1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, req.Status)
	assert.False(t, req.AcceptedAt.IsZero())

	req, err = f.coord.DriverEnroute(ctx, req.ID, "a1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusEnroute, req.Status)

	req, err = f.coord.DriverArrived(ctx, req.ID, "a1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusArrived, req.Status)

	req, err = f.coord.Complete(ctx, req.ID, "a1", auth.Actor{})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, req.Status)
	assert.False(t, req.CompletedAt.IsZero())

	amb, err := f.store.AmbulanceByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, model.AmbulanceAvailable, amb.Status, "completion releases the ambulance")

	assert.Equal(t, []model.EventType{
		model.EventNewSOS,
		model.EventDriverAssignment,
		model.EventDriverAccepted,
		model.EventStatusChanged,
		model.EventStatusChanged,
		model.EventTripCompleted,
	}, f.notifier.types())
}

func TestDriverActionsValidateAmbulance(t *testing.T) {
	f := newFixture(t, dispatch.Config{})
	ctx := context.Background()
	req := f.createAndAssign(t, ctx)

	_, err := f.coord.DriverAccept(ctx, req.ID, "a2")
	assert.ErrorIs(t, err, dispatch.ErrInvalidTransition)

	// Skipping accept is not allowed either.
	_, err = f.coord.DriverEnroute(ctx, req.ID, "a1")
	assert.ErrorIs(t, err, dispatch.ErrInvalidTransition)

	got, err := f.store.RequestByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAssigned, got.Status, "failed actions leave state untouched")
}

func TestCompleteRequiresArrival(t *testing.T) {
	f := newFixture(t, dispatch.Config{})
	ctx := context.Background()
	req := f.createAndAssign(t, ctx)

	_, err := f.coord.Complete(ctx, req.ID, "a1", auth.Actor{})
	assert.ErrorIs(t, err, dispatch.ErrInvalidTransition)

	// Administrative completion needs the capability.
	_, err = f.coord.Complete(ctx, req.ID, "", auth.Actor{Role: auth.RoleHospital})
	assert.ErrorIs(t, err, dispatch.ErrUnauthorized)
}

func TestCancelReleasesAmbulance(t *testing.T) {
	f := newFixture(t, dispatch.Config{})
	ctx := context.Background()
	req := f.createAndAssign(t, ctx)

	_, err := f.coord.Cancel(ctx, req.ID, auth.Actor{Role: auth.RoleDriver})
	assert.ErrorIs(t, err, dispatch.ErrUnauthorized)

	got, err := f.coord.Cancel(ctx, req.ID, auth.Actor{Role: auth.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)
	assert.False(t, got.CancelledAt.IsZero())

	amb, err := f.store.AmbulanceByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, model.AmbulanceAvailable, amb.Status)

	_, err = f.coord.Cancel(ctx, req.ID, auth.Actor{Role: auth.RoleAdmin})
	assert.ErrorIs(t, err, dispatch.ErrInvalidTransition)
}

func TestReassignSwitchesAmbulance(t *testing.T) {
	f := newFixture(t, dispatch.Config{})
	ctx := context.Background()
	req := f.createAndAssign(t, ctx)
	require.Equal(t, "a1", req.AssignedAmbulanceID)

	got, err := f.coord.Reassign(ctx, req.ID, auth.Actor{Role: auth.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, model.StatusAssigned, got.Status)
	assert.Equal(t, "a2", got.AssignedAmbulanceID, "abandoned ambulance is excluded")

	a1, err := f.store.AmbulanceByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, model.AmbulanceAvailable, a1.Status)

	ev, ok := f.notifier.last(model.EventDriverReassigned)
	require.True(t, ok)
	assert.Equal(t, "a2", ev.AmbulanceID)
}

func TestAcceptTimeoutReassigns(t *testing.T) {
	f := newFixture(t, dispatch.Config{AcceptTimeout: 50 * time.Millisecond})
	ctx := context.Background()
	req := f.createAndAssign(t, ctx)
	require.Equal(t, "a1", req.AssignedAmbulanceID)

	// Assignments keep cycling on every timeout until a driver accepts,
	// so accept as a2 as soon as the hand-over is observed.
	require.Eventually(t, func() bool {
		got, err := f.store.RequestByID(ctx, req.ID)
		if err != nil || got.Status != model.StatusAssigned || got.AssignedAmbulanceID != "a2" {
			return false
		}
		_, err = f.coord.DriverAccept(ctx, req.ID, "a2")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond, "timeout must hand the request to the next ambulance")

	a1, err := f.store.AmbulanceByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, model.AmbulanceAvailable, a1.Status)

	_, ok := f.notifier.last(model.EventDriverReassigned)
	assert.True(t, ok)
}

func TestAcceptTimeoutNoReplacement(t *testing.T) {
	f := newFixture(t, dispatch.Config{AcceptTimeout: 50 * time.Millisecond})
	ctx := context.Background()
	require.NoError(t, f.store.ClaimAmbulance(ctx, "a2", "other"))

	req := f.createAndAssign(t, ctx)
	require.Equal(t, "a1", req.AssignedAmbulanceID)

	require.Eventually(t, func() bool {
		got, err := f.store.RequestByID(ctx, req.ID)
		return err == nil && got.Status == model.StatusPending
	}, 2*time.Second, 10*time.Millisecond)

	got, err := f.store.RequestByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Empty(t, got.AssignedAmbulanceID)

	_, ok := f.notifier.last(model.EventNoDriverAvailable)
	assert.True(t, ok)
}

func TestAcceptTimeoutStaleAfterAccept(t *testing.T) {
	f := newFixture(t, dispatch.Config{AcceptTimeout: 50 * time.Millisecond})
	ctx := context.Background()
	req := f.createAndAssign(t, ctx)

	_, err := f.coord.DriverAccept(ctx, req.ID, "a1")
	require.NoError(t, err)

	time.Sleep(150 * time.Millisecond)

	got, err := f.store.RequestByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, got.Status)
	assert.Equal(t, "a1", got.AssignedAmbulanceID, "stale timer must not touch an accepted request")
}

func TestConcurrentConfirmClaimsSingleAmbulance(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.SaveHospital(ctx, model.Hospital{
		ID: "h1", Name: "City General",
		Location:             model.Coordinate{Lat: 11.02, Lng: 77.0},
		TotalBeds:            50,
		AvailableGeneralBeds: 10,
	}))
	require.NoError(t, store.SaveAmbulance(ctx, model.Ambulance{
		ID: "only", Status: model.AmbulanceAvailable,
		Location: model.Coordinate{Lat: 11.01, Lng: 77.0},
	}))
	scorer, err := scoring.NewScorer(scoring.Config{})
	require.NoError(t, err)
	coord, err := dispatch.NewCoordinator(store, scorer, nil, auth.AllowAll{}, nil, logger.NopLogger{}, dispatch.Config{})
	require.NoError(t, err)

	const racers = 8
	ids := make([]string, racers)
	for i := range ids {
		req, _, err := coord.CreateRequest(ctx, dispatch.Intake{
			Location:      patientLocation(),
			EmergencyType: "general",
		})
		require.NoError(t, err)
		ids[i] = req.ID
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		assigned int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := coord.ConfirmHospital(ctx, id, "h1")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				assigned++
			} else {
				assert.ErrorIs(t, err, dispatch.ErrNoAvailableAmbulance)
			}
		}(id)
	}
	wg.Wait()
	assert.Equal(t, 1, assigned, "a single ambulance serves exactly one request")
}
