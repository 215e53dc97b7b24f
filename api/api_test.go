package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifeline-ems/lifeline/core/auth"
	"github.com/lifeline-ems/lifeline/core/dispatch"
	"github.com/lifeline-ems/lifeline/core/model"
	"github.com/lifeline-ems/lifeline/core/scoring"
	"github.com/lifeline-ems/lifeline/infra/logger"
	"github.com/lifeline-ems/lifeline/infra/memstore"
	"github.com/lifeline-ems/lifeline/internal/eventbus"
)

func newTestRouter(t *testing.T) (*gin.Engine, *memstore.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	store := memstore.New()

	require.NoError(t, store.SaveHospital(ctx, model.Hospital{
		ID:       "h1",
		Name:     "City General",
		Location: model.Coordinate{Lat: 11.02, Lng: 77.0},
		Facilities: []string{
			"ICU", "Cath Lab", "Emergency Ward", "Blood Bank", "CT Scan", "Ventilator",
		},
		DoctorsOnDuty:        []string{"Cardiologist"},
		TotalBeds:            100,
		AvailableICUBeds:     5,
		AvailableGeneralBeds: 20,
		LoadPercentage:       50,
	}))
	require.NoError(t, store.SaveAmbulance(ctx, model.Ambulance{
		ID: "a1", Status: model.AmbulanceAvailable,
		Location: model.Coordinate{Lat: 11.01, Lng: 77.0},
	}))

	scorer, err := scoring.NewScorer(scoring.Config{})
	require.NoError(t, err)
	bus := eventbus.New()
	t.Cleanup(bus.Close)

	coord, err := dispatch.NewCoordinator(store, scorer, bus, auth.NewRoleAuthorizer(), nil, logger.NopLogger{}, dispatch.Config{})
	require.NoError(t, err)

	return NewRouter(NewHandler(coord, store, bus, logger.NopLogger{})), store
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateSOSEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/sos", gin.H{
		"lat": 11.0, "lng": 77.0, "emergency_type": "cardiac",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp sosResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.StatusPending, resp.Request.Status)
	assert.Equal(t, "h1", resp.Request.SelectedHospitalID)
	require.NotEmpty(t, resp.Candidates)
	assert.Equal(t, "h1", resp.Candidates[0].HospitalID)
	assert.Greater(t, resp.Candidates[0].TotalScore, 0.0)
}

func TestCreateSOSEndpointRejectsBadInput(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/sos", gin.H{"lat": 11.0}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/sos", gin.H{
		"lat": 11.0, "lng": 77.0, "emergency_type": "dragon attack",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDispatchFlowOverHTTP(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/sos", gin.H{
		"lat": 11.0, "lng": 77.0, "emergency_type": "cardiac",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created sosResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created.Request.ID

	w = doJSON(t, r, http.MethodPost, "/api/sos/"+id+"/confirm", gin.H{"hospital_id": "h1"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var confirmed sosResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &confirmed))
	assert.Equal(t, "a1", confirmed.Request.AssignedAmbulanceID)

	// Wrong ambulance is a conflict.
	w = doJSON(t, r, http.MethodPost, "/api/sos/"+id+"/accept", gin.H{"ambulance_id": "ghost"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	for _, step := range []string{"accept", "enroute", "arrived"} {
		w = doJSON(t, r, http.MethodPost, "/api/sos/"+id+"/"+step, gin.H{"ambulance_id": "a1"}, nil)
		require.Equal(t, http.StatusOK, w.Code, "step %s: %s", step, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/sos/"+id+"/complete", gin.H{"ambulance_id": "a1"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var done sosResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &done))
	assert.Equal(t, model.StatusCompleted, done.Request.Status)
}

func TestCancelRequiresAdmin(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/sos", gin.H{
		"lat": 11.0, "lng": 77.0, "emergency_type": "general",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created sosResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created.Request.ID

	w = doJSON(t, r, http.MethodPost, "/api/sos/"+id+"/cancel", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/sos/"+id+"/cancel", nil, map[string]string{
		"X-Actor-Role": "admin", "X-Actor-ID": "ops",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHospitalEndpoints(t *testing.T) {
	r, store := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/hospitals", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var hospitals []model.Hospital
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hospitals))
	assert.Len(t, hospitals, 1)

	w = doJSON(t, r, http.MethodGet, "/api/hospitals/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.NoError(t, store.SaveHospital(context.Background(), model.Hospital{
		ID:              "h2",
		Name:            "Heart Institute",
		Location:        model.Coordinate{Lat: 11.03, Lng: 77.0},
		Specializations: []string{"cardiac"},
	}))
	w = doJSON(t, r, http.MethodGet, "/api/hospitals?specialization=Cardiac", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hospitals))
	require.Len(t, hospitals, 1)
	assert.Equal(t, "h2", hospitals[0].ID)

	w = doJSON(t, r, http.MethodPut, "/api/hospitals/h1/status", gin.H{
		"load_percentage": 80,
	}, map[string]string{"X-Actor-Role": "hospital", "X-Actor-ID": "h1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated model.Hospital
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, 80.0, updated.LoadPercentage)

	// Another hospital's identity is rejected.
	w = doJSON(t, r, http.MethodPut, "/api/hospitals/h1/status", gin.H{
		"load_percentage": 10,
	}, map[string]string{"X-Actor-Role": "hospital", "X-Actor-ID": "h9"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestEmergencyTypesEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/emergency-types", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var types map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &types))
	assert.Contains(t, types, "cardiac")
	assert.Contains(t, types, "general")
}

func TestScoreAndEventExports(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/sos", gin.H{
		"lat": 11.0, "lng": 77.0, "emergency_type": "cardiac",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created sosResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created.Request.ID

	w = doJSON(t, r, http.MethodGet, "/api/sos/"+id+"/scores", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var recs []model.ScoreRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "h1", recs[0].HospitalID)

	w = doJSON(t, r, http.MethodGet, "/api/sos/"+id+"/scores?format=csv", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "request_id,hospital_id,")

	w = doJSON(t, r, http.MethodGet, "/api/sos/"+id+"/events?format=csv", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "new_sos")

	w = doJSON(t, r, http.MethodGet, "/api/sos/ghost/scores", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestActiveTripEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/sos", gin.H{
		"lat": 11.0, "lng": 77.0, "emergency_type": "cardiac",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created sosResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, r, http.MethodPost, "/api/sos/"+created.Request.ID+"/confirm", gin.H{"hospital_id": "h1"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/ambulances/a1/active", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var trip activeTripResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trip))
	assert.Equal(t, created.Request.ID, trip.Request.ID)
	assert.Contains(t, trip.NavigationURL, "google.com/maps/dir")

	w = doJSON(t, r, http.MethodGet, "/api/ambulances/ghost/active", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
