package scenarios

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lifeline-ems/lifeline/core/auth"
	"github.com/lifeline-ems/lifeline/core/dispatch"
	"github.com/lifeline-ems/lifeline/core/model"
	"github.com/lifeline-ems/lifeline/core/scoring"
	"github.com/lifeline-ems/lifeline/infra/logger"
	"github.com/lifeline-ems/lifeline/infra/memstore"
	"github.com/lifeline-ems/lifeline/infra/metrics"
)

func RunScenario(t *testing.T, sc *Scenario) {
	if len(sc.Expected) != len(sc.Requests) {
		t.Fatalf("scenario %s: %d requests but %d expectations", sc.Name, len(sc.Requests), len(sc.Expected))
	}

	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	store := memstore.New()
	ctx := context.Background()
	for _, h := range sc.Hospitals {
		if err := store.SaveHospital(ctx, h.ToModel()); err != nil {
			t.Fatalf("seed hospital %s: %v", h.ID, err)
		}
	}
	for _, a := range sc.Ambulances {
		if err := store.SaveAmbulance(ctx, a.ToModel()); err != nil {
			t.Fatalf("seed ambulance %s: %v", a.ID, err)
		}
	}

	scorer, err := scoring.NewScorer(scoring.Config{})
	if err != nil {
		t.Fatalf("scorer: %v", err)
	}
	coord, err := dispatch.NewCoordinator(store, scorer, nil, auth.NewRoleAuthorizer(), sink, logger.NopLogger{}, dispatch.Config{})
	if err != nil {
		t.Fatalf("coordinator: %v", err)
	}

	for i, rd := range sc.Requests {
		want := sc.Expected[i]
		req, ranking, err := coord.CreateRequest(ctx, dispatch.Intake{
			Location:      model.Coordinate{Lat: rd.Lat, Lng: rd.Lng},
			EmergencyType: rd.Type,
			Severity:      rd.Severity,
		})
		if want.NoCandidates {
			if !errors.Is(err, dispatch.ErrNoCandidates) {
				t.Fatalf("request %d: expected no candidates, got %v", i, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("request %d: create: %v", i, err)
		}
		if want.Hospital != "" && ranking.Best.Hospital.ID != want.Hospital {
			t.Errorf("request %d: best hospital %s, want %s", i, ranking.Best.Hospital.ID, want.Hospital)
		}
		if want.Backup != "" && (ranking.Backup == nil || ranking.Backup.Hospital.ID != want.Backup) {
			t.Errorf("request %d: backup mismatch, want %s", i, want.Backup)
		}

		if rd.Confirm {
			req, err = coord.ConfirmHospital(ctx, req.ID, ranking.Best.Hospital.ID)
			if want.NoAmbulance {
				if !errors.Is(err, dispatch.ErrNoAvailableAmbulance) {
					t.Fatalf("request %d: expected no ambulance, got %v", i, err)
				}
				req, err = store.RequestByID(ctx, req.ID)
			}
			if err != nil {
				t.Fatalf("request %d: confirm: %v", i, err)
			}
		}
		if rd.Accept {
			req, err = coord.DriverAccept(ctx, req.ID, req.AssignedAmbulanceID)
			if err != nil {
				t.Fatalf("request %d: accept: %v", i, err)
			}
		}

		if want.Ambulance != "" && req.AssignedAmbulanceID != want.Ambulance {
			t.Errorf("request %d: ambulance %q, want %q", i, req.AssignedAmbulanceID, want.Ambulance)
		}
		if want.Status != "" && req.Status != model.RequestStatus(want.Status) {
			t.Errorf("request %d: status %s, want %s", i, req.Status, want.Status)
		}
	}
}
