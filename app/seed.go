package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/lifeline-ems/lifeline/core/dispatch"
	"github.com/lifeline-ems/lifeline/core/logger"
	"github.com/lifeline-ems/lifeline/core/model"
)

// SeedData is the on-disk format of a seed file.
type SeedData struct {
	Hospitals  []model.Hospital  `json:"hospitals"`
	Ambulances []model.Ambulance `json:"ambulances"`
}

// Seed loads hospitals and ambulances from a JSON file into the store.
// Existing records with the same ids are overwritten.
func Seed(ctx context.Context, store dispatch.Store, path string, log logger.Logger) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var data SeedData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	now := time.Now().UTC()
	for _, h := range data.Hospitals {
		if h.ID == "" || h.Name == "" || !h.Location.Valid() {
			return fmt.Errorf("invalid hospital entry %q in seed file", h.ID)
		}
		if h.UpdatedAt.IsZero() {
			h.UpdatedAt = now
		}
		if err := store.SaveHospital(ctx, h); err != nil {
			return fmt.Errorf("seed hospital %s: %w", h.ID, err)
		}
	}
	for _, a := range data.Ambulances {
		if a.ID == "" || !a.Location.Valid() {
			return fmt.Errorf("invalid ambulance entry %q in seed file", a.ID)
		}
		if a.Status == "" {
			a.Status = model.AmbulanceAvailable
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
		if err := store.SaveAmbulance(ctx, a); err != nil {
			return fmt.Errorf("seed ambulance %s: %w", a.ID, err)
		}
	}
	log.Infof("seeded %d hospitals and %d ambulances from %s", len(data.Hospitals), len(data.Ambulances), path)
	return nil
}
