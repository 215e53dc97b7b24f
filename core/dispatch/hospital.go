package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/lifeline-ems/lifeline/core/auth"
	"github.com/lifeline-ems/lifeline/core/events"
	"github.com/lifeline-ems/lifeline/core/model"
)

// HospitalStatusUpdate carries a partial update of a hospital's live
// capacity. Nil fields are left untouched.
type HospitalStatusUpdate struct {
	AvailableICUBeds      *int
	AvailableGeneralBeds  *int
	LoadPercentage        *float64
	HistoricalSuccessRate *float64
	DoctorsOnDuty         []string
}

// UpdateHospitalStatus applies a capacity update reported by a
// hospital. Requires the update_hospital capability; a hospital actor
// may only update itself.
func (c *Coordinator) UpdateHospitalStatus(ctx context.Context, hospitalID string, upd HospitalStatusUpdate, actor auth.Actor) (model.Hospital, error) {
	if !c.auth.Allow(actor, auth.ActionUpdateHospital) {
		return model.Hospital{}, fmt.Errorf("%w: %s may not update hospitals", ErrUnauthorized, actor.Role)
	}
	if actor.Role == auth.RoleHospital && actor.ID != hospitalID {
		return model.Hospital{}, fmt.Errorf("%w: hospital %s may not update %s", ErrUnauthorized, actor.ID, hospitalID)
	}

	h, err := c.store.HospitalByID(ctx, hospitalID)
	if err != nil {
		return model.Hospital{}, err
	}
	if upd.LoadPercentage != nil && (*upd.LoadPercentage < 0 || *upd.LoadPercentage > 100) {
		return h, fmt.Errorf("%w: load percentage %.1f out of range", ErrInvalidInput, *upd.LoadPercentage)
	}
	if upd.HistoricalSuccessRate != nil && (*upd.HistoricalSuccessRate < 0 || *upd.HistoricalSuccessRate > 1) {
		return h, fmt.Errorf("%w: success rate %.2f out of range", ErrInvalidInput, *upd.HistoricalSuccessRate)
	}

	if upd.AvailableICUBeds != nil {
		h.AvailableICUBeds = *upd.AvailableICUBeds
	}
	if upd.AvailableGeneralBeds != nil {
		h.AvailableGeneralBeds = *upd.AvailableGeneralBeds
	}
	if upd.LoadPercentage != nil {
		h.LoadPercentage = *upd.LoadPercentage
	}
	if upd.HistoricalSuccessRate != nil {
		h.HistoricalSuccessRate = *upd.HistoricalSuccessRate
	}
	if upd.DoctorsOnDuty != nil {
		h.DoctorsOnDuty = upd.DoctorsOnDuty
	}
	h.UpdatedAt = time.Now().UTC()
	if err := c.store.SaveHospital(ctx, h); err != nil {
		return h, fmt.Errorf("save hospital: %w", err)
	}

	ev := events.New(model.EventHospitalUpdated, fmt.Sprintf("%s reported updated capacity", h.Name))
	ev.HospitalID = h.ID
	c.emit(ctx, ev)
	return h, nil
}

// UpdateAmbulanceLocation records a position report from a driver.
func (c *Coordinator) UpdateAmbulanceLocation(ctx context.Context, ambulanceID string, loc model.Coordinate) (model.Ambulance, error) {
	if !loc.Valid() {
		return model.Ambulance{}, fmt.Errorf("%w: GPS coordinates required", ErrInvalidInput)
	}
	a, err := c.store.AmbulanceByID(ctx, ambulanceID)
	if err != nil {
		return model.Ambulance{}, err
	}
	a.Location = loc
	a.UpdatedAt = time.Now().UTC()
	if err := c.store.SaveAmbulance(ctx, a); err != nil {
		return a, fmt.Errorf("save ambulance: %w", err)
	}
	return a, nil
}
