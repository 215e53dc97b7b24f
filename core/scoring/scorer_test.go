package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifeline-ems/lifeline/core/model"
)

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := NewScorer(Config{})
	require.NoError(t, err)
	return s
}

func TestNewScorer_RejectsBadWeights(t *testing.T) {
	cfg := Config{Weights: Weights{Facility: 0.5, Distance: 0.5, Bed: 0.5}}
	_, err := NewScorer(cfg)
	assert.Error(t, err)
}

func TestWeights_DefaultsSumToOne(t *testing.T) {
	assert.NoError(t, DefaultWeights().Validate())
}

// Reference case: cardiac emergency, all three required facilities
// present, one of three nice-to-haves, 2 km away with a 15 km radius,
// ICU 5/10, general 20/50, load 40%, cardiologist on duty, history 0.8
// and a declared cardiac specialization.
func TestScore_WorkedExample(t *testing.T) {
	s := newTestScorer(t)
	h := model.Hospital{
		ID:                    "h1",
		Location:              model.Coordinate{Lat: 11.0168, Lng: 76.9558},
		Facilities:            []string{"ICU", "Cath Lab", "Emergency Ward", "MRI"},
		DoctorsOnDuty:         []string{"Cardiologist"},
		Specializations:       []string{"cardiac"},
		TotalBeds:             50,
		ICUBeds:               10,
		AvailableICUBeds:      5,
		AvailableGeneralBeds:  20,
		LoadPercentage:        40,
		HistoricalSuccessRate: 0.8,
	}
	// ~2 km north of the hospital.
	loc := model.Coordinate{Lat: 11.0168 + 2.0/111.2, Lng: 76.9558}

	rec := s.Score(h, loc, "cardiac")

	assert.InDelta(t, 2.0, rec.DistanceKm, 0.02)
	assert.InDelta(t, 3.0, rec.ETAMinutes, 0.1)
	assert.InDelta(t, 0.867, rec.Facility, 0.001)
	assert.InDelta(t, 0.867, rec.Distance, 0.002)
	assert.InDelta(t, 0.5, rec.Bed, 1e-9)
	assert.InDelta(t, 1.0, rec.Specialist, 1e-9)
	assert.InDelta(t, 0.499, rec.Prediction, 0.001)
	assert.InDelta(t, 0.8, rec.History, 1e-9)
	assert.InDelta(t, 0.8506, rec.Total, 0.001)
}

func TestScore_ComponentsWithinUnitRange(t *testing.T) {
	s := newTestScorer(t)
	hospitals := []model.Hospital{
		{}, // empty everything
		{TotalBeds: 10, AvailableGeneralBeds: 50, ICUBeds: 2, AvailableICUBeds: 9, LoadPercentage: 250},
		{Location: model.Coordinate{Lat: 50, Lng: 50}, HistoricalSuccessRate: 3},
	}
	for _, h := range hospitals {
		rec := s.Score(h, model.Coordinate{Lat: 11, Lng: 77}, "trauma")
		for name, v := range map[string]float64{
			"facility":   rec.Facility,
			"distance":   rec.Distance,
			"bed":        rec.Bed,
			"specialist": rec.Specialist,
			"prediction": rec.Prediction,
			"history":    rec.History,
			"total":      rec.Total,
		} {
			assert.GreaterOrEqual(t, v, 0.0, name)
			assert.LessOrEqual(t, v, 1.0, name)
		}
	}
}

func TestScore_NeutralEdgeCases(t *testing.T) {
	s := newTestScorer(t)
	loc := model.Coordinate{Lat: 11, Lng: 77}

	// No beds declared at all: neutral bed score.
	rec := s.Score(model.Hospital{Location: loc}, loc, "general")
	assert.InDelta(t, 0.5, rec.Bed, 1e-9)

	// Unknown history: neutral.
	assert.InDelta(t, 0.5, rec.History, 1e-9)

	// Unknown emergency type falls back to the general profile.
	known := s.Score(model.Hospital{Location: loc}, loc, "general")
	unknown := s.Score(model.Hospital{Location: loc}, loc, "does-not-exist")
	assert.Equal(t, known.Facility, unknown.Facility)
	assert.Equal(t, known.Specialist, unknown.Specialist)
}

func TestScore_CaseInsensitiveMatching(t *testing.T) {
	s := newTestScorer(t)
	loc := model.Coordinate{Lat: 11, Lng: 77}
	h := model.Hospital{
		Location:       loc,
		Facilities:     []string{"icu", "cath lab", "EMERGENCY WARD"},
		DoctorsOnDuty:  []string{"cardiologist"},
		TotalBeds:      10,
		ICUBeds:        2,
		LoadPercentage: 50,
	}
	rec := s.Score(h, loc, "cardiac")
	assert.InDelta(t, 0.8, rec.Facility, 1e-9) // all required, no nice-to-have
	assert.InDelta(t, 1.0, rec.Specialist, 1e-9)
}

func TestScore_SpecializationBonusCapped(t *testing.T) {
	s := newTestScorer(t)
	loc := model.Coordinate{Lat: 11, Lng: 77}
	h := model.Hospital{
		Location:              loc,
		Facilities:            []string{"ICU", "Cath Lab", "Emergency Ward", "MRI", "Operation Theatre", "Ventilator"},
		DoctorsOnDuty:         []string{"Cardiologist"},
		Specializations:       []string{"Cardiac"},
		TotalBeds:             50,
		ICUBeds:               10,
		AvailableICUBeds:      10,
		AvailableGeneralBeds:  50,
		LoadPercentage:        20,
		HistoricalSuccessRate: 1.0,
	}
	rec := s.Score(h, loc, "cardiac")
	assert.LessOrEqual(t, rec.Total, 1.0)

	// And the bonus is applied at all for a case-folded match.
	plain := h
	plain.Specializations = nil
	assert.Greater(t, rec.Total, s.Score(plain, loc, "cardiac").Total)
}
