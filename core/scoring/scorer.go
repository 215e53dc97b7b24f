package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lifeline-ems/lifeline/core/catalog"
	"github.com/lifeline-ems/lifeline/core/geo"
	"github.com/lifeline-ems/lifeline/core/model"
)

// neutral is the score substituted when a factor has no data to judge.
const neutral = 0.5

// specializationBonus multiplies the total when the hospital declares
// the emergency type as a specialization. The result is capped at 1.0.
const specializationBonus = 1.10

// Scorer computes composite readiness scores for hospitals. All
// component scores are clamped to [0,1]; intermediate math runs on
// unrounded values and rounding happens once at the boundary
// (half-away-from-zero): components to 3 decimals, total to 4,
// distance to 2, ETA to 1.
type Scorer struct {
	cfg Config
}

// NewScorer validates the configuration and returns a Scorer. The
// weight-sum invariant is enforced here, once.
func NewScorer(cfg Config) (*Scorer, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg}, nil
}

// Config returns the effective scoring configuration.
func (s *Scorer) Config() Config { return s.cfg }

// Score computes the readiness record for one hospital against one
// request location and emergency type. Unknown types use the general
// requirements profile.
func (s *Scorer) Score(h model.Hospital, loc model.Coordinate, emergencyType string) model.ScoreRecord {
	req := catalog.Lookup(emergencyType)

	distanceKm := geo.DistanceKm(loc, h.Location)
	etaMinutes := geo.ETAMinutes(distanceKm, s.cfg.AvgSpeedKmh)

	facility := facilityScore(h, req)
	distance := distanceScore(distanceKm, s.cfg.SearchRadiusKm)
	bed := bedScore(h)
	specialist := specialistScore(h, req)
	prediction := predictionScore(bed, h.LoadPercentage, etaMinutes)
	history := historyScore(h)

	w := s.cfg.Weights
	total := w.Facility*facility +
		w.Distance*distance +
		w.Bed*bed +
		w.Specialist*specialist +
		w.Prediction*prediction +
		w.History*history

	if hasFold(h.Specializations, emergencyType) {
		total = math.Min(total*specializationBonus, 1.0)
	}

	return model.ScoreRecord{
		ID:         uuid.NewString(),
		HospitalID: h.ID,
		Facility:   round(facility, 3),
		Distance:   round(distance, 3),
		Bed:        round(bed, 3),
		Specialist: round(specialist, 3),
		Prediction: round(prediction, 3),
		History:    round(history, 3),
		Total:      round(total, 4),
		DistanceKm: round(distanceKm, 2),
		ETAMinutes: round(etaMinutes, 1),
		CreatedAt:  time.Now().UTC(),
	}
}

// facilityScore weights required facilities 80% and nice-to-haves 20%.
// An empty requirement list yields the neutral score.
func facilityScore(h model.Hospital, req catalog.Requirements) float64 {
	if len(req.Facilities) == 0 {
		return neutral
	}
	have := foldSet(h.Facilities)
	requiredScore := matchRatio(req.Facilities, have)
	niceScore := neutral
	if len(req.NiceToHave) > 0 {
		niceScore = matchRatio(req.NiceToHave, have)
	}
	return clamp01(0.8*requiredScore + 0.2*niceScore)
}

// distanceScore falls off linearly with distance, reaching zero at the
// search radius.
func distanceScore(distanceKm, radiusKm float64) float64 {
	if radiusKm <= 0 {
		radiusKm = DefaultSearchRadiusKm
	}
	return clamp01(1 - distanceKm/radiusKm)
}

// bedScore combines ICU availability, general availability and inverse
// load. Zero totals degrade to the neutral term instead of dividing by
// zero; both totals at zero yield the neutral score outright.
func bedScore(h model.Hospital) float64 {
	if h.ICUBeds <= 0 && h.TotalBeds <= 0 {
		return neutral
	}
	icu := neutral
	if h.ICUBeds > 0 {
		icu = float64(h.AvailableICUBeds) / float64(h.ICUBeds)
	}
	gen := neutral
	if h.TotalBeds > 0 {
		gen = float64(h.AvailableGeneralBeds) / float64(h.TotalBeds)
	}
	load := clamp01(h.LoadPercentage / 100)
	return clamp01(0.50*icu + 0.25*gen + 0.25*(1-load))
}

// specialistScore is the matched fraction of required specialist roles.
func specialistScore(h model.Hospital, req catalog.Requirements) float64 {
	if len(req.Specialists) == 0 {
		return neutral
	}
	return clamp01(matchRatio(req.Specialists, foldSet(h.DoctorsOnDuty)))
}

// predictionScore decays the bed score linearly with load and travel
// time: loaded hospitals fill faster while the ambulance is en route.
// It reuses the already-computed bed score.
func predictionScore(bed, loadPercentage, etaMinutes float64) float64 {
	load := clamp01(loadPercentage / 100)
	fillRate := load * 0.05
	return clamp01(bed - fillRate*etaMinutes/60)
}

// historyScore passes the success rate through, neutral when unknown.
func historyScore(h model.Hospital) float64 {
	if h.HistoricalSuccessRate <= 0 {
		return neutral
	}
	return clamp01(h.HistoricalSuccessRate)
}

func foldSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[strings.ToLower(it)] = struct{}{}
	}
	return set
}

func matchRatio(wanted []string, have map[string]struct{}) float64 {
	matched := 0
	for _, w := range wanted {
		if _, ok := have[strings.ToLower(w)]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(wanted))
}

func hasFold(items []string, target string) bool {
	for _, it := range items {
		if strings.EqualFold(it, target) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
