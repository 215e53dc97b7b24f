package dispatch

import (
	"github.com/lifeline-ems/lifeline/core/geo"
	"github.com/lifeline-ems/lifeline/core/model"
)

// NearestAvailable selects the closest ambulance in available status,
// skipping any ids in exclude. Ties on exactly equal distance resolve
// to the first ambulance encountered in pool order; the order itself
// carries no meaning and callers must not rely on which unit wins a
// tie.
func NearestAvailable(pool []model.Ambulance, loc model.Coordinate, exclude map[string]bool) (model.Ambulance, error) {
	var (
		best     model.Ambulance
		bestDist float64
		found    bool
	)
	for _, a := range pool {
		if a.Status != model.AmbulanceAvailable || exclude[a.ID] {
			continue
		}
		d := geo.DistanceKm(loc, a.Location)
		if !found || d < bestDist {
			best, bestDist, found = a, d, true
		}
	}
	if !found {
		return model.Ambulance{}, ErrNoAvailableAmbulance
	}
	return best, nil
}
