// Package geo provides great-circle distance and travel time estimates
// used by hospital ranking and ambulance matching.
package geo

import (
	"math"

	"github.com/lifeline-ems/lifeline/core/model"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// DefaultSpeedKmh is the average ambulance speed assumed when no valid
// speed is supplied.
const DefaultSpeedKmh = 40.0

// DistanceKm returns the haversine great-circle distance between two
// coordinates in kilometres. It is symmetric and zero iff both
// coordinates are equal.
func DistanceKm(a, b model.Coordinate) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Asin(math.Sqrt(h))
	return c * EarthRadiusKm
}

// ETAMinutes estimates travel time in minutes for the given distance.
// A non-positive speed falls back to DefaultSpeedKmh. The result is not
// bounded above.
func ETAMinutes(distanceKm, speedKmh float64) float64 {
	if speedKmh <= 0 {
		speedKmh = DefaultSpeedKmh
	}
	return distanceKm / speedKmh * 60
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
