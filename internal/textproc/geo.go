package textproc

import (
	"math"

	"go.uber.org/zap"
)

// EarthRadiusKm is the mean Earth radius used by DistanceKm.
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two points using the
// haversine formula. Out-of-range coordinates are treated as the same place:
// the result is 0 and a warning is logged.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	if !validLatitude(lat1) || !validLatitude(lat2) || !validLongitude(lon1) || !validLongitude(lon2) {
		zap.L().Warn("invalid coordinates, treating as same location",
			zap.Float64("lat1", lat1), zap.Float64("lon1", lon1),
			zap.Float64("lat2", lat2), zap.Float64("lon2", lon2),
		)
		return 0.0
	}

	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

func validLatitude(v float64) bool {
	return v >= -90 && v <= 90
}

func validLongitude(v float64) bool {
	return v >= -180 && v <= 180
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
