package common

import "math"

// EarthRadiusKm is the mean Earth radius used by the haversine distance.
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two lat/lon pairs
// in kilometers, using the haversine formula.
// Identical coordinates yield exactly 0.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// ValidLatLon returns true if the coordinates are finite and in range.
// It does not treat (0,0) specially; callers that consider null island
// a no-fix sentinel must check that themselves.
func ValidLatLon(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
