// Package geo holds the pure distance and containment math the telemetry
// processor is built on. No I/O, no state.
package geo

import (
	"math"
	"time"
)

// earthRadiusM is the mean Earth radius used for great-circle distances.
const earthRadiusM = 6371000.0

// Distance returns the haversine great-circle distance in meters between
// two points given in degrees, rounded to 2 decimals.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return math.Round(earthRadiusM*c*100) / 100
}

// Contained reports whether a distance falls inside a geofence radius.
// The boundary itself counts as inside.
func Contained(distance, radius float64) bool {
	return distance <= radius
}

// Speed returns the average speed in km/h between two timestamped points.
// Zero elapsed time yields 0, never a division by zero.
func Speed(lat1, lon1, lat2, lon2 float64, t1, t2 time.Time) float64 {
	elapsed := t2.Sub(t1).Hours()
	if elapsed <= 0 {
		return 0
	}

	return Distance(lat1, lon1, lat2, lon2) / 1000 / elapsed
}

// ValidCoordinates reports whether lat/lon form a real WGS84 coordinate.
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
