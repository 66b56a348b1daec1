package match

import (
	"math"

	"github.com/datamatch/datamatch/internal/profile"
)

const (
	earthRadiusKm = 6371
	milesPerKm    = 0.621371
)

// DistanceMiles calculates the great-circle distance between two points in
// miles using the Haversine formula.
func DistanceMiles(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c * milesPerKm
}

// profileDistance returns the distance between two members' home
// locations, or false when either lacks coordinates.
func profileDistance(a, b *profile.Profile) (float64, bool) {
	if !a.Location.HasCoordinates() || !b.Location.HasCoordinates() {
		return 0, false
	}
	return DistanceMiles(a.Location.Lat, a.Location.Lng, b.Location.Lat, b.Location.Lng), true
}
