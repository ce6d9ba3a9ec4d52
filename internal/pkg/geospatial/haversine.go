package geospatial

import (
	"math"

	"github.com/samirrijal/overland/internal/core/domain"
)

const (
	earthRadiusKm    = 6371.0
	earthRadiusMiles = 3959.0

	metersPerMile = 1609.344
)

// Distance returns the great-circle distance in miles between two coordinates.
func Distance(a, b domain.Coordinate) float64 {
	return HaversineMiles(a.Lat, a.Lon, b.Lat, b.Lon)
}

// HaversineMiles calculates the great-circle distance in miles between two points.
func HaversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	return earthRadiusMiles * centralAngle(lat1, lon1, lat2, lon2)
}

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	return earthRadiusKm * centralAngle(lat1, lon1, lat2, lon2) * 1000
}

func centralAngle(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	// Rounding can push a a hair above 1 for antipodal points.
	a = math.Min(1, math.Max(0, a))

	return 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// MetersToMiles converts a distance in meters to miles.
func MetersToMiles(m float64) float64 {
	return m / metersPerMile
}

// MilesToMeters converts a distance in miles to meters.
func MilesToMeters(mi float64) float64 {
	return mi * metersPerMile
}

// BoundingBox returns a bounding box around a point with the given radius in meters.
func BoundingBox(lat, lon, radiusMeters float64) (minLat, minLon, maxLat, maxLon float64) {
	latDelta := radiusMeters / 111320.0
	lonDelta := radiusMeters / (111320.0 * math.Cos(toRad(lat)))

	return lat - latDelta, lon - lonDelta, lat + latDelta, lon + lonDelta
}

// Interpolate returns the point at fraction f of the straight line from a to b.
// f is clamped to [0, 1].
func Interpolate(a, b domain.Coordinate, f float64) domain.Coordinate {
	f = math.Min(1, math.Max(0, f))
	return domain.Coordinate{
		Lat: a.Lat + (b.Lat-a.Lat)*f,
		Lon: a.Lon + (b.Lon-a.Lon)*f,
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
