package geo

import "math"

// EarthRadius is the mean Earth radius in meters.
const EarthRadius = 6371000.0

// MetersPerDegreeLat approximates the length of one degree of latitude.
const MetersPerDegreeLat = 111000.0

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Distance returns the great-circle distance between two points in meters
// using the Haversine formula on a spherical earth.
func Distance(a, b Point) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadius * c
}

// InCircle reports whether p lies within radius meters of center (inclusive).
func InCircle(p, center Point, radius float64) bool {
	return Distance(p, center) <= radius
}

// Offset moves origin by north and east meters using a flat-earth
// approximation. Only valid for small distances.
func Offset(origin Point, north, east float64) Point {
	latOffset := north / MetersPerDegreeLat
	lonOffset := east / (MetersPerDegreeLat * math.Cos(toRadians(origin.Latitude)))
	return Point{
		Latitude:  origin.Latitude + latOffset,
		Longitude: origin.Longitude + lonOffset,
	}
}

// Valid reports whether p is a finite coordinate within WGS84 ranges.
func (p Point) Valid() bool {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
