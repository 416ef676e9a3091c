package game

import (
	"errors"

	"github.com/ugaemi/geohunt-server/internal/geo"
)

var (
	errInvalidCenter = errors.New("area center is not a valid coordinate")
	errInvalidRadius = errors.New("area radius must be positive")
)

// Area is the circular geofence bounding legal play.
type Area struct {
	Center       geo.Point `json:"center"`
	RadiusMeters float64   `json:"radius_meters"`
}

// Validate checks that the area is usable as a game boundary.
func (a Area) Validate() error {
	if !a.Center.Valid() {
		return errInvalidCenter
	}
	if !(a.RadiusMeters > 0) {
		return errInvalidRadius
	}
	return nil
}

// Contains reports whether p lies inside the area, boundary included.
func (a Area) Contains(p geo.Point) bool {
	return geo.InCircle(p, a.Center, a.RadiusMeters)
}

// BonusArea is a small zone that reveals an evader who enters it.
type BonusArea struct {
	ID           string    `json:"id"`
	Center       geo.Point `json:"center"`
	RadiusMeters float64   `json:"radius_meters"`
	IsActive     bool      `json:"is_active"`
}

// Contains reports whether p lies inside the bonus area, boundary included.
func (b BonusArea) Contains(p geo.Point) bool {
	return geo.InCircle(p, b.Center, b.RadiusMeters)
}
