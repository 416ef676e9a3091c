package game

import (
	"math"

	"github.com/google/uuid"

	"github.com/ugaemi/geohunt-server/internal/geo"
)

// RandSource is the subset of *rand.Rand used for placement.
type RandSource interface {
	Float64() float64
}

// GenerateBonusAreas places up to count bonus areas uniformly inside area.
// Each candidate keeps BonusAreaEdgeMargin from the area edge and
// BonusAreaMinSeparation from already placed areas. A slot that cannot be
// placed within BonusAreaMaxAttempts is skipped, so fewer than count areas
// may be returned.
func GenerateBonusAreas(area Area, count int, rng RandSource) []BonusArea {
	areas := make([]BonusArea, 0, count)

	innerRadius := area.RadiusMeters - BonusAreaRadius - BonusAreaEdgeMargin
	if innerRadius < 0 {
		innerRadius = 0
	}

	for i := 0; i < count; i++ {
		if center, ok := placeBonusArea(area.Center, innerRadius, areas, rng); ok {
			areas = append(areas, BonusArea{
				ID:           uuid.New().String(),
				Center:       center,
				RadiusMeters: BonusAreaRadius,
				IsActive:     true,
			})
		}
	}

	return areas
}

func placeBonusArea(center geo.Point, innerRadius float64, placed []BonusArea, rng RandSource) (geo.Point, bool) {
	for i := 0; i < BonusAreaMaxAttempts; i++ {
		angle := rng.Float64() * 2 * math.Pi
		// sqrt keeps the density uniform over the disc
		dist := math.Sqrt(rng.Float64()) * innerRadius

		candidate := geo.Offset(center, dist*math.Cos(angle), dist*math.Sin(angle))
		if isFarEnough(candidate, placed) {
			return candidate, true
		}
	}
	return geo.Point{}, false
}

// isFarEnough checks if p is at least BonusAreaMinSeparation from all placed areas.
func isFarEnough(p geo.Point, placed []BonusArea) bool {
	for _, ba := range placed {
		if geo.Distance(p, ba.Center) < BonusAreaMinSeparation {
			return false
		}
	}
	return true
}
