package game

import "github.com/ugaemi/geohunt-server/internal/geo"

// CatchOutcome is the measured result of a valid catch attempt.
// Captured is false when the target was out of range.
type CatchOutcome struct {
	Captured bool    `json:"captured"`
	Distance float64 `json:"distance"`
}

// IsOutOfBounds reports whether p lies strictly outside area.
func IsOutOfBounds(p geo.Point, area Area) bool {
	return !area.Contains(p)
}

// InCaptureRange checks if two locations are within capture range.
func InCaptureRange(a, b Location) (bool, float64) {
	d := geo.Distance(a.Point(), b.Point())
	return d <= CaptureRange, d
}

// CheckCatch validates a catch attempt by captor on target. Validation
// failures are returned as errors; a target out of range is a normal
// outcome with Captured=false and the measured distance.
// CheckCatch does not mutate either player.
func CheckCatch(captor, target *Player) (CatchOutcome, error) {
	if !captor.IsPursuer() {
		return CatchOutcome{}, ErrNotPursuer
	}
	if !target.IsEvader() {
		return CatchOutcome{}, ErrTargetNotEvader
	}
	if target.IsCaptured {
		return CatchOutcome{}, ErrAlreadyCaptured
	}
	if captor.IsOutOfBounds {
		return CatchOutcome{}, ErrOutOfBounds
	}
	if captor.Location == nil || target.Location == nil {
		return CatchOutcome{}, ErrLocationUnavailable
	}

	inRange, d := InCaptureRange(*captor.Location, *target.Location)
	return CatchOutcome{Captured: inRange, Distance: d}, nil
}

// FindBonusEntry returns the first active bonus area that p is inside of.
// Only uncaptured evaders can trigger bonus areas.
func FindBonusEntry(p *Player, loc Location, areas []BonusArea) (BonusArea, bool) {
	if !p.IsEvader() || p.IsCaptured {
		return BonusArea{}, false
	}
	pt := loc.Point()
	for _, ba := range areas {
		if !ba.IsActive {
			continue
		}
		if ba.Contains(pt) {
			return ba, true
		}
	}
	return BonusArea{}, false
}
