package game

import "time"

// Input limits
const (
	MaxNameLength = 32
	MaxChatLength = 500
)

// Capture
const (
	CaptureRange = 50.0 // meters
)

// Bonus areas
const (
	DefaultBonusAreaCount  = 3
	BonusAreaRadius        = 25.0  // meters
	BonusAreaEdgeMargin    = 50.0  // meters kept between a bonus area and the game area edge
	BonusAreaMinSeparation = 100.0 // meters between bonus area centers
	BonusAreaMaxAttempts   = 50
	BonusRevealDuration    = 5 * time.Second
)

// Timing
const (
	RevealInterval         = 120 * time.Second
	RevealCheckInterval    = time.Second
	LocationUpdateInterval = time.Second
)
