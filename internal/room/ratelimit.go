package room

import (
	"time"

	"github.com/sasha-s/go-deadlock"
)

// RateLimiter accepts at most one event per interval for each player.
type RateLimiter struct {
	interval time.Duration
	last     map[string]time.Time // player ID -> last accepted
	mu       deadlock.Mutex
}

// NewRateLimiter creates a limiter with the given minimum spacing.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{
		interval: interval,
		last:     make(map[string]time.Time),
	}
}

// Allow reports whether an event at now is accepted and, if so, records it.
// The first event for a player is always accepted.
func (l *RateLimiter) Allow(playerID string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if last, ok := l.last[playerID]; ok && now.Sub(last) < l.interval {
		return false
	}
	l.last[playerID] = now
	return true
}

// Forget drops the state kept for a player.
func (l *RateLimiter) Forget(playerID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.last, playerID)
}

// Len returns the number of tracked players.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.last)
}
