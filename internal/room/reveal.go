package room

import (
	"context"
	"log/slog"
	"time"

	"github.com/ugaemi/geohunt-server/internal/game"
	"github.com/ugaemi/geohunt-server/internal/ws"
)

// Revealer periodically broadcasts evader positions for every in-progress
// room whose reveal deadline has passed.
type Revealer struct {
	registry *Registry
	interval time.Duration
}

// NewRevealer creates a Revealer that checks rooms every
// game.RevealCheckInterval.
func NewRevealer(registry *Registry) *Revealer {
	return &Revealer{
		registry: registry,
		interval: game.RevealCheckInterval,
	}
}

// Run ticks until ctx is cancelled.
func (v *Revealer) Run(ctx context.Context) {
	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	slog.Info("reveal scheduler started", "interval", v.interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("reveal scheduler stopped")
			return
		case <-ticker.C:
			v.Tick(v.registry.clock.Now())
		}
	}
}

// Tick fires due reveals at now and returns the number of rooms revealed.
func (v *Revealer) Tick(now time.Time) int {
	fired := 0
	for _, r := range v.registry.Rooms() {
		update, ok := r.tickReveal(now)
		if !ok {
			continue
		}
		fired++
		slog.Debug("evaders revealed", "room", r.Code, "count", len(update.RevealedEvaders))
		r.Broadcast(ws.TypeRevealState, update)
	}
	return fired
}
