package result

import (
	"time"

	"github.com/google/uuid"

	"github.com/ugaemi/geohunt-server/internal/game"
	"github.com/ugaemi/geohunt-server/internal/room"
)

// GameResult is the archived record of a finished game. Movement paths are
// not archived.
type GameResult struct {
	ID            string         `json:"id"`
	RoomCode      string         `json:"room_code"`
	Reason        game.EndReason `json:"reason"`
	PursuerCount  int            `json:"pursuer_count"`
	EvaderCount   int            `json:"evader_count"`
	CapturedCount int            `json:"captured_count"`
	DurationMs    int64          `json:"duration_ms"`
	StartedAt     time.Time      `json:"started_at"`
	EndedAt       time.Time      `json:"ended_at"`
}

// NewGameResult creates a result record from an end-of-game summary.
func NewGameResult(s room.GameSummary) *GameResult {
	return &GameResult{
		ID:            uuid.New().String(),
		RoomCode:      s.Code,
		Reason:        s.Reason,
		PursuerCount:  s.PursuerCount,
		EvaderCount:   s.EvaderCount,
		CapturedCount: s.CapturedCount,
		DurationMs:    s.GameDurationMs,
		StartedAt:     s.StartedAt.UTC(),
		EndedAt:       s.EndedAt.UTC(),
	}
}

// EvadersEscaped returns the number of evaders never captured.
func (r *GameResult) EvadersEscaped() int {
	return r.EvaderCount - r.CapturedCount
}
