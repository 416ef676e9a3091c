package room

import (
	"time"

	"github.com/ugaemi/geohunt-server/internal/game"
)

// State is the room snapshot broadcast as room_state.
type State struct {
	Code           string             `json:"code"`
	HostID         string             `json:"host_id"`
	Status         game.RoomStatus    `json:"status"`
	Area           *game.Area         `json:"area"`
	Players        []*game.Player     `json:"players"`
	StartedAt      *int64             `json:"started_at"`
	GameDurationMs *int64             `json:"game_duration_ms"`
	RevealState    RevealStatePayload `json:"reveal_state"`
	BonusAreas     []game.BonusArea   `json:"bonus_areas"`
}

// RevealStatePayload is the wire form of RevealState.
type RevealStatePayload struct {
	IsRevealing  bool   `json:"is_revealing"`
	NextRevealAt *int64 `json:"next_reveal_at"`
	RevealEndsAt *int64 `json:"reveal_ends_at"`
}

// RevealUpdate is broadcast as reveal_state when a reveal fires.
type RevealUpdate struct {
	RevealStatePayload
	RevealedEvaders []*game.Player `json:"revealed_evaders"`
}

// LocationBroadcast is the location delta broadcast as location_update.
type LocationBroadcast struct {
	PlayerID      string        `json:"player_id"`
	Location      game.Location `json:"location"`
	IsOutOfBounds bool          `json:"is_out_of_bounds"`
}

// PlayerCaughtEvent is broadcast as player_caught.
type PlayerCaughtEvent struct {
	CapturedPlayerID   string  `json:"captured_player_id"`
	CapturedPlayerName string  `json:"captured_player_name"`
	CaptorPlayerID     string  `json:"captor_player_id"`
	CaptorPlayerName   string  `json:"captor_player_name"`
	Distance           float64 `json:"distance"`
	Timestamp          int64   `json:"timestamp"`
}

// BonusAreaEnteredEvent is broadcast as bonus_area_entered.
type BonusAreaEnteredEvent struct {
	PlayerID      string `json:"player_id"`
	PlayerName    string `json:"player_name"`
	BonusAreaID   string `json:"bonus_area_id"`
	RevealedUntil int64  `json:"revealed_until"`
}

// BonusAreaRemovedEvent is broadcast as bonus_area_removed.
type BonusAreaRemovedEvent struct {
	BonusAreaID string `json:"bonus_area_id"`
}

// ChatBroadcast is broadcast as chat_message.
type ChatBroadcast struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp"`
}

// PlayerMovement is one player's accepted path, used for replay.
type PlayerMovement struct {
	PlayerID   string          `json:"player_id"`
	PlayerName string          `json:"player_name"`
	Role       game.Role       `json:"role"`
	Path       []game.Location `json:"path"`
}

// GameSummary is broadcast as game_end.
type GameSummary struct {
	Code           string           `json:"code"`
	Reason         game.EndReason   `json:"reason"`
	PursuerCount   int              `json:"pursuer_count"`
	EvaderCount    int              `json:"evader_count"`
	CapturedCount  int              `json:"captured_count"`
	Timestamp      int64            `json:"timestamp"`
	Movements      []PlayerMovement `json:"movements"`
	GameDurationMs int64            `json:"game_duration_ms"`
	StartedAt      time.Time        `json:"-"`
	EndedAt        time.Time        `json:"-"`
}

// RoomSummary is a short listing entry for monitoring.
type RoomSummary struct {
	Code        string          `json:"code"`
	Status      game.RoomStatus `json:"status"`
	PlayerCount int             `json:"player_count"`
	HasArea     bool            `json:"has_area"`
	CreatedAt   int64           `json:"created_at"`
}

func unixMilli(t time.Time) *int64 {
	if t.IsZero() {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}
