package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/ugaemi/geohunt-server/internal/game"
	"github.com/ugaemi/geohunt-server/internal/geo"
	"github.com/ugaemi/geohunt-server/internal/room"
	"github.com/ugaemi/geohunt-server/internal/ws"
)

// GameplayHandler handles in-game messages.
type GameplayHandler struct {
	registry *room.Registry
	router   *Router
}

// NewGameplayHandler creates a new gameplay handler.
func NewGameplayHandler(registry *room.Registry, router *Router) *GameplayHandler {
	return &GameplayHandler{
		registry: registry,
		router:   router,
	}
}

type locationUpdateRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

// HandleLocationUpdate records the caller's position. Updates arriving
// faster than once per second or outside a running game are dropped
// without a reply.
func (h *GameplayHandler) HandleLocationUpdate(client *ws.Client, msg ws.Message) {
	var req locationUpdateRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		sendCodedError(client, msg, "invalid location data", room.CodeValidation)
		return
	}
	if !(geo.Point{Latitude: req.Latitude, Longitude: req.Longitude}).Valid() {
		sendCodedError(client, msg, "invalid coordinates", room.CodeValidation)
		return
	}

	s, r, ok := h.router.member(client, msg)
	if !ok {
		return
	}

	loc := game.Location{Latitude: req.Latitude, Longitude: req.Longitude, Timestamp: req.Timestamp}
	if loc.Timestamp == 0 {
		loc.Timestamp = h.registry.Clock().Now().UnixMilli()
	}

	res, err := h.registry.UpdateLocation(s.Code, s.PlayerID, loc)
	if err != nil {
		if errors.Is(err, room.ErrRateLimited) || errors.Is(err, room.ErrNotInProgress) {
			slog.Debug("location update dropped", "player", s.PlayerID, "room", s.Code, "reason", err)
			return
		}
		sendError(client, msg, err)
		return
	}

	r.Broadcast(ws.TypeLocationUpdate, room.LocationBroadcast{
		PlayerID:      s.PlayerID,
		Location:      loc,
		IsOutOfBounds: res.Player.IsOutOfBounds,
	})

	if res.Bonus != nil {
		r.Broadcast(ws.TypeBonusAreaEntered, room.BonusAreaEnteredEvent{
			PlayerID:      s.PlayerID,
			PlayerName:    res.Player.Name,
			BonusAreaID:   res.Bonus.Area.ID,
			RevealedUntil: res.Bonus.RevealedUntil.UnixMilli(),
		})
		r.Broadcast(ws.TypeBonusAreaRemoved, room.BonusAreaRemovedEvent{
			BonusAreaID: res.Bonus.Area.ID,
		})
		r.BroadcastState()

		slog.Info("bonus area entered", "player", s.PlayerID, "room", s.Code, "bonus_area", res.Bonus.Area.ID)
	}
}

type catchAttemptRequest struct {
	TargetID string `json:"target_id"`
}

type catchAttemptResponse struct {
	Success  bool     `json:"success"`
	Captured bool     `json:"captured"`
	Distance *float64 `json:"distance,omitempty"`
	Error    string   `json:"error,omitempty"`
	ErrCode  string   `json:"error_code,omitempty"`
}

// HandleCatchAttempt validates a capture and always replies exactly once.
func (h *GameplayHandler) HandleCatchAttempt(client *ws.Client, msg ws.Message) {
	var req catchAttemptRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil || req.TargetID == "" {
		reply(client, msg, catchAttemptResponse{Error: "target_id is required", ErrCode: room.CodeValidation})
		return
	}

	s, ok := h.router.GetSession(client.ID)
	if !ok {
		reply(client, msg, catchAttemptResponse{Error: "not in a room", ErrCode: room.CodeNotFound})
		return
	}

	res, err := h.registry.AttemptCatch(s.Code, s.PlayerID, req.TargetID)
	if err != nil {
		reply(client, msg, catchAttemptResponse{Error: err.Error(), ErrCode: room.ErrorCode(err)})
		return
	}

	distance := res.Distance
	reply(client, msg, catchAttemptResponse{
		Success:  true,
		Captured: res.Captured,
		Distance: &distance,
	})
	if !res.Captured {
		return
	}

	r, err := h.registry.GetRoom(s.Code)
	if err != nil {
		return
	}
	r.Broadcast(ws.TypePlayerCaught, room.PlayerCaughtEvent{
		CapturedPlayerID:   res.Target.ID,
		CapturedPlayerName: res.Target.Name,
		CaptorPlayerID:     res.Captor.ID,
		CaptorPlayerName:   res.Captor.Name,
		Distance:           res.Distance,
		Timestamp:          h.registry.Clock().Now().UnixMilli(),
	})
	r.BroadcastState()

	slog.Info("player caught", "room", s.Code, "captor", res.Captor.ID, "target", res.Target.ID, "distance", res.Distance)

	h.registry.CheckGameEnd(s.Code)
}

type chatMessageRequest struct {
	Message string `json:"message"`
}

// HandleChatMessage stamps and rebroadcasts a chat line.
func (h *GameplayHandler) HandleChatMessage(client *ws.Client, msg ws.Message) {
	var req chatMessageRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		sendCodedError(client, msg, "invalid chat message", room.CodeValidation)
		return
	}
	text := strings.TrimSpace(req.Message)
	if text == "" || utf8.RuneCountInString(text) > game.MaxChatLength {
		sendCodedError(client, msg, "message is empty or too long", room.CodeValidation)
		return
	}

	s, r, ok := h.router.member(client, msg)
	if !ok {
		return
	}
	player, ok := r.Player(s.PlayerID)
	if !ok {
		sendError(client, msg, room.ErrPlayerNotFound)
		return
	}

	r.Broadcast(ws.TypeChatMessage, room.ChatBroadcast{
		PlayerID:   player.ID,
		PlayerName: player.Name,
		Message:    text,
		Timestamp:  h.registry.Clock().Now().UnixMilli(),
	})
}

// HandleEndGame ends the game on the host's request.
func (h *GameplayHandler) HandleEndGame(client *ws.Client, msg ws.Message) {
	s, r, ok := h.router.member(client, msg)
	if !ok {
		return
	}
	if r.HostID() != s.PlayerID {
		sendError(client, msg, room.ErrNotHost)
		return
	}

	if _, ended := h.registry.EndGame(s.Code, game.EndHostEnded); !ended {
		sendError(client, msg, room.ErrNotInProgress)
	}
}
