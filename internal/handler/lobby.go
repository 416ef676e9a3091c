package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ugaemi/geohunt-server/internal/game"
	"github.com/ugaemi/geohunt-server/internal/geo"
	"github.com/ugaemi/geohunt-server/internal/room"
	"github.com/ugaemi/geohunt-server/internal/ws"
)

const (
	hostLeftMessage = "Host left the room"

	// largest duration_ms that fits in a time.Duration
	maxDurationMs = math.MaxInt64 / int64(time.Millisecond)
)

// LobbyHandler handles room membership and pre-game setup.
type LobbyHandler struct {
	registry *room.Registry
	router   *Router
}

// NewLobbyHandler creates a new lobby handler.
func NewLobbyHandler(registry *room.Registry, router *Router) *LobbyHandler {
	return &LobbyHandler{
		registry: registry,
		router:   router,
	}
}

type createRoomRequest struct {
	Name string `json:"name"`
}

type createRoomResponse struct {
	Success  bool   `json:"success"`
	Code     string `json:"code,omitempty"`
	PlayerID string `json:"player_id,omitempty"`
	Error    string `json:"error,omitempty"`
	ErrCode  string `json:"error_code,omitempty"`
}

// validName trims name and checks its length.
func validName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > game.MaxNameLength {
		return "", false
	}
	return name, true
}

// HandleCreateRoom creates a room with the caller as host.
func (h *LobbyHandler) HandleCreateRoom(client *ws.Client, msg ws.Message) {
	var req createRoomRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		reply(client, msg, createRoomResponse{Error: "invalid request", ErrCode: room.CodeValidation})
		return
	}
	name, ok := validName(req.Name)
	if !ok {
		reply(client, msg, createRoomResponse{Error: "name is required", ErrCode: room.CodeValidation})
		return
	}

	r, player := h.registry.CreateRoom(name, client)
	h.switchRoom(client, r.Code, player.ID)

	reply(client, msg, createRoomResponse{
		Success:  true,
		Code:     r.Code,
		PlayerID: player.ID,
	})
	r.BroadcastState()

	slog.Info("player created room", "player", player.ID, "name", player.Name, "room", r.Code)
}

type joinRoomRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type joinRoomResponse struct {
	Success  bool        `json:"success"`
	PlayerID string      `json:"player_id,omitempty"`
	Room     *room.State `json:"room,omitempty"`
	Error    string      `json:"error,omitempty"`
	ErrCode  string      `json:"error_code,omitempty"`
}

// HandleJoinRoom joins an existing lobby.
func (h *LobbyHandler) HandleJoinRoom(client *ws.Client, msg ws.Message) {
	var req joinRoomRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		reply(client, msg, joinRoomResponse{Error: "invalid request", ErrCode: room.CodeValidation})
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	name, ok := validName(req.Name)
	if !ok || !room.IsValidCode(code) {
		reply(client, msg, joinRoomResponse{Error: "code and name are required", ErrCode: room.CodeValidation})
		return
	}

	if h.rejoin(client, msg, code) {
		return
	}

	r, player, err := h.registry.AddPlayer(code, name, client)
	if err != nil {
		reply(client, msg, joinRoomResponse{Error: err.Error(), ErrCode: room.ErrorCode(err)})
		return
	}
	h.switchRoom(client, r.Code, player.ID)

	state := r.Snapshot()
	reply(client, msg, joinRoomResponse{
		Success:  true,
		PlayerID: player.ID,
		Room:     &state,
	})
	r.BroadcastState()

	slog.Info("player joined room", "player", player.ID, "name", player.Name, "room", r.Code)
}

// rejoin answers a join for the room the client already belongs to with its
// existing membership. It reports whether the request was handled.
func (h *LobbyHandler) rejoin(client *ws.Client, msg ws.Message, code string) bool {
	s, ok := h.router.GetSession(client.ID)
	if !ok || s.Code != code {
		return false
	}
	r, err := h.registry.GetRoom(code)
	if err != nil {
		return false
	}
	if _, ok := r.Player(s.PlayerID); !ok {
		return false
	}

	state := r.Snapshot()
	reply(client, msg, joinRoomResponse{
		Success:  true,
		PlayerID: s.PlayerID,
		Room:     &state,
	})
	slog.Debug("player rejoined current room", "player", s.PlayerID, "room", code)
	return true
}

// switchRoom leaves the client's previous room, if any, and records its new
// membership. A connection belongs to at most one room.
func (h *LobbyHandler) switchRoom(client *ws.Client, code, playerID string) {
	h.removePlayer(client)
	h.router.RegisterPlayer(client.ID, code, playerID)
}

type selectRoleRequest struct {
	Role string `json:"role"` // "pursuer" or "evader"
}

// HandleSelectRole sets the caller's role. Selections outside the lobby are
// ignored.
func (h *LobbyHandler) HandleSelectRole(client *ws.Client, msg ws.Message) {
	var req selectRoleRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		sendCodedError(client, msg, "invalid role selection", room.CodeValidation)
		return
	}
	role, err := game.ParseRole(req.Role)
	if err != nil || !role.IsSet() {
		sendCodedError(client, msg, "invalid role", room.CodeValidation)
		return
	}

	s, r, ok := h.router.member(client, msg)
	if !ok {
		return
	}

	if err := h.registry.UpdateRole(s.Code, s.PlayerID, role); err != nil {
		if errors.Is(err, room.ErrNotInLobby) {
			slog.Debug("role selection ignored outside lobby", "player", s.PlayerID, "room", s.Code)
			return
		}
		sendError(client, msg, err)
		return
	}
	r.BroadcastState()

	slog.Info("player selected role", "player", s.PlayerID, "role", role.String())
}

type updateAreaRequest struct {
	Center       geo.Point `json:"center"`
	RadiusMeters float64   `json:"radius_meters"`
}

// HandleUpdateArea sets the game area. Host only.
func (h *LobbyHandler) HandleUpdateArea(client *ws.Client, msg ws.Message) {
	var req updateAreaRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		sendCodedError(client, msg, "invalid area", room.CodeValidation)
		return
	}

	s, r, ok := h.router.member(client, msg)
	if !ok {
		return
	}

	area := game.Area{Center: req.Center, RadiusMeters: req.RadiusMeters}
	if err := h.registry.UpdateArea(s.Code, s.PlayerID, area); err != nil {
		sendError(client, msg, err)
		return
	}
	r.BroadcastState()

	slog.Info("game area updated", "room", s.Code, "radius", req.RadiusMeters)
}

type setDurationRequest struct {
	DurationMs *int64 `json:"duration_ms"`
}

// HandleSetDuration sets or clears the game duration. Host only.
func (h *LobbyHandler) HandleSetDuration(client *ws.Client, msg ws.Message) {
	var req setDurationRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		sendCodedError(client, msg, "invalid duration", room.CodeValidation)
		return
	}

	s, r, ok := h.router.member(client, msg)
	if !ok {
		return
	}

	var d *time.Duration
	if req.DurationMs != nil {
		if *req.DurationMs > maxDurationMs {
			sendCodedError(client, msg, "duration too long", room.CodeValidation)
			return
		}
		v := time.Duration(*req.DurationMs) * time.Millisecond
		d = &v
	}
	if err := h.registry.SetDuration(s.Code, s.PlayerID, d); err != nil {
		sendError(client, msg, err)
		return
	}
	r.BroadcastState()

	slog.Info("game duration updated", "room", s.Code, "duration_ms", req.DurationMs)
}

// HandleStartGame starts the game. Host only.
func (h *LobbyHandler) HandleStartGame(client *ws.Client, msg ws.Message) {
	s, r, ok := h.router.member(client, msg)
	if !ok {
		return
	}

	if err := h.registry.StartGame(s.Code, s.PlayerID); err != nil {
		sendError(client, msg, err)
		return
	}
	r.BroadcastState()
}

// HandleLeaveRoom handles a player leaving a room.
func (h *LobbyHandler) HandleLeaveRoom(client *ws.Client, _ ws.Message) {
	h.removePlayer(client)
}

// HandleDisconnect handles client disconnection.
func (h *LobbyHandler) HandleDisconnect(client *ws.Client) {
	h.removePlayer(client)
}

func (h *LobbyHandler) removePlayer(client *ws.Client) {
	s, ok := h.router.GetSession(client.ID)
	if !ok {
		return
	}
	h.router.UnregisterPlayer(client.ID)

	res, err := h.registry.RemovePlayer(s.Code, s.PlayerID)
	if err != nil {
		slog.Debug("leave for unknown membership", "player", s.PlayerID, "room", s.Code, "error", err)
		return
	}

	switch {
	case res.TornDown:
		h.router.UnregisterRoom(s.Code)
		res.Room.BroadcastMessage(ws.NewCodedErrorMessage(hostLeftMessage, room.CodeHostLeft))
		slog.Info("host left lobby, room closed", "room", s.Code)
	case !res.Deleted:
		res.Room.BroadcastState()
	}

	slog.Info("player left", "player", s.PlayerID, "room", s.Code)
}
