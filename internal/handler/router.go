package handler

import (
	"encoding/json"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/ugaemi/geohunt-server/internal/room"
	"github.com/ugaemi/geohunt-server/internal/ws"
)

// session binds a connection to its player in a room.
type session struct {
	Code     string
	PlayerID string
}

// Router dispatches incoming messages to the appropriate handler.
type Router struct {
	registry *room.Registry
	lobby    *LobbyHandler
	gameplay *GameplayHandler

	// sessions tracks client ID -> room membership, shared across handlers.
	sessions map[string]session
	mu       sync.RWMutex
}

// NewRouter creates a new message router.
func NewRouter(registry *room.Registry) *Router {
	r := &Router{
		registry: registry,
		sessions: make(map[string]session),
	}
	r.lobby = NewLobbyHandler(registry, r)
	r.gameplay = NewGameplayHandler(registry, r)
	return r
}

// RegisterPlayer maps a client ID to a player in a room.
func (r *Router) RegisterPlayer(clientID, code, playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[clientID] = session{Code: code, PlayerID: playerID}
}

// UnregisterPlayer removes a client's mapping.
func (r *Router) UnregisterPlayer(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, clientID)
}

// UnregisterRoom removes every mapping into a room.
func (r *Router) UnregisterRoom(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for clientID, s := range r.sessions {
		if s.Code == code {
			delete(r.sessions, clientID)
		}
	}
}

// GetSession returns the room membership of a client.
func (r *Router) GetSession(clientID string) (session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[clientID]
	return s, ok
}

// SessionCount returns the number of clients bound to a room.
func (r *Router) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// HandleMessage parses and routes an incoming client message. A panic in a
// handler fails only the triggering command.
func (r *Router) HandleMessage(cm *ws.ClientMessage) {
	var msg ws.Message
	if err := json.Unmarshal(cm.Data, &msg); err != nil {
		slog.Warn("invalid message format", "client", cm.Client.ID, "error", err)
		cm.Client.SendMessage(ws.NewCodedErrorMessage("invalid message format", room.CodeValidation))
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("panic while handling message",
				"client", cm.Client.ID, "type", msg.Type, "panic", rec, "stack", string(debug.Stack()))
			sendCodedError(cm.Client, msg, "internal error", room.CodeInternal)
		}
	}()

	switch msg.Type {
	// Lobby messages
	case ws.TypeCreateRoom:
		r.lobby.HandleCreateRoom(cm.Client, msg)
	case ws.TypeJoinRoom:
		r.lobby.HandleJoinRoom(cm.Client, msg)
	case ws.TypeLeaveRoom:
		r.lobby.HandleLeaveRoom(cm.Client, msg)
	case ws.TypeSelectRole:
		r.lobby.HandleSelectRole(cm.Client, msg)
	case ws.TypeUpdateArea:
		r.lobby.HandleUpdateArea(cm.Client, msg)
	case ws.TypeSetDuration:
		r.lobby.HandleSetDuration(cm.Client, msg)
	case ws.TypeStartGame:
		r.lobby.HandleStartGame(cm.Client, msg)

	// Gameplay messages
	case ws.TypeLocationUpdate:
		r.gameplay.HandleLocationUpdate(cm.Client, msg)
	case ws.TypeCatchAttempt:
		r.gameplay.HandleCatchAttempt(cm.Client, msg)
	case ws.TypeChatMessage:
		r.gameplay.HandleChatMessage(cm.Client, msg)
	case ws.TypeEndGame:
		r.gameplay.HandleEndGame(cm.Client, msg)

	default:
		slog.Warn("unknown message type", "type", msg.Type, "client", cm.Client.ID)
		sendCodedError(cm.Client, msg, "unknown message type: "+msg.Type, room.CodeValidation)
	}
}

// HandleDisconnect handles client disconnection.
func (r *Router) HandleDisconnect(client *ws.Client) {
	r.lobby.HandleDisconnect(client)
}

// member resolves the caller's room. It replies with an error and returns
// false when the client is not in a live room.
func (r *Router) member(client *ws.Client, msg ws.Message) (session, *room.Room, bool) {
	s, ok := r.GetSession(client.ID)
	if !ok {
		sendCodedError(client, msg, "not in a room", room.CodeNotFound)
		return session{}, nil, false
	}
	rm, err := r.registry.GetRoom(s.Code)
	if err != nil {
		r.UnregisterPlayer(client.ID)
		sendError(client, msg, err)
		return session{}, nil, false
	}
	return s, rm, true
}

func sendError(client *ws.Client, req ws.Message, err error) {
	sendCodedError(client, req, err.Error(), room.ErrorCode(err))
}

func sendCodedError(client *ws.Client, req ws.Message, text, code string) {
	msg := ws.NewCodedErrorMessage(text, code)
	msg.ID = req.ID
	client.SendMessage(msg)
}

func reply(client *ws.Client, req ws.Message, payload any) {
	msg, err := ws.Reply(req, payload)
	if err != nil {
		slog.Error("failed to encode reply", "type", req.Type, "error", err)
		return
	}
	client.SendMessage(msg)
}
