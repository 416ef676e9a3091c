package ws

import "encoding/json"

// Message represents a WebSocket message with type-based routing.
// ID is an optional client-chosen request id echoed on the reply.
type Message struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Message types - Lobby
const (
	TypeCreateRoom  = "create_room"
	TypeJoinRoom    = "join_room"
	TypeLeaveRoom   = "leave_room"
	TypeSelectRole  = "select_role"
	TypeUpdateArea  = "update_area"
	TypeSetDuration = "set_duration"
	TypeStartGame   = "start_game"
)

// Message types - Gameplay
const (
	TypeLocationUpdate   = "location_update"
	TypeCatchAttempt     = "catch_attempt"
	TypeChatMessage      = "chat_message"
	TypeEndGame          = "end_game"
	TypePlayerCaught     = "player_caught"
	TypeBonusAreaEntered = "bonus_area_entered"
	TypeBonusAreaRemoved = "bonus_area_removed"
	TypeRevealState      = "reveal_state"
	TypeGameEnd          = "game_end"
)

// Message types - System
const (
	TypeError     = "error"
	TypeRoomState = "room_state"
)

// ErrorMessage is sent when an error occurs.
type ErrorMessage struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// NewErrorMessage creates a Message with an error payload.
func NewErrorMessage(msg string) Message {
	return NewCodedErrorMessage(msg, "")
}

// NewCodedErrorMessage creates an error Message carrying a machine-readable code.
func NewCodedErrorMessage(msg, code string) Message {
	data, _ := json.Marshal(ErrorMessage{Message: msg, Code: code})
	return Message{Type: TypeError, Data: data}
}

// NewMessage creates a Message with a typed payload.
func NewMessage(msgType string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Data: data}, nil
}

// Reply creates a response to req with the same type and request id.
func Reply(req Message, payload any) (Message, error) {
	msg, err := NewMessage(req.Type, payload)
	if err != nil {
		return Message{}, err
	}
	msg.ID = req.ID
	return msg, nil
}
