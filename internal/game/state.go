package game

import (
	"encoding/json"
	"fmt"
)

type RoomStatus int

const (
	StatusLobby RoomStatus = iota
	StatusInProgress
	StatusEnded
)

func (s RoomStatus) String() string {
	switch s {
	case StatusLobby:
		return "lobby"
	case StatusInProgress:
		return "in_progress"
	case StatusEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes RoomStatus as a string.
func (s RoomStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON deserializes RoomStatus from a string.
func (s *RoomStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	switch str {
	case "lobby":
		*s = StatusLobby
	case "in_progress":
		*s = StatusInProgress
	case "ended":
		*s = StatusEnded
	default:
		return fmt.Errorf("unknown room status %q", str)
	}
	return nil
}

// EndReason tags why a game ended.
type EndReason string

const (
	EndAllCaptured EndReason = "all_captured"
	EndTimeUp      EndReason = "time_up"
	EndHostEnded   EndReason = "host_ended"
)
