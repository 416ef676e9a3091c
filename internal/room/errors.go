package room

import (
	"errors"

	"github.com/ugaemi/geohunt-server/internal/game"
)

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrTargetNotFound    = errors.New("target not found")
	ErrGameInProgress    = errors.New("game already in progress")
	ErrNotHost           = errors.New("only the host can do that")
	ErrNotInLobby        = errors.New("game already started")
	ErrNotInProgress     = errors.New("game is not in progress")
	ErrStartPrecondition = errors.New("cannot start game")
	ErrInvalidArea       = errors.New("invalid area")
	ErrInvalidDuration   = errors.New("duration must be positive")
	ErrRateLimited       = errors.New("location update too frequent")
)

// Wire error codes.
const (
	CodeRoomNotFound   = "ROOM_NOT_FOUND"
	CodeNotFound       = "NOT_FOUND"
	CodeGameInProgress = "GAME_IN_PROGRESS"
	CodeNotHost        = "NOT_HOST"
	CodeNotAuthorized  = "NOT_AUTHORIZED"
	CodeInvalidState   = "INVALID_STATE"
	CodeValidation     = "VALIDATION"
	CodeRateLimited    = "RATE_LIMITED"
	CodeHostLeft       = "HOST_LEFT"
	CodeInternal       = "INTERNAL"
)

// ErrorCode maps an error to its wire code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return CodeRoomNotFound
	case errors.Is(err, ErrPlayerNotFound),
		errors.Is(err, ErrTargetNotFound),
		errors.Is(err, game.ErrLocationUnavailable):
		return CodeNotFound
	case errors.Is(err, ErrGameInProgress):
		return CodeGameInProgress
	case errors.Is(err, ErrNotHost):
		return CodeNotHost
	case errors.Is(err, game.ErrNotPursuer):
		return CodeNotAuthorized
	case errors.Is(err, ErrNotInLobby),
		errors.Is(err, ErrNotInProgress),
		errors.Is(err, ErrStartPrecondition),
		errors.Is(err, game.ErrAlreadyCaptured),
		errors.Is(err, game.ErrOutOfBounds):
		return CodeInvalidState
	case errors.Is(err, ErrInvalidArea),
		errors.Is(err, ErrInvalidDuration),
		errors.Is(err, game.ErrTargetNotEvader):
		return CodeValidation
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	default:
		return CodeInternal
	}
}
