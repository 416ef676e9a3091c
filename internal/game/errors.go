package game

import "errors"

// Catch validation failures, in the order they are checked.
var (
	ErrNotPursuer          = errors.New("only pursuers can catch")
	ErrTargetNotEvader     = errors.New("target is not an evader")
	ErrAlreadyCaptured     = errors.New("target already captured")
	ErrOutOfBounds         = errors.New("you are out of bounds")
	ErrLocationUnavailable = errors.New("location not available")
)
