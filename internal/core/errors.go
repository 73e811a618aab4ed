package core

import "errors"

var (
	// ErrRoomNotFound is returned when an operation references an unknown room.
	ErrRoomNotFound = errors.New("room not found")
	// ErrAlreadyJoined is returned when a session attempts a second join.
	// A session belongs to exactly one room for its whole lifetime.
	ErrAlreadyJoined = errors.New("already joined")
)
