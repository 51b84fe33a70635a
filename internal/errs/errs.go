package errs

import "errors"

// Domain sentinel errors, mapped to HTTP/WebSocket responses in handlers.
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrAlreadyJoined       = errors.New("connection already joined a room")
	ErrInvalidRoomCode     = errors.New("invalid room code format")
	ErrValidation          = errors.New("invalid input")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrUserNotFound        = errors.New("user not found")
	ErrSessionActive       = errors.New("translation session already active")
)
