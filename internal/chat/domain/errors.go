package domain

import "errors"

var (
	// ErrRoomNotFound no persisted record for the room id
	ErrRoomNotFound = errors.New("chat room not found")
	// ErrInvalidRole role is neither user nor admin
	ErrInvalidRole = errors.New("invalid role, expect user or admin")
	// ErrRoomIDRequired event without room id
	ErrRoomIDRequired = errors.New("room id is required")
	// ErrMessageRequired message event without message body
	ErrMessageRequired = errors.New("message is required")
	// ErrUnknownConnection connection id not registered
	ErrUnknownConnection = errors.New("unknown connection")
)
