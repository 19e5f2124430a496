package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotConfigured signals that the storage location is not configured.
	ErrNotConfigured = errors.New("storage not configured")
	// ErrProtected signals a rejected mutation on a protected lesson.
	ErrProtected = errors.New("protected resource")
)
