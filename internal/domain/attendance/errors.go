package attendance

import "errors"

// Attendance domain errors
var (
	// Event errors returned to the caller
	ErrUnknownEmployee  = errors.New("employee not found or inactive")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrTransientStore   = errors.New("attendance store temporarily unavailable, retry the request")

	// Storage outcomes
	ErrOpenSessionConflict = errors.New("open session changed concurrently")
	ErrSessionNotFound     = errors.New("attendance session not found")

	// Logged only, recovered by picking the most recently created session
	ErrConflictingOpenSessions = errors.New("employee has more than one open session")
)
