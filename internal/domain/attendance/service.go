package attendance

import (
	"context"
)

// SessionEngine classifies events as entrada or salida and persists the result.
type SessionEngine interface {
	RecordEvent(ctx context.Context, req RecordEventRequest) (EventResult, error)
}

// AttendanceService defines read and admin operations on sessions
type AttendanceService interface {
	ListSessions(ctx context.Context, filter SessionFilter) (ListSessionResponse, error)
	GetSession(ctx context.Context, id string) (SessionResponse, error)

	// DeleteSession is an administrative removal, never done by the engine
	DeleteSession(ctx context.Context, id string) error
}

// StaleSessionCloser closes sessions left open past the maximum session age.
type StaleSessionCloser interface {
	CloseStaleSessions(ctx context.Context) (StaleCloseReport, error)
}
