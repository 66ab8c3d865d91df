package attendance

import (
	"context"
	"time"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/employee"
)

// SessionRepository is the attendance store.
type SessionRepository interface {
	// Create inserts an open session. Returns ErrOpenSessionConflict when the
	// employee already has an open session on the same date.
	Create(ctx context.Context, session Session) (Session, error)

	// Close sets the exit of an open session. Returns ErrOpenSessionConflict
	// when the session is no longer open.
	Close(ctx context.Context, id string, closure Closure) (Session, error)

	// FindOpenSessions returns the employee's open sessions, most recently created first.
	FindOpenSessions(ctx context.Context, ref employee.Ref) ([]Session, error)

	// ListStaleOpen returns open sessions whose entrada is before the given
	// local wall-clock cutoff, oldest first.
	ListStaleOpen(ctx context.Context, cutoff time.Time, limit int) ([]Session, error)

	GetByID(ctx context.Context, id string) (Session, error)
	List(ctx context.Context, filter SessionFilter) ([]Session, int64, error)
	Delete(ctx context.Context, id string) error
}
