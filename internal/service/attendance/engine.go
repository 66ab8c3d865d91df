package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/keylock"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/timeofday"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/validator"
)

type EngineConfig struct {
	Location         *time.Location
	LateGraceMinutes int
	// MaxSessionAge bounds how long an open session can wait for its salida.
	// Older open sessions no longer pair with new events.
	MaxSessionAge    time.Duration
	OperationTimeout time.Duration
	ConflictRetries  int
}

type SessionEngineImpl struct {
	attendance.SessionRepository
	employees employee.Directory
	schedules schedule.Catalog
	locks     *keylock.KeyedMutex
	cfg       EngineConfig
	now       func() time.Time
	newID     func() string
}

// RecordEvent implements attendance.SessionEngine.
func (e *SessionEngineImpl) RecordEvent(ctx context.Context, req attendance.RecordEventRequest) (attendance.EventResult, error) {
	if err := req.Validate(); err != nil {
		return attendance.EventResult{}, err
	}

	at, err := e.eventTime(req)
	if err != nil {
		return attendance.EventResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.OperationTimeout)
	defer cancel()

	emp, err := e.resolveEmployee(ctx, req)
	if err != nil {
		return attendance.EventResult{}, err
	}

	// Held across read-decide-write so a double tap cannot open two sessions.
	unlock, err := e.locks.Lock(ctx, emp.Ref().Key())
	if err != nil {
		return attendance.EventResult{}, transient("wait for employee lock", err)
	}
	defer unlock()

	for attempt := 0; ; attempt++ {
		result, err := e.apply(ctx, emp, at, req.Source)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, attendance.ErrOpenSessionConflict) {
			return attendance.EventResult{}, err
		}
		if attempt >= e.cfg.ConflictRetries {
			return attendance.EventResult{}, transient("record event", err)
		}
		slog.Warn("open session changed concurrently, re-reading",
			"employee", emp.Ref().Key(),
			"attempt", attempt+1,
			"error", err,
		)
	}
}

func (e *SessionEngineImpl) eventTime(req attendance.RecordEventRequest) (time.Time, error) {
	if req.Timestamp == nil || validator.IsEmpty(*req.Timestamp) {
		if req.Source == attendance.SourceBadge {
			at := req.ReceivedAt
			if at.IsZero() {
				at = e.now()
			}
			return at.In(e.cfg.Location).Truncate(time.Second), nil
		}
		return time.Time{}, fmt.Errorf("%w: timestamp is required for manual events", attendance.ErrInvalidTimestamp)
	}

	t, ok := validator.ParseTimestamp(*req.Timestamp, e.cfg.Location)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q must be RFC3339 or YYYY-MM-DD HH:MM:SS", attendance.ErrInvalidTimestamp, *req.Timestamp)
	}
	return t.In(e.cfg.Location).Truncate(time.Second), nil
}

func (e *SessionEngineImpl) resolveEmployee(ctx context.Context, req attendance.RecordEventRequest) (employee.Employee, error) {
	var (
		emp      employee.Employee
		err      error
		identity string
	)
	if req.BadgeUID != "" {
		identity = "badge " + req.BadgeUID
		emp, err = e.employees.GetByBadgeUID(ctx, req.BadgeUID)
	} else {
		ref := employee.Ref{Type: employee.Type(req.EmployeeType), ID: req.EmployeeID}
		identity = ref.Key()
		emp, err = e.employees.GetByRef(ctx, ref)
	}

	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return employee.Employee{}, fmt.Errorf("%w: %s", attendance.ErrUnknownEmployee, identity)
		}
		return employee.Employee{}, transient("resolve employee", err)
	}
	if !emp.Active {
		return employee.Employee{}, fmt.Errorf("%w: %s is inactive", attendance.ErrUnknownEmployee, identity)
	}
	return emp, nil
}

// apply performs one read-decide-write pass. It returns
// ErrOpenSessionConflict untouched so the caller can retry.
func (e *SessionEngineImpl) apply(ctx context.Context, emp employee.Employee, at time.Time, source attendance.Source) (attendance.EventResult, error) {
	open, err := e.SessionRepository.FindOpenSessions(ctx, emp.Ref())
	if err != nil {
		return attendance.EventResult{}, transient("find open sessions", err)
	}

	live, stale := e.partitionOpen(open, at)
	if len(live) > 1 {
		ids := make([]string, 0, len(live))
		for _, s := range live {
			ids = append(ids, s.ID)
		}
		slog.Warn("multiple open sessions, using the most recently created",
			"employee", emp.Ref().Key(),
			"session_ids", ids,
			"error", attendance.ErrConflictingOpenSessions,
		)
	}

	if len(live) == 0 {
		return e.openSession(ctx, emp, at, source, len(stale))
	}
	return e.closeSession(ctx, emp, live[0], at, source, len(stale))
}

// partitionOpen splits open sessions into those the event may close and
// those too old to pair. A session dated on the event's own day is always
// live, since storage allows only one open session per employee and date.
// Live sessions are ordered newest first.
func (e *SessionEngineImpl) partitionOpen(open []attendance.Session, at time.Time) (live, stale []attendance.Session) {
	for _, s := range open {
		if sameDate(s.Date, at) || at.Sub(s.EntryInstant(e.cfg.Location)) < e.cfg.MaxSessionAge {
			live = append(live, s)
		} else {
			stale = append(stale, s)
		}
	}
	slices.SortStableFunc(live, func(a, b attendance.Session) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return live, stale
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (e *SessionEngineImpl) openSession(ctx context.Context, emp employee.Employee, at time.Time, source attendance.Source, staleOpen int) (attendance.EventResult, error) {
	entry := timeofday.FromTime(at)
	y, m, d := at.Date()

	session := attendance.Session{
		ID:           e.newID(),
		EmployeeType: emp.Type,
		EmployeeID:   emp.ID,
		Date:         time.Date(y, m, d, 0, 0, 0, 0, e.cfg.Location),
		EntryTime:    entry,
		EntrySource:  source,
	}

	var (
		deviation *attendance.Deviation
		status    *attendance.Status
	)
	if emp.ScheduleID != nil {
		sched, err := e.schedules.GetByID(ctx, *emp.ScheduleID)
		switch {
		case errors.Is(err, schedule.ErrScheduleNotFound):
			slog.Warn("assigned schedule not found, punctuality not classified",
				"employee", emp.Ref().Key(),
				"schedule_id", *emp.ScheduleID,
			)
		case err != nil:
			return attendance.EventResult{}, transient("load schedule", err)
		default:
			if expected, ok := NearestExpectedStart(sched.Starts(), entry); ok {
				dev := ClassifyDeviation(expected, entry)
				st := dev.Status(e.cfg.LateGraceMinutes)
				minutes := dev.SignedMinutes()
				session.ExpectedStart = &expected
				session.DeviationMinutes = &minutes
				session.Status = &st
				deviation, status = &dev, &st
			}
		}
	}

	created, err := e.SessionRepository.Create(ctx, session)
	if err != nil {
		if errors.Is(err, attendance.ErrOpenSessionConflict) {
			return attendance.EventResult{}, err
		}
		return attendance.EventResult{}, transient("create session", err)
	}

	if staleOpen > 0 {
		slog.Warn("entrada recorded while earlier sessions still lack a salida",
			"employee", emp.Ref().Key(),
			"pending_exits", staleOpen,
		)
	}
	slog.Info("entrada recorded",
		"employee", emp.Ref().Key(),
		"session_id", created.ID,
		"date", created.Date.Format("2006-01-02"),
		"entry_time", created.EntryTime.String(),
		"source", string(source),
	)

	return attendance.EventResult{
		Type:      attendance.EventEntrada,
		Session:   created,
		Employee:  emp,
		Deviation: deviation,
		Status:    status,
		StaleOpen: staleOpen,
	}, nil
}

func (e *SessionEngineImpl) closeSession(ctx context.Context, emp employee.Employee, open attendance.Session, at time.Time, source attendance.Source, staleOpen int) (attendance.EventResult, error) {
	entryAt := open.EntryInstant(e.cfg.Location)
	if at.Before(entryAt) {
		return attendance.EventResult{}, fmt.Errorf("%w: event at %s precedes the open entrada at %s",
			attendance.ErrInvalidTimestamp,
			at.Format(time.DateTime),
			entryAt.Format(time.DateTime),
		)
	}

	exit := timeofday.FromTime(at)
	closure := attendance.Closure{
		ExitTime: exit,
		Duration: ComputeDuration(open.EntryTime, exit),
		Source:   source,
	}

	closed, err := e.SessionRepository.Close(ctx, open.ID, closure)
	if err != nil {
		if errors.Is(err, attendance.ErrOpenSessionConflict) {
			return attendance.EventResult{}, err
		}
		return attendance.EventResult{}, transient("close session", err)
	}

	slog.Info("salida recorded",
		"employee", emp.Ref().Key(),
		"session_id", closed.ID,
		"exit_time", exit.String(),
		"duration", attendance.FormatDuration(closure.Duration),
		"source", string(source),
	)

	return attendance.EventResult{
		Type:      attendance.EventSalida,
		Session:   closed,
		Employee:  emp,
		StaleOpen: staleOpen,
	}, nil
}

func transient(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", attendance.ErrTransientStore, op, err)
}

func newSessionID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func NewSessionEngine(
	sessionRepository attendance.SessionRepository,
	employees employee.Directory,
	schedules schedule.Catalog,
	locks *keylock.KeyedMutex,
	cfg EngineConfig,
) attendance.SessionEngine {
	return &SessionEngineImpl{
		SessionRepository: sessionRepository,
		employees:         employees,
		schedules:         schedules,
		locks:             locks,
		cfg:               cfg,
		now:               time.Now,
		newID:             newSessionID,
	}
}
