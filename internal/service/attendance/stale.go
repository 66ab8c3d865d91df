package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/keylock"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/timeofday"
)

const staleBatchSize = 200

type StaleSessionCloserImpl struct {
	attendance.SessionRepository
	employees employee.Directory
	schedules schedule.Catalog
	locks     *keylock.KeyedMutex
	cfg       EngineConfig
	now       func() time.Time
}

// CloseStaleSessions closes open sessions older than the maximum session age
// at the end of the shift their entrada belonged to. Sessions whose shift
// cannot be determined are left open and counted as pending.
func (c *StaleSessionCloserImpl) CloseStaleSessions(ctx context.Context) (attendance.StaleCloseReport, error) {
	var report attendance.StaleCloseReport

	cutoff := c.now().In(c.cfg.Location).Add(-c.cfg.MaxSessionAge)
	sessions, err := c.SessionRepository.ListStaleOpen(ctx, cutoff, staleBatchSize)
	if err != nil {
		return report, fmt.Errorf("failed to list stale sessions: %w", err)
	}

	for _, s := range sessions {
		report.Scanned++
		closed, err := c.closeOne(ctx, s)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Pending++
			slog.Warn("stale session left open",
				"employee", s.EmployeeRef().Key(),
				"session_id", s.ID,
				"date", s.Date.Format("2006-01-02"),
				"error", err,
			)
			continue
		}
		if closed {
			report.Closed++
		}
	}

	return report, nil
}

var errNoShiftEnd = errors.New("no schedule to infer the shift end")

func (c *StaleSessionCloserImpl) closeOne(ctx context.Context, s attendance.Session) (bool, error) {
	unlock, err := c.locks.Lock(ctx, s.EmployeeRef().Key())
	if err != nil {
		return false, err
	}
	defer unlock()

	emp, err := c.employees.GetByRef(ctx, s.EmployeeRef())
	if err != nil {
		return false, fmt.Errorf("failed to get employee: %w", err)
	}
	if emp.ScheduleID == nil {
		return false, errNoShiftEnd
	}

	sched, err := c.schedules.GetByID(ctx, *emp.ScheduleID)
	if err != nil {
		return false, fmt.Errorf("failed to get schedule: %w", err)
	}

	exit, ok := ShiftEndFor(sched, s.EntryTime)
	if !ok {
		return false, errNoShiftEnd
	}

	_, err = c.SessionRepository.Close(ctx, s.ID, attendance.Closure{
		ExitTime:   exit,
		Duration:   ComputeDuration(s.EntryTime, exit),
		Source:     attendance.SourceAuto,
		AutoClosed: true,
	})
	if errors.Is(err, attendance.ErrOpenSessionConflict) {
		// closed by a salida in the meantime
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to close session: %w", err)
	}

	slog.Info("stale session auto-closed",
		"employee", s.EmployeeRef().Key(),
		"session_id", s.ID,
		"exit_time", exit.String(),
	)
	return true, nil
}

// ShiftEndFor returns the end of the shift whose start is nearest to entry.
// It fails when the entry is already past the end of a shift that does not
// cross midnight, since no exit at or after the entry can be inferred.
func ShiftEndFor(sched schedule.Schedule, entry timeofday.TimeOfDay) (timeofday.TimeOfDay, bool) {
	start, ok := NearestExpectedStart(sched.Starts(), entry)
	if !ok {
		return 0, false
	}
	for _, shift := range sched.Shifts() {
		if shift.Start != start {
			continue
		}
		crossesMidnight := shift.End < shift.Start
		if !crossesMidnight && entry > shift.End {
			return 0, false
		}
		return shift.End, true
	}
	return 0, false
}

func NewStaleSessionCloser(
	sessionRepository attendance.SessionRepository,
	employees employee.Directory,
	schedules schedule.Catalog,
	locks *keylock.KeyedMutex,
	cfg EngineConfig,
) attendance.StaleSessionCloser {
	return &StaleSessionCloserImpl{
		SessionRepository: sessionRepository,
		employees:         employees,
		schedules:         schedules,
		locks:             locks,
		cfg:               cfg,
		now:               time.Now,
	}
}
