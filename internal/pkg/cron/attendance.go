package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/attendance"
)

const StaleSessionJobName = "close_stale_attendance_sessions"

type AttendanceJobs struct {
	closer   attendance.StaleSessionCloser
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

func NewAttendanceJobs(closer attendance.StaleSessionCloser, interval, timeout time.Duration, logger *slog.Logger) *AttendanceJobs {
	if logger == nil {
		logger = slog.Default()
	}
	return &AttendanceJobs{
		closer:   closer,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(Job{
		Name:     StaleSessionJobName,
		Interval: j.interval,
		Timeout:  j.timeout,
		Fn:       j.CloseStaleSessions,
	})
}

// CloseStaleSessions closes sessions left open past the maximum session age.
// Sessions whose shift end cannot be determined stay open and are reported
// as pending.
func (j *AttendanceJobs) CloseStaleSessions(ctx context.Context) error {
	report, err := j.closer.CloseStaleSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to close stale sessions: %w", err)
	}

	if report.Scanned == 0 {
		j.logger.Debug("Cron: No stale attendance sessions found")
		return nil
	}

	j.logger.Info("Cron: Closed stale attendance sessions",
		"scanned", report.Scanned,
		"closed", report.Closed,
		"pending", report.Pending)
	if report.Pending > 0 {
		j.logger.Warn("Cron: Stale sessions left pending, no schedule to close them", "count", report.Pending)
	}
	return nil
}
