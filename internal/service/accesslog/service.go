package accesslog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/accesslog"
)

type AccessLogServiceImpl struct {
	accesslog.AccessLogRepository
}

func NewAccessLogService(repo accesslog.AccessLogRepository) accesslog.AccessLogService {
	return &AccessLogServiceImpl{AccessLogRepository: repo}
}

// Record implements accesslog.AccessLogService.
func (s *AccessLogServiceImpl) Record(ctx context.Context, entry accesslog.Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.Must(uuid.NewV7()).String()
	}
	if entry.ReceivedAt.IsZero() {
		entry.ReceivedAt = time.Now()
	}
	if entry.Outcome == "" {
		entry.Outcome = accesslog.OutcomeRecorded
	}

	if _, err := s.AccessLogRepository.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to record access log: %w", err)
	}
	return nil
}

// List implements accesslog.AccessLogService.
func (s *AccessLogServiceImpl) List(ctx context.Context, filter accesslog.AccessLogFilter) ([]accesslog.AccessLogResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	entries, err := s.AccessLogRepository.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list access logs: %w", err)
	}

	responses := make([]accesslog.AccessLogResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, accesslog.AccessLogResponse{
			ID:           e.ID,
			BadgeUID:     e.BadgeUID,
			ReceivedAt:   e.ReceivedAt.Format(time.RFC3339),
			Registered:   e.Registered,
			EmployeeType: e.EmployeeType,
			EmployeeID:   e.EmployeeID,
			SessionID:    e.SessionID,
			EventType:    e.EventType,
			Outcome:      e.Outcome,
		})
	}
	return responses, nil
}
