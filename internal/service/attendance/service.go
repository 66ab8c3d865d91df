package attendance

import (
	"context"
	"fmt"
	"math"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/validator"
)

type AttendanceServiceImpl struct {
	attendance.SessionRepository
}

// ListSessions implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListSessions(ctx context.Context, filter attendance.SessionFilter) (attendance.ListSessionResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListSessionResponse{}, err
	}

	sessions, total, err := a.SessionRepository.List(ctx, filter)
	if err != nil {
		return attendance.ListSessionResponse{}, fmt.Errorf("failed to list sessions: %w", err)
	}

	responses := make([]attendance.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		responses = append(responses, attendance.NewSessionResponse(s))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", (filter.Page-1)*filter.Limit+1, min(filter.Page*filter.Limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}

	return attendance.ListSessionResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Showing:    showing,
		Sessions:   responses,
	}, nil
}

// GetSession implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetSession(ctx context.Context, id string) (attendance.SessionResponse, error) {
	if !validator.IsValidUUID(id) {
		return attendance.SessionResponse{}, attendance.ErrSessionNotFound
	}
	s, err := a.SessionRepository.GetByID(ctx, id)
	if err != nil {
		return attendance.SessionResponse{}, err
	}
	return attendance.NewSessionResponse(s), nil
}

// DeleteSession implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) DeleteSession(ctx context.Context, id string) error {
	if !validator.IsValidUUID(id) {
		return attendance.ErrSessionNotFound
	}
	return a.SessionRepository.Delete(ctx, id)
}

func NewAttendanceService(sessionRepository attendance.SessionRepository) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		SessionRepository: sessionRepository,
	}
}
