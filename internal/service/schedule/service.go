package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/validator"
)

// assignmentCounter reports how many employees reference a schedule.
type assignmentCounter interface {
	CountBySchedule(ctx context.Context, scheduleID string) (int64, error)
}

type scheduleServiceImpl struct {
	scheduleRepo schedule.ScheduleRepository
	employees    assignmentCounter
}

func NewScheduleService(scheduleRepo schedule.ScheduleRepository, employees assignmentCounter) schedule.ScheduleService {
	return &scheduleServiceImpl{
		scheduleRepo: scheduleRepo,
		employees:    employees,
	}
}

func mapScheduleToResponse(s schedule.Schedule) schedule.ScheduleResponse {
	resp := schedule.ScheduleResponse{
		ID:        s.ID,
		Name:      s.Name,
		Start1:    s.Start1.String(),
		End1:      s.End1.String(),
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
		UpdatedAt: s.UpdatedAt.Format(time.RFC3339),
	}
	if s.Start2 != nil && s.End2 != nil {
		start2, end2 := s.Start2.String(), s.End2.String()
		resp.Start2 = &start2
		resp.End2 = &end2
	}
	return resp
}

// Create implements schedule.ScheduleService.
func (s *scheduleServiceImpl) Create(ctx context.Context, req schedule.CreateScheduleRequest) (schedule.ScheduleResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.ScheduleResponse{}, err
	}

	newSchedule := req.ToSchedule()
	newSchedule.ID = uuid.Must(uuid.NewV7()).String()

	created, err := s.scheduleRepo.Create(ctx, newSchedule)
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}

	slog.Info("schedule created", "schedule_id", created.ID, "name", created.Name)
	return mapScheduleToResponse(created), nil
}

// Get implements schedule.ScheduleService.
func (s *scheduleServiceImpl) Get(ctx context.Context, id string) (schedule.ScheduleResponse, error) {
	if !validator.IsValidUUID(id) {
		return schedule.ScheduleResponse{}, schedule.ErrScheduleNotFound
	}

	found, err := s.scheduleRepo.GetByID(ctx, id)
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}
	return mapScheduleToResponse(found), nil
}

// List implements schedule.ScheduleService.
func (s *scheduleServiceImpl) List(ctx context.Context) ([]schedule.ScheduleResponse, error) {
	schedules, err := s.scheduleRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}

	responses := make([]schedule.ScheduleResponse, 0, len(schedules))
	for _, sc := range schedules {
		responses = append(responses, mapScheduleToResponse(sc))
	}
	return responses, nil
}

// Update implements schedule.ScheduleService.
func (s *scheduleServiceImpl) Update(ctx context.Context, req schedule.UpdateScheduleRequest) (schedule.ScheduleResponse, error) {
	if !validator.IsValidUUID(req.ID) {
		return schedule.ScheduleResponse{}, schedule.ErrScheduleNotFound
	}
	if err := req.Validate(); err != nil {
		return schedule.ScheduleResponse{}, err
	}

	updated, err := s.scheduleRepo.Update(ctx, req.ToSchedule())
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}
	return mapScheduleToResponse(updated), nil
}

// Delete implements schedule.ScheduleService.
func (s *scheduleServiceImpl) Delete(ctx context.Context, id string) error {
	if !validator.IsValidUUID(id) {
		return schedule.ErrScheduleNotFound
	}

	inUse, err := s.employees.CountBySchedule(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count schedule assignments: %w", err)
	}
	if inUse > 0 {
		return schedule.ErrScheduleInUse
	}

	if err := s.scheduleRepo.Delete(ctx, id); err != nil {
		return err
	}

	slog.Info("schedule deleted", "schedule_id", id)
	return nil
}
