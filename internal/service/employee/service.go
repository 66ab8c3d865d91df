package employee

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/schedule"
)

// transactor runs fn in one transaction; repositories join it through ctx.
type transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type EmployeeServiceImpl struct {
	employeeRepo employee.EmployeeRepository
	schedules    schedule.Catalog
	tx           transactor
}

func NewEmployeeService(employeeRepo employee.EmployeeRepository, schedules schedule.Catalog, tx transactor) employee.EmployeeService {
	return &EmployeeServiceImpl{
		employeeRepo: employeeRepo,
		schedules:    schedules,
		tx:           tx,
	}
}

// Helper function to map Employee to EmployeeResponse
func mapEmployeeToResponse(emp employee.Employee) employee.EmployeeResponse {
	var assignedAt *string
	if emp.BadgeAssignedAt != nil {
		s := emp.BadgeAssignedAt.Format(time.RFC3339)
		assignedAt = &s
	}

	return employee.EmployeeResponse{
		ID:                   emp.ID,
		Type:                 string(emp.Type),
		FullName:             emp.FullName,
		IdentificationNumber: emp.IdentificationNumber,
		Email:                emp.Email,
		Phone:                emp.Phone,
		Role:                 emp.Role,
		BadgeUID:             emp.BadgeUID,
		BadgeAssignedBy:      emp.BadgeAssignedBy,
		BadgeAssignedAt:      assignedAt,
		ScheduleID:           emp.ScheduleID,
		Active:               emp.Active,
		CreatedAt:            emp.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            emp.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *EmployeeServiceImpl) ensureSchedule(ctx context.Context, scheduleID *string) error {
	if scheduleID == nil {
		return nil
	}
	if _, err := s.schedules.GetByID(ctx, *scheduleID); err != nil {
		if errors.Is(err, schedule.ErrScheduleNotFound) {
			return employee.ErrScheduleNotFound
		}
		return fmt.Errorf("failed to get schedule: %w", err)
	}
	return nil
}

// CreateEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) CreateEmployee(ctx context.Context, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	if err := s.ensureSchedule(ctx, req.ScheduleID); err != nil {
		return employee.EmployeeResponse{}, err
	}

	id := req.ID
	if id == "" {
		id = uuid.Must(uuid.NewV7()).String()
	}

	newEmployee := employee.Employee{
		ID:                   id,
		Type:                 employee.Type(req.Type),
		FullName:             req.FullName,
		IdentificationNumber: req.IdentificationNumber,
		Email:                req.Email,
		Phone:                req.Phone,
		Role:                 req.Role,
		BadgeUID:             req.BadgeUID,
		ScheduleID:           req.ScheduleID,
		Active:               true,
	}
	if newEmployee.BadgeUID != nil {
		now := time.Now()
		newEmployee.BadgeAssignedAt = &now
	}

	created, err := s.employeeRepo.Create(ctx, newEmployee)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	slog.Info("employee created", "employee", created.Ref().Key())
	return mapEmployeeToResponse(created), nil
}

// GetEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) GetEmployee(ctx context.Context, ref employee.Ref) (employee.EmployeeResponse, error) {
	if !ref.Type.Valid() {
		return employee.EmployeeResponse{}, employee.ErrInvalidEmployeeType
	}

	emp, err := s.employeeRepo.GetByRef(ctx, ref)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return mapEmployeeToResponse(emp), nil
}

// ListEmployees implements employee.EmployeeService.
func (s *EmployeeServiceImpl) ListEmployees(ctx context.Context, filter employee.EmployeeFilter) (employee.ListEmployeeResponse, error) {
	if err := filter.Validate(); err != nil {
		return employee.ListEmployeeResponse{}, err
	}

	employees, totalCount, err := s.employeeRepo.List(ctx, filter)
	if err != nil {
		return employee.ListEmployeeResponse{}, fmt.Errorf("failed to list employees: %w", err)
	}

	totalPages := int(math.Ceil(float64(totalCount) / float64(filter.Limit)))

	responses := make([]employee.EmployeeResponse, 0, len(employees))
	for _, emp := range employees {
		responses = append(responses, mapEmployeeToResponse(emp))
	}

	return employee.ListEmployeeResponse{
		TotalCount: totalCount,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Employees:  responses,
	}, nil
}

// UpdateEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) UpdateEmployee(ctx context.Context, req employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error) {
	if !req.Ref.Type.Valid() {
		return employee.EmployeeResponse{}, employee.ErrInvalidEmployeeType
	}
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	if err := s.ensureSchedule(ctx, req.ScheduleID); err != nil {
		return employee.EmployeeResponse{}, err
	}

	updated, err := s.employeeRepo.Update(ctx, req.Ref, req)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return mapEmployeeToResponse(updated), nil
}

// DeactivateEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) DeactivateEmployee(ctx context.Context, ref employee.Ref) error {
	if !ref.Type.Valid() {
		return employee.ErrInvalidEmployeeType
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		emp, err := s.employeeRepo.GetByRef(ctx, ref)
		if err != nil {
			return err
		}
		if !emp.Active {
			return employee.ErrEmployeeAlreadyInactive
		}
		return s.employeeRepo.Deactivate(ctx, ref)
	})
	if err != nil {
		return err
	}

	slog.Info("employee deactivated", "employee", ref.Key())
	return nil
}

// AssignBadge implements employee.EmployeeService.
func (s *EmployeeServiceImpl) AssignBadge(ctx context.Context, req employee.AssignBadgeRequest) (employee.EmployeeResponse, error) {
	if !req.Ref.Type.Valid() {
		return employee.EmployeeResponse{}, employee.ErrInvalidEmployeeType
	}
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	var updated employee.Employee
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		holder, err := s.employeeRepo.GetByBadgeUID(ctx, req.BadgeUID)
		switch {
		case err == nil:
			if holder.Ref() != req.Ref {
				return employee.ErrBadgeAlreadyAssigned
			}
		case !errors.Is(err, employee.ErrEmployeeNotFound):
			return fmt.Errorf("failed to look up badge: %w", err)
		}

		updated, err = s.employeeRepo.AssignBadge(ctx, req.Ref, req.BadgeUID, req.AssignedBy)
		return err
	})
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	slog.Info("badge assigned", "employee", req.Ref.Key(), "badge_uid", req.BadgeUID, "assigned_by", req.AssignedBy)
	return mapEmployeeToResponse(updated), nil
}

// UnassignBadge implements employee.EmployeeService.
func (s *EmployeeServiceImpl) UnassignBadge(ctx context.Context, ref employee.Ref) (employee.EmployeeResponse, error) {
	if !ref.Type.Valid() {
		return employee.EmployeeResponse{}, employee.ErrInvalidEmployeeType
	}

	emp, err := s.employeeRepo.GetByRef(ctx, ref)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	if emp.BadgeUID == nil {
		return employee.EmployeeResponse{}, employee.ErrBadgeNotAssigned
	}

	updated, err := s.employeeRepo.UnassignBadge(ctx, ref)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return mapEmployeeToResponse(updated), nil
}
