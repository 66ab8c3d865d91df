package employee

import (
	"strings"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/validator"
)

type CreateEmployeeRequest struct {
	ID                   string  `json:"id" validate:"omitempty,max=64"`
	Type                 string  `json:"type" validate:"required,oneof=onsite remote"`
	FullName             string  `json:"full_name" validate:"required,max=150"`
	IdentificationNumber string  `json:"identification_number" validate:"required,max=30"`
	Email                *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone                *string `json:"phone,omitempty"`
	Role                 *string `json:"role,omitempty" validate:"omitempty,max=50"`
	BadgeUID             *string `json:"badge_uid,omitempty" validate:"omitempty,badge"`
	ScheduleID           *string `json:"schedule_id,omitempty" validate:"omitempty,uuid"`
}

func (r *CreateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors
	if err := validator.Struct(r); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		errs = append(errs, verrs...)
	}

	if r.Phone != nil && !validator.IsValidPhoneNumber(*r.Phone) {
		errs = append(errs, validator.ValidationError{
			Field:   "phone",
			Message: "phone must contain 7 to 15 digits",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	r.FullName = strings.TrimSpace(r.FullName)
	if r.BadgeUID != nil {
		uid := validator.NormalizeBadgeUID(*r.BadgeUID)
		r.BadgeUID = &uid
	}
	return nil
}

type UpdateEmployeeRequest struct {
	Ref Ref `json:"-"`

	FullName             *string `json:"full_name,omitempty" validate:"omitempty,min=1,max=150"`
	IdentificationNumber *string `json:"identification_number,omitempty" validate:"omitempty,max=30"`
	Email                *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone                *string `json:"phone,omitempty"`
	Role                 *string `json:"role,omitempty" validate:"omitempty,max=50"`
	ScheduleID           *string `json:"schedule_id,omitempty" validate:"omitempty,uuid"`

	// ClearSchedule removes the schedule; punctuality is then not classified.
	ClearSchedule bool `json:"clear_schedule,omitempty"`
}

func (r *UpdateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors
	if err := validator.Struct(r); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		errs = append(errs, verrs...)
	}

	if r.Phone != nil && !validator.IsValidPhoneNumber(*r.Phone) {
		errs = append(errs, validator.ValidationError{
			Field:   "phone",
			Message: "phone must contain 7 to 15 digits",
		})
	}

	if r.ClearSchedule && r.ScheduleID != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "schedule_id",
			Message: "schedule_id cannot be set together with clear_schedule",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AssignBadgeRequest struct {
	Ref        Ref    `json:"-"`
	AssignedBy string `json:"-"`

	BadgeUID string `json:"badge_uid" validate:"required,badge"`
}

func (r *AssignBadgeRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	r.BadgeUID = validator.NormalizeBadgeUID(r.BadgeUID)
	return nil
}

type EmployeeFilter struct {
	Type   *string `json:"type,omitempty"`
	Active *bool   `json:"active,omitempty"`
	Search *string `json:"search,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *EmployeeFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Type != nil && !Type(*f.Type).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of: onsite, remote",
		})
	}

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type EmployeeResponse struct {
	ID                   string  `json:"id"`
	Type                 string  `json:"type"`
	FullName             string  `json:"full_name"`
	IdentificationNumber string  `json:"identification_number"`
	Email                *string `json:"email,omitempty"`
	Phone                *string `json:"phone,omitempty"`
	Role                 *string `json:"role,omitempty"`
	BadgeUID             *string `json:"badge_uid,omitempty"`
	BadgeAssignedBy      *string `json:"badge_assigned_by,omitempty"`
	BadgeAssignedAt      *string `json:"badge_assigned_at,omitempty"`
	ScheduleID           *string `json:"schedule_id,omitempty"`
	Active               bool    `json:"active"`
	CreatedAt            string  `json:"created_at"`
	UpdatedAt            string  `json:"updated_at"`
}

type ListEmployeeResponse struct {
	TotalCount int64              `json:"total_count"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
	Employees  []EmployeeResponse `json:"employees"`
}
