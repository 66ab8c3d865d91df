package schedule

import (
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/timeofday"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/validator"
)

type CreateScheduleRequest struct {
	Name   string  `json:"name" validate:"required,max=100"`
	Start1 string  `json:"start_1" validate:"required,clock"`
	End1   string  `json:"end_1" validate:"required,clock"`
	Start2 *string `json:"start_2,omitempty" validate:"omitempty,clock"`
	End2   *string `json:"end_2,omitempty" validate:"omitempty,clock"`
}

func (r *CreateScheduleRequest) Validate() error {
	return validateShifts(r, r.Start2, r.End2)
}

// ToSchedule converts validated input. Call Validate first.
func (r CreateScheduleRequest) ToSchedule() Schedule {
	return Schedule{
		Name:   r.Name,
		Start1: timeofday.MustParse(r.Start1),
		End1:   timeofday.MustParse(r.End1),
		Start2: parseOptional(r.Start2),
		End2:   parseOptional(r.End2),
	}
}

type UpdateScheduleRequest struct {
	ID string `json:"-"`

	Name   string  `json:"name" validate:"required,max=100"`
	Start1 string  `json:"start_1" validate:"required,clock"`
	End1   string  `json:"end_1" validate:"required,clock"`
	Start2 *string `json:"start_2,omitempty" validate:"omitempty,clock"`
	End2   *string `json:"end_2,omitempty" validate:"omitempty,clock"`
}

func (r *UpdateScheduleRequest) Validate() error {
	return validateShifts(r, r.Start2, r.End2)
}

func (r UpdateScheduleRequest) ToSchedule() Schedule {
	return Schedule{
		ID:     r.ID,
		Name:   r.Name,
		Start1: timeofday.MustParse(r.Start1),
		End1:   timeofday.MustParse(r.End1),
		Start2: parseOptional(r.Start2),
		End2:   parseOptional(r.End2),
	}
}

func validateShifts(req any, start2, end2 *string) error {
	var errs validator.ValidationErrors
	if err := validator.Struct(req); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		errs = append(errs, verrs...)
	}

	if (start2 == nil) != (end2 == nil) {
		errs = append(errs, validator.ValidationError{
			Field:   "start_2",
			Message: ErrIncompleteShift.Error(),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func parseOptional(s *string) *timeofday.TimeOfDay {
	if s == nil {
		return nil
	}
	t := timeofday.MustParse(*s)
	return &t
}

type ScheduleResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Start1    string  `json:"start_1"`
	End1      string  `json:"end_1"`
	Start2    *string `json:"start_2,omitempty"`
	End2      *string `json:"end_2,omitempty"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}
