package employee

import "errors"

var (
	ErrEmployeeNotFound        = errors.New("employee not found")
	ErrEmployeeExists          = errors.New("employee with this type and id already exists")
	ErrIdentificationExists    = errors.New("identification number already registered")
	ErrBadgeAlreadyAssigned    = errors.New("badge is already assigned to another employee")
	ErrBadgeNotAssigned        = errors.New("employee has no badge assigned")
	ErrScheduleNotFound        = errors.New("schedule not found")
	ErrEmployeeAlreadyInactive = errors.New("employee is already inactive")
	ErrInvalidEmployeeType     = errors.New("employee type must be onsite or remote")
)
