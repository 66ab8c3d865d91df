package schedule

import "errors"

var (
	ErrScheduleNotFound   = errors.New("schedule not found")
	ErrScheduleNameExists = errors.New("schedule with this name already exists")
	ErrScheduleInUse      = errors.New("schedule is assigned to one or more employees")
	ErrIncompleteShift    = errors.New("start_2 and end_2 must be provided together")
)
