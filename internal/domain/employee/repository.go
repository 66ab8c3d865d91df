package employee

import "context"

type EmployeeRepository interface {
	Create(ctx context.Context, newEmployee Employee) (Employee, error)
	GetByRef(ctx context.Context, ref Ref) (Employee, error)
	GetByBadgeUID(ctx context.Context, badgeUID string) (Employee, error)
	List(ctx context.Context, filter EmployeeFilter) ([]Employee, int64, error)
	Update(ctx context.Context, ref Ref, req UpdateEmployeeRequest) (Employee, error)
	Deactivate(ctx context.Context, ref Ref) error
	AssignBadge(ctx context.Context, ref Ref, badgeUID string, assignedBy string) (Employee, error)
	UnassignBadge(ctx context.Context, ref Ref) (Employee, error)
	CountBySchedule(ctx context.Context, scheduleID string) (int64, error)
}

// Directory is the read-only lookup the attendance engine consumes.
type Directory interface {
	GetByRef(ctx context.Context, ref Ref) (Employee, error)
	GetByBadgeUID(ctx context.Context, badgeUID string) (Employee, error)
}
