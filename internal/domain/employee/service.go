package employee

import (
	"context"
)

// EmployeeService defines business logic for employee operations
type EmployeeService interface {
	// CreateEmployee registers an onsite or remote employee
	CreateEmployee(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error)

	// GetEmployee retrieves a single employee by type and id
	GetEmployee(ctx context.Context, ref Ref) (EmployeeResponse, error)

	// ListEmployees lists employees with filters
	ListEmployees(ctx context.Context, filter EmployeeFilter) (ListEmployeeResponse, error)

	// UpdateEmployee updates profile and schedule fields
	UpdateEmployee(ctx context.Context, req UpdateEmployeeRequest) (EmployeeResponse, error)

	// DeactivateEmployee soft deletes an employee; its badge stops resolving
	DeactivateEmployee(ctx context.Context, ref Ref) error

	AssignBadge(ctx context.Context, req AssignBadgeRequest) (EmployeeResponse, error)
	UnassignBadge(ctx context.Context, ref Ref) (EmployeeResponse, error)
}
