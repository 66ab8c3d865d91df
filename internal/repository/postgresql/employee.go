package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/database"
)

const (
	employeePKConstraint             = "employees_pkey"
	employeeIdentificationConstraint = "employees_identification_number_key"
	employeeBadgeConstraint          = "employees_badge_uid_key"
)

const employeeColumns = `
	employee_type, employee_id, full_name, identification_number, email, phone, role,
	badge_uid, badge_assigned_by, badge_assigned_at, schedule_id, active, created_at, updated_at`

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var (
		emp     employee.Employee
		empType string
	)
	err := row.Scan(
		&empType, &emp.ID, &emp.FullName, &emp.IdentificationNumber, &emp.Email, &emp.Phone, &emp.Role,
		&emp.BadgeUID, &emp.BadgeAssignedBy, &emp.BadgeAssignedAt, &emp.ScheduleID, &emp.Active,
		&emp.CreatedAt, &emp.UpdatedAt,
	)
	if err != nil {
		return employee.Employee{}, err
	}
	emp.Type = employee.Type(empType)
	return emp, nil
}

// mapEmployeeWriteError translates constraint violations on the employees table.
func mapEmployeeWriteError(err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return employee.ErrEmployeeNotFound
	case isUniqueViolation(err, employeePKConstraint):
		return employee.ErrEmployeeExists
	case isUniqueViolation(err, employeeIdentificationConstraint):
		return employee.ErrIdentificationExists
	case isUniqueViolation(err, employeeBadgeConstraint):
		return employee.ErrBadgeAlreadyAssigned
	case isForeignKeyViolation(err):
		return employee.ErrScheduleNotFound
	}
	return nil
}

// Create implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) Create(ctx context.Context, newEmployee employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		INSERT INTO employees (
			employee_type, employee_id, full_name, identification_number, email, phone, role,
			badge_uid, badge_assigned_by, badge_assigned_at, schedule_id, active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + employeeColumns

	created, err := scanEmployee(q.QueryRow(ctx, query,
		string(newEmployee.Type), newEmployee.ID, newEmployee.FullName, newEmployee.IdentificationNumber,
		newEmployee.Email, newEmployee.Phone, newEmployee.Role,
		newEmployee.BadgeUID, newEmployee.BadgeAssignedBy, newEmployee.BadgeAssignedAt,
		newEmployee.ScheduleID, newEmployee.Active,
	))
	if err != nil {
		if mapped := mapEmployeeWriteError(err); mapped != nil {
			return employee.Employee{}, mapped
		}
		return employee.Employee{}, fmt.Errorf("failed to create employee: %w", err)
	}
	return created, nil
}

// GetByRef implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByRef(ctx context.Context, ref employee.Ref) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE employee_type = $1 AND employee_id = $2`

	found, err := scanEmployee(q.QueryRow(ctx, query, string(ref.Type), ref.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee %s: %w", ref.Key(), err)
	}
	return found, nil
}

// GetByBadgeUID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByBadgeUID(ctx context.Context, badgeUID string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE badge_uid = $1`

	found, err := scanEmployee(q.QueryRow(ctx, query, badgeUID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee by badge: %w", err)
	}
	return found, nil
}

// List implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) List(ctx context.Context, filter employee.EmployeeFilter) ([]employee.Employee, int64, error) {
	q := GetQuerier(ctx, e.db)

	// Build WHERE conditions
	conditions := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1

	if filter.Type != nil && *filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("employee_type = $%d", argIdx))
		args = append(args, *filter.Type)
		argIdx++
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", argIdx))
		args = append(args, *filter.Active)
		argIdx++
	}
	if filter.Search != nil && *filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR identification_number ILIKE $%d OR employee_id ILIKE $%d)", argIdx, argIdx, argIdx))
		args = append(args, "%"+*filter.Search+"%")
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	// Count query
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM employees WHERE %s", whereClause)
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count employees: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf(`
		SELECT %s
		FROM employees
		WHERE %s
		ORDER BY full_name ASC, employee_type ASC, employee_id ASC
		LIMIT $%d OFFSET $%d
	`, employeeColumns, whereClause, argIdx, argIdx+1)

	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, err
	}

	return employees, total, nil
}

// Update implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) Update(ctx context.Context, ref employee.Ref, req employee.UpdateEmployeeRequest) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		UPDATE employees
		SET full_name = COALESCE($3, full_name),
			identification_number = COALESCE($4, identification_number),
			email = COALESCE($5, email),
			phone = COALESCE($6, phone),
			role = COALESCE($7, role),
			schedule_id = CASE WHEN $8 THEN NULL ELSE COALESCE($9::uuid, schedule_id) END,
			updated_at = NOW()
		WHERE employee_type = $1 AND employee_id = $2
		RETURNING ` + employeeColumns

	updated, err := scanEmployee(q.QueryRow(ctx, query,
		string(ref.Type), ref.ID,
		req.FullName, req.IdentificationNumber, req.Email, req.Phone, req.Role,
		req.ClearSchedule, req.ScheduleID,
	))
	if err != nil {
		if mapped := mapEmployeeWriteError(err); mapped != nil {
			return employee.Employee{}, mapped
		}
		return employee.Employee{}, fmt.Errorf("failed to update employee %s: %w", ref.Key(), err)
	}
	return updated, nil
}

// Deactivate implements employee.EmployeeRepository. The badge is released so
// it can be handed to someone else; scans of it resolve to no employee.
func (e *employeeRepositoryImpl) Deactivate(ctx context.Context, ref employee.Ref) error {
	q := GetQuerier(ctx, e.db)

	query := `
		UPDATE employees
		SET active = FALSE, badge_uid = NULL, badge_assigned_by = NULL, badge_assigned_at = NULL, updated_at = NOW()
		WHERE employee_type = $1 AND employee_id = $2
	`

	tag, err := q.Exec(ctx, query, string(ref.Type), ref.ID)
	if err != nil {
		return fmt.Errorf("failed to deactivate employee %s: %w", ref.Key(), err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// AssignBadge implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) AssignBadge(ctx context.Context, ref employee.Ref, badgeUID string, assignedBy string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		UPDATE employees
		SET badge_uid = $3, badge_assigned_by = $4, badge_assigned_at = NOW(), updated_at = NOW()
		WHERE employee_type = $1 AND employee_id = $2
		RETURNING ` + employeeColumns

	updated, err := scanEmployee(q.QueryRow(ctx, query, string(ref.Type), ref.ID, badgeUID, assignedBy))
	if err != nil {
		if mapped := mapEmployeeWriteError(err); mapped != nil {
			return employee.Employee{}, mapped
		}
		return employee.Employee{}, fmt.Errorf("failed to assign badge to %s: %w", ref.Key(), err)
	}
	return updated, nil
}

// UnassignBadge implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) UnassignBadge(ctx context.Context, ref employee.Ref) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		UPDATE employees
		SET badge_uid = NULL, badge_assigned_by = NULL, badge_assigned_at = NULL, updated_at = NOW()
		WHERE employee_type = $1 AND employee_id = $2
		RETURNING ` + employeeColumns

	updated, err := scanEmployee(q.QueryRow(ctx, query, string(ref.Type), ref.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to unassign badge from %s: %w", ref.Key(), err)
	}
	return updated, nil
}

// CountBySchedule implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) CountBySchedule(ctx context.Context, scheduleID string) (int64, error) {
	q := GetQuerier(ctx, e.db)

	var count int64
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM employees WHERE schedule_id = $1`, scheduleID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count employees for schedule %s: %w", scheduleID, err)
	}
	return count, nil
}
