package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/timeofday"
)

const openSessionConstraint = "attendance_sessions_one_open_per_day"

const sessionColumns = `
	s.id, s.employee_type, s.employee_id, s.date, s.entry_time, s.exit_time, s.duration_seconds,
	s.expected_start, s.deviation_minutes, s.status, s.entry_source, s.exit_source, s.auto_closed,
	s.created_at, s.updated_at`

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.SessionRepository {
	return &attendanceRepository{db: db}
}

// pgDate keeps the calendar date of t regardless of its location.
func pgDate(t time.Time) pgtype.Date {
	y, m, d := t.Date()
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

func scanSession(row pgx.Row, withName bool) (attendance.Session, error) {
	var (
		s                     attendance.Session
		employeeType          string
		date                  pgtype.Date
		entry, exit, expected pgtype.Time
		status, exitSource    *string
		entrySource           string
	)

	dest := []any{
		&s.ID, &employeeType, &s.EmployeeID, &date, &entry, &exit, &s.DurationSeconds,
		&expected, &s.DeviationMinutes, &status, &entrySource, &exitSource, &s.AutoClosed,
		&s.CreatedAt, &s.UpdatedAt,
	}
	if withName {
		dest = append(dest, &s.EmployeeName)
	}
	if err := row.Scan(dest...); err != nil {
		return attendance.Session{}, err
	}

	s.EmployeeType = employee.Type(employeeType)
	s.Date = date.Time
	if e := timeofday.FromPG(entry); e != nil {
		s.EntryTime = *e
	}
	s.ExitTime = timeofday.FromPG(exit)
	s.ExpectedStart = timeofday.FromPG(expected)
	s.EntrySource = attendance.Source(entrySource)
	if status != nil {
		st := attendance.Status(*status)
		s.Status = &st
	}
	if exitSource != nil {
		src := attendance.Source(*exitSource)
		s.ExitSource = &src
	}
	return s, nil
}

func collectSessions(rows pgx.Rows, withName bool) ([]attendance.Session, error) {
	defer rows.Close()

	var sessions []attendance.Session
	for rows.Next() {
		s, err := scanSession(rows, withName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Create implements attendance.SessionRepository.
func (a *attendanceRepository) Create(ctx context.Context, session attendance.Session) (attendance.Session, error) {
	q := GetQuerier(ctx, a.db)

	var status *string
	if session.Status != nil {
		st := string(*session.Status)
		status = &st
	}

	query := `
		INSERT INTO attendance_sessions AS s (
			id, employee_type, employee_id, date, entry_time,
			expected_start, deviation_minutes, status, entry_source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + sessionColumns

	created, err := scanSession(q.QueryRow(ctx, query,
		session.ID, string(session.EmployeeType), session.EmployeeID, pgDate(session.Date), session.EntryTime.PG(),
		timeofday.PGPtr(session.ExpectedStart), session.DeviationMinutes, status, string(session.EntrySource),
	), false)
	if err != nil {
		if isUniqueViolation(err, openSessionConstraint) {
			return attendance.Session{}, attendance.ErrOpenSessionConflict
		}
		if isForeignKeyViolation(err) {
			return attendance.Session{}, fmt.Errorf("failed to create attendance session: %w", employee.ErrEmployeeNotFound)
		}
		return attendance.Session{}, fmt.Errorf("failed to create attendance session: %w", err)
	}

	return created, nil
}

// Close implements attendance.SessionRepository.
func (a *attendanceRepository) Close(ctx context.Context, id string, closure attendance.Closure) (attendance.Session, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendance_sessions AS s
		SET exit_time = $2, duration_seconds = $3, exit_source = $4, auto_closed = $5, updated_at = NOW()
		WHERE s.id = $1 AND s.exit_time IS NULL
		RETURNING ` + sessionColumns

	closed, err := scanSession(q.QueryRow(ctx, query,
		id, closure.ExitTime.PG(), int64(closure.Duration/time.Second), string(closure.Source), closure.AutoClosed,
	), false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Session{}, attendance.ErrOpenSessionConflict
		}
		return attendance.Session{}, fmt.Errorf("failed to close attendance session %s: %w", id, err)
	}

	return closed, nil
}

// FindOpenSessions implements attendance.SessionRepository.
func (a *attendanceRepository) FindOpenSessions(ctx context.Context, ref employee.Ref) ([]attendance.Session, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + sessionColumns + `
		FROM attendance_sessions s
		WHERE s.employee_type = $1 AND s.employee_id = $2 AND s.exit_time IS NULL
		ORDER BY s.created_at DESC
	`

	rows, err := q.Query(ctx, query, string(ref.Type), ref.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find open sessions: %w", err)
	}
	return collectSessions(rows, false)
}

// ListStaleOpen implements attendance.SessionRepository.
func (a *attendanceRepository) ListStaleOpen(ctx context.Context, cutoff time.Time, limit int) ([]attendance.Session, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + sessionColumns + `
		FROM attendance_sessions s
		WHERE s.exit_time IS NULL
		  AND (s.date, s.entry_time) < ($1::date, $2::time)
		ORDER BY s.date ASC, s.entry_time ASC
		LIMIT $3
	`

	rows, err := q.Query(ctx, query, pgDate(cutoff), timeofday.FromTime(cutoff).PG(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale open sessions: %w", err)
	}
	return collectSessions(rows, false)
}

// GetByID implements attendance.SessionRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Session, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + sessionColumns + `, e.full_name
		FROM attendance_sessions s
		LEFT JOIN employees e ON e.employee_type = s.employee_type AND e.employee_id = s.employee_id
		WHERE s.id = $1
	`

	session, err := scanSession(q.QueryRow(ctx, query, id), true)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Session{}, attendance.ErrSessionNotFound
		}
		return attendance.Session{}, fmt.Errorf("failed to get attendance session %s: %w", id, err)
	}

	return session, nil
}

// List implements attendance.SessionRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.SessionFilter) ([]attendance.Session, int64, error) {
	q := GetQuerier(ctx, a.db)

	// Build WHERE conditions
	conditions := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeType != nil && *filter.EmployeeType != "" {
		conditions = append(conditions, fmt.Sprintf("s.employee_type = $%d", argIdx))
		args = append(args, *filter.EmployeeType)
		argIdx++
	}
	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		conditions = append(conditions, fmt.Sprintf("s.employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Date != nil && *filter.Date != "" {
		conditions = append(conditions, fmt.Sprintf("s.date = $%d::date", argIdx))
		args = append(args, *filter.Date)
		argIdx++
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		conditions = append(conditions, fmt.Sprintf("s.date >= $%d::date", argIdx))
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		conditions = append(conditions, fmt.Sprintf("s.date <= $%d::date", argIdx))
		args = append(args, *filter.EndDate)
		argIdx++
	}
	if filter.Status != nil && *filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.OpenOnly {
		conditions = append(conditions, "s.exit_time IS NULL")
	}

	whereClause := strings.Join(conditions, " AND ")

	// Count query
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM attendance_sessions s WHERE %s", whereClause)
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance sessions: %w", err)
	}

	sortOrder := "DESC"
	if strings.ToUpper(filter.SortOrder) == "ASC" {
		sortOrder = "ASC"
	}

	var orderBy string
	switch filter.SortBy {
	case "entry_time":
		orderBy = fmt.Sprintf("s.date %[1]s, s.entry_time %[1]s", sortOrder)
	case "exit_time":
		orderBy = fmt.Sprintf("s.exit_time %s NULLS LAST", sortOrder)
	case "employee_name":
		orderBy = fmt.Sprintf("e.full_name %s", sortOrder)
	case "status":
		orderBy = fmt.Sprintf("s.status %s", sortOrder)
	default:
		orderBy = fmt.Sprintf("s.date %s", sortOrder)
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf(`
		SELECT %s, e.full_name
		FROM attendance_sessions s
		LEFT JOIN employees e ON e.employee_type = s.employee_type AND e.employee_id = s.employee_id
		WHERE %s
		ORDER BY %s, s.created_at DESC
		LIMIT $%d OFFSET $%d
	`, sessionColumns, whereClause, orderBy, argIdx, argIdx+1)

	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendance sessions: %w", err)
	}
	sessions, err := collectSessions(rows, true)
	if err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

// Delete implements attendance.SessionRepository.
func (a *attendanceRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, a.db)

	tag, err := q.Exec(ctx, `DELETE FROM attendance_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete attendance session %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrSessionNotFound
	}
	return nil
}
