package postgresql

import (
	"context"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/accesslog"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/database"
)

type accessLogRepositoryImpl struct {
	db *database.DB
}

func NewAccessLogRepository(db *database.DB) accesslog.AccessLogRepository {
	return &accessLogRepositoryImpl{db: db}
}

// Create implements accesslog.AccessLogRepository.
func (r *accessLogRepositoryImpl) Create(ctx context.Context, entry accesslog.Entry) (accesslog.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO access_logs (
			id, badge_uid, received_at, registered, employee_type, employee_id,
			session_id, event_type, outcome
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := q.Exec(ctx, query,
		entry.ID, entry.BadgeUID, entry.ReceivedAt, entry.Registered, entry.EmployeeType, entry.EmployeeID,
		entry.SessionID, entry.EventType, entry.Outcome,
	)
	if err != nil {
		return accesslog.Entry{}, fmt.Errorf("failed to insert access log: %w", err)
	}
	return entry, nil
}

// List implements accesslog.AccessLogRepository.
func (r *accessLogRepositoryImpl) List(ctx context.Context, filter accesslog.AccessLogFilter) ([]accesslog.Entry, error) {
	q := GetQuerier(ctx, r.db)

	conditions := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1

	if filter.BadgeUID != nil && *filter.BadgeUID != "" {
		conditions = append(conditions, fmt.Sprintf("badge_uid = $%d", argIdx))
		args = append(args, *filter.BadgeUID)
		argIdx++
	}
	if filter.Registered != nil {
		conditions = append(conditions, fmt.Sprintf("registered = $%d", argIdx))
		args = append(args, *filter.Registered)
		argIdx++
	}

	query := fmt.Sprintf(`
		SELECT id, badge_uid, received_at, registered, employee_type, employee_id,
			session_id, event_type, outcome
		FROM access_logs
		WHERE %s
		ORDER BY received_at DESC
		LIMIT $%d
	`, strings.Join(conditions, " AND "), argIdx)
	args = append(args, filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list access logs: %w", err)
	}
	defer rows.Close()

	var entries []accesslog.Entry
	for rows.Next() {
		var e accesslog.Entry
		if err := rows.Scan(
			&e.ID, &e.BadgeUID, &e.ReceivedAt, &e.Registered, &e.EmployeeType, &e.EmployeeID,
			&e.SessionID, &e.EventType, &e.Outcome,
		); err != nil {
			return nil, fmt.Errorf("failed to scan access log: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
