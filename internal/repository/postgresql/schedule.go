package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/timeofday"
)

const scheduleNameConstraint = "schedules_name_key"

const scheduleColumns = `id, name, start_1, end_1, start_2, end_2, created_at, updated_at`

type scheduleRepositoryImpl struct {
	db *database.DB
}

func NewScheduleRepository(db *database.DB) schedule.ScheduleRepository {
	return &scheduleRepositoryImpl{db: db}
}

func scanSchedule(row pgx.Row) (schedule.Schedule, error) {
	var (
		s                          schedule.Schedule
		start1, end1, start2, end2 pgtype.Time
	)
	if err := row.Scan(&s.ID, &s.Name, &start1, &end1, &start2, &end2, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return schedule.Schedule{}, err
	}
	if t := timeofday.FromPG(start1); t != nil {
		s.Start1 = *t
	}
	if t := timeofday.FromPG(end1); t != nil {
		s.End1 = *t
	}
	s.Start2 = timeofday.FromPG(start2)
	s.End2 = timeofday.FromPG(end2)
	return s, nil
}

// Create implements schedule.ScheduleRepository.
func (w *scheduleRepositoryImpl) Create(ctx context.Context, newSchedule schedule.Schedule) (schedule.Schedule, error) {
	q := GetQuerier(ctx, w.db)

	query := `
		INSERT INTO schedules (id, name, start_1, end_1, start_2, end_2)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + scheduleColumns

	created, err := scanSchedule(q.QueryRow(ctx, query,
		newSchedule.ID, newSchedule.Name,
		newSchedule.Start1.PG(), newSchedule.End1.PG(),
		timeofday.PGPtr(newSchedule.Start2), timeofday.PGPtr(newSchedule.End2),
	))
	if err != nil {
		if isUniqueViolation(err, scheduleNameConstraint) {
			return schedule.Schedule{}, schedule.ErrScheduleNameExists
		}
		return schedule.Schedule{}, fmt.Errorf("failed to create schedule: %w", err)
	}
	return created, nil
}

// GetByID implements schedule.ScheduleRepository.
func (w *scheduleRepositoryImpl) GetByID(ctx context.Context, id string) (schedule.Schedule, error) {
	q := GetQuerier(ctx, w.db)

	found, err := scanSchedule(q.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.Schedule{}, schedule.ErrScheduleNotFound
		}
		return schedule.Schedule{}, fmt.Errorf("failed to get schedule %s: %w", id, err)
	}
	return found, nil
}

// List implements schedule.ScheduleRepository.
func (w *scheduleRepositoryImpl) List(ctx context.Context) ([]schedule.Schedule, error) {
	q := GetQuerier(ctx, w.db)

	rows, err := q.Query(ctx, `SELECT `+scheduleColumns+` FROM schedules ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []schedule.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return schedules, nil
}

// Update implements schedule.ScheduleRepository.
func (w *scheduleRepositoryImpl) Update(ctx context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	q := GetQuerier(ctx, w.db)

	query := `
		UPDATE schedules
		SET name = $2, start_1 = $3, end_1 = $4, start_2 = $5, end_2 = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + scheduleColumns

	updated, err := scanSchedule(q.QueryRow(ctx, query,
		s.ID, s.Name, s.Start1.PG(), s.End1.PG(), timeofday.PGPtr(s.Start2), timeofday.PGPtr(s.End2),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.Schedule{}, schedule.ErrScheduleNotFound
		}
		if isUniqueViolation(err, scheduleNameConstraint) {
			return schedule.Schedule{}, schedule.ErrScheduleNameExists
		}
		return schedule.Schedule{}, fmt.Errorf("failed to update schedule %s: %w", s.ID, err)
	}
	return updated, nil
}

// Delete implements schedule.ScheduleRepository.
func (w *scheduleRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, w.db)

	tag, err := q.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return schedule.ErrScheduleInUse
		}
		return fmt.Errorf("failed to delete schedule %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return schedule.ErrScheduleNotFound
	}
	return nil
}
