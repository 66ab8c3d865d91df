package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/database"
)

const managerIdentificationConstraint = "managers_identification_key"

type managerRepositoryImpl struct {
	db *database.DB
}

func NewManagerRepository(db *database.DB) auth.ManagerRepository {
	return &managerRepositoryImpl{db: db}
}

// Create implements auth.ManagerRepository.
func (r *managerRepositoryImpl) Create(ctx context.Context, newManager auth.Manager) (auth.Manager, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO managers (id, identification, full_name, email, phone, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, identification, full_name, email, phone, password_hash, created_at, updated_at
	`

	var created auth.Manager
	err := q.QueryRow(ctx, query,
		newManager.ID,
		newManager.Identification,
		newManager.FullName,
		newManager.Email,
		newManager.Phone,
		newManager.PasswordHash,
	).Scan(
		&created.ID,
		&created.Identification,
		&created.FullName,
		&created.Email,
		&created.Phone,
		&created.PasswordHash,
		&created.CreatedAt,
		&created.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, managerIdentificationConstraint) {
			return auth.Manager{}, auth.ErrIdentificationExists
		}
		return auth.Manager{}, fmt.Errorf("failed to create manager: %w", err)
	}

	return created, nil
}

// managerBootstrapLock serializes first-manager registrations.
const managerBootstrapLock = 7_210_001

// CreateFirst implements auth.ManagerRepository.
func (r *managerRepositoryImpl) CreateFirst(ctx context.Context, newManager auth.Manager) (auth.Manager, error) {
	var created auth.Manager
	err := WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		if _, err := q.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", managerBootstrapLock); err != nil {
			return fmt.Errorf("failed to lock manager bootstrap: %w", err)
		}

		var exists bool
		if err := q.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM managers)").Scan(&exists); err != nil {
			return fmt.Errorf("failed to check managers: %w", err)
		}
		if exists {
			return auth.ErrRegistrationClosed
		}

		var err error
		created, err = r.Create(ctx, newManager)
		return err
	})
	if err != nil {
		return auth.Manager{}, err
	}
	return created, nil
}

func (r *managerRepositoryImpl) getBy(ctx context.Context, column, value string) (auth.Manager, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT id, identification, full_name, email, phone, password_hash, created_at, updated_at
		FROM managers
		WHERE %s = $1
	`, column)

	var found auth.Manager
	err := q.QueryRow(ctx, query, value).Scan(
		&found.ID,
		&found.Identification,
		&found.FullName,
		&found.Email,
		&found.Phone,
		&found.PasswordHash,
		&found.CreatedAt,
		&found.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.Manager{}, auth.ErrManagerNotFound
		}
		return auth.Manager{}, fmt.Errorf("failed to get manager by %s: %w", column, err)
	}

	return found, nil
}

// GetByIdentification implements auth.ManagerRepository.
func (r *managerRepositoryImpl) GetByIdentification(ctx context.Context, identification string) (auth.Manager, error) {
	return r.getBy(ctx, "identification", identification)
}

// GetByID implements auth.ManagerRepository.
func (r *managerRepositoryImpl) GetByID(ctx context.Context, id string) (auth.Manager, error) {
	return r.getBy(ctx, "id", id)
}
