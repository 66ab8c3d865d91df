package auth

import "context"

type ManagerRepository interface {
	Create(ctx context.Context, manager Manager) (Manager, error)
	// CreateFirst creates the manager only while the table is empty and
	// returns ErrRegistrationClosed otherwise.
	CreateFirst(ctx context.Context, manager Manager) (Manager, error)
	GetByIdentification(ctx context.Context, identification string) (Manager, error)
	GetByID(ctx context.Context, id string) (Manager, error)
}
