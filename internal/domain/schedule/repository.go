package schedule

import (
	"context"
)

type ScheduleRepository interface {
	Create(ctx context.Context, schedule Schedule) (Schedule, error)
	GetByID(ctx context.Context, id string) (Schedule, error)
	List(ctx context.Context) ([]Schedule, error)
	Update(ctx context.Context, schedule Schedule) (Schedule, error)
	Delete(ctx context.Context, id string) error
}

// Catalog is the read-only lookup the attendance engine consumes.
type Catalog interface {
	GetByID(ctx context.Context, id string) (Schedule, error)
}
