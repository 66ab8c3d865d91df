package schedule

import (
	"context"
)

type ScheduleService interface {
	Create(ctx context.Context, req CreateScheduleRequest) (ScheduleResponse, error)
	Get(ctx context.Context, id string) (ScheduleResponse, error)
	List(ctx context.Context) ([]ScheduleResponse, error)
	Update(ctx context.Context, req UpdateScheduleRequest) (ScheduleResponse, error)

	// Delete removes a schedule that no employee references
	Delete(ctx context.Context, id string) error
}
