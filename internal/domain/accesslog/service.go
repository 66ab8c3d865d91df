package accesslog

import "context"

type AccessLogService interface {
	// Record appends a raw scan. Failures are logged by the caller and never
	// affect the attendance outcome.
	Record(ctx context.Context, entry Entry) error
	List(ctx context.Context, filter AccessLogFilter) ([]AccessLogResponse, error)
}
