package accesslog

import "context"

type AccessLogRepository interface {
	Create(ctx context.Context, entry Entry) (Entry, error)
	List(ctx context.Context, filter AccessLogFilter) ([]Entry, error)
}
