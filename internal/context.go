package internal

import (
	"context"
	"time"
)

// DefaultQueryTimeout bounds a repository call when no timeout is configured.
const DefaultQueryTimeout = 5 * time.Second

// WithTimeout derives a bounded context for one repository call.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultQueryTimeout
	}
	return context.WithTimeout(ctx, d)
}
