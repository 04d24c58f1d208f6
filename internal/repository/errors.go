package repository

import (
	"context"
	"errors"
	"time"
)

// Common repository errors.
var (
	ErrNotFound = errors.New("record not found")
)

// Default query timeouts.
const (
	// DefaultQueryTimeout is the default timeout for simple queries.
	DefaultQueryTimeout = 5 * time.Second

	// DefaultWriteTimeout is the timeout for write operations (INSERT, UPDATE, DELETE).
	DefaultWriteTimeout = 10 * time.Second
)

// WithQueryTimeout returns a context with the default query timeout.
// If the context already has a deadline shorter than the timeout, the original context is returned.
func WithQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, DefaultQueryTimeout)
}

// WithWriteTimeout returns a context with the default write timeout.
func WithWriteTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, DefaultWriteTimeout)
}

// withTimeout adds a timeout to a context, respecting existing deadlines.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining < timeout {
			// Context deadline is sooner, use it
			return ctx, func() {}
		}
	}
	return context.WithTimeout(ctx, timeout)
}
