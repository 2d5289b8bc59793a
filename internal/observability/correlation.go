// Package observability provides request correlation and formatted
// output utilities for verbose CLI mode.
package observability

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type contextKey string

// correlationKey is the context key for the request correlation ID.
const correlationKey contextKey = "correlationID"

// NewCorrelationID returns a fresh correlation ID.
func NewCorrelationID() string {
	return uuid.NewString()
}

// WithCorrelationID stores a correlation ID in the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey, id)
}

// CorrelationID returns the correlation ID from the context, or ""
// when none was set.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey).(string)
	return id
}

// Logger returns a logger carrying the context's correlation ID so
// every line of a request logs with it.
func Logger(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	if id := CorrelationID(ctx); id != "" {
		return base.With("correlation_id", id)
	}
	return base
}
