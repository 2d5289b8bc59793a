package middleware

import (
	"net/http"

	"github.com/daniel/expert-match/internal/observability"
)

// CorrelationHeader carries the request correlation ID.
const CorrelationHeader = "X-Correlation-ID"

// CorrelationMiddleware attaches a correlation ID to the request
// context and echoes it on the response. An incoming header value is
// reused so callers can trace across services.
func CorrelationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationHeader)
		if id == "" {
			id = observability.NewCorrelationID()
		}
		w.Header().Set(CorrelationHeader, id)
		ctx := observability.WithCorrelationID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
