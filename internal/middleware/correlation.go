package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type correlationKey struct{}

const headerName = "X-Correlation-ID"

// CorrelationID tags every request with a correlation ID: the caller's
// X-Correlation-ID when present, a fresh UUID otherwise. The ID is echoed
// in the response header and carried in the request context so the logger
// and the query log can attribute work to the request.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerName)
		if id == "" {
			id = uuid.New().String()
		}

		ctx := WithCorrelationID(r.Context(), id)
		w.Header().Set(headerName, id)

		start := time.Now()
		slog.InfoContext(ctx, "request received", "method", r.Method, "path", r.URL.Path)

		next.ServeHTTP(w, r.WithContext(ctx))

		slog.InfoContext(ctx, "request completed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// GetCorrelationID returns the request's correlation ID, or "unknown" for
// contexts that never passed through the middleware (ingestion runs, tests).
func GetCorrelationID(ctx context.Context) string {
	if id, ok := CorrelationIDFrom(ctx); ok {
		return id
	}
	return "unknown"
}

// CorrelationIDFrom reports whether ctx carries a correlation ID.
func CorrelationIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(correlationKey{}).(string)
	return id, ok && id != ""
}
