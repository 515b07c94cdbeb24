package logger

import (
	"context"
	"log/slog"

	"docsmith/apps/backend/internal/middleware"
)

// ContextHandler decorates another slog handler, stamping every record that
// carries a request context with the request's correlation ID.
type ContextHandler struct {
	slog.Handler
}

func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: h}
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := middleware.CorrelationIDFrom(ctx); ok {
		r.AddAttrs(slog.String("correlation_id", id))
	}
	return h.Handler.Handle(ctx, r)
}
