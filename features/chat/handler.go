package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"docsmith/apps/backend/internal/middleware"
	"docsmith/apps/backend/internal/stream"
)

// genericErrorMessage is the only failure detail the client ever sees.
// Internal causes stay in the logs.
const genericErrorMessage = "Failed to process request."

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

type chatRequest struct {
	Messages []Message `json:"messages"`
}

// Chat serves POST /chat. The response status is committed only after the
// pre-stream pipeline stages succeed; from then on the answer is streamed
// as plain text fragments.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.WarnContext(ctx, "malformed chat request", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	tokens, err := h.service.Answer(ctx, Conversation(req.Messages))
	if err != nil {
		if errors.Is(err, ErrBadRequest) {
			slog.WarnContext(ctx, "rejected chat request", "error", err, "correlationId", correlationID)
			h.writeError(ctx, w, http.StatusBadRequest, "Invalid request body.")
			return
		}
		slog.ErrorContext(ctx, "chat pipeline failed", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, http.StatusInternalServerError, genericErrorMessage)
		return
	}

	relay, err := stream.NewRelay(w)
	if err != nil {
		slog.ErrorContext(ctx, "response writer cannot stream", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, http.StatusInternalServerError, genericErrorMessage)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := h.service.Forward(ctx, tokens, relay); err != nil {
		// The status is already on the wire; all that remains is logging.
		slog.ErrorContext(ctx, "chat stream terminated", "error", err, "correlationId", correlationID)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		slog.ErrorContext(ctx, "failed to encode error response", "error", err)
	}
}
