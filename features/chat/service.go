package chat

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"docsmith/apps/backend/internal/middleware"
	"docsmith/apps/backend/internal/retrieval"
	"docsmith/apps/backend/internal/stream"
)

type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]retrieval.Result, error)
}

// Service orchestrates one chat turn: rewrite the question, retrieve
// grounding context, then start the streamed answer. The stages run
// strictly in that order because each consumes the previous stage's output.
type Service struct {
	rewriter  *Rewriter
	retriever Retriever
	composer  *Composer
	k         int
}

func NewService(rewriter *Rewriter, retriever Retriever, composer *Composer, k int) *Service {
	return &Service{
		rewriter:  rewriter,
		retriever: retriever,
		composer:  composer,
		k:         k,
	}
}

// Answer runs the pre-stream stages and returns the in-flight answer
// stream. Returning before any token is forwarded lets the handler pick
// the response status based on whether the pipeline got this far.
func (s *Service) Answer(ctx context.Context, conv Conversation) (TokenStream, error) {
	if err := conv.Validate(); err != nil {
		return nil, err
	}
	history := conv.History()
	question := conv.Question()

	query, err := s.rewriter.Rewrite(ctx, history, question)
	if err != nil {
		// Degrade to the raw question rather than failing the request.
		// The degraded turn is visible in logs and query-log entries.
		slog.WarnContext(ctx, "query rewrite failed, using raw question",
			"error", err,
			"correlationId", middleware.GetCorrelationID(ctx),
		)
		query = question
	}

	results, err := s.retriever.Retrieve(ctx, query, s.k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}

	return s.composer.Compose(ctx, history, question, results)
}

// Forward pumps tokens into the relay until the stream completes or fails.
// Tokens already sent stay sent, a mid-stream generation failure never
// retracts them. A relay send failure means the client is gone; the stream
// is abandoned and the context cancellation releases the generation call.
func (s *Service) Forward(ctx context.Context, tokens TokenStream, relay *stream.Relay) error {
	for {
		token, err := tokens.Next()
		if err == io.EOF {
			relay.Complete()
			return nil
		}
		if err != nil {
			genErr := fmt.Errorf("%w: %v", ErrGeneration, err)
			relay.Fail(genErr)
			return genErr
		}
		if token == "" {
			continue
		}
		if err := relay.Send(token); err != nil {
			slog.DebugContext(ctx, "relay send failed, abandoning stream", "error", err)
			return err
		}
	}
}
