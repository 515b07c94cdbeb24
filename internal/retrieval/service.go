package retrieval

import (
	"context"
	"fmt"
	"time"

	"docsmith/apps/backend/internal/middleware"
)

// Result is one retrieved chunk: its text, the canonical URL of the page it
// came from and the store's similarity score (higher is closer).
type Result struct {
	Content string  `json:"content"`
	URL     string  `json:"url"`
	Score   float32 `json:"score"`
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorStore interface {
	Search(ctx context.Context, vector []float32, limit int) ([]Result, error)
}

// Service answers similarity queries against the indexed corpus. The query
// is embedded with the same model used at index time; a mismatched embedding
// space is a deployment configuration error, not something handled here.
type Service struct {
	embedder Embedder
	store    VectorStore
	logger   *QueryLogger
}

func NewService(e Embedder, s VectorStore, l *QueryLogger) *Service {
	return &Service{embedder: e, store: s, logger: l}
}

// Retrieve returns up to k chunks ranked by descending similarity.
func (s *Service) Retrieve(ctx context.Context, query string, k int) ([]Result, error) {
	start := time.Now()

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.store.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	if s.logger != nil {
		s.logger.Log(QueryLogEntry{
			Query:         query,
			K:             k,
			NumResults:    len(results),
			Duration:      time.Since(start),
			CorrelationID: middleware.GetCorrelationID(ctx),
		})
	}

	return results, nil
}
