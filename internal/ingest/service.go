package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"docsmith/apps/backend/internal/text"
)

// ErrEmbedding marks an embedding-service failure during indexing. The run
// aborts rather than indexing placeholder vectors.
var ErrEmbedding = errors.New("embedding service failure")

// Record is the persisted form of a chunk.
type Record struct {
	Content    string
	URL        string
	ChunkIndex int
	Vector     []float32
}

type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type VectorStore interface {
	Reset(ctx context.Context) error
	UpsertBatch(ctx context.Context, records []Record) error
}

// Report summarizes an ingestion run.
type Report struct {
	ChunksIndexed int
	Warnings      []string
}

// embedBatchSize bounds how many chunks go into one embedding request.
const embedBatchSize = 16

// Service rebuilds the vector collection from a docs tree. A run is
// full-replace: reset first, then repopulate. Runs must not overlap with
// each other or with live chat traffic, because the reset-then-upsert
// sequence is not transactional and a concurrent reader can observe an
// empty or partially populated collection.
type Service struct {
	loader   *Loader
	splitter *text.Splitter
	embedder Embedder
	store    VectorStore
}

func NewService(loader *Loader, splitter *text.Splitter, embedder Embedder, store VectorStore) *Service {
	return &Service{
		loader:   loader,
		splitter: splitter,
		embedder: embedder,
		store:    store,
	}
}

func (s *Service) Run(ctx context.Context) (*Report, error) {
	docs, warnings, err := s.loader.Load()
	if err != nil {
		return nil, err
	}

	// Reset must complete before the first upsert, otherwise stale and
	// fresh records coexist and corrupt retrieval ranking.
	if err := s.store.Reset(ctx); err != nil {
		return nil, fmt.Errorf("reset collection: %w", err)
	}

	report := &Report{Warnings: warnings}

	for _, doc := range docs {
		chunks := s.splitter.Split(doc.Content)
		if len(chunks) == 0 {
			continue
		}

		for start := 0; start < len(chunks); start += embedBatchSize {
			end := start + embedBatchSize
			if end > len(chunks) {
				end = len(chunks)
			}
			batch := chunks[start:end]

			vectors, err := s.embedder.EmbedBatch(ctx, batch)
			if err != nil {
				return report, fmt.Errorf("page %s: %w: %v", doc.URL, ErrEmbedding, err)
			}

			records := make([]Record, len(batch))
			for i, content := range batch {
				records[i] = Record{
					Content:    content,
					URL:        doc.URL,
					ChunkIndex: start + i,
					Vector:     vectors[i],
				}
			}

			if err := s.store.UpsertBatch(ctx, records); err != nil {
				return report, fmt.Errorf("page %s: upsert records: %w", doc.URL, err)
			}
			report.ChunksIndexed += len(records)
		}

		slog.InfoContext(ctx, "indexed page", "url", doc.URL, "chunks", len(chunks))
	}

	slog.InfoContext(ctx, "ingestion completed",
		"documents", len(docs),
		"chunks_indexed", report.ChunksIndexed,
		"warnings", len(report.Warnings),
	)
	return report, nil
}
