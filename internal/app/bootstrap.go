package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"docsmith/apps/backend/internal/adapter/gemini"
	wstore "docsmith/apps/backend/internal/adapter/weaviate"
	"docsmith/apps/backend/internal/config"
	"docsmith/apps/backend/internal/ingest"
	"docsmith/apps/backend/internal/retrieval"
	"docsmith/apps/backend/internal/text"
	"docsmith/apps/backend/internal/vector"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type VectorStore interface {
	Search(ctx context.Context, vector []float32, limit int) ([]retrieval.Result, error)
	Reset(ctx context.Context) error
	UpsertBatch(ctx context.Context, records []ingest.Record) error
}

type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	StreamChat(ctx context.Context, system string, history []gemini.Turn, question string) (*gemini.TokenStream, error)
}

// Dependencies holds the external-service clients the application runs on.
// Interfaces in the struct keep app wiring mockable in tests.
type Dependencies struct {
	Embedder  Embedder
	Store     VectorStore
	Generator Generator
}

// Bootstrap connects to Weaviate and Gemini and makes sure the vector
// collection exists. Weaviate may still be starting when we come up, so
// schema creation retries before giving up.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	wCfg := weaviate.Config{
		Host:   cfg.WeaviateHost,
		Scheme: cfg.WeaviateScheme,
	}
	wClient, err := weaviate.NewClient(wCfg)
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}

	wAdapter := vector.NewWeaviateClientAdapter(wClient)
	retryDelay := time.Duration(cfg.BootstrapRetryDelaySeconds) * time.Second
	for i := 0; i < cfg.BootstrapRetryAttempts; i++ {
		if err = vector.EnsureSchema(ctx, wAdapter, cfg.WeaviateClass); err == nil {
			break
		}
		slog.Warn("failed to ensure vector schema, retrying...", "attempt", i+1, "error", err)
		time.Sleep(retryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("ensure vector schema: %w", err)
	}
	slog.Info("vector schema ensured", "class", cfg.WeaviateClass)

	embedder, err := gemini.NewEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	generator, err := gemini.NewGenerator(ctx, cfg.GeminiAPIKey, cfg.ChatModel, cfg.RewriteModel)
	if err != nil {
		return nil, fmt.Errorf("create generator: %w", err)
	}

	return &Dependencies{
		Embedder:  embedder,
		Store:     wstore.NewStore(wClient, cfg.WeaviateClass),
		Generator: generator,
	}, nil
}

// RunIngestion rebuilds the vector collection from the configured docs tree.
// It is an offline maintenance operation and must not run while the API is
// serving chat traffic against the same collection.
func RunIngestion(ctx context.Context, cfg *config.Config, deps *Dependencies) (*ingest.Report, error) {
	splitter, err := text.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	svc := ingest.NewService(ingest.NewLoader(cfg.DocsRoot), splitter, deps.Embedder, deps.Store)
	return svc.Run(ctx)
}
