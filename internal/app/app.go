package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"docsmith/apps/backend/features/chat"
	"docsmith/apps/backend/internal/adapter/gemini"
	"docsmith/apps/backend/internal/config"
	"docsmith/apps/backend/internal/middleware"
	"docsmith/apps/backend/internal/retrieval"
)

type App struct {
	Handler http.Handler
	port    int
}

func New(cfg *config.Config, deps *Dependencies) (*App, error) {
	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}

	callTimeout := time.Duration(cfg.CallTimeoutSeconds) * time.Second

	retrievalService := retrieval.NewService(deps.Embedder, deps.Store, queryLogger)

	// Feature: Chat
	rewriter := chat.NewRewriter(&timeoutTextGenerator{gen: deps.Generator, timeout: callTimeout})
	composer := chat.NewComposer(&generatorAdapter{gen: deps.Generator})
	chatService := chat.NewService(
		rewriter,
		&timeoutRetriever{retriever: retrievalService, timeout: callTimeout},
		composer,
		cfg.RetrievalK,
	)
	chatHandler := chat.NewHandler(chatService)

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /chat", middleware.CorrelationID(enableCORS(chatHandler.Chat)))
	mux.Handle("OPTIONS /chat", middleware.CorrelationID(enableCORS(func(http.ResponseWriter, *http.Request) {})))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{Handler: mux, port: cfg.ServerPort}, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// generatorAdapter bridges chat conversation turns onto the generation client.
type generatorAdapter struct {
	gen Generator
}

func (a *generatorAdapter) StreamChat(ctx context.Context, system string, history []chat.Message, question string) (chat.TokenStream, error) {
	turns := make([]gemini.Turn, len(history))
	for i, m := range history {
		turns[i] = gemini.Turn{Role: m.Role, Content: m.Content}
	}
	return a.gen.StreamChat(ctx, system, turns, question)
}

// timeoutTextGenerator bounds the rewrite call so a hung model endpoint
// cannot stall the request forever.
type timeoutTextGenerator struct {
	gen     Generator
	timeout time.Duration
}

func (t *timeoutTextGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.gen.GenerateText(ctx, prompt)
}

type timeoutRetriever struct {
	retriever chat.Retriever
	timeout   time.Duration
}

func (t *timeoutRetriever) Retrieve(ctx context.Context, query string, k int) ([]retrieval.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.retriever.Retrieve(ctx, query, k)
}
