package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"docsmith/apps/backend/internal/app"
	"docsmith/apps/backend/internal/config"
	"docsmith/apps/backend/internal/logger"
)

func main() {
	handler := logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(slog.New(handler))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}

	if cfg.EnableIngestion {
		report, err := app.RunIngestion(ctx, cfg, deps)
		if err != nil {
			slog.Error("ingestion failed", "error", err)
			os.Exit(1)
		}
		slog.Info("ingestion finished",
			"chunks_indexed", report.ChunksIndexed,
			"warnings", len(report.Warnings),
		)
		for _, w := range report.Warnings {
			slog.Warn("ingestion warning", "detail", w)
		}
		if !cfg.EnableAPI {
			return
		}
	}

	if !cfg.EnableAPI {
		slog.Info("api disabled, nothing to do")
		return
	}

	a, err := app.New(cfg, deps)
	if err != nil {
		slog.Error("failed to build application", "error", err)
		os.Exit(1)
	}

	if err := a.Run(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
