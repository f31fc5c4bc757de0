package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/viapip/pothos-todo-sub004/internal/seed"
)

func main() {
	cfg, err := seed.LoadConfigFromEnv(os.LookupEnv)
	if err != nil {
		slog.Error("failed to load seed config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	service, err := seed.NewService(cfg, logger, nil)
	if err != nil {
		logger.Error("failed to initialize seeder", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(
		"seeder started",
		slog.String("api_url", cfg.APIBaseURL),
		slog.String("user_id", cfg.UserID),
		slog.Int("batch_size", cfg.BatchSize),
		slog.Int("batches", cfg.Batches),
		slog.Duration("interval", cfg.Interval),
	)

	err = service.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("seeder stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("seeder finished")
}
