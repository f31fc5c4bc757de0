package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/viapip/pothos-todo-sub004/internal/api"
	"github.com/viapip/pothos-todo-sub004/internal/archive"
	"github.com/viapip/pothos-todo-sub004/internal/auth"
	"github.com/viapip/pothos-todo-sub004/internal/config"
	duckdbengine "github.com/viapip/pothos-todo-sub004/internal/engine/duckdb"
	"github.com/viapip/pothos-todo-sub004/internal/history"
	historypostgres "github.com/viapip/pothos-todo-sub004/internal/history/postgres"
	"github.com/viapip/pothos-todo-sub004/internal/observability"
	"github.com/viapip/pothos-todo-sub004/internal/pipeline"
	"github.com/viapip/pothos-todo-sub004/internal/similarity"
	s3store "github.com/viapip/pothos-todo-sub004/internal/storage/s3"
	"github.com/viapip/pothos-todo-sub004/internal/translate"
)

func main() {
	cfg, err := config.LoadFromEnv("todoql-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queryEngine, err := duckdbengine.NewEngine(context.Background())
	if err != nil {
		logger.Error("failed to initialize query engine", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = queryEngine.Close() }()

	readiness := []api.ReadinessCheck{queryEngine.HealthCheck}

	var historyStore history.Store = history.NewMemoryStore(cfg.Pipeline.HistoryLimit)
	if cfg.History.DSN != "" {
		historyDB, err := historypostgres.Open(context.Background(), historypostgres.DBConfig{
			DSN:             cfg.History.DSN,
			MaxOpenConns:    cfg.History.MaxOpenConns,
			MaxIdleConns:    cfg.History.MaxIdleConns,
			ConnMaxIdleTime: cfg.History.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.History.ConnMaxLifetime,
		})
		if err != nil {
			logger.Error("failed to open history db", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = historyDB.Close() }()
		repo := historypostgres.NewRepository(historyDB, cfg.Pipeline.HistoryLimit)
		historyStore = repo
		readiness = append(readiness, repo.HealthCheck)
	}

	patterns := history.NewPatternTracker(cfg.Pipeline.PatternLimit)

	var translator translate.Translator
	if cfg.Translate.Enabled {
		translator, err = translate.NewOpenAITranslator(translate.OpenAIConfig{
			BaseURL:     cfg.Translate.BaseURL,
			APIKey:      cfg.Translate.APIKey,
			Model:       cfg.Translate.Model,
			Temperature: cfg.Translate.Temperature,
			Timeout:     cfg.Translate.Timeout,
		})
		if err != nil {
			logger.Error("failed to initialize translator", slog.Any("error", err))
			os.Exit(1)
		}
	}

	var embedder similarity.Embedder
	if cfg.Similarity.Enabled {
		embedder, err = similarity.NewHTTPEmbedder(similarity.HTTPEmbedderConfig{
			BaseURL: cfg.Similarity.BaseURL,
			APIKey:  cfg.Similarity.APIKey,
			Model:   cfg.Similarity.Model,
			Timeout: cfg.Similarity.Timeout,
		})
		if err != nil {
			logger.Error("failed to initialize embedder", slog.Any("error", err))
			os.Exit(1)
		}
	}

	queryPipeline := pipeline.New(logger, pipeline.Config{
		MinQueryLength:   cfg.Pipeline.MinQueryLength,
		MaxQueryLength:   cfg.Pipeline.MaxQueryLength,
		CacheThreshold:   cfg.Pipeline.CacheThreshold,
		DefaultRowLimit:  cfg.Pipeline.DefaultRowLimit,
		ExecutionTimeout: cfg.Pipeline.ExecutionTimeout,
	}, pipeline.Dependencies{
		Engine:     queryEngine,
		History:    historyStore,
		Patterns:   patterns,
		Translator: translator,
		Embedder:   embedder,
	})

	if cfg.Archive.Enabled {
		objectStore, err := s3store.New(context.Background(), s3store.Config{
			Endpoint:         cfg.ObjectStore.Endpoint,
			Region:           cfg.ObjectStore.Region,
			Bucket:           cfg.ObjectStore.Bucket,
			AccessKeyID:      cfg.ObjectStore.AccessKeyID,
			SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
			UseSSL:           cfg.ObjectStore.UseSSL,
			Prefix:           cfg.ObjectStore.Prefix,
			AutoCreateBucket: cfg.ObjectStore.AutoCreateBucket,
		})
		if err != nil {
			logger.Error("failed to initialize object store", slog.Any("error", err))
			os.Exit(1)
		}
		archiver := archive.NewArchiver(logger, objectStore, patterns, archive.Config{
			Interval: cfg.Archive.Interval,
			Prefix:   cfg.Archive.Prefix,
		})
		go archiver.Run(ctx)
		readiness = append(readiness, api.CheckObjectStoreConfig(cfg))
	}

	deps := api.Dependencies{
		Logger:            logger,
		Pipeline:          queryPipeline,
		Ingestor:          queryEngine,
		Readiness:         api.CombineReadinessChecks(readiness...),
		DependencyTimeout: time.Second,
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
