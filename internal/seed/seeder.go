// Package seed posts generated todo batches to a running API so the engine
// has data to answer queries against in dev environments.
package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/viapip/pothos-todo-sub004/internal/engine"
)

type Service struct {
	cfg       Config
	log       *slog.Logger
	http      *http.Client
	generator *Generator
}

type ingestRequest struct {
	Todos []engine.Todo `json:"todos"`
}

type ingestResponse struct {
	Ingested int `json:"ingested"`
}

func NewService(cfg Config, logger *slog.Logger, client *http.Client) (*Service, error) {
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return nil, fmt.Errorf("api base url is required")
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.HTTPTimeout}
	}

	return &Service{
		cfg:       cfg,
		log:       logger,
		http:      client,
		generator: NewGenerator(cfg.Seed),
	}, nil
}

// Run publishes cfg.Batches batches, pausing cfg.Interval between them.
// Batches of zero means run until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	published := 0
	for {
		if err := s.seedOnce(ctx); err != nil {
			return err
		}
		published++
		if s.cfg.Batches > 0 && published >= s.cfg.Batches {
			return nil
		}

		timer := time.NewTimer(s.cfg.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (s *Service) seedOnce(ctx context.Context) error {
	request := ingestRequest{Todos: make([]engine.Todo, 0, s.cfg.BatchSize)}
	for i := 0; i < s.cfg.BatchSize; i++ {
		request.Todos = append(request.Todos, s.generator.NextTodo())
	}

	raw, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("marshal seed batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(s.cfg.APIBaseURL, "/")+"/v1/todos", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", s.cfg.APIKey)
	}
	if s.cfg.UserID != "" {
		req.Header.Set("X-User-ID", s.cfg.UserID)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("seed request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("seed request status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var response ingestResponse
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &response); err != nil {
			return fmt.Errorf("decode seed response: %w", err)
		}
	}

	s.log.Info(
		"published seed batch",
		slog.Int("batch_size", len(request.Todos)),
		slog.Int("ingested", response.Ingested),
	)
	return nil
}
