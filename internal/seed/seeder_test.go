package seed

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunPublishesConfiguredBatches(t *testing.T) {
	var calls atomic.Int32
	var gotAPIKey, gotUser string
	var lastBatch ingestRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		gotAPIKey = r.Header.Get("X-API-Key")
		gotUser = r.Header.Get("X-User-ID")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &lastBatch)
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]int{"ingested": len(lastBatch.Todos)})
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.APIBaseURL = srv.URL
	cfg.APIKey = "k1"
	cfg.UserID = "alice"
	cfg.BatchSize = 3
	cfg.Batches = 2
	cfg.Interval = time.Millisecond
	cfg.Seed = 1

	service, err := NewService(cfg, nil, srv.Client())
	if err != nil {
		t.Fatalf("service setup failed: %v", err)
	}
	if err := service.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if got := calls.Load(); got != 2 {
		t.Fatalf("calls = %d", got)
	}
	if len(lastBatch.Todos) != 3 {
		t.Fatalf("batch size = %d", len(lastBatch.Todos))
	}
	if gotAPIKey != "k1" || gotUser != "alice" {
		t.Fatalf("headers api_key=%q user=%q", gotAPIKey, gotUser)
	}
}

func TestRunFailsOnNonAcceptedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_code":"TITLE_REQUIRED"}`))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.APIBaseURL = srv.URL
	cfg.Batches = 1

	service, err := NewService(cfg, nil, srv.Client())
	if err != nil {
		t.Fatalf("service setup failed: %v", err)
	}
	if err := service.Run(context.Background()); err == nil {
		t.Fatal("expected error for rejected batch")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.APIBaseURL = srv.URL
	cfg.Batches = 0
	cfg.Interval = 50 * time.Millisecond

	service, err := NewService(cfg, nil, srv.Client())
	if err != nil {
		t.Fatalf("service setup failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	if err := service.Run(ctx); err != context.Canceled {
		t.Fatalf("err = %v", err)
	}
}

func TestNewServiceValidatesConfig(t *testing.T) {
	if _, err := NewService(Config{APIBaseURL: "", BatchSize: 1}, nil, nil); err == nil {
		t.Fatal("expected error for missing base url")
	}
	if _, err := NewService(Config{APIBaseURL: "http://localhost", BatchSize: 0}, nil, nil); err == nil {
		t.Fatal("expected error for zero batch size")
	}
}
