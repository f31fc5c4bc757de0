// Package archive periodically snapshots the in-memory pattern counters to
// parquet files in the object store. Snapshots are observational data for
// offline analysis; a failed upload is logged and retried on the next tick,
// never surfaced to the query path.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/viapip/pothos-todo-sub004/internal/history"
	"github.com/viapip/pothos-todo-sub004/internal/observability"
	"github.com/viapip/pothos-todo-sub004/internal/storage"
)

type Snapshotter interface {
	Snapshot() []history.PatternCount
}

type Config struct {
	Interval time.Duration
	Prefix   string
}

type Archiver struct {
	logger   *slog.Logger
	store    storage.ObjectStore
	tracker  Snapshotter
	interval time.Duration
	prefix   string
	now      func() time.Time
	sequence int
}

func NewArchiver(logger *slog.Logger, store storage.ObjectStore, tracker Snapshotter, cfg Config) *Archiver {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "patterns"
	}
	return &Archiver{
		logger:   logger,
		store:    store,
		tracker:  tracker,
		interval: interval,
		prefix:   prefix,
		now:      time.Now,
	}
}

// RunOnce takes a snapshot and uploads it. An empty snapshot is a no-op and
// returns an empty key.
func (a *Archiver) RunOnce(ctx context.Context) (string, error) {
	patterns := a.tracker.Snapshot()
	if len(patterns) == 0 {
		return "", nil
	}

	takenAt := a.now()
	encoded, err := EncodePatternsToParquet(patterns, takenAt)
	if err != nil {
		return "", fmt.Errorf("encode pattern snapshot: %w", err)
	}

	key, err := storage.BuildPatternSnapshotPath(a.prefix, takenAt, a.sequence)
	if err != nil {
		return "", fmt.Errorf("build snapshot path: %w", err)
	}

	if _, err := a.store.Put(ctx, key, bytes.NewReader(encoded.Data), int64(len(encoded.Data)), storage.PutOptions{ContentType: "application/octet-stream"}); err != nil {
		return "", fmt.Errorf("upload pattern snapshot: %w", err)
	}
	a.sequence++

	observability.SetPatternsTracked(len(patterns))
	if a.logger != nil {
		a.logger.InfoContext(ctx, "pattern snapshot archived",
			slog.String("key", key),
			slog.Int64("records", encoded.RecordCount),
		)
	}
	return key, nil
}

// Run loops until the context is canceled.
func (a *Archiver) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.RunOnce(ctx); err != nil && a.logger != nil {
				a.logger.ErrorContext(ctx, "pattern snapshot failed", slog.String("error", err.Error()))
			}
		}
	}
}
