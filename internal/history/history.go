// Package history owns the pipeline's shared mutable state outside the query
// cache: bounded per-user utterance history and the global pattern-frequency
// counters. Both are explicit injected stores with a startup-to-shutdown
// lifecycle, so tests can substitute empty ones.
package history

import (
	"context"
	"time"

	"github.com/viapip/pothos-todo-sub004/internal/nlq"
)

// Per-process bounds. History is FIFO-trimmed per user; the pattern map
// evicts its lowest-count entries once the bound is exceeded.
const (
	DefaultHistoryLimit = 50
	DefaultPatternLimit = 1000
)

// Entry is one completed utterance with its compiled query. History feeds
// suggestion generation only; it never affects the correctness of future
// parses.
type Entry struct {
	UserID string          `json:"user_id"`
	Text   string          `json:"text"`
	Parsed nlq.ParsedQuery `json:"parsed"`
	At     time.Time       `json:"at"`
}

// Store records and reads per-user history. Implementations trim to the
// configured bound on write.
type Store interface {
	Record(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, userID string, n int) ([]Entry, error)
}

// PatternCount is one row of the global frequency table.
type PatternCount struct {
	Pattern  string `json:"pattern"`
	Count    int64  `json:"count"`
	FirstSeq int64  `json:"first_seq"`
}
