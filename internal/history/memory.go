package history

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps the most recent entries per user, FIFO-evicted at the
// limit. It is the default store; the Postgres store is substituted when
// durable history is configured.
type MemoryStore struct {
	mu      sync.Mutex
	limit   int
	entries map[string][]Entry
}

func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &MemoryStore{limit: limit, entries: make(map[string][]Entry)}
}

func (s *MemoryStore) Record(_ context.Context, entry Entry) error {
	if entry.UserID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append(s.entries[entry.UserID], entry)
	if len(list) > s.limit {
		list = list[len(list)-s.limit:]
	}
	s.entries[entry.UserID] = list
	return nil
}

// Recent returns up to n entries, newest first.
func (s *MemoryStore) Recent(_ context.Context, userID string, n int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.entries[userID]
	if n <= 0 || n > len(list) {
		n = len(list)
	}
	out := make([]Entry, 0, n)
	for i := len(list) - 1; i >= len(list)-n; i-- {
		out = append(out, list[i])
	}
	return out, nil
}

type patternEntry struct {
	count    int64
	firstSeq int64
}

// PatternTracker counts normalized utterances process-wide. Once the map
// grows past the limit, the lowest-count entries are evicted; ties break on
// insertion order (earliest first) so eviction is deterministic.
type PatternTracker struct {
	mu       sync.Mutex
	limit    int
	nextSeq  int64
	patterns map[string]*patternEntry
}

func NewPatternTracker(limit int) *PatternTracker {
	if limit <= 0 {
		limit = DefaultPatternLimit
	}
	return &PatternTracker{limit: limit, patterns: make(map[string]*patternEntry)}
}

func (t *PatternTracker) Track(pattern string) {
	if pattern == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if entry, ok := t.patterns[pattern]; ok {
		entry.count++
		return
	}
	t.patterns[pattern] = &patternEntry{count: 1, firstSeq: t.nextSeq}
	t.nextSeq++
	if len(t.patterns) > t.limit {
		t.evictLocked()
	}
}

// evictLocked removes the entry with the lowest count, breaking count ties
// on the earliest insertion sequence.
func (t *PatternTracker) evictLocked() {
	var victim string
	var victimEntry *patternEntry
	for pattern, entry := range t.patterns {
		if victimEntry == nil ||
			entry.count < victimEntry.count ||
			(entry.count == victimEntry.count && entry.firstSeq < victimEntry.firstSeq) {
			victim = pattern
			victimEntry = entry
		}
	}
	delete(t.patterns, victim)
}

func (t *PatternTracker) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.patterns)
}

func (t *PatternTracker) CountOf(pattern string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if entry, ok := t.patterns[pattern]; ok {
		return entry.count
	}
	return 0
}

// Snapshot returns all rows ordered by count descending, then insertion
// order. The archive job and the patterns endpoint both read through this.
func (t *PatternTracker) Snapshot() []PatternCount {
	t.mu.Lock()
	rows := make([]PatternCount, 0, len(t.patterns))
	for pattern, entry := range t.patterns {
		rows = append(rows, PatternCount{Pattern: pattern, Count: entry.count, FirstSeq: entry.firstSeq})
	}
	t.mu.Unlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].FirstSeq < rows[j].FirstSeq
	})
	return rows
}
