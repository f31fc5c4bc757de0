// Package cache memoizes compiled queries by normalized utterance text plus
// a hash of the compilation-relevant context fields. Entries are pure
// functions of (text, context): they are never invalidated by time, only
// superseded by a last-writer-wins overwrite under the same key.
package cache

import (
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/viapip/pothos-todo-sub004/internal/nlq"
)

// Key builds the cache key from case-folded, whitespace-collapsed text and
// the context fields that influence compilation. Verbosity is deliberately
// excluded: it changes explanation wording, which is recomputed on every
// request, not the compiled program.
func Key(text string, sctx nlq.SessionContext) string {
	normalized := Normalize(text)
	hasher := fnv.New64a()
	fmt.Fprintf(hasher, "%s|%s|%s|%s|%d",
		sctx.Role,
		sctx.Preferences.Language,
		sctx.Preferences.DateFormat,
		sctx.Preferences.Timezone,
		sctx.Preferences.DefaultLimit,
	)
	return fmt.Sprintf("%s#%016x", normalized, hasher.Sum64())
}

// Normalize lower-cases the text and collapses runs of whitespace.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// QueryCache stores parsed queries whose intent confidence exceeded the
// storage threshold at creation time. Reads hand out clones so stored
// entries stay immutable; writes atomically replace the whole entry.
type QueryCache struct {
	mu        sync.RWMutex
	threshold float64
	entries   map[string]nlq.ParsedQuery
}

func NewQueryCache(threshold float64) *QueryCache {
	return &QueryCache{
		threshold: threshold,
		entries:   make(map[string]nlq.ParsedQuery),
	}
}

func (c *QueryCache) Lookup(key string) (nlq.ParsedQuery, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nlq.ParsedQuery{}, false
	}
	return entry.Clone(), true
}

// Store keeps the entry only when the intent confidence clears the
// threshold. Low-confidence parses are recomputed on every request.
func (c *QueryCache) Store(key string, parsed nlq.ParsedQuery) bool {
	if parsed.Intent.Confidence <= c.threshold {
		return false
	}
	cloned := parsed.Clone()
	c.mu.Lock()
	c.entries[key] = cloned
	c.mu.Unlock()
	return true
}

func (c *QueryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
