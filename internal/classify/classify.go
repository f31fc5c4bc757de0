// Package classify labels utterances with an operation kind and action using
// an ordered keyword rule table. Classification is deterministic, has no side
// effects, and never fails: unmatched text falls back to query/get.
package classify

import (
	"strings"

	"github.com/viapip/pothos-todo-sub004/internal/nlq"
)

const (
	keywordConfidence = 0.9
	defaultConfidence = 0.6
)

type rule struct {
	keywords []string
	kind     nlq.IntentKind
	action   nlq.IntentAction
}

// Rule order matters: mutation triggers are checked before read refinements
// so "add a todo and count it" classifies as a create, matching the
// first-match contract of the extraction layer.
var rules = []rule{
	{keywords: []string{"create", "add", "new"}, kind: nlq.KindMutation, action: nlq.ActionCreate},
	{keywords: []string{"update", "edit", "change"}, kind: nlq.KindMutation, action: nlq.ActionUpdate},
	{keywords: []string{"delete", "remove"}, kind: nlq.KindMutation, action: nlq.ActionDelete},
	{keywords: []string{"count", "how many"}, kind: nlq.KindQuery, action: nlq.ActionCount},
	{keywords: []string{"search", "find"}, kind: nlq.KindQuery, action: nlq.ActionSearch},
	{keywords: []string{"show", "list", "display", "get"}, kind: nlq.KindQuery, action: nlq.ActionGet},
}

type Classifier struct{}

func New() *Classifier { return &Classifier{} }

// Classify returns exactly one intent for the utterance. Keyword hits score
// 0.9, the fallback scores 0.6.
func (c *Classifier) Classify(text string, _ nlq.SessionContext) nlq.Intent {
	normalized := strings.ToLower(text)
	for _, r := range rules {
		for _, keyword := range r.keywords {
			if containsWord(normalized, keyword) {
				return nlq.Intent{Kind: r.kind, Action: r.action, Confidence: keywordConfidence}
			}
		}
	}
	return nlq.Intent{Kind: nlq.KindQuery, Action: nlq.ActionGet, Confidence: defaultConfidence}
}

// containsWord matches whole words only, so "additional" does not trigger
// the "add" rule. Multi-word keywords match as substrings on word
// boundaries.
func containsWord(text, keyword string) bool {
	index := 0
	for {
		found := strings.Index(text[index:], keyword)
		if found < 0 {
			return false
		}
		start := index + found
		end := start + len(keyword)
		startOK := start == 0 || !isWordByte(text[start-1])
		endOK := end == len(text) || !isWordByte(text[end])
		if startOK && endOK {
			return true
		}
		index = start + 1
		if index >= len(text) {
			return false
		}
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_'
}
