package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/viapip/pothos-todo-sub004/internal/nlq"
)

var (
	priorityPattern = regexp.MustCompile(`\b(high|medium|low)[- ]priority\b|\bpriority\s+(?:is\s+|of\s+)?(high|medium|low)\b`)
	statusPattern   = regexp.MustCompile(`\b(pending|completed|in[- ]?progress)\b`)
	containsPattern = regexp.MustCompile(`contain(?:ing|s)?\s+"([^"]+)"`)
	limitPattern    = regexp.MustCompile(`\b(?:first|top|limit)\s+(\d+)\b`)
	sortPattern     = regexp.MustCompile(`\bsort(?:ed)?\s+by\s+((?:[a-z]+\s+){0,2}[a-z]+)`)
	newestPattern   = regexp.MustCompile(`\b(?:newest|latest)\s+first\b|\bnewest\b`)
	oldestPattern   = regexp.MustCompile(`\boldest\s+first\b`)
	countPattern    = regexp.MustCompile(`\bcount\b|\bhow many\b`)
	// todoTitlePattern captures the payload of a create-style utterance:
	// "create a todo to buy milk" yields "buy milk". The connector word is
	// required so plain list queries ("show my todos") never match.
	todoTitlePattern = regexp.MustCompile(`\b(?:todo|task|reminder|item)\s+(?:to|called|named|for|about)\s+(.+?)\s*$`)
)

const dateValueLayout = "2006-01-02"

type dateRule struct {
	phrase string
	// resolve maps the current time to a concrete filter value. Single days
	// resolve to an equals filter on the date; week phrases resolve to a
	// between filter over [start, end] date bounds.
	resolve func(now time.Time) (any, nlq.FilterOperator)
}

var dateRules = []dateRule{
	{phrase: "today", resolve: func(now time.Time) (any, nlq.FilterOperator) {
		return now.Format(dateValueLayout), nlq.OpEquals
	}},
	{phrase: "yesterday", resolve: func(now time.Time) (any, nlq.FilterOperator) {
		return now.AddDate(0, 0, -1).Format(dateValueLayout), nlq.OpEquals
	}},
	{phrase: "tomorrow", resolve: func(now time.Time) (any, nlq.FilterOperator) {
		return now.AddDate(0, 0, 1).Format(dateValueLayout), nlq.OpEquals
	}},
	{phrase: "this week", resolve: func(now time.Time) (any, nlq.FilterOperator) {
		start := startOfWeek(now)
		return []any{start.Format(dateValueLayout), start.AddDate(0, 0, 6).Format(dateValueLayout)}, nlq.OpBetween
	}},
	{phrase: "last week", resolve: func(now time.Time) (any, nlq.FilterOperator) {
		start := startOfWeek(now).AddDate(0, 0, -7)
		return []any{start.Format(dateValueLayout), start.AddDate(0, 0, 6).Format(dateValueLayout)}, nlq.OpBetween
	}},
}

var titlePriorityTrailer = regexp.MustCompile(`\s+with\s+(?:high|medium|low)[- ]priority$|\s+\((?:high|medium|low)\)$`)

// startOfWeek returns the Monday of the week containing t.
func startOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, 1-weekday)
}

// sortFieldAliases maps user wording to schema field names.
var sortFieldAliases = map[string]string{
	"priority":   "priority",
	"status":     "status",
	"title":      "title",
	"name":       "title",
	"due date":   "dueDate",
	"duedate":    "dueDate",
	"date":       "dueDate",
	"created":    "createdAt",
	"created at": "createdAt",
	"createdat":  "createdAt",
}

func sortableField(raw string) (string, bool) {
	field, ok := sortFieldAliases[strings.TrimSpace(raw)]
	return field, ok
}

// indexWord finds phrase in text on word boundaries, or -1.
func indexWord(text, phrase string) int {
	offset := 0
	for {
		found := strings.Index(text[offset:], phrase)
		if found < 0 {
			return -1
		}
		start := offset + found
		end := start + len(phrase)
		startOK := start == 0 || !isWordByte(text[start-1])
		endOK := end == len(text) || !isWordByte(text[end])
		if startOK && endOK {
			return start
		}
		offset = start + 1
		if offset >= len(text) {
			return -1
		}
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_'
}
