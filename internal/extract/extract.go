// Package extract pulls typed entities, filter predicates, and query
// operations out of utterance text using ordered pattern rules. The rule set
// is a table of (matcher, builder) pairs rather than one large conditional so
// new rules compose without touching existing ones.
package extract

import (
	"strconv"
	"strings"
	"time"

	"github.com/viapip/pothos-todo-sub004/internal/nlq"
)

// Per-rule confidences are heuristic constants, not computed scores.
const (
	priorityConfidence  = 0.9
	statusConfidence    = 0.85
	dateConfidence      = 0.8
	containsConfidence  = 0.9
	limitConfidence     = 0.9
	sortConfidence      = 0.85
	countConfidence     = 0.9
	todoTitleConfidence = 0.8
)

type Extractor struct {
	now func() time.Time
}

func New() *Extractor {
	return &Extractor{now: time.Now}
}

// NewWithClock pins the extractor's clock; relative dates resolve against it.
func NewWithClock(now func() time.Time) *Extractor {
	return &Extractor{now: now}
}

// Extract runs every rule category over the case-folded text. Within a
// category the first matching rule wins; a second date or sort mention is
// dropped. That can lose a valid second filter (two date mentions in one
// utterance) and is kept as a known precision limit.
func (e *Extractor) Extract(text string, sctx nlq.SessionContext) ([]nlq.Entity, []nlq.Filter, []nlq.Operation) {
	normalized := strings.ToLower(text)

	var entities []nlq.Entity
	var filters []nlq.Filter
	var operations []nlq.Operation

	if entity, ok := matchTodoTitle(normalized); ok {
		entities = append(entities, entity)
	}
	if entity, filter, ok := matchPriority(normalized); ok {
		entities = append(entities, entity)
		filters = append(filters, filter)
	}
	if entity, filter, ok := matchStatus(normalized); ok {
		entities = append(entities, entity)
		filters = append(filters, filter)
	}
	if entity, filter, ok := e.matchDate(normalized, sctx.Preferences); ok {
		entities = append(entities, entity)
		filters = append(filters, filter)
	}
	if filter, ok := matchContains(normalized); ok {
		filters = append(filters, filter)
	}

	if op, ok := matchLimit(normalized); ok {
		operations = append(operations, op)
	}
	if op, ok := matchSort(normalized); ok {
		operations = append(operations, op)
	}
	if op, ok := matchCount(normalized); ok {
		operations = append(operations, op)
	}

	return entities, filters, operations
}

func matchTodoTitle(text string) (nlq.Entity, bool) {
	match := todoTitlePattern.FindStringSubmatchIndex(text)
	if match == nil {
		return nlq.Entity{}, false
	}
	value := submatch(text, match, 1)
	// Trailing priority wording belongs to the priority rule, not the title.
	value = strings.TrimSpace(titlePriorityTrailer.ReplaceAllString(value, ""))
	if value == "" {
		return nlq.Entity{}, false
	}
	return nlq.Entity{
		Type:       nlq.EntityTodo,
		Value:      value,
		Confidence: todoTitleConfidence,
		Start:      match[2],
		End:        match[3],
	}, true
}

func matchPriority(text string) (nlq.Entity, nlq.Filter, bool) {
	match := priorityPattern.FindStringSubmatchIndex(text)
	if match == nil {
		return nlq.Entity{}, nlq.Filter{}, false
	}
	value := submatch(text, match, 1)
	if value == "" {
		value = submatch(text, match, 2)
	}
	entity := nlq.Entity{
		Type:       nlq.EntityPriority,
		Value:      value,
		Confidence: priorityConfidence,
		Start:      match[0],
		End:        match[1],
	}
	filter := nlq.Filter{
		Field:      "priority",
		Operator:   nlq.OpEquals,
		Value:      value,
		Confidence: priorityConfidence,
	}
	return entity, filter, true
}

func matchStatus(text string) (nlq.Entity, nlq.Filter, bool) {
	match := statusPattern.FindStringSubmatchIndex(text)
	if match == nil {
		return nlq.Entity{}, nlq.Filter{}, false
	}
	value := canonicalStatus(submatch(text, match, 1))
	entity := nlq.Entity{
		Type:       nlq.EntityStatus,
		Value:      value,
		Confidence: statusConfidence,
		Start:      match[0],
		End:        match[1],
	}
	filter := nlq.Filter{
		Field:      "status",
		Operator:   nlq.OpEquals,
		Value:      value,
		Confidence: statusConfidence,
	}
	return entity, filter, true
}

// matchDate resolves relative date phrases against the user's timezone.
// Rules are ordered; the first phrase found in the table order wins and only
// one date filter is ever emitted per utterance.
func (e *Extractor) matchDate(text string, prefs nlq.Preferences) (nlq.Entity, nlq.Filter, bool) {
	location := locationFor(prefs.Timezone)
	now := e.now().In(location)

	for _, rule := range dateRules {
		index := indexWord(text, rule.phrase)
		if index < 0 {
			continue
		}
		value, operator := rule.resolve(now)
		entity := nlq.Entity{
			Type:       nlq.EntityDate,
			Value:      rule.phrase,
			Confidence: dateConfidence,
			Start:      index,
			End:        index + len(rule.phrase),
		}
		filter := nlq.Filter{
			Field:      "dueDate",
			Operator:   operator,
			Value:      value,
			Confidence: dateConfidence,
		}
		return entity, filter, true
	}
	return nlq.Entity{}, nlq.Filter{}, false
}

func matchContains(text string) (nlq.Filter, bool) {
	match := containsPattern.FindStringSubmatch(text)
	if match == nil {
		return nlq.Filter{}, false
	}
	return nlq.Filter{
		Field:      "title",
		Operator:   nlq.OpContains,
		Value:      match[1],
		Confidence: containsConfidence,
	}, true
}

func matchLimit(text string) (nlq.Operation, bool) {
	match := limitPattern.FindStringSubmatch(text)
	if match == nil {
		return nlq.Operation{}, false
	}
	count, err := strconv.Atoi(match[1])
	if err != nil || count <= 0 {
		return nlq.Operation{}, false
	}
	return nlq.Operation{
		Kind:       nlq.OpLimit,
		Parameters: map[string]any{"count": count},
		Confidence: limitConfidence,
	}, true
}

func matchSort(text string) (nlq.Operation, bool) {
	if match := sortPattern.FindStringSubmatch(text); match != nil {
		words := strings.Fields(match[1])
		direction := "asc"
		if len(words) > 0 {
			switch words[len(words)-1] {
			case "desc", "descending":
				direction = "desc"
				words = words[:len(words)-1]
			case "asc", "ascending":
				words = words[:len(words)-1]
			}
		}
		if field, ok := sortableField(strings.Join(words, " ")); ok {
			return sortOperation(field, direction), true
		}
		return nlq.Operation{}, false
	}
	if newestPattern.MatchString(text) {
		return sortOperation("createdAt", "desc"), true
	}
	if oldestPattern.MatchString(text) {
		return sortOperation("createdAt", "asc"), true
	}
	return nlq.Operation{}, false
}

func sortOperation(field, direction string) nlq.Operation {
	return nlq.Operation{
		Kind:       nlq.OpSort,
		Parameters: map[string]any{"field": field, "direction": direction},
		Confidence: sortConfidence,
	}
}

func matchCount(text string) (nlq.Operation, bool) {
	if !countPattern.MatchString(text) {
		return nlq.Operation{}, false
	}
	return nlq.Operation{
		Kind:       nlq.OpAggregate,
		Parameters: map[string]any{"function": "count"},
		Confidence: countConfidence,
	}, true
}

func canonicalStatus(raw string) string {
	if strings.HasPrefix(raw, "in") {
		return "in_progress"
	}
	return raw
}

func locationFor(timezone string) *time.Location {
	if timezone == "" {
		return time.UTC
	}
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return time.UTC
	}
	return location
}

func submatch(text string, match []int, group int) string {
	start, end := match[2*group], match[2*group+1]
	if start < 0 {
		return ""
	}
	return text[start:end]
}
