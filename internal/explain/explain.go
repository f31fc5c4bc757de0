// Package explain turns a compiled query and its execution result into a
// human-readable explanation, refinement suggestions, and up to two
// follow-up prompts. A separate error path generates suggestions from simple
// heuristics when compilation or execution failed.
package explain

import (
	"fmt"
	"strings"

	"github.com/viapip/pothos-todo-sub004/internal/engine"
	"github.com/viapip/pothos-todo-sub004/internal/nlq"
)

const maxFollowUps = 2

var actionPhrases = map[nlq.IntentAction]string{
	nlq.ActionGet:    "Fetching todos",
	nlq.ActionSearch: "Searching todos",
	nlq.ActionCount:  "Counting todos",
	nlq.ActionCreate: "Creating a todo",
}

var operatorPhrases = map[nlq.FilterOperator]string{
	nlq.OpEquals:   "is",
	nlq.OpContains: "contains",
	nlq.OpGreater:  "is after",
	nlq.OpLess:     "is before",
	nlq.OpBetween:  "is between",
	nlq.OpIn:       "is one of",
}

type Explainer struct{}

func New() *Explainer { return &Explainer{} }

// Explain assembles the success-path explanation and its companion
// suggestions and follow-ups.
func (e *Explainer) Explain(parsed nlq.ParsedQuery, result engine.Result) (string, []string, []string) {
	return describe(parsed, result), suggestRefinements(parsed), followUps(parsed, result)
}

func describe(parsed nlq.ParsedQuery, result engine.Result) string {
	phrase, ok := actionPhrases[parsed.Intent.Action]
	if !ok {
		phrase = "Running a query"
	}

	var parts []string
	parts = append(parts, phrase)
	for _, filter := range parsed.Filters {
		parts = append(parts, fmt.Sprintf("where %s %s %s", filter.Field, operatorPhrase(filter.Operator), formatValue(filter.Value)))
	}
	for _, op := range parsed.Operations {
		switch op.Kind {
		case nlq.OpSort:
			field, _ := op.Parameters["field"].(string)
			direction, _ := op.Parameters["direction"].(string)
			word := "ascending"
			if direction == "desc" {
				word = "descending"
			}
			parts = append(parts, fmt.Sprintf("sorted by %s %s", field, word))
		case nlq.OpLimit:
			count, _ := op.Parameters["count"].(int)
			parts = append(parts, fmt.Sprintf("limited to %d results", count))
		}
	}

	sentence := strings.Join(parts, ", ") + "."
	switch parsed.Shape {
	case nlq.ShapeCount:
		return fmt.Sprintf("%s Found %d matching.", sentence, result.Count)
	case nlq.ShapeSingle:
		if result.Created != nil {
			return fmt.Sprintf("%s Created %q with %s priority.", sentence, result.Created.Title, result.Created.Priority)
		}
		return sentence
	default:
		return fmt.Sprintf("%s Returned %d result(s).", sentence, len(result.Rows))
	}
}

// suggestRefinements points out what the query did not constrain.
func suggestRefinements(parsed nlq.ParsedQuery) []string {
	if parsed.Intent.Kind == nlq.KindMutation {
		return nil
	}
	var suggestions []string
	if len(parsed.Filters) == 0 {
		suggestions = append(suggestions, `Add a filter, e.g. "high priority" or "due today".`)
	}
	if !hasOperation(parsed.Operations, nlq.OpSort) && parsed.Shape == nlq.ShapeList {
		suggestions = append(suggestions, `Add a sort, e.g. "sorted by due date" or "newest first".`)
	}
	if !hasOperation(parsed.Operations, nlq.OpLimit) && parsed.Shape == nlq.ShapeList {
		suggestions = append(suggestions, `Cap the result, e.g. "first 5".`)
	}
	return suggestions
}

// followUps depend on result cardinality and are capped at two.
func followUps(parsed nlq.ParsedQuery, result engine.Result) []string {
	var prompts []string
	switch {
	case parsed.Intent.Kind == nlq.KindMutation:
		prompts = append(prompts,
			"Show my pending todos",
			"Create another todo")
	case parsed.Shape == nlq.ShapeCount:
		prompts = append(prompts,
			"List the matching todos",
			"Count completed todos instead")
	case len(result.Rows) > 0:
		prompts = append(prompts,
			"Show details for the first result",
			"Narrow this down to high priority",
			"Count these instead")
	default:
		prompts = append(prompts,
			"Create a todo for this",
			"Broaden the search by removing a filter")
	}
	if len(prompts) > maxFollowUps {
		prompts = prompts[:maxFollowUps]
	}
	return prompts
}

// SuggestForError runs the failure-path heuristics. It is independent of the
// main explanation path and never inspects the parsed query, which may not
// exist when generation failed early.
func SuggestForError(text string, code nlq.ErrorCode) []string {
	var suggestions []string
	switch code {
	case nlq.CodeInputTooShort:
		suggestions = append(suggestions, "Your query is too short; try a full phrase like \"show my pending todos\".")
	case nlq.CodeInputTooLong:
		suggestions = append(suggestions, "Your query is too long; trim it to one request.")
	case nlq.CodeGenerationUnsupported:
		suggestions = append(suggestions, "Only creating todos is supported as a change; try rephrasing as a question or a create request.")
	default:
		if !hasRecognizableKeyword(text) {
			suggestions = append(suggestions, "Try including a keyword like \"show\", \"count\", \"find\", or \"create\".")
		}
		if len(strings.Fields(text)) < 3 {
			suggestions = append(suggestions, "Add more detail, e.g. a priority, a status, or a date.")
		}
	}
	if len(suggestions) == 0 {
		suggestions = append(suggestions, "Rephrase the request and try again.")
	}
	return suggestions
}

var recognizedKeywords = []string{"show", "list", "find", "search", "count", "create", "add", "get", "todo", "task"}

func hasRecognizableKeyword(text string) bool {
	lowered := strings.ToLower(text)
	for _, keyword := range recognizedKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

func hasOperation(operations []nlq.Operation, kind nlq.OperationKind) bool {
	for _, op := range operations {
		if op.Kind == kind {
			return true
		}
	}
	return false
}

func operatorPhrase(op nlq.FilterOperator) string {
	if phrase, ok := operatorPhrases[op]; ok {
		return phrase
	}
	return string(op)
}

func formatValue(value any) string {
	switch typed := value.(type) {
	case string:
		return fmt.Sprintf("%q", typed)
	case []any:
		parts := make([]string, len(typed))
		for i, item := range typed {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, " and ")
	default:
		return fmt.Sprint(value)
	}
}
