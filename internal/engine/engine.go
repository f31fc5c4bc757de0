// Package engine defines the execution boundary between the compiler
// pipeline and the schema engine that runs generated programs. The engine
// receives the validated program together with its bound plan; it never sees
// raw utterance text and never interpolates values into query strings.
package engine

import (
	"context"
	"time"

	"github.com/viapip/pothos-todo-sub004/internal/nlq"
)

// Todo is the stored record the reference engine executes against.
type Todo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Priority  string    `json:"priority"`
	DueDate   string    `json:"due_date,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Request is one validated, parameterized execution. Program is the
// generated GraphQL document; the plan fields mirror it so engines can
// execute without re-parsing the text. RowLimit caps list results when no
// explicit limit operation was extracted.
type Request struct {
	Program    string
	Variables  map[string]any
	Action     nlq.IntentAction
	Shape      nlq.ResultShape
	Filters    []nlq.Filter
	Operations []nlq.Operation
	RowLimit   int
}

// Result carries whatever shape the request asked for: rows for lists,
// Count for the count shape, and the created record for mutations.
type Result struct {
	Columns  []string      `json:"columns,omitempty"`
	Rows     [][]any       `json:"rows,omitempty"`
	Count    int64         `json:"count"`
	Created  *Todo         `json:"created,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Engine executes validated requests. Execution errors (including timeouts
// propagated through ctx) are fatal for the request and never retried here.
type Engine interface {
	Execute(ctx context.Context, request Request) (Result, error)
}

// Ingestor is implemented by engines that can be bulk-seeded with todos.
type Ingestor interface {
	IngestTodos(ctx context.Context, todos []Todo) (int, error)
}
