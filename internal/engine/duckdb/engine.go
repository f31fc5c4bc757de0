// Package duckdb implements the execution engine over an in-process DuckDB
// database. Plans compile to parameterized SQL against a todos table; the
// database lives for the process and is seeded through the ingest surface.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/viapip/pothos-todo-sub004/internal/engine"
	"github.com/viapip/pothos-todo-sub004/internal/nlq"
)

const todosSchema = `
CREATE TABLE IF NOT EXISTS todos (
    id         VARCHAR PRIMARY KEY,
    title      VARCHAR NOT NULL,
    status     VARCHAR NOT NULL DEFAULT 'pending',
    priority   VARCHAR NOT NULL DEFAULT 'medium',
    due_date   DATE,
    tags       VARCHAR,
    created_at TIMESTAMP NOT NULL
)`

// columnFor maps schema field names to table columns. Unknown fields are a
// programming error upstream: validation rejects them before execution.
var columnFor = map[string]string{
	"id":        "id",
	"title":     "title",
	"status":    "status",
	"priority":  "priority",
	"dueDate":   "due_date",
	"tags":      "tags",
	"createdAt": "created_at",
}

var selectColumns = []string{"id", "title", "status", "priority", "due_date", "created_at"}

type Engine struct {
	db     *sql.DB
	nextID func() string
}

func NewEngine(ctx context.Context) (*Engine, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if _, err := db.ExecContext(ctx, todosSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create todos table: %w", err)
	}
	sequence := 0
	return &Engine{
		db: db,
		nextID: func() string {
			sequence++
			return fmt.Sprintf("todo-%d-%d", time.Now().UnixNano(), sequence)
		},
	}, nil
}

func (e *Engine) Close() error { return e.db.Close() }

func (e *Engine) HealthCheck(ctx context.Context) error {
	if err := e.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping duckdb: %w", err)
	}
	return nil
}

func (e *Engine) Execute(ctx context.Context, request engine.Request) (engine.Result, error) {
	start := time.Now()
	switch request.Action {
	case nlq.ActionCreate:
		result, err := e.executeCreate(ctx, request)
		result.Duration = time.Since(start)
		return result, err
	case nlq.ActionCount:
		result, err := e.executeCount(ctx, request)
		result.Duration = time.Since(start)
		return result, err
	default:
		if request.Shape == nlq.ShapeCount {
			result, err := e.executeCount(ctx, request)
			result.Duration = time.Since(start)
			return result, err
		}
		result, err := e.executeList(ctx, request)
		result.Duration = time.Since(start)
		return result, err
	}
}

func (e *Engine) executeList(ctx context.Context, request engine.Request) (engine.Result, error) {
	where, args, err := buildWhere(request.Filters)
	if err != nil {
		return engine.Result{}, err
	}

	var builder strings.Builder
	builder.WriteString("SELECT ")
	builder.WriteString(strings.Join(selectColumns, ", "))
	builder.WriteString(" FROM todos")
	builder.WriteString(where)

	if orderBy := buildOrderBy(request.Operations); orderBy != "" {
		builder.WriteString(orderBy)
	}
	limit := explicitLimit(request.Operations)
	if limit <= 0 {
		limit = request.RowLimit
	}
	if limit > 0 {
		fmt.Fprintf(&builder, " LIMIT %d", limit)
	}

	rows, err := e.db.QueryContext(ctx, builder.String(), args...)
	if err != nil {
		return engine.Result{}, fmt.Errorf("execute list query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return engine.Result{}, fmt.Errorf("list query columns: %w", err)
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return engine.Result{}, fmt.Errorf("scan todo row: %w", err)
		}
		resultRows = append(resultRows, values)
	}
	if err := rows.Err(); err != nil {
		return engine.Result{}, fmt.Errorf("iterate todo rows: %w", err)
	}

	return engine.Result{
		Columns: columns,
		Rows:    resultRows,
		Count:   int64(len(resultRows)),
	}, nil
}

func (e *Engine) executeCount(ctx context.Context, request engine.Request) (engine.Result, error) {
	where, args, err := buildWhere(request.Filters)
	if err != nil {
		return engine.Result{}, err
	}

	var count int64
	query := "SELECT COUNT(*) FROM todos" + where
	if err := e.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return engine.Result{}, fmt.Errorf("execute count query: %w", err)
	}
	return engine.Result{Count: count}, nil
}

func (e *Engine) executeCreate(ctx context.Context, request engine.Request) (engine.Result, error) {
	title, _ := request.Variables["title_0"].(string)
	if title == "" {
		return engine.Result{}, fmt.Errorf("create requires a title binding")
	}
	priority, _ := request.Variables["priority_1"].(string)
	if priority == "" {
		priority = "medium"
	}

	todo := engine.Todo{
		ID:        e.nextID(),
		Title:     title,
		Status:    "pending",
		Priority:  priority,
		CreatedAt: time.Now().UTC(),
	}
	const insert = `INSERT INTO todos (id, title, status, priority, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := e.db.ExecContext(ctx, insert, todo.ID, todo.Title, todo.Status, todo.Priority, todo.CreatedAt); err != nil {
		return engine.Result{}, fmt.Errorf("insert todo: %w", err)
	}
	return engine.Result{Created: &todo, Count: 1}, nil
}

func (e *Engine) IngestTodos(ctx context.Context, todos []engine.Todo) (int, error) {
	if len(todos) == 0 {
		return 0, nil
	}
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin ingest tx: %w", err)
	}
	const insert = `INSERT OR REPLACE INTO todos (id, title, status, priority, due_date, tags, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	inserted := 0
	for _, todo := range todos {
		if todo.ID == "" {
			todo.ID = e.nextID()
		}
		if todo.Status == "" {
			todo.Status = "pending"
		}
		if todo.Priority == "" {
			todo.Priority = "medium"
		}
		if todo.CreatedAt.IsZero() {
			todo.CreatedAt = time.Now().UTC()
		}
		var dueDate any
		if todo.DueDate != "" {
			dueDate = todo.DueDate
		}
		if _, err := tx.ExecContext(ctx, insert, todo.ID, todo.Title, todo.Status, todo.Priority, dueDate, strings.Join(todo.Tags, ","), todo.CreatedAt); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert todo %q: %w", todo.ID, err)
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit ingest tx: %w", err)
	}
	return inserted, nil
}

func buildWhere(filters []nlq.Filter) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	clauses := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	for _, filter := range filters {
		column, ok := columnFor[filter.Field]
		if !ok {
			return "", nil, fmt.Errorf("unknown filter field %q", filter.Field)
		}
		switch filter.Operator {
		case nlq.OpEquals:
			if column == "due_date" {
				clauses = append(clauses, fmt.Sprintf("CAST(%s AS DATE) = CAST(? AS DATE)", column))
			} else {
				clauses = append(clauses, fmt.Sprintf("%s = ?", column))
			}
			args = append(args, filter.Value)
		case nlq.OpContains:
			clauses = append(clauses, fmt.Sprintf("%s ILIKE '%%' || ? || '%%'", column))
			args = append(args, filter.Value)
		case nlq.OpGreater:
			clauses = append(clauses, fmt.Sprintf("%s > ?", column))
			args = append(args, filter.Value)
		case nlq.OpLess:
			clauses = append(clauses, fmt.Sprintf("%s < ?", column))
			args = append(args, filter.Value)
		case nlq.OpBetween:
			low, high, err := rangeBounds(filter.Value)
			if err != nil {
				return "", nil, fmt.Errorf("filter on %q: %w", filter.Field, err)
			}
			clauses = append(clauses, fmt.Sprintf("%s BETWEEN ? AND ?", column))
			args = append(args, low, high)
		case nlq.OpIn:
			values, ok := filter.Value.([]any)
			if !ok || len(values) == 0 {
				return "", nil, fmt.Errorf("in filter on %q requires a non-empty list", filter.Field)
			}
			placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
			clauses = append(clauses, fmt.Sprintf("%s IN (%s)", column, placeholders))
			args = append(args, values...)
		default:
			return "", nil, fmt.Errorf("unsupported operator %q", filter.Operator)
		}
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func rangeBounds(value any) (any, any, error) {
	bounds, ok := value.([]any)
	if !ok || len(bounds) != 2 {
		return nil, nil, fmt.Errorf("between requires a two-element range")
	}
	return bounds[0], bounds[1], nil
}

func buildOrderBy(operations []nlq.Operation) string {
	for _, op := range operations {
		if op.Kind != nlq.OpSort {
			continue
		}
		field, _ := op.Parameters["field"].(string)
		column, ok := columnFor[field]
		if !ok {
			return ""
		}
		direction := "ASC"
		if d, _ := op.Parameters["direction"].(string); d == "desc" {
			direction = "DESC"
		}
		return fmt.Sprintf(" ORDER BY %s %s", column, direction)
	}
	return ""
}

func explicitLimit(operations []nlq.Operation) int {
	for _, op := range operations {
		if op.Kind != nlq.OpLimit {
			continue
		}
		count, _ := op.Parameters["count"].(int)
		return count
	}
	return 0
}
