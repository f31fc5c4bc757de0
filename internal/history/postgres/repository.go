// Package postgres provides the durable history store. Each user keeps a
// bounded window of past queries; the trim happens inside the same
// transaction as the insert so readers never observe more than the limit.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/viapip/pothos-todo-sub004/internal/history"
	"github.com/viapip/pothos-todo-sub004/internal/nlq"
)

const insertEntrySQL = `
INSERT INTO nl_history (user_id, query_text, parsed_json)
VALUES ($1, $2, $3::jsonb)
RETURNING history_id`

const trimUserSQL = `
DELETE FROM nl_history
WHERE user_id = $1
AND history_id NOT IN (
    SELECT history_id FROM nl_history
    WHERE user_id = $1
    ORDER BY history_id DESC
    LIMIT $2
)`

const recentSQL = `
SELECT user_id, query_text, parsed_json, created_at
FROM nl_history
WHERE user_id = $1
ORDER BY history_id DESC
LIMIT $2`

type Repository struct {
	db    *sql.DB
	limit int
}

func NewRepository(db *sql.DB, limit int) *Repository {
	if limit <= 0 {
		limit = history.DefaultHistoryLimit
	}
	return &Repository{db: db, limit: limit}
}

func (r *Repository) HealthCheck(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping history db: %w", err)
	}
	return nil
}

func (r *Repository) Record(ctx context.Context, entry history.Entry) error {
	if entry.UserID == "" {
		return nil
	}
	parsedJSON, err := json.Marshal(entry.Parsed)
	if err != nil {
		return fmt.Errorf("marshal parsed query: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var historyID int64
	if err := tx.QueryRowContext(ctx, insertEntrySQL, entry.UserID, entry.Text, string(parsedJSON)).Scan(&historyID); err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx, trimUserSQL, entry.UserID, r.limit); err != nil {
		return fmt.Errorf("trim history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history tx: %w", err)
	}
	return nil
}

// Recent returns up to n entries for the user, newest first.
func (r *Repository) Recent(ctx context.Context, userID string, n int) ([]history.Entry, error) {
	if n <= 0 || n > r.limit {
		n = r.limit
	}
	rows, err := r.db.QueryContext(ctx, recentSQL, userID, n)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]history.Entry, 0, n)
	for rows.Next() {
		var (
			entry      history.Entry
			parsedJSON []byte
			createdAt  time.Time
		)
		if err := rows.Scan(&entry.UserID, &entry.Text, &parsedJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		var parsed nlq.ParsedQuery
		if err := json.Unmarshal(parsedJSON, &parsed); err != nil {
			return nil, fmt.Errorf("decode parsed query: %w", err)
		}
		entry.Parsed = parsed
		entry.At = createdAt
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return entries, nil
}
