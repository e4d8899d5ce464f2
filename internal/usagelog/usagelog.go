// Package usagelog persists per-request token usage and cost to SQLite.
package usagelog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Event is one completed pipeline request. Document content and answers
// are never stored, only accounting fields.
type Event struct {
	RequestID    string
	Document     string
	Intent       string
	Provider     string
	Model        string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	TotalCost    float64
	CreatedAt    time.Time
}

// Recorder accepts usage events. The pipeline treats recording as best
// effort and never fails a request over it.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// Summary aggregates the whole event log.
type Summary struct {
	Requests     int64
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	TotalCost    float64
}

const schema = `
CREATE TABLE IF NOT EXISTS usage_events (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id    TEXT NOT NULL,
	document      TEXT NOT NULL,
	intent        TEXT NOT NULL,
	provider      TEXT NOT NULL,
	model         TEXT NOT NULL,
	input_tokens  INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	total_tokens  INTEGER NOT NULL,
	total_cost    REAL NOT NULL,
	created_at    TIMESTAMP NOT NULL
);`

// Store is a SQLite-backed Recorder.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the event database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open usage db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create usage schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Record(ctx context.Context, ev Event) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_events
			(request_id, document, intent, provider, model,
			 input_tokens, output_tokens, total_tokens, total_cost, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.RequestID, ev.Document, ev.Intent, ev.Provider, ev.Model,
		ev.InputTokens, ev.OutputTokens, ev.TotalTokens, ev.TotalCost, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("record usage event: %w", err)
	}
	return nil
}

// List returns all events in insertion order.
func (s *Store) List(ctx context.Context) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT request_id, document, intent, provider, model,
		       input_tokens, output_tokens, total_tokens, total_cost, created_at
		FROM usage_events ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list usage events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.RequestID, &ev.Document, &ev.Intent, &ev.Provider, &ev.Model,
			&ev.InputTokens, &ev.OutputTokens, &ev.TotalTokens, &ev.TotalCost, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan usage event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Summarize totals the log in one query.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	var sum Summary
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(input_tokens), 0),
		       COALESCE(SUM(output_tokens), 0),
		       COALESCE(SUM(total_tokens), 0),
		       COALESCE(SUM(total_cost), 0)
		FROM usage_events`).
		Scan(&sum.Requests, &sum.InputTokens, &sum.OutputTokens, &sum.TotalTokens, &sum.TotalCost)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize usage: %w", err)
	}
	return sum, nil
}
