// Package sqlite persists the run event log so the execution history and
// statistics survive restarts.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/agentcanvas/agentcanvas/runlog"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("runlog sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create runlog db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open runlog sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable wal: %w", err)
	}
	if _, err := db.ExecContext(context.Background(), schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize runlog schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) SaveEvent(ctx context.Context, event runlog.Event) error {
	event.Normalize()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	attrs, err := json.Marshal(event.Attributes)
	if err != nil {
		return fmt.Errorf("encode event attributes: %w", err)
	}
	const q = `
INSERT INTO run_events (
  event_id, run_id, session_id, status, prompt, response, error, duration_ms, attributes, timestamp
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`
	_, err = s.db.ExecContext(
		ctx,
		q,
		event.ID,
		event.RunID,
		event.SessionID,
		string(event.Status),
		event.Prompt,
		event.Response,
		event.Error,
		event.DurationMs,
		string(attrs),
		event.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save run event: %w", err)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, query runlog.ListQuery) ([]runlog.Event, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = runlog.DisplayTail
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}
	const q = `
SELECT event_id, run_id, session_id, status, prompt, response, error, duration_ms, attributes, timestamp
FROM run_events
ORDER BY timestamp DESC
LIMIT ? OFFSET ?;
`
	rows, err := s.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list run events: %w", err)
	}
	defer rows.Close()
	out := []runlog.Event{}
	for rows.Next() {
		var (
			event     runlog.Event
			status    string
			attrs     string
			timestamp string
		)
		if err := rows.Scan(
			&event.ID,
			&event.RunID,
			&event.SessionID,
			&status,
			&event.Prompt,
			&event.Response,
			&event.Error,
			&event.DurationMs,
			&attrs,
			&timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan run event: %w", err)
		}
		event.Status = runlog.Status(status)
		if attrs != "" {
			_ = json.Unmarshal([]byte(attrs), &event.Attributes)
		}
		if t, err := time.Parse(time.RFC3339Nano, timestamp); err == nil {
			event.Timestamp = t
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

func (s *Store) Metrics(ctx context.Context) (runlog.Summary, error) {
	const q = `
SELECT
  COUNT(*) FILTER (WHERE status IN ('completed', 'failed')),
  COUNT(*) FILTER (WHERE status = 'completed'),
  COUNT(*) FILTER (WHERE status = 'failed'),
  COALESCE(AVG(duration_ms) FILTER (WHERE status IN ('completed', 'failed')), 0)
FROM run_events;
`
	var out runlog.Summary
	row := s.db.QueryRowContext(ctx, q)
	if err := row.Scan(&out.TotalRuns, &out.SuccessfulRuns, &out.FailedRuns, &out.AvgDurationMs); err != nil {
		return runlog.Summary{}, fmt.Errorf("aggregate run metrics: %w", err)
	}
	return out, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
