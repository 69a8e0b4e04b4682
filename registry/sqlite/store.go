// Package sqlite persists the saved-agent registry in a local sqlite file,
// so named designs survive a restart of the builder.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/agentcanvas/agentcanvas/builder"
	"github.com/agentcanvas/agentcanvas/registry"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("registry sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create registry db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable wal: %w", err)
	}
	if _, err := db.ExecContext(context.Background(), schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize registry schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Save(ctx context.Context, record registry.Record) (registry.Record, error) {
	record.Name = strings.TrimSpace(record.Name)
	if record.Name == "" {
		return registry.Record{}, fmt.Errorf("agent name is required")
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	agentRaw, err := json.Marshal(record.Agent)
	if err != nil {
		return registry.Record{}, fmt.Errorf("encode agent snapshot: %w", err)
	}

	const q = `
INSERT INTO saved_agents (name, agent_json, created_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
  agent_json=excluded.agent_json,
  updated_at=excluded.updated_at;
`
	if _, err := s.db.ExecContext(
		ctx,
		q,
		record.Name,
		string(agentRaw),
		record.CreatedAt.Format(time.RFC3339Nano),
		record.UpdatedAt.Format(time.RFC3339Nano),
	); err != nil {
		return registry.Record{}, fmt.Errorf("save agent %q: %w", record.Name, err)
	}
	return s.Load(ctx, record.Name)
}

func (s *Store) Load(ctx context.Context, name string) (registry.Record, error) {
	const q = `
SELECT name, agent_json, created_at, updated_at
FROM saved_agents
WHERE name = ?;
`
	row := s.db.QueryRowContext(ctx, q, strings.TrimSpace(name))
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return registry.Record{}, registry.ErrNotFound
	}
	if err != nil {
		return registry.Record{}, fmt.Errorf("load agent %q: %w", name, err)
	}
	return record, nil
}

func (s *Store) List(ctx context.Context) ([]registry.Record, error) {
	const q = `
SELECT name, agent_json, created_at, updated_at
FROM saved_agents
ORDER BY updated_at DESC;
`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()
	out := []registry.Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_agents WHERE name = ?;`, strings.TrimSpace(name))
	if err != nil {
		return fmt.Errorf("delete agent %q: %w", name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete agent %q: %w", name, err)
	}
	if affected == 0 {
		return registry.ErrNotFound
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (registry.Record, error) {
	var (
		record    registry.Record
		agentRaw  string
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&record.Name, &agentRaw, &createdAt, &updatedAt); err != nil {
		return registry.Record{}, err
	}
	var snap builder.Snapshot
	if err := json.Unmarshal([]byte(agentRaw), &snap); err != nil {
		return registry.Record{}, fmt.Errorf("decode agent snapshot: %w", err)
	}
	record.Agent = snap
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		record.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		record.UpdatedAt = t
	}
	return record, nil
}
