// Package redis backs the saved-agent registry with Redis, for setups where
// several builder instances want to share one set of named designs.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/agentcanvas/agentcanvas/registry"
)

const defaultPrefix = "agentcanvas"

type Store struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration

	addr     string
	db       int
	password string
}

type Option func(*Store)

func WithPassword(password string) Option {
	return func(s *Store) { s.password = password }
}

func WithDB(db int) Option {
	return func(s *Store) { s.db = db }
}

// WithTTL expires saved agents after the given duration. Zero keeps them
// forever, which is the default.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if strings.TrimSpace(prefix) != "" {
			s.prefix = strings.TrimSpace(prefix)
		}
	}
}

func WithClient(client *goredis.Client) Option {
	return func(s *Store) {
		if client != nil {
			s.client = client
		}
	}
}

func New(addr string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	s := &Store{prefix: defaultPrefix, addr: addr}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = goredis.NewClient(&goredis.Options{
			Addr:     s.addr,
			Password: s.password,
			DB:       s.db,
		})
	}
	return s, nil
}

func (s *Store) agentKey(name string) string {
	return s.prefix + ":agent:" + name
}

func (s *Store) indexKey() string {
	return s.prefix + ":agents"
}

func (s *Store) Save(ctx context.Context, record registry.Record) (registry.Record, error) {
	record.Name = strings.TrimSpace(record.Name)
	if record.Name == "" {
		return registry.Record{}, fmt.Errorf("agent name is required")
	}
	now := time.Now().UTC()
	if existing, err := s.Load(ctx, record.Name); err == nil {
		record.CreatedAt = existing.CreatedAt
	} else if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	raw, err := json.Marshal(record)
	if err != nil {
		return registry.Record{}, fmt.Errorf("encode agent record: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.agentKey(record.Name), raw, s.ttl)
	pipe.SAdd(ctx, s.indexKey(), record.Name)
	if _, err := pipe.Exec(ctx); err != nil {
		return registry.Record{}, fmt.Errorf("save agent %q: %w", record.Name, err)
	}
	return record, nil
}

func (s *Store) Load(ctx context.Context, name string) (registry.Record, error) {
	raw, err := s.client.Get(ctx, s.agentKey(strings.TrimSpace(name))).Result()
	if errors.Is(err, goredis.Nil) {
		return registry.Record{}, registry.ErrNotFound
	}
	if err != nil {
		return registry.Record{}, fmt.Errorf("load agent %q: %w", name, err)
	}
	var record registry.Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return registry.Record{}, fmt.Errorf("decode agent record %q: %w", name, err)
	}
	return record, nil
}

func (s *Store) List(ctx context.Context) ([]registry.Record, error) {
	names, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	out := make([]registry.Record, 0, len(names))
	for _, name := range names {
		record, err := s.Load(ctx, name)
		if errors.Is(err, registry.ErrNotFound) {
			// The value expired; drop the stale index entry.
			_ = s.client.SRem(ctx, s.indexKey(), name).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	key := s.agentKey(strings.TrimSpace(name))
	removed, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("delete agent %q: %w", name, err)
	}
	_ = s.client.SRem(ctx, s.indexKey(), strings.TrimSpace(name)).Err()
	if removed == 0 {
		return registry.ErrNotFound
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
