package registry

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps saved agents in process memory, matching the original
// single-session behavior. Records are deep-copied on the way in and out so
// later canvas edits never mutate a saved design.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]Record{}}
}

func (m *MemoryStore) Save(ctx context.Context, record Record) (Record, error) {
	_ = ctx
	record.Name = strings.TrimSpace(record.Name)
	if record.Name == "" {
		return Record{}, errEmptyName()
	}
	now := time.Now().UTC()
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.records[record.Name]; ok {
		record.CreatedAt = existing.CreatedAt
	} else if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	record.Agent = record.Agent.Clone()
	m.records[record.Name] = record
	return cloneRecord(record), nil
}

func (m *MemoryStore) Load(ctx context.Context, name string) (Record, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[strings.TrimSpace(name)]
	if !ok {
		return Record{}, ErrNotFound
	}
	return cloneRecord(record), nil
}

func (m *MemoryStore) List(ctx context.Context) ([]Record, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, 0, len(m.records))
	for _, record := range m.records {
		out = append(out, cloneRecord(record))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) Delete(ctx context.Context, name string) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.TrimSpace(name)
	if _, ok := m.records[key]; !ok {
		return ErrNotFound
	}
	delete(m.records, key)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func cloneRecord(record Record) Record {
	record.Agent = record.Agent.Clone()
	return record
}
