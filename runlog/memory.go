package runlog

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

const defaultCapacity = 256

// MemoryStore is a capped in-memory event log. When the cap is reached the
// oldest events fall off; metrics keep counting past evicted entries so the
// statistics panel stays accurate.
type MemoryStore struct {
	mu      sync.Mutex
	cap     int
	events  []Event
	summary Summary

	// running total for the average; completed and failed runs both count.
	durationTotalMs int64
	durationCount   int64
}

func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &MemoryStore{cap: capacity}
}

func (m *MemoryStore) SaveEvent(ctx context.Context, event Event) error {
	_ = ctx
	event.Normalize()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	if len(m.events) > m.cap {
		m.events = m.events[len(m.events)-m.cap:]
	}
	switch event.Status {
	case StatusCompleted:
		m.summary.TotalRuns++
		m.summary.SuccessfulRuns++
		m.durationTotalMs += event.DurationMs
		m.durationCount++
	case StatusFailed:
		m.summary.TotalRuns++
		m.summary.FailedRuns++
		m.durationTotalMs += event.DurationMs
		m.durationCount++
	}
	return nil
}

// Emit makes the store usable directly as a Sink.
func (m *MemoryStore) Emit(ctx context.Context, event Event) error {
	return m.SaveEvent(ctx, event)
}

func (m *MemoryStore) ListEvents(ctx context.Context, query ListQuery) ([]Event, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	limit := query.Limit
	if limit <= 0 {
		limit = DisplayTail
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}
	// Newest first.
	out := make([]Event, 0, limit)
	for i := len(m.events) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.events[i])
	}
	return out, nil
}

func (m *MemoryStore) Metrics(ctx context.Context) (Summary, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.summary
	if m.durationCount > 0 {
		out.AvgDurationMs = float64(m.durationTotalMs) / float64(m.durationCount)
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
