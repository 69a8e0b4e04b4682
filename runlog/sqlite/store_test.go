package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/agentcanvas/agentcanvas/runlog"
)

func TestStore_SaveListMetrics(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "runlog.db"))
	if err != nil {
		t.Fatalf("new runlog store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	runs := []struct {
		status   runlog.Status
		duration int64
	}{
		{runlog.StatusCompleted, 100},
		{runlog.StatusCompleted, 200},
		{runlog.StatusFailed, 300},
		{runlog.StatusStarted, 0},
	}
	for i, r := range runs {
		err := store.SaveEvent(ctx, runlog.Event{
			Timestamp:  base.Add(time.Duration(i) * time.Second),
			RunID:      "run-1",
			Status:     r.status,
			Prompt:     "What is the capital of France?",
			Response:   "Paris is the capital city of France.",
			DurationMs: r.duration,
			Attributes: map[string]any{"seq": i},
		})
		if err != nil {
			t.Fatalf("save event %d: %v", i, err)
		}
	}

	events, err := store.ListEvents(ctx, runlog.ListQuery{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("limit not applied: %d events", len(events))
	}
	if events[0].Status != runlog.StatusStarted {
		t.Fatalf("newest event not first: %+v", events[0])
	}
	if events[0].Attributes == nil {
		t.Fatalf("attributes not round-tripped")
	}

	summary, err := store.Metrics(ctx)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if summary.TotalRuns != 3 || summary.SuccessfulRuns != 2 || summary.FailedRuns != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.AvgDurationMs != 200 {
		t.Fatalf("avg duration = %v, want 200", summary.AvgDurationMs)
	}
}

func TestStore_EmptyMetrics(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "runlog.db"))
	if err != nil {
		t.Fatalf("new runlog store: %v", err)
	}
	defer func() { _ = store.Close() }()

	summary, err := store.Metrics(context.Background())
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if summary.TotalRuns != 0 || summary.AvgDurationMs != 0 {
		t.Fatalf("expected zero summary, got %+v", summary)
	}
}
