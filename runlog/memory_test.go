package runlog

import (
	"context"
	"fmt"
	"testing"
)

func TestMemoryStore_TailNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	for i := 0; i < 15; i++ {
		err := store.SaveEvent(ctx, Event{
			Prompt:   fmt.Sprintf("prompt-%d", i),
			Response: fmt.Sprintf("response-%d", i),
			Status:   StatusCompleted,
		})
		if err != nil {
			t.Fatalf("save event: %v", err)
		}
	}

	events, err := store.ListEvents(ctx, ListQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != DisplayTail {
		t.Fatalf("default tail = %d, want %d", len(events), DisplayTail)
	}
	if events[0].Prompt != "prompt-14" || events[len(events)-1].Prompt != "prompt-5" {
		t.Fatalf("tail order wrong: first=%q last=%q", events[0].Prompt, events[len(events)-1].Prompt)
	}
}

func TestMemoryStore_CapEvictsButMetricsKeepCounting(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(5)

	for i := 0; i < 8; i++ {
		status := StatusCompleted
		if i%4 == 3 {
			status = StatusFailed
		}
		if err := store.SaveEvent(ctx, Event{Status: status, DurationMs: 10}); err != nil {
			t.Fatalf("save event: %v", err)
		}
	}

	events, err := store.ListEvents(ctx, ListQuery{Limit: 100})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 5 {
		t.Fatalf("cap not applied: %d events", len(events))
	}

	summary, err := store.Metrics(ctx)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if summary.TotalRuns != 8 || summary.SuccessfulRuns != 6 || summary.FailedRuns != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.AvgDurationMs != 10 {
		t.Fatalf("avg duration = %v, want 10", summary.AvgDurationMs)
	}
}

func TestMemoryStore_StartedEventsDoNotCountAsRuns(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	if err := store.SaveEvent(ctx, Event{Status: StatusStarted}); err != nil {
		t.Fatalf("save event: %v", err)
	}
	summary, err := store.Metrics(ctx)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if summary.TotalRuns != 0 {
		t.Fatalf("started event counted as a run: %+v", summary)
	}
}

func TestMultiSinkAndStoreSink(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryStore(0)
	b := NewMemoryStore(0)

	sink := NewMultiSink(a, StoreSink(b), nil)
	if err := sink.Emit(ctx, Event{Status: StatusCompleted}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	for name, store := range map[string]*MemoryStore{"direct": a, "wrapped": b} {
		events, err := store.ListEvents(ctx, ListQuery{})
		if err != nil || len(events) != 1 {
			t.Fatalf("%s store: %v len=%d", name, err, len(events))
		}
		if events[0].ID == "" || events[0].Timestamp.IsZero() {
			t.Fatalf("%s store event not normalized: %+v", name, events[0])
		}
	}
}

func TestMemoryStore_ListEventsNegativeOffset(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	if err := store.SaveEvent(ctx, Event{Prompt: "hi", Status: StatusCompleted}); err != nil {
		t.Fatalf("save event: %v", err)
	}

	events, err := store.ListEvents(ctx, ListQuery{Limit: 5, Offset: -3})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 || events[0].Prompt != "hi" {
		t.Fatalf("unexpected events: %+v", events)
	}
}
