package simulate

import (
	"context"
	"testing"

	"github.com/agentcanvas/agentcanvas/runlog"
)

func TestSimulator_ReturnsCannedResponse(t *testing.T) {
	ctx := context.Background()
	sim := New(WithSeed(42))

	canned := map[string]bool{}
	for _, r := range DefaultResponses {
		canned[r] = true
	}
	for i := 0; i < 20; i++ {
		resp, err := sim.Run(ctx, Request{Prompt: "What is the capital of France?"})
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if !canned[resp.Output] {
			t.Fatalf("output %q is not one of the canned responses", resp.Output)
		}
		if resp.RunID == "" || resp.SessionID == "" {
			t.Fatalf("missing ids: %+v", resp)
		}
		if resp.Status != "completed" {
			t.Fatalf("status = %q", resp.Status)
		}
	}
}

func TestSimulator_SeededChoiceIsDeterministic(t *testing.T) {
	ctx := context.Background()
	outputs := func(seed int64) []string {
		sim := New(WithSeed(seed))
		out := make([]string, 0, 10)
		for i := 0; i < 10; i++ {
			resp, err := sim.Run(ctx, Request{Prompt: "hi"})
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			out = append(out, resp.Output)
		}
		return out
	}
	a := outputs(7)
	b := outputs(7)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("seeded runs diverge at %d: %q vs %q", i, a[i], b[i])
		}
	}
}

func TestSimulator_RecordsRunEvents(t *testing.T) {
	ctx := context.Background()
	store := runlog.NewMemoryStore(0)
	sim := New(WithSeed(1), WithStore(store))

	if _, err := sim.Run(ctx, Request{Prompt: "What is the capital of France?", SessionID: "sess-1"}); err != nil {
		t.Fatalf("run: %v", err)
	}

	events, err := store.ListEvents(ctx, runlog.ListQuery{})
	if err != nil || len(events) != 1 {
		t.Fatalf("list: %v len=%d", err, len(events))
	}
	e := events[0]
	if e.Prompt != "What is the capital of France?" || e.Response == "" {
		t.Fatalf("event not recorded: %+v", e)
	}
	if e.SessionID != "sess-1" || e.Status != runlog.StatusCompleted {
		t.Fatalf("unexpected event: %+v", e)
	}

	summary, err := store.Metrics(ctx)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if summary.TotalRuns != 1 || summary.SuccessfulRuns != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestSimulator_EmptyPrompt(t *testing.T) {
	sim := New()
	if _, err := sim.Run(context.Background(), Request{Prompt: "  "}); err == nil {
		t.Fatalf("expected error for empty prompt")
	}
}

func TestSimulator_CustomResponses(t *testing.T) {
	sim := New(WithSeed(3), WithResponses([]string{"only answer", ""}))
	resp, err := sim.Run(context.Background(), Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if resp.Output != "only answer" {
		t.Fatalf("output = %q", resp.Output)
	}
}
