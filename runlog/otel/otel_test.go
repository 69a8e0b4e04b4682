package otel

import (
	"context"
	"testing"

	"github.com/agentcanvas/agentcanvas/runlog"
)

func TestSink_EmitWithNoopProvider(t *testing.T) {
	sink := NewSink(nil)
	err := sink.Emit(context.Background(), runlog.Event{
		RunID:      "run-1",
		Status:     runlog.StatusCompleted,
		Prompt:     "What is the capital of France?",
		Response:   "The capital of France is Paris.",
		DurationMs: 42,
		Attributes: map[string]any{"simulated": true},
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
}

func TestSink_EmitFailure(t *testing.T) {
	sink := NewSink(nil)
	err := sink.Emit(context.Background(), runlog.Event{
		Status: runlog.StatusFailed,
		Error:  "simulated failure",
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
}
