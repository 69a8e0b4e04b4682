// Package simulate stands in for an execution engine. A run never touches
// the canvas graph, a model, or a tool: it picks one of a few canned
// responses at random, which is exactly what the builder promises until a
// real backend is wired in. Runs are still recorded through runlog so the
// log and statistics behave like the real thing.
package simulate

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentcanvas/agentcanvas/runlog"
)

// DefaultResponses are the canned outputs of the simulated agent.
var DefaultResponses = []string{
	"The capital of France is Paris.",
	"Paris is the capital city of France.",
	"France's capital is Paris.",
}

type Request struct {
	Prompt    string `json:"prompt"`
	SessionID string `json:"sessionId,omitempty"`
}

type Response struct {
	Output     string `json:"output"`
	RunID      string `json:"runId"`
	SessionID  string `json:"sessionId"`
	Status     string `json:"status"`
	DurationMs int64  `json:"durationMs"`
}

// Runner is what the API layer calls to "run" the agent.
type Runner interface {
	Run(ctx context.Context, req Request) (Response, error)
}

// Simulator implements Runner with canned responses.
type Simulator struct {
	mu        sync.Mutex
	rng       *rand.Rand
	responses []string
	sink      runlog.Sink
	store     runlog.Store
}

type Option func(*Simulator)

// WithSeed makes the response choice deterministic, mostly for tests.
func WithSeed(seed int64) Option {
	return func(s *Simulator) { s.rng = rand.New(rand.NewSource(seed)) }
}

func WithResponses(responses []string) Option {
	return func(s *Simulator) {
		cleaned := make([]string, 0, len(responses))
		for _, r := range responses {
			if strings.TrimSpace(r) == "" {
				continue
			}
			cleaned = append(cleaned, r)
		}
		if len(cleaned) > 0 {
			s.responses = cleaned
		}
	}
}

// WithSink adds an extra destination for run events (SSE stream, OTel, ...).
func WithSink(sink runlog.Sink) Option {
	return func(s *Simulator) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithStore records run events for the log and statistics endpoints.
func WithStore(store runlog.Store) Option {
	return func(s *Simulator) { s.store = store }
}

func New(opts ...Option) *Simulator {
	s := &Simulator{
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		responses: DefaultResponses,
		sink:      runlog.NoopSink{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) Run(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return Response{}, fmt.Errorf("prompt is required")
	}
	start := time.Now()
	runID := uuid.NewString()
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	s.mu.Lock()
	output := s.responses[s.rng.Intn(len(s.responses))]
	s.mu.Unlock()

	resp := Response{
		Output:     output,
		RunID:      runID,
		SessionID:  sessionID,
		Status:     string(runlog.StatusCompleted),
		DurationMs: time.Since(start).Milliseconds(),
	}

	event := runlog.Event{
		Timestamp:  start.UTC(),
		RunID:      runID,
		SessionID:  sessionID,
		Status:     runlog.StatusCompleted,
		Prompt:     req.Prompt,
		Response:   output,
		DurationMs: resp.DurationMs,
		Attributes: map[string]any{"simulated": true},
	}
	if s.store != nil {
		if err := s.store.SaveEvent(ctx, event); err != nil {
			return Response{}, fmt.Errorf("record run event: %w", err)
		}
	}
	if err := s.sink.Emit(ctx, event); err != nil {
		return Response{}, fmt.Errorf("emit run event: %w", err)
	}
	return resp, nil
}
