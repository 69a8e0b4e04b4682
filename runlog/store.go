package runlog

import "context"

type ListQuery struct {
	Limit  int
	Offset int
}

// DisplayTail is how many log entries the sidebar shows.
const DisplayTail = 10

// Summary aggregates run outcomes, matching the builder's statistics panel.
type Summary struct {
	TotalRuns      int64   `json:"totalRuns"`
	SuccessfulRuns int64   `json:"successfulRuns"`
	FailedRuns     int64   `json:"failedRuns"`
	AvgDurationMs  float64 `json:"avgDurationMs"`
}

type Store interface {
	SaveEvent(ctx context.Context, event Event) error
	// ListEvents returns events newest first.
	ListEvents(ctx context.Context, query ListQuery) ([]Event, error)
	Metrics(ctx context.Context) (Summary, error)
	Close() error
}
