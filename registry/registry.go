// Package registry stores named agent designs so a canvas can be saved and
// restored later. Records carry full builder snapshots, not the export
// document, so ports and conditions survive the round trip. Saving under an
// existing name overwrites it: last write wins.
package registry

import (
	"context"
	"errors"
	"time"

	"github.com/agentcanvas/agentcanvas/builder"
)

var ErrNotFound = errors.New("agent not found")

func errEmptyName() error { return errors.New("agent name is required") }

// Record is one saved agent design.
type Record struct {
	Name      string           `json:"name"`
	Agent     builder.Snapshot `json:"agent"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Store is a named registry of saved agents.
type Store interface {
	Save(ctx context.Context, record Record) (Record, error)
	Load(ctx context.Context, name string) (Record, error)
	List(ctx context.Context) ([]Record, error)
	Delete(ctx context.Context, name string) error
	Close() error
}
