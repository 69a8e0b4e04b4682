package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/agentcanvas/agentcanvas/builder"
	"github.com/agentcanvas/agentcanvas/registry"
)

func testSnapshot(t *testing.T) builder.Snapshot {
	t.Helper()
	g := builder.New("support-bot")
	in, err := g.AddNode("input", 10, 10)
	if err != nil {
		t.Fatalf("add node: %v", err)
	}
	llm, err := g.AddNode("llm", 200, 10)
	if err != nil {
		t.Fatalf("add node: %v", err)
	}
	if err := g.SetProperty(llm.ID, "model", "gpt-4"); err != nil {
		t.Fatalf("set model: %v", err)
	}
	if _, err := g.AddConnection(in.ID, llm.ID); err != nil {
		t.Fatalf("connect: %v", err)
	}
	return g.Snapshot()
}

func TestStore_SaveLoadListDelete(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatalf("new registry store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	saved, err := store.Save(ctx, registry.Record{Name: "MyAgent", Agent: testSnapshot(t)})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.UpdatedAt.IsZero() {
		t.Fatalf("updatedAt not set")
	}

	loaded, err := store.Load(ctx, "MyAgent")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Agent.Nodes) != 2 || len(loaded.Agent.Connections) != 1 {
		t.Fatalf("snapshot shape lost: %d nodes, %d connections", len(loaded.Agent.Nodes), len(loaded.Agent.Connections))
	}
	if _, err := builder.FromSnapshot(loaded.Agent); err != nil {
		t.Fatalf("restore from loaded snapshot: %v", err)
	}

	records, err := store.List(ctx)
	if err != nil || len(records) != 1 {
		t.Fatalf("list: %v len=%d", err, len(records))
	}

	if err := store.Delete(ctx, "MyAgent"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(ctx, "MyAgent"); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, "MyAgent"); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStore_OverwriteKeepsCreatedAt(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatalf("new registry store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	first, err := store.Save(ctx, registry.Record{Name: "MyAgent", Agent: testSnapshot(t)})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := store.Save(ctx, registry.Record{Name: "MyAgent", Agent: testSnapshot(t)})
	if err != nil {
		t.Fatalf("save again: %v", err)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("overwrite changed createdAt: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
}
