// Package builder holds the authoritative node/connection state of one
// agent canvas and exposes the structural mutators the display layer calls
// in response to user gestures. The graph is plain data plus validation; it
// is not safe for concurrent use and leaves serialization of access to the
// caller.
package builder

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Connection is a directed edge between two nodes. Ports default to
// "output" -> "input" and the condition label defaults to "default".
type Connection struct {
	ID        string
	From      string
	To        string
	FromPort  string
	ToPort    string
	Condition string
}

const (
	DefaultFromPort  = "output"
	DefaultToPort    = "input"
	DefaultCondition = "default"
)

// ConnectionOption customizes a connection at creation time.
type ConnectionOption func(*Connection)

func WithPorts(fromPort, toPort string) ConnectionOption {
	return func(c *Connection) {
		if fromPort != "" {
			c.FromPort = fromPort
		}
		if toPort != "" {
			c.ToPort = toPort
		}
	}
}

func WithCondition(condition string) ConnectionOption {
	return func(c *Connection) {
		if condition != "" {
			c.Condition = condition
		}
	}
}

// Graph is the full node/connection collection representing one agent
// design. Nodes keep insertion order (used only for display); connections
// keep insertion order so the exported flow list is deterministic.
type Graph struct {
	name        string
	createdAt   time.Time
	nodes       []*Node
	connections []*Connection
}

// New creates an empty graph. The creation timestamp is fixed here so that
// exports are a pure function of graph state.
func New(name string) *Graph {
	return &Graph{
		name:      name,
		createdAt: time.Now().UTC(),
	}
}

func (g *Graph) Name() string         { return g.name }
func (g *Graph) CreatedAt() time.Time { return g.createdAt }

// Rename sets the display name of the graph.
func (g *Graph) Rename(name string) { g.name = name }

// Nodes returns the nodes in insertion order. The slice is a copy; the
// pointed-to nodes are live.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Connections returns the connections in insertion order.
func (g *Graph) Connections() []*Connection {
	out := make([]*Connection, len(g.connections))
	copy(out, g.connections)
	return out
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *Node {
	for _, n := range g.nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// AddNode appends a new node of the given type at (x, y). The id is fresh
// and unique within the graph; the default name is "<Type>_<id-suffix>".
func (g *Graph) AddNode(nodeType string, x, y float64) (*Node, error) {
	t, err := ParseNodeType(nodeType)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	n := &Node{
		ID:     id,
		Type:   t,
		Name:   fmt.Sprintf("%s_%s", t.Display(), id[len(id)-4:]),
		X:      x,
		Y:      y,
		Config: newConfig(t),
	}
	g.nodes = append(g.nodes, n)
	return n, nil
}

// AddConnection pairs two existing nodes. Both endpoints must exist and must
// differ; on failure the graph is left unchanged.
func (g *Graph) AddConnection(from, to string, opts ...ConnectionOption) (*Connection, error) {
	if g.Node(from) == nil {
		return nil, fmt.Errorf("connection source %q: %w", from, ErrUnknownNode)
	}
	if g.Node(to) == nil {
		return nil, fmt.Errorf("connection target %q: %w", to, ErrUnknownNode)
	}
	if from == to {
		return nil, fmt.Errorf("connection %q -> %q: %w", from, to, ErrSelfLoop)
	}
	c := &Connection{
		ID:        uuid.NewString(),
		From:      from,
		To:        to,
		FromPort:  DefaultFromPort,
		ToPort:    DefaultToPort,
		Condition: DefaultCondition,
	}
	for _, opt := range opts {
		opt(c)
	}
	g.connections = append(g.connections, c)
	return c, nil
}

// SetProperty stores a property on a node. "name" renames the node;
// "temperature" is clamped to [0, 1]; "model", "tool_type" and
// "memory_type" must come from their fixed enumerations. Recognized keys
// land on the node's typed config when the variant carries them; everything
// else is kept verbatim in the node's extra mapping. The graph is unchanged
// when an error is returned.
func (g *Graph) SetProperty(nodeID, key string, value any) error {
	n := g.Node(nodeID)
	if n == nil {
		return fmt.Errorf("node %q: %w", nodeID, ErrUnknownNode)
	}

	switch key {
	case "name":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("node name must be a string: %w", ErrInvalidType)
		}
		n.Name = s
		return nil
	case "temperature":
		f, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("temperature %v is not numeric: %w", value, ErrInvalidType)
		}
		value = clamp01(f)
	case "model":
		s, ok := value.(string)
		if !ok || !contains(Models, s) {
			return fmt.Errorf("model %v: %w", value, ErrInvalidType)
		}
	case "tool_type":
		s, ok := value.(string)
		if !ok || !contains(ToolTypes, s) {
			return fmt.Errorf("tool_type %v: %w", value, ErrInvalidType)
		}
	case "memory_type":
		s, ok := value.(string)
		if !ok || !contains(MemoryTypes, s) {
			return fmt.Errorf("memory_type %v: %w", value, ErrInvalidType)
		}
	}

	if n.Config != nil && n.Config.set(key, value) {
		return nil
	}
	if n.Extra == nil {
		n.Extra = map[string]any{}
	}
	n.Extra[key] = value
	return nil
}

// RemoveNode deletes a node and cascade-removes every connection that
// references it, so the graph never holds dangling endpoints.
func (g *Graph) RemoveNode(id string) error {
	idx := -1
	for i, n := range g.nodes {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("node %q: %w", id, ErrUnknownNode)
	}
	g.nodes = append(g.nodes[:idx], g.nodes[idx+1:]...)

	kept := g.connections[:0]
	for _, c := range g.connections {
		if c.From == id || c.To == id {
			continue
		}
		kept = append(kept, c)
	}
	g.connections = kept
	return nil
}

// RemoveConnection deletes a single connection by id.
func (g *Graph) RemoveConnection(id string) error {
	for i, c := range g.connections {
		if c.ID == id {
			g.connections = append(g.connections[:i], g.connections[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("connection %q: %w", id, ErrUnknownConnection)
}

// Clear empties both collections atomically. It cannot fail.
func (g *Graph) Clear() {
	g.nodes = nil
	g.connections = nil
}

func toFloat(v any) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	case int:
		return float64(f), true
	case int64:
		return float64(f), true
	case json.Number:
		out, err := f.Float64()
		return out, err == nil
	}
	return 0, false
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
