package builder

import (
	"fmt"
	"time"
)

// Snapshot is the full-fidelity, serializable form of a graph. Unlike the
// export document it keeps connection ports, so a graph restored from a
// snapshot is indistinguishable from the original.
type Snapshot struct {
	Name        string               `json:"name"`
	CreatedAt   time.Time            `json:"createdAt"`
	Nodes       []NodeSnapshot       `json:"nodes"`
	Connections []ConnectionSnapshot `json:"connections"`
}

type NodeSnapshot struct {
	ID     string         `json:"id"`
	Type   NodeType       `json:"type"`
	Name   string         `json:"name"`
	X      float64        `json:"x"`
	Y      float64        `json:"y"`
	Config map[string]any `json:"config,omitempty"`
}

type ConnectionSnapshot struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	FromPort  string `json:"fromPort"`
	ToPort    string `json:"toPort"`
	Condition string `json:"condition"`
}

// Snapshot captures the current graph state as plain values.
func (g *Graph) Snapshot() Snapshot {
	s := Snapshot{
		Name:        g.name,
		CreatedAt:   g.createdAt,
		Nodes:       make([]NodeSnapshot, 0, len(g.nodes)),
		Connections: make([]ConnectionSnapshot, 0, len(g.connections)),
	}
	for _, n := range g.nodes {
		ns := NodeSnapshot{ID: n.ID, Type: n.Type, Name: n.Name, X: n.X, Y: n.Y}
		if cfg := n.ConfigMap(); len(cfg) > 0 {
			ns.Config = cfg
		}
		s.Nodes = append(s.Nodes, ns)
	}
	for _, c := range g.connections {
		s.Connections = append(s.Connections, ConnectionSnapshot{
			ID:        c.ID,
			From:      c.From,
			To:        c.To,
			FromPort:  c.FromPort,
			ToPort:    c.ToPort,
			Condition: c.Condition,
		})
	}
	return s
}

// FromSnapshot rebuilds a graph from a snapshot, re-validating node types,
// property enumerations and connection endpoints on the way in.
func FromSnapshot(s Snapshot) (*Graph, error) {
	g := &Graph{name: s.Name, createdAt: s.CreatedAt}
	if g.createdAt.IsZero() {
		g.createdAt = time.Now().UTC()
	}
	for _, ns := range s.Nodes {
		t, err := ParseNodeType(string(ns.Type))
		if err != nil {
			return nil, err
		}
		if ns.ID == "" {
			return nil, fmt.Errorf("snapshot node without id: %w", ErrUnknownNode)
		}
		n := &Node{ID: ns.ID, Type: t, Name: ns.Name, X: ns.X, Y: ns.Y, Config: newConfig(t)}
		g.nodes = append(g.nodes, n)
		for k, v := range ns.Config {
			if err := g.SetProperty(n.ID, k, v); err != nil {
				return nil, fmt.Errorf("snapshot node %q: %w", n.ID, err)
			}
		}
	}
	for _, cs := range s.Connections {
		opts := []ConnectionOption{WithPorts(cs.FromPort, cs.ToPort), WithCondition(cs.Condition)}
		c, err := g.AddConnection(cs.From, cs.To, opts...)
		if err != nil {
			return nil, fmt.Errorf("snapshot connection %q: %w", cs.ID, err)
		}
		if cs.ID != "" {
			c.ID = cs.ID
		}
	}
	return g, nil
}

// Clone returns a deep copy of the snapshot, detaching node config maps and
// any nested map or slice values inside them.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Nodes = make([]NodeSnapshot, len(s.Nodes))
	for i, n := range s.Nodes {
		cp := n
		if n.Config != nil {
			cp.Config = deepCopyValue(n.Config).(map[string]any)
		}
		out.Nodes[i] = cp
	}
	out.Connections = make([]ConnectionSnapshot, len(s.Connections))
	copy(out.Connections, s.Connections)
	return out
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	out := &Graph{name: g.name, createdAt: g.createdAt}
	out.nodes = make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out.nodes = append(out.nodes, n.clone())
	}
	out.connections = make([]*Connection, 0, len(g.connections))
	for _, c := range g.connections {
		cc := *c
		out.connections = append(out.connections, &cc)
	}
	return out
}
