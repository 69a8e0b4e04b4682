// Package export renders a builder graph as the downloadable agent
// configuration document and parses documents back in. The document is the
// only artifact the builder externally commits to, so its shape is pinned
// here and guarded by a JSON schema.
package export

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/agentcanvas/agentcanvas/builder"
)

// Filename is the suggested name for the downloaded configuration.
const Filename = "langchain_agent_config.json"

// AgentType tags every document produced by the visual builder.
const AgentType = "custom_visual_agent"

// Document is the exported configuration. Nodes are keyed by id; flow
// entries follow connection insertion order.
type Document struct {
	AgentType string             `json:"agent_type"`
	CreatedAt string             `json:"created_at"`
	Nodes     map[string]NodeDoc `json:"nodes"`
	Flow      []FlowEntry        `json:"flow"`
}

type NodeDoc struct {
	Type     string         `json:"type"`
	Name     string         `json:"name"`
	Position Position       `json:"position"`
	Config   map[string]any `json:"config"`
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type FlowEntry struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Condition string `json:"condition"`
}

// FromGraph produces the document for the current graph state. It is a pure
// function of that state: it never mutates the graph and two calls without
// an intervening mutation yield identical documents.
func FromGraph(g *builder.Graph) Document {
	snap := g.Snapshot()
	doc := Document{
		AgentType: AgentType,
		CreatedAt: snap.CreatedAt.UTC().Format(time.RFC3339),
		Nodes:     make(map[string]NodeDoc, len(snap.Nodes)),
		Flow:      make([]FlowEntry, 0, len(snap.Connections)),
	}
	for _, n := range snap.Nodes {
		cfg := n.Config
		if cfg == nil {
			cfg = map[string]any{}
		}
		doc.Nodes[n.ID] = NodeDoc{
			Type:     string(n.Type),
			Name:     n.Name,
			Position: Position{X: n.X, Y: n.Y},
			Config:   cfg,
		}
	}
	for _, c := range snap.Connections {
		doc.Flow = append(doc.Flow, FlowEntry{From: c.From, To: c.To, Condition: c.Condition})
	}
	return doc
}

// EncodeJSON renders the document as indented JSON, matching the download
// the display layer offers. Map keys are emitted sorted, so the output is
// deterministic.
func (d Document) EncodeJSON() ([]byte, error) {
	raw, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode config document: %w", err)
	}
	return raw, nil
}

// EncodeYAML renders the document as YAML for callers that prefer it.
func (d Document) EncodeYAML() ([]byte, error) {
	raw, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode config document as yaml: %w", err)
	}
	return raw, nil
}

// Parse decodes and validates a JSON document. Beyond the schema, every
// node id referenced by the flow list must exist as a key under nodes.
func Parse(raw []byte) (Document, error) {
	if err := Validate(raw); err != nil {
		return Document{}, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("decode config document: %w", err)
	}
	if doc.Nodes == nil {
		doc.Nodes = map[string]NodeDoc{}
	}
	for _, f := range doc.Flow {
		if _, ok := doc.Nodes[f.From]; !ok {
			return Document{}, fmt.Errorf("flow references missing node %q", f.From)
		}
		if _, ok := doc.Nodes[f.To]; !ok {
			return Document{}, fmt.Errorf("flow references missing node %q", f.To)
		}
	}
	return doc, nil
}

// ToSnapshot converts a parsed document back into a builder snapshot so an
// uploaded configuration can replace the active canvas. Ports are restored
// to their defaults; the document does not carry them.
func (d Document) ToSnapshot(name string) (builder.Snapshot, error) {
	createdAt, err := time.Parse(time.RFC3339, d.CreatedAt)
	if err != nil {
		createdAt = time.Now().UTC()
	}
	snap := builder.Snapshot{
		Name:      name,
		CreatedAt: createdAt,
	}
	ids := make([]string, 0, len(d.Nodes))
	for id := range d.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		n := d.Nodes[id]
		snap.Nodes = append(snap.Nodes, builder.NodeSnapshot{
			ID:     id,
			Type:   builder.NodeType(n.Type),
			Name:   n.Name,
			X:      n.Position.X,
			Y:      n.Position.Y,
			Config: n.Config,
		})
	}
	for i, f := range d.Flow {
		snap.Connections = append(snap.Connections, builder.ConnectionSnapshot{
			ID:        fmt.Sprintf("flow_%d", i),
			From:      f.From,
			To:        f.To,
			FromPort:  builder.DefaultFromPort,
			ToPort:    builder.DefaultToPort,
			Condition: f.Condition,
		})
	}
	return snap, nil
}
