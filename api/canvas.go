package api

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"

	"github.com/agentcanvas/agentcanvas/builder"
	"github.com/agentcanvas/agentcanvas/components"
	"github.com/agentcanvas/agentcanvas/export"
)

type addNodeRequest struct {
	Type       string         `json:"type"`
	Name       string         `json:"name,omitempty"`
	X          float64        `json:"x"`
	Y          float64        `json:"y"`
	Properties map[string]any `json:"properties,omitempty"`
}

type addConnectionRequest struct {
	From      string `json:"from"`
	To        string `json:"to"`
	FromPort  string `json:"fromPort,omitempty"`
	ToPort    string `json:"toPort,omitempty"`
	Condition string `json:"condition,omitempty"`
}

func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"components": components.Catalog()})
}

func (s *Server) handleCanvas(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.snapshot())
	case http.MethodDelete:
		s.canvasMu.Lock()
		s.canvas.Clear()
		snap := s.canvas.Snapshot()
		s.canvasMu.Unlock()
		s.broadcast("canvas.cleared", snap)
		writeJSON(w, http.StatusOK, snap)
	default:
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

func (s *Server) handleCanvasNodes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req addNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	node, snap, err := s.addNode(req)
	if err != nil {
		writeModelError(w, err)
		return
	}
	s.broadcast("canvas.node_added", snap)
	writeJSON(w, http.StatusCreated, node)
}

func (s *Server) addNode(req addNodeRequest) (builder.NodeSnapshot, builder.Snapshot, error) {
	s.canvasMu.Lock()
	defer s.canvasMu.Unlock()
	n, err := s.canvas.AddNode(req.Type, req.X, req.Y)
	if err != nil {
		return builder.NodeSnapshot{}, builder.Snapshot{}, err
	}
	if strings.TrimSpace(req.Name) != "" {
		if err := s.canvas.SetProperty(n.ID, "name", req.Name); err != nil {
			_ = s.canvas.RemoveNode(n.ID)
			return builder.NodeSnapshot{}, builder.Snapshot{}, err
		}
	}
	for k, v := range req.Properties {
		if err := s.canvas.SetProperty(n.ID, k, v); err != nil {
			_ = s.canvas.RemoveNode(n.ID)
			return builder.NodeSnapshot{}, builder.Snapshot{}, err
		}
	}
	snap := s.canvas.Snapshot()
	for _, ns := range snap.Nodes {
		if ns.ID == n.ID {
			return ns, snap, nil
		}
	}
	return builder.NodeSnapshot{}, builder.Snapshot{}, fmt.Errorf("node %q vanished after add: %w", n.ID, builder.ErrUnknownNode)
}

// handleCanvasNodeByID covers DELETE /canvas/nodes/{id} and
// PATCH /canvas/nodes/{id}/properties.
func (s *Server) handleCanvasNodeByID(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(strings.TrimPrefix(r.URL.Path, "/api/v1/canvas/nodes/"))
	if len(parts) == 0 {
		writeError(w, http.StatusNotFound, fmt.Errorf("node id is required"))
		return
	}
	id := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.canvasMu.Lock()
		err := s.canvas.RemoveNode(id)
		snap := s.canvas.Snapshot()
		s.canvasMu.Unlock()
		if err != nil {
			writeModelError(w, err)
			return
		}
		s.broadcast("canvas.node_removed", snap)
		writeJSON(w, http.StatusOK, snap)
	case len(parts) == 2 && parts[1] == "properties" && r.Method == http.MethodPatch:
		var props map[string]any
		if err := json.NewDecoder(r.Body).Decode(&props); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if len(props) == 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("no properties given"))
			return
		}
		// Apply to a clone and swap on success, so a rejected key leaves
		// the canvas untouched regardless of map iteration order.
		s.canvasMu.Lock()
		next := s.canvas.Clone()
		var err error
		for k, v := range props {
			if err = next.SetProperty(id, k, v); err != nil {
				break
			}
		}
		if err == nil {
			s.canvas = next
		}
		snap := s.canvas.Snapshot()
		s.canvasMu.Unlock()
		if err != nil {
			writeModelError(w, err)
			return
		}
		s.broadcast("canvas.node_updated", snap)
		writeJSON(w, http.StatusOK, snap)
	default:
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

func (s *Server) handleCanvasConnections(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req addConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.canvasMu.Lock()
	c, err := s.canvas.AddConnection(req.From, req.To,
		builder.WithPorts(req.FromPort, req.ToPort),
		builder.WithCondition(req.Condition),
	)
	snap := s.canvas.Snapshot()
	s.canvasMu.Unlock()
	if err != nil {
		writeModelError(w, err)
		return
	}
	s.broadcast("canvas.connection_added", snap)
	writeJSON(w, http.StatusCreated, builder.ConnectionSnapshot{
		ID:        c.ID,
		From:      c.From,
		To:        c.To,
		FromPort:  c.FromPort,
		ToPort:    c.ToPort,
		Condition: c.Condition,
	})
}

func (s *Server) handleCanvasConnectionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	parts := splitPath(strings.TrimPrefix(r.URL.Path, "/api/v1/canvas/connections/"))
	if len(parts) != 1 {
		writeError(w, http.StatusNotFound, fmt.Errorf("connection id is required"))
		return
	}
	s.canvasMu.Lock()
	err := s.canvas.RemoveConnection(parts[0])
	snap := s.canvas.Snapshot()
	s.canvasMu.Unlock()
	if err != nil {
		writeModelError(w, err)
		return
	}
	s.broadcast("canvas.connection_removed", snap)
	writeJSON(w, http.StatusOK, snap)
}

// handleDemoNode drops a node of a random palette type at a random spot, the
// one-click way to populate an empty canvas.
func (s *Server) handleDemoNode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	types := builder.NodeTypes()
	req := addNodeRequest{
		Type: string(types[rand.Intn(len(types))]),
		X:    50 + rand.Float64()*400,
		Y:    50 + rand.Float64()*300,
	}
	node, snap, err := s.addNode(req)
	if err != nil {
		writeModelError(w, err)
		return
	}
	s.broadcast("canvas.node_added", snap)
	writeJSON(w, http.StatusCreated, node)
}

// handleDemoConnection wires the first node on the canvas to the last one.
func (s *Server) handleDemoConnection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	s.canvasMu.Lock()
	nodes := s.canvas.Nodes()
	if len(nodes) < 2 {
		s.canvasMu.Unlock()
		writeError(w, http.StatusBadRequest, fmt.Errorf("add at least 2 nodes first"))
		return
	}
	c, err := s.canvas.AddConnection(nodes[0].ID, nodes[len(nodes)-1].ID)
	snap := s.canvas.Snapshot()
	s.canvasMu.Unlock()
	if err != nil {
		writeModelError(w, err)
		return
	}
	s.broadcast("canvas.connection_added", snap)
	writeJSON(w, http.StatusCreated, builder.ConnectionSnapshot{
		ID:        c.ID,
		From:      c.From,
		To:        c.To,
		FromPort:  c.FromPort,
		ToPort:    c.ToPort,
		Condition: c.Condition,
	})
}

// handleExport serves the current canvas as the downloadable configuration
// document, JSON by default or YAML with ?format=yaml.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	s.canvasMu.Lock()
	doc := export.FromGraph(s.canvas)
	s.canvasMu.Unlock()

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	switch format {
	case "", "json":
		raw, err := doc.EncodeJSON()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(raw)
	case "yaml", "yml":
		raw, err := doc.EncodeYAML()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		name := strings.TrimSuffix(export.Filename, ".json") + ".yaml"
		w.Header().Set("Content-Type", "application/yaml")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(raw)
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unsupported format %q", format))
	}
}

// handleImport replaces the active canvas with an uploaded configuration
// document. The document is schema-validated before anything is touched.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	doc, err := export.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.canvasMu.Lock()
	snap, err := doc.ToSnapshot(s.canvas.Name())
	if err == nil {
		var g *builder.Graph
		g, err = builder.FromSnapshot(snap)
		if err == nil {
			s.canvas = g
		}
	}
	var out builder.Snapshot
	if err == nil {
		out = s.canvas.Snapshot()
	}
	s.canvasMu.Unlock()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.broadcast("canvas.imported", out)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if r.URL.Query().Get("reflected") == "true" {
		writeJSON(w, http.StatusOK, export.ReflectedSchema())
		return
	}
	w.Header().Set("Content-Type", "application/schema+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.SchemaBytes())
}
