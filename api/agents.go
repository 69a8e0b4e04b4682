package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/agentcanvas/agentcanvas/builder"
	"github.com/agentcanvas/agentcanvas/registry"
)

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if s.cfg.Registry == nil {
		writeError(w, http.StatusNotImplemented, fmt.Errorf("agent registry not configured"))
		return
	}
	records, err := s.cfg.Registry.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"agents": records})
}

// handleAgentByName covers the saved-agent subresources:
//
//	PUT    /api/v1/agents/{name}       save the active canvas under name
//	GET    /api/v1/agents/{name}       fetch the saved record
//	DELETE /api/v1/agents/{name}       remove the saved record
//	POST   /api/v1/agents/{name}/load  replace the active canvas with it
func (s *Server) handleAgentByName(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Registry == nil {
		writeError(w, http.StatusNotImplemented, fmt.Errorf("agent registry not configured"))
		return
	}
	parts := splitPath(strings.TrimPrefix(r.URL.Path, "/api/v1/agents/"))
	if len(parts) == 0 {
		writeError(w, http.StatusNotFound, fmt.Errorf("agent name is required"))
		return
	}
	name, err := url.PathUnescape(parts[0])
	if err != nil || strings.TrimSpace(name) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid agent name"))
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodPut:
		s.canvasMu.Lock()
		s.canvas.Rename(name)
		snap := s.canvas.Snapshot()
		s.canvasMu.Unlock()
		record, err := s.cfg.Registry.Save(r.Context(), registry.Record{Name: name, Agent: snap})
		if err != nil {
			writeModelError(w, err)
			return
		}
		s.broadcast("agent.saved", map[string]any{"name": name})
		writeJSON(w, http.StatusOK, record)
	case len(parts) == 1 && r.Method == http.MethodGet:
		record, err := s.cfg.Registry.Load(r.Context(), name)
		if err != nil {
			writeModelError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, record)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		if err := s.cfg.Registry.Delete(r.Context(), name); err != nil {
			writeModelError(w, err)
			return
		}
		s.broadcast("agent.deleted", map[string]any{"name": name})
		writeJSON(w, http.StatusOK, map[string]any{"deleted": name})
	case len(parts) == 2 && parts[1] == "load" && r.Method == http.MethodPost:
		record, err := s.cfg.Registry.Load(r.Context(), name)
		if err != nil {
			writeModelError(w, err)
			return
		}
		g, err := builder.FromSnapshot(record.Agent)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("restore agent %q: %w", name, err))
			return
		}
		s.canvasMu.Lock()
		s.canvas = g
		snap := s.canvas.Snapshot()
		s.canvasMu.Unlock()
		s.broadcast("agent.loaded", snap)
		writeJSON(w, http.StatusOK, snap)
	default:
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}
