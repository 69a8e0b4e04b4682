package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/agentcanvas/agentcanvas/runlog"
	"github.com/agentcanvas/agentcanvas/simulate"
)

func (s *Server) handleSimulateRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if s.cfg.Runner == nil {
		writeError(w, http.StatusNotImplemented, fmt.Errorf("runner not configured"))
		return
	}
	var req simulate.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.cfg.Runner.Run(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.broadcast("run.completed", resp)
	writeJSON(w, http.StatusOK, resp)
}

// handleRunLog returns the most recent runs, newest first. The display shows
// the last 10 by default; ?limit overrides it.
func (s *Server) handleRunLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if s.cfg.Runs == nil {
		writeJSON(w, http.StatusOK, map[string]any{"runs": []runlog.Event{}})
		return
	}
	limit := parseInt(r.URL.Query().Get("limit"), runlog.DisplayTail)
	if limit <= 0 {
		limit = runlog.DisplayTail
	}
	events, err := s.cfg.Runs.ListEvents(r.Context(), runlog.ListQuery{Limit: limit})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if events == nil {
		events = []runlog.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": events})
}
