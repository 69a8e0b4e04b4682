// Package api exposes the canvas builder over HTTP for the visual editor:
// canvas mutations, config export, the saved-agent registry, simulated runs,
// the run log, and live updates over SSE and websocket.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/agentcanvas/agentcanvas/builder"
	"github.com/agentcanvas/agentcanvas/registry"
	"github.com/agentcanvas/agentcanvas/runlog"
	"github.com/agentcanvas/agentcanvas/simulate"
)

type Config struct {
	Addr string

	// APIKey, when set, is required on every request (X-API-Key header,
	// bearer token, or api_key query parameter). Empty means open access,
	// which is the expected mode for a local builder UI.
	APIKey           string
	AllowLocalNoAuth bool

	Registry registry.Store
	Runs     runlog.Store
	Runner   simulate.Runner

	// CanvasName seeds the name of the active graph.
	CanvasName string
}

type Server struct {
	cfg    Config
	stream *eventStream
	mux    *http.ServeMux
	http   *http.Server
	once   sync.Once

	canvasMu sync.Mutex
	canvas   *builder.Graph

	ws *wsHub
}

func NewServer(cfg Config) *Server {
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = "127.0.0.1:7070"
	}
	if strings.TrimSpace(cfg.CanvasName) == "" {
		cfg.CanvasName = "Visual Agent"
	}
	s := &Server{
		cfg:    cfg,
		stream: newEventStream(),
		mux:    http.NewServeMux(),
		canvas: builder.New(cfg.CanvasName),
		ws:     newWSHub(),
	}
	s.registerRoutes()
	s.http = &http.Server{Addr: cfg.Addr, Handler: s.mux}
	return s
}

func (s *Server) Handler() http.Handler {
	if s == nil {
		return http.NotFoundHandler()
	}
	return s.mux
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("server is nil")
	}
	errCh := make(chan error, 1)
	go func() {
		err := s.http.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		log.Println("\n⏳ Shutdown signal received, gracefully stopping...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			log.Printf("⚠️  HTTP shutdown error: %v", err)
		}
		log.Println("✅ Server stopped")
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (s *Server) Close() error {
	if s == nil {
		return nil
	}
	var outErr error
	s.once.Do(func() {
		log.Println("⏳ Closing server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.ws.closeAll()
		outErr = s.http.Shutdown(shutdownCtx)
		if outErr != nil {
			log.Printf("⚠️  Server close error: %v", outErr)
		} else {
			log.Println("✅ Server closed")
		}
	})
	return outErr
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/api/v1/components", s.require(s.handleComponents))

	s.mux.HandleFunc("/api/v1/canvas", s.require(s.handleCanvas))
	s.mux.HandleFunc("/api/v1/canvas/nodes", s.require(s.handleCanvasNodes))
	s.mux.HandleFunc("/api/v1/canvas/nodes/", s.require(s.handleCanvasNodeByID))
	s.mux.HandleFunc("/api/v1/canvas/connections", s.require(s.handleCanvasConnections))
	s.mux.HandleFunc("/api/v1/canvas/connections/", s.require(s.handleCanvasConnectionByID))
	s.mux.HandleFunc("/api/v1/canvas/demo/node", s.require(s.handleDemoNode))
	s.mux.HandleFunc("/api/v1/canvas/demo/connection", s.require(s.handleDemoConnection))
	s.mux.HandleFunc("/api/v1/canvas/export", s.require(s.handleExport))
	s.mux.HandleFunc("/api/v1/canvas/import", s.require(s.handleImport))
	s.mux.HandleFunc("/api/v1/canvas/schema", s.require(s.handleSchema))
	s.mux.HandleFunc("/api/v1/canvas/ws", s.require(s.handleCanvasWS))

	s.mux.HandleFunc("/api/v1/agents", s.require(s.handleAgents))
	s.mux.HandleFunc("/api/v1/agents/", s.require(s.handleAgentByName))

	s.mux.HandleFunc("/api/v1/simulate/run", s.require(s.handleSimulateRun))
	s.mux.HandleFunc("/api/v1/runs/log", s.require(s.handleRunLog))
	s.mux.HandleFunc("/api/v1/metrics/summary", s.require(s.handleMetrics))
	s.mux.HandleFunc("/api/v1/stream/events", s.require(s.handleSSE))
}

func (s *Server) require(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.authenticate(r); err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		h(w, r)
	}
}

func (s *Server) authenticate(r *http.Request) error {
	if s.cfg.APIKey == "" {
		return nil
	}
	key := extractAPIKey(r)
	if key == "" {
		if s.cfg.AllowLocalNoAuth && isLocalRequest(r.RemoteAddr) {
			return nil
		}
		return fmt.Errorf("missing API key")
	}
	if subtle.ConstantTimeCompare([]byte(key), []byte(s.cfg.APIKey)) != 1 {
		return fmt.Errorf("invalid API key")
	}
	return nil
}

func extractAPIKey(r *http.Request) string {
	if r == nil {
		return ""
	}
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key
	}
	if authz := strings.TrimSpace(r.Header.Get("Authorization")); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	if key := strings.TrimSpace(r.URL.Query().Get("api_key")); key != "" {
		return key
	}
	return ""
}

func isLocalRequest(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	ip := net.ParseIP(strings.TrimSpace(host))
	if ip != nil {
		return ip.IsLoopback()
	}
	return host == "localhost"
}

// snapshot returns a consistent copy of the active canvas.
func (s *Server) snapshot() builder.Snapshot {
	s.canvasMu.Lock()
	defer s.canvasMu.Unlock()
	return s.canvas.Snapshot()
}

// broadcast pushes a canvas change to every SSE and websocket watcher.
func (s *Server) broadcast(eventType string, data any) {
	event := StreamEvent{Type: eventType, Data: data}
	s.stream.publish(event)
	s.ws.broadcast(event)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if s.cfg.Runs == nil {
		writeJSON(w, http.StatusOK, runlog.Summary{})
		return
	}
	summary, err := s.cfg.Runs.Metrics(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("streaming unsupported"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	id, ch := s.stream.subscribe(128)
	defer s.stream.unsubscribe(id)

	// Opening snapshot so a late subscriber starts from the current canvas.
	if payload, err := json.Marshal(StreamEvent{Type: "canvas.snapshot", Data: s.snapshot()}); err == nil {
		_, _ = w.Write([]byte("data: "))
		_, _ = w.Write(payload)
		_, _ = w.Write([]byte("\n\n"))
		flusher.Flush()
	}

	ping := time.NewTicker(15 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ping.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return // client disconnected
			}
			flusher.Flush()
		case event, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if _, err := w.Write([]byte("data: ")); err != nil {
				return
			}
			if _, err := w.Write(payload); err != nil {
				return
			}
			if _, err := w.Write([]byte("\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
