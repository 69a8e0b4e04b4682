package api

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// wsHub fans canvas events out to connected websocket editors. It is the
// push half of canvas sync; mutations still arrive over the REST routes.
type wsHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func newWSHub() *wsHub {
	return &wsHub{conns: map[*websocket.Conn]bool{}}
}

// join writes the opening snapshot and registers the connection while
// holding the hub lock, so no broadcast lands between the two and the
// client never starts stale.
func (h *wsHub) join(conn *websocket.Conn, hello func() StreamEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := conn.WriteJSON(hello()); err != nil {
		return err
	}
	h.conns[conn] = true
	return nil
}

func (h *wsHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}

func (h *wsHub) broadcast(event StreamEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteJSON(event); err != nil {
			_ = conn.Close()
			delete(h.conns, conn)
		}
	}
}

func (h *wsHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		_ = conn.Close()
	}
	h.conns = map[*websocket.Conn]bool{}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The builder UI is served from arbitrary dev origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *Server) handleCanvasWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}
	hello := func() StreamEvent {
		return StreamEvent{Type: "canvas.snapshot", Data: s.snapshot()}
	}
	if err := s.ws.join(conn, hello); err != nil {
		_ = conn.Close()
		return
	}

	// Reader loop keeps the connection alive and notices the close.
	go func() {
		defer func() {
			s.ws.remove(conn)
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
