package event

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsReadLimit    = 512
)

// WebSocketSink broadcasts transition notifications to connected
// WebSocket clients. It doubles as the http.Handler for the events
// endpoint; every connected client receives every notification.
type WebSocketSink struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	closed  bool

	seq atomic.Uint32
}

// wsMessage is the wire format pushed to clients. Local broadcasts have
// Type "changed" and no notification body.
type wsMessage struct {
	Type         string        `json:"type"` // "changed" or "transition"
	Notification *Notification `json:"notification,omitempty"`
}

// NewWebSocketSink creates a WebSocket sink. Mount it on an HTTP mux:
//
//	mux.Handle("/events", sink)
func NewWebSocketSink(logger *slog.Logger) *WebSocketSink {
	if logger == nil {
		logger = slog.Default().With("component", "websocket-sink")
	}

	return &WebSocketSink{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Dashboard clients connect from arbitrary origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the request and registers the client.
func (s *WebSocketSink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.clients[conn] = struct{}{}
	n := len(s.clients)
	s.mu.Unlock()

	s.logger.Debug("WebSocket client connected", "remote", r.RemoteAddr, "clients", n)

	// Reader loop only detects client departure; inbound data is ignored.
	go func() {
		conn.SetReadLimit(wsReadLimit)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.drop(conn)
				return
			}
		}
	}()
}

// NotifyLocal implements Sink.
func (s *WebSocketSink) NotifyLocal() {
	s.broadcast(wsMessage{Type: "changed"})
}

// NotifyRemote implements Sink. WebSocket delivery is broadcast by
// nature, so the point-to-point notification goes to every client.
func (s *WebSocketSink) NotifyRemote(_ context.Context, slotID int, label string, present bool) error {
	s.broadcast(wsMessage{
		Type: "transition",
		Notification: &Notification{
			Seq:       s.seq.Add(1),
			SlotID:    slotID,
			Label:     label,
			Present:   present,
			Timestamp: time.Now().UTC(),
		},
	})
	return nil
}

// ClientCount returns the number of connected clients.
func (s *WebSocketSink) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close disconnects all clients and rejects new ones.
func (s *WebSocketSink) Close() {
	s.mu.Lock()
	s.closed = true
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.clients = make(map[*websocket.Conn]struct{})
	s.mu.Unlock()

	for _, conn := range conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(wsWriteTimeout))
		_ = conn.Close()
	}
}

func (s *WebSocketSink) broadcast(msg wsMessage) {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			s.logger.Debug("WebSocket client dropped", "error", err)
			s.drop(conn)
		}
	}
}

func (s *WebSocketSink) drop(conn *websocket.Conn) {
	s.mu.Lock()
	_, ok := s.clients[conn]
	delete(s.clients, conn)
	s.mu.Unlock()

	if ok {
		_ = conn.Close()
	}
}
