package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"campus-gate-control/internal/events"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsEventBuffer  = 64
)

// WebSocketManager pushes bus events to connected dashboard clients.
type WebSocketManager struct {
	bus      *events.Bus
	logger   *logrus.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]bool

	cancel context.CancelFunc
}

func NewWebSocketManager(bus *events.Bus, logger *logrus.Logger) *WebSocketManager {
	return &WebSocketManager{
		bus:    bus,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*websocket.Conn]bool),
	}
}

// Start subscribes to the event bus and begins forwarding events to
// connected clients.
func (m *WebSocketManager) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	sub := m.bus.Subscribe(wsEventBuffer)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-sub:
				if !ok {
					return
				}
				m.broadcast(event)
			}
		}
	}()
}

// Stop disconnects all clients and stops forwarding events.
func (m *WebSocketManager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for conn := range m.clients {
		conn.Close()
	}
	m.clients = make(map[*websocket.Conn]bool)
}

// HandleConnection upgrades an HTTP request to a WebSocket connection
// and registers it for event broadcasts.
func (m *WebSocketManager) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.WithError(err).Error("Failed to upgrade WebSocket connection")
		return
	}

	m.mu.Lock()
	m.clients[conn] = true
	count := len(m.clients)
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"remote_addr": r.RemoteAddr,
		"clients":     count,
	}).Info("WebSocket client connected")

	// Read loop exists only to detect disconnects; inbound messages
	// are discarded.
	go func() {
		defer m.removeClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// ConnectionCount returns the number of connected clients.
func (m *WebSocketManager) ConnectionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

func (m *WebSocketManager) broadcast(event events.Event) {
	m.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(m.clients))
	for conn := range m.clients {
		conns = append(conns, conn)
	}
	m.mu.Unlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(event); err != nil {
			m.logger.WithError(err).Debug("Dropping unresponsive WebSocket client")
			m.removeClient(conn)
		}
	}
}

func (m *WebSocketManager) removeClient(conn *websocket.Conn) {
	m.mu.Lock()
	if _, ok := m.clients[conn]; ok {
		delete(m.clients, conn)
		conn.Close()
	}
	m.mu.Unlock()
}
