// Package dashboard implements the polling chat-transcript viewer: one
// configurable polling component that reads the transcript store and pushes
// snapshots to connected browsers.
package dashboard

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/John42506176Linux/voice-assist/internal/observability"
)

// Hub fans poll snapshots out to connected websocket clients.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan Snapshot
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.Mutex
	logger     zerolog.Logger
}

// NewHub creates a hub; call Run to start dispatching.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan Snapshot, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		logger:     logger,
	}
}

// Broadcast queues a snapshot for delivery to all clients.
func (h *Hub) Broadcast(snap Snapshot) {
	h.broadcast <- snap
}

// Run dispatches registrations and broadcasts until the broadcast channel is
// closed.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			n := len(h.clients)
			h.mu.Unlock()
			observability.SetDashboardClients(n)
			h.logger.Debug().Int("clients", n).Msg("Dashboard client connected")

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			n := len(h.clients)
			h.mu.Unlock()
			observability.SetDashboardClients(n)
			h.logger.Debug().Int("clients", n).Msg("Dashboard client disconnected")

		case snap, ok := <-h.broadcast:
			if !ok {
				return
			}
			h.mu.Lock()
			for conn := range h.clients {
				if err := conn.WriteJSON(snap); err != nil {
					h.logger.Warn().Err(err).Msg("Dashboard write failed, dropping client")
					conn.Close()
					delete(h.clients, conn)
				}
			}
			observability.SetDashboardClients(len(h.clients))
			h.mu.Unlock()
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The dashboard is an internal read-only view.
		return true
	},
}

// ServeWS upgrades the request and registers the client with the hub.
func (h *Hub) ServeWS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn().Err(err).Msg("Websocket upgrade failed")
			return
		}
		h.register <- conn

		go func() {
			defer func() { h.unregister <- conn }()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}
