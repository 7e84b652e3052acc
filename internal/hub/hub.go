// Package hub holds the connection-facing core of the server: the client
// pumps, the open-connection set, the session registry, and the event router.
package hub

import (
	"log/slog"
	"sync"
)

// Hub tracks every open connection, authenticated or not. Presence refreshes
// go to all of them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
	}
}

func (h *Hub) Add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
	slog.Info("client connected", "conn_id", c.ID(), "total_clients", len(h.clients))
}

// Remove drops the connection from the open set. It does not close the
// client; the pumps own the connection's lifetime.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		slog.Info("client disconnected", "conn_id", c.ID(), "total_clients", len(h.clients))
	}
}

func (h *Hub) IsOpen(c *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[c]
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues the frame on every open connection.
func (h *Hub) Broadcast(frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.Send(frame)
	}
}
