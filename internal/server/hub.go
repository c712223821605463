package server

import (
	"context"
	"sync"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"homestead/internal/protocol"
)

// Hub maintains the set of active clients and the games they joined.
type Hub struct {
	log *zap.Logger

	mu          sync.RWMutex
	closed      bool
	clients     map[*Client]bool
	gameClients map[string]map[*Client]bool
}

// NewHub creates a new Hub.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:         log,
		clients:     make(map[*Client]bool),
		gameClients: make(map[string]map[*Client]bool),
	}
}

// Run waits for ctx to end and then closes every connection.
func (h *Hub) Run(ctx context.Context) error {
	<-ctx.Done()

	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
	h.log.Info("hub stopped", zap.Int("clients", len(clients)))
	return ctx.Err()
}

// Register adds a client. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = true
	h.log.Debug("client connected", zap.String("client", c.ID()), zap.Int("clients", len(h.clients)))
	return true
}

// Unregister removes a client from the hub and from its game.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	if gameID := c.GameID(); gameID != "" {
		h.leave(c, gameID)
	}
	h.log.Debug("client disconnected", zap.String("client", c.ID()), zap.String("player", c.PlayerID()))
}

// Join binds a client to a game seat, leaving any game it was in.
func (h *Hub) Join(c *Client, gameID, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old := c.GameID(); old != "" {
		h.leave(c, old)
	}
	if h.gameClients[gameID] == nil {
		h.gameClients[gameID] = make(map[*Client]bool)
	}
	h.gameClients[gameID][c] = true
	c.bind(gameID, playerID)
}

func (h *Hub) leave(c *Client, gameID string) {
	if clients, ok := h.gameClients[gameID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.gameClients, gameID)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a message to every client in a game.
func (h *Hub) Broadcast(gameID string, msgType protocol.MessageType, payload any) {
	msg := mustMessage(msgType, "", payload)

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.gameClients[gameID]))
	for c := range h.gameClients[gameID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}
