package websocket

import (
	"context"
	"sync"

	"github.com/satriahrh/confidant/utils/log"
	"go.uber.org/zap"
)

type broadcast struct {
	kind    ClientKind
	message []byte
}

type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcast
	done       chan struct{}
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcast, 64),
		done:       make(chan struct{}),
	}
}

// Run starts the hub loop until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	go h.run(ctx)
}

func (h *Hub) run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.WithCtx(client.ctx).Debug("New client registered", zap.String("kind", string(client.kind)))

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			delete(h.clients, client)
			h.mu.Unlock()
			if ok {
				client.Close()
				log.WithCtx(client.ctx).Debug("Client unregistered")
			}

		case b := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if client.kind == b.kind && !client.IsClosed() {
					client.SendMessage(b.message)
				}
			}
			h.mu.RUnlock()

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				client.Close()
			}
			h.clients = make(map[*Client]bool)
			h.mu.Unlock()
			return
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast sends a message to every connected client of the given kind
func (h *Hub) Broadcast(kind ClientKind, message []byte) {
	select {
	case h.broadcast <- broadcast{kind: kind, message: message}:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients of the given kind
func (h *Hub) ClientCount(kind ClientKind) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for client := range h.clients {
		if client.kind == kind {
			n++
		}
	}
	return n
}
