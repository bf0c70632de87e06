package sse

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/bouncetimer/internal/metrics"
)

// Hub fans dashboard events out to every connected SSE client
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex
	logger  *slog.Logger
	metrics *metrics.Metrics

	// Channels for managing clients
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	pending    *backlog
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a new Hub. m may be nil.
func NewHub(logger *slog.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("component", "sse")),
		metrics:    m,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		pending:    newBacklog(),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Info("sse hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()
			h.metrics.SSEClientConnected(1)
			h.logger.Info("sse client registered",
				slog.String("operator", client.operator),
				slog.Int("total_clients", clientCount))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				clientCount := len(h.clients)
				h.mu.Unlock()
				h.metrics.SSEClientConnected(-1)
				h.logger.Info("sse client unregistered",
					slog.String("operator", client.operator),
					slog.Duration("connection_duration", time.Since(client.connectedAt)),
					slog.Int("total_clients", clientCount))
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.deliver(message)

		case <-h.pending.ready:
			h.flushPending()

		case <-h.done:
			h.mu.Lock()
			clientCount := len(h.clients)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.metrics.SSEClientConnected(-clientCount)
			h.logger.Info("sse hub stopped", slog.Int("disconnected_clients", clientCount))
			return
		}
	}
}

// deliver hands message to every client. A client that cannot keep up gets
// only the newest message of each event once it catches up.
func (h *Hub) deliver(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.pending.offer(client.send, message) {
			h.logger.Debug("sse client behind, coalescing events",
				slog.String("operator", client.operator),
				slog.Int("backlogged", client.pending.len()))
		}
	}
}

// flushPending delivers the queued messages, which predate the backlog,
// and then the backlog itself.
func (h *Hub) flushPending() {
	for drained := false; !drained; {
		select {
		case message := <-h.broadcast:
			h.deliver(message)
		default:
			drained = true
		}
	}
	for _, message := range h.pending.take() {
		h.deliver(message)
	}
}

// Register adds a client to the hub. It reports false once the hub is closed.
func (h *Hub) Register(client *Client) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast sends a message to all clients without blocking. When the hub
// falls behind, messages of the same event are coalesced to the newest.
func (h *Hub) Broadcast(message []byte) {
	if h.pending.offer(h.broadcast, message) {
		h.logger.Debug("sse hub behind, coalescing events",
			slog.Int("backlogged", h.pending.len()))
	}
}

// BroadcastEvent sends an SSE event with a name and data
func (h *Hub) BroadcastEvent(eventName, data string) {
	h.Broadcast(formatSSEMessage(eventName, data))
}

// Close shuts down the hub and disconnects every client
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// formatSSEMessage formats an SSE message with event name and data
// Multi-line data is properly formatted with "data: " prefix on each line
func formatSSEMessage(eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(eventName)
	b.WriteString("\n")
	for _, line := range splitLines(data) {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}

// splitLines splits a string into lines, handling various line endings
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
