package sse

import (
	"net/http"
	"time"
)

const (
	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Client represents a connected SSE client
type Client struct {
	hub         *Hub
	operator    string
	send        chan []byte
	pending     *backlog
	connectedAt time.Time
}

// NewClient creates a new SSE client
func NewClient(hub *Hub, operator string) *Client {
	return &Client{
		hub:         hub,
		operator:    operator,
		send:        make(chan []byte, sendBufferSize),
		pending:     newBacklog(),
		connectedAt: time.Now(),
	}
}

// ServeSSE streams hub events to one client until it disconnects.
// initial messages are written before any broadcast.
func ServeSSE(w http.ResponseWriter, r *http.Request, hub *Hub, operator string, initial ...[]byte) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	client := NewClient(hub, operator)
	if !hub.Register(client) {
		http.Error(w, "Server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer hub.Unregister(client)

	_, _ = w.Write([]byte("event: connected\ndata: {\"status\":\"connected\"}\n\n"))
	for _, msg := range initial {
		_, _ = w.Write(msg)
	}
	flusher.Flush()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				// Hub closed the channel
				return
			}
			if _, err := w.Write(message); err != nil {
				return
			}
			flusher.Flush()

		case <-client.pending.ready:
			if !drainBacklog(w, client) {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// drainBacklog writes whatever is queued on the client and then the
// coalesced backlog. It reports false once the client should stop.
func drainBacklog(w http.ResponseWriter, client *Client) bool {
	for drained := false; !drained; {
		select {
		case message, ok := <-client.send:
			if !ok {
				return false
			}
			if _, err := w.Write(message); err != nil {
				return false
			}
		default:
			drained = true
		}
	}
	for _, message := range client.pending.take() {
		if _, err := w.Write(message); err != nil {
			return false
		}
	}
	return true
}
