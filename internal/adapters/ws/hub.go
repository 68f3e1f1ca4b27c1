// Package ws fans session snapshots out to WebSocket viewers.
package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/okian/pitchlab/internal/domain/session"
	"github.com/okian/pitchlab/pkg/logger"
	"github.com/okian/pitchlab/pkg/metrics"
)

// DefaultBuffer is the per-client queue of pending snapshot frames.
const DefaultBuffer = 16

// Client is one viewer of one session.
type Client struct {
	SessionID string
	Send      chan []byte

	closeOnce sync.Once
}

// NewClient creates a client with a send queue of the given size.
func NewClient(sessionID string, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Client{SessionID: sessionID, Send: make(chan []byte, buffer)}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.Send) })
}

// Hub keeps the viewers of every session and implements session.Observer.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	total   int

	buffer int
	logger logger.Logger
}

var _ session.Observer = (*Hub)(nil)

// NewHub creates an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients: make(map[string]map[*Client]struct{}),
		buffer:  DefaultBuffer,
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds a client to its session.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.SessionID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.SessionID] = set
	}
	set[c] = struct{}{}
	h.total++
	total := h.total
	h.mu.Unlock()

	metrics.UpdateStreamClients(total)
}

// Unregister removes a client and closes its send queue. Unknown clients
// are ignored.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	removed := h.removeLocked(c)
	total := h.total
	h.mu.Unlock()

	if removed {
		metrics.UpdateStreamClients(total)
	}
}

func (h *Hub) removeLocked(c *Client) bool {
	set, ok := h.clients[c.SessionID]
	if !ok {
		return false
	}
	if _, ok := set[c]; !ok {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.SessionID)
	}
	h.total--
	c.close()
	return true
}

// Clients returns the number of viewers of a session.
func (h *Hub) Clients(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// Publish sends the snapshot to every viewer of its session without
// blocking. Viewers whose queue is full miss the frame. Once the session is
// analysed its viewers are released.
func (h *Hub) Publish(snap session.Snapshot) {
	if h.Clients(snap.SessionID) == 0 {
		return
	}

	data, err := json.Marshal(snap)
	if err != nil {
		h.logger.Error(context.Background(), "failed to encode snapshot",
			logger.String("session", snap.SessionID),
			logger.Error(err),
		)
		metrics.RecordErrorByComponent("ws", "marshal")
		return
	}

	h.mu.RLock()
	for c := range h.clients[snap.SessionID] {
		select {
		case c.Send <- data:
		default:
			metrics.RecordSnapshotDropped()
		}
	}
	h.mu.RUnlock()

	if snap.Status == session.StatusAnalyzed {
		h.release(snap.SessionID)
	}
}

func (h *Hub) release(sessionID string) {
	h.mu.Lock()
	for c := range h.clients[sessionID] {
		h.removeLocked(c)
	}
	total := h.total
	h.mu.Unlock()

	metrics.UpdateStreamClients(total)
}
