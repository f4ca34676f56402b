package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Entity names carried by snapshot messages.
const (
	EntityFamilies  = "families"
	EntityDonations = "donations"
	EntityBackups   = "backups"
)

// Message is a full-snapshot notification. Clients replace their local
// copy of the entity's collection with Snapshot wholesale; there are no
// incremental patches to apply or order to reconcile.
type Message struct {
	Type     string `json:"type"`
	Entity   string `json:"entity"`
	Snapshot any    `json:"snapshot"`
}

// SnapshotMessage builds a snapshot message for the entity's full
// current result set.
func SnapshotMessage(entity string, snapshot any) Message {
	return Message{
		Type:     "snapshot",
		Entity:   entity,
		Snapshot: snapshot,
	}
}

// Hub maintains the set of active WebSocket clients and broadcasts
// snapshot messages to all of them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client and closes its send channel. Unregistering
// a client twice is a no-op.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a message to all connected clients. A client whose
// buffer is full misses the message and is expected to catch up from the
// next snapshot; snapshots are self-contained so nothing is lost for good.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
