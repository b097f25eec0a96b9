package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Deal feed actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Message tells live-feed subscribers that a deal changed. Clients refetch
// the deal rather than trusting a payload, so only the id is sent.
type Message struct {
	Type   string `json:"type"`
	Entity string `json:"entity"`
	Action string `json:"action"`
	ID     int64  `json:"id"`
}

// DealEvent builds the message for a deal change, e.g. type "deal_updated".
func DealEvent(action string, id int64) Message {
	return Message{
		Type:   "deal_" + action,
		Entity: "deal",
		Action: action,
		ID:     id,
	}
}

// Hub tracks live-feed subscribers and fans deal events out to them.
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

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("live feed subscriber joined", "clients", h.ClientCount())
}

// Unregister removes a client and closes its send channel. Calling it twice is
// harmless.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast queues msg for every subscriber. A subscriber whose buffer is
// full misses the message.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("live feed dropped message", "type", msg.Type, "id", msg.ID, "clients", dropped)
	}
}

// Close disconnects every subscriber. http.Server.Shutdown does not track
// hijacked connections, so the server calls this on the way down.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
