package feed

import (
	"sync"

	"github.com/gorilla/websocket"
)

// SlotEvent is broadcast whenever a slot's availability changes, whether by
// a reservation, a user cancel, or a reconciler release.
type SlotEvent struct {
	SlotID   int64 `json:"slot_id"`
	IsBooked bool  `json:"is_booked"`
}

// client wraps a connection with a write lock. gorilla/websocket permits at
// most one concurrent writer per connection, and publishers (request
// goroutines, the reconciler) broadcast concurrently.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(event SlotEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn.WriteJSON(event)
}

// Hub fans slot availability events out to every connected client. Delivery
// is best effort: a write error drops the connection.
type Hub struct {
	clients map[*websocket.Conn]*client
	mutex   sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]*client),
	}
}

func (h *Hub) Register(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.clients[conn] = &client{conn: conn}
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, exists := h.clients[conn]; exists {
		_ = conn.Close()
		delete(h.clients, conn)
	}
}

// PublishSlotState satisfies the engine's and reconciler's publisher
// interface.
func (h *Hub) PublishSlotState(slotID int64, isBooked bool) {
	h.broadcast(SlotEvent{SlotID: slotID, IsBooked: isBooked})
}

func (h *Hub) broadcast(event SlotEvent) {
	h.mutex.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mutex.RUnlock()

	for _, c := range clients {
		if err := c.send(event); err != nil {
			h.Unregister(c.conn)
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.clients)
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn := range h.clients {
		_ = conn.Close()
		delete(h.clients, conn)
	}
}
