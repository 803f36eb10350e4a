package main

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
)

type wsClient struct {
	id   string
	user string
	conn *websocket.Conn
	send chan []byte
}

// wsHub maps rooms to the connections that should receive broadcasts.
// Delivery is at-most-once: a slow client's event is dropped, a
// disconnected client simply misses it and reloads history over REST.
type wsHub struct {
	mu    sync.RWMutex
	rooms map[string]map[*wsClient]struct{}
}

func newHub() *wsHub {
	return &wsHub{rooms: make(map[string]map[*wsClient]struct{})}
}

func (h *wsHub) add(room string, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*wsClient]struct{})
	}
	h.rooms[room][c] = struct{}{}
}

func (h *wsHub) remove(room string, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.rooms[room]; ok {
		delete(m, c)
		if len(m) == 0 {
			delete(h.rooms, room)
		}
	}
}

func (h *wsHub) broadcast(room string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		select {
		case c.send <- payload:
		default: /* drop if slow */
		}
	}
}

// broadcastExcept skips one connection, for join/leave notices that
// should only reach the other members present.
func (h *wsHub) broadcastExcept(room, exceptID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		if c.id == exceptID {
			continue
		}
		select {
		case c.send <- payload:
		default: /* drop if slow */
		}
	}
}
