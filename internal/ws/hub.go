package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"academy-chat/internal/models"
	"academy-chat/internal/observability"
)

// Hub maintains the socket-room membership for the legacy transport. Rooms
// are joined explicitly by clients; broadcasts iterate the membership maps.
type Hub struct {
	rooms map[string]map[*websocket.Conn]bool
	info  map[*websocket.Conn]ConnInfo
	mu    sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*websocket.Conn]bool),
		info:  make(map[*websocket.Conn]ConnInfo),
	}
}

// AddClient registers a websocket connection in a room.
func (h *Hub) AddClient(room string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*websocket.Conn]bool)
	}
	h.rooms[room][conn] = true
	h.info[conn] = info
}

// RemoveClient removes a websocket connection from its room.
func (h *Hub) RemoveClient(room string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[room]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(h.info, conn)
}

// BroadcastToRoom sends the event to all clients in the room. A write
// failure on one connection does not abort delivery to the others.
func (h *Hub) BroadcastToRoom(room string, event models.StreamEvent) {
	h.writeAll(h.roomSnapshot(room), room, event)
}

// BroadcastToUser sends the event to every connection owned by the user,
// regardless of room.
func (h *Hub) BroadcastToUser(userID int, event models.StreamEvent) {
	h.mu.RLock()
	var conns []*websocket.Conn
	rooms := make(map[*websocket.Conn]string)
	for room, members := range h.rooms {
		for conn := range members {
			if h.info[conn].UserID == userID {
				conns = append(conns, conn)
				rooms[conn] = room
			}
		}
	}
	h.mu.RUnlock()

	payload, _ := json.Marshal(event)
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("ws: write error: %v", err)
			conn.Close()
			h.RemoveClient(rooms[conn], conn)
		}
	}
}

// BroadcastTyping relays an ephemeral typing event to the other members of
// the room; the sender never receives its own echo.
func (h *Hub) BroadcastTyping(room string, sender *websocket.Conn, typing models.TypingEvent) {
	conns := h.roomSnapshot(room)
	filtered := conns[:0]
	for _, conn := range conns {
		if conn != sender {
			filtered = append(filtered, conn)
		}
	}
	h.writeAll(filtered, room, models.StreamEvent{Type: models.EventTyping, Typing: &typing})
}

func (h *Hub) roomSnapshot(room string) []*websocket.Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns := make([]*websocket.Conn, 0, len(h.rooms[room]))
	for conn := range h.rooms[room] {
		conns = append(conns, conn)
	}
	return conns
}

func (h *Hub) writeAll(conns []*websocket.Conn, room string, event models.StreamEvent) {
	payload, _ := json.Marshal(event)
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("ws: write error: %v", err)
			conn.Close()
			h.RemoveClient(room, conn)
			observability.IncTransportEvent("ws", "write_error")
		}
	}
}
