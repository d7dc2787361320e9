package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"relay-service/internal/observability"
)

// Envelope frames every event crossing the socket channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub maintains the per-connection sets of joined rooms. Rooms are
// deterministic string keys, not stored entities; state lives only for
// a connection's lifetime.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[Conn]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[Conn]bool)}
}

// Join adds a connection to a room's delivery set. Idempotent.
func (h *Hub) Join(roomID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[Conn]bool)
	}
	h.rooms[roomID][conn] = true
}

// Leave removes a connection from a room's delivery set. Idempotent.
func (h *Hub) Leave(roomID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[roomID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// Drop removes a connection from every room it joined.
func (h *Hub) Drop(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for roomID, conns := range h.rooms {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// InRoom reports whether a connection currently belongs to a room.
func (h *Hub) InRoom(roomID string, conn Conn) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[roomID][conn]
}

// Broadcast sends an event to every connection currently joined to the
// room. Delivery is best effort: a failed write closes the connection
// and removes it from the room.
func (h *Hub) Broadcast(roomID, event string, data any) {
	h.mu.RLock()
	conns := make([]Conn, 0, len(h.rooms[roomID]))
	for conn := range h.rooms[roomID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	payload, err := json.Marshal(outEnvelope{Event: event, Data: data})
	if err != nil {
		log.Printf("marshal %s event: %v", event, err)
		return
	}
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			h.Leave(roomID, conn)
			observability.IncWSEvent("ws_error")
		}
	}
}

// Send writes one event to a single connection.
func (h *Hub) Send(conn Conn, event string, data any) error {
	payload, err := json.Marshal(outEnvelope{Event: event, Data: data})
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Printf("websocket write error: %v", err)
		conn.Close()
		observability.IncWSEvent("ws_error")
		return err
	}
	return nil
}
