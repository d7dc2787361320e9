package relay

import (
	"context"
	"encoding/json"

	"relay-service/internal/validation"
	"relay-service/internal/ws"
)

// JoinRoom adds the connection to a room's delivery set. Idempotent;
// nothing is persisted.
func (s *Service) JoinRoom(ctx context.Context, conn ws.Conn, data json.RawMessage) {
	roomID, ok := s.roomFromPayload(ctx, "join_room", data)
	if !ok {
		return
	}
	s.hub.Join(roomID, conn)
}

// LeaveRoom removes the connection from a room's delivery set.
func (s *Service) LeaveRoom(ctx context.Context, conn ws.Conn, data json.RawMessage) {
	roomID, ok := s.roomFromPayload(ctx, "leave_room", data)
	if !ok {
		return
	}
	s.hub.Leave(roomID, conn)
}

func (s *Service) roomFromPayload(ctx context.Context, event string, data json.RawMessage) (string, bool) {
	var payload validation.RoomPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		s.drop(ctx, event, err)
		return "", false
	}
	if err := s.gate.Check(payload); err != nil {
		s.drop(ctx, event, err)
		return "", false
	}
	return payload.RoomID, true
}
