package relay

import (
	"context"
	"encoding/json"

	"relay-service/internal/models"
	"relay-service/internal/validation"
	"relay-service/internal/ws"
)

// Typing broadcasts a typing-started indicator to the room. Nothing is
// persisted and there is no server-side timeout: the client owns the
// matching stop signal.
func (s *Service) Typing(ctx context.Context, conn ws.Conn, data json.RawMessage) {
	s.relayTyping(ctx, "typing", models.EventTypingStarted, data)
}

// StoppedTyping broadcasts the matching typing-stopped indicator.
func (s *Service) StoppedTyping(ctx context.Context, conn ws.Conn, data json.RawMessage) {
	s.relayTyping(ctx, "stopped_typing", models.EventTypingStopped, data)
}

func (s *Service) relayTyping(ctx context.Context, inbound, outbound string, data json.RawMessage) {
	var payload validation.TypingPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		s.drop(ctx, inbound, err)
		return
	}
	if err := s.gate.Check(payload); err != nil {
		s.drop(ctx, inbound, err)
		return
	}
	s.hub.Broadcast(payload.RoomID, outbound, models.TypingEvent{UserID: payload.UserID, RoomID: payload.RoomID})
}
