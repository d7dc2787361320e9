package relay

import (
	"context"
	"encoding/json"
	"errors"

	"relay-service/internal/repositories"
	"relay-service/internal/validation"
	"relay-service/internal/ws"
)

// CheckStatus answers a presence query. The result goes to the
// requesting connection and to the queried user's interest set rather
// than to every client on the relay.
func (s *Service) CheckStatus(ctx context.Context, conn ws.Conn, data json.RawMessage) {
	var payload validation.StatusPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		s.drop(ctx, "check_status", err)
		return
	}
	if err := s.gate.Check(payload); err != nil {
		s.drop(ctx, "check_status", err)
		return
	}

	status, err := s.presence.GetStatus(ctx, payload.UserID)
	if err != nil {
		if !errors.Is(err, repositories.ErrPresenceNotFound) {
			s.drop(ctx, "check_status", err)
		}
		return
	}

	s.fanOutPresence(ctx, status, conn)
}
