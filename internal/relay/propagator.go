package relay

import (
	"context"
	"encoding/json"

	"relay-service/internal/models"
	"relay-service/internal/validation"
	"relay-service/internal/ws"
)

// UpdateGroup propagates an externally persisted group edit so clients
// can re-evaluate local state. The audience is the group's interest
// set: the stored active roster united with the incoming member list,
// so both added and removed members hear about the change.
func (s *Service) UpdateGroup(ctx context.Context, conn ws.Conn, data json.RawMessage) {
	var payload validation.GroupUpdatePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		s.drop(ctx, "update_group", err)
		return
	}
	if err := s.gate.Check(payload); err != nil {
		s.drop(ctx, "update_group", err)
		return
	}

	audience := make(map[string]bool, len(payload.Members))
	for _, memberID := range payload.Members {
		audience[memberID] = true
	}
	memberIDs, err := s.groups.ActiveMemberIDs(ctx, payload.GroupID)
	if err != nil {
		s.drop(ctx, "update_group", err)
		return
	}
	for _, memberID := range memberIDs {
		audience[memberID] = true
	}

	for memberID := range audience {
		if memberConn, ok := s.registry.Resolve(memberID); ok {
			_ = s.hub.Send(memberConn, models.EventGroupUpdated, payload)
		}
	}
}

// UpdateUser propagates an externally persisted profile edit to the
// user's contacts and to the user's own connection.
func (s *Service) UpdateUser(ctx context.Context, conn ws.Conn, data json.RawMessage) {
	var payload validation.UserUpdatePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		s.drop(ctx, "update_user", err)
		return
	}
	if err := s.gate.Check(payload); err != nil {
		s.drop(ctx, "update_user", err)
		return
	}

	if userConn, ok := s.registry.Resolve(payload.UserID); ok {
		_ = s.hub.Send(userConn, models.EventUserUpdated, payload)
	}
	contacts, err := s.users.ContactIDs(ctx, payload.UserID)
	if err != nil {
		s.drop(ctx, "update_user", err)
		return
	}
	for _, contactID := range contacts {
		if contactConn, ok := s.registry.Resolve(contactID); ok {
			_ = s.hub.Send(contactConn, models.EventUserUpdated, payload)
		}
	}
}
