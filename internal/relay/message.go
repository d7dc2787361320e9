package relay

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"

	"relay-service/internal/models"
	"relay-service/internal/observability"
	"relay-service/internal/rooms"
	"relay-service/internal/validation"
	"relay-service/internal/ws"
)

// SendMessage runs the relay pipeline for one inbound message:
// validate, authorize, persist, build the outbound view, broadcast to
// the room, refresh sidebars, record the delivery receipt. Fan-out is
// best effort; unregistered targets are skipped silently.
func (s *Service) SendMessage(ctx context.Context, conn ws.Conn, data json.RawMessage) {
	ctx, span := otel.Tracer("relay-service/relay").Start(ctx, "relay.send")
	defer span.End()

	var payload validation.MessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		s.drop(ctx, "send_message", err)
		return
	}
	if err := s.gate.Check(payload); err != nil {
		s.drop(ctx, "send_message", err)
		return
	}
	if auth := ws.IdentityFromContext(ctx); auth != "" && auth != payload.SenderID {
		s.rejectSend(ctx, conn, payload.RoomID, "sender does not match authenticated identity")
		return
	}

	// The delivery room is derived from the target, never trusted from
	// the payload: both sides compute the same key independently.
	var roomID string
	if payload.GroupID != "" {
		roomID = rooms.Group(payload.GroupID)

		// Active membership is enforced here, not just in the client.
		active, err := s.groups.IsActiveMember(ctx, payload.GroupID, payload.SenderID)
		if err != nil {
			s.sendError(ctx, conn, roomID, "send_message", err)
			return
		}
		if !active {
			s.rejectSend(ctx, conn, roomID, "sender is not an active group member")
			return
		}
	} else {
		roomID = rooms.Direct(payload.SenderID, payload.ReceiverID)
	}

	msg := models.Message{
		SenderID: payload.SenderID,
		Content:  payload.Content,
		Type:     payload.Type,
	}
	if payload.GroupID != "" {
		msg.GroupID = &payload.GroupID
	} else {
		msg.ReceiverID = &payload.ReceiverID
	}

	msg, err := s.messages.CreateMessage(ctx, msg)
	if err != nil {
		s.sendError(ctx, conn, roomID, "send_message", err)
		return
	}

	// Sender profile is denormalized into the event at send time, so
	// later edits never alter already delivered events.
	sender, err := s.users.GetUser(ctx, payload.SenderID)
	if err != nil {
		s.sendError(ctx, conn, roomID, "send_message", err)
		return
	}

	event := models.MessageEvent{
		MessageID:    msg.ID,
		Content:      msg.Content,
		SenderID:     msg.SenderID,
		SenderName:   sender.FullName,
		SenderAvatar: sender.Avatar,
		ReceiverID:   payload.ReceiverID,
		GroupID:      payload.GroupID,
		Type:         msg.Type,
		SentAt:       msg.SentAt,
	}
	s.hub.Broadcast(roomID, models.EventNewMessage, event)

	if payload.GroupID != "" {
		s.groupSidebar(ctx, msg, payload.GroupID)
		observability.IncMessageRelayed("group")
	} else {
		s.directSidebar(ctx, msg, sender, payload.ReceiverID)

		if _, err := s.receipts.CreateReceipt(ctx, msg.ID, payload.ReceiverID); err != nil {
			s.audit.Emit(ctx, "ERROR", "read receipt for "+msg.ID+": "+err.Error(), "", &payload.SenderID)
		}
		observability.IncMessageRelayed("direct")
	}

	_ = s.hub.Send(conn, models.EventSendAck, models.SendAck{MessageID: msg.ID, RoomID: roomID, SentAt: msg.SentAt})
}

// directSidebar refreshes the conversation list of both participants,
// independent of room membership: a closed conversation still gets its
// preview.
func (s *Service) directSidebar(ctx context.Context, msg models.Message, sender models.User, receiverID string) {
	receiver, err := s.users.GetUser(ctx, receiverID)
	if err != nil {
		s.drop(ctx, "sidebar", err)
		return
	}

	preview := models.DirectSidebarEvent{
		SenderID:       sender.ID,
		SenderName:     sender.FullName,
		SenderAvatar:   sender.Avatar,
		ReceiverID:     receiver.ID,
		ReceiverName:   receiver.FullName,
		ReceiverAvatar: receiver.Avatar,
		Content:        msg.Content,
		Type:           msg.Type,
		SentAt:         msg.SentAt,
	}

	if conn, ok := s.registry.Resolve(sender.ID); ok {
		_ = s.hub.Send(conn, models.EventNewMessageSidebar, preview)
	}
	if conn, ok := s.registry.Resolve(receiver.ID); ok {
		_ = s.hub.Send(conn, models.EventNewMessageSidebar, preview)
	}
}

// groupSidebar refreshes the preview for every member in the send-time
// snapshot: active members that currently hold a registered connection.
func (s *Service) groupSidebar(ctx context.Context, msg models.Message, groupID string) {
	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		s.drop(ctx, "sidebar", err)
		return
	}
	memberIDs, err := s.groups.ActiveMemberIDs(ctx, groupID)
	if err != nil {
		s.drop(ctx, "sidebar", err)
		return
	}

	preview := models.GroupSidebarEvent{
		GroupID:     group.ID,
		GroupName:   group.Name,
		GroupAvatar: group.Avatar,
		Content:     msg.Content,
		Type:        msg.Type,
		SentAt:      msg.SentAt,
	}
	for _, memberID := range memberIDs {
		if conn, ok := s.registry.Resolve(memberID); ok {
			_ = s.hub.Send(conn, models.EventGroupMessageSidebar, preview)
		}
	}
}

func (s *Service) sendError(ctx context.Context, conn ws.Conn, roomID, event string, err error) {
	s.drop(ctx, event, err)
	_ = s.hub.Send(conn, models.EventSendError, models.SendError{RoomID: roomID, Reason: "message not delivered"})
}

func (s *Service) rejectSend(ctx context.Context, conn ws.Conn, roomID, reason string) {
	observability.IncDroppedEvent("unauthorized")
	s.audit.Emit(ctx, "WARN", "send rejected: "+reason, "", nil)
	_ = s.hub.Send(conn, models.EventSendError, models.SendError{RoomID: roomID, Reason: reason})
}
