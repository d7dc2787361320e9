package relay

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"relay-service/internal/models"
	"relay-service/internal/rooms"
	"relay-service/internal/ws"
)

func sendPayload(t *testing.T, fields map[string]string) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(fields)
	require.NoError(t, err)
	return data
}

func TestSendMessageDirect(t *testing.T) {
	f := newFixture()
	alice := f.register(t, idAlice)
	bob := f.register(t, idBob)

	roomID := rooms.Direct(idAlice, idBob)
	f.join(t, alice, roomID)
	f.join(t, bob, roomID)

	sentAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	receiverID := idBob
	stored := models.Message{
		ID:         idMsg,
		SenderID:   idAlice,
		ReceiverID: &receiverID,
		Content:    "hello",
		Type:       models.MessageText,
		SentAt:     sentAt,
	}
	f.messages.On("CreateMessage", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return m.SenderID == idAlice &&
			m.ReceiverID != nil && *m.ReceiverID == idBob &&
			m.GroupID == nil &&
			m.Content == "hello" &&
			m.Type == models.MessageText
	})).Return(stored, nil)
	f.receipts.On("CreateReceipt", mock.Anything, idMsg, idBob).
		Return(models.ReadReceipt{MessageID: idMsg, UserID: idBob, DeliveredAt: sentAt}, nil)

	f.service.SendMessage(context.Background(), alice, sendPayload(t, map[string]string{
		"sender_id":   idAlice,
		"receiver_id": idBob,
		"content":     "hello",
		"type":        models.MessageText,
		"room_id":     roomID,
	}))

	// Both room members got the in-conversation event.
	for _, conn := range []*fakeConn{alice, bob} {
		events := conn.payloads(t, models.EventNewMessage)
		require.Len(t, events, 1)
		var event models.MessageEvent
		require.NoError(t, json.Unmarshal(events[0], &event))
		assert.Equal(t, idMsg, event.MessageID)
		assert.Equal(t, "hello", event.Content)
		assert.Equal(t, idAlice, event.SenderID)
		assert.NotEmpty(t, event.SenderName)
	}

	// Both sides got a sidebar refresh, independent of room membership.
	assert.Equal(t, 1, alice.countEvent(t, models.EventNewMessageSidebar))
	assert.Equal(t, 1, bob.countEvent(t, models.EventNewMessageSidebar))

	// Exactly one delivery receipt, for the receiver.
	f.receipts.AssertNumberOfCalls(t, "CreateReceipt", 1)

	acks := alice.payloads(t, models.EventSendAck)
	require.Len(t, acks, 1)
	var ack models.SendAck
	require.NoError(t, json.Unmarshal(acks[0], &ack))
	assert.Equal(t, idMsg, ack.MessageID)
	assert.Equal(t, roomID, ack.RoomID)
	assert.Zero(t, bob.countEvent(t, models.EventSendAck))
}

func TestSendMessageDirectSidebarWithoutRoom(t *testing.T) {
	f := newFixture()
	alice := f.register(t, idAlice)
	bob := f.register(t, idBob)

	// Neither side joined the conversation room.
	roomID := rooms.Direct(idAlice, idBob)
	receiverID := idBob
	f.messages.On("CreateMessage", mock.Anything, mock.Anything).
		Return(models.Message{ID: idMsg, SenderID: idAlice, ReceiverID: &receiverID, Content: "hi", Type: models.MessageText}, nil)
	f.receipts.On("CreateReceipt", mock.Anything, idMsg, idBob).Return(models.ReadReceipt{}, nil)

	f.service.SendMessage(context.Background(), alice, sendPayload(t, map[string]string{
		"sender_id":   idAlice,
		"receiver_id": idBob,
		"content":     "hi",
		"type":        models.MessageText,
		"room_id":     roomID,
	}))

	assert.Zero(t, bob.countEvent(t, models.EventNewMessage))
	assert.Equal(t, 1, bob.countEvent(t, models.EventNewMessageSidebar))
	assert.Equal(t, 1, alice.countEvent(t, models.EventNewMessageSidebar))
}

func TestSendMessageGroup(t *testing.T) {
	f := newFixture()
	alice := f.register(t, idAlice)
	carol := f.register(t, idCarol)
	// Bob is an active member but currently disconnected.

	roomID := rooms.Group(idGroup)
	f.join(t, alice, roomID)

	groupID := idGroup
	stored := models.Message{
		ID:       idMsg,
		SenderID: idAlice,
		GroupID:  &groupID,
		Content:  "hey all",
		Type:     models.MessageText,
		SentAt:   time.Now(),
	}
	f.groups.On("IsActiveMember", mock.Anything, idGroup, idAlice).Return(true, nil)
	f.messages.On("CreateMessage", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return m.GroupID != nil && *m.GroupID == idGroup && m.ReceiverID == nil
	})).Return(stored, nil)
	f.groups.On("GetGroup", mock.Anything, idGroup).
		Return(models.Group{ID: idGroup, Name: "the group"}, nil)
	f.groups.On("ActiveMemberIDs", mock.Anything, idGroup).
		Return([]string{idAlice, idBob, idCarol}, nil)

	f.service.SendMessage(context.Background(), alice, sendPayload(t, map[string]string{
		"sender_id": idAlice,
		"group_id":  idGroup,
		"content":   "hey all",
		"type":      models.MessageText,
		"room_id":   roomID,
	}))

	// In-conversation delivery only to connections joined to the room.
	assert.Equal(t, 1, alice.countEvent(t, models.EventNewMessage))
	assert.Zero(t, carol.countEvent(t, models.EventNewMessage))

	// Sidebar hits the active-and-registered snapshot; Bob is skipped.
	assert.Equal(t, 1, alice.countEvent(t, models.EventGroupMessageSidebar))
	previews := carol.payloads(t, models.EventGroupMessageSidebar)
	require.Len(t, previews, 1)
	var preview models.GroupSidebarEvent
	require.NoError(t, json.Unmarshal(previews[0], &preview))
	assert.Equal(t, idGroup, preview.GroupID)
	assert.Equal(t, "the group", preview.GroupName)
	assert.Equal(t, "hey all", preview.Content)

	// No receipts for group messages.
	f.receipts.AssertNotCalled(t, "CreateReceipt", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 1, alice.countEvent(t, models.EventSendAck))
}

func TestSendMessageGroupRejectsInactiveMember(t *testing.T) {
	f := newFixture()
	alice := f.register(t, idAlice)

	f.groups.On("IsActiveMember", mock.Anything, idGroup, idAlice).Return(false, nil)

	f.service.SendMessage(context.Background(), alice, sendPayload(t, map[string]string{
		"sender_id": idAlice,
		"group_id":  idGroup,
		"content":   "let me in",
		"type":      models.MessageText,
		"room_id":   rooms.Group(idGroup),
	}))

	f.messages.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)

	errs := alice.payloads(t, models.EventSendError)
	require.Len(t, errs, 1)
	var sendErr models.SendError
	require.NoError(t, json.Unmarshal(errs[0], &sendErr))
	assert.Equal(t, rooms.Group(idGroup), sendErr.RoomID)
	assert.Contains(t, sendErr.Reason, "not an active group member")
	assert.Zero(t, alice.countEvent(t, models.EventSendAck))
}

func TestSendMessageRejectsSpoofedSender(t *testing.T) {
	f := newFixture()
	alice := f.register(t, idAlice)

	roomID := rooms.Direct(idBob, idCarol)
	ctx := ws.WithIdentity(context.Background(), idAlice)
	f.service.SendMessage(ctx, alice, sendPayload(t, map[string]string{
		"sender_id":   idBob,
		"receiver_id": idCarol,
		"content":     "not mine",
		"type":        models.MessageText,
		"room_id":     roomID,
	}))

	f.messages.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)

	errs := alice.payloads(t, models.EventSendError)
	require.Len(t, errs, 1)
	var sendErr models.SendError
	require.NoError(t, json.Unmarshal(errs[0], &sendErr))
	assert.Contains(t, sendErr.Reason, "authenticated identity")
}

func TestSendMessageInvalidPayloadsAreDropped(t *testing.T) {
	cases := map[string]map[string]string{
		"both targets": {
			"sender_id":   idAlice,
			"receiver_id": idBob,
			"group_id":    idGroup,
			"content":     "x",
			"type":        models.MessageText,
			"room_id":     idGroup,
		},
		"no target": {
			"sender_id": idAlice,
			"content":   "x",
			"type":      models.MessageText,
			"room_id":   idGroup,
		},
		"bad type": {
			"sender_id":   idAlice,
			"receiver_id": idBob,
			"content":     "x",
			"type":        "gif",
			"room_id":     rooms.Direct(idAlice, idBob),
		},
		"empty content": {
			"sender_id":   idAlice,
			"receiver_id": idBob,
			"type":        models.MessageText,
			"room_id":     rooms.Direct(idAlice, idBob),
		},
		"unsorted direct room": {
			"sender_id":   idAlice,
			"receiver_id": idBob,
			"content":     "x",
			"type":        models.MessageText,
			"room_id":     idBob + rooms.Separator + idAlice,
		},
	}

	for name, fields := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			conn := &fakeConn{id: "conn-1"}

			f.service.SendMessage(context.Background(), conn, sendPayload(t, fields))

			f.messages.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
			assert.Empty(t, conn.frames)
		})
	}
}

func TestSendMessagePersistenceFailureSignalsSender(t *testing.T) {
	f := newFixture()
	alice := f.register(t, idAlice)
	f.register(t, idBob)

	f.messages.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, assert.AnError)

	f.service.SendMessage(context.Background(), alice, sendPayload(t, map[string]string{
		"sender_id":   idAlice,
		"receiver_id": idBob,
		"content":     "hello",
		"type":        models.MessageText,
		"room_id":     rooms.Direct(idAlice, idBob),
	}))

	assert.Equal(t, 1, alice.countEvent(t, models.EventSendError))
	assert.Zero(t, alice.countEvent(t, models.EventSendAck))
	f.receipts.AssertNotCalled(t, "CreateReceipt", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessageMediaContentIsPreserved(t *testing.T) {
	f := newFixture()
	alice := f.register(t, idAlice)

	roomID := rooms.Direct(idAlice, idCarol)
	f.join(t, alice, roomID)

	// Media messages carry an opaque reference; the relay must pass it
	// through untouched.
	content := `{"url":"https://cdn.example.com/v/abc123.mp4","w":1920,"h":1080,"caption":"déjà vu ✓"}`
	receiverID := idCarol
	f.messages.On("CreateMessage", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return m.Content == content && m.Type == models.MessageVideo
	})).Return(models.Message{ID: idMsg, SenderID: idAlice, ReceiverID: &receiverID, Content: content, Type: models.MessageVideo}, nil)
	f.users.On("GetUser", mock.Anything, idCarol).Return(models.User{ID: idCarol}, nil)
	f.receipts.On("CreateReceipt", mock.Anything, idMsg, idCarol).Return(models.ReadReceipt{}, nil)

	f.service.SendMessage(context.Background(), alice, sendPayload(t, map[string]string{
		"sender_id":   idAlice,
		"receiver_id": idCarol,
		"content":     content,
		"type":        models.MessageVideo,
		"room_id":     roomID,
	}))

	events := alice.payloads(t, models.EventNewMessage)
	require.Len(t, events, 1)
	var event models.MessageEvent
	require.NoError(t, json.Unmarshal(events[0], &event))
	assert.Equal(t, content, event.Content)
	assert.Equal(t, models.MessageVideo, event.Type)
}
