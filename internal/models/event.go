package models

import "time"

// Outbound event names emitted over the socket channel.
const (
	EventRegistered          = "registered"
	EventNewMessage          = "new_message"
	EventNewMessageSidebar   = "new_message_sidebar"
	EventGroupMessageSidebar = "new_group_message_sidebar"
	EventGroupUpdated        = "group_updated"
	EventUserUpdated         = "user_updated"
	EventTypingStarted       = "typing_started"
	EventTypingStopped       = "typing_stopped"
	EventPresence            = "presence"
	EventSendAck             = "send_ack"
	EventSendError           = "send_error"
)

// MessageEvent is the in-conversation view of a freshly sent message.
// Sender name and avatar are denormalized at send time: later profile
// edits never retroactively alter delivered events.
type MessageEvent struct {
	MessageID    string    `json:"message_id"`
	Content      string    `json:"content"`
	SenderID     string    `json:"sender_id"`
	SenderName   string    `json:"sender_name"`
	SenderAvatar string    `json:"sender_avatar"`
	ReceiverID   string    `json:"receiver_id,omitempty"`
	GroupID      string    `json:"group_id,omitempty"`
	Type         string    `json:"type"`
	SentAt       time.Time `json:"sent_at"`
}

// DirectSidebarEvent refreshes a conversation list entry for the two
// participants of a direct message, independent of room membership.
type DirectSidebarEvent struct {
	SenderID       string    `json:"sender_id"`
	SenderName     string    `json:"sender_name"`
	SenderAvatar   string    `json:"sender_avatar"`
	ReceiverID     string    `json:"receiver_id"`
	ReceiverName   string    `json:"receiver_name"`
	ReceiverAvatar string    `json:"receiver_avatar"`
	Content        string    `json:"content"`
	Type           string    `json:"type"`
	SentAt         time.Time `json:"sent_at"`
}

// GroupSidebarEvent is the group flavour, sent to every active member
// with a registered connection.
type GroupSidebarEvent struct {
	GroupID     string    `json:"group_id"`
	GroupName   string    `json:"group_name"`
	GroupAvatar string    `json:"group_avatar"`
	Content     string    `json:"content"`
	Type        string    `json:"type"`
	SentAt      time.Time `json:"sent_at"`
}

// TypingEvent is the ephemeral typing indicator, room scoped.
type TypingEvent struct {
	UserID string `json:"user_id"`
	RoomID string `json:"room_id"`
}

// SendAck confirms persistence of a message back to its sender.
type SendAck struct {
	MessageID string    `json:"message_id"`
	RoomID    string    `json:"room_id"`
	SentAt    time.Time `json:"sent_at"`
}

// SendError tells the sender a message was not accepted.
type SendError struct {
	RoomID string `json:"room_id"`
	Reason string `json:"reason"`
}
