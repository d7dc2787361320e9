package models

import "time"

// DirectConversation is a sidebar summary of a direct exchange: the
// counterpart plus the latest message.
type DirectConversation struct {
	SenderID        string    `json:"sender_id"`
	ReceiverID      string    `json:"receiver_id"`
	ReceiverName    string    `json:"receiver_name"`
	ReceiverAvatar  string    `json:"receiver_avatar"`
	LastMessage     string    `json:"last_message"`
	LastMessageType string    `json:"last_message_type"`
	LastMessageAt   time.Time `json:"last_message_at"`
}

// GroupConversation is the group flavour of a sidebar summary.
type GroupConversation struct {
	GroupID         string    `json:"group_id"`
	GroupName       string    `json:"group_name"`
	GroupAvatar     string    `json:"group_avatar"`
	LastMessage     string    `json:"last_message"`
	LastMessageType string    `json:"last_message_type"`
	LastMessageAt   time.Time `json:"last_message_at"`
}

// HistoryMessage is one entry of a retrieved conversation history,
// denormalized for direct rendering.
type HistoryMessage struct {
	Content      string    `json:"content"`
	SenderID     string    `json:"sender_id"`
	SenderAvatar string    `json:"sender_avatar"`
	ReceiverID   string    `json:"receiver_id,omitempty"`
	GroupID      string    `json:"group_id,omitempty"`
	Type         string    `json:"type"`
	SentAt       time.Time `json:"sent_at"`
	SentByCaller bool      `json:"sent_by_caller"`
}
