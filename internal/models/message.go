package models

import "time"

// Message content types.
const (
	MessageText  = "text"
	MessageImage = "image"
	MessageVideo = "video"
)

// Message is a persisted chat message. Exactly one of ReceiverID and
// GroupID is set: direct XOR group.
type Message struct {
	ID         string    `db:"id" json:"id"`
	SenderID   string    `db:"sender_id" json:"sender_id"`
	ReceiverID *string   `db:"receiver_id" json:"receiver_id,omitempty"`
	GroupID    *string   `db:"group_id" json:"group_id,omitempty"`
	Content    string    `db:"content" json:"content"`
	Type       string    `db:"type" json:"type"`
	SentAt     time.Time `db:"sent_at" json:"sent_at"`
	Deleted    bool      `db:"deleted" json:"deleted"`
}

// ReadReceipt is created at send time for direct messages. ReadAt stays
// nil until the receiver acknowledges, which is outside the relay.
type ReadReceipt struct {
	MessageID   string     `db:"message_id" json:"message_id"`
	UserID      string     `db:"user_id" json:"user_id"`
	DeliveredAt time.Time  `db:"delivered_at" json:"delivered_at"`
	ReadAt      *time.Time `db:"read_at" json:"read_at,omitempty"`
}
