package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"relay-service/internal/rooms"
)

// Gate structurally checks every inbound socket payload before any
// handler runs. The channel is schemaless and client controlled, so
// nothing is trusted: a failed check drops the event, it never reaches
// a handler and never crashes the process.
type Gate struct {
	validate *validator.Validate
}

// NewGate builds a Gate with the relay's custom rules registered.
func NewGate() *Gate {
	v := validator.New()
	// A room key is either a group id or two sorted user ids joined by
	// the reserved separator.
	_ = v.RegisterValidation("roomkey", func(fl validator.FieldLevel) bool {
		return validRoomKey(fl.Field().String())
	})
	return &Gate{validate: v}
}

// RegisterPayload binds a durable identity to the current connection.
type RegisterPayload struct {
	UserID string `json:"user_id" validate:"required,uuid4"`
}

// RoomPayload joins or leaves a delivery room.
type RoomPayload struct {
	RoomID string `json:"room_id" validate:"required,roomkey"`
}

// MessagePayload carries exactly one of ReceiverID and GroupID: direct
// XOR group, never both, never neither.
type MessagePayload struct {
	SenderID   string `json:"sender_id" validate:"required,uuid4"`
	ReceiverID string `json:"receiver_id" validate:"required_without=GroupID,excluded_with=GroupID,omitempty,uuid4"`
	GroupID    string `json:"group_id" validate:"omitempty,uuid4"`
	Content    string `json:"content" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=text image video"`
	RoomID     string `json:"room_id" validate:"required,roomkey"`
}

// TypingPayload scopes a typing indicator to a room.
type TypingPayload struct {
	RoomID string `json:"room_id" validate:"required,roomkey"`
	UserID string `json:"user_id" validate:"required,uuid4"`
}

// StatusPayload queries presence for one user.
type StatusPayload struct {
	UserID string `json:"user_id" validate:"required,uuid4"`
}

// GroupUpdatePayload is the canonical group record broadcast after an
// external edit. The member list drives client-side roster updates.
type GroupUpdatePayload struct {
	GroupID     string   `json:"group_id" validate:"required,uuid4"`
	Name        string   `json:"name" validate:"required,min=1,max=50"`
	Description string   `json:"description" validate:"max=200"`
	Avatar      string   `json:"avatar"`
	Members     []string `json:"members" validate:"required,dive,uuid4"`
}

// UserUpdatePayload is the canonical user record broadcast after an
// external profile edit.
type UserUpdatePayload struct {
	UserID     string `json:"user_id" validate:"required,uuid4"`
	FullName   string `json:"full_name" validate:"required,min=1,max=50"`
	Avatar     string `json:"avatar"`
	StatusText string `json:"status_text" validate:"max=100"`
}

// Check validates any payload struct against its declared shape.
func (g *Gate) Check(payload any) error {
	if err := g.validate.Struct(payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

// CheckRoomID validates a bare room identifier.
func (g *Gate) CheckRoomID(roomID string) error {
	if !validRoomKey(roomID) {
		return fmt.Errorf("invalid room id %q", roomID)
	}
	return nil
}

func validRoomKey(key string) bool {
	if key == "" || len(key) > rooms.MaxKeyLen {
		return false
	}
	if a, b, ok := rooms.DirectParticipants(key); ok {
		if uuid.Validate(a) != nil || uuid.Validate(b) != nil {
			return false
		}
		// Both sides must have computed the key from sorted ids.
		return a <= b
	}
	return uuid.Validate(key) == nil
}
