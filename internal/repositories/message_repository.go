package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"relay-service/internal/models"
)

// MessageRepository defines message persistence. Messages are insert
// only; the relay never mutates them.
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg models.Message) (models.Message, error)
	DirectHistory(ctx context.Context, userID, otherID string) ([]models.Message, error)
	GroupHistory(ctx context.Context, groupID string, until *time.Time) ([]models.Message, error)
	DirectMessagesForUser(ctx context.Context, userID string) ([]models.Message, error)
	GroupMessagesForGroups(ctx context.Context, groupIDs []string) ([]models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage persists a message with a server-assigned id and
// timestamp. The caller's SentAt is ignored.
func (r *MessageRepo) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	msg.ID = uuid.NewString()
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (id, sender_id, receiver_id, group_id, content, type, sent_at)
         VALUES ($1, $2, $3, $4, $5, $6, NOW())
         RETURNING sent_at, deleted`,
		msg.ID, msg.SenderID, msg.ReceiverID, msg.GroupID, msg.Content, msg.Type).
		Scan(&msg.SentAt, &msg.Deleted)
	return msg, err
}

// DirectHistory returns the full two-party conversation in send order.
func (r *MessageRepo) DirectHistory(ctx context.Context, userID, otherID string) ([]models.Message, error) {
	query := `SELECT id, sender_id, receiver_id, group_id, content, type, sent_at, deleted
        FROM messages
        WHERE group_id IS NULL
          AND ((sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1))
        ORDER BY sent_at ASC`
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query, userID, otherID)
	return msgs, err
}

// GroupHistory returns a group's messages in send order. A non-nil
// until caps visibility at the caller's membership boundary: messages
// sent after a member left stay invisible to them.
func (r *MessageRepo) GroupHistory(ctx context.Context, groupID string, until *time.Time) ([]models.Message, error) {
	var msgs []models.Message
	if until != nil {
		err := r.db.SelectContext(ctx, &msgs,
			`SELECT id, sender_id, receiver_id, group_id, content, type, sent_at, deleted
             FROM messages WHERE group_id=$1 AND sent_at <= $2 ORDER BY sent_at ASC`, groupID, *until)
		return msgs, err
	}
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT id, sender_id, receiver_id, group_id, content, type, sent_at, deleted
         FROM messages WHERE group_id=$1 ORDER BY sent_at ASC`, groupID)
	return msgs, err
}

// DirectMessagesForUser returns every direct message the user sent or
// received, newest first, for sidebar assembly.
func (r *MessageRepo) DirectMessagesForUser(ctx context.Context, userID string) ([]models.Message, error) {
	query := `SELECT id, sender_id, receiver_id, group_id, content, type, sent_at, deleted
        FROM messages
        WHERE group_id IS NULL AND (sender_id=$1 OR receiver_id=$1)
        ORDER BY sent_at DESC`
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query, userID)
	return msgs, err
}

// GroupMessagesForGroups returns messages of the given groups, newest
// first, for sidebar assembly.
func (r *MessageRepo) GroupMessagesForGroups(ctx context.Context, groupIDs []string) ([]models.Message, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, sender_id, receiver_id, group_id, content, type, sent_at, deleted
        FROM messages WHERE group_id IN (?) ORDER BY sent_at DESC`, groupIDs)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)
	var msgs []models.Message
	err = r.db.SelectContext(ctx, &msgs, query, args...)
	return msgs, err
}
