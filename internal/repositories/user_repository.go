package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"relay-service/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository abstracts user persistence as seen by the relay:
// profile reads for denormalization and the persisted connection
// handle convenience field.
type UserRepository interface {
	GetUser(ctx context.Context, userID string) (models.User, error)
	SetConnectionID(ctx context.Context, userID, connID string) error
	ClearConnectionID(ctx context.Context, userID string) error
	ContactIDs(ctx context.Context, userID string) ([]string, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetUser fetches a user by id.
func (r *UserRepo) GetUser(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT id, full_name, avatar, status_text, connection_id FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// SetConnectionID stores the live connection handle on the user row.
func (r *UserRepo) SetConnectionID(ctx context.Context, userID, connID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET connection_id=$2 WHERE id=$1`, userID, connID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ClearConnectionID drops the stored handle at release time.
func (r *UserRepo) ClearConnectionID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET connection_id=NULL WHERE id=$1`, userID)
	return err
}

// ContactIDs returns the users related to userID through a direct
// conversation or a shared active group membership. This is the
// interest index for presence and profile fan-out.
func (r *UserRepo) ContactIDs(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT DISTINCT contact_id FROM (
            SELECT CASE WHEN sender_id=$1 THEN receiver_id ELSE sender_id END AS contact_id
              FROM messages
             WHERE group_id IS NULL AND (sender_id=$1 OR receiver_id=$1)
            UNION
            SELECT gm2.user_id FROM group_members gm1
              JOIN group_members gm2 ON gm2.group_id = gm1.group_id
             WHERE gm1.user_id=$1 AND gm1.status='active' AND gm2.status='active'
        ) contacts
        WHERE contact_id IS NOT NULL AND contact_id <> $1`
	var ids []string
	err := r.db.SelectContext(ctx, &ids, query, userID)
	return ids, err
}
