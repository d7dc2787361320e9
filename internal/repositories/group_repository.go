package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"relay-service/internal/models"
)

var (
	ErrGroupNotFound      = errors.New("group not found")
	ErrMembershipNotFound = errors.New("membership not found")
)

// GroupRepository abstracts group and membership persistence. Members
// are soft-deactivated, never deleted, so membership history keeps the
// visibility boundary for leavers.
type GroupRepository interface {
	GetGroup(ctx context.Context, groupID string) (models.Group, error)
	IsActiveMember(ctx context.Context, groupID, userID string) (bool, error)
	ActiveMemberIDs(ctx context.Context, groupID string) ([]string, error)
	GetMembership(ctx context.Context, groupID, userID string) (models.GroupMember, error)
	MembershipsForUser(ctx context.Context, userID string) ([]models.GroupMember, error)
}

// GroupRepo is a sqlx implementation of GroupRepository.
type GroupRepo struct {
	db *sqlx.DB
}

// NewGroupRepo constructs a GroupRepo.
func NewGroupRepo(db *sqlx.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

// GetGroup fetches a single group.
func (r *GroupRepo) GetGroup(ctx context.Context, groupID string) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group, `SELECT id, name, avatar, description, admin_id FROM groups WHERE id=$1`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrGroupNotFound
	}
	return group, err
}

// IsActiveMember checks current active membership.
func (r *GroupRepo) IsActiveMember(ctx context.Context, groupID, userID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id=$1 AND user_id=$2 AND status='active')`, groupID, userID)
	return exists, err
}

// ActiveMemberIDs returns the ids of all currently active members.
func (r *GroupRepo) ActiveMemberIDs(ctx context.Context, groupID string) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids, `SELECT user_id FROM group_members WHERE group_id=$1 AND status='active' ORDER BY user_id`, groupID)
	return ids, err
}

// MembershipsForUser returns every membership the user ever had,
// active or not. Inactive rows still matter: they carry the history
// visibility boundary.
func (r *GroupRepo) MembershipsForUser(ctx context.Context, userID string) ([]models.GroupMember, error) {
	var members []models.GroupMember
	err := r.db.SelectContext(ctx, &members, `SELECT group_id, user_id, joined_at, is_admin, status, left_at FROM group_members WHERE user_id=$1`, userID)
	return members, err
}

// GetMembership fetches the membership row including its left_at
// boundary, active or not.
func (r *GroupRepo) GetMembership(ctx context.Context, groupID, userID string) (models.GroupMember, error) {
	var member models.GroupMember
	err := r.db.GetContext(ctx, &member, `SELECT group_id, user_id, joined_at, is_admin, status, left_at FROM group_members WHERE group_id=$1 AND user_id=$2`, groupID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GroupMember{}, ErrMembershipNotFound
	}
	return member, err
}
