package models

import "time"

// Membership status values for group members.
const (
	MemberActive   = "active"
	MemberInactive = "inactive"
)

// Group represents a chat group. Exactly one admin owns it.
type Group struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Avatar      string `db:"avatar" json:"avatar"`
	Description string `db:"description" json:"description"`
	AdminID     string `db:"admin_id" json:"admin_id"`
}

// GroupMember is the (group, user) relationship. Leaving is a soft
// transition: the row is never deleted, left_at marks the visibility
// boundary for history.
type GroupMember struct {
	GroupID  string     `db:"group_id" json:"group_id"`
	UserID   string     `db:"user_id" json:"user_id"`
	JoinedAt time.Time  `db:"joined_at" json:"joined_at"`
	IsAdmin  bool       `db:"is_admin" json:"is_admin"`
	Status   string     `db:"status" json:"status"`
	LeftAt   *time.Time `db:"left_at" json:"left_at,omitempty"`
}
