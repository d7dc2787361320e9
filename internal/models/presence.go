package models

import "time"

// OnlineStatus is the per-user presence record. LastSeen is nil while
// the user is online and set at the offline transition.
type OnlineStatus struct {
	UserID   string     `json:"user_id"`
	IsOnline bool       `json:"is_online"`
	LastSeen *time.Time `json:"last_seen"`
}
