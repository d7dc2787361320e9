package models

// User is the durable identity behind a connection.
type User struct {
	ID           string  `db:"id" json:"id"`
	FullName     string  `db:"full_name" json:"full_name"`
	Avatar       string  `db:"avatar" json:"avatar"`
	StatusText   string  `db:"status_text" json:"status_text"`
	ConnectionID *string `db:"connection_id" json:"connection_id,omitempty"`
}
