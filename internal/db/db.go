package db

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id UUID PRIMARY KEY,
            full_name TEXT NOT NULL,
            avatar TEXT NOT NULL DEFAULT '',
            status_text TEXT NOT NULL DEFAULT '',
            connection_id TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS groups (
            id UUID PRIMARY KEY,
            name TEXT NOT NULL,
            avatar TEXT NOT NULL DEFAULT '',
            description TEXT NOT NULL DEFAULT '',
            admin_id UUID NOT NULL REFERENCES users(id)
        );`,
		`CREATE TABLE IF NOT EXISTS group_members (
            group_id UUID NOT NULL REFERENCES groups(id),
            user_id UUID NOT NULL REFERENCES users(id),
            joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            is_admin BOOLEAN NOT NULL DEFAULT FALSE,
            status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive')),
            left_at TIMESTAMPTZ,
            PRIMARY KEY (group_id, user_id),
            CHECK ((status = 'inactive') = (left_at IS NOT NULL))
        );`,
		`CREATE TABLE IF NOT EXISTS messages (
            id UUID PRIMARY KEY,
            sender_id UUID NOT NULL REFERENCES users(id),
            receiver_id UUID REFERENCES users(id),
            group_id UUID REFERENCES groups(id),
            content TEXT NOT NULL,
            type TEXT NOT NULL CHECK (type IN ('text', 'image', 'video')),
            sent_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            deleted BOOLEAN NOT NULL DEFAULT FALSE,
            CHECK ((receiver_id IS NULL) <> (group_id IS NULL))
        );`,
		`CREATE INDEX IF NOT EXISTS idx_messages_direct ON messages (sender_id, receiver_id, sent_at) WHERE group_id IS NULL;`,
		`CREATE INDEX IF NOT EXISTS idx_messages_group ON messages (group_id, sent_at) WHERE group_id IS NOT NULL;`,
		`CREATE TABLE IF NOT EXISTS read_receipts (
            message_id UUID NOT NULL REFERENCES messages(id),
            user_id UUID NOT NULL REFERENCES users(id),
            delivered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            read_at TIMESTAMPTZ,
            PRIMARY KEY (message_id, user_id)
        );`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	log.Println("database migrations applied")
	return nil
}
