package db

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	database, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(database); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return database, nil
}

func runMigrations(database *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            display_name TEXT NOT NULL,
            created_at TIMESTAMPTZ DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS messages (
            id SERIAL PRIMARY KEY,
            room TEXT NOT NULL,
            sender_id INT NOT NULL,
            sender_name TEXT NOT NULL,
            body TEXT NOT NULL,
            image_url TEXT,
            image_key TEXT,
            mentions BIGINT[],
            created_at TIMESTAMPTZ DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_messages_room_created ON messages (room, created_at, id);`,
		`CREATE TABLE IF NOT EXISTS conversations (
            id SERIAL PRIMARY KEY,
            user1_id INT NOT NULL,
            user2_id INT NOT NULL,
            created_at TIMESTAMPTZ DEFAULT NOW(),
            UNIQUE(user1_id, user2_id)
        );`,
		`CREATE TABLE IF NOT EXISTS direct_messages (
            id SERIAL PRIMARY KEY,
            conversation_id INT NOT NULL REFERENCES conversations(id),
            sender_id INT NOT NULL,
            sender_name TEXT NOT NULL,
            body TEXT NOT NULL,
            created_at TIMESTAMPTZ DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_dm_conversation_created ON direct_messages (conversation_id, created_at, id);`,
		`CREATE TABLE IF NOT EXISTS read_markers (
            conversation_id INT NOT NULL REFERENCES conversations(id),
            user_id INT NOT NULL,
            last_read_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY(conversation_id, user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS notification_preferences (
            user_id INT PRIMARY KEY,
            push_enabled BOOLEAN NOT NULL DEFAULT TRUE,
            direct_messages BOOLEAN NOT NULL DEFAULT TRUE,
            room_messages BOOLEAN NOT NULL DEFAULT TRUE,
            mentions BOOLEAN NOT NULL DEFAULT TRUE,
            announcements BOOLEAN NOT NULL DEFAULT TRUE,
            quiet_start TEXT,
            quiet_end TEXT,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS push_destinations (
            id SERIAL PRIMARY KEY,
            user_id INT NOT NULL,
            token TEXT NOT NULL,
            platform TEXT NOT NULL DEFAULT 'unknown',
            active BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMPTZ DEFAULT NOW(),
            UNIQUE(user_id, token)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_push_destinations_user ON push_destinations (user_id) WHERE active;`,
	}

	for _, m := range migrations {
		if _, err := database.Exec(m); err != nil {
			return err
		}
	}
	log.Println("database migrations applied")
	return nil
}
