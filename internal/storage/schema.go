package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
// Note: WAL mode is configured in db.go.
func InitSchema(db *sql.DB) error {
	return createUsersTable(db)
}

func createUsersTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY,
		telegram_name TEXT NOT NULL DEFAULT '',
		nome TEXT NOT NULL,
		cognome TEXT NOT NULL,
		email TEXT NOT NULL,
		telefono TEXT NOT NULL,
		via TEXT NOT NULL,
		citta TEXT NOT NULL,
		registered_at INTEGER NOT NULL,
		total_appointments INTEGER NOT NULL DEFAULT 0,
		last_appointment TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_users_cognome ON users(cognome);
	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	return nil
}
