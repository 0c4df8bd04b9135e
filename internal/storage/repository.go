package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// IsRegistered reports whether a profile exists for the user.
func (db *DB) IsRegistered(ctx context.Context, userID int64) (bool, error) {
	query := `SELECT 1 FROM users WHERE id = ?`

	var one int
	err := db.conn.QueryRowContext(ctx, query, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check registration: %w", err)
	}
	return true, nil
}

// GetUser retrieves a user profile by Telegram user ID.
// Returns nil without error when the user is not registered.
func (db *DB) GetUser(ctx context.Context, userID int64) (*User, error) {
	query := `
		SELECT id, telegram_name, nome, cognome, email, telefono, via, citta,
		       registered_at, total_appointments, last_appointment
		FROM users WHERE id = ?
	`

	var user User
	var registeredAt int64
	err := db.conn.QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&user.TelegramName,
		&user.Nome,
		&user.Cognome,
		&user.Email,
		&user.Telefono,
		&user.Via,
		&user.Citta,
		&registeredAt,
		&user.TotalAppointments,
		&user.LastAppointment,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}

	user.RegisteredAt = time.Unix(registeredAt, 0)
	return &user, nil
}

// SaveUser inserts or updates a user profile. The registration
// timestamp and appointment stats of an existing row are preserved.
func (db *DB) SaveUser(ctx context.Context, user *User) error {
	if user.RegisteredAt.IsZero() {
		user.RegisteredAt = time.Now()
	}

	query := `
		INSERT INTO users (id, telegram_name, nome, cognome, email, telefono, via, citta,
		                   registered_at, total_appointments, last_appointment)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			telegram_name = excluded.telegram_name,
			nome = excluded.nome,
			cognome = excluded.cognome,
			email = excluded.email,
			telefono = excluded.telefono,
			via = excluded.via,
			citta = excluded.citta
	`
	_, err := db.conn.ExecContext(ctx, query,
		user.ID, user.TelegramName, user.Nome, user.Cognome, user.Email,
		user.Telefono, user.Via, user.Citta,
		user.RegisteredAt.Unix(), user.TotalAppointments, user.LastAppointment,
	)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// IncrementAppointmentStats bumps the user's appointment counter and
// records the formatted date of the latest booking.
func (db *DB) IncrementAppointmentStats(ctx context.Context, userID int64, lastAppointment string) error {
	query := `
		UPDATE users
		SET total_appointments = total_appointments + 1,
		    last_appointment = ?
		WHERE id = ?
	`
	result, err := db.conn.ExecContext(ctx, query, lastAppointment, userID)
	if err != nil {
		return fmt.Errorf("update appointment stats: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("update appointment stats: user %d not found", userID)
	}
	return nil
}

// CountUsers returns the number of registered users.
func (db *DB) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}
