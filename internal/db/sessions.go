package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SavedSession is the credential remembered for one server
type SavedSession struct {
	ServerURL string
	Token     string
	Email     string
	CreatedAt time.Time
}

// SaveSession stores the credential for a server, replacing any previous one
func (db *DB) SaveSession(s SavedSession) error {
	if s.ServerURL == "" || s.Token == "" {
		return fmt.Errorf("failed to save session: server url and token are required")
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	_, err := db.Exec(`
		INSERT INTO sessions (server_url, token, email, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(server_url) DO UPDATE SET
			token = excluded.token,
			email = excluded.email,
			created_at = excluded.created_at
	`, s.ServerURL, s.Token, s.Email, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// GetSession returns the saved credential for a server, or nil when there
// is none
func (db *DB) GetSession(serverURL string) (*SavedSession, error) {
	var s SavedSession
	err := db.QueryRow(`
		SELECT server_url, token, email, created_at
		FROM sessions WHERE server_url = ?
	`, serverURL).Scan(&s.ServerURL, &s.Token, &s.Email, &s.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

// DeleteSession forgets the credential for a server together with the board
// selected on it
func (db *DB) DeleteSession(serverURL string) error {
	return db.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM sessions WHERE server_url = ?`, serverURL); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM preferences WHERE key = ?`, ActiveBoardKey(serverURL)); err != nil {
			return fmt.Errorf("failed to clear active board: %w", err)
		}
		return nil
	})
}
