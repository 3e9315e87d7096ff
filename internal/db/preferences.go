package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const PrefTheme = "theme"

// ActiveBoardKey is the preference key of the selected board on a server
func ActiveBoardKey(serverURL string) string {
	return "active_board:" + serverURL
}

// GetPreference returns a stored value; ok is false when the key is unset
func (db *DB) GetPreference(key string) (value string, ok bool, err error) {
	err = db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get preference %s: %w", key, err)
	}
	return value, true, nil
}

// SetPreference stores a value. An empty value removes the key.
func (db *DB) SetPreference(key, value string) error {
	if value == "" {
		if _, err := db.Exec(`DELETE FROM preferences WHERE key = ?`, key); err != nil {
			return fmt.Errorf("failed to clear preference %s: %w", key, err)
		}
		return nil
	}

	_, err := db.Exec(`
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set preference %s: %w", key, err)
	}
	return nil
}
