package store

import (
	"database/sql"
	"fmt"
	"time"
)

// GetPreferenceRequest represents a request to read a preference.
type GetPreferenceRequest struct {
	Key string
}

// GetPreference returns the stored value, or ErrNotFound.
func (s *Store) GetPreference(req *GetPreferenceRequest) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, req.Key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying preference %s: %w", req.Key, err)
	}
	return value, nil
}

// SetPreferenceRequest represents a request to write a preference.
type SetPreferenceRequest struct {
	Key   string
	Value string
}

// SetPreference inserts or replaces a preference.
func (s *Store) SetPreference(req *SetPreferenceRequest) error {
	if req.Key == "" {
		return fmt.Errorf("preference key cannot be empty")
	}
	_, err := s.db.Exec(`
		REPLACE INTO preferences (key, value, update_timestamp)
		VALUES (?, ?, ?)
	`, req.Key, req.Value, time.Now().UnixMicro())
	if err != nil {
		return fmt.Errorf("writing preference %s: %w", req.Key, err)
	}
	return nil
}
