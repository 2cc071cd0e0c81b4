package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Session is the persisted part of a signed-in session. Access tokens are never stored.
type Session struct {
	RefreshToken    string
	UserID          string
	Email           string
	DisplayName     string
	AvatarURL       string
	UpdateTimestamp int64
}

// GetSession returns the persisted session, or ErrNotFound when signed out.
func (s *Store) GetSession() (*Session, error) {
	session := &Session{}
	err := s.db.QueryRow(`
		SELECT refresh_token, user_id, email, display_name, avatar_url, update_timestamp
		FROM sessions
		WHERE id = 1
	`).Scan(&session.RefreshToken, &session.UserID, &session.Email, &session.DisplayName, &session.AvatarURL, &session.UpdateTimestamp)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	return session, nil
}

// SaveSessionRequest represents a request to persist a session.
type SaveSessionRequest struct {
	Session *Session
}

// SaveSession replaces the persisted session.
func (s *Store) SaveSession(req *SaveSessionRequest) (*Session, error) {
	if req.Session == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}
	if req.Session.RefreshToken == "" {
		return nil, fmt.Errorf("session refresh token cannot be empty")
	}
	req.Session.UpdateTimestamp = time.Now().UnixMicro()
	_, err := s.db.Exec(`
		REPLACE INTO sessions (id, refresh_token, user_id, email, display_name, avatar_url, update_timestamp)
		VALUES (1, ?, ?, ?, ?, ?, ?)`,
		req.Session.RefreshToken,
		req.Session.UserID,
		req.Session.Email,
		req.Session.DisplayName,
		req.Session.AvatarURL,
		req.Session.UpdateTimestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("writing session: %w", err)
	}
	return req.Session, nil
}

// DeleteSession removes the persisted session. Deleting a missing session is not an error.
func (s *Store) DeleteSession() error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE id = 1`); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
