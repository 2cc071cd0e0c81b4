package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "db", "botchat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPreferences(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetPreference(&GetPreferenceRequest{Key: "theme"})
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SetPreference(&SetPreferenceRequest{Key: "theme", Value: "light"}))
	require.NoError(t, s.SetPreference(&SetPreferenceRequest{Key: "theme", Value: "dark"}))
	value, err := s.GetPreference(&GetPreferenceRequest{Key: "theme"})
	require.NoError(t, err)
	assert.Equal(t, "dark", value)

	require.Error(t, s.SetPreference(&SetPreferenceRequest{Value: "dark"}))
}

func TestPreferencesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "botchat.db")
	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.SetPreference(&SetPreferenceRequest{Key: "theme", Value: "light"}))
	require.NoError(t, s.Close())

	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()
	value, err := s.GetPreference(&GetPreferenceRequest{Key: "theme"})
	require.NoError(t, err)
	assert.Equal(t, "light", value)
}

func TestSessions(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetSession()
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.SaveSession(&SaveSessionRequest{Session: &Session{}})
	require.Error(t, err)

	saved, err := s.SaveSession(&SaveSessionRequest{Session: &Session{
		RefreshToken: "refresh",
		UserID:       "user-1",
		Email:        "ada@example.com",
		DisplayName:  "Ada",
	}})
	require.NoError(t, err)
	assert.NotZero(t, saved.UpdateTimestamp)

	session, err := s.GetSession()
	require.NoError(t, err)
	assert.Equal(t, "refresh", session.RefreshToken)
	assert.Equal(t, "user-1", session.UserID)
	assert.Equal(t, "Ada", session.DisplayName)

	require.NoError(t, s.DeleteSession())
	require.NoError(t, s.DeleteSession())
	_, err = s.GetSession()
	require.ErrorIs(t, err, ErrNotFound)
}
