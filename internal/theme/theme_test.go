package theme

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malonaz/botchat/store"
)

func newStore(t *testing.T, path string) *store.Store {
	t.Helper()
	s, err := store.New(path)
	require.NoError(t, err)
	return s
}

func TestDefaultIsDark(t *testing.T) {
	s := newStore(t, filepath.Join(t.TempDir(), "botchat.db"))
	defer s.Close()

	m, err := Load(s)
	require.NoError(t, err)
	assert.Equal(t, Dark, m.Current())
	assert.True(t, m.Current().IsDark())
}

func TestToggleTwiceRestoresAndSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "botchat.db")
	s := newStore(t, path)

	m, err := Load(s)
	require.NoError(t, err)
	original := m.Current()

	toggled, err := m.Toggle()
	require.NoError(t, err)
	assert.Equal(t, original.Opposite(), toggled)

	toggled, err = m.Toggle()
	require.NoError(t, err)
	assert.Equal(t, original, toggled)

	_, err = m.Toggle()
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s = newStore(t, path)
	defer s.Close()
	reloaded, err := Load(s)
	require.NoError(t, err)
	assert.Equal(t, Light, reloaded.Current())
}

func TestLoadIgnoresUnknownValue(t *testing.T) {
	s := newStore(t, filepath.Join(t.TempDir(), "botchat.db"))
	defer s.Close()
	require.NoError(t, s.SetPreference(&store.SetPreferenceRequest{Key: "theme", Value: "sepia"}))

	m, err := Load(s)
	require.NoError(t, err)
	assert.Equal(t, Dark, m.Current())
	require.Error(t, m.Set("sepia"))
}

func TestParse(t *testing.T) {
	theme, err := Parse("light")
	require.NoError(t, err)
	assert.Equal(t, Light, theme)
	_, err = Parse("LIGHT")
	require.Error(t, err)
}
