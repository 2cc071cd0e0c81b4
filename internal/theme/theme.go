package theme

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/malonaz/botchat/store"
)

// Theme is the light/dark display preference.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"

	// Default applies when nothing has been persisted yet.
	Default = Dark

	preferenceKey = "theme"
)

// Parse returns the theme named by `s`.
func Parse(s string) (Theme, error) {
	switch Theme(s) {
	case Light, Dark:
		return Theme(s), nil
	}
	return "", errors.Errorf("unknown theme %q", s)
}

// IsDark reports whether t is the dark theme.
func (t Theme) IsDark() bool { return t == Dark }

// Opposite returns the other theme.
func (t Theme) Opposite() Theme {
	if t == Light {
		return Dark
	}
	return Light
}

// Preferences reads and writes persisted preferences.
type Preferences interface {
	GetPreference(*store.GetPreferenceRequest) (string, error)
	SetPreference(*store.SetPreferenceRequest) error
}

// Manager owns the current theme and writes every change through to the preferences.
type Manager struct {
	mu          sync.Mutex
	preferences Preferences
	current     Theme
}

// Load reads the persisted theme. A missing or unreadable value yields the default.
func Load(preferences Preferences) (*Manager, error) {
	m := &Manager{preferences: preferences, current: Default}
	value, err := preferences.GetPreference(&store.GetPreferenceRequest{Key: preferenceKey})
	if errors.Is(err, store.ErrNotFound) {
		return m, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading theme preference")
	}
	if theme, err := Parse(value); err == nil {
		m.current = theme
	}
	return m, nil
}

// Current returns the active theme.
func (m *Manager) Current() Theme {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Set persists and activates `theme`.
func (m *Manager) Set(theme Theme) error {
	if _, err := Parse(string(theme)); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.preferences.SetPreference(&store.SetPreferenceRequest{Key: preferenceKey, Value: string(theme)}); err != nil {
		return errors.Wrap(err, "writing theme preference")
	}
	m.current = theme
	return nil
}

// Toggle switches to the opposite theme and returns it.
func (m *Manager) Toggle() (Theme, error) {
	next := m.Current().Opposite()
	if err := m.Set(next); err != nil {
		return m.Current(), err
	}
	return next, nil
}
