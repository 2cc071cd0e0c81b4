package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavigation(t *testing.T) {
	h, err := New("")
	require.NoError(t, err)
	require.NoError(t, h.Add("first"))
	require.NoError(t, h.Add("second"))
	require.NoError(t, h.Add("second"))
	assert.Equal(t, 2, h.Len())

	entry, ok := h.Previous("draft")
	assert.True(t, ok)
	assert.Equal(t, "second", entry)
	entry, ok = h.Previous("ignored")
	assert.True(t, ok)
	assert.Equal(t, "first", entry)
	entry, ok = h.Previous("ignored")
	assert.False(t, ok)
	assert.Equal(t, "first", entry)

	entry, ok = h.Next()
	assert.True(t, ok)
	assert.Equal(t, "second", entry)
	entry, ok = h.Next()
	assert.True(t, ok)
	assert.Equal(t, "draft", entry)
	_, ok = h.Next()
	assert.False(t, ok)
}

func TestPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	h, err := New(path)
	require.NoError(t, err)
	require.NoError(t, h.Add("line one\nline two with \\n literal"))
	require.NoError(t, h.Add("  "))

	reloaded, err := New(path)
	require.NoError(t, err)
	require.Equal(t, 1, reloaded.Len())
	assert.Equal(t, []string{"line one\nline two with \\n literal"}, reloaded.Entries())
	entry, ok := reloaded.Previous("")
	assert.True(t, ok)
	assert.Equal(t, "line one\nline two with \\n literal", entry)
}
