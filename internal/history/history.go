package history

import (
	"bufio"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/malonaz/botchat/internal/file"
)

const maxHistorySize = 1000

// History holds the messages a user composed, most recent last, persisted one per line.
type History struct {
	mu      sync.Mutex
	path    string
	entries []string
	// Position while navigating. -1 means the user is editing a fresh draft.
	index int
	// The draft that was in the composer when navigation started.
	draft string
}

// New returns a History backed by `path`. A missing file is an empty history.
func New(path string) (*History, error) {
	h := &History{path: path, index: -1}
	if path == "" {
		return h, nil
	}
	if err := h.load(); err != nil {
		return nil, errors.Wrap(err, "loading history")
	}
	return h, nil
}

func (h *History) load() error {
	f, err := os.Open(h.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "opening history file")
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if entry := unescape(scanner.Text()); entry != "" {
			h.entries = append(h.entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "scanning history file")
	}
	h.trim()
	return nil
}

func (h *History) save() error {
	if h.path == "" {
		return nil
	}
	if err := file.EnsureParentDir(h.path); err != nil {
		return err
	}
	f, err := os.Create(h.path)
	if err != nil {
		return errors.Wrap(err, "creating history file")
	}
	defer f.Close()

	writer := bufio.NewWriter(f)
	for _, entry := range h.entries {
		if _, err := writer.WriteString(escape(entry) + "\n"); err != nil {
			return errors.Wrap(err, "writing history entry")
		}
	}
	return errors.Wrap(writer.Flush(), "flushing history file")
}

func (h *History) trim() {
	if len(h.entries) > maxHistorySize {
		h.entries = h.entries[len(h.entries)-maxHistorySize:]
	}
}

// Add records a sent message and resets navigation. Repeats of the latest entry are not recorded.
func (h *History) Add(entry string) error {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.index = -1
	h.draft = ""
	if len(h.entries) > 0 && h.entries[len(h.entries)-1] == entry {
		return nil
	}
	h.entries = append(h.entries, entry)
	h.trim()
	return h.save()
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Entries returns a copy of the entries, oldest first.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...)
}

// Previous steps back in history. `draft` is the composer content, remembered when navigation starts.
// Returns false when there is nothing older.
func (h *History) Previous(draft string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case len(h.entries) == 0:
		return "", false
	case h.index == -1:
		h.draft = draft
		h.index = len(h.entries) - 1
	case h.index > 0:
		h.index--
	default:
		return h.entries[0], false
	}
	return h.entries[h.index], true
}

// Next steps forward in history, returning the remembered draft after the newest entry.
func (h *History) Next() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.index == -1 {
		return "", false
	}
	h.index++
	if h.index >= len(h.entries) {
		h.index = -1
		return h.draft, true
	}
	return h.entries[h.index], true
}

// Reset stops navigation. Call it when the composer is edited.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.index = -1
	h.draft = ""
}

func escape(entry string) string {
	entry = strings.ReplaceAll(entry, "\\", "\\\\")
	return strings.ReplaceAll(entry, "\n", "\\n")
}

func unescape(line string) string {
	var b strings.Builder
	for i := 0; i < len(line); i++ {
		if line[i] == '\\' && i+1 < len(line) {
			i++
			if line[i] == 'n' {
				b.WriteByte('\n')
			} else {
				b.WriteByte(line[i])
			}
			continue
		}
		b.WriteByte(line[i])
	}
	return b.String()
}
