package clipboard

import (
	"sync"

	"github.com/pkg/errors"
	"golang.design/x/clipboard"
)

// Writer writes text to a clipboard.
type Writer interface {
	Write(text string) error
}

// System is the OS clipboard. It is initialized on first write.
type System struct {
	once sync.Once
	err  error
}

// Write places `text` on the clipboard.
func (s *System) Write(text string) error {
	s.once.Do(func() {
		s.err = clipboard.Init()
	})
	if s.err != nil {
		return errors.Wrap(s.err, "clipboard unavailable")
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
