package file

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ExpandPath replaces a leading `~/` with the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "getting user home dir")
	}
	return filepath.Join(home, path[2:]), nil
}

// EnsureParentDir creates the directory holding `path`, with its parents, when it is missing.
func EnsureParentDir(path string) error {
	directory := filepath.Dir(path)
	if directory == "." || directory == "" {
		return nil
	}
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return errors.Wrapf(err, "creating directory %s", directory)
	}
	return nil
}
