package derivative

import (
	"fmt"
	"log/slog"
	"os"
)

// EnsureDir creates dir and any missing parents. An existing directory is a no-op.
func EnsureDir(dir string) error {
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		return &DirectoryError{Path: dir, Err: fmt.Errorf("not a directory")}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return &DirectoryError{Path: dir, Err: err}
	}

	slog.Debug("Output directory ready", "dir", dir)
	return nil
}
