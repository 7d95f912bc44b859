package importer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ensureDir creates a directory if it doesn't exist.
func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// replaceDir moves src to dst. A previous dst is first renamed aside to a
// dot directory and only removed once src is in place; if the move fails it
// is restored. A backup left behind by an interrupted swap is restored
// before anything else.
func replaceDir(src, dst string) error {
	backup := filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+".previous")
	if _, err := os.Stat(backup); err == nil {
		if _, err := os.Stat(dst); errors.Is(err, fs.ErrNotExist) {
			if err := os.Rename(backup, dst); err != nil {
				return fmt.Errorf("restore %s: %w", dst, err)
			}
		}
	}
	if err := os.RemoveAll(backup); err != nil {
		return fmt.Errorf("remove %s: %w", backup, err)
	}

	hadPrevious := true
	if err := os.Rename(dst, backup); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("back up %s: %w", dst, err)
		}
		hadPrevious = false
	}

	if err := os.Rename(src, dst); err != nil {
		if hadPrevious {
			if rerr := os.Rename(backup, dst); rerr != nil {
				return errors.Join(fmt.Errorf("rename %s: %w", src, err), fmt.Errorf("restore %s: %w", dst, rerr))
			}
		}
		return fmt.Errorf("rename %s: %w", src, err)
	}

	if hadPrevious {
		if err := os.RemoveAll(backup); err != nil {
			return fmt.Errorf("remove %s: %w", backup, err)
		}
	}
	return nil
}
