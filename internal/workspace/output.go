package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// ErrOutputBusy reports that another render holds the output lock.
var ErrOutputBusy = errors.New("output is locked by another render")

// OutputLock is an advisory lock on <output>.lock.
type OutputLock struct {
	path string
	lock *flock.Flock
}

// LockOutput acquires the lock for output without blocking.
func LockOutput(output string) (*OutputLock, error) {
	lockPath := output + ".lock"
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOutputBusy, lockPath)
	}
	return &OutputLock{path: lockPath, lock: lock}, nil
}

// Release unlocks and removes the lock file.
func (l *OutputLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release output lock: %w", err)
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove output lock: %w", err)
	}
	return nil
}

// PartialPath returns the in-progress file name for output:
// "recap.mp4" becomes "recap.partial.mp4" in the same directory.
func PartialPath(output string) string {
	ext := filepath.Ext(output)
	base := strings.TrimSuffix(output, ext)
	if ext == "" {
		ext = ".mp4"
	}
	return base + ".partial" + ext
}
