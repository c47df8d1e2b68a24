package config

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

var ErrAlreadyRunning = errors.New("another relay instance holds the lock")

// AcquireLock takes the single-instance lock at path. An empty path disables
// locking and returns a no-op release.
func AcquireLock(path string) (func() error, error) {
	if path == "" {
		return func() error { return nil }, nil
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, path)
	}
	return lock.Unlock, nil
}
