package resources

import (
	"context"
	"fmt"
	"os"
	"time"
)

// DefaultLockTimeout is the default timeout for acquiring the sync lock.
const DefaultLockTimeout = 30 * time.Second

// lockFileName is created in the resources directory while a sync runs.
const lockFileName = ".glm-sync.lock"

// Locker provides mutual exclusion between sync runs on one resources
// directory, across processes.
type Locker interface {
	// Lock blocks until the lock is held, the timeout expires, or ctx is done.
	Lock(ctx context.Context) error

	// Unlock releases the lock. Safe to call multiple times.
	Unlock() error
}

// fileLock implements Locker with an OS-level lock on a lock file.
type fileLock struct {
	file    *os.File
	timeout time.Duration
	locked  bool
}

var _ Locker = (*fileLock)(nil)

// newFileLock opens (creating if needed) the lock file at path.
func newFileLock(path string, timeout time.Duration) (*fileLock, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	return &fileLock{file: file, timeout: timeout}, nil
}

// Lock polls tryLockFile with backoff until it succeeds.
func (l *fileLock) Lock(ctx context.Context) error {
	if l.locked {
		return nil
	}

	deadline := time.Now().Add(l.timeout)
	sleep := 10 * time.Millisecond

	for {
		if err := tryLockFile(l.file); err == nil {
			l.locked = true
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("lock timeout after %v", l.timeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
		if sleep < 100*time.Millisecond {
			sleep *= 2
		}
	}
}

// Unlock releases the lock and closes the file handle.
func (l *fileLock) Unlock() error {
	if l.file == nil {
		return nil
	}

	var err error
	if l.locked {
		err = unlockFile(l.file)
		l.locked = false
	}
	l.file.Close()
	l.file = nil
	return err
}
