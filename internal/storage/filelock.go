package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// DefaultLockTimeout bounds how long a command waits for another ytq
// process. The lock is only ever held for a local read-modify-write, so a
// short wait is enough.
const DefaultLockTimeout = 500 * time.Millisecond

const lockRetryDelay = 10 * time.Millisecond

// LockMode selects exclusive (writer) or shared (reader) locking.
type LockMode int

const (
	// Exclusive must be held for any write to a store.
	Exclusive LockMode = iota
	// Shared is enough for pure reads; many readers may hold it at once.
	Shared
)

func (m LockMode) String() string {
	if m == Shared {
		return "shared"
	}
	return "exclusive"
}

// Guard represents a held advisory lock. Release it with defer.
type Guard struct {
	lock *flock.Flock
	mode LockMode
	once sync.Once
	err  error
}

// AcquireLock takes an advisory flock(2) lock on path, polling until
// timeout. It returns ErrLockTimeout when the lock is still held by another
// process at the deadline.
func AcquireLock(ctx context.Context, path string, mode LockMode, timeout time.Duration) (*Guard, error) {
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &StorageError{Op: "lock", Entity: "file", ID: path, Err: err}
	}

	lock := flock.New(path)

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var ok bool
	var err error
	if mode == Shared {
		ok, err = lock.TryRLockContext(waitCtx, lockRetryDelay)
	} else {
		ok, err = lock.TryLockContext(waitCtx, lockRetryDelay)
	}
	if ok {
		return &Guard{lock: lock, mode: mode}, nil
	}

	lock.Close()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err == nil || errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: %s lock on %s held for more than %v", ErrLockTimeout, mode, path, timeout)
	}
	return nil, &StorageError{Op: "lock", Entity: "file", ID: path, Err: err}
}

// Mode reports the mode the guard was acquired with.
func (g *Guard) Mode() LockMode { return g.mode }

// Release unlocks and closes the lock file. Safe to call more than once.
// The lock file itself is left in place: removing it would let a waiting
// process lock an inode that a third process can no longer see.
func (g *Guard) Release() error {
	if g == nil {
		return nil
	}
	g.once.Do(func() {
		g.err = g.lock.Unlock()
		g.lock.Close()
	})
	return g.err
}

// Locker scopes critical sections over one lock file.
type Locker struct {
	Path    string
	Timeout time.Duration
}

// NewLocker returns a Locker for the lock file at path with the default timeout.
func NewLocker(path string) *Locker {
	return &Locker{Path: path, Timeout: DefaultLockTimeout}
}

// WithLock runs fn while holding the lock in the given mode. The lock is
// released on every return path, including panics.
func (l *Locker) WithLock(ctx context.Context, mode LockMode, fn func() error) error {
	guard, err := AcquireLock(ctx, l.Path, mode, l.Timeout)
	if err != nil {
		return err
	}
	defer guard.Release()
	return fn()
}
