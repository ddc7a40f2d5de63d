// Package storage persists the ytq queue, metadata cache, category table
// and event history as plain files in a single data directory.
//
// Every store is a thin view over one file (or one directory of files for
// the history log). Stores hold no state between calls: each operation
// re-reads the file, so several processes can share a data directory as
// long as mutations happen under an exclusive Lock.
package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

var (
	ErrNotFound       = errors.New("storage: not found")
	ErrAlreadyExists  = errors.New("storage: already exists")
	ErrEmptyQueue     = errors.New("storage: queue is empty")
	ErrStorageCorrupt = errors.New("storage: data corruption detected")
	// ErrLockTimeout means another ytq process held the lock past the
	// acquisition timeout.
	ErrLockTimeout = errors.New("storage: lock acquisition timeout")
)

// StorageError records which store operation failed. Entity names the store
// ("queue", "metadata", "categories", "history", "file") and ID the video,
// partition or path involved, when there is one.
type StorageError struct {
	Op     string
	Entity string
	ID     string
	Err    error
}

func (e *StorageError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("storage: %s %s %s: %v", e.Op, e.Entity, e.ID, e.Err)
	}
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func discardLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
