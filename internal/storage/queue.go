package storage

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"slices"
)

// QueueStore keeps the ordered watch-later queue in a single JSON array.
// Every mutation loads the whole sequence, edits it in memory and writes it
// back atomically. Callers must hold an exclusive lock around mutations.
type QueueStore struct {
	path   string
	logger *slog.Logger
}

// NewQueueStore returns a store backed by the JSON file at path.
func NewQueueStore(path string, logger *slog.Logger) *QueueStore {
	return &QueueStore{path: path, logger: discardLogger(logger)}
}

// Path returns the backing file path.
func (s *QueueStore) Path() string { return s.path }

func (s *QueueStore) load() ([]VideoRef, error) {
	var refs []VideoRef
	if _, err := ReadJSONFile(s.path, &refs); err != nil {
		return nil, &StorageError{Op: "read", Entity: "queue", Err: err}
	}
	return refs, nil
}

func (s *QueueStore) save(refs []VideoRef) error {
	if refs == nil {
		refs = []VideoRef{}
	}
	if err := WriteJSONFile(s.path, refs); err != nil {
		return &StorageError{Op: "write", Entity: "queue", Err: err}
	}
	s.logger.Debug("queue saved", "path", s.path, "entries", len(refs))
	return nil
}

// List returns the queue in stored (append) order.
func (s *QueueStore) List(ctx context.Context) ([]VideoRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.load()
}

// IDs returns the video IDs in stored order.
func (s *QueueStore) IDs(ctx context.Context) ([]string, error) {
	refs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(refs))
	for i, ref := range refs {
		ids[i] = ref.ID
	}
	return ids, nil
}

// Append adds ref at the tail. It returns ErrAlreadyExists when the ID is
// already queued.
func (s *QueueStore) Append(ctx context.Context, ref VideoRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	refs, err := s.load()
	if err != nil {
		return err
	}
	if slices.ContainsFunc(refs, func(r VideoRef) bool { return r.ID == ref.ID }) {
		return &StorageError{Op: "append", Entity: "queue", ID: ref.ID, Err: ErrAlreadyExists}
	}
	return s.save(append(refs, ref))
}

// PopNext removes and returns the head (ModeQueue) or tail (ModeStack).
func (s *QueueStore) PopNext(ctx context.Context, mode Mode) (VideoRef, error) {
	return s.popAt(ctx, func(n int) int {
		if mode == ModeStack {
			return n - 1
		}
		return 0
	})
}

// PopRandom removes and returns a uniformly selected entry.
func (s *QueueStore) PopRandom(ctx context.Context) (VideoRef, error) {
	return s.popAt(ctx, rand.IntN)
}

// Pop removes and returns the entry with the given ID.
func (s *QueueStore) Pop(ctx context.Context, id string) (VideoRef, error) {
	if err := ctx.Err(); err != nil {
		return VideoRef{}, err
	}
	refs, err := s.load()
	if err != nil {
		return VideoRef{}, err
	}
	idx := slices.IndexFunc(refs, func(r VideoRef) bool { return r.ID == id })
	if idx < 0 {
		return VideoRef{}, &StorageError{Op: "remove", Entity: "queue", ID: id, Err: ErrNotFound}
	}
	ref := refs[idx]
	if err := s.save(slices.Delete(refs, idx, idx+1)); err != nil {
		return VideoRef{}, err
	}
	return ref, nil
}

// Remove deletes the entry with the given ID. The file is left untouched
// when no entry matches.
func (s *QueueStore) Remove(ctx context.Context, id string) error {
	_, err := s.Pop(ctx, id)
	return err
}

func (s *QueueStore) popAt(ctx context.Context, pick func(n int) int) (VideoRef, error) {
	if err := ctx.Err(); err != nil {
		return VideoRef{}, err
	}
	refs, err := s.load()
	if err != nil {
		return VideoRef{}, err
	}
	if len(refs) == 0 {
		return VideoRef{}, &StorageError{Op: "pop", Entity: "queue", Err: ErrEmptyQueue}
	}
	idx := pick(len(refs))
	ref := refs[idx]
	if err := s.save(slices.Delete(refs, idx, idx+1)); err != nil {
		return VideoRef{}, err
	}
	return ref, nil
}

// Peek returns up to n entries in the order they would be popped under
// mode. n below 1 is treated as 1. It never mutates the store.
func (s *QueueStore) Peek(ctx context.Context, n int, mode Mode) ([]VideoRef, error) {
	refs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if n < 1 {
		n = 1
	}
	n = min(n, len(refs))
	if mode == ModeStack {
		slices.Reverse(refs)
	}
	return refs[:n], nil
}
