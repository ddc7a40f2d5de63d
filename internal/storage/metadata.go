package storage

import (
	"context"
	"log/slog"
	"maps"
)

// MetadataStore is the sidecar cache of fetched video metadata, stored as
// a JSON object keyed by video ID. It has its own file so the queue's
// read/write path never pays for metadata.
type MetadataStore struct {
	path   string
	logger *slog.Logger
}

// NewMetadataStore returns a store backed by the JSON file at path.
func NewMetadataStore(path string, logger *slog.Logger) *MetadataStore {
	return &MetadataStore{path: path, logger: discardLogger(logger)}
}

// Path returns the backing file path.
func (s *MetadataStore) Path() string { return s.path }

// All returns the whole cache. The map is never nil.
func (s *MetadataStore) All(ctx context.Context) (map[string]VideoMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries := make(map[string]VideoMeta)
	if _, err := ReadJSONFile(s.path, &entries); err != nil {
		return nil, &StorageError{Op: "read", Entity: "metadata", Err: err}
	}
	if entries == nil {
		entries = make(map[string]VideoMeta)
	}
	return entries, nil
}

// Get returns the cached metadata for id, or ErrNotFound.
func (s *MetadataStore) Get(ctx context.Context, id string) (*VideoMeta, error) {
	entries, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	meta, ok := entries[id]
	if !ok {
		return nil, &StorageError{Op: "read", Entity: "metadata", ID: id, Err: ErrNotFound}
	}
	return &meta, nil
}

// UpsertMany merges entries into the cache, replacing any existing value
// for the same ID, and rewrites the whole file. Applying the same batch
// twice leaves the same content as applying it once.
func (s *MetadataStore) UpsertMany(ctx context.Context, entries map[string]VideoMeta) error {
	if len(entries) == 0 {
		return ctx.Err()
	}
	current, err := s.All(ctx)
	if err != nil {
		return err
	}
	maps.Copy(current, entries)
	if err := WriteJSONFile(s.path, current); err != nil {
		return &StorageError{Op: "write", Entity: "metadata", Err: err}
	}
	s.logger.Debug("metadata saved", "path", s.path, "upserted", len(entries), "total", len(current))
	return nil
}
