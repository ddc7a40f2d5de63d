// Package fetch decides which videos need metadata and drives batched
// lookups against the YouTube Data API.
//
// The engine never holds the data directory lock across a network call:
// candidates are read under a shared lock, each batch is fetched without
// any lock, and its results are committed under a short exclusive lock.
// A crash or failure mid-run therefore keeps every batch committed so far.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"ytq/internal/storage"
	"ytq/internal/youtube"
)

// Scope selects where candidate IDs come from.
type Scope string

// Scope values.
const (
	ScopeQueue   Scope = "queue"
	ScopeHistory Scope = "history"
	ScopeAll     Scope = "all"
)

// Request describes one fetch run.
type Request struct {
	// Scope is ignored when IDs is non-empty.
	Scope Scope
	// IDs are explicit targets. They are always fetched, as if Force were set.
	IDs []string
	// Force re-fetches IDs whose metadata is already cached.
	Force bool
	// Limit caps the number of IDs fetched; 0 means no limit.
	Limit int
}

// Fetcher looks up metadata for at most youtube.MaxBatchSize IDs.
// *youtube.Client implements it.
type Fetcher interface {
	FetchVideos(ctx context.Context, ids []string) ([]storage.VideoMeta, error)
}

// Result summarises a completed run.
type Result struct {
	Requested   int // IDs planned
	Fetched     int // IDs the API returned
	Unavailable int // IDs the API did not return
}

// BatchError reports a run that stopped partway. Batches before Batch were
// committed and stay committed.
type BatchError struct {
	Batch     int // 1-based index of the failed batch
	Processed int // IDs committed before the failure
	Total     int
	Err       error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("fetch: batch %d failed after %d of %d videos: %v", e.Batch, e.Processed, e.Total, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Engine computes fetch plans against a Store and applies fetched batches.
type Engine struct {
	store     *storage.Store
	fetcher   Fetcher
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

// NewEngine returns an engine. fetcher may be nil when only Plan is used.
func NewEngine(store *storage.Store, fetcher Fetcher, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		store:     store,
		fetcher:   fetcher,
		batchSize: youtube.MaxBatchSize,
		logger:    logger.With("component", "fetch"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Plan returns the IDs a Run with req would fetch, in fetch order.
func (e *Engine) Plan(ctx context.Context, req Request) ([]string, error) {
	var plan []string
	err := e.store.Lock.WithLock(ctx, storage.Shared, func() error {
		var err error
		plan, err = e.plan(ctx, req)
		return err
	})
	return plan, err
}

func (e *Engine) plan(ctx context.Context, req Request) ([]string, error) {
	if len(req.IDs) > 0 {
		return truncate(dedupe(req.IDs), req.Limit), nil
	}

	var candidates []string
	if req.Scope == ScopeQueue || req.Scope == ScopeAll || req.Scope == "" {
		ids, err := e.store.Queue.IDs(ctx)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, ids...)
	}
	if req.Scope == ScopeHistory || req.Scope == ScopeAll {
		for event, err := range e.store.History.ReadAll(ctx) {
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, event.VideoID)
		}
	}
	candidates = dedupe(candidates)

	if !req.Force {
		cached, err := e.store.Metadata.All(ctx)
		if err != nil {
			return nil, err
		}
		candidates = slices.DeleteFunc(candidates, func(id string) bool {
			meta, ok := cached[id]
			return ok && meta.Fetched()
		})
	}
	return truncate(candidates, req.Limit), nil
}

// Run plans req and fetches the plan batch by batch. progress, when
// non-nil, is called after every committed batch.
func (e *Engine) Run(ctx context.Context, req Request, progress func(processed, total int)) (Result, error) {
	plan, err := e.Plan(ctx, req)
	if err != nil {
		return Result{}, err
	}
	result := Result{Requested: len(plan)}
	if len(plan) == 0 {
		e.logger.Debug("nothing to fetch", "scope", req.Scope, "force", req.Force)
		return result, nil
	}
	if e.fetcher == nil {
		return result, fmt.Errorf("fetch: no fetcher configured")
	}

	processed := 0
	batch := 0
	for chunk := range slices.Chunk(plan, e.batchSize) {
		batch++
		fetched, missing, err := e.runBatch(ctx, chunk)
		if err != nil {
			return result, &BatchError{Batch: batch, Processed: processed, Total: len(plan), Err: err}
		}
		processed += len(chunk)
		result.Fetched += fetched
		result.Unavailable += missing
		e.logger.Debug("batch committed", "batch", batch, "size", len(chunk), "processed", processed, "total", len(plan))
		if progress != nil {
			progress(processed, len(plan))
		}
	}
	return result, nil
}

func (e *Engine) runBatch(ctx context.Context, ids []string) (fetched, missing int, err error) {
	metas, err := e.fetcher.FetchVideos(ctx, ids)
	if err != nil {
		return 0, 0, err
	}

	now := e.now()
	entries := make(map[string]storage.VideoMeta, len(ids))
	for _, meta := range metas {
		if !slices.Contains(ids, meta.ID) {
			continue
		}
		if meta.FetchedAt.IsZero() {
			meta.FetchedAt = now
		}
		entries[meta.ID] = meta
	}
	fetched = len(entries)
	for _, id := range ids {
		if _, ok := entries[id]; ok {
			continue
		}
		entries[id] = storage.VideoMeta{ID: id, Tags: []string{}, FetchedAt: now, Unavailable: true}
		missing++
	}

	err = e.store.Lock.WithLock(ctx, storage.Exclusive, func() error {
		return e.store.Metadata.UpsertMany(ctx, entries)
	})
	if err != nil {
		return 0, 0, err
	}
	return fetched, missing, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func truncate(ids []string, limit int) []string {
	if limit > 0 && len(ids) > limit {
		return ids[:limit]
	}
	return ids
}
