package fetch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"ytq/internal/storage"
)

type fakeFetcher struct {
	calls   [][]string
	missing map[string]bool
	failOn  int // 1-based call that fails; 0 never fails
}

func (f *fakeFetcher) FetchVideos(_ context.Context, ids []string) ([]storage.VideoMeta, error) {
	f.calls = append(f.calls, slices.Clone(ids))
	if f.failOn == len(f.calls) {
		return nil, errors.New("quota exhausted")
	}
	var metas []storage.VideoMeta
	for _, id := range ids {
		if f.missing[id] {
			continue
		}
		metas = append(metas, storage.VideoMeta{ID: id, Title: "title " + id, Tags: []string{}})
	}
	return metas, nil
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, fetcher Fetcher) (*Engine, *storage.Store) {
	t.Helper()
	store := storage.Open(t.TempDir(), nil)
	engine := NewEngine(store, fetcher, nil)
	engine.now = func() time.Time { return fixedNow }
	return engine, store
}

func queue(t *testing.T, store *storage.Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := store.Queue.Append(context.Background(), storage.VideoRef{ID: id, URL: id, AddedAt: fixedNow}); err != nil {
			t.Fatalf("Append(%s) error = %v", id, err)
		}
	}
}

func logged(t *testing.T, store *storage.Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		event := storage.Event{Timestamp: fixedNow, Action: storage.ActionAdded, VideoID: id}
		if err := store.History.Append(context.Background(), event); err != nil {
			t.Fatalf("History.Append(%s) error = %v", id, err)
		}
	}
}

func cache(t *testing.T, store *storage.Store, ids ...string) {
	t.Helper()
	entries := make(map[string]storage.VideoMeta)
	for _, id := range ids {
		entries[id] = storage.VideoMeta{ID: id, Title: "cached", FetchedAt: fixedNow.Add(-time.Hour)}
	}
	if err := store.Metadata.UpsertMany(context.Background(), entries); err != nil {
		t.Fatalf("UpsertMany() error = %v", err)
	}
}

func TestEngine_PlanScopes(t *testing.T) {
	engine, store := newTestEngine(t, nil)
	queue(t, store, "q1", "q2", "shared")
	logged(t, store, "h1", "shared", "h1")
	cache(t, store, "q2")

	tests := []struct {
		name string
		req  Request
		want []string
	}{
		{"queue skips cached", Request{Scope: ScopeQueue}, []string{"q1", "shared"}},
		{"history dedupes", Request{Scope: ScopeHistory}, []string{"h1", "shared"}},
		{"all keeps first seen order", Request{Scope: ScopeAll}, []string{"q1", "shared", "h1"}},
		{"force includes cached", Request{Scope: ScopeQueue, Force: true}, []string{"q1", "q2", "shared"}},
		{"limit truncates", Request{Scope: ScopeAll, Limit: 2}, []string{"q1", "shared"}},
		{"explicit ids bypass cache", Request{IDs: []string{"q2", "x", "q2"}}, []string{"q2", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Plan(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("Plan() error = %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Plan() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEngine_PlanSkipsUnavailable(t *testing.T) {
	engine, store := newTestEngine(t, nil)
	queue(t, store, "gone", "fresh")
	err := store.Metadata.UpsertMany(context.Background(), map[string]storage.VideoMeta{
		"gone": {ID: "gone", FetchedAt: fixedNow, Unavailable: true},
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := engine.Plan(context.Background(), Request{Scope: ScopeQueue})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if !slices.Equal(got, []string{"fresh"}) {
		t.Errorf("Plan() = %v, want [fresh]", got)
	}
}

func TestEngine_RunBatchesAndCommits(t *testing.T) {
	fetcher := &fakeFetcher{missing: map[string]bool{"v2": true}}
	engine, store := newTestEngine(t, fetcher)
	engine.batchSize = 2
	queue(t, store, "v1", "v2", "v3", "v4", "v5")

	var progress [][2]int
	result, err := engine.Run(context.Background(), Request{Scope: ScopeQueue}, func(processed, total int) {
		progress = append(progress, [2]int{processed, total})
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result != (Result{Requested: 5, Fetched: 4, Unavailable: 1}) {
		t.Errorf("Run() result = %+v", result)
	}
	if len(fetcher.calls) != 3 {
		t.Errorf("fetcher called %d times, want 3", len(fetcher.calls))
	}
	wantProgress := [][2]int{{2, 5}, {4, 5}, {5, 5}}
	if !slices.Equal(progress, wantProgress) {
		t.Errorf("progress = %v, want %v", progress, wantProgress)
	}

	all, err := store.Metadata.All(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 5 {
		t.Fatalf("metadata entries = %d, want 5", len(all))
	}
	if !all["v2"].Unavailable || !all["v2"].Fetched() {
		t.Errorf("v2 = %+v, want unavailable with fetched_at", all["v2"])
	}
	if all["v1"].Title != "title v1" || !all["v1"].FetchedAt.Equal(fixedNow) {
		t.Errorf("v1 = %+v", all["v1"])
	}

	// A second run finds nothing left to do.
	again, err := engine.Run(context.Background(), Request{Scope: ScopeQueue}, nil)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if again.Requested != 0 || len(fetcher.calls) != 3 {
		t.Errorf("second Run() = %+v with %d calls, want no work", again, len(fetcher.calls))
	}
}

func TestEngine_RunExplicitRefetchOverwrites(t *testing.T) {
	fetcher := &fakeFetcher{}
	engine, store := newTestEngine(t, fetcher)
	cache(t, store, "v1")

	if _, err := engine.Run(context.Background(), Request{IDs: []string{"v1"}}, nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	meta, err := store.Metadata.Get(context.Background(), "v1")
	if err != nil {
		t.Fatal(err)
	}
	if meta.Title != "title v1" || !meta.FetchedAt.Equal(fixedNow) {
		t.Errorf("Get(v1) = %+v, want refreshed entry", meta)
	}
}

func TestEngine_RunPartialFailure(t *testing.T) {
	fetcher := &fakeFetcher{failOn: 2}
	engine, store := newTestEngine(t, fetcher)
	engine.batchSize = 2
	queue(t, store, "v1", "v2", "v3", "v4", "v5")

	_, err := engine.Run(context.Background(), Request{Scope: ScopeQueue}, nil)
	var batchErr *BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("Run() error = %v, want *BatchError", err)
	}
	if batchErr.Batch != 2 || batchErr.Processed != 2 || batchErr.Total != 5 {
		t.Errorf("BatchError = %+v", batchErr)
	}
	if len(fetcher.calls) != 2 {
		t.Errorf("fetcher called %d times, want remaining batches aborted", len(fetcher.calls))
	}

	all, err := store.Metadata.All(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("committed entries = %d, want 2 from the first batch", len(all))
	}

	// The retry picks up where the failed run stopped.
	fetcher.failOn = 0
	plan, err := engine.Plan(context.Background(), Request{Scope: ScopeQueue})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(plan, []string{"v3", "v4", "v5"}) {
		t.Errorf("Plan() after failure = %v", plan)
	}
}

func TestEngine_RunLargePlanUsesFullBatches(t *testing.T) {
	fetcher := &fakeFetcher{}
	engine, _ := newTestEngine(t, fetcher)

	ids := make([]string, 120)
	for i := range ids {
		ids[i] = fmt.Sprintf("id%03d", i)
	}
	result, err := engine.Run(context.Background(), Request{IDs: ids}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Fetched != 120 {
		t.Errorf("Fetched = %d, want 120", result.Fetched)
	}
	sizes := make([]int, len(fetcher.calls))
	for i, call := range fetcher.calls {
		sizes[i] = len(call)
	}
	if !slices.Equal(sizes, []int{50, 50, 20}) {
		t.Errorf("batch sizes = %v, want [50 50 20]", sizes)
	}
}
