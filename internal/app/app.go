// Package app executes ytq commands against the data directory.
//
// Every command runs inside one lock scope: mutations take the exclusive
// lock, reads the shared one. Network calls (fetch, opening a browser)
// always happen outside the lock.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"ytq/internal/config"
	"ytq/internal/fetch"
	"ytq/internal/stats"
	"ytq/internal/storage"
	"ytq/internal/videoid"
	"ytq/internal/youtube"
)

// ErrOffline is returned by commands that need the network while offline
// mode is on.
var ErrOffline = errors.New("app: offline mode is on (run `ytq config offline false` to enable fetching)")

// YouTube is the subset of the API client the app uses.
type YouTube interface {
	fetch.Fetcher
	FetchCategories(ctx context.Context, region string) (map[string]string, error)
}

// ClientFactory builds a YouTube client for an API key.
type ClientFactory func(ctx context.Context, apiKey string, logger *slog.Logger) (YouTube, error)

// NewYouTubeClient is the default ClientFactory.
func NewYouTubeClient(ctx context.Context, apiKey string, logger *slog.Logger) (YouTube, error) {
	cfg := youtube.DefaultConfig(apiKey)
	cfg.Logger = logger
	return youtube.NewClient(ctx, cfg)
}

// Options holds the collaborators of an App. Zero values select defaults.
type Options struct {
	Opener    Opener
	NewClient ClientFactory
	Logger    *slog.Logger
	Now       func() time.Time
}

// App runs commands for one invocation.
type App struct {
	cfg       *config.Config
	paths     config.Paths
	store     *storage.Store
	opener    Opener
	newClient ClientFactory
	logger    *slog.Logger
	now       func() time.Time
}

// New returns an App using cfg and the directories in paths.
func New(cfg *config.Config, paths config.Paths, opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Opener == nil {
		opts.Opener = BrowserOpener{}
	}
	if opts.NewClient == nil {
		opts.NewClient = NewYouTubeClient
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &App{
		cfg:       cfg,
		paths:     paths,
		store:     storage.Open(paths.DataDir, logger),
		opener:    opts.Opener,
		newClient: opts.NewClient,
		logger:    logger,
		now:       func() time.Time { return opts.Now().UTC() },
	}
}

// Store exposes the underlying stores.
func (a *App) Store() *storage.Store { return a.store }

// Execute runs cmd.
func (a *App) Execute(ctx context.Context, cmd Command) (Output, error) {
	a.logger.Debug("executing command", "command", fmt.Sprintf("%T", cmd))
	switch c := cmd.(type) {
	case Add:
		return a.add(ctx, c)
	case Next:
		return a.next(ctx, c)
	case Random:
		return a.random(ctx)
	case Peek:
		return a.peek(ctx, c)
	case List:
		return a.list(ctx)
	case Remove:
		return a.remove(ctx, c)
	case Fetch:
		return a.fetch(ctx, c)
	case Stats:
		return a.stats(ctx, c)
	case SetConfig:
		return a.setConfig(ctx, c)
	case Info:
		return a.info(ctx)
	}
	return nil, fmt.Errorf("app: unsupported command %T", cmd)
}

func (a *App) add(ctx context.Context, c Add) (Output, error) {
	id, err := videoid.Extract(c.Input)
	if err != nil {
		return nil, err
	}
	ref := storage.VideoRef{ID: id, URL: c.Input, AddedAt: a.now()}

	// The queue write is the command's effect; a failed event append after
	// it is reported alongside the result instead of failing the add.
	var eventErr error
	err = a.store.Lock.WithLock(ctx, storage.Exclusive, func() error {
		if err := a.store.Queue.Append(ctx, ref); err != nil {
			return err
		}
		eventErr = a.logEvent(ctx, storage.Event{
			Timestamp: ref.AddedAt,
			Action:    storage.ActionAdded,
			VideoID:   id,
		})
		return nil
	})
	if errors.Is(err, storage.ErrAlreadyExists) {
		a.logger.Info("video already queued", "video_id", id)
		return AddResult{Ref: ref, Duplicate: true}, nil
	}
	if err != nil {
		return nil, err
	}
	a.logger.Info("video queued", "video_id", id)
	return AddResult{Ref: ref, EventErr: eventErr}, nil
}

// logEvent appends event and logs a failure. The caller has already
// changed the queue, so the error is returned for reporting only.
func (a *App) logEvent(ctx context.Context, event storage.Event) error {
	err := a.store.History.Append(ctx, event)
	if err != nil {
		a.logger.Error("history event not recorded", "video_id", event.VideoID, "action", event.Action, "error", err)
	}
	return err
}

func (a *App) next(ctx context.Context, c Next) (Output, error) {
	if c.Target == "" {
		return a.watch(ctx, func() (storage.VideoRef, error) {
			return a.store.Queue.PopNext(ctx, a.cfg.Mode)
		})
	}
	id, err := videoid.Extract(c.Target)
	if err != nil {
		return nil, err
	}
	return a.watch(ctx, func() (storage.VideoRef, error) {
		return a.store.Queue.Pop(ctx, id)
	})
}

func (a *App) random(ctx context.Context) (Output, error) {
	return a.watch(ctx, func() (storage.VideoRef, error) {
		return a.store.Queue.PopRandom(ctx)
	})
}

// watch pops one video with pop, records it as watched and opens it once
// the lock is released.
func (a *App) watch(ctx context.Context, pop func() (storage.VideoRef, error)) (Output, error) {
	var entry Entry
	var eventErr error
	err := a.store.Lock.WithLock(ctx, storage.Exclusive, func() error {
		var err error
		entry, eventErr, err = a.popAndLog(ctx, pop, storage.ActionWatched)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := WatchResult{Entry: entry, URL: videoid.WatchURL(entry.Ref.ID), EventErr: eventErr}
	if a.cfg.Offline {
		return result, nil
	}
	if err := a.opener.Open(ctx, result.URL); err != nil {
		a.logger.Warn("could not open browser", "url", result.URL, "error", err)
		return result, nil
	}
	result.Opened = true
	return result, nil
}

func (a *App) remove(ctx context.Context, c Remove) (Output, error) {
	id, err := videoid.Extract(c.Target)
	if err != nil {
		return nil, err
	}
	var entry Entry
	var eventErr error
	err = a.store.Lock.WithLock(ctx, storage.Exclusive, func() error {
		var err error
		entry, eventErr, err = a.popAndLog(ctx, func() (storage.VideoRef, error) {
			return a.store.Queue.Pop(ctx, id)
		}, storage.ActionRemoved)
		return err
	})
	if err != nil {
		return nil, err
	}
	return RemoveResult{Entry: entry, EventErr: eventErr}, nil
}

// popAndLog must run under the exclusive lock. err means nothing changed;
// eventErr means the video left the queue but its event was not recorded.
func (a *App) popAndLog(ctx context.Context, pop func() (storage.VideoRef, error), action storage.Action) (entry Entry, eventErr, err error) {
	ref, err := pop()
	if err != nil {
		return Entry{}, nil, err
	}
	entry = Entry{Ref: ref}

	meta, err := a.store.Metadata.Get(ctx, ref.ID)
	switch {
	case err == nil:
		entry.Meta = meta
	case !errors.Is(err, storage.ErrNotFound):
		a.logger.Warn("metadata unavailable for history snapshot", "video_id", ref.ID, "error", err)
	}

	now := a.now()
	queued := int64(now.Sub(ref.AddedAt) / time.Second)
	event := storage.Event{
		Timestamp:      now,
		Action:         action,
		VideoID:        ref.ID,
		TimeInQueueSec: &queued,
	}
	if entry.Meta != nil && !entry.Meta.Unavailable {
		event.Meta = entry.Meta
	}
	eventErr = a.logEvent(ctx, event)
	a.logger.Info("video left queue", "video_id", ref.ID, "action", action, "time_in_queue_sec", queued)
	return entry, eventErr, nil
}

func (a *App) peek(ctx context.Context, c Peek) (Output, error) {
	var result QueueResult
	err := a.store.Lock.WithLock(ctx, storage.Shared, func() error {
		refs, err := a.store.Queue.List(ctx)
		if err != nil {
			return err
		}
		result.Total = len(refs)
		if len(refs) == 0 {
			return nil
		}
		peeked, err := a.store.Queue.Peek(ctx, c.N, a.cfg.Mode)
		if err != nil {
			return err
		}
		result.Entries, err = a.withMetadata(ctx, peeked)
		return err
	})
	if err != nil {
		return nil, err
	}
	result.Mode = a.cfg.Mode
	return result, nil
}

func (a *App) list(ctx context.Context) (Output, error) {
	var result QueueResult
	err := a.store.Lock.WithLock(ctx, storage.Shared, func() error {
		refs, err := a.store.Queue.List(ctx)
		if err != nil {
			return err
		}
		result.Total = len(refs)
		result.Entries, err = a.withMetadata(ctx, refs)
		return err
	})
	if err != nil {
		return nil, err
	}
	result.Mode = a.cfg.Mode
	return result, nil
}

func (a *App) withMetadata(ctx context.Context, refs []storage.VideoRef) ([]Entry, error) {
	all, err := a.store.Metadata.All(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, len(refs))
	for i, ref := range refs {
		entries[i].Ref = ref
		if meta, ok := all[ref.ID]; ok {
			entries[i].Meta = &meta
		}
	}
	return entries, nil
}

func (a *App) fetch(ctx context.Context, c Fetch) (Output, error) {
	if a.cfg.Offline {
		return nil, ErrOffline
	}
	if a.cfg.APIKey == "" {
		return nil, youtube.ErrMissingAPIKey
	}
	client, err := a.newClient(ctx, a.cfg.APIKey, a.logger)
	if err != nil {
		return nil, err
	}

	var result FetchResult
	result.CategoriesRefreshed, err = a.refreshCategories(ctx, client, c.RefreshCategories)
	if err != nil {
		return nil, err
	}

	engine := fetch.NewEngine(a.store, client, a.logger)
	result.Result, err = engine.Run(ctx, c.Request, c.Progress)
	if err != nil {
		return result, err
	}

	err = a.store.Lock.WithLock(ctx, storage.Shared, func() error {
		table, err := a.store.Categories.All(ctx)
		result.Categories = len(table)
		return err
	})
	return result, err
}

// refreshCategories reloads the category table when it is empty or force
// is set. The API call happens between two separate lock scopes.
func (a *App) refreshCategories(ctx context.Context, client YouTube, force bool) (bool, error) {
	var needed bool
	err := a.store.Lock.WithLock(ctx, storage.Shared, func() error {
		var err error
		needed, err = a.store.Categories.NeedsRefresh(ctx, force)
		return err
	})
	if err != nil || !needed {
		return false, err
	}

	table, err := client.FetchCategories(ctx, youtube.DefaultRegion)
	if err != nil {
		return false, fmt.Errorf("refresh categories: %w", err)
	}
	err = a.store.Lock.WithLock(ctx, storage.Exclusive, func() error {
		return a.store.Categories.Replace(ctx, table)
	})
	if err != nil {
		return false, err
	}
	a.logger.Info("categories refreshed", "count", len(table))
	return true, nil
}

func (a *App) stats(ctx context.Context, c Stats) (Output, error) {
	period, err := stats.ParsePeriod(c.Period, a.now())
	if err != nil {
		return nil, err
	}

	data := stats.Data{Range: period, Now: a.now()}
	err = a.store.Lock.WithLock(ctx, storage.Shared, func() error {
		var err error
		if data.Events, err = storage.Collect(a.store.History.ReadRange(ctx, period.Start, period.End)); err != nil {
			return err
		}
		if data.QueueIDs, err = a.store.Queue.IDs(ctx); err != nil {
			return err
		}
		if data.Metadata, err = a.store.Metadata.All(ctx); err != nil {
			return err
		}
		data.Categories, err = a.store.Categories.All(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := StatsResult{Range: period}
	if c.Wrapped {
		w := stats.ComputeWrapped(data)
		result.Wrapped = &w
	} else {
		b := stats.ComputeBasic(data)
		result.Basic = &b
	}
	return result, nil
}

func (a *App) setConfig(ctx context.Context, c SetConfig) (Output, error) {
	path := a.paths.ConfigFile()
	var result ConfigResult
	err := a.store.Lock.WithLock(ctx, storage.Exclusive, func() error {
		cfg, err := config.LoadForEdit(path, a.logger)
		if err != nil {
			return err
		}
		if err := cfg.Set(c.Key, c.Value); err != nil {
			return err
		}
		if err := cfg.Save(path); err != nil {
			return err
		}
		result = ConfigResult{Key: c.Key, Path: path}
		result.Value, err = cfg.Get(c.Key)
		return err
	})
	if err != nil {
		return nil, err
	}
	a.logger.Info("config updated", "key", c.Key, "path", path)
	return result, nil
}

func (a *App) info(ctx context.Context) (Output, error) {
	result := InfoResult{
		Paths:      a.paths,
		ConfigFile: a.paths.ConfigFile(),
		QueueFile:  a.store.Queue.Path(),
		HistoryDir: a.store.History.Dir(),
		Mode:       a.cfg.Mode,
		Offline:    a.cfg.Offline,
		APIKey:     config.MaskKey(a.cfg.APIKey),
	}
	err := a.store.Lock.WithLock(ctx, storage.Shared, func() error {
		if _, err := os.Stat(result.QueueFile); err == nil {
			result.QueueExists = true
		}
		ids, err := a.store.Queue.IDs(ctx)
		if err != nil {
			return err
		}
		result.QueueLength = len(ids)
		if result.Partitions, err = a.store.History.Partitions(ctx); err != nil {
			return err
		}
		meta, err := a.store.Metadata.All(ctx)
		if err != nil {
			return err
		}
		result.Metadata = len(meta)
		categories, err := a.store.Categories.All(ctx)
		result.Categories = len(categories)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
