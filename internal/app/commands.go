package app

import (
	"ytq/internal/config"
	"ytq/internal/fetch"
	"ytq/internal/stats"
	"ytq/internal/storage"
)

// Command is one user request. The set of commands is closed: only the
// types in this file implement it.
type Command interface {
	command()
}

// Add queues the video identified by Input.
type Add struct{ Input string }

// Next pops the next video in the configured mode, or Target when set.
type Next struct{ Target string }

// Random pops a uniformly chosen video.
type Random struct{}

// Peek shows the next N videos without removing them.
type Peek struct{ N int }

// List shows the whole queue.
type List struct{}

// Remove drops Target from the queue without watching it.
type Remove struct{ Target string }

// Fetch fills the metadata cache from the YouTube Data API.
type Fetch struct {
	Request           fetch.Request
	RefreshCategories bool
	// Progress is called after every committed batch; may be nil.
	Progress func(processed, total int)
}

// Stats summarises the history for a period.
type Stats struct {
	Period  stats.PeriodFlags
	Wrapped bool
}

// SetConfig changes one setting in the config file.
type SetConfig struct{ Key, Value string }

// Info reports where data lives and how much of it there is.
type Info struct{}

func (Add) command()       {}
func (Next) command()      {}
func (Random) command()    {}
func (Peek) command()      {}
func (List) command()      {}
func (Remove) command()    {}
func (Fetch) command()     {}
func (Stats) command()     {}
func (SetConfig) command() {}
func (Info) command()      {}

// Output is the result of a command, one type per command family.
type Output interface {
	output()
}

// Entry is a queued video with its cached metadata, if any.
type Entry struct {
	Ref  storage.VideoRef
	Meta *storage.VideoMeta
}

// AddResult is returned by Add.
type AddResult struct {
	Ref storage.VideoRef
	// Duplicate is set when the video was already queued; nothing changed.
	Duplicate bool
	// EventErr is set when the video was queued but the history event
	// could not be written.
	EventErr error
}

// WatchResult is returned by Next and Random.
type WatchResult struct {
	Entry
	URL    string
	Opened bool // false in offline mode or when the opener failed
	// EventErr is set when the video left the queue but the history event
	// could not be written.
	EventErr error
}

// QueueResult is returned by Peek and List.
type QueueResult struct {
	Mode    storage.Mode
	Entries []Entry
	Total   int // queue length, which may exceed len(Entries) for Peek
}

// RemoveResult is returned by Remove.
type RemoveResult struct {
	Entry
	EventErr error // see WatchResult.EventErr
}

// FetchResult is returned by Fetch.
type FetchResult struct {
	fetch.Result
	CategoriesRefreshed bool
	Categories          int
}

// StatsResult is returned by Stats. Exactly one of Basic and Wrapped is set.
type StatsResult struct {
	Range   stats.Range
	Basic   *stats.Basic
	Wrapped *stats.Wrapped
}

// ConfigResult is returned by SetConfig.
type ConfigResult struct {
	Key   string
	Value string // display form; API keys are masked
	Path  string
}

// InfoResult is returned by Info.
type InfoResult struct {
	Paths       config.Paths
	ConfigFile  string
	QueueFile   string
	HistoryDir  string
	QueueExists bool
	QueueLength int
	Partitions  []string
	Metadata    int
	Categories  int
	Mode        storage.Mode
	Offline     bool
	APIKey      string // masked
}

func (AddResult) output()    {}
func (WatchResult) output()  {}
func (QueueResult) output()  {}
func (RemoveResult) output() {}
func (FetchResult) output()  {}
func (StatsResult) output()  {}
func (ConfigResult) output() {}
func (InfoResult) output()   {}
