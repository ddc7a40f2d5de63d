package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Mode selects which end of the queue is popped.
type Mode string

// Mode values as stored in config.json.
const (
	ModeQueue Mode = "queue" // first in, first out
	ModeStack Mode = "stack" // last in, first out
)

// ParseMode converts user input into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeQueue:
		return ModeQueue, nil
	case ModeStack:
		return ModeStack, nil
	}
	return "", fmt.Errorf("invalid mode %q (use queue or stack)", s)
}

// VideoRef is one entry of the watch-later queue.
type VideoRef struct {
	ID      string    `json:"id"`       // 11 character YouTube video ID
	URL     string    `json:"url"`      // Input the user supplied when adding
	AddedAt time.Time `json:"added_at"` // When the video was queued
}

// Action is the kind of queue transition an Event records.
type Action string

// Action values written to the history log.
const (
	ActionAdded   Action = "added"
	ActionWatched Action = "watched"
	ActionSkipped Action = "skipped"
	ActionRemoved Action = "removed"
)

// UnmarshalJSON accepts the legacy capitalised names ("Queued", "Watched")
// written by older versions of the tool.
func (a *Action) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch strings.ToLower(s) {
	case "added", "queued":
		*a = ActionAdded
	case "watched":
		*a = ActionWatched
	case "skipped":
		*a = ActionSkipped
	case "removed":
		*a = ActionRemoved
	default:
		return fmt.Errorf("unknown action %q", s)
	}
	return nil
}

// Event is one immutable line of the history log.
type Event struct {
	Timestamp      time.Time  `json:"timestamp"`
	Action         Action     `json:"action"`
	VideoID        string     `json:"video_id"`
	TimeInQueueSec *int64     `json:"time_in_queue_sec,omitempty"`
	Meta           *VideoMeta `json:"meta,omitempty"` // Snapshot at write time
}

// Partition returns the history partition name (YYYY-MM) for the event.
func (e Event) Partition() string {
	return partitionName(e.Timestamp)
}

func partitionName(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// VideoMeta is enrichment data fetched from the YouTube Data API.
type VideoMeta struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Channel         string    `json:"channel"`
	ChannelID       string    `json:"channel_id"`
	Duration        string    `json:"duration,omitempty"` // ISO 8601, e.g. PT3M33S
	DurationSeconds int64     `json:"duration_seconds"`
	PublishedAt     time.Time `json:"published_at"`
	CategoryID      string    `json:"category_id"`
	Tags            []string  `json:"tags"`
	FetchedAt       time.Time `json:"fetched_at"`
	Unavailable     bool      `json:"unavailable,omitempty"` // Deleted or private when fetched
}

// Fetched reports whether a fetch for this ID has completed, successful or not.
func (m VideoMeta) Fetched() bool {
	return !m.FetchedAt.IsZero()
}
