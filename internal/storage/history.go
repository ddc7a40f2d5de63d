package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const partitionExt = ".jsonl"

// HistoryLog is the append-only event ledger. Events are partitioned into
// one newline-delimited JSON file per UTC month (history/2026-01.jsonl).
// Lines are never rewritten once written.
type HistoryLog struct {
	dir    string
	logger *slog.Logger
}

// NewHistoryLog returns a log rooted at dir.
func NewHistoryLog(dir string, logger *slog.Logger) *HistoryLog {
	return &HistoryLog{dir: dir, logger: discardLogger(logger)}
}

// Dir returns the partition directory.
func (h *HistoryLog) Dir() string { return h.dir }

// Append writes event to the partition for its timestamp, creating the
// partition if needed. The record and its newline go out in one write, so
// an interrupted process loses at most the event in flight.
func (h *HistoryLog) Append(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	partition := event.Partition()

	line, err := json.Marshal(event)
	if err != nil {
		return &StorageError{Op: "append", Entity: "history", ID: partition, Err: err}
	}
	line = append(line, '\n')

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		return &StorageError{Op: "append", Entity: "history", ID: partition, Err: err}
	}
	f, err := os.OpenFile(h.partitionPath(partition), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &StorageError{Op: "append", Entity: "history", ID: partition, Err: err}
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return &StorageError{Op: "append", Entity: "history", ID: partition, Err: err}
	}
	if err := f.Close(); err != nil {
		return &StorageError{Op: "append", Entity: "history", ID: partition, Err: err}
	}

	h.logger.Debug("history event appended", "partition", partition, "action", event.Action, "video_id", event.VideoID)
	return nil
}

func (h *HistoryLog) partitionPath(name string) string {
	return filepath.Join(h.dir, name+partitionExt)
}

// Partitions lists existing partition names (YYYY-MM) in chronological order.
func (h *HistoryLog) Partitions(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(h.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &StorageError{Op: "read", Entity: "history", Err: err}
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, ok := strings.CutSuffix(entry.Name(), partitionExt)
		if !ok {
			continue
		}
		if _, err := time.Parse("2006-01", name); err != nil {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// ReadAll yields every event in chronological order. Each call starts a
// fresh pass over the partitions.
func (h *HistoryLog) ReadAll(ctx context.Context) iter.Seq2[Event, error] {
	return h.ReadRange(ctx, time.Time{}, time.Time{})
}

// ReadRange yields events with from <= timestamp < to in chronological
// order. A zero from or to leaves that side unbounded. Only partitions that
// overlap the range are opened.
func (h *HistoryLog) ReadRange(ctx context.Context, from, to time.Time) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		partitions, err := h.Partitions(ctx)
		if err != nil {
			yield(Event{}, err)
			return
		}

		for _, name := range partitions {
			if !partitionOverlaps(name, from, to) {
				continue
			}
			if err := ctx.Err(); err != nil {
				yield(Event{}, err)
				return
			}

			events, err := h.readPartition(name)
			if err != nil {
				if !yield(Event{}, err) {
					return
				}
				continue
			}
			for _, event := range events {
				if !from.IsZero() && event.Timestamp.Before(from) {
					continue
				}
				if !to.IsZero() && !event.Timestamp.Before(to) {
					continue
				}
				if !yield(event, nil) {
					return
				}
			}
		}
	}
}

// Collect drains a history sequence into a slice, stopping at the first error.
func Collect(seq iter.Seq2[Event, error]) ([]Event, error) {
	var events []Event
	for event, err := range seq {
		if err != nil {
			return events, err
		}
		events = append(events, event)
	}
	return events, nil
}

// readPartition decodes one partition. Blank and undecodable lines are
// skipped: a writer killed mid-line must not make the rest of the month
// unreadable.
func (h *HistoryLog) readPartition(name string) ([]Event, error) {
	f, err := os.Open(h.partitionPath(name))
	if err != nil {
		return nil, &StorageError{Op: "read", Entity: "history", ID: name, Err: err}
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var event Event
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			h.logger.Warn("skipping unreadable history line", "partition", name, "line", lineNo, "error", err)
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, &StorageError{Op: "read", Entity: "history", ID: name, Err: fmt.Errorf("line %d: %w", lineNo, err)}
	}

	// Append order is chronological unless the clock moved backwards.
	slices.SortStableFunc(events, func(a, b Event) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return events, nil
}

func partitionOverlaps(name string, from, to time.Time) bool {
	start, err := time.Parse("2006-01", name)
	if err != nil {
		return false
	}
	end := start.AddDate(0, 1, 0)
	if !from.IsZero() && !end.After(from) {
		return false
	}
	if !to.IsZero() && !start.Before(to) {
		return false
	}
	return true
}
