// Package stats aggregates the history log, the queue and the metadata
// cache into the numbers shown by `ytq stats`.
package stats

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"ytq/internal/storage"
)

// Data is everything a computation reads. Events should already be
// filtered to the period of interest.
type Data struct {
	Events     []storage.Event
	QueueIDs   []string
	Metadata   map[string]storage.VideoMeta
	Categories map[string]string
	// Location groups events into days and weekdays; nil uses time.Local.
	Location *time.Location
	// Range is the period the events were read for. Open bounds fall back
	// to the first watch and to Now.
	Range Range
	// Now is the reference time; zero uses time.Now.
	Now time.Time
}

func (d Data) now() time.Time {
	if d.Now.IsZero() {
		return time.Now()
	}
	return d.Now
}

func (d Data) loc() *time.Location {
	if d.Location != nil {
		return d.Location
	}
	return time.Local
}

// Count is a label with an occurrence count.
type Count struct {
	Label string
	Count int
}

// Basic is the default stats summary.
type Basic struct {
	Added      int
	Watched    int
	Skipped    int // removed without watching
	QueueDepth int
	// CompletionRate is Watched / (Watched + Skipped), 0 when both are 0.
	CompletionRate float64
	// AvgTimeInQueue is nil when no watched event recorded a queue time.
	AvgTimeInQueue *time.Duration
	// MostActiveWeekday is the weekday with the most additions.
	MostActiveWeekday *Count

	// The fields below need fetched metadata and are empty without it.
	WatchTime          *time.Duration
	TopWatchedChannels []Count
	QueueDuration      *time.Duration
	TopQueueChannels   []Count
}

// HasWatchMetadata reports whether any watched video had usable metadata.
func (b Basic) HasWatchMetadata() bool { return b.WatchTime != nil }

// VideoDuration names a video by its length.
type VideoDuration struct {
	ID       string
	Title    string
	Duration time.Duration
}

// Wrapped is the extended year-in-review style summary.
type Wrapped struct {
	Basic
	Insights

	AddedByMonth   []Count // label YYYY-MM, chronological
	WatchedByMonth []Count
	TimeOfDay      []Count // fixed order: morning, afternoon, evening, night
	BusiestDay     *Count  // label YYYY-MM-DD
	LongestStreak  int     // consecutive days with a watch
	SkipRate       float64
	FastestWatch   *time.Duration
	SlowestWatch   *time.Duration
	WeekendShare   *float64 // share of watches on Saturday or Sunday

	WatchedTopChannels []Count
	WatchedCategories  []Count
	WatchedTopTags     []Count
	WatchedAvgDuration *time.Duration
	LongestVideo       *VideoDuration
	ShortestVideo      *VideoDuration
	ComfortVideo       *Count // most re-watched video title, count > 1

	QueueTopChannels []Count
	QueueCategories  []Count
	QueueTopTags     []Count
	QueueAvgDuration *time.Duration
}

const (
	basicTopChannels   = 3
	wrappedTopChannels = 10
	wrappedTopTags     = 10
)

// ComputeBasic builds the default summary.
func ComputeBasic(d Data) Basic {
	b := Basic{QueueDepth: len(d.QueueIDs)}
	var queueTimes []int64
	for _, e := range d.Events {
		switch e.Action {
		case storage.ActionAdded:
			b.Added++
		case storage.ActionWatched:
			b.Watched++
			if e.TimeInQueueSec != nil {
				queueTimes = append(queueTimes, *e.TimeInQueueSec)
			}
		case storage.ActionSkipped, storage.ActionRemoved:
			b.Skipped++
		}
	}
	if total := b.Watched + b.Skipped; total > 0 {
		b.CompletionRate = float64(b.Watched) / float64(total)
	}
	if len(queueTimes) > 0 {
		var sum int64
		for _, s := range queueTimes {
			sum += s
		}
		avg := time.Duration(float64(sum)/float64(len(queueTimes))) * time.Second
		b.AvgTimeInQueue = &avg
	}
	b.MostActiveWeekday = mostActiveWeekday(d, storage.ActionAdded)

	watched := uniqueIDs(d.Events, storage.ActionWatched)
	if hasMetadata(watched, d.Metadata) {
		total := totalDuration(watched, d.Metadata)
		b.WatchTime = &total
		b.TopWatchedChannels = topChannels(watched, d.Metadata, basicTopChannels)
	}
	if hasMetadata(d.QueueIDs, d.Metadata) {
		total := totalDuration(d.QueueIDs, d.Metadata)
		b.QueueDuration = &total
		b.TopQueueChannels = topChannels(d.QueueIDs, d.Metadata, basicTopChannels)
	}
	return b
}

// ComputeWrapped builds the extended summary.
func ComputeWrapped(d Data) Wrapped {
	w := Wrapped{Basic: ComputeBasic(d)}
	loc := d.loc()

	w.AddedByMonth = monthlyBuckets(d.Events, storage.ActionAdded, loc)
	w.WatchedByMonth = monthlyBuckets(d.Events, storage.ActionWatched, loc)
	w.TimeOfDay = timeOfDay(d.Events, loc)
	w.BusiestDay = busiestDay(d.Events, loc)
	w.LongestStreak = longestStreak(d.Events, loc)
	if total := w.Watched + w.Skipped; total > 0 {
		w.SkipRate = float64(w.Skipped) / float64(total)
	}

	var fastest, slowest *int64
	weekend, watches := 0, 0
	for _, e := range d.Events {
		if e.Action != storage.ActionWatched {
			continue
		}
		watches++
		if wd := e.Timestamp.In(loc).Weekday(); wd == time.Saturday || wd == time.Sunday {
			weekend++
		}
		if e.TimeInQueueSec == nil {
			continue
		}
		if fastest == nil || *e.TimeInQueueSec < *fastest {
			fastest = e.TimeInQueueSec
		}
		if slowest == nil || *e.TimeInQueueSec > *slowest {
			slowest = e.TimeInQueueSec
		}
	}
	if fastest != nil {
		f, s := time.Duration(*fastest)*time.Second, time.Duration(*slowest)*time.Second
		w.FastestWatch, w.SlowestWatch = &f, &s
	}
	if watches > 0 {
		share := float64(weekend) / float64(watches)
		w.WeekendShare = &share
	}

	watched := uniqueIDs(d.Events, storage.ActionWatched)
	if hasMetadata(watched, d.Metadata) {
		w.WatchedTopChannels = topChannels(watched, d.Metadata, wrappedTopChannels)
		w.WatchedCategories = categoryBreakdown(watched, d.Metadata, d.Categories)
		w.WatchedTopTags = topTags(watched, d.Metadata, wrappedTopTags)
		w.WatchedAvgDuration, w.LongestVideo, w.ShortestVideo = durationStats(watched, d.Metadata)
		w.ComfortVideo = comfortVideo(d.Events, d.Metadata)
	}
	if hasMetadata(d.QueueIDs, d.Metadata) {
		w.QueueTopChannels = topChannels(d.QueueIDs, d.Metadata, wrappedTopChannels)
		w.QueueCategories = categoryBreakdown(d.QueueIDs, d.Metadata, d.Categories)
		w.QueueTopTags = topTags(d.QueueIDs, d.Metadata, wrappedTopTags)
		w.QueueAvgDuration, _, _ = durationStats(d.QueueIDs, d.Metadata)
	}
	w.Insights = computeInsights(d, &w)
	return w
}

func uniqueIDs(events []storage.Event, action storage.Action) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, e := range events {
		if e.Action != action {
			continue
		}
		if _, ok := seen[e.VideoID]; ok {
			continue
		}
		seen[e.VideoID] = struct{}{}
		ids = append(ids, e.VideoID)
	}
	return ids
}

func usable(metadata map[string]storage.VideoMeta, id string) (storage.VideoMeta, bool) {
	m, ok := metadata[id]
	return m, ok && !m.Unavailable && m.Fetched()
}

func hasMetadata(ids []string, metadata map[string]storage.VideoMeta) bool {
	return slices.ContainsFunc(ids, func(id string) bool {
		_, ok := usable(metadata, id)
		return ok
	})
}

func totalDuration(ids []string, metadata map[string]storage.VideoMeta) time.Duration {
	var secs int64
	for _, id := range ids {
		if m, ok := usable(metadata, id); ok {
			secs += m.DurationSeconds
		}
	}
	return time.Duration(secs) * time.Second
}

// ranked sorts counts by count descending, then label ascending, and keeps
// at most limit entries (all when limit is 0).
func ranked(counts map[string]int, limit int) []Count {
	out := make([]Count, 0, len(counts))
	for label, n := range counts {
		out = append(out, Count{Label: label, Count: n})
	}
	slices.SortFunc(out, func(a, b Count) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Label, b.Label))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func topChannels(ids []string, metadata map[string]storage.VideoMeta, limit int) []Count {
	counts := make(map[string]int)
	for _, id := range ids {
		if m, ok := usable(metadata, id); ok && m.Channel != "" {
			counts[m.Channel]++
		}
	}
	return ranked(counts, limit)
}

func categoryBreakdown(ids []string, metadata map[string]storage.VideoMeta, categories map[string]string) []Count {
	counts := make(map[string]int)
	for _, id := range ids {
		m, ok := usable(metadata, id)
		if !ok || m.CategoryID == "" {
			continue
		}
		name, ok := categories[m.CategoryID]
		if !ok {
			name = "Category " + m.CategoryID
		}
		counts[name]++
	}
	return ranked(counts, 0)
}

func topTags(ids []string, metadata map[string]storage.VideoMeta, limit int) []Count {
	counts := make(map[string]int)
	for _, id := range ids {
		m, ok := usable(metadata, id)
		if !ok {
			continue
		}
		for _, tag := range m.Tags {
			counts[strings.ToLower(tag)]++
		}
	}
	return ranked(counts, limit)
}

func durationStats(ids []string, metadata map[string]storage.VideoMeta) (*time.Duration, *VideoDuration, *VideoDuration) {
	var longest, shortest *VideoDuration
	var total int64
	n := 0
	for _, id := range ids {
		m, ok := usable(metadata, id)
		if !ok || m.DurationSeconds <= 0 {
			continue
		}
		n++
		total += m.DurationSeconds
		v := &VideoDuration{ID: m.ID, Title: m.Title, Duration: time.Duration(m.DurationSeconds) * time.Second}
		if longest == nil || v.Duration > longest.Duration {
			longest = v
		}
		if shortest == nil || v.Duration < shortest.Duration {
			shortest = v
		}
	}
	if n == 0 {
		return nil, nil, nil
	}
	avg := time.Duration(total/int64(n)) * time.Second
	return &avg, longest, shortest
}

func comfortVideo(events []storage.Event, metadata map[string]storage.VideoMeta) *Count {
	counts := make(map[string]int)
	for _, e := range events {
		if e.Action == storage.ActionWatched {
			counts[e.VideoID]++
		}
	}
	top := ranked(counts, 1)
	if len(top) == 0 || top[0].Count < 2 {
		return nil
	}
	if m, ok := usable(metadata, top[0].Label); ok && m.Title != "" {
		top[0].Label = m.Title
	}
	return &top[0]
}

func mostActiveWeekday(d Data, action storage.Action) *Count {
	var counts [7]int
	seen := false
	for _, e := range d.Events {
		if e.Action == action {
			counts[e.Timestamp.In(d.loc()).Weekday()]++
			seen = true
		}
	}
	if !seen {
		return nil
	}
	best := time.Sunday
	for wd := time.Monday; wd <= time.Saturday; wd++ {
		if counts[wd] > counts[best] {
			best = wd
		}
	}
	return &Count{Label: best.String(), Count: counts[best]}
}

func monthlyBuckets(events []storage.Event, action storage.Action, loc *time.Location) []Count {
	counts := make(map[string]int)
	for _, e := range events {
		if e.Action == action {
			counts[e.Timestamp.In(loc).Format("2006-01")]++
		}
	}
	out := make([]Count, 0, len(counts))
	for _, label := range slices.Sorted(maps.Keys(counts)) {
		out = append(out, Count{Label: label, Count: counts[label]})
	}
	return out
}

func timeOfDay(events []storage.Event, loc *time.Location) []Count {
	buckets := []Count{
		{Label: "Morning (6am-12pm)"},
		{Label: "Afternoon (12-5pm)"},
		{Label: "Evening (5-10pm)"},
		{Label: "Night (10pm-6am)"},
	}
	for _, e := range events {
		if e.Action != storage.ActionWatched {
			continue
		}
		switch h := e.Timestamp.In(loc).Hour(); {
		case h >= 6 && h < 12:
			buckets[0].Count++
		case h >= 12 && h < 17:
			buckets[1].Count++
		case h >= 17 && h < 22:
			buckets[2].Count++
		default:
			buckets[3].Count++
		}
	}
	return buckets
}

func watchDays(events []storage.Event, loc *time.Location) map[string]int {
	days := make(map[string]int)
	for _, e := range events {
		if e.Action == storage.ActionWatched {
			days[e.Timestamp.In(loc).Format(time.DateOnly)]++
		}
	}
	return days
}

func busiestDay(events []storage.Event, loc *time.Location) *Count {
	top := ranked(watchDays(events, loc), 1)
	if len(top) == 0 {
		return nil
	}
	return &top[0]
}

func longestStreak(events []storage.Event, loc *time.Location) int {
	days := slices.Sorted(maps.Keys(watchDays(events, loc)))
	if len(days) == 0 {
		return 0
	}
	longest, current := 1, 1
	prev, _ := time.Parse(time.DateOnly, days[0])
	for _, day := range days[1:] {
		d, _ := time.Parse(time.DateOnly, day)
		if d.Sub(prev) == 24*time.Hour {
			current++
			longest = max(longest, current)
		} else {
			current = 1
		}
		prev = d
	}
	return longest
}

// FormatHours renders a duration as "12h 5m" or "5m".
func FormatHours(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int64(d / time.Hour)
	m := int64((d % time.Hour) / time.Minute)
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
