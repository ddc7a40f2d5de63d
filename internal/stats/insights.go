package stats

import (
	"maps"
	"slices"
	"strings"
	"time"

	"ytq/internal/storage"
)

// Personality is a one-line characterization of how the period was spent.
type Personality struct {
	Label       string
	Description string
}

// Share is a label with its fraction of some total.
type Share struct {
	Label string
	Ratio float64
}

// Phase is the dominant watched category of one slice of the period.
type Phase struct {
	Period   string
	Category string
}

// DatedVideo names a video by its publish date.
type DatedVideo struct {
	ID          string
	Title       string
	PublishedAt time.Time
}

// Patience labels the median time a watched video waited in the queue.
type Patience struct {
	Label  string
	Median time.Duration
}

// Insights are the lighter-hearted parts of the wrapped report. Pointer
// and slice fields are empty when there is not enough data.
type Insights struct {
	WatchesPerWeek *float64
	Personality    *Personality
	ChannelLoyalty *Share // top watched channel and its share of watched videos
	WatchingAge    int    // mean publish year of watched videos, 0 when unknown
	DiscoveryDay   *Count // label YYYY-MM-DD, count of distinct channels
	CategoryPhases []Phase
	OldestVideo    *DatedVideo
	QueuePatience  *Patience
	Throughput     int // distinct videos touched by any event
}

func computeInsights(d Data, w *Wrapped) Insights {
	var in Insights
	loc := d.loc()

	in.WatchesPerWeek = watchesPerWeek(d)
	in.QueuePatience = queuePatience(d.Events)
	in.Throughput = throughput(d.Events)

	watched := uniqueIDs(d.Events, storage.ActionWatched)
	if hasMetadata(watched, d.Metadata) {
		in.ChannelLoyalty = channelLoyalty(w.WatchedTopChannels, len(watched))
		in.WatchingAge = watchingAge(watched, d.Metadata)
		in.DiscoveryDay = discoveryDay(d.Events, d.Metadata, loc)
		in.CategoryPhases = categoryPhases(d)
		in.OldestVideo = oldestVideo(watched, d.Metadata)
	}
	in.Personality = personality(d, w, in.WatchesPerWeek)
	return in
}

// span returns the bounds used for rate and phase computations: the
// period's own bounds, with an open start replaced by the first watch and
// an open end by now.
func span(d Data) (time.Time, time.Time, bool) {
	first := d.Range.Start
	if first.IsZero() {
		i := slices.IndexFunc(d.Events, func(e storage.Event) bool { return e.Action == storage.ActionWatched })
		if i < 0 {
			return time.Time{}, time.Time{}, false
		}
		first = d.Events[i].Timestamp
	}
	last := d.Range.End
	if last.IsZero() {
		last = d.now()
	}
	return first, last, true
}

func countWatches(events []storage.Event) int {
	n := 0
	for _, e := range events {
		if e.Action == storage.ActionWatched {
			n++
		}
	}
	return n
}

func watchesPerWeek(d Data) *float64 {
	n := countWatches(d.Events)
	if n == 0 {
		return nil
	}
	first, last, ok := span(d)
	if !ok {
		return nil
	}
	days := max(float64(int(last.Sub(first).Hours()/24)), 1)
	rate := float64(n) / (days / 7)
	return &rate
}

func queuePatience(events []storage.Event) *Patience {
	var secs []int64
	for _, e := range events {
		if e.Action == storage.ActionWatched && e.TimeInQueueSec != nil {
			secs = append(secs, *e.TimeInQueueSec)
		}
	}
	if len(secs) == 0 {
		return nil
	}
	slices.Sort(secs)
	median := time.Duration(secs[len(secs)/2]) * time.Second

	label := "Aged Like Fine Wine"
	switch {
	case median < time.Hour:
		label = "Impulsive"
	case median < 24*time.Hour:
		label = "Thoughtful"
	case median < 7*24*time.Hour:
		label = "Fermenter"
	}
	return &Patience{Label: label, Median: median}
}

func throughput(events []storage.Event) int {
	seen := make(map[string]struct{})
	for _, e := range events {
		seen[e.VideoID] = struct{}{}
	}
	return len(seen)
}

func channelLoyalty(top []Count, uniqueWatched int) *Share {
	if uniqueWatched == 0 || len(top) == 0 || top[0].Count < 2 {
		return nil
	}
	return &Share{Label: top[0].Label, Ratio: float64(top[0].Count) / float64(uniqueWatched)}
}

func watchingAge(ids []string, metadata map[string]storage.VideoMeta) int {
	sum, n := 0, 0
	for _, id := range ids {
		if m, ok := usable(metadata, id); ok && !m.PublishedAt.IsZero() {
			sum += m.PublishedAt.Year()
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n
}

// discoveryDay is the day with the most distinct channels watched, when
// that is at least two. Ties go to the earliest day.
func discoveryDay(events []storage.Event, metadata map[string]storage.VideoMeta, loc *time.Location) *Count {
	channels := make(map[string]map[string]struct{})
	for _, e := range events {
		if e.Action != storage.ActionWatched {
			continue
		}
		m, ok := usable(metadata, e.VideoID)
		if !ok || m.Channel == "" {
			continue
		}
		day := e.Timestamp.In(loc).Format(time.DateOnly)
		if channels[day] == nil {
			channels[day] = make(map[string]struct{})
		}
		channels[day][m.Channel] = struct{}{}
	}

	var best *Count
	for _, day := range slices.Sorted(maps.Keys(channels)) {
		if n := len(channels[day]); n >= 2 && (best == nil || n > best.Count) {
			best = &Count{Label: day, Count: n}
		}
	}
	return best
}

// categoryPhases splits periods of 120 days or more into halves, and of
// 270 days or more into quarters, and names the dominant watched category
// of each. It returns nothing unless the dominant category changes.
func categoryPhases(d Data) []Phase {
	first, last, ok := span(d)
	if !ok || countWatches(d.Events) == 0 {
		return nil
	}
	var labels []string
	switch days := last.Sub(first).Hours() / 24; {
	case days >= 270:
		labels = []string{"Q1", "Q2", "Q3", "Q4"}
	case days >= 120:
		labels = []string{"First Half", "Second Half"}
	default:
		return nil
	}

	step := last.Sub(first) / time.Duration(len(labels))
	var phases []Phase
	for i, label := range labels {
		start := first.Add(step * time.Duration(i))
		end := first.Add(step * time.Duration(i+1))
		if i == len(labels)-1 {
			end = last
		}
		counts := make(map[string]int)
		for _, e := range d.Events {
			if e.Action != storage.ActionWatched || e.Timestamp.Before(start) || !e.Timestamp.Before(end) {
				continue
			}
			m, ok := usable(d.Metadata, e.VideoID)
			if !ok || m.CategoryID == "" {
				continue
			}
			name, ok := d.Categories[m.CategoryID]
			if !ok {
				name = "Category " + m.CategoryID
			}
			counts[name]++
		}
		if top := ranked(counts, 1); len(top) > 0 {
			phases = append(phases, Phase{Period: label, Category: top[0].Label})
		}
	}

	if len(phases) < 2 {
		return nil
	}
	if !slices.ContainsFunc(phases[1:], func(p Phase) bool { return p.Category != phases[0].Category }) {
		return nil
	}
	return phases
}

func oldestVideo(ids []string, metadata map[string]storage.VideoMeta) *DatedVideo {
	var oldest *DatedVideo
	for _, id := range ids {
		m, ok := usable(metadata, id)
		if !ok || m.PublishedAt.IsZero() {
			continue
		}
		if oldest == nil || m.PublishedAt.Before(oldest.PublishedAt) {
			oldest = &DatedVideo{ID: m.ID, Title: m.Title, PublishedAt: m.PublishedAt}
		}
	}
	return oldest
}

func bucketShare(buckets []Count, prefix string) float64 {
	total, hit := 0, 0
	for _, b := range buckets {
		total += b.Count
		if strings.HasPrefix(b.Label, prefix) {
			hit += b.Count
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hit) / float64(total)
}

// personality picks the first matching profile in priority order.
func personality(d Data, w *Wrapped, perWeek *float64) *Personality {
	if w.Watched == 0 && w.QueueDepth == 0 {
		return nil
	}

	var queueSecs []int64
	for _, e := range d.Events {
		if e.Action == storage.ActionWatched && e.TimeInQueueSec != nil {
			queueSecs = append(queueSecs, *e.TimeInQueueSec)
		}
	}
	fast := false
	if len(queueSecs) > 0 {
		var sum int64
		for _, s := range queueSecs {
			sum += s
		}
		fast = float64(sum)/float64(len(queueSecs)) < time.Hour.Seconds()
	}

	topShare, fromTop := 0.0, 0
	if w.Watched > 0 && len(w.WatchedTopChannels) > 0 {
		topShare = float64(w.WatchedTopChannels[0].Count) / float64(w.Watched)
	}
	for _, c := range w.WatchedTopChannels {
		fromTop += c.Count
	}

	switch {
	case bucketShare(w.TimeOfDay, "Night") > 0.4:
		return &Personality{"The Night Owl", "Most of your watching happens after dark."}
	case bucketShare(w.TimeOfDay, "Morning") > 0.4:
		return &Personality{"The Early Bird", "You start your day with videos before noon."}
	case w.LongestStreak >= 5 && perWeek != nil && *perWeek >= 5:
		return &Personality{"The Binger", "Long streaks and high volume. You can't stop watching."}
	case fast:
		return &Personality{"The Speedrunner", "Queue it, watch it, done. Videos don't sit around."}
	case w.QueueDepth > 0 && w.Watched > 0 && w.QueueDepth > 2*w.Watched:
		return &Personality{"The Stockpiler", "Your queue grows faster than you can watch."}
	case topShare > 0.5 && fromTop >= 3:
		return &Personality{"The Loyalist", "One channel owns your watch history."}
	case len(w.WatchedCategories) >= 4 && len(w.WatchedTopChannels) >= 6:
		return &Personality{"The Explorer", "Diverse tastes across many channels and categories."}
	case w.SkipRate < 0.1 && w.Watched > 0:
		return &Personality{"The Curator", "You pick carefully and almost never skip."}
	case w.Watched == 0 && w.QueueDepth > 0:
		return &Personality{"The Collector", "All queue, no play. Your time will come."}
	}
	return &Personality{"The Balanced Viewer", "A healthy mix of watching habits."}
}
