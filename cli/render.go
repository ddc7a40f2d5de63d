package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"ytq/internal/app"
	"ytq/internal/stats"
	"ytq/internal/youtube"
)

var (
	printer = message.NewPrinter(language.English)
	titler  = cases.Title(language.English)
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func colored(s string, colorize bool, colors ...text.Color) string {
	if !colorize {
		return s
	}
	return text.Colors(colors).Sprint(s)
}

func formatError(err error, colorize bool) string {
	return colored("error:", colorize, text.FgRed, text.Bold) + " " + err.Error()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return printer.Sprintf("%d %s", n, many)
}

func entryLabel(e app.Entry) string {
	if e.Meta != nil && e.Meta.Title != "" {
		return fmt.Sprintf("%s (%s)", e.Meta.Title, e.Ref.ID)
	}
	return e.Ref.ID
}

func renderWatch(w io.Writer, res app.WatchResult) {
	fmt.Fprintf(w, "Now watching: %s\n", entryLabel(res.Entry))
	if res.Meta != nil && res.Meta.Channel != "" {
		fmt.Fprintf(w, "Channel:      %s\n", res.Meta.Channel)
	}
	fmt.Fprintf(w, "Queued:       %s\n", humanize.Time(res.Ref.AddedAt))
	if res.Opened {
		fmt.Fprintf(w, "Opened %s\n", res.URL)
		return
	}
	fmt.Fprintln(w, res.URL)
}

func renderQueueTable(entries []app.Entry) string {
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		title, channel, duration := "-", "-", "-"
		if m := e.Meta; m != nil {
			if m.Unavailable {
				title = "(unavailable)"
			} else {
				title, channel = m.Title, m.Channel
				if m.DurationSeconds > 0 {
					duration = youtube.FormatDuration(m.DurationSeconds)
				}
			}
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			e.Ref.ID,
			title,
			channel,
			duration,
			humanize.Time(e.Ref.AddedAt),
		})
	}
	return renderTable(
		[]string{"#", "ID", "Title", "Channel", "Length", "Added"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func renderFetch(w io.Writer, res app.FetchResult) {
	if res.CategoriesRefreshed {
		fmt.Fprintf(w, "Category table refreshed (%s).\n", plural(res.Categories, "category", "categories"))
	}
	if res.Requested == 0 {
		fmt.Fprintln(w, "Nothing to fetch: every video already has metadata (use --force to refresh).")
		return
	}
	printer.Fprintf(w, "Fetched metadata for %d of %d videos", res.Fetched, res.Requested)
	if res.Unavailable > 0 {
		printer.Fprintf(w, " (%d unavailable)", res.Unavailable)
	}
	fmt.Fprintln(w, ".")
}

func renderSection(w io.Writer, title string, colorize bool) {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	fmt.Fprintln(w)
	fmt.Fprintln(w, colored(line, colorize, text.FgBlue, text.Bold))
}

func renderKV(w io.Writer, label string, value string) {
	fmt.Fprintf(w, "  %-22s %s\n", label+":", value)
}

func percent(ratio float64) string {
	return printer.Sprintf("%.1f%%", ratio*100)
}

func durationOrDash(d *time.Duration) string {
	if d == nil {
		return "-"
	}
	return stats.FormatHours(*d)
}

func renderCounts(w io.Writer, title string, counts []stats.Count) {
	if len(counts) == 0 {
		return
	}
	rows := make([][]string, len(counts))
	for i, c := range counts {
		rows[i] = []string{c.Label, printer.Sprintf("%d", c.Count)}
	}
	fmt.Fprintln(w, renderTable([]string{title, "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
}

func renderBasic(w io.Writer, r stats.Range, b stats.Basic, colorize bool) {
	renderSection(w, "ytq stats: "+r.Label(), colorize)
	renderKV(w, "Added", printer.Sprintf("%d", b.Added))
	renderKV(w, "Watched", printer.Sprintf("%d", b.Watched))
	renderKV(w, "Skipped", printer.Sprintf("%d", b.Skipped))
	renderKV(w, "In queue", printer.Sprintf("%d", b.QueueDepth))
	renderKV(w, "Completion rate", percent(b.CompletionRate))
	renderKV(w, "Avg. time in queue", durationOrDash(b.AvgTimeInQueue))
	if b.MostActiveWeekday != nil {
		renderKV(w, "Busiest weekday", printer.Sprintf("%s (%d added)", b.MostActiveWeekday.Label, b.MostActiveWeekday.Count))
	}

	if !b.HasWatchMetadata() && b.QueueDuration == nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Run `ytq fetch --all` to add watch time and channel stats.")
		return
	}
	if b.WatchTime != nil {
		renderKV(w, "Watch time", stats.FormatHours(*b.WatchTime))
	}
	if b.QueueDuration != nil {
		renderKV(w, "Queue length", stats.FormatHours(*b.QueueDuration))
	}
	renderCounts(w, "Top watched channels", b.TopWatchedChannels)
	renderCounts(w, "Top queued channels", b.TopQueueChannels)
}

const barWidth = 30

func bar(value, maxValue int) string {
	if maxValue <= 0 || value <= 0 {
		return ""
	}
	n := max(1, value*barWidth/maxValue)
	return strings.Repeat("█", n)
}

func renderBars(w io.Writer, counts []stats.Count) {
	maxValue := 0
	for _, c := range counts {
		maxValue = max(maxValue, c.Count)
	}
	for _, c := range counts {
		fmt.Fprintf(w, "  %-20s %-*s %s\n", c.Label, barWidth, bar(c.Count, maxValue), printer.Sprintf("%d", c.Count))
	}
}

func renderWrapped(w io.Writer, r stats.Range, s stats.Wrapped, colorize bool) {
	renderBasic(w, r, s.Basic, colorize)

	renderSection(w, "Habits", colorize)
	renderKV(w, "Skip rate", percent(s.SkipRate))
	renderKV(w, "Longest streak", plural(s.LongestStreak, "day", "days"))
	if s.BusiestDay != nil {
		renderKV(w, "Busiest day", printer.Sprintf("%s (%d watched)", s.BusiestDay.Label, s.BusiestDay.Count))
	}
	renderKV(w, "Fastest watch", durationOrDash(s.FastestWatch))
	renderKV(w, "Slowest watch", durationOrDash(s.SlowestWatch))
	if s.WeekendShare != nil {
		renderKV(w, "Weekend watching", percent(*s.WeekendShare))
	}

	renderInsights(w, s.Insights, colorize)

	if len(s.WatchedByMonth) > 0 {
		renderSection(w, "Watched by month", colorize)
		renderBars(w, s.WatchedByMonth)
	}
	if len(s.AddedByMonth) > 0 {
		renderSection(w, "Added by month", colorize)
		renderBars(w, s.AddedByMonth)
	}
	renderSection(w, "Time of day", colorize)
	renderBars(w, s.TimeOfDay)

	if s.HasWatchMetadata() {
		renderSection(w, "What you watched", colorize)
		renderKV(w, "Avg. video length", durationOrDash(s.WatchedAvgDuration))
		if s.LongestVideo != nil {
			renderKV(w, "Longest video", fmt.Sprintf("%s (%s)", s.LongestVideo.Title, stats.FormatHours(s.LongestVideo.Duration)))
		}
		if s.ShortestVideo != nil {
			renderKV(w, "Shortest video", fmt.Sprintf("%s (%s)", s.ShortestVideo.Title, stats.FormatHours(s.ShortestVideo.Duration)))
		}
		if s.ComfortVideo != nil {
			renderKV(w, "Comfort video", printer.Sprintf("%s (%d times)", s.ComfortVideo.Label, s.ComfortVideo.Count))
		}
		renderCounts(w, "Channels", s.WatchedTopChannels)
		renderCounts(w, "Categories", s.WatchedCategories)
		renderCounts(w, "Tags", s.WatchedTopTags)
	}
	if len(s.QueueTopChannels) > 0 {
		renderSection(w, "What is waiting", colorize)
		renderKV(w, "Avg. video length", durationOrDash(s.QueueAvgDuration))
		renderCounts(w, "Channels", s.QueueTopChannels)
		renderCounts(w, "Categories", s.QueueCategories)
		renderCounts(w, "Tags", s.QueueTopTags)
	}
}

func renderInsights(w io.Writer, in stats.Insights, colorize bool) {
	if in.Personality == nil && in.WatchesPerWeek == nil {
		return
	}
	renderSection(w, "Insights", colorize)
	if in.Personality != nil {
		renderKV(w, "You are", in.Personality.Label)
		fmt.Fprintf(w, "  %s\n", in.Personality.Description)
	}
	if in.WatchesPerWeek != nil {
		renderKV(w, "Watches per week", printer.Sprintf("%.1f", *in.WatchesPerWeek))
	}
	renderKV(w, "Videos touched", printer.Sprintf("%d", in.Throughput))
	if in.QueuePatience != nil {
		renderKV(w, "Queue patience", fmt.Sprintf("%s (median %s)", in.QueuePatience.Label, stats.FormatHours(in.QueuePatience.Median)))
	}
	if in.ChannelLoyalty != nil {
		renderKV(w, "Channel loyalty", fmt.Sprintf("%s (%s of videos)", in.ChannelLoyalty.Label, percent(in.ChannelLoyalty.Ratio)))
	}
	if in.WatchingAge != 0 {
		renderKV(w, "Watching age", fmt.Sprintf("videos from around %d", in.WatchingAge))
	}
	if in.OldestVideo != nil {
		renderKV(w, "Oldest video", fmt.Sprintf("%s (%d)", in.OldestVideo.Title, in.OldestVideo.PublishedAt.Year()))
	}
	if in.DiscoveryDay != nil {
		renderKV(w, "Discovery day", printer.Sprintf("%s (%d channels)", in.DiscoveryDay.Label, in.DiscoveryDay.Count))
	}
	if len(in.CategoryPhases) > 0 {
		phases := make([]string, len(in.CategoryPhases))
		for i, p := range in.CategoryPhases {
			phases[i] = p.Period + ": " + p.Category
		}
		renderKV(w, "Taste shifts", strings.Join(phases, ", "))
	}
}

func renderInfo(w io.Writer, info app.InfoResult, colorize bool) {
	renderSection(w, "Data paths", colorize)
	renderKV(w, "Config", info.ConfigFile)
	renderKV(w, "Data dir", info.Paths.DataDir)
	renderKV(w, "Queue", info.QueueFile)
	renderKV(w, "History", info.HistoryDir)
	renderKV(w, "Queue file exists", strconv.FormatBool(info.QueueExists))

	renderSection(w, "Contents", colorize)
	renderKV(w, "Queued videos", printer.Sprintf("%d", info.QueueLength))
	renderKV(w, "Metadata entries", printer.Sprintf("%d", info.Metadata))
	renderKV(w, "Categories", printer.Sprintf("%d", info.Categories))
	partitions := "-"
	if len(info.Partitions) > 0 {
		partitions = fmt.Sprintf("%s (%s to %s)", plural(len(info.Partitions), "month", "months"), info.Partitions[0], info.Partitions[len(info.Partitions)-1])
	}
	renderKV(w, "History", partitions)

	renderSection(w, "Settings", colorize)
	renderKV(w, "Mode", titler.String(string(info.Mode)))
	renderKV(w, "Offline", strconv.FormatBool(info.Offline))
	renderKV(w, "API key", info.APIKey)
}
