package xmltv

import (
	"sort"
	"time"

	"github.com/alorle/catalog-ingest/internal/catalog"
)

// Stats describes a set of guide entries.
type Stats struct {
	Programmes int
	Channels   []string
	FirstStart time.Time
	LastStart  time.Time
}

// Summarize computes Stats for entries. Channels are sorted.
func Summarize(entries []catalog.EpgEntry) Stats {
	stats := Stats{Programmes: len(entries)}
	seen := make(map[string]bool)
	for i, e := range entries {
		if !seen[e.ChannelID] {
			seen[e.ChannelID] = true
			stats.Channels = append(stats.Channels, e.ChannelID)
		}
		if i == 0 || e.Start.Before(stats.FirstStart) {
			stats.FirstStart = e.Start
		}
		if i == 0 || e.Start.After(stats.LastStart) {
			stats.LastStart = e.Start
		}
	}
	sort.Strings(stats.Channels)
	return stats
}

// FilterByRange keeps entries starting within [from, to).
func FilterByRange(entries []catalog.EpgEntry, from, to time.Time) []catalog.EpgEntry {
	var out []catalog.EpgEntry
	for _, e := range entries {
		if !e.Start.Before(from) && e.Start.Before(to) {
			out = append(out, e)
		}
	}
	return out
}

// FilterByChannels keeps entries whose channel id is in ids.
func FilterByChannels(entries []catalog.EpgEntry, ids []string) []catalog.EpgEntry {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []catalog.EpgEntry
	for _, e := range entries {
		if want[e.ChannelID] {
			out = append(out, e)
		}
	}
	return out
}
