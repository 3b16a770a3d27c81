package rewriter

import (
	"sort"
	"strings"

	"github.com/alorle/catalog-ingest/internal/catalog"
)

// SortChannels orders channels by category, then by name, ignoring case.
// Channels without a category go last. The input slice is not modified.
func SortChannels(channels []catalog.ChannelRecord) []catalog.ChannelRecord {
	out := make([]catalog.ChannelRecord, len(channels))
	copy(out, channels)

	sort.SliceStable(out, func(i, j int) bool {
		groupI := strings.ToLower(out[i].Category)
		groupJ := strings.ToLower(out[j].Category)
		if groupI != groupJ {
			// Empty category goes to the end
			if groupI == "" {
				return false
			}
			if groupJ == "" {
				return true
			}
			return groupI < groupJ
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})

	return out
}
