// Package rewriter reshapes channel lists before they are rendered as playlists.
package rewriter

import (
	"strings"

	"github.com/alorle/catalog-ingest/internal/catalog"
)

// DeduplicateChannels removes channels whose stream URL was already seen.
// The first occurrence wins and the relative order is kept. Channels without
// a stream URL are always preserved.
func DeduplicateChannels(channels []catalog.ChannelRecord) []catalog.ChannelRecord {
	seen := make(map[string]bool, len(channels))
	out := make([]catalog.ChannelRecord, 0, len(channels))

	for _, ch := range channels {
		key := strings.TrimSpace(ch.StreamURL)
		if key != "" {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, ch)
	}

	return out
}

// CollectGuideIDs returns the distinct EPG channel ids referenced by channels,
// in first-seen order.
func CollectGuideIDs(channels []catalog.ChannelRecord) []string {
	seen := make(map[string]bool)
	var ids []string

	for _, ch := range channels {
		id := strings.TrimSpace(ch.EPGChannelID)
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	return ids
}
