package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/alorle/catalog-ingest/internal/catalog"
	"github.com/alorle/catalog-ingest/internal/m3u"
	"github.com/alorle/catalog-ingest/internal/port/driven"
	"github.com/alorle/catalog-ingest/rewriter"
)

// PlaylistService renders stored catalogs as M3U playlists, sorted by
// category and name. It depends only on port interfaces.
type PlaylistService struct {
	store        driven.CatalogStore
	includeAdult bool
}

// NewPlaylistService creates a new PlaylistService over the given store.
// Adult channels are left out unless includeAdult is set.
func NewPlaylistService(store driven.CatalogStore, includeAdult bool) *PlaylistService {
	return &PlaylistService{
		store:        store,
		includeAdult: includeAdult,
	}
}

// GenerateM3U renders the stored channels of one provider.
// Returns catalog.ErrSnapshotNotFound if the provider was never synced.
func (p *PlaylistService) GenerateM3U(ctx context.Context, provider string) (string, error) {
	snapshot, err := p.store.FindByProvider(ctx, provider)
	if err != nil {
		return "", fmt.Errorf("failed to load catalog of %q: %w", provider, err)
	}
	return p.render([]catalog.Snapshot{snapshot})
}

// GenerateCombinedM3U renders the channels of every stored provider.
// A stream offered by several providers is listed once.
// Returns a playlist with only the header if nothing is stored.
func (p *PlaylistService) GenerateCombinedM3U(ctx context.Context) (string, error) {
	snapshots, err := p.store.FindAll(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load catalogs: %w", err)
	}
	return p.render(snapshots)
}

func (p *PlaylistService) render(snapshots []catalog.Snapshot) (string, error) {
	var guides []string
	seen := make(map[string]bool)
	for _, s := range snapshots {
		if u := s.Outcome.GuideURL; u != "" && !seen[u] {
			seen[u] = true
			guides = append(guides, u)
		}
	}

	var channels []catalog.ChannelRecord
	for _, s := range snapshots {
		for _, ch := range s.Outcome.Channels {
			if ch.IsAdult && !p.includeAdult {
				continue
			}
			channels = append(channels, ch)
		}
	}

	enc := m3u.NewEncoder(guides...)
	enc.AddChannels(rewriter.SortChannels(rewriter.DeduplicateChannels(channels)))

	var builder strings.Builder
	if err := enc.Encode(&builder); err != nil {
		return "", fmt.Errorf("failed to encode playlist: %w", err)
	}
	return builder.String(), nil
}
