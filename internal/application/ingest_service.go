package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/alorle/catalog-ingest/circuitbreaker"
	"github.com/alorle/catalog-ingest/internal/catalog"
	"github.com/alorle/catalog-ingest/internal/m3u"
	"github.com/alorle/catalog-ingest/internal/port/driven"
	"github.com/alorle/catalog-ingest/internal/xmltv"
	"github.com/alorle/catalog-ingest/internal/xtream"
	"github.com/alorle/catalog-ingest/metrics"
	"github.com/alorle/catalog-ingest/rewriter"
)

// Sync results reported to metrics.
const (
	resultSuccess = "success"
	resultFailure = "failure"
	resultSkipped = "skipped"
)

// IngestConfig holds the optional settings of an IngestService.
type IngestConfig struct {
	// Concurrency bounds how many providers SyncAll runs at once. Defaults to 1.
	Concurrency int
	Logger      *slog.Logger
	Now         func() time.Time
	NewID       func() string
}

// IngestService orchestrates a provider sync:
// parse the catalog, optionally import its program guide, and replace the
// stored snapshot. Fatal parse errors persist nothing.
type IngestService struct {
	playlists *m3u.Parser
	xtream    *xtream.Parser
	guides    *xmltv.Parser
	store     driven.CatalogStore
	breakers  *circuitbreaker.Group

	concurrency int
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
}

// NewIngestService creates a new ingest service with the required dependencies.
func NewIngestService(
	playlists *m3u.Parser,
	xtreamParser *xtream.Parser,
	guides *xmltv.Parser,
	store driven.CatalogStore,
	breakers *circuitbreaker.Group,
	cfg IngestConfig,
) *IngestService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if breakers == nil {
		breakers = circuitbreaker.NewGroup(circuitbreaker.Config{Logger: cfg.Logger})
	}
	return &IngestService{
		playlists:   playlists,
		xtream:      xtreamParser,
		guides:      guides,
		store:       store,
		breakers:    breakers,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
		now:         cfg.Now,
		newID:       cfg.NewID,
	}
}

// SyncResult is the outcome of one provider in SyncAll.
type SyncResult struct {
	Provider string
	Snapshot catalog.Snapshot
	Err      error
}

// Ingest parses a provider and its guide without storing anything.
// A guide failure is reported as a warning; a catalog failure is returned.
func (s *IngestService) Ingest(ctx context.Context, p catalog.Provider) (catalog.Outcome, error) {
	var (
		outcome catalog.Outcome
		err     error
	)

	switch p.Type {
	case catalog.ProviderM3U:
		outcome, err = s.playlists.Parse(ctx, p.URL)
	case catalog.ProviderXtream:
		outcome, err = s.xtream.Parse(ctx, credentials(p))
	default:
		return catalog.Outcome{}, fmt.Errorf("%w: %q", catalog.ErrUnknownProviderType, p.Type)
	}
	if err != nil {
		return catalog.Outcome{}, err
	}

	guideURL := guideSource(p, outcome)
	if guideURL == "" {
		return outcome, nil
	}

	guide, err := s.guides.Parse(ctx, guideURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return catalog.Outcome{}, fmt.Errorf("guide import interrupted: %w", ctxErr)
		}
		s.logger.Warn("guide import failed", "provider", p.Name, "error", err)
		outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("EPG import failed: %v", err))
		return outcome, nil
	}

	return outcome.Merge(s.trimGuide(p, outcome, guide)), nil
}

// trimGuide applies the provider's guide filters to a parsed guide.
func (s *IngestService) trimGuide(p catalog.Provider, outcome, guide catalog.Outcome) catalog.Outcome {
	if p.GuideMatchedOnly {
		ids := rewriter.CollectGuideIDs(outcome.Channels)
		guide.Programmes = xmltv.FilterByChannels(guide.Programmes, ids)
		guide.GuideChannels = filterGuideChannels(guide.GuideChannels, ids)
	}
	if p.GuideDays > 0 {
		now := s.now()
		guide.Programmes = xmltv.FilterByRange(guide.Programmes, now.Add(-24*time.Hour), now.AddDate(0, 0, p.GuideDays))
	}

	stats := xmltv.Summarize(guide.Programmes)
	s.logger.Debug("guide imported",
		"provider", p.Name,
		"programmes", stats.Programmes,
		"channels", len(stats.Channels),
		"first_start", stats.FirstStart,
		"last_start", stats.LastStart,
	)
	return guide
}

func filterGuideChannels(channels []catalog.GuideChannel, ids []string) []catalog.GuideChannel {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []catalog.GuideChannel
	for _, ch := range channels {
		if want[ch.ID] {
			out = append(out, ch)
		}
	}
	return out
}

// Sync ingests a provider and replaces its stored snapshot.
// Repeated failures open the provider's circuit; while open, Sync returns
// circuitbreaker.ErrCircuitOpen without contacting the provider.
func (s *IngestService) Sync(ctx context.Context, p catalog.Provider) (catalog.Snapshot, error) {
	start := s.now()
	logger := s.logger.With("provider", p.Name, "type", string(p.Type))
	logger.Info("sync started")

	var snapshot catalog.Snapshot
	err := s.breakers.Get(p.Name).Execute(ctx, func(ctx context.Context) error {
		outcome, err := s.Ingest(ctx, p)
		if err != nil {
			return err
		}

		snapshot = catalog.Snapshot{
			SyncID:   s.newID(),
			Provider: p.Name,
			SyncedAt: s.now().UTC(),
			Outcome:  outcome,
		}
		if err := s.store.Replace(ctx, snapshot); err != nil {
			return fmt.Errorf("failed to store catalog: %w", err)
		}
		return nil
	})
	elapsed := s.now().Sub(start)

	if err != nil {
		result := resultFailure
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrHalfOpenLimitReached) {
			result = resultSkipped
		}
		metrics.RecordSync(p.Name, result, elapsed)
		logger.Error("sync failed", "result", result, "error", err, "elapsed", elapsed)
		return catalog.Snapshot{}, fmt.Errorf("sync of provider %q failed: %w", p.Name, err)
	}

	summary := snapshot.Outcome.Summary()
	metrics.RecordSync(p.Name, resultSuccess, elapsed)
	metrics.RecordSuccess(p.Name, snapshot.SyncedAt, map[string]int{
		"channels":   summary.Channels,
		"movies":     summary.Movies,
		"series":     summary.Series,
		"programmes": summary.Programmes,
	})
	metrics.RecordWarnings(p.Name, summary.Warnings)

	logger.Info("sync finished",
		"sync_id", snapshot.SyncID,
		"summary", summary.String(),
		"elapsed", elapsed,
	)
	for _, w := range snapshot.Outcome.Warnings {
		logger.Debug("sync warning", "warning", w)
	}

	return snapshot, nil
}

// SyncAll syncs every provider, at most Concurrency at a time.
// One provider failing does not stop the others. Results keep the input order.
func (s *IngestService) SyncAll(ctx context.Context, providers []catalog.Provider) []SyncResult {
	results := make([]SyncResult, len(providers))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, p := range providers {
		i, p := i, p
		g.Go(func() error {
			snapshot, err := s.Sync(ctx, p)
			results[i] = SyncResult{Provider: p.Name, Snapshot: snapshot, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// guideSource picks the XMLTV location for a provider, if any.
// An explicit EPG URL wins over the provider-advertised ones.
func guideSource(p catalog.Provider, outcome catalog.Outcome) string {
	switch {
	case p.EPGURL != "":
		return p.EPGURL
	case p.Type == catalog.ProviderXtream && p.XtreamEPG:
		return xtream.GuideURL(credentials(p))
	case p.Type == catalog.ProviderM3U && p.PlaylistEPG:
		return outcome.GuideURL
	default:
		return ""
	}
}

func credentials(p catalog.Provider) xtream.Credentials {
	return xtream.Credentials{
		BaseURL:  p.URL,
		Username: p.Username,
		Password: p.Password,
	}
}
