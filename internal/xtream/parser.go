package xtream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alorle/catalog-ingest/internal/catalog"
	"github.com/alorle/catalog-ingest/internal/normalize"
	"github.com/alorle/catalog-ingest/internal/port/driven"
	"github.com/alorle/catalog-ingest/metrics"
)

// DefaultTimeout bounds each API request.
const DefaultTimeout = 30 * time.Second

const (
	actionLive   = "get_live_streams"
	actionVOD    = "get_vod_streams"
	actionSeries = "get_series"

	statusActive = "Active"
)

// Config holds the optional settings of a Parser.
type Config struct {
	Timeout   time.Duration
	UserAgent string
	Logger    *slog.Logger
}

// Parser reads live channels, movies and series from an Xtream-Codes API.
// It keeps no state between calls and may be shared between goroutines.
type Parser struct {
	fetcher    driven.Fetcher
	normalizer *normalize.Normalizer
	timeout    time.Duration
	userAgent  string
	logger     *slog.Logger
}

// NewParser creates an Xtream parser. Zero Config fields fall back to defaults.
func NewParser(fetcher driven.Fetcher, normalizer *normalize.Normalizer, cfg Config) *Parser {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if normalizer == nil {
		normalizer = normalize.New(normalize.Options{})
	}
	return &Parser{
		fetcher:    fetcher,
		normalizer: normalizer,
		timeout:    cfg.Timeout,
		userAgent:  cfg.UserAgent,
		logger:     cfg.Logger,
	}
}

// Parse authenticates and then loads live streams, movies and series
// concurrently. Authentication failure is fatal and stops before any catalog
// request. A failed catalog phase becomes a warning; the other phases still
// contribute their records.
func (p *Parser) Parse(ctx context.Context, creds Credentials) (catalog.Outcome, error) {
	if err := p.authenticate(ctx, creds); err != nil {
		return catalog.Outcome{}, err
	}

	var outcome catalog.Outcome
	var liveWarn, movieWarn, seriesWarn string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		outcome.Channels, liveWarn, err = runPhase(gctx, p, creds, actionLive, "live channels", "live", p.liveRecord)
		return err
	})
	g.Go(func() error {
		var err error
		outcome.Movies, movieWarn, err = runPhase(gctx, p, creds, actionVOD, "VOD movies", "movie", p.movieRecord)
		return err
	})
	g.Go(func() error {
		var err error
		outcome.Series, seriesWarn, err = runPhase(gctx, p, creds, actionSeries, "series", "series", p.seriesRecord)
		return err
	})
	if err := g.Wait(); err != nil {
		return catalog.Outcome{}, fmt.Errorf("xtream sync interrupted: %w", err)
	}

	for _, w := range []string{liveWarn, movieWarn, seriesWarn} {
		if w != "" {
			outcome.Warnings = append(outcome.Warnings, w)
		}
	}

	p.logger.Info("parsed Xtream catalog",
		"channels", len(outcome.Channels),
		"movies", len(outcome.Movies),
		"series", len(outcome.Series),
		"warnings", len(outcome.Warnings))
	return outcome, nil
}

func (p *Parser) fetch(ctx context.Context, url string) ([]byte, error) {
	return p.fetcher.Fetch(ctx, driven.FetchRequest{
		URL:       url,
		Timeout:   p.timeout,
		UserAgent: p.userAgent,
	})
}

func (p *Parser) authenticate(ctx context.Context, creds Credentials) error {
	body, err := p.fetch(ctx, creds.apiURL(""))
	if err != nil {
		return fmt.Errorf("%w: %w", catalog.ErrAuthentication, err)
	}

	var resp authResponseJSON
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: invalid response: %w", catalog.ErrAuthentication, err)
	}
	if resp.UserInfo == nil {
		return fmt.Errorf("%w: response has no user_info", catalog.ErrAuthentication)
	}
	if status := resp.UserInfo.Status.String(); status != statusActive {
		return fmt.Errorf("%w: account status %q", catalog.ErrAuthentication, status)
	}

	p.logger.Debug("authenticated with Xtream server",
		"expires", resp.UserInfo.ExpDate.String(),
		"max_connections", resp.UserInfo.MaxConnections.String())
	return nil
}

// runPhase fetches one catalog action and converts each entry. It returns an
// error only when ctx is done; every other failure is a warning.
func runPhase[T any](
	ctx context.Context,
	p *Parser,
	creds Credentials,
	action, label, kind string,
	convert func(Credentials, json.RawMessage) (T, bool),
) ([]T, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	body, err := p.fetch(ctx, creds.apiURL(action))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, "", ctxErr
		}
		return nil, fmt.Sprintf("failed to fetch %s: %v", label, err), nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Sprintf("failed to fetch %s: invalid response: %v", label, err), nil
	}
	if entries == nil {
		return nil, fmt.Sprintf("failed to fetch %s: response is not a list", label), nil
	}

	records := make([]T, 0, len(entries))
	dropped := 0
	for _, raw := range entries {
		rec, ok := convert(creds, raw)
		if !ok {
			dropped++
			continue
		}
		records = append(records, rec)
	}

	if dropped > 0 {
		// Dropped entries are not warnings; they are only logged and counted.
		p.logger.Debug("dropped entries without required keys", "kind", kind, "count", dropped)
		metrics.RecordDroppedEntries(kind, dropped)
	}
	return records, "", nil
}

func (p *Parser) liveRecord(creds Credentials, raw json.RawMessage) (catalog.ChannelRecord, bool) {
	var s liveStreamJSON
	if err := json.Unmarshal(raw, &s); err != nil {
		return catalog.ChannelRecord{}, false
	}
	if !s.StreamID.present() || !s.Name.present() {
		return catalog.ChannelRecord{}, false
	}

	name := p.normalizer.CleanName(s.Name.String())
	streamURL := creds.LiveURL(s.StreamID.String())
	if name == "" || !catalog.IsValidStreamURL(streamURL) {
		return catalog.ChannelRecord{}, false
	}

	cat := category(p.normalizer, s.CategoryName, catalog.DefaultChannelCategory)
	return catalog.ChannelRecord{
		Name:           name,
		Category:       cat,
		Logo:           s.StreamIcon.String(),
		StreamURL:      streamURL,
		EPGChannelID:   s.EPGChannelID.String(),
		EPGDisplayName: name,
		IsAdult:        p.normalizer.IsAdult(name, cat),
	}, true
}

func (p *Parser) movieRecord(creds Credentials, raw json.RawMessage) (catalog.MovieRecord, bool) {
	var s vodStreamJSON
	if err := json.Unmarshal(raw, &s); err != nil {
		return catalog.MovieRecord{}, false
	}
	if !s.StreamID.present() || !s.Name.present() {
		return catalog.MovieRecord{}, false
	}

	rawName := s.Name.String()
	name := p.normalizer.CleanName(rawName)
	if name == "" {
		return catalog.MovieRecord{}, false
	}
	info := s.Info.Value
	cat := category(p.normalizer, s.CategoryName, catalog.DefaultMovieCategory)

	movie := catalog.MovieRecord{
		Name:       name,
		Category:   cat,
		Poster:     s.StreamIcon.String(),
		Synopsis:   s.Plot.String(),
		StreamURL:  creds.MovieURL(s.StreamID.String(), s.ContainerExtension.String()),
		ProviderID: s.StreamID.String(),
		IsAdult:    p.normalizer.IsAdult(name, cat),
	}
	if movie.Synopsis == "" {
		movie.Synopsis = info.Plot.String()
	}
	if year, ok := p.normalizer.ExtractYear(rawName); ok {
		movie.Year = year
	}
	if minutes, ok := p.normalizer.ParseDuration(info.Duration.String()); ok {
		movie.DurationMinutes = minutes
	} else if secs, ok := info.DurationSecs.Int(); ok && secs > 0 {
		movie.DurationMinutes = secs / 60
	}
	movie.Rating = info.Rating.Float()
	if movie.Rating == 0 {
		movie.Rating = s.Rating.Float()
	}
	return movie, true
}

func (p *Parser) seriesRecord(_ Credentials, raw json.RawMessage) (catalog.SeriesRecord, bool) {
	var s seriesJSON
	if err := json.Unmarshal(raw, &s); err != nil {
		return catalog.SeriesRecord{}, false
	}
	if !s.SeriesID.present() || !s.Name.present() {
		return catalog.SeriesRecord{}, false
	}

	rawName := s.Name.String()
	name := p.normalizer.CleanName(rawName)
	if name == "" {
		return catalog.SeriesRecord{}, false
	}

	cat := category(p.normalizer, s.CategoryName, catalog.DefaultSeriesCategory)
	series := catalog.SeriesRecord{
		Name:     name,
		Category: cat,
		Cover:    s.Cover.String(),
		Synopsis: s.Plot.String(),
		Rating:   s.Rating.Float(),
		SeriesID: s.SeriesID.String(),
		IsAdult:  p.normalizer.IsAdult(name, cat),
	}
	if year, ok := p.normalizer.ExtractYear(rawName); ok {
		series.Year = year
	}
	return series, true
}

func category(n *normalize.Normalizer, raw flexString, fallback string) string {
	if c := n.CleanName(raw.String()); c != "" {
		return c
	}
	return fallback
}
