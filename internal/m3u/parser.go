package m3u

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alorle/catalog-ingest/internal/catalog"
	"github.com/alorle/catalog-ingest/internal/normalize"
	"github.com/alorle/catalog-ingest/internal/port/driven"
	"github.com/alorle/catalog-ingest/internal/unpack"
)

const (
	// DefaultTimeout bounds a single playlist download.
	DefaultTimeout = 30 * time.Second

	headerPrefix  = "#EXTM3U"
	maxLineLength = 1024 * 1024
)

var utf8BOM = []byte("\xef\xbb\xbf")

// Config holds the optional settings of a Parser.
type Config struct {
	Timeout   time.Duration
	UserAgent string
	Logger    *slog.Logger

	// MaxSize caps the size of a decompressed body. Zero means unpack.DefaultLimit.
	MaxSize int64
}

// Parser turns M3U playlists into channel records.
// It keeps no state between calls and may be shared between goroutines.
type Parser struct {
	fetcher    driven.Fetcher
	normalizer *normalize.Normalizer
	timeout    time.Duration
	userAgent  string
	maxSize    int64
	logger     *slog.Logger
}

// NewParser creates a playlist parser. Zero Config fields fall back to defaults.
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
		maxSize:    cfg.MaxSize,
		logger:     cfg.Logger,
	}
}

// Parse downloads the playlist at url and parses it.
func (p *Parser) Parse(ctx context.Context, url string) (catalog.Outcome, error) {
	p.logger.Debug("fetching M3U playlist")

	body, err := p.fetcher.Fetch(ctx, driven.FetchRequest{
		URL:       url,
		Timeout:   p.timeout,
		UserAgent: p.userAgent,
	})
	if err != nil {
		return catalog.Outcome{}, fmt.Errorf("failed to fetch M3U playlist: %w", err)
	}

	outcome, err := p.ParsePlaylist(body)
	if err != nil {
		return catalog.Outcome{}, err
	}

	p.logger.Info("parsed M3U playlist",
		"channels", len(outcome.Channels),
		"warnings", len(outcome.Warnings))
	return outcome, nil
}

// ParsePlaylist parses an already downloaded playlist. Compressed bodies are
// unpacked first. A body whose first non-blank line is not #EXTM3U is
// rejected with catalog.ErrInvalidFormat.
func (p *Parser) ParsePlaylist(body []byte) (catalog.Outcome, error) {
	body, err := unpack.Bytes(body, p.maxSize)
	if err != nil {
		return catalog.Outcome{}, fmt.Errorf("failed to unpack M3U playlist: %w", err)
	}
	body = bytes.TrimPrefix(body, utf8BOM)

	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	var (
		outcome    catalog.Outcome
		lineNo     int
		seenHeader bool
		m          = newMachine(p.normalizer)
	)

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if !seenHeader {
			if line == "" {
				continue
			}
			if !strings.HasPrefix(line, headerPrefix) {
				return catalog.Outcome{}, fmt.Errorf("%w: missing %s header", catalog.ErrInvalidFormat, headerPrefix)
			}
			seenHeader = true
			outcome.GuideURL = guideURL(line[len(headerPrefix):])
			continue
		}

		var s step
		m, s = transition(m, lineNo, line)
		if s.record != nil {
			outcome.Channels = append(outcome.Channels, *s.record)
		}
		outcome.Warnings = append(outcome.Warnings, s.warnings...)
	}
	if err := scanner.Err(); err != nil {
		return catalog.Outcome{}, fmt.Errorf("failed to read M3U playlist: %w", err)
	}
	if !seenHeader {
		return catalog.Outcome{}, fmt.Errorf("%w: missing %s header", catalog.ErrInvalidFormat, headerPrefix)
	}

	outcome.Warnings = append(outcome.Warnings, finish(m)...)
	return outcome, nil
}

// guideURL returns the first EPG URL advertised by the header attributes.
func guideURL(header string) string {
	raw := scanAttributes(header)[attrGuideURL]
	if i := strings.IndexByte(raw, ','); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(raw)
}
