package driven

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/alorle/catalog-ingest/internal/port/driven"
	"github.com/alorle/catalog-ingest/metrics"
)

const (
	// DefaultUserAgent identifies the ingester to providers.
	DefaultUserAgent = "catalog-ingest/1.0"

	// DefaultMaxBodySize caps how much of a feed is read into memory.
	DefaultMaxBodySize int64 = 512 * 1024 * 1024

	defaultFetchTimeout = 30 * time.Second
)

// HTTPFetcher fetches feed bodies over HTTP.
// It implements the driven.Fetcher port.
type HTTPFetcher struct {
	client      *http.Client
	maxBodySize int64
	logger      *slog.Logger
}

// HTTPFetcherOption customizes an HTTPFetcher.
type HTTPFetcherOption func(*HTTPFetcher)

// WithHTTPClient sets the client used for requests.
// Timeouts should come from FetchRequest rather than http.Client.Timeout.
func WithHTTPClient(client *http.Client) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithMaxBodySize sets the body size cap. Non-positive values keep the default.
func WithMaxBodySize(n int64) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(logger *slog.Logger) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewHTTPFetcher creates a fetcher. The default client follows redirects and
// leaves timeouts to each request.
func NewHTTPFetcher(opts ...HTTPFetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:      &http.Client{},
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs a single GET bounded by req.Timeout.
// It never retries; every failure is returned as *driven.FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, req driven.FetchRequest) ([]byte, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fail(driven.FetchError{Kind: driven.FetchNetwork, URL: req.URL, Err: fmt.Errorf("creating HTTP request: %w", withoutURL(err))})
	}

	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	httpReq.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fail(driven.FetchError{Kind: driven.FetchNetwork, URL: req.URL, Err: withoutURL(err)})
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			f.logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fail(driven.FetchError{Kind: driven.FetchStatus, URL: req.URL, StatusCode: resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, fail(driven.FetchError{Kind: driven.FetchNetwork, URL: req.URL, Err: fmt.Errorf("reading response body: %w", err)})
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, fail(driven.FetchError{Kind: driven.FetchTooLarge, URL: req.URL})
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fail(driven.FetchError{Kind: driven.FetchEmpty, URL: req.URL})
	}

	f.logger.Debug("fetched feed",
		"host", httpReq.URL.Host,
		"bytes", len(body),
		"elapsed", time.Since(start),
	)

	return body, nil
}

// withoutURL drops the request URL from err. Xtream URLs carry credentials.
func withoutURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

func fail(e driven.FetchError) error {
	metrics.RecordFetchError(e.Kind.String())
	return &e
}

var _ driven.Fetcher = (*HTTPFetcher)(nil)
