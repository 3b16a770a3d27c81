package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.etcd.io/bbolt"

	"github.com/alorle/catalog-ingest/circuitbreaker"
	"github.com/alorle/catalog-ingest/config"
	"github.com/alorle/catalog-ingest/internal/adapter/driven"
	"github.com/alorle/catalog-ingest/internal/application"
	"github.com/alorle/catalog-ingest/internal/catalog"
	"github.com/alorle/catalog-ingest/internal/m3u"
	"github.com/alorle/catalog-ingest/internal/normalize"
	"github.com/alorle/catalog-ingest/internal/xmltv"
	"github.com/alorle/catalog-ingest/internal/xtream"
	"github.com/alorle/catalog-ingest/logging"
)

type flags struct {
	once         bool
	printConfig  bool
	provider     string
	exportDir    string
	includeAdult bool
}

func parseFlags() flags {
	var f flags
	flag.BoolVar(&f.once, "once", false, "run a single sync and exit, even when a schedule is configured")
	flag.BoolVar(&f.printConfig, "print-config", false, "print the effective configuration and exit")
	flag.StringVar(&f.provider, "provider", "", "only sync the named provider")
	flag.StringVar(&f.exportDir, "export", "", "write an M3U playlist per provider to this directory after each sync")
	flag.BoolVar(&f.includeAdult, "include-adult", false, "keep adult channels in exported playlists")
	flag.Parse()
	return f
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("failed to load .env file: %v", err)
	}

	f := parseFlags()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if f.exportDir == "" {
		f.exportDir = cfg.Sync.ExportDir
	}

	if f.printConfig {
		cfg.Print(os.Stdout)
		return
	}

	logger, logFile := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	slog.SetDefault(logger)

	err = run(cfg, f, logger)
	if err != nil {
		logger.Error("catalog-ingest stopped", "error", err)
	}
	if closeErr := logFile.Close(); closeErr != nil {
		log.Printf("error closing log file: %v", closeErr)
	}
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, f flags, logger *slog.Logger) error {
	providers, err := selectProviders(cfg.Providers, f.provider)
	if err != nil {
		return err
	}

	logger.Info("starting catalog-ingest",
		"providers", len(providers),
		"db_path", cfg.Store.Path,
		"schedule", cfg.Sync.Schedule,
		"concurrency", cfg.Sync.Concurrency,
		"log_level", cfg.Log.Level,
	)

	db, err := bbolt.Open(cfg.Store.Path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("error closing database", "error", err)
		}
	}()

	store, err := driven.NewCatalogBoltDBStore(db)
	if err != nil {
		return fmt.Errorf("failed to create catalog store: %w", err)
	}

	fetcher := driven.NewHTTPFetcher(
		driven.WithMaxBodySize(int64(cfg.Fetch.MaxBodySize)),
		driven.WithLogger(logger),
	)
	norm := normalize.New(normalize.Options{AdultKeywords: cfg.AdultKeywords})

	playlistParser := m3u.NewParser(fetcher, norm, m3u.Config{
		Timeout:   cfg.Fetch.M3UTimeout,
		UserAgent: cfg.Fetch.UserAgent,
		Logger:    logger.With("parser", "m3u"),
		MaxSize:   int64(cfg.Fetch.MaxBodySize),
	})
	xtreamParser := xtream.NewParser(fetcher, norm, xtream.Config{
		Timeout:   cfg.Fetch.XtreamTimeout,
		UserAgent: cfg.Fetch.UserAgent,
		Logger:    logger.With("parser", "xtream"),
	})
	guideParser := xmltv.NewParser(fetcher, xmltv.Config{
		Timeout:   cfg.Fetch.XMLTVTimeout,
		UserAgent: cfg.Fetch.UserAgent,
		Logger:    logger.With("parser", "xmltv"),
		MaxSize:   int64(cfg.Fetch.MaxBodySize),
	})

	breakers := circuitbreaker.NewGroup(circuitbreaker.Config{
		FailureThreshold: cfg.Resilience.CBFailureThreshold,
		Timeout:          cfg.Resilience.CBTimeout,
		HalfOpenRequests: cfg.Resilience.CBHalfOpenRequests,
		Logger:           logger,
	})

	ingestService := application.NewIngestService(playlistParser, xtreamParser, guideParser, store, breakers, application.IngestConfig{
		Concurrency: cfg.Sync.Concurrency,
		Logger:      logger,
	})
	playlistService := application.NewPlaylistService(store, f.includeAdult)
	healthService := application.NewHealthService(store, breakers)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var server *http.Server
	if cfg.Metrics.Address != "" {
		server = newMetricsServer(cfg.Metrics.Address, healthService, logger)
		go func() {
			logger.Info("metrics server listening", "addr", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	syncOnce := func(ctx context.Context) error {
		results := ingestService.SyncAll(ctx, providers)
		if f.exportDir != "" {
			if err := exportPlaylists(ctx, playlistService, f.exportDir, results); err != nil {
				logger.Error("playlist export failed", "dir", f.exportDir, "error", err)
			}
		}
		return summarize(results, logger)
	}

	if cfg.Sync.Schedule == "" || f.once {
		return syncOnce(ctx)
	}

	cronLog := newCronLogger(logger)
	c := cron.New(cron.WithLogger(cronLog), cron.WithChain(cron.SkipIfStillRunning(cronLog)))
	if _, err := c.AddFunc(cfg.Sync.Schedule, func() {
		if err := syncOnce(ctx); err != nil {
			logger.Warn("scheduled sync incomplete", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid sync schedule: %w", err)
	}

	if err := syncOnce(ctx); err != nil {
		logger.Warn("initial sync incomplete", "error", err)
	}

	c.Start()
	logger.Info("sync scheduled", "schedule", cfg.Sync.Schedule)

	<-ctx.Done()
	logger.Info("shutdown signal received, waiting for running sync")
	<-c.Stop().Done()
	logger.Info("catalog-ingest stopped")

	return nil
}

// selectProviders converts the enabled providers, optionally keeping only one.
func selectProviders(sources []config.ProviderSource, only string) ([]catalog.Provider, error) {
	var providers []catalog.Provider
	for _, src := range sources {
		if src.Disabled {
			continue
		}
		if only != "" && strings.TrimSpace(src.Name) != only {
			continue
		}
		p, err := src.Provider()
		if err != nil {
			return nil, fmt.Errorf("provider %q: %w", src.Name, err)
		}
		providers = append(providers, p)
	}
	if len(providers) == 0 {
		if only != "" {
			return nil, fmt.Errorf("no enabled provider named %q", only)
		}
		return nil, errors.New("no enabled providers")
	}
	return providers, nil
}

// summarize logs one line per failed provider and reports whether any failed.
func summarize(results []application.SyncResult, logger *slog.Logger) error {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		logger.Info("provider synced",
			"provider", r.Provider,
			"summary", r.Snapshot.Outcome.Summary().String(),
		)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d providers failed to sync", failed, len(results))
	}
	return nil
}

func newMetricsServer(addr string, health *application.HealthService, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			logging.WriteJSONError(w, logger, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		status := health.Check(r.Context())
		code := http.StatusOK
		if status.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		logging.WriteJSON(w, logger, code, status)
	})

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
