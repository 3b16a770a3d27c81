package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/alorle/catalog-ingest/internal/catalog"
)

var validLogLevels = map[string]bool{
	"DEBUG": true,
	"INFO":  true,
	"WARN":  true,
	"ERROR": true,
}

// ProviderSource represents a single catalog provider
type ProviderSource struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	URL         string `yaml:"url"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	EPGURL      string `yaml:"epg_url"`
	XtreamEPG   bool   `yaml:"xtream_epg"`
	PlaylistEPG bool   `yaml:"playlist_epg"`
	Disabled    bool   `yaml:"disabled"`

	GuideMatchedOnly bool `yaml:"guide_matched_only"`
	GuideDays        int  `yaml:"guide_days"`
}

// Provider converts the source to its domain form.
func (p ProviderSource) Provider() (catalog.Provider, error) {
	typ, err := catalog.ParseProviderType(p.Type)
	if err != nil {
		return catalog.Provider{}, err
	}
	return catalog.Provider{
		Name:        strings.TrimSpace(p.Name),
		Type:        typ,
		URL:         strings.TrimSpace(p.URL),
		Username:    p.Username,
		Password:    p.Password,
		EPGURL:      strings.TrimSpace(p.EPGURL),
		XtreamEPG:   p.XtreamEPG,
		PlaylistEPG: p.PlaylistEPG,

		GuideMatchedOnly: p.GuideMatchedOnly,
		GuideDays:        p.GuideDays,
	}, nil
}

// Config holds the complete application configuration
type Config struct {
	// Feed fetching
	Fetch struct {
		UserAgent     string        `yaml:"user_agent"`
		M3UTimeout    time.Duration `yaml:"m3u_timeout"`
		XMLTVTimeout  time.Duration `yaml:"xmltv_timeout"`
		XtreamTimeout time.Duration `yaml:"xtream_timeout"`
		MaxBodySize   ByteSize      `yaml:"max_body_size"`
	} `yaml:"fetch"`

	// Snapshot store
	Store struct {
		Path string `yaml:"path"`
	} `yaml:"store"`

	// Sync scheduling. An empty schedule runs once and exits.
	Sync struct {
		Schedule    string `yaml:"schedule"`
		Concurrency int    `yaml:"concurrency"`
		ExportDir   string `yaml:"export_dir"`
	} `yaml:"sync"`

	// Prometheus endpoint. Empty disables it.
	Metrics struct {
		Address string `yaml:"address"`
	} `yaml:"metrics"`

	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`

	// Keywords that mark a channel or title as adult content.
	// Empty uses the built-in list.
	AdultKeywords []string `yaml:"adult_keywords"`

	Resilience ResilienceConfig `yaml:"resilience"`

	Providers []ProviderSource `yaml:"providers"`
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	var errors []string

	if c.Fetch.M3UTimeout <= 0 {
		errors = append(errors, "M3U timeout must be positive")
	}
	if c.Fetch.XMLTVTimeout <= 0 {
		errors = append(errors, "XMLTV timeout must be positive")
	}
	if c.Fetch.XtreamTimeout <= 0 {
		errors = append(errors, "Xtream timeout must be positive")
	}
	if c.Fetch.MaxBodySize <= 0 {
		errors = append(errors, "Max body size must be positive")
	}

	if c.Store.Path == "" {
		errors = append(errors, "Store path is required")
	}

	if c.Sync.Concurrency <= 0 {
		errors = append(errors, "Sync concurrency must be positive")
	}
	if c.Sync.Schedule != "" {
		if _, err := cron.ParseStandard(c.Sync.Schedule); err != nil {
			errors = append(errors, fmt.Sprintf("Sync schedule %q is invalid: %v", c.Sync.Schedule, err))
		}
	}

	if !validLogLevels[strings.ToUpper(c.Log.Level)] {
		errors = append(errors, "Log level must be one of: DEBUG, INFO, WARN, ERROR")
	}

	if err := c.Resilience.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("Resilience config: %v", err))
	}

	errors = append(errors, validateProviders(c.Providers)...)

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func validateProviders(providers []ProviderSource) []string {
	var errors []string

	if len(providers) == 0 {
		errors = append(errors, "At least one provider is required")
	}

	seen := make(map[string]bool)
	for i, p := range providers {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			errors = append(errors, fmt.Sprintf("Provider %d: name is required", i))
		} else if seen[name] {
			errors = append(errors, fmt.Sprintf("Provider %d (%s): duplicate name", i, name))
		}
		seen[name] = true

		typ, err := catalog.ParseProviderType(p.Type)
		if err != nil {
			errors = append(errors, fmt.Sprintf("Provider %d (%s): %v", i, name, err))
		}

		if err := validateURL(p.URL); err != nil {
			errors = append(errors, fmt.Sprintf("Provider %d (%s): URL %v", i, name, err))
		}
		if p.EPGURL != "" {
			if err := validateURL(p.EPGURL); err != nil {
				errors = append(errors, fmt.Sprintf("Provider %d (%s): EPG URL %v", i, name, err))
			}
		}

		if p.GuideDays < 0 {
			errors = append(errors, fmt.Sprintf("Provider %d (%s): guide_days cannot be negative", i, name))
		}

		switch typ {
		case catalog.ProviderXtream:
			if strings.TrimSpace(p.Username) == "" || p.Password == "" {
				errors = append(errors, fmt.Sprintf("Provider %d (%s): username and password are required", i, name))
			}
			if p.PlaylistEPG {
				errors = append(errors, fmt.Sprintf("Provider %d (%s): playlist_epg only applies to m3u providers", i, name))
			}
		case catalog.ProviderM3U:
			if p.XtreamEPG {
				errors = append(errors, fmt.Sprintf("Provider %d (%s): xtream_epg only applies to xtream providers", i, name))
			}
		}
	}

	return errors
}

func validateURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("is malformed")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must use http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("has no host")
	}
	return nil
}

// Default returns a Config with sensible default values
func Default() *Config {
	cfg := &Config{}

	cfg.Fetch.UserAgent = "catalog-ingest/1.0"
	cfg.Fetch.M3UTimeout = 30 * time.Second
	cfg.Fetch.XMLTVTimeout = 60 * time.Second
	cfg.Fetch.XtreamTimeout = 30 * time.Second
	cfg.Fetch.MaxBodySize = 512 * 1024 * 1024 // 512MB

	cfg.Store.Path = "catalog.db"

	cfg.Sync.Concurrency = 2

	cfg.Log.Level = "INFO"
	cfg.Log.MaxSizeMB = 50
	cfg.Log.MaxBackups = 3
	cfg.Log.MaxAgeDays = 28

	cfg.Resilience = *DefaultResilienceConfig()

	return cfg
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Load loads configuration from a file (if provided) and applies environment variable overrides
func Load() (*Config, error) {
	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); err == nil {
		cfg, err = LoadFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg = Default()
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) error {
	parser := &envParser{}

	parser.parseEnum("LOG_LEVEL", &cfg.Log.Level, validLogLevels)
	parser.parseString("LOG_FILE", &cfg.Log.File)

	parser.parseString("DB_PATH", &cfg.Store.Path)
	if cfg.Store.Path != "" {
		path, err := absPath(cfg.Store.Path)
		if err != nil {
			parser.errors = append(parser.errors, fmt.Sprintf("DB_PATH: %v", err))
		} else {
			cfg.Store.Path = path
		}
	}

	parser.parseString("FETCH_USER_AGENT", &cfg.Fetch.UserAgent)
	parser.parseDuration("M3U_TIMEOUT", &cfg.Fetch.M3UTimeout)
	parser.parseDuration("XMLTV_TIMEOUT", &cfg.Fetch.XMLTVTimeout)
	parser.parseDuration("XTREAM_TIMEOUT", &cfg.Fetch.XtreamTimeout)
	parser.parseByteSize("FETCH_MAX_BODY_SIZE", (*int)(&cfg.Fetch.MaxBodySize))

	parser.parseString("SYNC_SCHEDULE", &cfg.Sync.Schedule)
	parser.parseInt("SYNC_CONCURRENCY", &cfg.Sync.Concurrency)
	parser.parseString("EXPORT_DIR", &cfg.Sync.ExportDir)

	parser.parseString("METRICS_ADDRESS", &cfg.Metrics.Address)

	parser.parseInt("CB_FAILURE_THRESHOLD", &cfg.Resilience.CBFailureThreshold)
	parser.parseDuration("CB_TIMEOUT", &cfg.Resilience.CBTimeout)
	parser.parseInt("CB_HALF_OPEN_REQUESTS", &cfg.Resilience.CBHalfOpenRequests)

	return parser.err()
}

// absPath normalizes a file path to an absolute one
func absPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to resolve absolute path: %w", err)
		}
		return abs, nil
	}

	return path, nil
}

// Print writes the configuration to w. Credentials are never printed.
func (c *Config) Print(w io.Writer) {
	fmt.Fprintf(w, "storePath: %v\n", c.Store.Path)
	fmt.Fprintf(w, "userAgent: %v\n", c.Fetch.UserAgent)
	fmt.Fprintf(w, "m3uTimeout: %v\n", c.Fetch.M3UTimeout)
	fmt.Fprintf(w, "xmltvTimeout: %v\n", c.Fetch.XMLTVTimeout)
	fmt.Fprintf(w, "xtreamTimeout: %v\n", c.Fetch.XtreamTimeout)
	fmt.Fprintf(w, "maxBodySize: %v bytes\n", int(c.Fetch.MaxBodySize))
	fmt.Fprintf(w, "syncSchedule: %q\n", c.Sync.Schedule)
	fmt.Fprintf(w, "syncConcurrency: %v\n", c.Sync.Concurrency)
	fmt.Fprintf(w, "exportDir: %q\n", c.Sync.ExportDir)
	fmt.Fprintf(w, "metricsAddress: %q\n", c.Metrics.Address)
	fmt.Fprintf(w, "logLevel: %v\n", c.Log.Level)
	fmt.Fprintf(w, "logFile: %q\n", c.Log.File)
	fmt.Fprintf(w, "adultKeywords: %d\n", len(c.AdultKeywords))
	fmt.Fprintf(w, "providers: %d\n", len(c.Providers))
	for _, p := range c.Providers {
		state := ""
		if p.Disabled {
			state = " (disabled)"
		}
		fmt.Fprintf(w, "  - %s [%s]: %s%s\n", p.Name, p.Type, redactURL(p.URL), state)
	}
}

// redactURL hides user info and query values, where Xtream credentials live.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid>"
	}
	if u.User != nil {
		u.User = url.User("xxx")
	}
	q := u.Query()
	for k := range q {
		q.Set(k, "xxx")
	}
	u.RawQuery = q.Encode()
	return u.String()
}
