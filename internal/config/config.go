// Package config holds the pipeline configuration. Values come from built-in
// defaults, an optional YAML file, and environment variable overrides, in
// that order. Loading is fail-open: an invalid value falls back to its
// default with a logged warning rather than stopping the program.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// browserUserAgent mimics a desktop Chrome browser; the image host rejects
// requests with obvious bot user agents.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Config is the explicit configuration for the pipeline and its commands.
type Config struct {
	// FeedURL is the RSS feed to process.
	FeedURL string `yaml:"feed_url"`

	// DataDir receives the raw and cleaned feed documents.
	DataDir string `yaml:"data_dir"`

	// FullsDir and ThumbsDir are the image cache directories.
	FullsDir  string `yaml:"fulls_dir"`
	ThumbsDir string `yaml:"thumbs_dir"`

	// RequestTimeout applies uniformly to the feed fetch and image
	// downloads. ScrapeTimeout is the shorter bound on film-page scrapes.
	RequestTimeout time.Duration `yaml:"request_timeout"`
	ScrapeTimeout  time.Duration `yaml:"scrape_timeout"`

	// UserAgent is sent on every outgoing request.
	UserAgent string `yaml:"user_agent"`

	// ScrapeRateLimit caps film-page scrape requests per second.
	// Zero disables the limiter.
	ScrapeRateLimit float64 `yaml:"scrape_rate_limit"`

	// CronSchedule and Timezone control serve mode.
	CronSchedule string `yaml:"cron_schedule"`
	Timezone     string `yaml:"timezone"`

	// MetricsPort is the serve-mode port for /metrics and /healthz.
	MetricsPort int `yaml:"metrics_port"`

	// LogLevel is one of debug, info, warn, error. LogFormat is json or text.
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the production defaults.
func Default() Config {
	return Config{
		FeedURL:         "https://letterboxd.com/honeypals/rss/",
		DataDir:         "data",
		FullsDir:        filepath.Join("assets", "images", "fulls"),
		ThumbsDir:       filepath.Join("assets", "images", "thumbs"),
		RequestTimeout:  30 * time.Second,
		ScrapeTimeout:   10 * time.Second,
		UserAgent:       browserUserAgent,
		ScrapeRateLimit: 2,
		CronSchedule:    "30 5 * * *",
		Timezone:        "UTC",
		MetricsPort:     9091,
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// RawFeedPath is where the unmodified fetched feed bytes are persisted.
func (c *Config) RawFeedPath() string {
	return filepath.Join(c.DataDir, "rss.xml")
}

// CleanedFeedPath is where the cleaned output document is written.
func (c *Config) CleanedFeedPath() string {
	return filepath.Join(c.DataDir, "cleaned_rss.xml")
}

// Load builds the configuration from defaults, the optional YAML file at
// path, and environment overrides. Invalid values fall back to defaults with
// a logged warning; Load never fails for bad values, only for an unreadable
// or malformed config file.
func Load(path string, logger *slog.Logger) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv(logger)
	cfg.validate(logger)
	return &cfg, nil
}

// applyEnv overrides fields from POSTERFEED_* environment variables.
func (c *Config) applyEnv(logger *slog.Logger) {
	if v := os.Getenv("POSTERFEED_FEED_URL"); v != "" {
		c.FeedURL = v
	}
	if v := os.Getenv("POSTERFEED_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("POSTERFEED_FULLS_DIR"); v != "" {
		c.FullsDir = v
	}
	if v := os.Getenv("POSTERFEED_THUMBS_DIR"); v != "" {
		c.ThumbsDir = v
	}
	if v := os.Getenv("POSTERFEED_USER_AGENT"); v != "" {
		c.UserAgent = v
	}
	if v := os.Getenv("POSTERFEED_CRON_SCHEDULE"); v != "" {
		c.CronSchedule = v
	}
	if v := os.Getenv("POSTERFEED_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}

	if v := os.Getenv("POSTERFEED_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.RequestTimeout = d
		} else {
			logger.Warn("invalid POSTERFEED_REQUEST_TIMEOUT, keeping current value",
				slog.String("value", v), slog.Any("error", err))
		}
	}
	if v := os.Getenv("POSTERFEED_SCRAPE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.ScrapeTimeout = d
		} else {
			logger.Warn("invalid POSTERFEED_SCRAPE_TIMEOUT, keeping current value",
				slog.String("value", v), slog.Any("error", err))
		}
	}
	if v := os.Getenv("POSTERFEED_METRICS_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.MetricsPort = p
		} else {
			logger.Warn("invalid POSTERFEED_METRICS_PORT, keeping current value",
				slog.String("value", v), slog.Any("error", err))
		}
	}
	if v := os.Getenv("POSTERFEED_SCRAPE_RATE_LIMIT"); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil {
			c.ScrapeRateLimit = r
		} else {
			logger.Warn("invalid POSTERFEED_SCRAPE_RATE_LIMIT, keeping current value",
				slog.String("value", v), slog.Any("error", err))
		}
	}
}

// validate applies per-field fallbacks for values that would break the run.
func (c *Config) validate(logger *slog.Logger) {
	def := Default()

	fallback := func(field, value string, set func()) {
		logger.Warn("configuration fallback applied",
			slog.String("field", field),
			slog.String("invalid_value", value))
		set()
	}

	if c.FeedURL == "" {
		fallback("feed_url", c.FeedURL, func() { c.FeedURL = def.FeedURL })
	}
	if c.DataDir == "" {
		fallback("data_dir", c.DataDir, func() { c.DataDir = def.DataDir })
	}
	if c.FullsDir == "" {
		fallback("fulls_dir", c.FullsDir, func() { c.FullsDir = def.FullsDir })
	}
	if c.ThumbsDir == "" {
		fallback("thumbs_dir", c.ThumbsDir, func() { c.ThumbsDir = def.ThumbsDir })
	}
	if c.RequestTimeout <= 0 {
		fallback("request_timeout", c.RequestTimeout.String(), func() { c.RequestTimeout = def.RequestTimeout })
	}
	if c.ScrapeTimeout <= 0 {
		fallback("scrape_timeout", c.ScrapeTimeout.String(), func() { c.ScrapeTimeout = def.ScrapeTimeout })
	}
	if c.ScrapeRateLimit < 0 {
		fallback("scrape_rate_limit", fmt.Sprintf("%g", c.ScrapeRateLimit), func() { c.ScrapeRateLimit = def.ScrapeRateLimit })
	}
	if c.MetricsPort < 1024 || c.MetricsPort > 65535 {
		fallback("metrics_port", strconv.Itoa(c.MetricsPort), func() { c.MetricsPort = def.MetricsPort })
	}

	if _, err := cron.ParseStandard(c.CronSchedule); err != nil {
		fallback("cron_schedule", c.CronSchedule, func() { c.CronSchedule = def.CronSchedule })
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		fallback("timezone", c.Timezone, func() { c.Timezone = def.Timezone })
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		fallback("log_level", c.LogLevel, func() { c.LogLevel = def.LogLevel })
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		fallback("log_format", c.LogFormat, func() { c.LogFormat = def.LogFormat })
	}
}
