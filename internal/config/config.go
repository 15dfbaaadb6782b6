// Package config loads service configuration from an optional YAML
// file with environment-variable overrides on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrInvalidSeasonRange = errors.New("seasons.start must not exceed seasons.end")
	ErrInvalidMaxRetries  = errors.New("fetch.max_retries must be at least 1")
	ErrInvalidBaseDelay   = errors.New("fetch.base_delay_seconds must be non-negative")
	ErrInvalidTimeout     = errors.New("fetch.timeout_seconds must be at least 1")
	ErrMissingDataDir     = errors.New("data_dir is required")
)

// Config is the complete service configuration.
type Config struct {
	DataDir string `yaml:"data_dir"`
	BaseURL string `yaml:"base_url"`

	Seasons SeasonRange `yaml:"seasons"`
	Fetch   FetchConfig `yaml:"fetch"`

	PostgresDSN string `yaml:"postgres_dsn"`
	RedisURL    string `yaml:"redis_url"`

	RESTPort string `yaml:"rest_port"`
	WSPort   string `yaml:"ws_port"`

	StatsAPIBase string `yaml:"stats_api_base"`

	DailyCrawlHour   int  `yaml:"daily_crawl_hour"`
	EnableDailyCrawl bool `yaml:"enable_daily_crawl"`
}

// SeasonRange is the inclusive range of season end-years to crawl.
type SeasonRange struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// List expands the range into individual seasons.
func (r SeasonRange) List() []int {
	var seasons []int
	for s := r.Start; s <= r.End; s++ {
		seasons = append(seasons, s)
	}
	return seasons
}

// FetchConfig controls the page fetcher's retry behavior.
type FetchConfig struct {
	MaxRetries       int `yaml:"max_retries"`
	BaseDelaySeconds int `yaml:"base_delay_seconds"`
	TimeoutSeconds   int `yaml:"timeout_seconds"`
}

// BaseDelay returns the linear-backoff base as a duration.
func (f FetchConfig) BaseDelay() time.Duration {
	return time.Duration(f.BaseDelaySeconds) * time.Second
}

// Timeout returns the per-attempt timeout as a duration.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		DataDir: "data",
		BaseURL: "https://www.basketball-reference.com",
		Seasons: SeasonRange{Start: 2020, End: 2022},
		Fetch: FetchConfig{
			MaxRetries:       3,
			BaseDelaySeconds: 5,
			TimeoutSeconds:   30,
		},
		RESTPort:         "8080",
		WSPort:           "8081",
		StatsAPIBase:     "https://stats.nba.com/stats",
		DailyCrawlHour:   3,
		EnableDailyCrawl: false,
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (skipped when path is empty or missing), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables on the loaded values.
func (c *Config) applyEnv() {
	c.DataDir = getEnv("DATA_DIR", c.DataDir)
	c.BaseURL = getEnv("BREF_BASE_URL", c.BaseURL)
	c.PostgresDSN = getEnv("POSTGRES_DSN", c.PostgresDSN)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.RESTPort = getEnv("REST_PORT", c.RESTPort)
	c.WSPort = getEnv("WS_PORT", c.WSPort)
	c.StatsAPIBase = getEnv("STATS_API_BASE", c.StatsAPIBase)
	c.Seasons.Start = getEnvInt("CRAWL_SEASON_START", c.Seasons.Start)
	c.Seasons.End = getEnvInt("CRAWL_SEASON_END", c.Seasons.End)
	c.Fetch.MaxRetries = getEnvInt("FETCH_MAX_RETRIES", c.Fetch.MaxRetries)
	c.Fetch.BaseDelaySeconds = getEnvInt("FETCH_BASE_DELAY", c.Fetch.BaseDelaySeconds)
	c.Fetch.TimeoutSeconds = getEnvInt("FETCH_TIMEOUT", c.Fetch.TimeoutSeconds)
	c.DailyCrawlHour = getEnvInt("DAILY_CRAWL_HOUR", c.DailyCrawlHour)
	if v := os.Getenv("ENABLE_DAILY_CRAWL"); v != "" {
		c.EnableDailyCrawl = v == "true"
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return ErrMissingDataDir
	}
	if c.Seasons.Start > c.Seasons.End {
		return ErrInvalidSeasonRange
	}
	if c.Fetch.MaxRetries < 1 {
		return ErrInvalidMaxRetries
	}
	if c.Fetch.BaseDelaySeconds < 0 {
		return ErrInvalidBaseDelay
	}
	if c.Fetch.TimeoutSeconds < 1 {
		return ErrInvalidTimeout
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
