package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DataDir != "data" {
		t.Errorf("expected default data dir 'data', got %q", cfg.DataDir)
	}
	if cfg.Fetch.MaxRetries != 3 {
		t.Errorf("expected default max retries 3, got %d", cfg.Fetch.MaxRetries)
	}
	if got := cfg.Seasons.List(); len(got) != 3 || got[0] != 2020 || got[2] != 2022 {
		t.Errorf("unexpected default season list: %v", got)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "courtside.yaml")
	yaml := `data_dir: /tmp/nba
seasons:
  start: 2018
  end: 2019
fetch:
  max_retries: 5
  base_delay_seconds: 2
  timeout_seconds: 10
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DataDir != "/tmp/nba" {
		t.Errorf("expected data dir from file, got %q", cfg.DataDir)
	}
	if cfg.Fetch.MaxRetries != 5 || cfg.Fetch.BaseDelaySeconds != 2 {
		t.Errorf("unexpected fetch config: %+v", cfg.Fetch)
	}
	if got := cfg.Seasons.List(); len(got) != 2 {
		t.Errorf("unexpected season list: %v", got)
	}
	// Untouched fields keep their defaults.
	if cfg.RESTPort != "8080" {
		t.Errorf("expected default rest port, got %q", cfg.RESTPort)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "courtside.yaml")
	if err := os.WriteFile(path, []byte("data_dir: /from/file\n"), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	t.Setenv("DATA_DIR", "/from/env")
	t.Setenv("CRAWL_SEASON_START", "2015")
	t.Setenv("CRAWL_SEASON_END", "2016")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DataDir != "/from/env" {
		t.Errorf("expected env to win, got %q", cfg.DataDir)
	}
	if cfg.Seasons.Start != 2015 || cfg.Seasons.End != 2016 {
		t.Errorf("unexpected seasons: %+v", cfg.Seasons)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"inverted seasons", func(c *Config) { c.Seasons = SeasonRange{Start: 2022, End: 2020} }, ErrInvalidSeasonRange},
		{"zero retries", func(c *Config) { c.Fetch.MaxRetries = 0 }, ErrInvalidMaxRetries},
		{"negative delay", func(c *Config) { c.Fetch.BaseDelaySeconds = -1 }, ErrInvalidBaseDelay},
		{"zero timeout", func(c *Config) { c.Fetch.TimeoutSeconds = 0 }, ErrInvalidTimeout},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, ErrMissingDataDir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load with missing file should fall back to defaults, got %v", err)
	}
	if cfg.DataDir != "data" {
		t.Errorf("expected defaults, got %q", cfg.DataDir)
	}
}
