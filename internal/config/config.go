package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/runnerr0/visited/internal/history"
)

// Default config file path.
const DefaultConfigPath = "~/.config/visited/config.yaml"

// Config holds all visited configuration.
type Config struct {
	Resolution ResolutionConfig `yaml:"resolution"`
	Storage    StorageConfig    `yaml:"storage"`
	Daemon     DaemonConfig     `yaml:"daemon"`
	Logging    LoggingConfig    `yaml:"logging"`
	Retention  RetentionConfig  `yaml:"retention"`
	Filters    FiltersConfig    `yaml:"filters"`
}

type ResolutionConfig struct {
	UseCache         bool `yaml:"use_cache"`
	URLsLimit        int  `yaml:"urls_limit"`
	MaxCacheSize     int  `yaml:"max_cache_size"`
	SampleSize       int  `yaml:"sample_size"`
	SearchLimit      int  `yaml:"search_limit"`
	DefaultAverageMs int  `yaml:"default_average_ms"`
}

type StorageConfig struct {
	Path              string `yaml:"path"`
	SQLiteFile        string `yaml:"sqlite_file"`
	SQLiteJournalMode string `yaml:"sqlite_journal_mode"`
}

type DaemonConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxRequestSize int    `yaml:"max_request_size"`
	WatchConfig    bool   `yaml:"watch_config"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

type RetentionConfig struct {
	Days          int    `yaml:"days"`
	PruneSchedule string `yaml:"prune_schedule"`
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read, contains invalid YAML, or
// fails validation.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}

	return cfg, nil
}

// Validate checks value ranges and the prune schedule.
func (c *Config) Validate() error {
	r := c.Resolution
	switch {
	case r.URLsLimit <= 0:
		return fmt.Errorf("resolution.urls_limit must be positive, got %d", r.URLsLimit)
	case r.MaxCacheSize <= 0:
		return fmt.Errorf("resolution.max_cache_size must be positive, got %d", r.MaxCacheSize)
	case r.SampleSize <= 0:
		return fmt.Errorf("resolution.sample_size must be positive, got %d", r.SampleSize)
	case r.SearchLimit <= 0:
		return fmt.Errorf("resolution.search_limit must be positive, got %d", r.SearchLimit)
	case c.Retention.Days < 0:
		return fmt.Errorf("retention.days must not be negative, got %d", c.Retention.Days)
	}
	if c.Retention.PruneSchedule != "" {
		if _, err := ParseSchedule(c.Retention.PruneSchedule); err != nil {
			return fmt.Errorf("retention.prune_schedule: %w", err)
		}
	}
	return nil
}

// ParseSchedule parses a standard five-field cron spec or a descriptor
// such as "@daily".
func ParseSchedule(spec string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return parser.Parse(spec)
}

// ResolutionOptions builds the per-request options for the resolver.
func (c *Config) ResolutionOptions(inheritVisits bool) history.Options {
	return history.Options{
		UseCache:      c.Resolution.UseCache,
		InheritVisits: inheritVisits,
		URLsLimit:     c.Resolution.URLsLimit,
		MaxCacheSize:  c.Resolution.MaxCacheSize,
	}
}

// DefaultAverage returns the wait estimate used before any timing exists.
func (c *Config) DefaultAverage() time.Duration {
	return time.Duration(c.Resolution.DefaultAverageMs) * time.Millisecond
}

// DatabasePath returns the expanded SQLite file path.
func (c *Config) DatabasePath() (string, error) {
	if c.Storage.SQLiteFile == ":memory:" {
		return ":memory:", nil
	}
	dir, err := ExpandPath(c.Storage.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Storage.SQLiteFile), nil
}

// Addr returns the daemon listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Daemon.Host, c.Daemon.Port)
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := ExpandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}
