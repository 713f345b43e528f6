package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/runnerr0/visited/internal/config"
	"github.com/runnerr0/visited/internal/logging"
	"github.com/runnerr0/visited/internal/storage"
)

// configPath returns the --config value or the expanded default path.
func configPath(globals *GlobalFlags) (string, error) {
	if globals != nil && globals.Config != "" {
		return config.ExpandPath(globals.Config)
	}
	return config.ExpandPath(config.DefaultConfigPath)
}

// loadConfig loads the config file, writing defaults on first use.
func loadConfig(globals *GlobalFlags) (*config.Config, string, error) {
	path, err := configPath(globals)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.LoadOrCreateAt(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// openStore opens the configured SQLite database, runs migrations, and
// returns a ready-to-use store, the underlying *sql.DB and the file path.
func openStore(ctx context.Context, cfg *config.Config) (*storage.SQLiteStore, *sql.DB, string, error) {
	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return nil, nil, "", err
	}
	store, db, err := storage.Open(ctx, dbPath, cfg.Storage.SQLiteJournalMode)
	if err != nil {
		return nil, nil, "", err
	}
	return store, db, dbPath, nil
}

// newLogger builds the logger from config; --verbose forces debug level.
func newLogger(globals *GlobalFlags, cfg config.LoggingConfig) (zerolog.Logger, io.Closer, error) {
	if globals != nil && globals.Verbose {
		cfg.Level = "debug"
	}
	return logging.New(cfg)
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseDuration parses a human-friendly duration string like "30d", "7d", "24h", "2w".
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("invalid duration: empty string")
	}

	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]

	n, err := strconv.Atoi(numStr)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	default:
		return 0, fmt.Errorf("invalid duration: %q (use d, h, w, or m suffix)", s)
	}
}

// formatDurationHuman formats a duration into a human-readable string like "30 days".
func formatDurationHuman(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	hours := int(d.Hours())
	if hours > 0 {
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return d.String()
}
