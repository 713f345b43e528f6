package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/runnerr0/visited/internal/daemon"
	"github.com/runnerr0/visited/internal/metrics"
)

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	cfg, path, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	if c.Host != "" {
		cfg.Daemon.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Daemon.Port = c.Port
	}
	if c.LogLevel != "" {
		cfg.Logging.Level = c.LogLevel
	}

	log, closer, err := newLogger(c.globals, cfg.Logging)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, db, dbPath, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	log.Info().Str("database", dbPath).Str("config", path).Msg("starting daemon")

	srv := daemon.New(cfg, store, metrics.New(), log, c.version).WithConfigPath(path)
	if err := srv.Run(ctx, cfg.Addr()); err != nil {
		return fmt.Errorf("daemon: %w", err)
	}
	return nil
}
