package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/runnerr0/visited/internal/config"
	"github.com/runnerr0/visited/internal/storage"
)

// Execute implements the go-flags Commander interface for PruneCommand.
func (c *PruneCommand) Execute(args []string) error {
	cfg, _, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	store, db, _, err := openStore(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(store, cfg)
}

// executeWithStore prunes a provided store (for testing).
func (c *PruneCommand) executeWithStore(store *storage.SQLiteStore, cfg *config.Config) error {
	retention := time.Duration(cfg.Retention.Days) * 24 * time.Hour
	if c.OlderThan != "" {
		d, err := parseDuration(c.OlderThan)
		if err != nil {
			return fmt.Errorf("invalid --older-than value %q: %w", c.OlderThan, err)
		}
		retention = d
	}
	if retention <= 0 {
		return fmt.Errorf("retention is disabled; pass --older-than to prune")
	}

	ctx := context.Background()
	cutoff := time.Now().Add(-retention)

	var n int64
	var err error
	if c.DryRun {
		n, err = store.CountExpired(ctx, cutoff)
	} else {
		n, err = store.PruneExpired(ctx, cutoff)
	}
	if err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]interface{}{
			"dry_run":     c.DryRun,
			"older_than":  formatDurationHuman(retention),
			"cutoff":      cutoff.UTC().Format(time.RFC3339),
			"visit_count": n,
		})
	}

	if c.DryRun {
		fmt.Printf("Would prune %d visits older than %s.\n", n, formatDurationHuman(retention))
		return nil
	}
	fmt.Printf("Pruned %d visits older than %s.\n", n, formatDurationHuman(retention))
	return nil
}
