package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/runnerr0/visited/internal/storage"
)

// setDB allows tests to inject a database connection.
func (c *PurgeCommand) setDB(db *sql.DB) {
	c.db = db
}

// Execute implements the go-flags Commander interface for PurgeCommand.
func (c *PurgeCommand) Execute(args []string) error {
	return c.execute(os.Stdin)
}

func (c *PurgeCommand) execute(in io.Reader) error {
	if !c.All {
		return fmt.Errorf("purge requires --all flag for safety")
	}

	if !c.Force {
		fmt.Println("\u26a0 WARNING: This will permanently delete ALL visited data.")
		fmt.Println("  - All pages and visits")
		fmt.Println("  - Cache size and timing statistics")
		fmt.Println()
		fmt.Println("This action cannot be undone.")
		fmt.Println()
		fmt.Print(`Type "PURGE" to confirm: `)

		scanner := bufio.NewScanner(in)
		if !scanner.Scan() {
			return fmt.Errorf("aborted: no input received")
		}
		input := strings.TrimSpace(scanner.Text())
		if input != "PURGE" {
			return fmt.Errorf("aborted: confirmation text did not match")
		}
	}

	ctx := context.Background()

	store, closeStore, err := c.purgeStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.PurgeAll(ctx); err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]interface{}{
			"purged":  true,
			"message": "all data deleted",
		})
	}

	fmt.Println("Purged all data. The history index is empty.")
	return nil
}

// purgeStore wraps the injected db, or opens the configured database.
func (c *PurgeCommand) purgeStore(ctx context.Context) (*storage.SQLiteStore, func(), error) {
	if c.db != nil {
		store, err := storage.NewSQLiteStore(c.db)
		if err != nil {
			return nil, nil, fmt.Errorf("init store: %w", err)
		}
		return store, func() { store.Close() }, nil
	}

	cfg, _, err := loadConfig(c.globals)
	if err != nil {
		return nil, nil, err
	}
	store, db, _, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {
		store.Close()
		db.Close()
	}, nil
}
