package cli

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/runnerr0/visited/internal/storage"
)

// Execute implements the go-flags Commander interface for AddCommand.
func (c *AddCommand) Execute(args []string) error {
	if c.URL == "" {
		return fmt.Errorf("--url is required for add command")
	}

	cfg, _, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	store, db, _, err := openStore(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()
	defer db.Close()

	return c.executeWithStore(store)
}

// executeWithStore runs the add logic against a provided store (used by tests).
func (c *AddCommand) executeWithStore(store *storage.SQLiteStore) error {
	parsed, err := url.ParseRequestURI(c.URL)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("invalid URL: %s", c.URL)
	}

	visit := &storage.Visit{
		URL:    c.URL,
		Title:  c.Title,
		Source: c.Source,
	}
	if c.At != "" {
		at, err := time.Parse(time.RFC3339, c.At)
		if err != nil {
			return fmt.Errorf("invalid --at value %q: %w", c.At, err)
		}
		visit.VisitTime = at
	}

	ctx := context.Background()
	if err := store.AddVisit(ctx, visit); err != nil {
		return fmt.Errorf("storing visit: %w", err)
	}

	page, err := store.GetPage(ctx, visit.URL)
	if err != nil {
		return fmt.Errorf("reading page: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]interface{}{
			"id":          visit.ID,
			"url":         visit.URL,
			"title":       page.Title,
			"ts":          visit.VisitTime.UTC().Format(time.RFC3339),
			"source":      visit.Source,
			"visit_count": page.VisitCount,
		})
	}

	fmt.Printf("Added visit %s (%s)\n", visit.ID, visit.VisitTime.Format(time.RFC3339))
	fmt.Printf("  URL: %s\n", visit.URL)
	if page.Title != "" {
		fmt.Printf("  Title: %s\n", page.Title)
	}
	fmt.Printf("  Visits: %d\n", page.VisitCount)

	return nil
}
