package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/runnerr0/visited/internal/storage"
)

// Execute implements the go-flags Commander interface for SearchCommand.
func (c *SearchCommand) Execute(args []string) error {
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

	return c.executeWithStore(store, args)
}

// executeWithStore runs the search against a provided store (for testing).
func (c *SearchCommand) executeWithStore(store *storage.SQLiteStore, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))

	now := time.Now()
	var since time.Time
	if c.Since != "" {
		dur, err := parseDuration(c.Since)
		if err != nil {
			return fmt.Errorf("invalid --since value %q: %w", c.Since, err)
		}
		since = now.Add(-dur)
	}

	var until time.Time
	if c.Until != "" {
		dur, err := parseDuration(c.Until)
		if err != nil {
			return fmt.Errorf("invalid --until value %q: %w", c.Until, err)
		}
		until = now.Add(-dur)
	}

	sq := storage.SearchQuery{
		Text:  query,
		Since: since,
		Until: until,
		Limit: c.Limit,
	}

	ctx := context.Background()
	results, err := c.search(ctx, store, sq)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return c.printJSON(query, results)
	}
	return c.printHuman(query, results)
}

// search runs sq once per --domain and merges the results newest-first.
func (c *SearchCommand) search(ctx context.Context, store *storage.SQLiteStore, sq storage.SearchQuery) ([]storage.HistoryItem, error) {
	if len(c.Domain) == 0 {
		return store.SearchHistory(ctx, sq)
	}

	merged := []storage.HistoryItem{}
	for _, domain := range c.Domain {
		sq.Domain = domain
		items, err := store.SearchHistory(ctx, sq)
		if err != nil {
			return nil, err
		}
		merged = append(merged, items...)
	}
	slices.SortStableFunc(merged, func(a, b storage.HistoryItem) int {
		return b.LastVisitTime.Compare(a.LastVisitTime)
	})
	if sq.Limit > 0 && len(merged) > sq.Limit {
		merged = merged[:sq.Limit]
	}
	return merged, nil
}

func (c *SearchCommand) printHuman(query string, results []storage.HistoryItem) error {
	if len(results) == 0 {
		if query != "" {
			fmt.Printf("No results found for %q (since %s)\n", query, c.Since)
		} else {
			fmt.Printf("No results found (since %s)\n", c.Since)
		}
		return nil
	}

	resultWord := "results"
	if len(results) == 1 {
		resultWord = "result"
	}
	if query != "" {
		fmt.Printf("Found %d %s for %q (since %s)\n\n", len(results), resultWord, query, c.Since)
	} else {
		fmt.Printf("Found %d %s (since %s)\n\n", len(results), resultWord, c.Since)
	}

	for i, item := range results {
		title := item.Title
		if title == "" {
			title = item.URL
		}
		fmt.Printf("%d. %s", i+1, title)
		if item.Domain != "" {
			fmt.Printf(" \u2014 %s", item.Domain)
		}
		fmt.Println()

		fmt.Printf("   %s\n", item.URL)

		visits := "visits"
		if item.VisitCount == 1 {
			visits = "visit"
		}
		fmt.Printf("   %s \u00b7 %d %s\n", item.LastVisitTime.Local().Format("2006-01-02 15:04"), item.VisitCount, visits)

		if i < len(results)-1 {
			fmt.Println()
		}
	}

	return nil
}

type jsonResult struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	Domain        string `json:"domain"`
	LastVisitTime string `json:"last_visit_time"`
	VisitCount    int64  `json:"visit_count"`
}

type jsonSearchOutput struct {
	Count   int          `json:"count"`
	Query   string       `json:"query"`
	Results []jsonResult `json:"results"`
}

func (c *SearchCommand) printJSON(query string, results []storage.HistoryItem) error {
	out := jsonSearchOutput{
		Count:   len(results),
		Query:   query,
		Results: make([]jsonResult, len(results)),
	}

	for i, item := range results {
		out.Results[i] = jsonResult{
			URL:           item.URL,
			Title:         item.Title,
			Domain:        item.Domain,
			LastVisitTime: item.LastVisitTime.UTC().Format(time.RFC3339),
			VisitCount:    item.VisitCount,
		}
	}

	return printJSON(out)
}
