package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/runnerr0/visited/internal/config"
	"github.com/runnerr0/visited/internal/history"
	"github.com/runnerr0/visited/internal/storage"
)

// Execute implements the go-flags Commander interface for ResolveCommand.
func (c *ResolveCommand) Execute(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("resolve requires at least one URL")
	}

	cfg, _, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	log, closer, err := newLogger(c.globals, cfg.Logging)
	if err != nil {
		return err
	}
	defer closer.Close()

	store, db, _, err := openStore(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(store, cfg, log, args)
}

// executeWithStore resolves urls against a provided store (for testing).
// The run is timed into the same statistics the daemon maintains.
func (c *ResolveCommand) executeWithStore(store *storage.SQLiteStore, cfg *config.Config, log zerolog.Logger, urls []string) error {
	ctx := context.Background()

	opts := cfg.ResolutionOptions(c.Inherit)
	if c.UseCache {
		opts.UseCache = true
	}
	if c.URLsLimit > 0 {
		opts.URLsLimit = c.URLsLimit
	}

	cache := history.NewVisitCache(cfg.Resolution.MaxCacheSize, nil)
	resolver := history.NewResolver(store, cache, log).
		WithSearchLimit(cfg.Resolution.SearchLimit).
		WithSampleSize(cfg.Resolution.SampleSize)
	timing := history.NewTimingRecorder(store, cfg.DefaultAverage(), log)

	start := time.Now()
	resp := resolver.Resolve(ctx, urls, opts)
	elapsed := time.Since(start)
	timing.RecordDuration(ctx, elapsed)

	if c.globals != nil && c.globals.JSON {
		return c.printJSON(urls, resp)
	}
	return c.printHuman(urls, resp, elapsed)
}

func (c *ResolveCommand) printHuman(urls []string, resp history.Response, elapsed time.Duration) error {
	fmt.Printf("Resolved %d URLs in %s mode (%s)\n\n", len(urls), resp.Mode, elapsed.Round(time.Millisecond))

	for _, u := range urls {
		rec, ok := resp.Items[u]
		if !ok {
			fmt.Printf("  %s\n    never visited\n", u)
			continue
		}

		match := "exact"
		if !rec.ExactMatch {
			match = "inherited"
		}
		last := "unknown"
		if !rec.LastVisitTime.IsZero() {
			last = rec.LastVisitTime.Local().Format("2006-01-02 15:04")
		}
		fmt.Printf("  %s\n    last visit %s \u00b7 %d visits \u00b7 %s\n", u, last, rec.VisitCount, match)
	}
	return nil
}

type resolvedJSON struct {
	LastVisitTime *int64 `json:"lastVisitTime"`
	VisitCount    int64  `json:"visitCount"`
	ExactMatch    bool   `json:"exactMatch"`
}

type resolveOutput struct {
	HistoryMode  history.Mode            `json:"historyMode"`
	Count        int                     `json:"count"`
	HistoryItems map[string]resolvedJSON `json:"historyItems"`
}

func (c *ResolveCommand) printJSON(urls []string, resp history.Response) error {
	out := resolveOutput{
		HistoryMode:  resp.Mode,
		Count:        len(urls),
		HistoryItems: make(map[string]resolvedJSON, len(resp.Items)),
	}
	for u, rec := range resp.Items {
		r := resolvedJSON{VisitCount: rec.VisitCount, ExactMatch: rec.ExactMatch}
		if !rec.LastVisitTime.IsZero() {
			ms := rec.LastVisitTime.UnixMilli()
			r.LastVisitTime = &ms
		}
		out.HistoryItems[u] = r
	}
	return printJSON(out)
}
