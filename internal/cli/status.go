package cli

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/runnerr0/visited/internal/config"
	"github.com/runnerr0/visited/internal/history"
	"github.com/runnerr0/visited/internal/storage"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version           string            `json:"version"`
	DatabasePath      string            `json:"database_path"`
	DatabaseSizeBytes int64             `json:"database_size_bytes"`
	TotalPages        int64             `json:"total_pages"`
	TotalVisits       int64             `json:"total_visits"`
	OldestVisit       string            `json:"oldest_visit,omitempty"`
	NewestVisit       string            `json:"newest_visit,omitempty"`
	RetentionDays     int               `json:"retention_days"`
	TopDomains        []domainCountJSON `json:"top_domains"`
	CacheEnabled      bool              `json:"cache_enabled"`
	CacheSize         int64             `json:"cache_size"`
	MaxCacheSize      int               `json:"max_cache_size"`
	AverageMs         float64           `json:"average_ms"`
	SearchCount       int64             `json:"search_count"`
	DaemonAddr        string            `json:"daemon_addr"`
	DaemonRunning     bool              `json:"daemon_running"`
}

type domainCountJSON struct {
	Domain string `json:"domain"`
	Count  int64  `json:"count"`
}

// statusReport gathers everything the status command prints.
type statusReport struct {
	stats         *storage.Stats
	dbPath        string
	dbSize        int64
	cacheSize     int64
	average       time.Duration
	searchCount   int64
	daemonRunning bool
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	cfg, _, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	store, db, dbPath, err := openStore(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(store, db, cfg, dbPath)
}

// executeWithStore runs status against a provided store and db (for testing).
func (c *StatusCommand) executeWithStore(store *storage.SQLiteStore, db *sql.DB, cfg *config.Config, dbPath string) error {
	ctx := context.Background()

	stats, err := store.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	cacheSize, err := store.GetInt(ctx, storage.KeyCacheSize)
	if err != nil {
		return fmt.Errorf("get cache size: %w", err)
	}

	timing := history.NewTimingRecorder(store, cfg.DefaultAverage(), zerolog.Nop())
	probe := c.probe
	if probe == nil {
		probe = checkDaemon
	}

	report := statusReport{
		stats:         stats,
		dbPath:        dbPath,
		dbSize:        getDatabaseSize(db, dbPath),
		cacheSize:     cacheSize,
		average:       timing.Average(ctx),
		searchCount:   timing.Count(ctx),
		daemonRunning: probe(cfg.Addr()),
	}

	if c.globals != nil && c.globals.JSON {
		return c.printStatusJSON(report, cfg)
	}
	return c.printStatusHuman(report, cfg)
}

func (c *StatusCommand) printStatusHuman(r statusReport, cfg *config.Config) error {
	fmt.Println("Visited Status")
	fmt.Println("==============")
	fmt.Printf("Version:       %s\n", c.version)
	fmt.Printf("Database:      %s (%s)\n", r.dbPath, formatBytes(r.dbSize))
	fmt.Printf("Pages:         %s\n", formatNumber(r.stats.TotalPages))
	fmt.Printf("Visits:        %s\n", formatNumber(r.stats.TotalVisits))

	if r.stats.TotalVisits > 0 {
		fmt.Printf("Oldest:        %s\n", r.stats.OldestVisit.Local().Format("2006-01-02"))
		fmt.Printf("Newest:        %s\n", r.stats.NewestVisit.Local().Format("2006-01-02"))
	}

	fmt.Printf("Retention:     %d days\n", cfg.Retention.Days)

	cacheState := "disabled"
	if cfg.Resolution.UseCache {
		cacheState = "enabled"
	}
	fmt.Printf("Cache:         %s entries (max %s, %s)\n",
		formatNumber(r.cacheSize), formatNumber(int64(cfg.Resolution.MaxCacheSize)), cacheState)
	fmt.Printf("Avg resolve:   %.0f ms (%s searches)\n", msFloat(r.average), formatNumber(r.searchCount))

	if len(r.stats.TopDomains) > 0 {
		fmt.Println()
		fmt.Println("Top Domains:")
		for _, d := range r.stats.TopDomains {
			fmt.Printf("  %-20s %s\n", d.Domain, formatNumber(d.Count))
		}
	}

	fmt.Println()
	if r.daemonRunning {
		fmt.Printf("Daemon:        running on %s\n", cfg.Addr())
	} else {
		fmt.Println("Daemon:        not running")
	}

	return nil
}

func (c *StatusCommand) printStatusJSON(r statusReport, cfg *config.Config) error {
	out := statusJSON{
		Version:           c.version,
		DatabasePath:      r.dbPath,
		DatabaseSizeBytes: r.dbSize,
		TotalPages:        r.stats.TotalPages,
		TotalVisits:       r.stats.TotalVisits,
		RetentionDays:     cfg.Retention.Days,
		TopDomains:        make([]domainCountJSON, len(r.stats.TopDomains)),
		CacheEnabled:      cfg.Resolution.UseCache,
		CacheSize:         r.cacheSize,
		MaxCacheSize:      cfg.Resolution.MaxCacheSize,
		AverageMs:         msFloat(r.average),
		SearchCount:       r.searchCount,
		DaemonAddr:        cfg.Addr(),
		DaemonRunning:     r.daemonRunning,
	}

	if r.stats.TotalVisits > 0 {
		out.OldestVisit = r.stats.OldestVisit.UTC().Format(time.RFC3339)
		out.NewestVisit = r.stats.NewestVisit.UTC().Format(time.RFC3339)
	}

	for i, d := range r.stats.TopDomains {
		out.TopDomains[i] = domainCountJSON{Domain: d.Domain, Count: d.Count}
	}

	return printJSON(out)
}

func msFloat(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// getDatabaseSize returns the database file size in bytes.
// For on-disk databases, it uses os.Stat. For in-memory databases,
// it queries page_count * page_size.
func getDatabaseSize(db *sql.DB, dbPath string) int64 {
	if info, err := os.Stat(dbPath); err == nil {
		return info.Size()
	}

	var pageCount, pageSize int64
	if err := db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0
	}
	if err := db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0
	}
	return pageCount * pageSize
}

// checkDaemon attempts an HTTP GET to the daemon status endpoint.
// Returns true if the daemon responds within 1 second.
func checkDaemon(addr string) bool {
	client := &http.Client{Timeout: 1 * time.Second}
	resp, err := client.Get("http://" + addr + "/status")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatNumber formats an int64 with comma separators.
func formatNumber(n int64) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if i > 0 {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}
