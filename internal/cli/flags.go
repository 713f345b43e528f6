package cli

import "database/sql"

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// StatusCommand shows database stats, cache size and timing statistics.
type StatusCommand struct {
	globals *GlobalFlags
	version string
	probe   func(addr string) bool // injectable for testing; nil means checkDaemon
}

// SearchCommand searches the history index by substring with filters.
type SearchCommand struct {
	Since  string   `long:"since" description:"Only pages visited within duration (e.g., 7d, 24h, 2w)" default:"30d"`
	Until  string   `long:"until" description:"Only pages last visited before duration ago"`
	Domain []string `long:"domain" description:"Filter by domain (repeatable)"`
	Limit  int      `long:"limit" description:"Maximum results" default:"10"`

	globals *GlobalFlags
	version string
}

// AddCommand records a visit manually.
type AddCommand struct {
	URL    string `long:"url" description:"URL to record (required)"`
	Title  string `long:"title" description:"Page title"`
	At     string `long:"at" description:"Visit time in RFC 3339 (default now)"`
	Source string `long:"source" description:"Source label" default:"manual"`

	globals *GlobalFlags
	version string
}

// ResolveCommand resolves the visit state of one or more URLs.
type ResolveCommand struct {
	Inherit   bool `long:"inherit" description:"Let visits to longer URLs count for their prefix"`
	UseCache  bool `long:"use-cache" description:"Cache lookups within this run only; the cache starts empty, so only repeated URLs hit it (the daemon keeps a long-lived cache)"`
	URLsLimit int  `long:"urls-limit" description:"Largest batch resolved URL by URL (default from config)"`

	globals *GlobalFlags
	version string
}

// ServeCommand runs the local daemon.
type ServeCommand struct {
	Host     string `long:"host" description:"Override daemon host"`
	Port     int    `long:"port" description:"Override daemon port"`
	LogLevel string `long:"log-level" description:"Override log level"`

	globals *GlobalFlags
	version string
}

// PruneCommand removes visits older than the retention window.
type PruneCommand struct {
	OlderThan string `long:"older-than" description:"Override retention period (e.g., 30d)"`
	DryRun    bool   `long:"dry-run" description:"Show what would be pruned without deleting"`

	globals *GlobalFlags
	version string
}

// PurgeCommand deletes all history and statistics after confirmation.
type PurgeCommand struct {
	All   bool `long:"all" description:"Required flag to confirm purge intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
	db      *sql.DB // injectable for testing; nil means open the configured DB
}
