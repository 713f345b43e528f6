package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Resolution: ResolutionConfig{
			UseCache:         false,
			URLsLimit:        100,
			MaxCacheSize:     1000,
			SampleSize:       10000,
			SearchLimit:      50,
			DefaultAverageMs: 1000,
		},
		Storage: StorageConfig{
			Path:              "~/.config/visited",
			SQLiteFile:        "history.db",
			SQLiteJournalMode: "wal",
		},
		Daemon: DaemonConfig{
			Host:           "127.0.0.1",
			Port:           8721,
			MaxRequestSize: 4 * 1024 * 1024,
			WatchConfig:    true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			File:    "",
			Console: true,
		},
		Retention: RetentionConfig{
			Days:          90,
			PruneSchedule: "@daily",
		},
		Filters: FiltersConfig{
			Domains: map[string]DomainRule{
				GlobalKey: {},
			},
		},
	}
}
