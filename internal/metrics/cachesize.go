package metrics

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/runnerr0/visited/internal/history"
	"github.com/runnerr0/visited/internal/storage"
)

const persistTimeout = 2 * time.Second

// SettingsWriter persists integer settings.
type SettingsWriter interface {
	SetInts(ctx context.Context, values map[string]int64) error
}

// CacheSizeSink publishes the visit cache size to the gauge and persists it
// under storage.KeyCacheSize so the CLI can report it while the daemon runs.
type CacheSizeSink struct {
	metrics *Metrics
	store   SettingsWriter
	log     zerolog.Logger
}

// NewCacheSizeSink creates a sink. Either metrics or store may be nil.
func NewCacheSizeSink(m *Metrics, store SettingsWriter, log zerolog.Logger) *CacheSizeSink {
	return &CacheSizeSink{
		metrics: m,
		store:   store,
		log:     log.With().Str("component", "cache_size").Logger(),
	}
}

// ReportCacheSize implements history.SizeReporter.
func (s *CacheSizeSink) ReportCacheSize(n int) {
	if s.metrics != nil {
		s.metrics.SetCacheSize(n)
	}
	if s.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.store.SetInts(ctx, map[string]int64{storage.KeyCacheSize: int64(n)}); err != nil {
		s.log.Error().Err(err).Int("size", n).Msg("cache size can not be saved")
	}
}

var _ history.SizeReporter = (*CacheSizeSink)(nil)
