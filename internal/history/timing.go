package history

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/runnerr0/visited/internal/storage"
)

// DefaultAverage is reported before any resolution has been timed.
const DefaultAverage = time.Second

// StatsStore persists integer statistics.
type StatsStore interface {
	GetInt(ctx context.Context, key string) (int64, error)
	SetInts(ctx context.Context, values map[string]int64) error
}

// TimingRecorder keeps a running total of resolution time and a call count
// in a StatsStore, from which it derives the average used to estimate wait
// times. Persistence failures are logged, never returned.
type TimingRecorder struct {
	// mu serializes the read-modify-write of the totals within a process.
	mu             sync.Mutex
	store          StatsStore
	log            zerolog.Logger
	defaultAverage time.Duration
}

// NewTimingRecorder creates a recorder. A non-positive defaultAverage
// falls back to DefaultAverage.
func NewTimingRecorder(store StatsStore, defaultAverage time.Duration, log zerolog.Logger) *TimingRecorder {
	if defaultAverage <= 0 {
		defaultAverage = DefaultAverage
	}
	return &TimingRecorder{
		store:          store,
		log:            log.With().Str("component", "timing").Logger(),
		defaultAverage: defaultAverage,
	}
}

// RecordDuration adds d to the running total and increments the count.
func (t *TimingRecorder) RecordDuration(ctx context.Context, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	total, count, err := t.load(ctx)
	if err != nil {
		t.log.Error().Err(err).Msg("search statistics can not be read")
		return
	}

	err = t.store.SetInts(ctx, map[string]int64{
		storage.KeyTotalSearchTime: total + d.Milliseconds(),
		storage.KeySearchCount:     count + 1,
	})
	if err != nil {
		t.log.Error().Err(err).Msg("search statistics can not be saved")
	}
}

// Average returns total/count, or the default when nothing was recorded
// or the statistics cannot be read.
func (t *TimingRecorder) Average(ctx context.Context) time.Duration {
	total, count, err := t.load(ctx)
	if err != nil {
		t.log.Error().Err(err).Msg("search statistics can not be read")
		return t.defaultAverage
	}
	if count == 0 {
		return t.defaultAverage
	}
	return time.Duration(float64(total) / float64(count) * float64(time.Millisecond))
}

// Count returns how many resolutions have been recorded.
func (t *TimingRecorder) Count(ctx context.Context) int64 {
	_, count, err := t.load(ctx)
	if err != nil {
		t.log.Error().Err(err).Msg("search statistics can not be read")
		return 0
	}
	return count
}

// Reset zeroes the total and the count.
func (t *TimingRecorder) Reset(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	err := t.store.SetInts(ctx, map[string]int64{
		storage.KeyTotalSearchTime: 0,
		storage.KeySearchCount:     0,
	})
	if err != nil {
		t.log.Error().Err(err).Msg("search statistics can not be reset")
	}
}

func (t *TimingRecorder) load(ctx context.Context) (total, count int64, err error) {
	total, err = t.store.GetInt(ctx, storage.KeyTotalSearchTime)
	if err != nil {
		return 0, 0, err
	}
	count, err = t.store.GetInt(ctx, storage.KeySearchCount)
	if err != nil {
		return 0, 0, err
	}
	return total, count, nil
}
