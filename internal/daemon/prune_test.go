package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/visited/internal/config"
)

func TestPruneRemovesExpiredVisits(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	srv, store := newTestServer(t, func(c *config.Config) { c.Retention.Days = 30 })
	srv.now = func() time.Time { return now }

	seedVisit(t, store, "https://old.example/", now.Add(-60*24*time.Hour).UnixMilli())
	seedVisit(t, store, "https://new.example/", now.Add(-time.Hour).UnixMilli())

	n, err := srv.Prune(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	visits, err := store.GetVisits(context.Background(), "https://old.example/")
	require.NoError(t, err)
	assert.Empty(t, visits)
	visits, err = store.GetVisits(context.Background(), "https://new.example/")
	require.NoError(t, err)
	assert.Len(t, visits, 1)
}

func TestPruneZeroRetentionKeepsEverything(t *testing.T) {
	srv, store := newTestServer(t, func(c *config.Config) { c.Retention.Days = 0 })
	seedVisit(t, store, "https://old.example/", 1)

	n, err := srv.Prune(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	visits, err := store.GetVisits(context.Background(), "https://old.example/")
	require.NoError(t, err)
	assert.Len(t, visits, 1)
}

func TestSchedulePruning(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	c, err := srv.schedulePruning("@daily")
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)

	_, err = srv.schedulePruning("every tuesday")
	assert.Error(t, err)
}
