package cli

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/visited/internal/storage"
)

func seededPurge(t *testing.T) (*PurgeCommand, *storage.SQLiteStore) {
	t.Helper()
	store, db := openTestStore(t)
	seedVisit(t, store, "https://example.com", "Test", time.Now())
	require.NoError(t, store.SetInts(context.Background(), map[string]int64{storage.KeySearchCount: 5}))

	cmd := &PurgeCommand{All: true, globals: &GlobalFlags{}}
	cmd.setDB(db)
	return cmd, store
}

func TestPurge_WithoutAllFlag_Errors(t *testing.T) {
	cmd := &PurgeCommand{globals: &GlobalFlags{}}
	err := cmd.execute(strings.NewReader("PURGE\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "purge requires --all flag for safety")
}

func TestPurge_WithAllAndForce_Succeeds(t *testing.T) {
	cmd, store := seededPurge(t)
	cmd.Force = true

	output := captureOutput(t, func() {
		require.NoError(t, cmd.execute(strings.NewReader("")))
	})

	assert.Contains(t, output, "Purged all data")
	stats, err := store.GetStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalPages)
	assert.Zero(t, stats.TotalVisits)

	n, err := store.GetInt(context.Background(), storage.KeySearchCount)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPurge_ConfirmationAccepted(t *testing.T) {
	cmd, store := seededPurge(t)

	output := captureOutput(t, func() {
		require.NoError(t, cmd.execute(strings.NewReader("PURGE\n")))
	})

	assert.Contains(t, output, `Type "PURGE" to confirm`)
	stats, err := store.GetStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalVisits)
}

func TestPurge_ConfirmationRejected(t *testing.T) {
	cmd, store := seededPurge(t)

	var err error
	captureOutput(t, func() {
		err = cmd.execute(strings.NewReader("purge\n"))
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not match")

	stats, err := store.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalVisits)
}

func TestPurge_NoInput(t *testing.T) {
	cmd, _ := seededPurge(t)

	var err error
	captureOutput(t, func() {
		err = cmd.execute(strings.NewReader(""))
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no input received")
}

func TestPurge_JSONOutput(t *testing.T) {
	cmd, _ := seededPurge(t)
	cmd.Force = true
	cmd.globals.JSON = true

	output := captureOutput(t, func() {
		require.NoError(t, cmd.execute(strings.NewReader("")))
	})

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &out))
	assert.Equal(t, true, out["purged"])
}
