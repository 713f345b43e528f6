package cli

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	goflags "github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/visited/internal/config"
	"github.com/runnerr0/visited/internal/storage"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// openTestStore creates a migrated in-memory store.
func openTestStore(t *testing.T) (*storage.SQLiteStore, *sql.DB) {
	t.Helper()
	store, db, err := storage.Open(context.Background(), ":memory:", "memory")
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
		db.Close()
	})
	return store, db
}

func seedVisit(t *testing.T, store *storage.SQLiteStore, url, title string, at time.Time) {
	t.Helper()
	require.NoError(t, store.AddVisit(context.Background(), &storage.Visit{
		URL:       url,
		Title:     title,
		VisitTime: at,
	}))
}

// parseOnly parses args without executing the selected command.
func parseOnly(t *testing.T, args ...string) (*GlobalFlags, *commands, error) {
	t.Helper()
	parser, globals, cmds := buildParser("test")
	parser.CommandHandler = func(goflags.Commander, []string) error { return nil }
	_, err := parser.ParseArgs(args)
	return globals, cmds, err
}

// writeTestConfig writes a config whose database lives in a temp dir and
// returns its path.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := fmt.Sprintf("storage:\n  path: %s\n  sqlite_file: test.db\nlogging:\n  console: false\n", dir)
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Storage.SQLiteFile = ":memory:"
	return cfg
}
