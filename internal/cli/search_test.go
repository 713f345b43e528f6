package cli

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/visited/internal/storage"
)

func seedSearchPages(t *testing.T, store *storage.SQLiteStore) {
	t.Helper()
	now := time.Now()

	pages := []struct {
		url, title string
		at         time.Time
	}{
		{"https://lancedb.github.io/lancedb/basic/", "LanceDB Getting Started", now.Add(-1 * time.Hour)},
		{"https://blog.example.com/chromadb-vs-lancedb", "ChromaDB vs LanceDB", now.Add(-48 * time.Hour)},
		{"https://github.com/golang/go", "Go Programming Language", now.Add(-2 * time.Hour)},
		{"https://news.ycombinator.com/", "Hacker News", now.Add(-72 * time.Hour)},
		{"https://docs.python.org/3/", "Python 3 Docs", now.Add(-96 * time.Hour)},
	}

	for _, p := range pages {
		seedVisit(t, store, p.url, p.title, p.at)
	}
}

// --- parseDuration tests ---

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"7d", 7 * 24 * time.Hour},
		{"24h", 24 * time.Hour},
		{"30d", 30 * 24 * time.Hour},
		{"2w", 14 * 24 * time.Hour},
		{"15m", 15 * time.Minute},
	}
	for _, tt := range tests {
		d, err := parseDuration(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, d, tt.in)
	}
}

func TestParseDuration_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "d", "5y", "-3d"} {
		_, err := parseDuration(in)
		assert.Error(t, err, in)
	}
}

func TestFormatDurationHuman(t *testing.T) {
	assert.Equal(t, "30 days", formatDurationHuman(30*24*time.Hour))
	assert.Equal(t, "1 day", formatDurationHuman(24*time.Hour))
	assert.Equal(t, "5 hours", formatDurationHuman(5*time.Hour))
	assert.Equal(t, "1 hour", formatDurationHuman(time.Hour))
	assert.Equal(t, "10m0s", formatDurationHuman(10*time.Minute))
}

// --- Search integration tests ---

func TestSearch_WithResults(t *testing.T) {
	store, _ := openTestStore(t)
	seedSearchPages(t, store)

	cmd := &SearchCommand{Since: "30d", Limit: 10, globals: &GlobalFlags{}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, []string{"LanceDB"}))
	})

	assert.Contains(t, output, "Found 2 results")
	assert.Contains(t, output, "LanceDB Getting Started")
	assert.Contains(t, output, "lancedb.github.io")
	assert.NotContains(t, output, "Hacker News")
}

func TestSearch_MatchesURLSubstring(t *testing.T) {
	store, _ := openTestStore(t)
	seedSearchPages(t, store)

	cmd := &SearchCommand{Since: "30d", Limit: 10, globals: &GlobalFlags{}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, []string{"ycombinator"}))
	})

	assert.Contains(t, output, "Found 1 result ")
	assert.Contains(t, output, "Hacker News")
}

func TestSearch_NoResults(t *testing.T) {
	store, _ := openTestStore(t)
	seedSearchPages(t, store)

	cmd := &SearchCommand{Since: "30d", Limit: 10, globals: &GlobalFlags{}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, []string{"nonexistentterm12345"}))
	})

	assert.Contains(t, output, "No results found")
}

func TestSearch_DomainFilter(t *testing.T) {
	store, _ := openTestStore(t)
	seedSearchPages(t, store)

	cmd := &SearchCommand{Since: "30d", Domain: []string{"github.com"}, Limit: 10, globals: &GlobalFlags{}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, nil))
	})

	assert.Contains(t, output, "github.com/golang/go")
	assert.NotContains(t, output, "lancedb.github.io")
}

func TestSearch_MultipleDomainsMergedNewestFirst(t *testing.T) {
	store, _ := openTestStore(t)
	seedSearchPages(t, store)

	cmd := &SearchCommand{
		Since:   "30d",
		Domain:  []string{"news.ycombinator.com", "github.com"},
		Limit:   10,
		globals: &GlobalFlags{},
	}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, nil))
	})

	goIdx := strings.Index(output, "Go Programming Language")
	hnIdx := strings.Index(output, "Hacker News")
	require.NotEqual(t, -1, goIdx)
	require.NotEqual(t, -1, hnIdx)
	assert.Less(t, goIdx, hnIdx)
}

func TestSearch_TimeRange_3Hours(t *testing.T) {
	store, _ := openTestStore(t)
	seedSearchPages(t, store)

	cmd := &SearchCommand{Since: "3h", Limit: 10, globals: &GlobalFlags{}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, nil))
	})

	assert.Contains(t, output, "LanceDB Getting Started")
	assert.Contains(t, output, "Go Programming Language")
	assert.NotContains(t, output, "Hacker News")
	assert.NotContains(t, output, "Python 3 Docs")
}

func TestSearch_Until(t *testing.T) {
	store, _ := openTestStore(t)
	seedSearchPages(t, store)

	cmd := &SearchCommand{Since: "30d", Until: "50h", Limit: 10, globals: &GlobalFlags{}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, nil))
	})

	assert.Contains(t, output, "Hacker News")
	assert.NotContains(t, output, "LanceDB Getting Started")
	assert.NotContains(t, output, "ChromaDB vs LanceDB")
}

func TestSearch_InvalidSince(t *testing.T) {
	store, _ := openTestStore(t)
	cmd := &SearchCommand{Since: "soon", Limit: 10, globals: &GlobalFlags{}}

	err := cmd.executeWithStore(store, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --since")
}

func TestSearch_JSONOutput(t *testing.T) {
	store, _ := openTestStore(t)
	seedSearchPages(t, store)

	cmd := &SearchCommand{Since: "30d", Limit: 10, globals: &GlobalFlags{JSON: true}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, []string{"LanceDB"}))
	})

	var out jsonSearchOutput
	require.NoError(t, json.Unmarshal([]byte(output), &out))
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, "LanceDB", out.Query)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "https://lancedb.github.io/lancedb/basic/", out.Results[0].URL)
	assert.Equal(t, int64(1), out.Results[0].VisitCount)
}

func TestSearch_Limit(t *testing.T) {
	store, _ := openTestStore(t)
	seedSearchPages(t, store)

	cmd := &SearchCommand{Since: "30d", Limit: 2, globals: &GlobalFlags{}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, nil))
	})

	resultCount := 0
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) > 2 && trimmed[0] >= '1' && trimmed[0] <= '9' && trimmed[1] == '.' {
			resultCount++
		}
	}
	assert.Equal(t, 2, resultCount, "should show exactly 2 results with limit=2")
}
