package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/xid"
)

// Store defines the interface for history index operations.
type Store interface {
	AddVisit(ctx context.Context, visit *Visit) error
	GetVisits(ctx context.Context, url string) ([]Visit, error)
	GetPage(ctx context.Context, url string) (*HistoryItem, error)
	SearchHistory(ctx context.Context, query SearchQuery) ([]HistoryItem, error)
	PruneExpired(ctx context.Context, olderThan time.Time) (int64, error)
	CountExpired(ctx context.Context, olderThan time.Time) (int64, error)
	PurgeAll(ctx context.Context) error
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	// Prepared statements
	insertVisit *sql.Stmt
	upsertPage  *sql.Stmt
	getVisits   *sql.Stmt
	getPage     *sql.Stmt
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertVisit, err = s.db.Prepare(`
		INSERT INTO visits (id, url, visit_time, source)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.upsertPage, err = s.db.Prepare(`
		INSERT INTO pages (url, title, domain, last_visit_time, visit_count)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT(url) DO UPDATE SET
			title = CASE WHEN excluded.title != '' THEN excluded.title ELSE pages.title END,
			last_visit_time = MAX(pages.last_visit_time, excluded.last_visit_time),
			visit_count = pages.visit_count + 1
	`)
	if err != nil {
		return err
	}

	s.getVisits, err = s.db.Prepare(`
		SELECT id, url, visit_time, source
		FROM visits WHERE url = ?
		ORDER BY visit_time DESC, rowid DESC
	`)
	if err != nil {
		return err
	}

	s.getPage, err = s.db.Prepare(`
		SELECT url, title, domain, last_visit_time, visit_count
		FROM pages WHERE url = ?
	`)
	if err != nil {
		return err
	}

	return nil
}

// toMillis converts a time to Unix milliseconds; the zero time maps to 0.
func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// fromMillis is the inverse of toMillis.
func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// extractDomain pulls the hostname from a URL string.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// AddVisit records a visit and updates the aggregate page entry in a single
// transaction. The visit's ID is generated; a zero VisitTime becomes now.
func (s *SQLiteStore) AddVisit(ctx context.Context, visit *Visit) error {
	if visit.URL == "" {
		return fmt.Errorf("visit URL is required")
	}
	if visit.VisitTime.IsZero() {
		visit.VisitTime = time.Now()
	}
	if visit.Source == "" {
		visit.Source = "extension"
	}
	visit.ID = xid.New().String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ms := toMillis(visit.VisitTime)
	if _, err := tx.StmtContext(ctx, s.upsertPage).ExecContext(ctx,
		visit.URL, visit.Title, extractDomain(visit.URL), ms,
	); err != nil {
		return fmt.Errorf("upsert page: %w", err)
	}

	if _, err := tx.StmtContext(ctx, s.insertVisit).ExecContext(ctx,
		visit.ID, visit.URL, ms, visit.Source,
	); err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}

	return tx.Commit()
}

// GetVisits returns every visit to exactly url, most recent first. A URL
// that was never visited yields an empty slice.
func (s *SQLiteStore) GetVisits(ctx context.Context, url string) ([]Visit, error) {
	rows, err := s.getVisits.QueryContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("query visits: %w", err)
	}
	defer rows.Close()

	visits := []Visit{}
	for rows.Next() {
		var v Visit
		var ms int64
		if err := rows.Scan(&v.ID, &v.URL, &ms, &v.Source); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		v.VisitTime = fromMillis(ms)
		visits = append(visits, v)
	}

	return visits, rows.Err()
}

// GetPage returns the aggregate history entry for url.
func (s *SQLiteStore) GetPage(ctx context.Context, url string) (*HistoryItem, error) {
	var item HistoryItem
	var ms int64
	err := s.getPage.QueryRowContext(ctx, url).Scan(
		&item.URL, &item.Title, &item.Domain, &ms, &item.VisitCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("page %s: %w", url, ErrNotFound)
		}
		return nil, fmt.Errorf("get page: %w", err)
	}
	item.LastVisitTime = fromMillis(ms)
	return &item, nil
}

// escapeLike escapes LIKE wildcards so text is matched literally.
func escapeLike(text string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(text)
}

// SearchHistory returns pages whose URL or title contains q.Text (case
// insensitive), most recently visited first, capped at q.Limit. An empty
// Text matches every page, which makes it a listing of the N most recent
// history entries.
func (s *SQLiteStore) SearchHistory(ctx context.Context, q SearchQuery) ([]HistoryItem, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}

	var clauses []string
	var args []interface{}

	if q.Text != "" {
		pattern := "%" + escapeLike(q.Text) + "%"
		clauses = append(clauses, `(url LIKE ? ESCAPE '\' OR title LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if q.Domain != "" {
		clauses = append(clauses, "domain = ?")
		args = append(args, q.Domain)
	}
	if !q.Since.IsZero() {
		clauses = append(clauses, "last_visit_time >= ?")
		args = append(args, toMillis(q.Since))
	}
	if !q.Until.IsZero() {
		clauses = append(clauses, "last_visit_time <= ?")
		args = append(args, toMillis(q.Until))
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	query := `
		SELECT url, title, domain, last_visit_time, visit_count
		FROM pages` + where + " ORDER BY last_visit_time DESC, url ASC LIMIT ?"
	args = append(args, q.Limit)

	return s.scanItems(ctx, query, args...)
}

// scanItems executes a query and scans results into HistoryItem slices.
func (s *SQLiteStore) scanItems(ctx context.Context, query string, args ...interface{}) ([]HistoryItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	items := []HistoryItem{}
	for rows.Next() {
		var item HistoryItem
		var ms int64
		if err := rows.Scan(&item.URL, &item.Title, &item.Domain, &ms, &item.VisitCount); err != nil {
			return nil, fmt.Errorf("scan history item: %w", err)
		}
		item.LastVisitTime = fromMillis(ms)
		items = append(items, item)
	}

	return items, rows.Err()
}

// CountExpired reports how many visits PruneExpired would delete.
func (s *SQLiteStore) CountExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM visits WHERE visit_time < ?", toMillis(olderThan),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count expired visits: %w", err)
	}
	return n, nil
}

// PruneExpired deletes visits before olderThan and recomputes the page
// aggregates. Pages left without visits are removed.
func (s *SQLiteStore) PruneExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, "DELETE FROM visits WHERE visit_time < ?", toMillis(olderThan))
	if err != nil {
		return 0, fmt.Errorf("prune visits: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	stmts := []string{
		`DELETE FROM pages WHERE url NOT IN (SELECT DISTINCT url FROM visits)`,
		`UPDATE pages SET
			visit_count = (SELECT COUNT(*) FROM visits v WHERE v.url = pages.url),
			last_visit_time = (SELECT MAX(visit_time) FROM visits v WHERE v.url = pages.url)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return 0, fmt.Errorf("recompute pages: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}
	return n, nil
}

// PurgeAll deletes all pages, visits, and stored settings.
func (s *SQLiteStore) PurgeAll(ctx context.Context) error {
	stmts := []string{
		"DELETE FROM visits",
		"DELETE FROM pages",
		"DELETE FROM settings",
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("purge (%s): %w", stmt, err)
		}
	}
	return nil
}

// GetStats returns aggregate statistics about the database.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pages").Scan(&stats.TotalPages)
	if err != nil {
		return nil, fmt.Errorf("count pages: %w", err)
	}

	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM visits").Scan(&stats.TotalVisits)
	if err != nil {
		return nil, fmt.Errorf("count visits: %w", err)
	}

	// Oldest and newest (handle empty DB)
	if stats.TotalVisits > 0 {
		var oldest, newest int64
		err = s.db.QueryRowContext(ctx, "SELECT MIN(visit_time), MAX(visit_time) FROM visits").Scan(&oldest, &newest)
		if err != nil {
			return nil, fmt.Errorf("visit time range: %w", err)
		}
		stats.OldestVisit = fromMillis(oldest)
		stats.NewestVisit = fromMillis(newest)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.domain, COUNT(*) AS cnt
		FROM visits v JOIN pages p ON p.url = v.url
		GROUP BY p.domain ORDER BY cnt DESC, p.domain ASC LIMIT 10
	`)
	if err != nil {
		return nil, fmt.Errorf("top domains: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dc DomainCount
		if err := rows.Scan(&dc.Domain, &dc.Count); err != nil {
			return nil, err
		}
		stats.TopDomains = append(stats.TopDomains, dc)
	}

	return stats, rows.Err()
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{
		s.insertVisit, s.upsertPage, s.getVisits, s.getPage,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
