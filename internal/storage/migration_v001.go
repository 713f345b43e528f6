package storage

import "database/sql"

// migrateV001 creates the initial history schema: pages, their individual
// visits, and the settings key/value table. Every statement uses
// IF NOT EXISTS for idempotency.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		// ── Tables ──────────────────────────────────────────────

		`CREATE TABLE IF NOT EXISTS pages (
			url             TEXT PRIMARY KEY,
			title           TEXT NOT NULL DEFAULT '',
			domain          TEXT NOT NULL DEFAULT '',
			last_visit_time INTEGER NOT NULL DEFAULT 0,
			visit_count     INTEGER NOT NULL DEFAULT 0,
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS visits (
			id         TEXT PRIMARY KEY,
			url        TEXT NOT NULL REFERENCES pages(url) ON DELETE CASCADE,
			visit_time INTEGER NOT NULL,
			source     TEXT NOT NULL DEFAULT 'extension'
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// ── Indexes ────────────────────────────────────────────

		`CREATE INDEX IF NOT EXISTS idx_pages_last_visit ON pages(last_visit_time)`,
		`CREATE INDEX IF NOT EXISTS idx_pages_domain     ON pages(domain)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_url_time  ON visits(url, visit_time)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_time      ON visits(visit_time)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
