package store

import "fmt"

// currentSchemaVersion is the latest schema version.
const currentSchemaVersion = 1

// Migrate runs forward migrations to bring the database schema up to date.
func (db *DB) Migrate() error {
	// Create the schema_version table if it does not exist.
	if _, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	version := 0
	row := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1")
	if err := row.Scan(&version); err != nil {
		// No rows means version 0 (fresh database).
		version = 0
	}

	if version < 1 {
		if err := db.migrateV1(); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return nil
}

// migrateV1 creates all initial tables and indexes.
func (db *DB) migrateV1() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			trace_id          TEXT NOT NULL,
			name              TEXT NOT NULL,
			url               TEXT,
			adapter_type      TEXT NOT NULL,
			platform          TEXT,
			saved_at          TEXT NOT NULL,
			duration_ms       REAL NOT NULL,
			total_frames      INTEGER NOT NULL,
			dropped_frames    INTEGER NOT NULL,
			avg_fps           REAL NOT NULL,
			p95_frame_time_ms REAL NOT NULL,
			max_frame_time_ms REAL NOT NULL,
			frame_budget_ms   REAL NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS detections (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id              INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			type                TEXT NOT NULL,
			severity            TEXT NOT NULL,
			confidence          TEXT NOT NULL,
			description         TEXT NOT NULL,
			impact_score        REAL NOT NULL,
			duration_ms         REAL NOT NULL,
			occurrences         INTEGER NOT NULL,
			frame_budget_impact REAL NOT NULL,
			speedup_pct         REAL NOT NULL,
			fix_priority        INTEGER NOT NULL,
			location_selector   TEXT,
			location_file       TEXT,
			location_line       INTEGER,
			payload             TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS warnings (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id  INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			code    TEXT NOT NULL,
			message TEXT NOT NULL
		)`,

		// Indexes.
		`CREATE INDEX IF NOT EXISTS idx_runs_trace ON runs(trace_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_name ON runs(name)`,
		`CREATE INDEX IF NOT EXISTS idx_detections_run ON detections(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_detections_type ON detections(type)`,
		`CREATE INDEX IF NOT EXISTS idx_warnings_run ON warnings(run_id)`,
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}

	// Set schema version.
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
		return err
	}

	return tx.Commit()
}
