package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for the build manifest.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates the manifest tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS builds (
  id              INTEGER PRIMARY KEY,
  entry           TEXT NOT NULL,
  output_file     TEXT NOT NULL,
  output_hash     TEXT,
  statement_count INTEGER DEFAULT 0,
  started_at      TIMESTAMP,
  finished_at     TIMESTAMP
);

CREATE TABLE IF NOT EXISTS modules (
  id              INTEGER PRIMARY KEY,
  build_id        INTEGER NOT NULL REFERENCES builds(id),
  path            TEXT NOT NULL,
  hash            TEXT,
  line_count      INTEGER,
  UNIQUE (build_id, path)
);

CREATE TABLE IF NOT EXISTS bindings (
  id              INTEGER PRIMARY KEY,
  module_id       INTEGER NOT NULL REFERENCES modules(id),
  kind            TEXT NOT NULL,
  local_name      TEXT NOT NULL,
  exported_name   TEXT NOT NULL,
  source          TEXT
);

CREATE TABLE IF NOT EXISTS statements (
  id              INTEGER PRIMARY KEY,
  module_id       INTEGER NOT NULL REFERENCES modules(id),
  ordinal         INTEGER NOT NULL,
  kind            TEXT NOT NULL,
  start_line      INTEGER,
  start_byte      INTEGER,
  end_byte        INTEGER,
  defines         TEXT,
  depends_on      TEXT,
  modifies        TEXT,
  included        BOOLEAN DEFAULT FALSE,
  output_order    INTEGER
);

CREATE INDEX IF NOT EXISTS idx_modules_build ON modules(build_id);
CREATE INDEX IF NOT EXISTS idx_bindings_module ON bindings(module_id);
CREATE INDEX IF NOT EXISTS idx_statements_module ON statements(module_id);
CREATE INDEX IF NOT EXISTS idx_statements_included ON statements(included, output_order);
`

// DeleteBuild transactionally removes a build and everything recorded for it.
// Deletes in reverse-dependency order to respect FK constraints.
func (s *Store) DeleteBuild(buildID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query("SELECT id FROM modules WHERE build_id = ?", buildID)
	if err != nil {
		return fmt.Errorf("query modules: %w", err)
	}
	var moduleIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan module id: %w", err)
		}
		moduleIDs = append(moduleIDs, id)
	}
	rows.Close()

	if len(moduleIDs) > 0 {
		placeholders := placeholderList(len(moduleIDs))
		args := int64sToArgs(moduleIDs)
		for _, q := range []string{
			"DELETE FROM statements WHERE module_id IN (" + placeholders + ")",
			"DELETE FROM bindings WHERE module_id IN (" + placeholders + ")",
		} {
			if _, err := tx.Exec(q, args...); err != nil {
				return fmt.Errorf("delete module data: %w", err)
			}
		}
	}

	for _, q := range []string{
		"DELETE FROM modules WHERE build_id = ?",
		"DELETE FROM builds WHERE id = ?",
	} {
		if _, err := tx.Exec(q, buildID); err != nil {
			return fmt.Errorf("delete build data: %w", err)
		}
	}

	return tx.Commit()
}
