// Package diagnosticstore persists validation diagnostics to DuckDB so a
// later "report query" can inspect a prior run without re-scanning the
// source file.
package diagnosticstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for persisted validation diagnostics.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS scans (
		scan_id VARCHAR PRIMARY KEY,
		filename VARCHAR,
		file_size BIGINT,
		file_mod_time TIMESTAMP,
		record_count BIGINT,
		is_accepting BOOLEAN,
		version VARCHAR,
		scanned_at TIMESTAMP
	)`); err != nil {
		return err
	}

	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS diagnostics (
		scan_id VARCHAR,
		line_number BIGINT,
		column_number BIGINT,
		severity VARCHAR,
		section VARCHAR,
		message VARCHAR,
		PRIMARY KEY (scan_id, line_number, column_number, message)
	)`)
	return err
}
