// Package duckdb exports normalized transcript alignments into DuckDB.
// Exon alignments and transcript summaries are appended in bulk and can be
// queried back with plain SQL or the lookup helpers here.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding exported alignments.
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
			return nil, fmt.Errorf("create export directory: %w", err)
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

// Path returns the database file path, or "" for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tx_exons (
		tx_ac VARCHAR,
		alt_ac VARCHAR,
		alt_aln_method VARCHAR,
		alt_strand INTEGER,
		ord INTEGER,
		tx_start_i BIGINT,
		tx_end_i BIGINT,
		alt_start_i BIGINT,
		alt_end_i BIGINT,
		cigar VARCHAR,
		PRIMARY KEY (tx_ac, alt_ac, alt_aln_method, ord)
	)`,
		`CREATE TABLE IF NOT EXISTS tx_info (
		tx_ac VARCHAR,
		alt_ac VARCHAR,
		alt_aln_method VARCHAR,
		hgnc VARCHAR,
		cds_start_i BIGINT,
		cds_end_i BIGINT,
		PRIMARY KEY (tx_ac, alt_ac, alt_aln_method)
	)`,
		`CREATE TABLE IF NOT EXISTS export_metadata (
		key VARCHAR PRIMARY KEY,
		value VARCHAR
	)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
