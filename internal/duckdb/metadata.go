package duckdb

import (
	"fmt"
	"strings"
	"time"
)

// ExportInfo records where and when an export was produced.
type ExportInfo struct {
	BaseURL     string    `json:"base_url"`
	DataVersion string    `json:"data_version"`
	Assemblies  []string  `json:"assemblies"`
	ExportedAt  time.Time `json:"exported_at"`
}

// Summary describes the contents of an export database.
type Summary struct {
	Path    string      `json:"path"`
	TxInfo  int64       `json:"tx_info"`
	TxExons int64       `json:"tx_exons"`
	Export  *ExportInfo `json:"export,omitempty"`
}

// WriteExportInfo replaces the stored export metadata.
func (s *Store) WriteExportInfo(info ExportInfo) error {
	entries := []struct{ key, val string }{
		{"base_url", info.BaseURL},
		{"data_version", info.DataVersion},
		{"assemblies", strings.Join(info.Assemblies, ",")},
		{"exported_at", info.ExportedAt.UTC().Format(time.RFC3339)},
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin metadata write: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM export_metadata"); err != nil {
		return fmt.Errorf("clear metadata: %w", err)
	}
	for _, e := range entries {
		if _, err := tx.Exec("INSERT INTO export_metadata VALUES (?, ?)", e.key, e.val); err != nil {
			return fmt.Errorf("write metadata %s: %w", e.key, err)
		}
	}
	return tx.Commit()
}

// ReadExportInfo returns the stored export metadata. The bool is false when
// nothing has been exported yet.
func (s *Store) ReadExportInfo() (ExportInfo, bool, error) {
	rows, err := s.db.Query("SELECT key, value FROM export_metadata")
	if err != nil {
		return ExportInfo{}, false, fmt.Errorf("query metadata: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return ExportInfo{}, false, fmt.Errorf("scan metadata: %w", err)
		}
		meta[k] = v
	}
	if err := rows.Err(); err != nil {
		return ExportInfo{}, false, fmt.Errorf("iterate metadata: %w", err)
	}
	if len(meta) == 0 {
		return ExportInfo{}, false, nil
	}

	info := ExportInfo{
		BaseURL:     meta["base_url"],
		DataVersion: meta["data_version"],
	}
	if a := meta["assemblies"]; a != "" {
		info.Assemblies = strings.Split(a, ",")
	}
	if ts := meta["exported_at"]; ts != "" {
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return ExportInfo{}, false, fmt.Errorf("parse exported_at: %w", err)
		}
		info.ExportedAt = t
	}
	return info, true, nil
}

// Summary reports row counts and the last export's metadata.
func (s *Store) Summary() (Summary, error) {
	exons, infos, err := s.Counts()
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{Path: s.Path(), TxInfo: infos, TxExons: exons}

	info, ok, err := s.ReadExportInfo()
	if err != nil {
		return Summary{}, err
	}
	if ok {
		sum.Export = &info
	}
	return sum, nil
}
