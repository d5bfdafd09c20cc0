package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-tark/internal/provider"
)

// exonKey is the composite key for deduplicating exon rows before writing.
type exonKey struct {
	txAc, altAc, method string
	ord                 int
}

// infoKey is the composite key for deduplicating tx_info rows before writing.
type infoKey struct {
	txAc, altAc, method string
}

// appendRows opens an Appender on table and appends n rows built by row.
func (s *Store) appendRows(table string, n int, row func(i int) []driver.Value) error {
	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for i := range n {
		if err := appender.AppendRow(row(i)...); err != nil {
			return fmt.Errorf("append %s row: %w", table, err)
		}
	}

	return appender.Flush()
}

// WriteTxExons batch-inserts exon alignments using the Appender API.
// Rows already present in the batch or in the table are skipped.
func (s *Store) WriteTxExons(exons []provider.TxExon) error {
	if len(exons) == 0 {
		return nil
	}

	existing, err := s.exonKeys()
	if err != nil {
		return err
	}
	deduped := make([]provider.TxExon, 0, len(exons))
	for _, e := range exons {
		k := exonKey{e.TxAc, e.AltAc, e.AltAlnMethod, e.Ord}
		if !existing[k] {
			existing[k] = true
			deduped = append(deduped, e)
		}
	}

	return s.appendRows("tx_exons", len(deduped), func(i int) []driver.Value {
		e := deduped[i]
		return []driver.Value{
			e.TxAc, e.AltAc, e.AltAlnMethod, int32(e.AltStrand), int32(e.Ord),
			e.TxStartI, e.TxEndI, e.AltStartI, e.AltEndI, e.Cigar,
		}
	})
}

// WriteTxInfo batch-inserts transcript summaries. Unknown CDS bounds are stored as NULL.
func (s *Store) WriteTxInfo(infos []*provider.TxInfo) error {
	if len(infos) == 0 {
		return nil
	}

	existing, err := s.infoKeys()
	if err != nil {
		return err
	}
	deduped := make([]*provider.TxInfo, 0, len(infos))
	for _, info := range infos {
		k := infoKey{info.TxAc, info.AltAc, info.AltAlnMethod}
		if !existing[k] {
			existing[k] = true
			deduped = append(deduped, info)
		}
	}

	return s.appendRows("tx_info", len(deduped), func(i int) []driver.Value {
		info := deduped[i]
		return []driver.Value{
			info.TxAc, info.AltAc, info.AltAlnMethod, info.HGNC,
			nullable(info.CDSStartI), nullable(info.CDSEndI),
		}
	})
}

func nullable(v *int64) driver.Value {
	if v == nil {
		return nil
	}
	return *v
}

func (s *Store) exonKeys() (map[exonKey]bool, error) {
	rows, err := s.db.Query(`SELECT tx_ac, alt_ac, alt_aln_method, ord FROM tx_exons`)
	if err != nil {
		return nil, fmt.Errorf("query exon keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[exonKey]bool)
	for rows.Next() {
		var k exonKey
		if err := rows.Scan(&k.txAc, &k.altAc, &k.method, &k.ord); err != nil {
			return nil, fmt.Errorf("scan exon key: %w", err)
		}
		keys[k] = true
	}
	return keys, rows.Err()
}

func (s *Store) infoKeys() (map[infoKey]bool, error) {
	rows, err := s.db.Query(`SELECT tx_ac, alt_ac, alt_aln_method FROM tx_info`)
	if err != nil {
		return nil, fmt.Errorf("query tx_info keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[infoKey]bool)
	for rows.Next() {
		var k infoKey
		if err := rows.Scan(&k.txAc, &k.altAc, &k.method); err != nil {
			return nil, fmt.Errorf("scan tx_info key: %w", err)
		}
		keys[k] = true
	}
	return keys, rows.Err()
}

// LookupTxExons returns the exported exons of a transcript on a contig, ordered by
// transcript position.
func (s *Store) LookupTxExons(txAc, altAc, altAlnMethod string) ([]provider.TxExon, error) {
	rows, err := s.db.Query(`SELECT
		tx_ac, alt_ac, alt_strand, alt_aln_method, ord,
		tx_start_i, tx_end_i, alt_start_i, alt_end_i, cigar
		FROM tx_exons
		WHERE tx_ac=? AND alt_ac=? AND alt_aln_method=?
		ORDER BY tx_start_i`,
		txAc, altAc, altAlnMethod)
	if err != nil {
		return nil, fmt.Errorf("query tx_exons: %w", err)
	}
	defer rows.Close()

	var exons []provider.TxExon
	for rows.Next() {
		var e provider.TxExon
		if err := rows.Scan(
			&e.TxAc, &e.AltAc, &e.AltStrand, &e.AltAlnMethod, &e.Ord,
			&e.TxStartI, &e.TxEndI, &e.AltStartI, &e.AltEndI, &e.Cigar,
		); err != nil {
			return nil, fmt.Errorf("scan tx_exon: %w", err)
		}
		exons = append(exons, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tx_exons: %w", err)
	}
	return exons, nil
}

// LookupTxInfo returns the exported summary of a transcript on a contig.
// The bool is false when no row matches.
func (s *Store) LookupTxInfo(txAc, altAc, altAlnMethod string) (*provider.TxInfo, bool, error) {
	var info provider.TxInfo
	var start, end *int64
	err := s.db.QueryRow(`SELECT tx_ac, alt_ac, alt_aln_method, hgnc, cds_start_i, cds_end_i
		FROM tx_info
		WHERE tx_ac=? AND alt_ac=? AND alt_aln_method=?`,
		txAc, altAc, altAlnMethod).Scan(
		&info.TxAc, &info.AltAc, &info.AltAlnMethod, &info.HGNC, &start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query tx_info: %w", err)
	}
	info.CDSStartI, info.CDSEndI = start, end
	return &info, true, nil
}

// Counts returns the number of exported exon and tx_info rows.
func (s *Store) Counts() (exons, infos int64, err error) {
	if err := s.db.QueryRow(`SELECT count(*) FROM tx_exons`).Scan(&exons); err != nil {
		return 0, 0, fmt.Errorf("count tx_exons: %w", err)
	}
	if err := s.db.QueryRow(`SELECT count(*) FROM tx_info`).Scan(&infos); err != nil {
		return 0, 0, fmt.Errorf("count tx_info: %w", err)
	}
	return exons, infos, nil
}

// Clear removes all exported rows and metadata.
func (s *Store) Clear() error {
	for _, table := range []string{"tx_exons", "tx_info", "export_metadata"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
