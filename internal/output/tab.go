// Package output provides formatters for provider records.
package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/inodb/vibe-tark/internal/duckdb"
	"github.com/inodb/vibe-tark/internal/provider"
)

// Format selects how records are rendered.
type Format string

const (
	FormatJSON Format = "json"
	FormatTab  Format = "tab"
)

// ParseFormat parses "json" or "tab".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatTab:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want json or tab)", s)
}

// Write renders v in the given format. Tab output supports the provider record
// types, slices of them, and plain strings.
func Write(w io.Writer, f Format, v any) error {
	if f == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	var columns []string
	var rows [][]string
	switch r := v.(type) {
	case string:
		_, err := fmt.Fprintln(w, r)
		return err
	case []string:
		columns = []string{"value"}
		for _, s := range r {
			rows = append(rows, []string{s})
		}
	case *provider.TxInfo:
		columns = []string{"hgnc", "cds_start_i", "cds_end_i", "tx_ac", "alt_ac", "alt_aln_method"}
		rows = append(rows, []string{r.HGNC, optInt(r.CDSStartI), optInt(r.CDSEndI), r.TxAc, r.AltAc, r.AltAlnMethod})
	case []provider.TxExon:
		columns = []string{"tx_ac", "alt_ac", "alt_strand", "alt_aln_method", "ord",
			"tx_start_i", "tx_end_i", "alt_start_i", "alt_end_i", "cigar"}
		for _, e := range r {
			rows = append(rows, []string{e.TxAc, e.AltAc, strconv.Itoa(e.AltStrand), e.AltAlnMethod, strconv.Itoa(e.Ord),
				itoa(e.TxStartI), itoa(e.TxEndI), itoa(e.AltStartI), itoa(e.AltEndI), e.Cigar})
		}
	case *provider.TxIdentityInfo:
		lengths := make([]string, len(r.Lengths))
		for i, l := range r.Lengths {
			lengths[i] = itoa(l)
		}
		columns = []string{"hgnc", "cds_start_i", "cds_end_i", "lengths", "tx_ac", "alt_ac", "alt_aln_method"}
		rows = append(rows, []string{r.HGNC, optInt(r.CDSStartI), optInt(r.CDSEndI), strings.Join(lengths, ","),
			r.TxAc, r.AltAc, r.AltAlnMethod})
	case []provider.TxMappingOption:
		columns = []string{"tx_ac", "alt_ac", "alt_aln_method"}
		for _, o := range r {
			rows = append(rows, []string{o.TxAc, o.AltAc, o.AltAlnMethod})
		}
	case []provider.TxForGene:
		columns = []string{"hgnc", "cds_start_i", "cds_end_i", "tx_ac", "alt_ac", "alt_aln_method"}
		for _, g := range r {
			rows = append(rows, []string{g.HGNC, optInt(g.CDSStartI), optInt(g.CDSEndI), g.TxAc, g.AltAc, g.AltAlnMethod})
		}
	case duckdb.Summary:
		columns = []string{"path", "tx_info", "tx_exons", "base_url", "data_version", "assemblies", "exported_at"}
		var baseURL, dataVersion, assemblies, exportedAt string
		if e := r.Export; e != nil {
			baseURL, dataVersion = e.BaseURL, e.DataVersion
			assemblies = strings.Join(e.Assemblies, ",")
			exportedAt = e.ExportedAt.UTC().Format(time.RFC3339)
		}
		rows = append(rows, []string{r.Path, itoa(r.TxInfo), itoa(r.TxExons), baseURL, dataVersion, assemblies, exportedAt})
	default:
		return fmt.Errorf("no tab layout for %T", v)
	}

	tw := NewTabWriter(w, columns...)
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, row := range rows {
		if err := tw.WriteRow(row...); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

// optInt formats a nullable value, using "-" for null.
func optInt(v *int64) string {
	if v == nil {
		return "-"
	}
	return itoa(*v)
}

// TabWriter writes records in tab-delimited format.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer with the given columns.
func NewTabWriter(w io.Writer, columns ...string) *TabWriter {
	return &TabWriter{
		w:       bufio.NewWriter(w),
		columns: columns,
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString("#" + strings.Join(tw.columns, "\t") + "\n")
	return err
}

// WriteRow writes a single row. Empty fields are written as "-".
func (tw *TabWriter) WriteRow(values ...string) error {
	row := make([]string, len(values))
	for i, v := range values {
		if v == "" {
			v = "-"
		}
		row[i] = v
	}
	_, err := tw.w.WriteString(strings.Join(row, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}
