package seqfetch

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// FASTA serves sequences from a FASTA file held in memory, keyed by the
// first word of each header (e.g. "NC_000013.11" or "ENST00000380152.7").
type FASTA struct {
	path      string
	sequences map[string]string
	aliases   map[string]string // unversioned id -> versioned id
}

// LoadFASTA reads a plain or gzipped FASTA file.
func LoadFASTA(path string) (*FASTA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open FASTA file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	fa := newFASTA(path)
	if err := fa.parse(reader); err != nil {
		return nil, err
	}
	return fa, nil
}

func newFASTA(path string) *FASTA {
	return &FASTA{
		path:      path,
		sequences: make(map[string]string),
		aliases:   make(map[string]string),
	}
}

func (f *FASTA) parse(reader io.Reader) error {
	scanner := bufio.NewScanner(reader)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var currentID string
	var currentSeq strings.Builder
	flush := func() {
		if currentID != "" && currentSeq.Len() > 0 {
			f.add(currentID, currentSeq.String())
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, ">") {
			flush()
			currentID = headerID(line)
			currentSeq.Reset()
			continue
		}
		currentSeq.WriteString(strings.TrimSpace(line))
	}
	flush()

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan FASTA: %w", err)
	}
	return nil
}

func (f *FASTA) add(id, seq string) {
	f.sequences[id] = seq
	if i := strings.LastIndexByte(id, '.'); i > 0 {
		f.aliases[id[:i]] = id
	}
}

// headerID returns the accession from a header: the text after '>' up to the
// first space or '|'.
func headerID(header string) string {
	header = strings.TrimPrefix(header, ">")
	if i := strings.IndexAny(header, " |\t"); i != -1 {
		return header[:i]
	}
	return header
}

// FetchSeq implements Fetcher. An unversioned accession matches the
// versioned record of the same id.
func (f *FASTA) FetchSeq(_ context.Context, ac string, start, end int) (string, error) {
	seq, ok := f.sequences[ac]
	if !ok {
		if id, alias := f.aliases[ac]; alias {
			seq, ok = f.sequences[id]
		}
	}
	if !ok {
		return "", fmt.Errorf("%w: %s not in %s", ErrSequenceNotFound, ac, f.path)
	}
	return slice(ac, seq, start, end)
}

// Source implements Fetcher.
func (f *FASTA) Source() string {
	return "fasta:" + f.path
}

// Len returns the number of loaded sequences.
func (f *FASTA) Len() int {
	return len(f.sequences)
}
