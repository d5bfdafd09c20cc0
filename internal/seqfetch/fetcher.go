// Package seqfetch provides sequence-fetching collaborators for the data provider.
package seqfetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrSequenceNotFound is returned when a fetcher has no sequence for an accession.
var ErrSequenceNotFound = errors.New("sequence not found")

// Fetcher returns the sequence of ac between zero-based start (inclusive) and
// end (exclusive). end < 0 means to the end of the sequence.
type Fetcher interface {
	FetchSeq(ctx context.Context, ac string, start, end int) (string, error)
	Source() string
}

// slice cuts seq to [start, end) with the Fetcher bounds convention.
func slice(ac, seq string, start, end int) (string, error) {
	if end < 0 {
		end = len(seq)
	}
	if start < 0 || start > end || end > len(seq) {
		return "", fmt.Errorf("interval [%d,%d) out of range for %s (length %d)", start, end, ac, len(seq))
	}
	return seq[start:end], nil
}

// Chain tries each fetcher in turn, moving on only when one reports
// ErrSequenceNotFound.
type Chain []Fetcher

// FetchSeq implements Fetcher.
func (c Chain) FetchSeq(ctx context.Context, ac string, start, end int) (string, error) {
	for _, f := range c {
		seq, err := f.FetchSeq(ctx, ac, start, end)
		if errors.Is(err, ErrSequenceNotFound) {
			continue
		}
		return seq, err
	}
	return "", fmt.Errorf("%w: %s", ErrSequenceNotFound, ac)
}

// Source lists the chained sources.
func (c Chain) Source() string {
	names := make([]string, len(c))
	for i, f := range c {
		names[i] = f.Source()
	}
	return strings.Join(names, ", ")
}
