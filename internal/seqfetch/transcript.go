package seqfetch

import (
	"context"
	"fmt"
)

// TranscriptSource returns full transcript sequences by accession.
type TranscriptSource interface {
	TranscriptSequence(ctx context.Context, txAc string) (string, bool, error)
}

// Transcripts fetches transcript sequences from the archive records the
// provider already caches.
type Transcripts struct {
	src TranscriptSource
}

// NewTranscripts creates a fetcher over a transcript source.
func NewTranscripts(src TranscriptSource) *Transcripts {
	return &Transcripts{src: src}
}

// FetchSeq implements Fetcher.
func (t *Transcripts) FetchSeq(ctx context.Context, ac string, start, end int) (string, error) {
	seq, ok, err := t.src.TranscriptSequence(ctx, ac)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: no transcript sequence for %s", ErrSequenceNotFound, ac)
	}
	return slice(ac, seq, start, end)
}

// Source implements Fetcher.
func (t *Transcripts) Source() string {
	return "Ensembl Tark"
}
