package provider

import "github.com/inodb/vibe-tark/internal/tark"

// CDSBoundary is the zero-based coding region within the transcript sequence.
// Known is false when it cannot be derived; Start and End are then meaningless.
type CDSBoundary struct {
	Start int64
	End   int64
	Known bool
}

// CDSBoundaryOf derives the CDS from the UTR sequence lengths and the total
// exonic length. Both UTRs must be present and non-empty; a transcript with a
// genuinely empty UTR is indistinguishable from an unannotated one and is
// reported as unknown. Bounds that do not fit inside the exons are also unknown.
func CDSBoundaryOf(tx *tark.Transcript) CDSBoundary {
	if tx.FivePrimeUTR == nil || tx.ThreePrimeUTR == nil {
		return CDSBoundary{}
	}
	five, three := *tx.FivePrimeUTR, *tx.ThreePrimeUTR
	if five == "" || three == "" {
		return CDSBoundary{}
	}

	total := tx.ExonicLength()
	start := int64(len(five))
	end := total - int64(len(three))
	if start > end {
		return CDSBoundary{}
	}
	return CDSBoundary{Start: start, End: end, Known: true}
}

// Pointers returns the bounds as nullable values for UTA-style records.
func (b CDSBoundary) Pointers() (start, end *int64) {
	if !b.Known {
		return nil, nil
	}
	s, e := b.Start, b.End
	return &s, &e
}
