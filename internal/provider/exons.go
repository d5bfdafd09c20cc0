package provider

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/inodb/vibe-tark/internal/tark"
)

// ExonOrder selects the order exons are walked when assigning transcript offsets.
type ExonOrder int

const (
	// OrderGenomic walks exons 5' to 3' along the transcript's strand:
	// ascending genomic start on the forward strand, descending on the reverse.
	OrderGenomic ExonOrder = iota
	// OrderSource keeps the order the archive returned.
	OrderSource
)

// ParseExonOrder parses "genomic" (the default for "") or "source".
func ParseExonOrder(s string) (ExonOrder, error) {
	switch strings.ToLower(s) {
	case "", "genomic":
		return OrderGenomic, nil
	case "source":
		return OrderSource, nil
	}
	return 0, fmt.Errorf("unknown exon order %q (want genomic or source)", s)
}

func (o ExonOrder) String() string {
	if o == OrderSource {
		return "source"
	}
	return "genomic"
}

// MapExons converts a record's exons into gapless alignments.
// Tark coordinates are 1-based inclusive; the result is zero-based half-open,
// so an exon at 101-200 becomes alt [100,200) with cigar "100=".
// Transcript offsets are contiguous from 0 in the walk order.
func MapExons(tx *tark.Transcript, txAc, altAc, altAlnMethod string, order ExonOrder) []TxExon {
	exons := append([]tark.Exon(nil), tx.Exons...)
	if order == OrderGenomic {
		sortTranscriptOrder(exons, tx.LocStrand)
	}

	out := make([]TxExon, 0, len(exons))
	var pos int64
	for _, e := range exons {
		span := e.Len()
		out = append(out, TxExon{
			TxAc:         txAc,
			AltAc:        altAc,
			AltStrand:    int(tx.LocStrand),
			AltAlnMethod: altAlnMethod,
			Ord:          e.ExonOrder,
			TxStartI:     pos,
			TxEndI:       pos + span,
			AltStartI:    e.LocStart - 1,
			AltEndI:      e.LocEnd,
			Cigar:        strconv.FormatInt(span, 10) + "=", // Tark alignments are gapless
		})
		pos += span
	}
	return out
}

// sortTranscriptOrder sorts exons by genomic position along the strand,
// breaking ties on the archive's exon_order.
func sortTranscriptOrder(exons []tark.Exon, strand int8) {
	sort.SliceStable(exons, func(i, j int) bool {
		a, b := exons[i], exons[j]
		if a.LocStart != b.LocStart {
			if strand < 0 {
				return a.LocStart > b.LocStart
			}
			return a.LocStart < b.LocStart
		}
		return a.ExonOrder < b.ExonOrder
	})
}
