package provider

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inodb/vibe-tark/internal/tark"
)

func TestCDSBoundaryOf(t *testing.T) {
	exons := []tark.Exon{{LocStart: 101, LocEnd: 200}, {LocStart: 301, LocEnd: 350}}

	tests := []struct {
		name  string
		five  *string
		three *string
		want  CDSBoundary
	}{
		{"both UTRs", strPtr("GGGGGGGGGG"), strPtr("TTTTT"), CDSBoundary{Start: 10, End: 145, Known: true}},
		{"missing 5'", nil, strPtr("TTTTT"), CDSBoundary{}},
		{"missing 3'", strPtr("GGG"), nil, CDSBoundary{}},
		{"empty 5'", strPtr(""), strPtr("TTTTT"), CDSBoundary{}},
		{"empty 3'", strPtr("GGG"), strPtr(""), CDSBoundary{}},
		{"UTRs longer than exons", strPtr(strings.Repeat("G", 100)), strPtr(strings.Repeat("T", 60)), CDSBoundary{}},
		{"UTRs cover exons", strPtr(strings.Repeat("G", 100)), strPtr(strings.Repeat("T", 50)), CDSBoundary{Start: 100, End: 100, Known: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &tark.Transcript{Exons: exons, FivePrimeUTR: tt.five, ThreePrimeUTR: tt.three}
			assert.Equal(t, tt.want, CDSBoundaryOf(tx))
		})
	}
}

func TestCDSBoundaryOf_WithinExons(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for range 500 {
		tx := randomTranscript(rng, 1+rng.Intn(10), 1)
		total := tx.ExonicLength()
		five := strings.Repeat("G", rng.Intn(int(total)+1))
		three := strings.Repeat("T", rng.Intn(int(total)+1))
		tx.FivePrimeUTR, tx.ThreePrimeUTR = &five, &three

		b := CDSBoundaryOf(tx)
		if !b.Known {
			start, end := b.Pointers()
			assert.Nil(t, start)
			assert.Nil(t, end)
			continue
		}
		assert.GreaterOrEqual(t, b.Start, int64(0))
		assert.LessOrEqual(t, b.Start, b.End)
		assert.LessOrEqual(t, b.End, total)
	}
}

func TestCDSBoundary_Pointers(t *testing.T) {
	start, end := CDSBoundary{Start: 3, End: 9, Known: true}.Pointers()
	if assert.NotNil(t, start) && assert.NotNil(t, end) {
		assert.Equal(t, int64(3), *start)
		assert.Equal(t, int64(9), *end)
	}

	start, end = CDSBoundary{}.Pointers()
	assert.Nil(t, start)
	assert.Nil(t, end)
}
