package tark

import (
	"encoding/json"
	"fmt"
)

// Transcript is one Tark transcript record: a transcript as annotated on a
// single genome build. A versioned accession resolves to one record per build.
type Transcript struct {
	StableID      string                 `json:"stable_id"`
	Version       int                    `json:"stable_id_version"`
	Assembly      AssemblyRef            `json:"assembly"`
	LocRegion     string                 `json:"loc_region"` // chromosome name, e.g. "13"
	LocStart      int64                  `json:"loc_start"`  // 1-based
	LocEnd        int64                  `json:"loc_end"`    // 1-based, inclusive
	LocStrand     int8                   `json:"loc_strand"` // +1 or -1
	Biotype       string                 `json:"biotype"`
	Exons         []Exon                 `json:"exons"`
	Genes         []Gene                 `json:"genes"`
	Translations  []Translation          `json:"translations"`
	Sequence      *Sequence              `json:"sequence"`
	FivePrimeUTR  *string                `json:"five_prime_utr_seq"`
	ThreePrimeUTR *string                `json:"three_prime_utr_seq"`
	GenomeBuilds  map[string]GenomeBuild `json:"genome_builds,omitempty"`
}

// Exon is a Tark exon with 1-based inclusive genomic coordinates.
type Exon struct {
	StableID  string `json:"stable_id"`
	Version   int    `json:"stable_id_version"`
	LocStart  int64  `json:"loc_start"`
	LocEnd    int64  `json:"loc_end"`
	LocStrand int8   `json:"loc_strand"`
	ExonOrder int    `json:"exon_order"`
}

// Len returns the exon length in bases.
func (e Exon) Len() int64 {
	return e.LocEnd - e.LocStart + 1
}

// Gene is a gene the transcript belongs to.
type Gene struct {
	StableID string `json:"stable_id"`
	Version  int    `json:"stable_id_version"`
	Name     string `json:"name"`
}

// Translation is a protein product of the transcript.
type Translation struct {
	StableID string `json:"stable_id"`
	Version  int    `json:"stable_id_version"`
}

// Accession returns the versioned protein accession.
func (t Translation) Accession() string {
	return fmt.Sprintf("%s.%d", t.StableID, t.Version)
}

// Sequence wraps the spliced transcript sequence.
type Sequence struct {
	Sequence string `json:"sequence"`
}

// GenomeBuild is a cross-build summary of where the transcript is aligned.
type GenomeBuild struct {
	Contig string `json:"contig"`
	Strand string `json:"strand,omitempty"`
}

// AssemblyRef is the assembly a record is aligned against. Transcript
// lookups return an object, searches return the bare assembly name.
type AssemblyRef struct {
	Name string `json:"assembly_name"`
}

// UnmarshalJSON accepts either {"assembly_name": "GRCh38"} or "GRCh38".
func (a *AssemblyRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &a.Name)
	}
	type plain AssemblyRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode assembly: %w", err)
	}
	*a = AssemblyRef(p)
	return nil
}

// Accession returns the versioned transcript accession.
func (t *Transcript) Accession() string {
	return fmt.Sprintf("%s.%d", t.StableID, t.Version)
}

// GeneName returns the first associated gene symbol, or "".
func (t *Transcript) GeneName() string {
	if len(t.Genes) == 0 {
		return ""
	}
	return t.Genes[0].Name
}

// ExonicLength returns the summed length of all exons.
func (t *Transcript) ExonicLength() int64 {
	var n int64
	for _, e := range t.Exons {
		n += e.Len()
	}
	return n
}

// SequenceString returns the transcript sequence, or "" when not expanded.
func (t *Transcript) SequenceString() string {
	if t.Sequence == nil {
		return ""
	}
	return t.Sequence.Sequence
}
