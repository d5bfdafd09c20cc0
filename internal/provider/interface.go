package provider

import "context"

// Interface is the data-provider contract an HGVS variant mapper consumes.
// Methods that return a bool report absence with false and a nil error.
type Interface interface {
	DataVersion() string
	SchemaVersion() string
	SequenceSource() string
	Seq(ctx context.Context, ac string, start, end int) (string, error)

	AssemblyMap(assemblyName string) (map[string]string, error)
	TxInfo(ctx context.Context, txAc, altAc, altAlnMethod string) (*TxInfo, error)
	TxExons(ctx context.Context, txAc, altAc, altAlnMethod string) ([]TxExon, error)
	TxIdentityInfo(ctx context.Context, txAc string) (*TxIdentityInfo, bool, error)
	TxMappingOptions(ctx context.Context, txAc string) ([]TxMappingOption, error)
	TxForGene(ctx context.Context, gene string) ([]TxForGene, error)
	TxForRegion(ctx context.Context, altAc, altAlnMethod string, start, end int64) ([]TxRegion, error)
	AlignmentsForRegion(ctx context.Context, altAc string, start, end int64, altAlnMethod string) ([]TxRegion, error)
	ProAcForTxAc(ctx context.Context, txAc string) (string, bool, error)
	AcsForProteinSeq(ctx context.Context, seq string) ([]string, error)
	GeneInfo(ctx context.Context, gene string) (*GeneInfo, error)
	SimilarTranscripts(ctx context.Context, txAc string) ([]TxSimilarity, error)
}

// TxInfo summarises a transcript aligned to one contig.
// CDS bounds are nil when the UTRs are not annotated.
type TxInfo struct {
	HGNC         string `json:"hgnc"`
	CDSStartI    *int64 `json:"cds_start_i"`
	CDSEndI      *int64 `json:"cds_end_i"`
	TxAc         string `json:"tx_ac"`
	AltAc        string `json:"alt_ac"`
	AltAlnMethod string `json:"alt_aln_method"`
}

// TxExon is one gapless exon alignment in zero-based, half-open coordinates.
type TxExon struct {
	TxAc         string `json:"tx_ac"`
	AltAc        string `json:"alt_ac"`
	AltStrand    int    `json:"alt_strand"`
	AltAlnMethod string `json:"alt_aln_method"`
	Ord          int    `json:"ord"`
	TxStartI     int64  `json:"tx_start_i"`
	TxEndI       int64  `json:"tx_end_i"`
	AltStartI    int64  `json:"alt_start_i"`
	AltEndI      int64  `json:"alt_end_i"`
	Cigar        string `json:"cigar"`
}

// TxIdentityInfo describes a transcript independent of any genome build.
type TxIdentityInfo struct {
	HGNC         string  `json:"hgnc"`
	CDSStartI    *int64  `json:"cds_start_i"`
	CDSEndI      *int64  `json:"cds_end_i"`
	Lengths      []int64 `json:"lengths"`
	TxAc         string  `json:"tx_ac"`
	AltAc        string  `json:"alt_ac"`
	AltAlnMethod string  `json:"alt_aln_method"`
}

// TxMappingOption is a contig a transcript can be mapped onto.
type TxMappingOption struct {
	TxAc         string `json:"tx_ac"`
	AltAc        string `json:"alt_ac"`
	AltAlnMethod string `json:"alt_aln_method"`
}

// TxForGene is a transcript found by gene symbol search.
type TxForGene struct {
	HGNC         string `json:"hgnc"`
	CDSStartI    *int64 `json:"cds_start_i"`
	CDSEndI      *int64 `json:"cds_end_i"`
	TxAc         string `json:"tx_ac"`
	AltAc        string `json:"alt_ac"`
	AltAlnMethod string `json:"alt_aln_method"`
}

// TxRegion is a transcript overlapping a genomic region.
type TxRegion struct {
	TxAc         string `json:"tx_ac"`
	AltAc        string `json:"alt_ac"`
	AltStrand    int    `json:"alt_strand"`
	AltAlnMethod string `json:"alt_aln_method"`
	StartI       int64  `json:"start_i"`
	EndI         int64  `json:"end_i"`
}

// GeneInfo is gene metadata. Tark does not provide it.
type GeneInfo struct {
	HGNC    string   `json:"hgnc"`
	MapLoc  string   `json:"maploc"`
	Descr   string   `json:"descr"`
	Summary string   `json:"summary"`
	Aliases []string `json:"aliases"`
}

// TxSimilarity compares two transcripts. Tark does not provide it.
type TxSimilarity struct {
	TxAc1       string `json:"tx_ac1"`
	TxAc2       string `json:"tx_ac2"`
	HGNCEq      bool   `json:"hgnc_eq"`
	CDSEq       bool   `json:"cds_eq"`
	ESEq        bool   `json:"es_fp_eq"`
	CDSESEq     bool   `json:"cds_es_fp_eq"`
	CDSExonLens bool   `json:"cds_exon_lengths_fp_eq"`
}
