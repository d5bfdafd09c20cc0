// Package provider exposes Ensembl Tark transcripts through the UTA-style
// data-provider contract used for HGVS variant mapping.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-tark/internal/assembly"
	"github.com/inodb/vibe-tark/internal/cache"
	"github.com/inodb/vibe-tark/internal/seqfetch"
	"github.com/inodb/vibe-tark/internal/tark"
)

const (
	// AlignmentMethod is the only alt_aln_method served.
	AlignmentMethod = "splign"
	// IdentityAlignmentMethod tags build-independent transcript records.
	IdentityAlignmentMethod = "transcript"
	// RequiredVersion is reported as both data and schema version.
	RequiredVersion = "1.1"
)

// Archive is the remote transcript archive.
type Archive interface {
	Transcripts(ctx context.Context, stableID string, version int) ([]*tark.Transcript, bool, error)
	SearchGene(ctx context.Context, symbol string) ([]*tark.Transcript, bool, error)
}

// Provider implements Interface on top of a Tark archive.
// It is safe for concurrent use.
type Provider struct {
	dir         *assembly.Directory
	archive     Archive
	transcripts *cache.TranscriptCache
	seqFetcher  seqfetch.Fetcher
	exonOrder   ExonOrder
	logger      *zap.Logger
}

var _ Interface = (*Provider)(nil)

type config struct {
	assemblies []string
	baseURL    string
	httpClient *http.Client
	archive    Archive
	cacheSize  int
	exonOrder  ExonOrder
	seqFetcher seqfetch.Fetcher
	localSeqs  []seqfetch.Fetcher
	logger     *zap.Logger
}

// Option configures a Provider.
type Option func(*config)

// WithAssemblies sets the supported assemblies (default GRCh37, GRCh38).
func WithAssemblies(names ...string) Option {
	return func(c *config) { c.assemblies = names }
}

// WithBaseURL sets the Tark API root.
func WithBaseURL(u string) Option {
	return func(c *config) { c.baseURL = u }
}

// WithHTTPClient sets the HTTP client used to reach Tark.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) { c.httpClient = hc }
}

// WithArchive replaces the Tark client entirely.
func WithArchive(a Archive) Option {
	return func(c *config) { c.archive = a }
}

// WithCacheSize bounds the transcript cache; 0 is unbounded.
func WithCacheSize(n int) Option {
	return func(c *config) { c.cacheSize = n }
}

// WithExonOrder sets the exon walk order for TxExons.
func WithExonOrder(o ExonOrder) Option {
	return func(c *config) { c.exonOrder = o }
}

// WithSeqFetcher overrides the sequence fetcher. By default sequences are
// transcript sequences taken from the Tark records.
func WithSeqFetcher(f seqfetch.Fetcher) Option {
	return func(c *config) { c.seqFetcher = f }
}

// WithLocalSequences puts fetchers in front of the archive's transcript
// sequences. It has no effect when WithSeqFetcher is also given.
func WithLocalSequences(fetchers ...seqfetch.Fetcher) Option {
	return func(c *config) { c.localSeqs = append(c.localSeqs, fetchers...) }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

// New creates a Provider. It fails with ErrConfiguration when an assembly
// is not supported.
func New(opts ...Option) (*Provider, error) {
	cfg := config{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	dir, err := assembly.New(cfg.assemblies...)
	if err != nil {
		return nil, err
	}

	archive := cfg.archive
	if archive == nil {
		clientOpts := []tark.Option{tark.WithLogger(cfg.logger)}
		if cfg.httpClient != nil {
			clientOpts = append(clientOpts, tark.WithHTTPClient(cfg.httpClient))
		}
		archive = tark.NewClient(cfg.baseURL, clientOpts...)
	}

	transcripts, err := cache.NewTranscriptCache(archive,
		cache.WithSize(cfg.cacheSize),
		cache.WithLogger(cfg.logger))
	if err != nil {
		return nil, err
	}

	p := &Provider{
		dir:         dir,
		archive:     archive,
		transcripts: transcripts,
		seqFetcher:  cfg.seqFetcher,
		exonOrder:   cfg.exonOrder,
		logger:      cfg.logger,
	}
	if p.seqFetcher == nil {
		var archiveSeqs seqfetch.Fetcher = seqfetch.NewTranscripts(p)
		if len(cfg.localSeqs) > 0 {
			archiveSeqs = append(seqfetch.Chain(cfg.localSeqs), archiveSeqs)
		}
		p.seqFetcher = archiveSeqs
	}
	return p, nil
}

// Assemblies returns the configured assemblies.
func (p *Provider) Assemblies() []string {
	return p.dir.Names()
}

// ArchiveURL returns the API root of the archive, or "" when the archive
// does not expose one.
func (p *Provider) ArchiveURL() string {
	if u, ok := p.archive.(interface{ BaseURL() string }); ok {
		return u.BaseURL()
	}
	return ""
}

// DataVersion implements Interface.
func (p *Provider) DataVersion() string { return RequiredVersion }

// SchemaVersion implements Interface.
func (p *Provider) SchemaVersion() string { return RequiredVersion }

// SequenceSource implements Interface.
func (p *Provider) SequenceSource() string {
	return p.seqFetcher.Source()
}

// Seq returns ac[start:end] from the sequence fetcher; end < 0 means to the end.
func (p *Provider) Seq(ctx context.Context, ac string, start, end int) (string, error) {
	return p.seqFetcher.FetchSeq(ctx, ac, start, end)
}

// AssemblyMap returns the accession -> chromosome name map of an assembly.
func (p *Provider) AssemblyMap(assemblyName string) (map[string]string, error) {
	return p.dir.AssemblyMap(assemblyName)
}

func checkAlnMethod(method string) error {
	if method != AlignmentMethod {
		return fmt.Errorf("%w: %q (only %s is supported)", ErrUnsupportedAlignmentMethod, method, AlignmentMethod)
	}
	return nil
}

// selectForContig returns the first record aligned to the assembly that
// contains contig. ok is false when no record matches.
func (p *Provider) selectForContig(recs []*tark.Transcript, contig string) (*tark.Transcript, bool, error) {
	asm, ok := p.dir.Resolve(contig)
	if !ok {
		return nil, false, fmt.Errorf("%w: %q (supported assemblies: %s)",
			ErrUnsupportedContig, contig, strings.Join(p.dir.Names(), ", "))
	}
	for _, r := range recs {
		if r.Assembly.Name == asm {
			return r, true, nil
		}
	}
	return nil, false, nil
}

// anyBuild returns a build-independent view of a transcript: the first record
// in archive response order. ok is false when the archive has no data.
func (p *Provider) anyBuild(ctx context.Context, txAc string) (*tark.Transcript, []*tark.Transcript, bool, error) {
	recs, err := p.transcripts.Get(ctx, txAc)
	if errors.Is(err, ErrTranscriptNotFound) {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, err
	}
	return recs[0], recs, true, nil
}

// TxInfo returns gene and CDS information for a transcript on a contig.
func (p *Provider) TxInfo(ctx context.Context, txAc, altAc, altAlnMethod string) (*TxInfo, error) {
	if err := checkAlnMethod(altAlnMethod); err != nil {
		return nil, err
	}

	recs, err := p.transcripts.Get(ctx, txAc)
	if err != nil {
		return nil, err
	}
	tx, ok, err := p.selectForContig(recs, altAc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: no tx_info for (tx_ac=%s, alt_ac=%s, alt_aln_method=%s)",
			ErrTranscriptNotFound, txAc, altAc, altAlnMethod)
	}

	start, end := CDSBoundaryOf(tx).Pointers()
	return &TxInfo{
		HGNC:         tx.GeneName(),
		CDSStartI:    start,
		CDSEndI:      end,
		TxAc:         txAc,
		AltAc:        altAc,
		AltAlnMethod: AlignmentMethod,
	}, nil
}

// TxExons returns the exon alignments of a transcript on a contig, or nil
// when the transcript has no record on that contig's assembly.
func (p *Provider) TxExons(ctx context.Context, txAc, altAc, altAlnMethod string) ([]TxExon, error) {
	if err := checkAlnMethod(altAlnMethod); err != nil {
		return nil, err
	}

	recs, err := p.transcripts.Get(ctx, txAc)
	if err != nil {
		return nil, err
	}
	tx, ok, err := p.selectForContig(recs, altAc)
	if err != nil || !ok {
		return nil, err
	}
	return MapExons(tx, txAc, altAc, altAlnMethod, p.exonOrder), nil
}

// TxIdentityInfo returns build-independent transcript information.
func (p *Provider) TxIdentityInfo(ctx context.Context, txAc string) (*TxIdentityInfo, bool, error) {
	tx, _, ok, err := p.anyBuild(ctx, txAc)
	if err != nil || !ok {
		return nil, false, err
	}

	exons := append([]tark.Exon(nil), tx.Exons...)
	sort.SliceStable(exons, func(i, j int) bool { return exons[i].ExonOrder < exons[j].ExonOrder })
	lengths := make([]int64, len(exons))
	for i, e := range exons {
		lengths[i] = e.Len()
	}

	start, end := CDSBoundaryOf(tx).Pointers()
	return &TxIdentityInfo{
		HGNC:         tx.GeneName(),
		CDSStartI:    start,
		CDSEndI:      end,
		Lengths:      lengths,
		TxAc:         txAc,
		AltAc:        txAc,
		AltAlnMethod: IdentityAlignmentMethod,
	}, true, nil
}

// TxMappingOptions lists the contigs a transcript can be mapped onto, one per
// genome build. Builds come from the record's genome_builds summary when the
// archive provides one, otherwise from the per-build records.
func (p *Provider) TxMappingOptions(ctx context.Context, txAc string) ([]TxMappingOption, error) {
	tx, recs, ok, err := p.anyBuild(ctx, txAc)
	if err != nil || !ok {
		return nil, err
	}

	var options []TxMappingOption
	if len(tx.GenomeBuilds) > 0 {
		builds := make([]string, 0, len(tx.GenomeBuilds))
		for b := range tx.GenomeBuilds {
			builds = append(builds, b)
		}
		sort.Strings(builds)
		for _, b := range builds {
			options = append(options, TxMappingOption{
				TxAc:         txAc,
				AltAc:        tx.GenomeBuilds[b].Contig,
				AltAlnMethod: AlignmentMethod,
			})
		}
		return options, nil
	}

	for _, r := range recs {
		contig, ok := p.contigFor(r)
		if !ok {
			continue
		}
		options = append(options, TxMappingOption{
			TxAc:         txAc,
			AltAc:        contig,
			AltAlnMethod: AlignmentMethod,
		})
	}
	return options, nil
}

// TxForGene searches the archive for a gene's transcripts. Results are not
// cached. Records on assemblies the provider is not configured for are skipped.
func (p *Provider) TxForGene(ctx context.Context, gene string) ([]TxForGene, error) {
	recs, found, err := p.archive.SearchGene(ctx, gene)
	if err != nil || !found {
		return nil, err
	}

	var out []TxForGene
	for _, r := range recs {
		contig, ok := p.contigFor(r)
		if !ok {
			continue
		}
		start, end := CDSBoundaryOf(r).Pointers()
		out = append(out, TxForGene{
			HGNC:         gene,
			CDSStartI:    start,
			CDSEndI:      end,
			TxAc:         r.Accession(),
			AltAc:        contig,
			AltAlnMethod: AlignmentMethod,
		})
	}
	return out, nil
}

// ProAcForTxAc returns the versioned accession of the transcript's first translation.
func (p *Provider) ProAcForTxAc(ctx context.Context, txAc string) (string, bool, error) {
	tx, _, ok, err := p.anyBuild(ctx, txAc)
	if err != nil || !ok {
		return "", false, err
	}
	if len(tx.Translations) == 0 {
		return "", false, nil
	}
	return tx.Translations[0].Accession(), true, nil
}

// TranscriptSequence returns the spliced transcript sequence.
func (p *Provider) TranscriptSequence(ctx context.Context, txAc string) (string, bool, error) {
	tx, _, ok, err := p.anyBuild(ctx, txAc)
	if err != nil || !ok {
		return "", false, err
	}
	seq := tx.SequenceString()
	return seq, seq != "", nil
}

// AcsForProteinSeq is not supported by Tark; it reports no accessions.
// HGVS only calls it as a fallback when ProAcForTxAc finds nothing.
func (p *Provider) AcsForProteinSeq(ctx context.Context, seq string) ([]string, error) {
	return nil, nil
}

// GeneInfo is not available from Tark.
func (p *Provider) GeneInfo(ctx context.Context, gene string) (*GeneInfo, error) {
	return nil, fmt.Errorf("%w: gene info for %q", ErrNotImplemented, gene)
}

// SimilarTranscripts is not available from Tark.
func (p *Provider) SimilarTranscripts(ctx context.Context, txAc string) ([]TxSimilarity, error) {
	return nil, fmt.Errorf("%w: similar transcripts for %q", ErrNotImplemented, txAc)
}

// TxForRegion is not available from Tark.
func (p *Provider) TxForRegion(ctx context.Context, altAc, altAlnMethod string, start, end int64) ([]TxRegion, error) {
	return nil, fmt.Errorf("%w: transcripts for region %s:%d-%d", ErrNotImplemented, altAc, start, end)
}

// AlignmentsForRegion delegates to TxForRegion; an empty method means splign.
func (p *Provider) AlignmentsForRegion(ctx context.Context, altAc string, start, end int64, altAlnMethod string) ([]TxRegion, error) {
	if altAlnMethod == "" {
		altAlnMethod = AlignmentMethod
	}
	return p.TxForRegion(ctx, altAc, altAlnMethod, start, end)
}

// contigFor returns the RefSeq accession of the record's chromosome. A record
// on an unconfigured assembly is skipped quietly. A region the configured
// assembly has no accession for (GRCh37 MT shares NC_012920.1 with GRCh38
// and is left out) is reported, since the transcript silently loses a build.
func (p *Provider) contigFor(r *tark.Transcript) (string, bool) {
	if contig, ok := p.dir.ContigFor(r.Assembly.Name, r.LocRegion); ok {
		return contig, true
	}

	fields := []zap.Field{
		zap.String("tx_ac", r.Accession()),
		zap.String("assembly", r.Assembly.Name),
		zap.String("region", r.LocRegion),
	}
	if _, configured := p.dir.NameToAccession(r.Assembly.Name); configured {
		p.logger.Warn("no contig accession for region, record skipped", fields...)
	} else {
		p.logger.Debug("skipping record on unconfigured assembly", fields...)
	}
	return "", false
}
