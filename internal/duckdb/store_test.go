package duckdb

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-tark/internal/provider"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func int64Ptr(v int64) *int64 { return &v }

func brca2Exons() []provider.TxExon {
	return []provider.TxExon{
		{
			TxAc: "ENST00000380152.7", AltAc: "NC_000013.11", AltStrand: 1, AltAlnMethod: "splign",
			Ord: 1, TxStartI: 0, TxEndI: 100, AltStartI: 100, AltEndI: 200, Cigar: "100=",
		},
		{
			TxAc: "ENST00000380152.7", AltAc: "NC_000013.11", AltStrand: 1, AltAlnMethod: "splign",
			Ord: 2, TxStartI: 100, TxEndI: 150, AltStartI: 300, AltEndI: 350, Cigar: "50=",
		},
	}
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.Equal(t, "", s.Path())

	sum, err := s.Summary()
	require.NoError(t, err)
	assert.Equal(t, Summary{}, sum)
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "export.duckdb")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.WriteTxExons(brca2Exons()))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	exons, err := s.LookupTxExons("ENST00000380152.7", "NC_000013.11", "splign")
	require.NoError(t, err)
	assert.Len(t, exons, 2)
}

func TestWriteAndLookupTxExons(t *testing.T) {
	s := openInMemory(t)

	// Written out of order; lookups come back in transcript order.
	exons := brca2Exons()
	require.NoError(t, s.WriteTxExons([]provider.TxExon{exons[1], exons[0]}))

	got, err := s.LookupTxExons("ENST00000380152.7", "NC_000013.11", "splign")
	require.NoError(t, err)
	assert.Equal(t, exons, got)

	got, err = s.LookupTxExons("ENST00000380152.7", "NC_000013.10", "splign")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWriteTxExons_Dedup(t *testing.T) {
	s := openInMemory(t)

	exons := brca2Exons()
	require.NoError(t, s.WriteTxExons(append(exons, exons[0])))
	require.NoError(t, s.WriteTxExons(exons))
	require.NoError(t, s.WriteTxExons(nil))

	n, _, err := s.Counts()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestWriteAndLookupTxInfo(t *testing.T) {
	s := openInMemory(t)

	infos := []*provider.TxInfo{
		{
			HGNC: "BRCA2", CDSStartI: int64Ptr(10), CDSEndI: int64Ptr(145),
			TxAc: "ENST00000380152.7", AltAc: "NC_000013.11", AltAlnMethod: "splign",
		},
		{
			HGNC: "BRCA2-AS1",
			TxAc: "ENST00000000001.1", AltAc: "NC_000013.11", AltAlnMethod: "splign",
		},
	}
	require.NoError(t, s.WriteTxInfo(infos))
	require.NoError(t, s.WriteTxInfo(infos[:1]))

	info, ok, err := s.LookupTxInfo("ENST00000380152.7", "NC_000013.11", "splign")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, infos[0], info)

	info, ok, err = s.LookupTxInfo("ENST00000000001.1", "NC_000013.11", "splign")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, info.CDSStartI)
	assert.Nil(t, info.CDSEndI)

	_, ok, err = s.LookupTxInfo("ENST00000000002.1", "NC_000013.11", "splign")
	require.NoError(t, err)
	assert.False(t, ok)

	_, n, err := s.Counts()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestExportInfo(t *testing.T) {
	s := openInMemory(t)

	_, ok, err := s.ReadExportInfo()
	require.NoError(t, err)
	assert.False(t, ok)

	want := ExportInfo{
		BaseURL:     "https://tark.ensembl.org/api",
		DataVersion: "1.1",
		Assemblies:  []string{"GRCh37", "GRCh38"},
		ExportedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.WriteExportInfo(want))
	require.NoError(t, s.WriteExportInfo(want))

	got, ok, err := s.ReadExportInfo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestClear(t *testing.T) {
	s := openInMemory(t)

	require.NoError(t, s.WriteTxExons(brca2Exons()))
	require.NoError(t, s.WriteTxInfo([]*provider.TxInfo{{TxAc: "a", AltAc: "b", AltAlnMethod: "splign"}}))
	require.NoError(t, s.WriteExportInfo(ExportInfo{BaseURL: "x", ExportedAt: time.Now()}))

	require.NoError(t, s.Clear())

	exons, infos, err := s.Counts()
	require.NoError(t, err)
	assert.Zero(t, exons)
	assert.Zero(t, infos)

	_, ok, err := s.ReadExportInfo()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.duckdb")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.WriteTxExons(brca2Exons()))
	require.NoError(t, s.WriteTxInfo([]*provider.TxInfo{{
		HGNC: "BRCA2", TxAc: "ENST00000380152.7", AltAc: "NC_000013.11", AltAlnMethod: "splign",
	}}))
	require.NoError(t, s.WriteExportInfo(ExportInfo{BaseURL: "http://tark/api", ExportedAt: time.Now()}))

	sum, err := s.Summary()
	require.NoError(t, err)
	assert.Equal(t, path, sum.Path)
	assert.Equal(t, int64(2), sum.TxExons)
	assert.Equal(t, int64(1), sum.TxInfo)
	require.NotNil(t, sum.Export)
	assert.Equal(t, "http://tark/api", sum.Export.BaseURL)
}
