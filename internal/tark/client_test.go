package tark

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const brca2JSON = `{
  "count": 1,
  "next": null,
  "results": [{
    "stable_id": "ENST00000380152",
    "stable_id_version": 7,
    "assembly": {"assembly_name": "GRCh38", "assembly_id": 1},
    "loc_region": "13",
    "loc_start": 32315508,
    "loc_end": 32400268,
    "loc_strand": 1,
    "exons": [
      {"stable_id": "ENSE00001184784", "stable_id_version": 4, "loc_start": 32315508, "loc_end": 32315667, "loc_strand": 1, "exon_order": 1}
    ],
    "genes": [{"stable_id": "ENSG00000139618", "stable_id_version": 15, "name": "BRCA2"}],
    "translations": [{"stable_id": "ENSP00000369497", "stable_id_version": 3}],
    "sequence": {"sequence": "GGGCTTGTGGCGC"},
    "five_prime_utr_seq": "GGG",
    "three_prime_utr_seq": null
  }]
}`

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/", WithHTTPClient(srv.Client()))
}

func TestClient_Transcripts(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(brca2JSON))
	})

	results, found, err := c.Transcripts(context.Background(), "ENST00000380152", 7)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, results, 1)

	assert.Equal(t, "/api/transcript/", gotPath)
	assert.Equal(t, []string{"ENST00000380152"}, gotQuery["stable_id"])
	assert.Equal(t, []string{"7"}, gotQuery["stable_id_version"])
	assert.Equal(t, []string{"true"}, gotQuery["expand_all"])

	tx := results[0]
	assert.Equal(t, "ENST00000380152.7", tx.Accession())
	assert.Equal(t, "GRCh38", tx.Assembly.Name)
	assert.Equal(t, "BRCA2", tx.GeneName())
	assert.Equal(t, "ENSP00000369497.3", tx.Translations[0].Accession())
	assert.Equal(t, int8(1), tx.LocStrand)
	assert.Equal(t, int64(160), tx.ExonicLength())
	assert.Equal(t, "GGGCTTGTGGCGC", tx.SequenceString())
	require.NotNil(t, tx.FivePrimeUTR)
	assert.Equal(t, "GGG", *tx.FivePrimeUTR)
	assert.Nil(t, tx.ThreePrimeUTR)
}

func TestClient_UnversionedQuery(t *testing.T) {
	var versions []string
	var present bool
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		versions, present = r.URL.Query()["stable_id_version"]
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": []}`))
	})

	results, found, err := c.Transcripts(context.Background(), "ENST00000380152", -1)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, results)
	assert.True(t, present, "stable_id_version must be sent even when empty")
	assert.Equal(t, []string{""}, versions)
}

func TestClient_SearchGeneBareList(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/transcript/search/", r.URL.Path)
		assert.Equal(t, "BRCA2", r.URL.Query().Get("identifier_field"))
		assert.Equal(t, "exons,genes,sequence", r.URL.Query().Get("expand"))
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write([]byte(`[{"stable_id": "ENST00000380152", "stable_id_version": 7, "assembly": "GRCh37", "loc_region": "13"}]`))
	})

	results, found, err := c.SearchGene(context.Background(), "BRCA2")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, results, 1)
	assert.Equal(t, "GRCh37", results[0].Assembly.Name)
}

func TestClient_NoData(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"not found", http.StatusNotFound, `{"detail": "Not found."}`},
		{"server error", http.StatusInternalServerError, `oops`},
		{"missing results", http.StatusOK, `{"detail": "nothing"}`},
		{"empty body", http.StatusOK, ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			results, found, err := c.Transcripts(context.Background(), "ENST1", 1)
			require.NoError(t, err)
			assert.False(t, found)
			assert.Nil(t, results)
		})
	}
}

func TestClient_ProtocolMismatch(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html>please log in</html>`))
	})

	_, _, err := c.Transcripts(context.Background(), "ENST1", 1)
	require.ErrorIs(t, err, ErrProtocolMismatch)
	assert.Contains(t, err.Error(), "firewall")
}

func TestClient_MalformedJSON(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [`))
	})

	_, _, err := c.Transcripts(context.Background(), "ENST1", 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrProtocolMismatch)
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := NewClient(srv.URL)

	_, _, err := c.Transcripts(context.Background(), "ENST1", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tark request failed")
}

func TestNewClient_Defaults(t *testing.T) {
	assert.Equal(t, DefaultBaseURL, NewClient("").BaseURL())
	assert.Equal(t, "http://x/api", NewClient("http://x/api/").BaseURL())
}
