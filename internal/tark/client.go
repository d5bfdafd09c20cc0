// Package tark fetches transcript records from the Ensembl Tark transcript archive.
package tark

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// DefaultBaseURL is the public Tark API endpoint.
const DefaultBaseURL = "https://tark.ensembl.org/api"

// ErrProtocolMismatch is returned when the archive answers successfully but
// with something other than JSON, e.g. a proxy login page.
var ErrProtocolMismatch = errors.New("non-JSON response from transcript archive")

// Client issues queries against the Tark REST API.
// It performs no retries and sets no timeout of its own; use the context
// or the supplied *http.Client to bound requests.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a Tark client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client queries.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Transcripts returns the records for a stable ID, one per genome build.
// version < 0 matches any version. found is false when the archive has no
// data for the query.
func (c *Client) Transcripts(ctx context.Context, stableID string, version int) ([]*Transcript, bool, error) {
	params := url.Values{}
	params.Set("stable_id", stableID)
	params.Set("stable_id_version", "")
	if version >= 0 {
		params.Set("stable_id_version", strconv.Itoa(version))
	}
	params.Set("expand_all", "true")
	return c.Fetch(ctx, "transcript/", params)
}

// SearchGene returns transcripts whose identifiers match a gene symbol.
func (c *Client) SearchGene(ctx context.Context, symbol string) ([]*Transcript, bool, error) {
	params := url.Values{}
	params.Set("identifier_field", symbol)
	params.Set("expand", "exons,genes,sequence")
	return c.Fetch(ctx, "transcript/search/", params)
}

// Fetch issues one GET request and decodes the results collection.
// A non-2xx status or a body without a results collection is reported as
// found=false with a nil error.
func (c *Client) Fetch(ctx context.Context, path string, params url.Values) ([]*Transcript, bool, error) {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build tark request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("tark request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Debug("tark returned no data",
			zap.String("url", u),
			zap.Int("status", resp.StatusCode))
		return nil, false, nil
	}

	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		return nil, false, fmt.Errorf("%w for %q (Content-Type %q) - are you behind a firewall or proxy?",
			ErrProtocolMismatch, u, ct)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read tark response: %w", err)
	}

	results, ok, err := decodeResults(body)
	if err != nil {
		return nil, false, fmt.Errorf("decode tark response for %q: %w", u, err)
	}
	if !ok {
		c.logger.Debug("tark response has no results collection", zap.String("url", u))
	}
	return results, ok, nil
}

// decodeResults accepts either a paginated {"results": [...]} object or a
// bare array of records.
func decodeResults(body []byte) ([]*Transcript, bool, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, false, nil
	}

	if body[0] == '[' {
		var list []*Transcript
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, false, err
		}
		return list, true, nil
	}

	var page struct {
		Results *[]*Transcript `json:"results"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, false, err
	}
	if page.Results == nil {
		return nil, false, nil
	}
	return *page.Results, true, nil
}
