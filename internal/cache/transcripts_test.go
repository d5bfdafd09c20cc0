package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/inodb/vibe-tark/internal/tark"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// countingFetcher serves canned records keyed by "id" or "id.version" and
// counts how often it is called.
type countingFetcher struct {
	calls     atomic.Int64
	responses map[string][]*tark.Transcript
	err       error
}

func (f *countingFetcher) Transcripts(_ context.Context, stableID string, version int) ([]*tark.Transcript, bool, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, false, f.err
	}
	key := stableID
	if version >= 0 {
		key = fmt.Sprintf("%s.%d", stableID, version)
	}
	recs, ok := f.responses[key]
	return recs, ok, nil
}

func rec(id string, version int, assembly string) *tark.Transcript {
	return &tark.Transcript{StableID: id, Version: version, Assembly: tark.AssemblyRef{Name: assembly}}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		ac   string
		want Key
		str  string
	}{
		{"ENST00000380152.7", Key{StableID: "ENST00000380152", Version: 7, HasVersion: true}, "ENST00000380152.7"},
		{"ENST00000380152", Key{StableID: "ENST00000380152"}, "ENST00000380152"},
		{"NM_000059.4", Key{StableID: "NM_000059", Version: 4, HasVersion: true}, "NM_000059.4"},
		{"ENST1.v2", Key{StableID: "ENST1.v2"}, "ENST1.v2"},
		{"ENST1.", Key{StableID: "ENST1."}, "ENST1."},
		{".3", Key{StableID: ".3"}, ".3"},
		{"a.b.12", Key{StableID: "a.b", Version: 12, HasVersion: true}, "a.b.12"},
	}

	for _, tt := range tests {
		t.Run(tt.ac, func(t *testing.T) {
			got := ParseKey(tt.ac)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.str, got.String())
		})
	}
}

func TestKey_QueryVersion(t *testing.T) {
	assert.Equal(t, -1, ParseKey("ENST1").QueryVersion())
	assert.Equal(t, 0, ParseKey("ENST1.0").QueryVersion())
	assert.Equal(t, 3, ParseKey("ENST1.3").QueryVersion())
}

func TestTranscriptCache_FetchesOnce(t *testing.T) {
	f := &countingFetcher{responses: map[string][]*tark.Transcript{
		"ENST00000380152.7": {rec("ENST00000380152", 7, "GRCh37"), rec("ENST00000380152", 7, "GRCh38")},
	}}
	c, err := NewTranscriptCache(f)
	require.NoError(t, err)

	first, err := c.Get(context.Background(), "ENST00000380152.7")
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := c.Get(context.Background(), "ENST00000380152.7")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), f.calls.Load())
	assert.Equal(t, int64(1), c.Fetches())
}

func TestTranscriptCache_NotFound(t *testing.T) {
	f := &countingFetcher{responses: map[string][]*tark.Transcript{
		"ENST2.1": {},
	}}
	c, err := NewTranscriptCache(f)
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "ENST1.1")
	require.ErrorIs(t, err, ErrTranscriptNotFound)
	assert.Contains(t, err.Error(), "ENST1.1")

	_, err = c.Get(context.Background(), "ENST2.1")
	require.ErrorIs(t, err, ErrTranscriptNotFound, "empty results count as not found")

	// Failures are not cached.
	_, err = c.Get(context.Background(), "ENST1.1")
	require.ErrorIs(t, err, ErrTranscriptNotFound)
	assert.Equal(t, int64(3), f.calls.Load())
	assert.Equal(t, 0, c.Len())
}

func TestTranscriptCache_FetchErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	c, err := NewTranscriptCache(&countingFetcher{err: boom})
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "ENST1.1")
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrTranscriptNotFound)
}

func TestTranscriptCache_UnversionedSeedsVersions(t *testing.T) {
	f := &countingFetcher{responses: map[string][]*tark.Transcript{
		"ENST1": {rec("ENST1", 1, "GRCh37"), rec("ENST1", 2, "GRCh37"), rec("ENST1", 2, "GRCh38")},
	}}
	c, err := NewTranscriptCache(f)
	require.NoError(t, err)

	all, err := c.Get(context.Background(), "ENST1")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	v2, err := c.Get(context.Background(), "ENST1.2")
	require.NoError(t, err)
	require.Len(t, v2, 2)
	assert.Equal(t, "GRCh37", v2[0].Assembly.Name)
	assert.Equal(t, "GRCh38", v2[1].Assembly.Name)

	v1, err := c.Get(context.Background(), "ENST1.1")
	require.NoError(t, err)
	assert.Len(t, v1, 1)

	assert.Equal(t, int64(1), f.calls.Load())
	assert.Equal(t, 3, c.Len())
}

func TestTranscriptCache_VersionedDoesNotSeedUnversioned(t *testing.T) {
	f := &countingFetcher{responses: map[string][]*tark.Transcript{
		"ENST1.2": {rec("ENST1", 2, "GRCh38")},
		"ENST1":   {rec("ENST1", 1, "GRCh38"), rec("ENST1", 2, "GRCh38")},
	}}
	c, err := NewTranscriptCache(f)
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "ENST1.2")
	require.NoError(t, err)
	all, err := c.Get(context.Background(), "ENST1")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, int64(2), f.calls.Load())

	// The existing versioned entry is kept, not overwritten.
	v2, err := c.Get(context.Background(), "ENST1.2")
	require.NoError(t, err)
	assert.Len(t, v2, 1)
	assert.Equal(t, int64(2), f.calls.Load())
}

func TestTranscriptCache_Bounded(t *testing.T) {
	f := &countingFetcher{responses: map[string][]*tark.Transcript{
		"A.1": {rec("A", 1, "GRCh38")},
		"B.1": {rec("B", 1, "GRCh38")},
	}}
	c, err := NewTranscriptCache(f, WithSize(1))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = c.Get(ctx, "A.1")
	require.NoError(t, err)
	_, err = c.Get(ctx, "B.1")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	// A.1 was evicted by B.1.
	_, err = c.Get(ctx, "A.1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), f.calls.Load())
}

func TestTranscriptCache_ConcurrentMissesShareFetch(t *testing.T) {
	f := &countingFetcher{responses: map[string][]*tark.Transcript{
		"ENST1.1": {rec("ENST1", 1, "GRCh38")},
	}}
	c, err := NewTranscriptCache(f)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recs, err := c.Get(context.Background(), "ENST1.1")
			assert.NoError(t, err)
			assert.Len(t, recs, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), f.calls.Load())
}

func TestTranscriptCache_BoundedKeepsRequestedKey(t *testing.T) {
	f := &countingFetcher{responses: map[string][]*tark.Transcript{
		"ENST1": {rec("ENST1", 1, "GRCh38"), rec("ENST1", 2, "GRCh38")},
	}}
	c, err := NewTranscriptCache(f, WithSize(2))
	require.NoError(t, err)

	ctx := context.Background()
	for range 2 {
		recs, err := c.Get(ctx, "ENST1")
		require.NoError(t, err)
		assert.Len(t, recs, 2)
	}
	assert.Equal(t, int64(1), f.calls.Load())
	assert.Equal(t, 2, c.Len())
}

// blockingFetcher blocks until released or its ctx is done.
type blockingFetcher struct {
	calls   atomic.Int64
	started chan struct{}
	release chan struct{}
}

func (f *blockingFetcher) Transcripts(ctx context.Context, stableID string, version int) ([]*tark.Transcript, bool, error) {
	if f.calls.Add(1) == 1 {
		close(f.started)
	}
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case <-f.release:
		return []*tark.Transcript{rec(stableID, version, "GRCh38")}, true, nil
	}
}

func TestTranscriptCache_CancelledCallerDoesNotFailOthers(t *testing.T) {
	f := &blockingFetcher{started: make(chan struct{}), release: make(chan struct{})}
	c, err := NewTranscriptCache(f)
	require.NoError(t, err)

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := c.Get(leaderCtx, "ENST1.1")
		leaderErr <- err
	}()
	<-f.started

	type result struct {
		recs []*tark.Transcript
		err  error
	}
	follower := make(chan result, 1)
	go func() {
		recs, err := c.Get(context.Background(), "ENST1.1")
		follower <- result{recs, err}
	}()

	cancel()
	assert.ErrorIs(t, <-leaderErr, context.Canceled)

	close(f.release)
	res := <-follower
	require.NoError(t, res.err)
	assert.Len(t, res.recs, 1)
	assert.Equal(t, int64(1), f.calls.Load())

	// The detached fetch still populated the cache.
	_, err = c.Get(context.Background(), "ENST1.1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.calls.Load())
}
