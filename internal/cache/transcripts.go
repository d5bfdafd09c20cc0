// Package cache memoizes Tark transcript lookups for the lifetime of a provider.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/inodb/vibe-tark/internal/tark"
)

// ErrTranscriptNotFound is returned when the archive has no records for an accession.
var ErrTranscriptNotFound = errors.New("transcript not found")

// Fetcher retrieves the per-build records for a transcript.
// version < 0 matches any version.
type Fetcher interface {
	Transcripts(ctx context.Context, stableID string, version int) ([]*tark.Transcript, bool, error)
}

// store holds record lists by key. Implementations must be safe for concurrent use.
type store interface {
	get(k Key) ([]*tark.Transcript, bool)
	add(k Key, recs []*tark.Transcript)
	addIfAbsent(k Key, recs []*tark.Transcript)
	len() int
}

// TranscriptCache returns per-build transcript records, fetching each key at
// most once. Concurrent misses for the same key share a single fetch.
type TranscriptCache struct {
	fetcher Fetcher
	store   store
	group   singleflight.Group
	logger  *zap.Logger
	fetches atomic.Int64
}

// Option configures a TranscriptCache.
type Option func(*cacheConfig)

type cacheConfig struct {
	size   int
	logger *zap.Logger
}

// WithSize bounds the cache to n keys with least-recently-used eviction.
// n <= 0 means unbounded.
func WithSize(n int) Option {
	return func(c *cacheConfig) { c.size = n }
}

// WithLogger sets the logger for cache diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *cacheConfig) { c.logger = l }
}

// NewTranscriptCache creates a cache backed by the given fetcher.
func NewTranscriptCache(f Fetcher, opts ...Option) (*TranscriptCache, error) {
	cfg := cacheConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	var s store = &mapStore{m: make(map[Key][]*tark.Transcript)}
	if cfg.size > 0 {
		l, err := lru.New[Key, []*tark.Transcript](cfg.size)
		if err != nil {
			return nil, fmt.Errorf("create lru cache: %w", err)
		}
		s = &lruStore{l: l}
	}

	return &TranscriptCache{
		fetcher: f,
		store:   s,
		logger:  cfg.logger,
	}, nil
}

// Get returns the records for an accession such as "ENST00000380152.7" or
// "ENST00000380152". An unversioned fetch also populates the versioned keys
// of every version it returned.
//
// The shared fetch is detached from the caller that started it, so a caller
// whose ctx is cancelled returns ctx.Err() without failing the others.
func (c *TranscriptCache) Get(ctx context.Context, ac string) ([]*tark.Transcript, error) {
	key := ParseKey(ac)
	if recs, ok := c.store.get(key); ok {
		return recs, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key.String(), func() (any, error) {
		if recs, ok := c.store.get(key); ok {
			return recs, nil
		}

		c.fetches.Add(1)
		recs, found, err := c.fetcher.Transcripts(fetchCtx, key.StableID, key.QueryVersion())
		if err != nil {
			return nil, err
		}
		if !found || len(recs) == 0 {
			return nil, fmt.Errorf("%w: no results for %q", ErrTranscriptNotFound, ac)
		}

		// The requested key goes in last so seeding cannot evict it from a bounded store.
		if !key.HasVersion {
			c.seedVersions(key, recs)
		}
		c.store.add(key, recs)
		c.logger.Debug("cached transcript",
			zap.String("key", key.String()),
			zap.Int("records", len(recs)))
		return recs, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]*tark.Transcript), nil
	}
}

func (c *TranscriptCache) seedVersions(key Key, recs []*tark.Transcript) {
	byVersion := make(map[int][]*tark.Transcript)
	var order []int
	for _, r := range recs {
		if _, ok := byVersion[r.Version]; !ok {
			order = append(order, r.Version)
		}
		byVersion[r.Version] = append(byVersion[r.Version], r)
	}
	for _, v := range order {
		c.store.addIfAbsent(key.WithVersion(v), byVersion[v])
	}
}

// Len returns the number of cached keys.
func (c *TranscriptCache) Len() int {
	return c.store.len()
}

// Fetches returns how many remote fetches the cache has issued.
func (c *TranscriptCache) Fetches() int64 {
	return c.fetches.Load()
}

// mapStore is an unbounded store.
type mapStore struct {
	mu sync.RWMutex
	m  map[Key][]*tark.Transcript
}

func (s *mapStore) get(k Key) ([]*tark.Transcript, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs, ok := s.m[k]
	return recs, ok
}

func (s *mapStore) add(k Key, recs []*tark.Transcript) {
	s.mu.Lock()
	s.m[k] = recs
	s.mu.Unlock()
}

func (s *mapStore) addIfAbsent(k Key, recs []*tark.Transcript) {
	s.mu.Lock()
	if _, ok := s.m[k]; !ok {
		s.m[k] = recs
	}
	s.mu.Unlock()
}

func (s *mapStore) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// lruStore is a bounded store; golang-lru does its own locking.
type lruStore struct {
	l *lru.Cache[Key, []*tark.Transcript]
}

func (s *lruStore) get(k Key) ([]*tark.Transcript, bool) { return s.l.Get(k) }
func (s *lruStore) add(k Key, recs []*tark.Transcript) { s.l.Add(k, recs) }
func (s *lruStore) addIfAbsent(k Key, recs []*tark.Transcript) { s.l.ContainsOrAdd(k, recs) }
func (s *lruStore) len() int { return s.l.Len() }
