package loader

import (
	"context"
	"sync"

	"agcarbon/internal/core"

	"golang.org/x/sync/singleflight"
)

// Source supplies the base dataset for a render cycle.
type Source interface {
	Dataset(ctx context.Context) (core.Dataset, error)
}

// Store is the process-wide dataset cache: initialized lazily on first
// access, read-only afterwards, torn down only at process exit. A
// successful load is never fetched again within one session; a failed
// load is returned to its callers without being cached, so the next
// cycle may attempt the single fetch again. Concurrent first accesses
// collapse into one network fetch via singleflight.
type Store struct {
	load func(ctx context.Context) (core.Dataset, error)

	mu     sync.RWMutex
	data   core.Dataset
	loaded bool

	group singleflight.Group
}

var _ Source = (*Store)(nil)

// NewStore wraps a Client in a one-shot cache.
func NewStore(c *Client) *Store {
	return &Store{load: c.Load}
}

// NewStoreFunc wraps an arbitrary load function; used by tests.
func NewStoreFunc(load func(ctx context.Context) (core.Dataset, error)) *Store {
	return &Store{load: load}
}

// Dataset returns the cached dataset, loading it on first use.
func (s *Store) Dataset(ctx context.Context) (core.Dataset, error) {
	s.mu.RLock()
	if s.loaded {
		d := s.data
		s.mu.RUnlock()
		return d, nil
	}
	s.mu.RUnlock()

	v, err, _ := s.group.Do("dataset", func() (any, error) {
		// Another caller may have populated the cache while this one
		// waited on the flight group.
		s.mu.RLock()
		if s.loaded {
			d := s.data
			s.mu.RUnlock()
			return d, nil
		}
		s.mu.RUnlock()

		d, err := s.load(ctx)
		if err != nil {
			return core.Dataset{}, err
		}

		s.mu.Lock()
		s.data = d
		s.loaded = true
		s.mu.Unlock()
		return d, nil
	})
	if err != nil {
		return core.Dataset{}, err
	}
	return v.(core.Dataset), nil
}

// Loaded reports whether the dataset cache is populated. Used by the
// readiness endpoint.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}
