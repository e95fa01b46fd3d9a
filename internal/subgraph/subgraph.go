// Package subgraph provides the pool-universe collaborator the selector
// pulls from. Fetching a subgraph over the network is explicitly out of
// core scope; this package defines the Provider seam and a cache-backed
// decorator that persists the fetched universe into a cache.Store.
package subgraph

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/clsor/router/internal/cache"
	"github.com/clsor/router/internal/domain"
)

// Provider is the external subgraph collaborator: it returns the full
// pool universe, unsorted, token identifiers as lowercase hex addresses.
type Provider interface {
	GetPools(ctx context.Context) ([]domain.SubgraphPool, error)
}

// StaticProvider serves a fixed pool universe. Production wiring would
// replace this with an HTTP client against a real subgraph endpoint; the
// core only depends on the Provider interface above.
type StaticProvider struct {
	pools []domain.SubgraphPool
}

func NewStaticProvider(pools []domain.SubgraphPool) *StaticProvider {
	return &StaticProvider{pools: pools}
}

func (p *StaticProvider) GetPools(ctx context.Context) ([]domain.SubgraphPool, error) {
	return p.pools, nil
}

// CachedProvider wraps a Provider with a short TTL so repeated requests
// within one window reuse a single fetch, without replacing the
// per-request fetch semantics of the wrapped Provider.
type CachedProvider struct {
	inner Provider
	ttl   time.Duration

	mu        sync.Mutex
	snapshot  []domain.SubgraphPool
	fetchedAt time.Time
}

func NewCachedProvider(inner Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{inner: inner, ttl: ttl}
}

func (c *CachedProvider) GetPools(ctx context.Context) ([]domain.SubgraphPool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snapshot != nil && time.Since(c.fetchedAt) < c.ttl {
		log.Printf("subgraph: serving %d pools from cache (age %s)", len(c.snapshot), time.Since(c.fetchedAt))
		return c.snapshot, nil
	}

	pools, err := c.inner.GetPools(ctx)
	if err != nil {
		return nil, err
	}

	c.snapshot = pools
	c.fetchedAt = time.Now()
	log.Printf("subgraph: refreshed snapshot, %d pools", len(pools))
	return pools, nil
}

// StoreBackedProvider persists the fetched pool universe into a
// cache.Store (memory, Redis, or the two-level combination) with a TTL.
// Unlike CachedProvider's process-local snapshot, a Redis-backed Store
// survives process restarts and is shared across router instances.
type StoreBackedProvider struct {
	inner Provider
	store cache.Store
	ttl   time.Duration

	mu          sync.Mutex
	lastRefresh time.Time
}

func NewStoreBackedProvider(inner Provider, store cache.Store, ttl time.Duration) *StoreBackedProvider {
	return &StoreBackedProvider{inner: inner, store: store, ttl: ttl}
}

func (s *StoreBackedProvider) GetPools(ctx context.Context) ([]domain.SubgraphPool, error) {
	s.mu.Lock()
	fresh := !s.lastRefresh.IsZero() && time.Since(s.lastRefresh) < s.ttl
	s.mu.Unlock()

	if fresh {
		cached, err := s.store.GetAllPools(ctx)
		if err == nil && len(cached) > 0 {
			log.Printf("subgraph: serving %d pools from store cache", len(cached))
			return derefPools(cached), nil
		}
	}

	pools, err := s.inner.GetPools(ctx)
	if err != nil {
		return nil, err
	}

	for i := range pools {
		p := pools[i]
		if err := s.store.StorePool(ctx, &p); err != nil {
			log.Printf("subgraph: failed to persist pool %s: %v", p.ID, err)
		}
	}

	s.mu.Lock()
	s.lastRefresh = time.Now()
	s.mu.Unlock()

	log.Printf("subgraph: refreshed store cache, %d pools", len(pools))
	return pools, nil
}

func derefPools(pools []*domain.SubgraphPool) []domain.SubgraphPool {
	out := make([]domain.SubgraphPool, len(pools))
	for i, p := range pools {
		out[i] = *p
	}
	return out
}
