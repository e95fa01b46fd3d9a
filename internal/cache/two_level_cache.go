package cache

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/clsor/router/internal/domain"
)

// TwoLevelCache provides caching with both memory and Redis layers for the
// subgraph pool-universe snapshot (domain.SubgraphPool).
type TwoLevelCache struct {
	localCache *MemoryStore
	redisCache *RedisStore
	localTTL   time.Duration
	mutex      sync.RWMutex
	stats      *CacheStats
}

// CacheStats tracks cache performance metrics.
type CacheStats struct {
	LocalHits   int64
	LocalMisses int64
	RedisHits   int64
	RedisMisses int64
	mutex       sync.RWMutex
}

func NewTwoLevelCache(redisAddr, redisPassword string, localTTL time.Duration) *TwoLevelCache {
	return &TwoLevelCache{
		localCache: NewMemoryStore(),
		redisCache: NewRedisStore(redisAddr, redisPassword),
		localTTL:   localTTL,
		stats:      &CacheStats{},
	}
}

// StorePool stores pool in both cache layers.
func (tlc *TwoLevelCache) StorePool(ctx context.Context, pool *domain.SubgraphPool) error {
	if err := tlc.localCache.StorePool(ctx, pool); err != nil {
		log.Printf("cache: failed to store pool in local cache: %v", err)
	}

	if err := tlc.redisCache.StorePool(ctx, pool); err != nil {
		return fmt.Errorf("failed to store pool in redis: %w", err)
	}
	return nil
}

// GetPool retrieves a pool with two-level cache lookup.
func (tlc *TwoLevelCache) GetPool(ctx context.Context, address string) (*domain.SubgraphPool, error) {
	pool, err := tlc.localCache.GetPool(ctx, address)
	if err == nil {
		tlc.stats.mutex.Lock()
		tlc.stats.LocalHits++
		tlc.stats.mutex.Unlock()
		return pool, nil
	}

	tlc.stats.mutex.Lock()
	tlc.stats.LocalMisses++
	tlc.stats.mutex.Unlock()

	pool, err = tlc.redisCache.GetPool(ctx, address)
	if err != nil {
		tlc.stats.mutex.Lock()
		tlc.stats.RedisMisses++
		tlc.stats.mutex.Unlock()
		return nil, err
	}

	tlc.stats.mutex.Lock()
	tlc.stats.RedisHits++
	tlc.stats.mutex.Unlock()

	go func() {
		bgCtx := context.Background()
		if err := tlc.localCache.StorePool(bgCtx, pool); err != nil {
			log.Printf("cache: failed to backfill local cache: %v", err)
		}
	}()

	return pool, nil
}

// GetAllPools gets all pools, using Redis as the source of truth and
// warming the local tier in the background.
func (tlc *TwoLevelCache) GetAllPools(ctx context.Context) ([]*domain.SubgraphPool, error) {
	pools, err := tlc.redisCache.GetAllPools(ctx)
	if err != nil {
		return nil, err
	}

	go tlc.warmLocalCache(pools)

	return pools, nil
}

func (tlc *TwoLevelCache) warmLocalCache(pools []*domain.SubgraphPool) {
	bgCtx := context.Background()
	for _, pool := range pools {
		if err := tlc.localCache.StorePool(bgCtx, pool); err != nil {
			log.Printf("cache: failed to warm local cache: %v", err)
		}
	}
}

// GetPoolsByTokens searches pools by token pair, using Redis directly since
// the memory store's index is not queried cross-process.
func (tlc *TwoLevelCache) GetPoolsByTokens(ctx context.Context, tokenA, tokenB string) ([]*domain.SubgraphPool, error) {
	return tlc.redisCache.GetPoolsByTokens(ctx, tokenA, tokenB)
}

// GetStats returns cache performance statistics.
func (tlc *TwoLevelCache) GetStats() *CacheStats {
	tlc.stats.mutex.RLock()
	defer tlc.stats.mutex.RUnlock()

	return &CacheStats{
		LocalHits:   tlc.stats.LocalHits,
		LocalMisses: tlc.stats.LocalMisses,
		RedisHits:   tlc.stats.RedisHits,
		RedisMisses: tlc.stats.RedisMisses,
	}
}
