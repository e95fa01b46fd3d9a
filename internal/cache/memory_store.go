package cache

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/clsor/router/internal/domain"
)

// MemoryStore is the local-process tier of the subgraph pool-universe
// cache: an in-memory index keyed by pool address plus a token-pair index
// over domain.SubgraphPool.
type MemoryStore struct {
	pools      map[string]*domain.SubgraphPool
	tokenPairs map[string]map[string][]string // tokenA -> tokenB -> []poolAddress
	mutex      sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pools:      make(map[string]*domain.SubgraphPool),
		tokenPairs: make(map[string]map[string][]string),
	}
}

func (ms *MemoryStore) StorePool(ctx context.Context, pool *domain.SubgraphPool) error {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	id := strings.ToLower(pool.ID)
	ms.pools[id] = pool

	token0 := strings.ToLower(pool.Token0ID)
	token1 := strings.ToLower(pool.Token1ID)

	if ms.tokenPairs[token0] == nil {
		ms.tokenPairs[token0] = make(map[string][]string)
	}
	if ms.tokenPairs[token1] == nil {
		ms.tokenPairs[token1] = make(map[string][]string)
	}

	ms.tokenPairs[token0][token1] = append(ms.tokenPairs[token0][token1], id)
	ms.tokenPairs[token1][token0] = append(ms.tokenPairs[token1][token0], id)

	return nil
}

func (ms *MemoryStore) GetPool(ctx context.Context, address string) (*domain.SubgraphPool, error) {
	ms.mutex.RLock()
	defer ms.mutex.RUnlock()

	pool, exists := ms.pools[strings.ToLower(address)]
	if !exists {
		return nil, fmt.Errorf("pool not found: %s", address)
	}
	return pool, nil
}

func (ms *MemoryStore) GetPoolsByTokens(ctx context.Context, tokenA, tokenB string) ([]*domain.SubgraphPool, error) {
	ms.mutex.RLock()
	defer ms.mutex.RUnlock()

	tokenA = strings.ToLower(tokenA)
	tokenB = strings.ToLower(tokenB)

	var pools []*domain.SubgraphPool
	if pairs, ok := ms.tokenPairs[tokenA]; ok {
		if poolIDs, ok := pairs[tokenB]; ok {
			for _, id := range poolIDs {
				if pool, exists := ms.pools[id]; exists {
					pools = append(pools, pool)
				}
			}
		}
	}

	log.Printf("cache: found %d pools for token pair %s/%s", len(pools), tokenA, tokenB)
	return pools, nil
}

func (ms *MemoryStore) GetAllPools(ctx context.Context) ([]*domain.SubgraphPool, error) {
	ms.mutex.RLock()
	defer ms.mutex.RUnlock()

	pools := make([]*domain.SubgraphPool, 0, len(ms.pools))
	for _, pool := range ms.pools {
		pools = append(pools, pool)
	}
	return pools, nil
}
