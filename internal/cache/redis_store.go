package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/clsor/router/internal/domain"
)

// Store is the persistence seam for a snapshot of the subgraph pool
// universe (domain.SubgraphPool), shared by MemoryStore, RedisStore and
// TwoLevelCache. It deliberately carries no token methods: the router's
// token registry is a long-lived, read-only list passed into the
// orchestrator, not something this per-request pool-universe cache
// hydrates.
type Store interface {
	StorePool(ctx context.Context, pool *domain.SubgraphPool) error
	GetPool(ctx context.Context, address string) (*domain.SubgraphPool, error)
	GetPoolsByTokens(ctx context.Context, tokenA, tokenB string) ([]*domain.SubgraphPool, error)
	GetAllPools(ctx context.Context) ([]*domain.SubgraphPool, error)
}

type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(addr, password string) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	return &RedisStore{
		client: client,
		prefix: "sor:",
	}
}

func (rs *RedisStore) StorePool(ctx context.Context, pool *domain.SubgraphPool) error {
	id := strings.ToLower(pool.ID)
	key := fmt.Sprintf("%spool:%s", rs.prefix, id)

	data, err := json.Marshal(pool)
	if err != nil {
		return err
	}

	if err := rs.client.Set(ctx, key, data, 24*time.Hour).Err(); err != nil {
		return err
	}

	tokenPairKey := fmt.Sprintf("%stoken_pair:%s:%s", rs.prefix, strings.ToLower(pool.Token0ID), strings.ToLower(pool.Token1ID))
	if err := rs.client.SAdd(ctx, tokenPairKey, id).Err(); err != nil {
		return err
	}
	rs.client.Expire(ctx, tokenPairKey, 24*time.Hour)

	allPoolsKey := fmt.Sprintf("%sall_pools", rs.prefix)
	return rs.client.SAdd(ctx, allPoolsKey, id).Err()
}

func (rs *RedisStore) GetPool(ctx context.Context, address string) (*domain.SubgraphPool, error) {
	key := fmt.Sprintf("%spool:%s", rs.prefix, strings.ToLower(address))

	data, err := rs.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("pool not found: %s", address)
		}
		return nil, err
	}

	var pool domain.SubgraphPool
	if err := json.Unmarshal([]byte(data), &pool); err != nil {
		return nil, err
	}
	return &pool, nil
}

func (rs *RedisStore) GetAllPools(ctx context.Context) ([]*domain.SubgraphPool, error) {
	allPoolsKey := fmt.Sprintf("%sall_pools", rs.prefix)

	poolIDs, err := rs.client.SMembers(ctx, allPoolsKey).Result()
	if err != nil {
		return nil, err
	}
	if len(poolIDs) == 0 {
		return []*domain.SubgraphPool{}, nil
	}

	pipe := rs.client.Pipeline()
	cmds := make(map[string]*redis.StringCmd, len(poolIDs))
	for _, id := range poolIDs {
		key := fmt.Sprintf("%spool:%s", rs.prefix, id)
		cmds[id] = pipe.Get(ctx, key)
	}

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		log.Printf("cache: redis pipeline exec error: %v", err)
		return nil, err
	}

	var pools []*domain.SubgraphPool
	for id, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil {
			if err != redis.Nil {
				log.Printf("cache: failed to get pool %s from pipeline: %v", id, err)
			}
			continue
		}
		var pool domain.SubgraphPool
		if err := json.Unmarshal([]byte(data), &pool); err != nil {
			log.Printf("cache: failed to unmarshal pool %s: %v", id, err)
			continue
		}
		pools = append(pools, &pool)
	}

	return pools, nil
}

func (rs *RedisStore) GetPoolsByTokens(ctx context.Context, tokenA, tokenB string) ([]*domain.SubgraphPool, error) {
	tokenA, tokenB = strings.ToLower(tokenA), strings.ToLower(tokenB)
	keys := []string{
		fmt.Sprintf("%stoken_pair:%s:%s", rs.prefix, tokenA, tokenB),
		fmt.Sprintf("%stoken_pair:%s:%s", rs.prefix, tokenB, tokenA),
	}

	var poolIDs []string
	for _, key := range keys {
		ids, err := rs.client.SMembers(ctx, key).Result()
		if err == nil && len(ids) > 0 {
			poolIDs = append(poolIDs, ids...)
		}
	}

	var pools []*domain.SubgraphPool
	for _, id := range poolIDs {
		pool, err := rs.GetPool(ctx, id)
		if err == nil && pool != nil {
			pools = append(pools, pool)
		}
	}
	return pools, nil
}
