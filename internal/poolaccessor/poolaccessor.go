// Package poolaccessor implements C2: resolving (tokenA, tokenB, fee)
// tuples into live on-chain pool state via one batched eth_call dispatch.
// Encoding/decoding follows the slinky Uniswap V3 fetcher's
// accounts/abi + rpc.BatchElem pattern; the pool's deterministic address
// comes from domain.PoolAddress.
package poolaccessor

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/clsor/router/internal/chainclient"
	"github.com/clsor/router/internal/domain"
)

const poolABIJSON = `[
  {"inputs":[],"name":"liquidity","outputs":[{"internalType":"uint128","name":"","type":"uint128"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"slot0","outputs":[{"internalType":"uint160","name":"sqrtPriceX96","type":"uint160"},{"internalType":"int24","name":"tick","type":"int24"},{"internalType":"uint16","name":"observationIndex","type":"uint16"},{"internalType":"uint16","name":"observationCardinality","type":"uint16"},{"internalType":"uint16","name":"observationCardinalityNext","type":"uint16"},{"internalType":"uint8","name":"feeProtocol","type":"uint8"},{"internalType":"bool","name":"unlocked","type":"bool"}],"stateMutability":"view","type":"function"}
]`

var poolABI *abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(poolABIJSON))
	if err != nil {
		panic(fmt.Sprintf("poolaccessor: invalid embedded pool ABI: %v", err))
	}
	poolABI = &parsed
}

// Tuple identifies a candidate pool before resolution; TokenA/TokenB need
// not already be in canonical order.
type Tuple struct {
	TokenA domain.Token
	TokenB domain.Token
	Fee    uint32
}

// Accessor is C2's return value: a read-only, request-scoped index of
// hydrated pools keyed by deterministic address.
type Accessor struct {
	pools map[common.Address]domain.Pool
}

type pendingPool struct {
	token0 domain.Token
	token1 domain.Token
	fee    uint32
}

// Fetch normalises tuples into canonical (token0, token1, fee) form,
// deduplicates by address, and fetches liquidity + slot0 for all of them in
// a single batched eth_call dispatch. Pools whose calls error or decode
// empty are silently omitted — callers must tolerate missing pools.
func Fetch(ctx context.Context, client chainclient.Client, tuples []Tuple) (*Accessor, error) {
	seen := make(map[common.Address]pendingPool)
	for _, t := range tuples {
		token0, token1 := domain.SortTokens(t.TokenA, t.TokenB)
		addr := domain.PoolAddress(token0, token1, t.Fee)
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = pendingPool{token0: token0, token1: token1, fee: t.Fee}
	}

	if len(seen) == 0 {
		return &Accessor{pools: map[common.Address]domain.Pool{}}, nil
	}

	addrs := make([]common.Address, 0, len(seen))
	for addr := range seen {
		addrs = append(addrs, addr)
	}

	liquidityPayload, err := poolABI.Pack("liquidity")
	if err != nil {
		return nil, fmt.Errorf("poolaccessor: pack liquidity call: %w", err)
	}
	slot0Payload, err := poolABI.Pack("slot0")
	if err != nil {
		return nil, fmt.Errorf("poolaccessor: pack slot0 call: %w", err)
	}

	batch := make([]rpc.BatchElem, 0, len(addrs)*2)
	liquidityResults := make([]string, len(addrs))
	slot0Results := make([]string, len(addrs))

	for i, addr := range addrs {
		batch = append(batch,
			rpc.BatchElem{
				Method: "eth_call",
				Args: []interface{}{
					map[string]interface{}{"to": addr, "data": hexutil.Bytes(liquidityPayload)},
					"latest",
				},
				Result: &liquidityResults[i],
			},
			rpc.BatchElem{
				Method: "eth_call",
				Args: []interface{}{
					map[string]interface{}{"to": addr, "data": hexutil.Bytes(slot0Payload)},
					"latest",
				},
				Result: &slot0Results[i],
			},
		)
	}

	if err := client.BatchCall(ctx, batch); err != nil {
		return nil, domain.TransportFailureError{Stage: "poolaccessor.fetch", Err: err}
	}

	hydrated := make(map[common.Address]domain.Pool, len(addrs))
	for i, addr := range addrs {
		liquidityElem := batch[2*i]
		slot0Elem := batch[2*i+1]

		if liquidityElem.Error != nil || slot0Elem.Error != nil {
			log.Printf("poolaccessor: pool %s failed to hydrate, omitting", addr.Hex())
			continue
		}

		liquidity, ok := decodeLiquidity(liquidityResults[i])
		if !ok {
			log.Printf("poolaccessor: pool %s returned empty liquidity, omitting", addr.Hex())
			continue
		}
		sqrtPriceX96, tick, ok := decodeSlot0(slot0Results[i])
		if !ok {
			log.Printf("poolaccessor: pool %s returned empty slot0, omitting", addr.Hex())
			continue
		}

		p := seen[addr]
		hydrated[addr] = domain.NewPool(p.token0, p.token1, p.fee, liquidity, sqrtPriceX96, tick)
	}

	return &Accessor{pools: hydrated}, nil
}

func decodeLiquidity(hexResult string) (*big.Int, bool) {
	if hexResult == "" || hexResult == "0x" {
		return nil, false
	}
	data, err := hexutil.Decode(hexResult)
	if err != nil {
		return nil, false
	}
	out, err := poolABI.Methods["liquidity"].Outputs.UnpackValues(data)
	if err != nil || len(out) == 0 {
		return nil, false
	}
	liquidity, ok := out[0].(*big.Int)
	if !ok {
		return nil, false
	}
	return liquidity, true
}

func decodeSlot0(hexResult string) (*big.Int, int32, bool) {
	if hexResult == "" || hexResult == "0x" {
		return nil, 0, false
	}
	data, err := hexutil.Decode(hexResult)
	if err != nil {
		return nil, 0, false
	}
	out, err := poolABI.Methods["slot0"].Outputs.UnpackValues(data)
	if err != nil || len(out) < 2 {
		return nil, 0, false
	}
	sqrtPriceX96, ok := out[0].(*big.Int)
	if !ok {
		return nil, 0, false
	}
	tickBig, ok := out[1].(*big.Int)
	if !ok {
		return nil, 0, false
	}
	return sqrtPriceX96, int32(tickBig.Int64()), true
}

// GetPool looks up a pool by its token pair and fee, independent of
// argument order.
func (a *Accessor) GetPool(tokenA, tokenB domain.Token, fee uint32) (domain.Pool, bool) {
	token0, token1 := domain.SortTokens(tokenA, tokenB)
	addr := domain.PoolAddress(token0, token1, fee)
	p, ok := a.pools[addr]
	return p, ok
}

func (a *Accessor) GetPoolByAddress(addr common.Address) (domain.Pool, bool) {
	p, ok := a.pools[addr]
	return p, ok
}

func (a *Accessor) GetAllPools() []domain.Pool {
	pools := make([]domain.Pool, 0, len(a.pools))
	for _, p := range a.pools {
		pools = append(pools, p)
	}
	return pools
}
