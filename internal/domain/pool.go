package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Pool is a concentrated-liquidity pool between two tokens at a given fee
// tier. token0.Address < token1.Address always holds; callers that resolve
// pools from an unordered (tokenA, tokenB) pair must sort first.
type Pool struct {
	Token0       Token
	Token1       Token
	Fee          uint32
	Liquidity    *big.Int
	SqrtPriceX96 *big.Int
	Tick         int32
}

// NewPool constructs a Pool, sorting the two tokens into canonical order.
func NewPool(tokenA, tokenB Token, fee uint32, liquidity, sqrtPriceX96 *big.Int, tick int32) Pool {
	token0, token1 := SortTokens(tokenA, tokenB)
	return Pool{
		Token0:       token0,
		Token1:       token1,
		Fee:          fee,
		Liquidity:    liquidity,
		SqrtPriceX96: sqrtPriceX96,
		Tick:         tick,
	}
}

// Address is the pool's deterministic identity, a function of
// (token0, token1, fee) alone — the Go stand-in for the on-chain factory's
// CREATE2 pool address. Two calls with the tokens in either order yield the
// same address because token0/token1 are always canonicalized first.
func (p Pool) Address() common.Address {
	return PoolAddress(p.Token0, p.Token1, p.Fee)
}

// PoolAddress computes the deterministic address for an (unordered) token
// pair and fee tier.
func PoolAddress(tokenA, tokenB Token, fee uint32) common.Address {
	token0, token1 := SortTokens(tokenA, tokenB)

	feeBytes := make([]byte, 4)
	big.NewInt(int64(fee)).FillBytes(feeBytes)

	packed := make([]byte, 0, 20+20+4)
	packed = append(packed, token0.Address.Bytes()...)
	packed = append(packed, token1.Address.Bytes()...)
	packed = append(packed, feeBytes...)

	hash := crypto.Keccak256Hash(packed)
	return common.BytesToAddress(hash.Bytes()[12:])
}

// HasToken reports whether the pool has the given token as one of its
// endpoints.
func (p Pool) HasToken(t Token) bool {
	return p.Token0.Equal(t) || p.Token1.Equal(t)
}

// OtherToken returns the pool's endpoint that is not t. Panics if the pool
// does not contain t; callers must check HasToken first (this mirrors the
// DFS invariant in the route enumerator, which only calls OtherToken on
// pools it already filtered by HasToken).
func (p Pool) OtherToken(t Token) Token {
	if p.Token0.Equal(t) {
		return p.Token1
	}
	if p.Token1.Equal(t) {
		return p.Token0
	}
	panic("domain: OtherToken called on a pool that does not contain the token")
}

// SubgraphPool is the shape returned by the external subgraph collaborator:
// pool metadata plus a USD-denominated TVL figure, before any on-chain
// hydration.
type SubgraphPool struct {
	ID                  string // on-chain pool address, lowercase hex
	Token0ID            string
	Token0Symbol        string
	Token1ID            string
	Token1Symbol        string
	FeeTier             uint32
	TotalValueLockedUSD *big.Float
}

// Address returns the subgraph pool's on-chain address.
func (s SubgraphPool) Address() common.Address {
	return common.HexToAddress(s.ID)
}
