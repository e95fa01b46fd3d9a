// Package gasmodel implements C6: converting a route's estimated gas and a
// gas price into a token-denominated cost, using a bridge pool (slice 2
// from the pool selector) to price native gas in the quote token. All
// pricing uses big.Rat so the sqrtPriceX96-derived price never loses
// precision before its final floor to an integer token amount.
package gasmodel

import (
	"math/big"

	"github.com/clsor/router/internal/domain"
	"github.com/clsor/router/internal/poolaccessor"
)

var q192 = new(big.Int).Lsh(big.NewInt(1), 192)

// GasModel prices a route's gas estimate in the quote token. When no bridge
// pool is available, it degrades to a zero cost rather than failing: the
// gas estimate itself is still recorded by the caller.
type GasModel struct {
	gasPriceWei *big.Int
	nativeToken domain.Token
	quoteToken  domain.Token
	bridgePool  *domain.Pool
}

// Build locates the best available bridge pool (wrappedNative, quoteToken)
// among candidates — already TVL-sorted by the selector — resolving each
// through the pool accessor until one hydrates.
func Build(
	gasPriceWei *big.Int,
	wrappedNative domain.Token,
	quoteToken domain.Token,
	accessor *poolaccessor.Accessor,
	candidates []domain.SubgraphPool,
) *GasModel {
	gm := &GasModel{
		gasPriceWei: gasPriceWei,
		nativeToken: wrappedNative,
		quoteToken:  quoteToken,
	}

	for _, c := range candidates {
		if pool, ok := accessor.GetPool(wrappedNative, quoteToken, c.FeeTier); ok {
			p := pool
			gm.bridgePool = &p
			break
		}
	}

	return gm
}

// EstimateGasCost returns the route's gas cost in both the native gas token
// (wei) and the quote token. gasCostInQuoteToken is zero if no bridge pool
// was found.
func (gm *GasModel) EstimateGasCost(quoterGasEstimate *big.Int) (gasCostInToken, gasCostInQuoteToken *big.Int) {
	gasCostInToken = new(big.Int).Mul(gm.gasPriceWei, quoterGasEstimate)

	if gm.bridgePool == nil {
		return gasCostInToken, big.NewInt(0)
	}

	price := sqrtPriceX96ToToken1PerToken0(gm.bridgePool.SqrtPriceX96)

	var rat *big.Rat
	if gm.bridgePool.Token0.Equal(gm.nativeToken) {
		// quote token is token1: value_token1 = value_token0 * price
		rat = new(big.Rat).Mul(new(big.Rat).SetInt(gasCostInToken), price)
	} else {
		// quote token is token0: value_token0 = value_token1 / price
		rat = new(big.Rat).Quo(new(big.Rat).SetInt(gasCostInToken), price)
	}

	gasCostInQuoteToken = new(big.Int).Quo(rat.Num(), rat.Denom())
	return gasCostInToken, gasCostInQuoteToken
}

// sqrtPriceX96ToToken1PerToken0 computes the exact rational price of token0
// denominated in token1 (token1 per token0), from the Q64.96 fixed-point
// sqrtPriceX96 value:
// price = sqrtPriceX96^2 / 2^192.
func sqrtPriceX96ToToken1PerToken0(sqrtPriceX96 *big.Int) *big.Rat {
	numerator := new(big.Int).Mul(sqrtPriceX96, sqrtPriceX96)
	return new(big.Rat).SetFrac(numerator, q192)
}
