package gasmodel

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clsor/router/internal/domain"
	"github.com/clsor/router/internal/poolaccessor"
)

func tok(addr, symbol string) domain.Token {
	return domain.NewToken(1, addr, symbol, 18)
}

func TestEstimateGasCost_NoBridgePool_DegradesToZero(t *testing.T) {
	native := tok("0x0000000000000000000000000000000000000001", "WETH")
	quote := tok("0x0000000000000000000000000000000000000002", "USDC")

	accessor, err := poolaccessor.Fetch(context.Background(), nil, nil)
	require.NoError(t, err)

	gm := Build(big.NewInt(50_000_000_000), native, quote, accessor, nil)

	gasInToken, gasInQuote := gm.EstimateGasCost(big.NewInt(150_000))
	assert.Equal(t, new(big.Int).Mul(big.NewInt(50_000_000_000), big.NewInt(150_000)), gasInToken)
	assert.Equal(t, big.NewInt(0), gasInQuote)
}

func TestEstimateGasCost_PricesThroughBridgePool(t *testing.T) {
	native := tok("0x0000000000000000000000000000000000000001", "WETH")
	quote := tok("0x0000000000000000000000000000000000000002", "USDC")

	// sqrtPriceX96 = 2^96 means price(token1/token0) == 1 exactly.
	sqrtPriceX96 := new(big.Int).Lsh(big.NewInt(1), 96)

	token0, token1 := domain.SortTokens(native, quote)
	pool := domain.NewPool(token0, token1, 500, big.NewInt(1), sqrtPriceX96, 0)

	gm := &GasModel{
		gasPriceWei: big.NewInt(1000),
		nativeToken: native,
		quoteToken:  quote,
		bridgePool:  &pool,
	}

	gasInToken, gasInQuote := gm.EstimateGasCost(big.NewInt(100))
	assert.Equal(t, big.NewInt(100_000), gasInToken)
	// price == 1, so the quote-token value equals the native-token value
	// regardless of which side of the pool WETH sits on.
	assert.Equal(t, big.NewInt(100_000), gasInQuote)
}
