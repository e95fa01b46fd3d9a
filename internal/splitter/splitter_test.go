package splitter

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clsor/router/internal/domain"
	"github.com/clsor/router/internal/gasmodel"
	"github.com/clsor/router/internal/poolaccessor"
	"github.com/clsor/router/internal/quoter"
)

func tok(addr, symbol string) domain.Token {
	return domain.NewToken(1, addr, symbol, 18)
}

func route(tokenIn, tokenOut domain.Token, fee uint32) domain.Route {
	pool := domain.NewPool(tokenIn, tokenOut, fee, big.NewInt(1_000_000), big.NewInt(1), 0)
	return domain.Route{Pools: []domain.Pool{pool}, TokenIn: tokenIn, TokenOut: tokenOut}
}

// quotesAt builds a []AmountQuote of length n, populated with valid quotes
// only at the given index -> raw-quote map; every other slot is left zero
// (invalid), matching a real quoter result with holes from failed calls.
func quotesAt(n int, at map[int]int64) []domain.AmountQuote {
	qs := make([]domain.AmountQuote, n)
	for i, raw := range at {
		qs[i] = domain.AmountQuote{
			Amount:                      big.NewInt(1),
			Quote:                       big.NewInt(raw),
			SqrtPriceX96AfterList:       []*big.Int{big.NewInt(1)},
			InitializedTicksCrossedList: []int32{0},
			GasEstimate:                 big.NewInt(21_000),
		}
	}
	return qs
}

func zeroCostGasModel(t *testing.T) *gasmodel.GasModel {
	t.Helper()
	native := tok("0x0000000000000000000000000000000000000f", "WETH")
	quote := tok("0x0000000000000000000000000000000000000e", "USDC")
	accessor, err := poolaccessor.Fetch(context.Background(), nil, nil)
	require.NoError(t, err)
	return gasmodel.Build(big.NewInt(0), native, quote, accessor, nil)
}

func TestFindBest_BaselineOnlyNoDisjointAlternative(t *testing.T) {
	tokenIn := tok("0x0000000000000000000000000000000000000001", "IN")
	tokenOut := tok("0x0000000000000000000000000000000000000002", "OUT")
	r1 := route(tokenIn, tokenOut, 500)

	percents := []int{50, 100}
	routesWithQuotes := []quoter.RouteQuotes{
		{Route: r1, Quotes: quotesAt(2, map[int]int64{0: 45, 1: 80})},
	}

	gm := zeroCostGasModel(t)
	cfg := domain.DefaultRouterConfig()

	plan, err := FindBest(percents, routesWithQuotes, domain.Token{}, domain.ExactIn, gm, cfg)
	require.NoError(t, err)
	require.NotNil(t, plan)

	assert.Equal(t, big.NewInt(80), plan.Quote)
	require.Len(t, plan.RouteAmounts, 1)
	assert.Equal(t, 100, plan.RouteAmounts[0].Percentage)
}

func TestFindBest_ForcedTwoSplit(t *testing.T) {
	tokenIn := tok("0x0000000000000000000000000000000000000001", "IN")
	tokenOut := tok("0x0000000000000000000000000000000000000002", "OUT")
	bridge := tok("0x0000000000000000000000000000000000000003", "X")

	r1 := route(tokenIn, tokenOut, 500)
	r2 := route(tokenIn, bridge, 3000)

	percents := []int{50, 100}
	routesWithQuotes := []quoter.RouteQuotes{
		{Route: r1, Quotes: quotesAt(2, map[int]int64{0: 45, 1: 80})},
		{Route: r2, Quotes: quotesAt(2, map[int]int64{0: 48})},
	}

	gm := zeroCostGasModel(t)
	cfg := domain.DefaultRouterConfig()

	plan, err := FindBest(percents, routesWithQuotes, domain.Token{}, domain.ExactIn, gm, cfg)
	require.NoError(t, err)
	require.NotNil(t, plan)

	assert.Equal(t, big.NewInt(93), plan.Quote)
	require.Len(t, plan.RouteAmounts, 2)
	for _, ra := range plan.RouteAmounts {
		assert.Equal(t, 50, ra.Percentage)
	}
	assert.True(t, r1.DisjointFrom(r2))
}

func TestFindBest_ThreeSplitImprovesOnTwoSplit(t *testing.T) {
	tokenIn := tok("0x0000000000000000000000000000000000000001", "IN")
	a := tok("0x0000000000000000000000000000000000000002", "A")
	b := tok("0x0000000000000000000000000000000000000003", "B")
	c := tok("0x0000000000000000000000000000000000000004", "C")

	r1 := route(tokenIn, a, 500)  // 50%:55, 80%:70, 100%:90
	r2 := route(tokenIn, b, 3000) // 20%:25
	r3 := route(tokenIn, c, 10000) // 30%:40

	percents := []int{20, 30, 50, 80, 100}
	routesWithQuotes := []quoter.RouteQuotes{
		{Route: r1, Quotes: quotesAt(5, map[int]int64{2: 55, 3: 70, 4: 90})},
		{Route: r2, Quotes: quotesAt(5, map[int]int64{0: 25})},
		{Route: r3, Quotes: quotesAt(5, map[int]int64{1: 40})},
	}

	gm := zeroCostGasModel(t)
	cfg := domain.DefaultRouterConfig()
	cfg.MaxSplits = 3

	plan, err := FindBest(percents, routesWithQuotes, domain.Token{}, domain.ExactIn, gm, cfg)
	require.NoError(t, err)
	require.NotNil(t, plan)

	assert.Equal(t, big.NewInt(120), plan.Quote)
	require.Len(t, plan.RouteAmounts, 3)

	percentages := make([]int, len(plan.RouteAmounts))
	for i, ra := range plan.RouteAmounts {
		percentages[i] = ra.Percentage
	}
	sum := 0
	for _, p := range percentages {
		sum += p
	}
	assert.Equal(t, 100, sum)

	routes := make([]domain.Route, len(plan.RouteAmounts))
	for i, ra := range plan.RouteAmounts {
		routes[i] = ra.Route
	}
	assert.True(t, routes[0].DisjointFrom(routes[1:]...))
}


func TestFindBest_NoBaselineReturnsNilPlan(t *testing.T) {
	tokenIn := tok("0x0000000000000000000000000000000000000001", "IN")
	tokenOut := tok("0x0000000000000000000000000000000000000002", "OUT")
	r1 := route(tokenIn, tokenOut, 500)

	percents := []int{50}
	routesWithQuotes := []quoter.RouteQuotes{
		{Route: r1, Quotes: quotesAt(1, map[int]int64{0: 45})},
	}

	gm := zeroCostGasModel(t)
	cfg := domain.DefaultRouterConfig()

	plan, err := FindBest(percents, routesWithQuotes, domain.Token{}, domain.ExactIn, gm, cfg)
	require.NoError(t, err)
	assert.Nil(t, plan)
}

func TestFindBest_InvalidQuoteDropsSlotWithoutCrashing(t *testing.T) {
	tokenIn := tok("0x0000000000000000000000000000000000000001", "IN")
	tokenOut := tok("0x0000000000000000000000000000000000000002", "OUT")
	r1 := route(tokenIn, tokenOut, 500)

	quotes := quotesAt(1, map[int]int64{0: 10})
	// A route with no quote at all still yields an empty slot.
	r2 := route(tokenOut, tokenIn, 3000)
	emptyQuotes := make([]domain.AmountQuote, 1)

	percents := []int{100}
	routesWithQuotes := []quoter.RouteQuotes{
		{Route: r1, Quotes: quotes},
		{Route: r2, Quotes: emptyQuotes},
	}

	gm := zeroCostGasModel(t)
	cfg := domain.DefaultRouterConfig()

	plan, err := FindBest(percents, routesWithQuotes, domain.Token{}, domain.ExactIn, gm, cfg)
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Equal(t, big.NewInt(10), plan.Quote)
}
