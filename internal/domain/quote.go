package domain

import "math/big"

// AmountQuote is the result of simulating one (route, amount) swap against
// current pool state. A nil Quote signals a failed quote — the quoter
// leaves every optional field nil together, never partially populated.
type AmountQuote struct {
	Amount                      *big.Int
	Quote                       *big.Int
	SqrtPriceX96AfterList       []*big.Int
	InitializedTicksCrossedList []int32
	GasEstimate                 *big.Int
}

// Valid reports whether every field required to build a RouteWithValidQuote
// is present.
func (q AmountQuote) Valid() bool {
	return q.Quote != nil &&
		q.SqrtPriceX96AfterList != nil &&
		q.InitializedTicksCrossedList != nil &&
		q.GasEstimate != nil
}

// RouteWithValidQuote pairs a route and one amount slice with its quote,
// gas-adjusted for comparison purposes.
type RouteWithValidQuote struct {
	Route               Route
	Amount              *big.Int
	RawQuote            *big.Int
	QuoteAdjustedForGas *big.Int
	GasEstimate         *big.Int
	Percent             int
	QuoteToken          Token
	TradeType           TradeType
}

// RouteAmount is one component of an assembled SwapPlan: a route, the
// amount it was given, the quote it produced and its percentage share.
type RouteAmount struct {
	Route      Route
	Amount     *big.Int
	Quote      *big.Int
	Percentage int
}

// SwapPlan is the orchestrator's final output: one or more routes whose
// percentages sum to 100, pairwise pool-disjoint, with aggregate quote and
// gas figures.
type SwapPlan struct {
	Quote            *big.Int
	QuoteGasAdjusted *big.Int
	EstimatedGasUsed *big.Int
	GasPriceWei      *big.Int
	BlockNumber      uint64
	RouteAmounts     []RouteAmount
	TokenIn          Currency
	TokenOut         Currency
	TradeType        TradeType
}
