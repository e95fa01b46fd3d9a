// Package splitter implements C7: the bounded split optimiser. It buckets
// valid quotes by percent, finds the best single-route baseline, then
// searches bounded 2- and 3-way pool-disjoint splits for an improvement.
// The bucket-then-search shape and the "first disjoint candidate in an
// already best-sorted bucket is the best feasible one" heuristic are
// grounded on osmosis-labs-sqs's router/usecase/dynamic_splits.go.
package splitter

import (
	"math/big"
	"sort"

	"github.com/clsor/router/internal/domain"
	"github.com/clsor/router/internal/gasmodel"
	"github.com/clsor/router/internal/quoter"
)

// FindBest runs the bounded split search over routesWithQuotes (C1's
// output) at the given percents (C5's output), returning the best plan or
// nil if no unsplit baseline exists. cfg.MaxSplits is assumed already
// validated to at most 3 by domain.RouterConfig.Validate; the optimiser
// never attempts 4-or-more-way splits.
func FindBest(
	percents []int,
	routesWithQuotes []quoter.RouteQuotes,
	quoteToken domain.Token,
	tradeType domain.TradeType,
	gm *gasmodel.GasModel,
	cfg domain.RouterConfig,
) (*domain.SwapPlan, error) {

	comp := compareFunc(tradeType)
	byPercent := bucket(routesWithQuotes, percents, quoteToken, tradeType, gm)
	sortBuckets(byPercent, comp)

	baselineBucket, ok := byPercent[100]
	if !ok || len(baselineBucket) == 0 {
		return nil, nil
	}

	best := []domain.RouteWithValidQuote{baselineBucket[0]}
	bestAdjusted := best[0].QuoteAdjustedForGas

	split2Improved := false

	if cfg.MaxSplits >= 2 {
		half := (len(percents) + 1) / 2
		for i := 0; i < half && i < len(percents); i++ {
			percentA := percents[i]
			bucketA, ok := byPercent[percentA]
			if !ok || len(bucketA) == 0 {
				continue
			}
			a := bucketA[0]

			percentB := 100 - percentA
			bucketB, ok := byPercent[percentB]
			if !ok {
				continue
			}
			b, found := firstDisjoint(bucketB, a.Route)
			if !found {
				continue
			}

			candidateAdjusted := new(big.Int).Add(a.QuoteAdjustedForGas, b.QuoteAdjustedForGas)
			if comp(candidateAdjusted, bestAdjusted) {
				best = []domain.RouteWithValidQuote{a, b}
				bestAdjusted = candidateAdjusted
				split2Improved = true
			}
		}
	}

	if split2Improved && cfg.MaxSplits >= 3 {
		n := len(percents)
		for i := 0; i < n; i++ {
			percentA := percents[i]
			bucketA, ok := byPercent[percentA]
			if !ok || len(bucketA) == 0 {
				continue
			}
			a := bucketA[0]

			for j := i + 1; j < n; j++ {
				percentB := percents[j]
				bucketB, ok := byPercent[percentB]
				if !ok {
					continue
				}
				b, found := firstDisjoint(bucketB, a.Route)
				if !found {
					continue
				}

				percentC := 100 - percentA - percentB
				bucketC, ok := byPercent[percentC]
				if !ok {
					continue
				}
				c, found := firstDisjoint(bucketC, a.Route, b.Route)
				if !found {
					continue
				}

				candidateAdjusted := new(big.Int).Add(new(big.Int).Add(a.QuoteAdjustedForGas, b.QuoteAdjustedForGas), c.QuoteAdjustedForGas)
				if comp(candidateAdjusted, bestAdjusted) {
					best = []domain.RouteWithValidQuote{a, b, c}
					bestAdjusted = candidateAdjusted
				}
			}
		}
	}

	return assemble(best, tradeType), nil
}

func bucket(
	routesWithQuotes []quoter.RouteQuotes,
	percents []int,
	quoteToken domain.Token,
	tradeType domain.TradeType,
	gm *gasmodel.GasModel,
) map[int][]domain.RouteWithValidQuote {
	byPercent := make(map[int][]domain.RouteWithValidQuote)

	for _, rq := range routesWithQuotes {
		for i, q := range rq.Quotes {
			if !q.Valid() || i >= len(percents) {
				continue
			}

			_, gasCostInQuoteToken := gm.EstimateGasCost(q.GasEstimate)

			var adjusted *big.Int
			if tradeType == domain.ExactIn {
				adjusted = new(big.Int).Sub(q.Quote, gasCostInQuoteToken)
			} else {
				adjusted = new(big.Int).Add(q.Quote, gasCostInQuoteToken)
			}

			percent := percents[i]
			byPercent[percent] = append(byPercent[percent], domain.RouteWithValidQuote{
				Route:               rq.Route,
				Amount:              q.Amount,
				RawQuote:            q.Quote,
				QuoteAdjustedForGas: adjusted,
				GasEstimate:         q.GasEstimate,
				Percent:             percent,
				QuoteToken:          quoteToken,
				TradeType:           tradeType,
			})
		}
	}

	return byPercent
}

// sortBuckets orders each bucket best-first by comp, ties broken by
// insertion order (sort.SliceStable), so the split search's
// "first disjoint candidate" heuristic picks the best feasible one.
func sortBuckets(byPercent map[int][]domain.RouteWithValidQuote, comp func(a, b *big.Int) bool) {
	for _, bucket := range byPercent {
		sort.SliceStable(bucket, func(i, j int) bool {
			return comp(bucket[i].QuoteAdjustedForGas, bucket[j].QuoteAdjustedForGas)
		})
	}
}

func firstDisjoint(bucket []domain.RouteWithValidQuote, others ...domain.Route) (domain.RouteWithValidQuote, bool) {
	for _, candidate := range bucket {
		if candidate.Route.DisjointFrom(others...) {
			return candidate, true
		}
	}
	return domain.RouteWithValidQuote{}, false
}

func compareFunc(tradeType domain.TradeType) func(a, b *big.Int) bool {
	if tradeType == domain.ExactIn {
		return func(a, b *big.Int) bool { return a.Cmp(b) > 0 }
	}
	return func(a, b *big.Int) bool { return a.Cmp(b) < 0 }
}

func assemble(components []domain.RouteWithValidQuote, tradeType domain.TradeType) *domain.SwapPlan {
	rawQuote := big.NewInt(0)
	quoteAdjusted := big.NewInt(0)
	gasEstimate := big.NewInt(0)

	routeAmounts := make([]domain.RouteAmount, len(components))
	for i, c := range components {
		rawQuote.Add(rawQuote, c.RawQuote)
		quoteAdjusted.Add(quoteAdjusted, c.QuoteAdjustedForGas)
		gasEstimate.Add(gasEstimate, c.GasEstimate)

		routeAmounts[i] = domain.RouteAmount{
			Route:      c.Route,
			Amount:     c.Amount,
			Quote:      c.RawQuote,
			Percentage: c.Percent,
		}
	}

	sort.SliceStable(routeAmounts, func(i, j int) bool {
		return routeAmounts[i].Percentage > routeAmounts[j].Percentage
	})

	return &domain.SwapPlan{
		Quote:            rawQuote,
		QuoteGasAdjusted: quoteAdjusted,
		EstimatedGasUsed: gasEstimate,
		RouteAmounts:     routeAmounts,
		TradeType:        tradeType,
	}
}
