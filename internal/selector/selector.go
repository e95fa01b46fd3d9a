// Package selector implements C3: filtering and ranking the pool universe
// into a bounded candidate set via seven TVL-keyed slices, then resolving
// the union through the pool accessor (C2).
//
// Two of the seven slices carry quirks that are preserved exactly, not
// "fixed": slice 7 is seeded from slice 4's (tokenIn-side) counterparties
// rather than slice 5's, and slice 2 compares by address on the EXACT_IN
// branch but by symbol on the EXACT_OUT branch.
package selector

import (
	"context"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/clsor/router/internal/chainclient"
	"github.com/clsor/router/internal/domain"
	"github.com/clsor/router/internal/poolaccessor"
	"github.com/clsor/router/internal/subgraph"
)

// Selection is the union of the seven slices, kept around for logging and
// testing; callers generally only need the resolved Accessor.
type Selection struct {
	DirectSwap           []domain.SubgraphPool
	BridgeQuoteToken     []domain.SubgraphPool
	TopByTVL             []domain.SubgraphPool
	TopByTVLTokenIn      []domain.SubgraphPool
	TopByTVLTokenOut     []domain.SubgraphPool
	TopByTVLTokenInHop2  []domain.SubgraphPool
	TopByTVLTokenOutHop2 []domain.SubgraphPool
}

// Select runs the full C3 pipeline and resolves the selected pools to live
// state via C2.
func Select(
	ctx context.Context,
	provider subgraph.Provider,
	client chainclient.Client,
	tokenList map[common.Address]domain.Token,
	wrappedNative domain.Token,
	tokenIn, tokenOut domain.Token,
	tradeType domain.TradeType,
	cfg domain.RouterConfig,
) (*poolaccessor.Accessor, Selection, error) {
	allPools, err := provider.GetPools(ctx)
	if err != nil {
		return nil, Selection{}, domain.TransportFailureError{Stage: "selector.fetchSubgraph", Err: err}
	}

	filtered := make([]domain.SubgraphPool, 0, len(allPools))
	for _, p := range allPools {
		if _, ok := tokenList[common.HexToAddress(p.Token0ID)]; !ok {
			continue
		}
		if _, ok := tokenList[common.HexToAddress(p.Token1ID)]; !ok {
			continue
		}
		filtered = append(filtered, p)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].TotalValueLockedUSD.Cmp(filtered[j].TotalValueLockedUSD) > 0
	})

	used := make(map[string]bool)

	quoteToken := domain.QuoteToken(tokenIn, tokenOut, tradeType)

	var sel Selection

	sel.DirectSwap = take(filtered, used, 2, func(p domain.SubgraphPool) bool {
		return touchesBoth(p, tokenIn, tokenOut)
	})

	sel.BridgeQuoteToken = take(filtered, used, 2, func(p domain.SubgraphPool) bool {
		if tradeType == domain.ExactIn {
			return touchesBothByAddress(p, wrappedNative, quoteToken)
		}
		return touchesBothBySymbol(p, wrappedNative, quoteToken)
	})

	sel.TopByTVL = take(filtered, used, cfg.TopN, func(domain.SubgraphPool) bool { return true })

	sel.TopByTVLTokenIn = take(filtered, used, cfg.TopNTokenInOut, func(p domain.SubgraphPool) bool {
		return touches(p, tokenIn)
	})

	sel.TopByTVLTokenOut = take(filtered, used, cfg.TopNTokenInOut, func(p domain.SubgraphPool) bool {
		return touches(p, tokenOut)
	})

	counterpartiesIn := counterpartyAddresses(sel.TopByTVLTokenIn, tokenIn)

	sel.TopByTVLTokenInHop2 = secondHopUnion(filtered, used, counterpartiesIn, cfg.TopNSecondHop, func(domain.SubgraphPool) bool {
		return true
	})

	// Asymmetric by design: seeded from counterpartiesIn (slice 4's
	// counterparties), not slice 5's.
	sel.TopByTVLTokenOutHop2 = secondHopUnion(filtered, used, counterpartiesIn, cfg.TopNSecondHop, func(p domain.SubgraphPool) bool {
		return touches(p, tokenOut)
	})

	union := make([]domain.SubgraphPool, 0, 2+2+cfg.TopN+2*cfg.TopNTokenInOut+2*cfg.TopNSecondHop)
	union = append(union, sel.DirectSwap...)
	union = append(union, sel.BridgeQuoteToken...)
	union = append(union, sel.TopByTVL...)
	union = append(union, sel.TopByTVLTokenIn...)
	union = append(union, sel.TopByTVLTokenOut...)
	union = append(union, sel.TopByTVLTokenInHop2...)
	union = append(union, sel.TopByTVLTokenOutHop2...)

	tuples := make([]poolaccessor.Tuple, 0, len(union))
	for _, p := range union {
		t0, ok0 := tokenList[common.HexToAddress(p.Token0ID)]
		t1, ok1 := tokenList[common.HexToAddress(p.Token1ID)]
		if !ok0 || !ok1 {
			continue
		}
		tuples = append(tuples, poolaccessor.Tuple{TokenA: t0, TokenB: t1, Fee: p.FeeTier})
	}

	accessor, err := poolaccessor.Fetch(ctx, client, tuples)
	if err != nil {
		return nil, Selection{}, err
	}

	return accessor, sel, nil
}

func touches(p domain.SubgraphPool, token domain.Token) bool {
	addr := strings.ToLower(token.Address.Hex())
	return strings.ToLower(p.Token0ID) == addr || strings.ToLower(p.Token1ID) == addr
}

func touchesBoth(p domain.SubgraphPool, a, b domain.Token) bool {
	return touches(p, a) && touches(p, b)
}

func touchesBothByAddress(p domain.SubgraphPool, a, b domain.Token) bool {
	t0, t1 := strings.ToLower(p.Token0ID), strings.ToLower(p.Token1ID)
	aAddr, bAddr := strings.ToLower(a.Address.Hex()), strings.ToLower(b.Address.Hex())
	return (t0 == aAddr && t1 == bAddr) || (t0 == bAddr && t1 == aAddr)
}

func touchesBothBySymbol(p domain.SubgraphPool, a, b domain.Token) bool {
	return (p.Token0Symbol == a.Symbol && p.Token1Symbol == b.Symbol) ||
		(p.Token0Symbol == b.Symbol && p.Token1Symbol == a.Symbol)
}

// take scans pools in TVL order, skipping any already in used, and returns
// up to limit matches, marking each returned pool's id as used.
func take(pools []domain.SubgraphPool, used map[string]bool, limit int, pred func(domain.SubgraphPool) bool) []domain.SubgraphPool {
	if limit <= 0 {
		return nil
	}
	out := make([]domain.SubgraphPool, 0, limit)
	for _, p := range pools {
		if len(out) >= limit {
			break
		}
		if used[p.ID] {
			continue
		}
		if !pred(p) {
			continue
		}
		out = append(out, p)
		used[p.ID] = true
	}
	return out
}

// counterpartyAddresses returns, for each pool, the endpoint that is not
// token, lowercase hex.
func counterpartyAddresses(pools []domain.SubgraphPool, token domain.Token) []string {
	addr := strings.ToLower(token.Address.Hex())
	seen := make(map[string]bool)
	var out []string
	for _, p := range pools {
		var other string
		if strings.ToLower(p.Token0ID) == addr {
			other = strings.ToLower(p.Token1ID)
		} else {
			other = strings.ToLower(p.Token0ID)
		}
		if other == "" || seen[other] {
			continue
		}
		seen[other] = true
		out = append(out, other)
	}
	return out
}

// secondHopUnion gathers, for each endpoint address, the top limit pools
// touching that endpoint (and satisfying extraPred) that are not already
// used, then unions across endpoints, dedupes by pool id, re-sorts by TVL
// and keeps the overall top limit. The selected pools are then marked used.
func secondHopUnion(pools []domain.SubgraphPool, used map[string]bool, endpoints []string, limit int, extraPred func(domain.SubgraphPool) bool) []domain.SubgraphPool {
	if limit <= 0 {
		return nil
	}

	candidateSeen := make(map[string]bool)
	var candidates []domain.SubgraphPool

	for _, endpoint := range endpoints {
		perEndpoint := 0
		for _, p := range pools {
			if perEndpoint >= limit {
				break
			}
			if used[p.ID] || candidateSeen[p.ID] {
				continue
			}
			if strings.ToLower(p.Token0ID) != endpoint && strings.ToLower(p.Token1ID) != endpoint {
				continue
			}
			if !extraPred(p) {
				continue
			}
			candidates = append(candidates, p)
			candidateSeen[p.ID] = true
			perEndpoint++
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].TotalValueLockedUSD.Cmp(candidates[j].TotalValueLockedUSD) > 0
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	for _, p := range candidates {
		used[p.ID] = true
	}

	return candidates
}
