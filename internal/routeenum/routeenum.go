// Package routeenum implements C4: depth-first enumeration of all simple
// paths from tokenIn to tokenOut over the candidate pool graph, bounded by
// maxHops. Recursion depth is bounded by maxHops (at most 3 in the default
// configuration), so stack safety is trivial.
package routeenum

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/clsor/router/internal/domain"
)

// Enumerate returns every simple route from tokenIn to tokenOut over pools,
// of length 1..maxHops. Order is not contractual.
func Enumerate(tokenIn, tokenOut domain.Token, pools []domain.Pool, maxHops int) []domain.Route {
	adjacency := make(map[common.Address][]domain.Pool)
	for _, p := range pools {
		adjacency[p.Token0.Address] = append(adjacency[p.Token0.Address], p)
		adjacency[p.Token1.Address] = append(adjacency[p.Token1.Address], p)
	}

	e := &enumerator{
		tokenIn:   tokenIn,
		tokenOut:  tokenOut,
		adjacency: adjacency,
		maxHops:   maxHops,
		usedPools: make(map[common.Address]bool),
	}
	e.dfs(tokenIn)
	return e.routes
}

type enumerator struct {
	tokenIn   domain.Token
	tokenOut  domain.Token
	adjacency map[common.Address][]domain.Pool
	maxHops   int

	stack     []domain.Pool
	usedPools map[common.Address]bool
	routes    []domain.Route
}

func (e *enumerator) dfs(prevTokenOut domain.Token) {
	if len(e.stack) > 0 && prevTokenOut.Equal(e.tokenOut) {
		e.emit()
	}

	if len(e.stack) >= e.maxHops {
		return
	}

	for _, pool := range e.adjacency[prevTokenOut.Address] {
		addr := pool.Address()
		if e.usedPools[addr] {
			continue
		}
		if !pool.HasToken(prevTokenOut) {
			continue
		}
		next := pool.OtherToken(prevTokenOut)

		e.usedPools[addr] = true
		e.stack = append(e.stack, pool)

		e.dfs(next)

		e.stack = e.stack[:len(e.stack)-1]
		e.usedPools[addr] = false
	}
}

func (e *enumerator) emit() {
	pools := make([]domain.Pool, len(e.stack))
	copy(pools, e.stack)
	e.routes = append(e.routes, domain.Route{
		Pools:    pools,
		TokenIn:  e.tokenIn,
		TokenOut: e.tokenOut,
	})
}
