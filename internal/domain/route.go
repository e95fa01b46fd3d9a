package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Route is an ordered chain of pools connecting TokenIn to TokenOut. Every
// consecutive pair of pools shares exactly one token, no pool repeats, and
// 1 <= len(Pools) <= maxSwapsPerPath.
type Route struct {
	Pools    []Pool
	TokenIn  Token
	TokenOut Token
}

// Validate checks route well-formedness: bounded length, consecutive pools
// sharing a token, no repeated pool, and endpoints matching tokenIn/tokenOut.
func (r Route) Validate(maxSwapsPerPath int) error {
	if len(r.Pools) == 0 {
		return fmt.Errorf("route has no pools")
	}
	if len(r.Pools) > maxSwapsPerPath {
		return fmt.Errorf("route has %d pools, exceeds maxSwapsPerPath %d", len(r.Pools), maxSwapsPerPath)
	}

	seen := make(map[common.Address]struct{}, len(r.Pools))
	current := r.TokenIn
	for i, pool := range r.Pools {
		if !pool.HasToken(current) {
			return fmt.Errorf("route pool %d does not connect to %s", i, current)
		}
		addr := pool.Address()
		if _, dup := seen[addr]; dup {
			return fmt.Errorf("route revisits pool %s", addr.Hex())
		}
		seen[addr] = struct{}{}
		current = pool.OtherToken(current)
	}
	if !current.Equal(r.TokenOut) {
		return fmt.Errorf("route ends at %s, want %s", current, r.TokenOut)
	}
	return nil
}

// PoolAddressSet returns the set of pool addresses touched by the route,
// used for the pool-disjointness constraint in the split optimiser and for
// the disjointness invariant in tests.
func (r Route) PoolAddressSet() map[common.Address]struct{} {
	set := make(map[common.Address]struct{}, len(r.Pools))
	for _, p := range r.Pools {
		set[p.Address()] = struct{}{}
	}
	return set
}

// DisjointFrom reports whether r shares no pool (by address) with any route
// in others.
func (r Route) DisjointFrom(others ...Route) bool {
	mine := r.PoolAddressSet()
	for _, other := range others {
		for _, p := range other.Pools {
			if _, clash := mine[p.Address()]; clash {
				return false
			}
		}
	}
	return true
}

func (r Route) String() string {
	s := r.TokenIn.String()
	for _, p := range r.Pools {
		s += fmt.Sprintf(" -[%d]-> %s", p.Fee, p.OtherToken(tokenBefore(r, p)).String())
	}
	return s
}

// tokenBefore finds the token the route held just before entering pool p.
// Only used for Route.String(), where a slightly quadratic walk is fine.
func tokenBefore(r Route, target Pool) Token {
	current := r.TokenIn
	for _, p := range r.Pools {
		if p.Address() == target.Address() {
			return current
		}
		current = p.OtherToken(current)
	}
	return current
}
