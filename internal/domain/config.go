package domain

// RouterConfig is the router's recognised configuration surface. All
// fields have documented defaults in DefaultRouterConfig. Zero values are
// not replaced by those defaults: Validate rejects a zero MaxSplits,
// DistributionPercent or MaxSwapsPerPath, and the other fields are used
// as given.
type RouterConfig struct {
	// TopN is the number of overall TVL-ranked candidate pools (slice 3).
	TopN int
	// TopNTokenInOut is the number of TVL candidates touching each
	// endpoint individually (slices 4 and 5).
	TopNTokenInOut int
	// TopNSecondHop is the number of second-hop candidates per seed pool
	// (slices 6 and 7).
	TopNSecondHop int
	// MaxSwapsPerPath caps the length of any enumerated route.
	MaxSwapsPerPath int
	// MaxSplits caps the number of disjoint sub-routes a plan may combine.
	// Must be <= 3; anything else is a ConfigInvalid error.
	MaxSplits int
	// DistributionPercent is the amount-granularity step; must divide 100.
	DistributionPercent int
	// MulticallChunkSize bounds how many quote calls are batched into a
	// single multicall submission.
	MulticallChunkSize int
	// MulticallGasLimitPerCall is the per-call gas cap passed to the
	// aggregator contract.
	MulticallGasLimitPerCall uint64
}

// DefaultRouterConfig returns the router's configuration defaults.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		TopN:                     4,
		TopNTokenInOut:           4,
		TopNSecondHop:            2,
		MaxSwapsPerPath:          3,
		MaxSplits:                3,
		DistributionPercent:      5,
		MulticallChunkSize:       50,
		MulticallGasLimitPerCall: 1_000_000,
	}
}

// Validate enforces the config-level invariants: maxSplits must not
// exceed 3 and distributionPercent must divide 100 evenly.
func (c RouterConfig) Validate() error {
	if c.MaxSplits < 1 || c.MaxSplits > 3 {
		return ConfigInvalidError{Reason: "maxSplits must be between 1 and 3"}
	}
	if c.DistributionPercent <= 0 || 100%c.DistributionPercent != 0 {
		return ConfigInvalidError{Reason: "distributionPercent must evenly divide 100"}
	}
	if c.MaxSwapsPerPath < 1 {
		return ConfigInvalidError{Reason: "maxSwapsPerPath must be at least 1"}
	}
	return nil
}
