// Package distributor implements C5, the amount distributor: splitting a
// trade amount into N equal-percent slices at a configurable granularity.
package distributor

import (
	"fmt"
	"math/big"
)

// Distribute splits amount into K = 100/distributionPercent slices. Slice i
// (1-indexed) carries percent i*distributionPercent and amount
// floor(amount*percent/100); the final slice always equals amount exactly
// (percent == 100).
//
// distributionPercent must divide 100 evenly; callers are expected to have
// validated this via domain.RouterConfig.Validate before calling here.
func Distribute(amount *big.Int, distributionPercent int) ([]int, []*big.Int, error) {
	if distributionPercent <= 0 || 100%distributionPercent != 0 {
		return nil, nil, fmt.Errorf("distributor: distributionPercent %d does not divide 100", distributionPercent)
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, nil, fmt.Errorf("distributor: amount must be positive")
	}

	k := 100 / distributionPercent
	percents := make([]int, k)
	amounts := make([]*big.Int, k)

	hundred := big.NewInt(100)
	for i := 1; i <= k; i++ {
		percent := i * distributionPercent
		percents[i-1] = percent

		// amount * percent / 100: big.Rat carries the exact rational
		// value of the product before it is floored to the integer
		// on-chain amount, so no precision is lost ahead of the single,
		// unavoidable floor at the end (token amounts are integers).
		num := new(big.Int).Mul(amount, big.NewInt(int64(percent)))
		rat := new(big.Rat).SetFrac(num, hundred)
		amounts[i-1] = new(big.Int).Quo(rat.Num(), rat.Denom())
	}

	// The final slice must equal amount exactly: percent == 100 implies
	// num == amount*100, rat == amount/1, no rounding is possible.
	amounts[k-1] = new(big.Int).Set(amount)

	return percents, amounts, nil
}
