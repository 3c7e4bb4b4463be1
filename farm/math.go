package farm

import "math/big"

var (
	// accPrecision is the fixed-point scale of AccRewardPerShare. At 1e36 the
	// truncation loss of a settlement is below totalStaked/1e36 reward units,
	// negligible for any token with sane decimals. Truncated fractions are
	// dropped, not carried forward, so pending-reward recomputation stays
	// path independent.
	accPrecision = newExp10(36)

	// maxRatePerSecond bounds configured emission so that
	// elapsed * rate * accPrecision stays far from big.Int practical limits
	// and so settlement never truncates to zero for a 1-wei stake.
	maxRatePerSecond = newExp10(30)
)

func newExp10(pow int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(pow), nil)
}

// accrualPerShare converts elapsed seconds at the given rate into accumulator
// growth for the supplied staked total. Division truncates toward zero.
func accrualPerShare(elapsed int64, rate, totalStaked *big.Int) *big.Int {
	if elapsed <= 0 || rate == nil || rate.Sign() == 0 || totalStaked == nil || totalStaked.Sign() == 0 {
		return big.NewInt(0)
	}
	growth := new(big.Int).Mul(big.NewInt(elapsed), rate)
	growth.Mul(growth, accPrecision)
	return growth.Quo(growth, totalStaked)
}

// rewardDebt returns amount * accPerShare / accPrecision, the accumulator
// value netted out of future pending computations.
func rewardDebt(amount, accPerShare *big.Int) *big.Int {
	if amount == nil || amount.Sign() == 0 || accPerShare == nil || accPerShare.Sign() == 0 {
		return big.NewInt(0)
	}
	debt := new(big.Int).Mul(amount, accPerShare)
	return debt.Quo(debt, accPrecision)
}

// pendingAmount isolates newly accrued reward from the recorded debt.
func pendingAmount(amount, accPerShare, debt *big.Int) *big.Int {
	pending := rewardDebt(amount, accPerShare)
	if debt != nil {
		pending.Sub(pending, debt)
	}
	if pending.Sign() < 0 {
		return big.NewInt(0)
	}
	return pending
}

func newBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
