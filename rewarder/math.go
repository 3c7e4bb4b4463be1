package rewarder

import "math/big"

var (
	// accPrecision mirrors the farm ledger's accumulator scale.
	accPrecision = newExp10(36)

	// maxRatePerSecond is the same configuration-time ceiling the farm ledger
	// enforces, keeping elapsed * rate * accPrecision well bounded.
	maxRatePerSecond = newExp10(30)
)

func newExp10(pow int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(pow), nil)
}

func accrualPerShare(elapsed int64, rate, stakedBalance *big.Int) *big.Int {
	if elapsed <= 0 || rate == nil || rate.Sign() == 0 || stakedBalance == nil || stakedBalance.Sign() == 0 {
		return big.NewInt(0)
	}
	growth := new(big.Int).Mul(big.NewInt(elapsed), rate)
	growth.Mul(growth, accPrecision)
	return growth.Quo(growth, stakedBalance)
}

func rewardDebt(amount, accPerShare *big.Int) *big.Int {
	if amount == nil || amount.Sign() == 0 || accPerShare == nil || accPerShare.Sign() == 0 {
		return big.NewInt(0)
	}
	debt := new(big.Int).Mul(amount, accPerShare)
	return debt.Quo(debt, accPrecision)
}

func checkRate(rate *big.Int) error {
	if rate == nil {
		return errInvalidRate
	}
	if rate.Sign() < 0 || rate.Cmp(maxRatePerSecond) > 0 {
		return errRateAboveCeiling
	}
	return nil
}

func newBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
