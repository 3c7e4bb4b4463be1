package farm

import (
	"math/big"
	"testing"
)

func TestAccrualPerShareTruncatesTowardZero(t *testing.T) {
	// 7 reward units over a stake of 3: the fractional third is dropped.
	got := accrualPerShare(7, big.NewInt(1), big.NewInt(3))
	want := new(big.Int).Mul(big.NewInt(7), accPrecision)
	want.Quo(want, big.NewInt(3))
	if got.Cmp(want) != 0 {
		t.Fatalf("unexpected accrual: got %s want %s", got, want)
	}

	product := new(big.Int).Mul(got, big.NewInt(3))
	total := new(big.Int).Mul(big.NewInt(7), accPrecision)
	if product.Cmp(total) >= 0 {
		t.Fatalf("expected truncation loss, got product %s >= %s", product, total)
	}
}

func TestAccrualPerShareDegenerateInputs(t *testing.T) {
	if got := accrualPerShare(0, big.NewInt(1), big.NewInt(1)); got.Sign() != 0 {
		t.Fatalf("zero elapsed accrued %s", got)
	}
	if got := accrualPerShare(10, big.NewInt(0), big.NewInt(1)); got.Sign() != 0 {
		t.Fatalf("zero rate accrued %s", got)
	}
	if got := accrualPerShare(10, big.NewInt(1), big.NewInt(0)); got.Sign() != 0 {
		t.Fatalf("zero stake accrued %s", got)
	}
	if got := accrualPerShare(10, nil, nil); got.Sign() != 0 {
		t.Fatalf("nil inputs accrued %s", got)
	}
}

func TestAccrualSurvivesExtremeRanges(t *testing.T) {
	// A decade of seconds at the rate ceiling against a 1-wei stake must
	// neither overflow big.Int practical limits nor truncate to zero.
	elapsed := int64(10 * 365 * 24 * 3600)
	got := accrualPerShare(elapsed, maxRatePerSecond, big.NewInt(1))
	if got.Sign() <= 0 {
		t.Fatalf("extreme accrual collapsed to %s", got)
	}
}

func TestPendingAmountNetsDebt(t *testing.T) {
	acc := new(big.Int).Mul(big.NewInt(5), accPrecision)
	amount := big.NewInt(40)
	debt := rewardDebt(amount, acc) // 200

	grown := new(big.Int).Mul(big.NewInt(8), accPrecision)
	pending := pendingAmount(amount, grown, debt)
	if pending.Cmp(big.NewInt(120)) != 0 {
		t.Fatalf("unexpected pending: got %s want 120", pending)
	}
	if pending := pendingAmount(amount, acc, debt); pending.Sign() != 0 {
		t.Fatalf("no growth should pend zero, got %s", pending)
	}
}
