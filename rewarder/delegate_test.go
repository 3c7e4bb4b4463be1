package rewarder

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/traderjoe-xyz/auto-pool-token-farm/core/events"
	"github.com/traderjoe-xyz/auto-pool-token-farm/token"
)

const t0 = int64(1_700_000_000)

var (
	ownerAddr    = common.HexToAddress("0x0000000000000000000000000000000000000f01")
	ledgerAddr   = common.HexToAddress("0x0000000000000000000000000000000000000f02")
	bonusAddr    = common.HexToAddress("0x0000000000000000000000000000000000000f03")
	stakedAddr   = common.HexToAddress("0x0000000000000000000000000000000000000f04")
	aliceAddr    = common.HexToAddress("0x0000000000000000000000000000000000000f05")
	strangerAddr = common.HexToAddress("0x0000000000000000000000000000000000000f06")
)

type clock struct {
	now int64
}

func (c *clock) fn() func() int64 { return func() int64 { return c.now } }

func newTestRewarder(t *testing.T, rate *big.Int) (*SimpleRewarder, *token.Bank, *clock, *events.Recorder) {
	t.Helper()
	bank := token.NewBank()
	if err := bank.Register(bonusAddr, token.Info{Symbol: "BONUS", Decimals: 18}, 0); err != nil {
		t.Fatalf("register bonus: %v", err)
	}
	if err := bank.Register(stakedAddr, token.Info{Symbol: "APT", Decimals: 18}, 0); err != nil {
		t.Fatalf("register staked: %v", err)
	}
	c := &clock{now: t0}
	recorder := &events.Recorder{}

	instance := common.HexToAddress("0x0000000000000000000000000000000000000f10")
	r := newSimpleRewarder(instance, ownerAddr, ledgerAddr, bonusAddr, stakedAddr, rate, false, bank)
	r.SetNowFunc(c.fn())
	r.SetEmitter(recorder)
	return r, bank, c, recorder
}

// stake emulates the ledger's custody growing: the rewarder reads its share
// denominator live from the ledger's staked-token balance.
func stake(t *testing.T, bank *token.Bank, amount int64) {
	t.Helper()
	if err := bank.Mint(stakedAddr, ledgerAddr, big.NewInt(amount)); err != nil {
		t.Fatalf("mint staked: %v", err)
	}
}

func TestOnStakeChangeRejectsForeignCaller(t *testing.T) {
	r, _, _, _ := newTestRewarder(t, big.NewInt(10))
	if _, err := r.OnStakeChange(strangerAddr, aliceAddr, big.NewInt(1)); !errors.Is(err, errNotLedger) {
		t.Fatalf("expected ledger-only gate, got %v", err)
	}
}

func TestAccrualAndPayout(t *testing.T) {
	r, bank, c, _ := newTestRewarder(t, big.NewInt(1_000))
	if err := bank.Mint(bonusAddr, r.Address(), big.NewInt(1_000_000)); err != nil {
		t.Fatalf("fund rewarder: %v", err)
	}
	stake(t, bank, 500)

	if _, err := r.OnStakeChange(ledgerAddr, aliceAddr, big.NewInt(500)); err != nil {
		t.Fatalf("record stake: %v", err)
	}
	c.now += 60

	paid, err := r.OnStakeChange(ledgerAddr, aliceAddr, big.NewInt(500))
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	// Sole staker over the full denominator: 60 s at 1000/s.
	if paid.Cmp(big.NewInt(60_000)) != 0 {
		t.Fatalf("unexpected payout: got %s want 60000", paid)
	}
	bal, _ := bank.BalanceOf(bonusAddr, aliceAddr)
	if bal.Cmp(big.NewInt(60_000)) != 0 {
		t.Fatalf("payout not transferred: %s", bal)
	}
}

func TestShortfallCarriesForwardAsUnpaid(t *testing.T) {
	r, bank, c, recorder := newTestRewarder(t, big.NewInt(1_000))
	stake(t, bank, 100)
	if err := bank.Mint(bonusAddr, r.Address(), big.NewInt(10_000)); err != nil {
		t.Fatalf("fund rewarder: %v", err)
	}

	if _, err := r.OnStakeChange(ledgerAddr, aliceAddr, big.NewInt(100)); err != nil {
		t.Fatalf("record stake: %v", err)
	}
	c.now += 60 // pending 60_000, funding only 10_000

	paid, err := r.OnStakeChange(ledgerAddr, aliceAddr, big.NewInt(100))
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if paid.Cmp(big.NewInt(10_000)) != 0 {
		t.Fatalf("expected partial payout 10000, got %s", paid)
	}

	paidEvents := recorder.ByType(events.TypeRewarderPaid)
	if len(paidEvents) != 1 {
		t.Fatalf("expected one reward-paid event, got %d", len(paidEvents))
	}
	evt := paidEvents[0].(events.RewarderPaid)
	if evt.Amount.Cmp(big.NewInt(10_000)) != 0 || evt.Unpaid.Cmp(big.NewInt(50_000)) != 0 {
		t.Fatalf("event must carry actual transfer and carried debt: %+v", evt)
	}

	// No more accrual; once funded, the next notification settles the debt.
	if err := bank.Mint(bonusAddr, r.Address(), big.NewInt(1_000_000)); err != nil {
		t.Fatalf("refund rewarder: %v", err)
	}
	paid, err = r.OnStakeChange(ledgerAddr, aliceAddr, big.NewInt(100))
	if err != nil {
		t.Fatalf("second notify: %v", err)
	}
	if paid.Cmp(big.NewInt(50_000)) != 0 {
		t.Fatalf("carried debt not settled: got %s want 50000", paid)
	}
	pending, err := r.PendingTokens(aliceAddr)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if pending.Sign() != 0 {
		t.Fatalf("unpaid not cleared: %s", pending)
	}
}

func TestPendingTokensProjectionIsReadOnly(t *testing.T) {
	r, bank, c, _ := newTestRewarder(t, big.NewInt(1_000))
	stake(t, bank, 100)
	if _, err := r.OnStakeChange(ledgerAddr, aliceAddr, big.NewInt(100)); err != nil {
		t.Fatalf("record stake: %v", err)
	}
	c.now += 30

	first, err := r.PendingTokens(aliceAddr)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if first.Cmp(big.NewInt(30_000)) != 0 {
		t.Fatalf("unexpected projection: got %s want 30000", first)
	}
	second, _ := r.PendingTokens(aliceAddr)
	if first.Cmp(second) != 0 {
		t.Fatalf("projection mutated state: %s then %s", first, second)
	}
	if r.lastRewardTime != t0 {
		t.Fatalf("projection advanced lastRewardTime to %d", r.lastRewardTime)
	}
}

func TestSetRewardRateSettlesAtOldRateFirst(t *testing.T) {
	r, bank, c, recorder := newTestRewarder(t, big.NewInt(1_000))
	stake(t, bank, 100)
	if _, err := r.OnStakeChange(ledgerAddr, aliceAddr, big.NewInt(100)); err != nil {
		t.Fatalf("record stake: %v", err)
	}

	c.now += 10
	if err := r.SetRewardRate(strangerAddr, big.NewInt(5)); !errors.Is(err, errNotOwner) {
		t.Fatalf("expected owner gate, got %v", err)
	}
	if err := r.SetRewardRate(ownerAddr, big.NewInt(2_000)); err != nil {
		t.Fatalf("set rate: %v", err)
	}
	c.now += 10

	pending, err := r.PendingTokens(aliceAddr)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	// 10 s at 1000/s plus 10 s at 2000/s.
	if pending.Cmp(big.NewInt(30_000)) != 0 {
		t.Fatalf("rate change was retroactive: got %s want 30000", pending)
	}
	if len(recorder.ByType(events.TypeRewarderRateUpdated)) != 1 {
		t.Fatalf("expected rate-updated event")
	}
}

func TestSetRewardRateCeiling(t *testing.T) {
	r, _, _, _ := newTestRewarder(t, big.NewInt(1))
	over := new(big.Int).Add(maxRatePerSecond, big.NewInt(1))
	if err := r.SetRewardRate(ownerAddr, over); !errors.Is(err, errRateAboveCeiling) {
		t.Fatalf("expected ceiling rejection, got %v", err)
	}
	if err := r.SetRewardRate(ownerAddr, new(big.Int).Set(maxRatePerSecond)); err != nil {
		t.Fatalf("ceiling value should be accepted: %v", err)
	}
}

func TestEmergencyWithdrawRecoversFunds(t *testing.T) {
	r, bank, _, _ := newTestRewarder(t, big.NewInt(1))
	if err := bank.Mint(bonusAddr, r.Address(), big.NewInt(4_321)); err != nil {
		t.Fatalf("fund rewarder: %v", err)
	}

	if _, err := r.EmergencyWithdraw(strangerAddr, bonusAddr); !errors.Is(err, errNotOwner) {
		t.Fatalf("expected owner gate, got %v", err)
	}
	recovered, err := r.EmergencyWithdraw(ownerAddr, bonusAddr)
	if err != nil {
		t.Fatalf("emergency withdraw: %v", err)
	}
	if recovered.Cmp(big.NewInt(4_321)) != 0 {
		t.Fatalf("recovered %s, want 4321", recovered)
	}
	ownerBal, _ := bank.BalanceOf(bonusAddr, ownerAddr)
	if ownerBal.Cmp(big.NewInt(4_321)) != 0 {
		t.Fatalf("funds not routed to owner: %s", ownerBal)
	}
}
