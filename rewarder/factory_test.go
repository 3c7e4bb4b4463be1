package rewarder

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/traderjoe-xyz/auto-pool-token-farm/core/events"
	"github.com/traderjoe-xyz/auto-pool-token-farm/token"
)

var factoryAddr = common.HexToAddress("0x0000000000000000000000000000000000000f20")

func newTestFactory(t *testing.T) (*Factory, *token.Bank, *events.Recorder) {
	t.Helper()
	bank := token.NewBank()
	if err := bank.Register(bonusAddr, token.Info{Symbol: "BONUS", Decimals: 18}, 0); err != nil {
		t.Fatalf("register bonus: %v", err)
	}
	if err := bank.Register(stakedAddr, token.Info{Symbol: "APT", Decimals: 18}, 0); err != nil {
		t.Fatalf("register staked: %v", err)
	}
	f, err := NewFactory(ownerAddr, factoryAddr, ledgerAddr, bank)
	if err != nil {
		t.Fatalf("new factory: %v", err)
	}
	recorder := &events.Recorder{}
	f.SetEmitter(recorder)
	return f, bank, recorder
}

func TestCreateRewarderGatedToCreatorSet(t *testing.T) {
	f, _, _ := newTestFactory(t)

	if !f.IsCreator(ownerAddr) {
		t.Fatalf("deployer must start in the creator set")
	}
	if _, err := f.CreateRewarder(strangerAddr, bonusAddr, stakedAddr, big.NewInt(10), false); !errors.Is(err, errNotCreator) {
		t.Fatalf("expected creator gate, got %v", err)
	}

	if err := f.AllowCreator(strangerAddr, strangerAddr, true); !errors.Is(err, errNotOperator) {
		t.Fatalf("expected operator gate on AllowCreator, got %v", err)
	}
	if err := f.AllowCreator(ownerAddr, strangerAddr, true); err != nil {
		t.Fatalf("allow creator: %v", err)
	}
	if _, err := f.CreateRewarder(strangerAddr, bonusAddr, stakedAddr, big.NewInt(10), false); err != nil {
		t.Fatalf("authorized creator rejected: %v", err)
	}
	if err := f.AllowCreator(ownerAddr, strangerAddr, false); err != nil {
		t.Fatalf("revoke creator: %v", err)
	}
	if _, err := f.CreateRewarder(strangerAddr, bonusAddr, stakedAddr, big.NewInt(10), false); !errors.Is(err, errNotCreator) {
		t.Fatalf("revoked creator still allowed: %v", err)
	}
}

func TestCreateRewarderValidatesTokens(t *testing.T) {
	f, _, _ := newTestFactory(t)
	missing := common.HexToAddress("0x0000000000000000000000000000000000000ff1")

	if _, err := f.CreateRewarder(ownerAddr, missing, stakedAddr, big.NewInt(10), false); !errors.Is(err, errUnknownToken) {
		t.Fatalf("expected reward token validation, got %v", err)
	}
	if _, err := f.CreateRewarder(ownerAddr, bonusAddr, missing, big.NewInt(10), false); !errors.Is(err, errUnknownToken) {
		t.Fatalf("expected staked token validation, got %v", err)
	}
	over := new(big.Int).Add(maxRatePerSecond, big.NewInt(1))
	if _, err := f.CreateRewarder(ownerAddr, bonusAddr, stakedAddr, over, false); !errors.Is(err, errRateAboveCeiling) {
		t.Fatalf("expected rate ceiling, got %v", err)
	}
}

func TestIdenticalParametersYieldDistinctIdentities(t *testing.T) {
	f, _, recorder := newTestFactory(t)

	first, err := f.CreateRewarder(ownerAddr, bonusAddr, stakedAddr, big.NewInt(10), false)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := f.CreateRewarder(ownerAddr, bonusAddr, stakedAddr, big.NewInt(10), false)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if first.Address() == second.Address() {
		t.Fatalf("sequence-derived identities collided: %s", first.Address().Hex())
	}

	if f.Count() != 2 {
		t.Fatalf("registry count %d, want 2", f.Count())
	}
	got, err := f.ByIndex(1)
	if err != nil {
		t.Fatalf("by index: %v", err)
	}
	if got != second {
		t.Fatalf("registry order broken")
	}
	if _, err := f.ByIndex(2); !errors.Is(err, errIndexOutOfRange) {
		t.Fatalf("expected out-of-range error, got %v", err)
	}

	created := recorder.ByType(events.TypeRewarderCreated)
	if len(created) != 2 {
		t.Fatalf("expected 2 creation events, got %d", len(created))
	}
	evt := created[0].(events.RewarderCreated)
	if evt.Sequence != 0 || evt.Rewarder != first.Address() || evt.Creator != ownerAddr {
		t.Fatalf("unexpected creation event: %+v", evt)
	}
}

func TestDerivationIsDeterministic(t *testing.T) {
	f1, _, _ := newTestFactory(t)
	f2, _, _ := newTestFactory(t)

	a, err := f1.CreateRewarder(ownerAddr, bonusAddr, stakedAddr, big.NewInt(1), false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := f2.CreateRewarder(ownerAddr, bonusAddr, stakedAddr, big.NewInt(99), true)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Identity depends on (factory, sequence) only, never on parameters.
	if a.Address() != b.Address() {
		t.Fatalf("derivation not deterministic: %s vs %s", a.Address().Hex(), b.Address().Hex())
	}
}

func TestNativeAssetCreation(t *testing.T) {
	f, bank, _ := newTestFactory(t)

	r, err := f.CreateRewarder(ownerAddr, common.Address{}, stakedAddr, big.NewInt(10), true)
	if err != nil {
		t.Fatalf("native create: %v", err)
	}
	if !r.NativeAsset() {
		t.Fatalf("native flag lost")
	}
	tok, symbol := r.RewardToken()
	if tok != token.Native || symbol != "NATIVE" {
		t.Fatalf("native reward token not bound: %s %q", tok.Hex(), symbol)
	}
	if err := bank.Mint(token.Native, r.Address(), big.NewInt(5)); err != nil {
		t.Fatalf("native funding must be possible: %v", err)
	}
}
