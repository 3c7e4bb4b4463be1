package rewarder

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/traderjoe-xyz/auto-pool-token-farm/core/events"
	"github.com/traderjoe-xyz/auto-pool-token-farm/token"
)

type userInfo struct {
	amount        *big.Int
	rewardDebt    *big.Int
	unpaidRewards *big.Int
}

// SimpleRewarder streams an independently configured second reward token
// alongside a farm pool's primary stream. It keeps its own accumulator,
// denominated against the pool's live staked-token balance rather than the
// ledger's internal bookkeeping, so its reward-per-share stays correct even
// if several ledgers custody the same token.
//
// Underfunding is not fatal here: a shortfall at payout time is carried
// forward as unpaidRewards and settled opportunistically on a later
// notification once more funds arrive.
type SimpleRewarder struct {
	port    token.Port
	emitter events.Emitter
	nowFn   func() int64

	self        common.Address
	owner       common.Address
	ledger      common.Address
	rewardToken common.Address
	stakedToken common.Address
	nativeAsset bool

	ratePerSecond     *big.Int
	accRewardPerShare *big.Int
	lastRewardTime    int64
	users             map[common.Address]*userInfo
}

// newSimpleRewarder binds an instance immutably to its token pair and ledger.
// Instances are provisioned through the Factory.
func newSimpleRewarder(self, owner, ledger, rewardToken, stakedToken common.Address, ratePerSecond *big.Int, nativeAsset bool, port token.Port) *SimpleRewarder {
	return &SimpleRewarder{
		port:              port,
		emitter:           events.NoopEmitter{},
		nowFn:             func() int64 { return time.Now().Unix() },
		self:              self,
		owner:             owner,
		ledger:            ledger,
		rewardToken:       rewardToken,
		stakedToken:       stakedToken,
		nativeAsset:       nativeAsset,
		ratePerSecond:     newBigInt(ratePerSecond),
		accRewardPerShare: big.NewInt(0),
		lastRewardTime:    time.Now().Unix(),
		users:             make(map[common.Address]*userInfo),
	}
}

// SetEmitter configures the event emitter used by the rewarder.
func (r *SimpleRewarder) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing and
// re-anchors the accumulator at the new clock's current reading.
func (r *SimpleRewarder) SetNowFunc(now func() int64) {
	if now == nil {
		r.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	r.nowFn = now
	r.lastRewardTime = now()
}

// Address identifies the rewarder instance.
func (r *SimpleRewarder) Address() common.Address { return r.self }

// Owner returns the address allowed to change the rate and recover funds.
func (r *SimpleRewarder) Owner() common.Address { return r.owner }

// NativeAsset reports whether the instance pays the chain's native asset.
func (r *SimpleRewarder) NativeAsset() bool { return r.nativeAsset }

// RewardToken reports the secondary reward token and its symbol.
func (r *SimpleRewarder) RewardToken() (common.Address, string) {
	info, _ := r.port.Info(r.rewardToken)
	return r.rewardToken, info.Symbol
}

// RatePerSecond returns the configured emission rate.
func (r *SimpleRewarder) RatePerSecond() *big.Int { return newBigInt(r.ratePerSecond) }

// Balance returns the rewarder's current reward-token funding.
func (r *SimpleRewarder) Balance() (*big.Int, error) {
	return r.port.BalanceOf(r.rewardToken, r.self)
}

// stakedBalance reads the share denominator live from the ledger's custody.
func (r *SimpleRewarder) stakedBalance() (*big.Int, error) {
	return r.port.BalanceOf(r.stakedToken, r.ledger)
}

func (r *SimpleRewarder) settle() error {
	now := r.nowFn()
	if now <= r.lastRewardTime {
		return nil
	}
	staked, err := r.stakedBalance()
	if err != nil {
		return fmt.Errorf("rewarder: staked balance query: %w", err)
	}
	if staked.Sign() > 0 {
		r.accRewardPerShare.Add(r.accRewardPerShare, accrualPerShare(now-r.lastRewardTime, r.ratePerSecond, staked))
	}
	r.lastRewardTime = now
	return nil
}

// OnStakeChange settles the rewarder's accumulator, pays out what the current
// funding allows (carrying any shortfall), and records the user's new stake.
// Only the bound ledger may call it.
func (r *SimpleRewarder) OnStakeChange(caller, user common.Address, newAmount *big.Int) (*big.Int, error) {
	if caller != r.ledger {
		return nil, errNotLedger
	}
	if err := r.settle(); err != nil {
		return nil, err
	}
	u, ok := r.users[user]
	if !ok {
		u = &userInfo{amount: big.NewInt(0), rewardDebt: big.NewInt(0), unpaidRewards: big.NewInt(0)}
		r.users[user] = u
	}

	paid := big.NewInt(0)
	if u.amount.Sign() > 0 || u.unpaidRewards.Sign() > 0 {
		pending := rewardDebt(u.amount, r.accRewardPerShare)
		pending.Sub(pending, u.rewardDebt)
		pending.Add(pending, u.unpaidRewards)

		available, err := r.Balance()
		if err != nil {
			return nil, fmt.Errorf("rewarder: balance query: %w", err)
		}
		if pending.Cmp(available) > 0 {
			paid = available
			u.unpaidRewards = new(big.Int).Sub(pending, available)
		} else {
			paid = pending
			u.unpaidRewards = big.NewInt(0)
		}
		if paid.Sign() > 0 {
			if err := r.port.Transfer(r.rewardToken, r.self, user, paid); err != nil {
				return nil, fmt.Errorf("rewarder: payout transfer: %w", err)
			}
		}
		r.emitter.Emit(events.RewarderPaid{
			Rewarder: r.self,
			User:     user,
			Amount:   newBigInt(paid),
			Unpaid:   newBigInt(u.unpaidRewards),
		})
	}

	u.amount = newBigInt(newAmount)
	u.rewardDebt = rewardDebt(u.amount, r.accRewardPerShare)
	return paid, nil
}

// PendingTokens projects the user's claimable secondary reward, including any
// carried shortfall, without mutating state.
func (r *SimpleRewarder) PendingTokens(user common.Address) (*big.Int, error) {
	u, ok := r.users[user]
	if !ok {
		return big.NewInt(0), nil
	}
	acc := new(big.Int).Set(r.accRewardPerShare)
	if now := r.nowFn(); now > r.lastRewardTime {
		staked, err := r.stakedBalance()
		if err != nil {
			return nil, fmt.Errorf("rewarder: staked balance query: %w", err)
		}
		if staked.Sign() > 0 {
			acc.Add(acc, accrualPerShare(now-r.lastRewardTime, r.ratePerSecond, staked))
		}
	}
	pending := rewardDebt(u.amount, acc)
	pending.Sub(pending, u.rewardDebt)
	pending.Add(pending, u.unpaidRewards)
	if pending.Sign() < 0 {
		return big.NewInt(0), nil
	}
	return pending, nil
}

// SetRewardRate changes the emission rate after settling at the old rate.
// Owner only; the configuration-time ceiling applies.
func (r *SimpleRewarder) SetRewardRate(caller common.Address, ratePerSecond *big.Int) error {
	if caller != r.owner {
		return errNotOwner
	}
	if err := checkRate(ratePerSecond); err != nil {
		return err
	}
	if err := r.settle(); err != nil {
		return err
	}
	r.ratePerSecond = newBigInt(ratePerSecond)
	r.emitter.Emit(events.RewarderRateUpdated{Rewarder: r.self, RatePerSecond: newBigInt(ratePerSecond)})
	return nil
}

// EmergencyWithdraw recovers the rewarder's full balance of tok to the owner.
func (r *SimpleRewarder) EmergencyWithdraw(caller, tok common.Address) (*big.Int, error) {
	if caller != r.owner {
		return nil, errNotOwner
	}
	balance, err := r.port.BalanceOf(tok, r.self)
	if err != nil {
		return nil, fmt.Errorf("rewarder: balance query: %w", err)
	}
	if balance.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if err := r.port.Transfer(tok, r.self, r.owner, balance); err != nil {
		return nil, fmt.Errorf("rewarder: emergency transfer: %w", err)
	}
	return balance, nil
}
