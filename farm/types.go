package farm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Pool is one staked-token's reward-accounting record. AccRewardPerShare is
// fixed point at accPrecision and never decreases while TotalStaked > 0.
type Pool struct {
	StakedToken       common.Address
	AccRewardPerShare *big.Int
	LastRewardTime    int64
	RatePerSecond     *big.Int
	Rewarder          Rewarder
	TotalStaked       *big.Int
}

// UserPosition tracks one (pool, user) stake. RewardDebt is the accumulator
// value already accounted to the user at their last settlement, so pending
// reward is always Amount*AccRewardPerShare/accPrecision - RewardDebt.
type UserPosition struct {
	Amount     *big.Int
	RewardDebt *big.Int
}

// Rewarder is the secondary-reward delegation capability a pool may carry.
// The ledger never assumes a concrete type; it only notifies, projects and
// identifies.
type Rewarder interface {
	// Address identifies the rewarder instance for events and views.
	Address() common.Address
	// RewardToken reports the secondary reward token and its symbol.
	RewardToken() (common.Address, string)
	// OnStakeChange settles the rewarder against the user's new stake and
	// returns the secondary reward actually paid. Implementations must reject
	// callers other than the ledger they were initialised against.
	OnStakeChange(caller, user common.Address, newAmount *big.Int) (*big.Int, error)
	// PendingTokens projects the user's pending secondary reward without
	// mutating state.
	PendingTokens(user common.Address) (*big.Int, error)
}

// PoolView is a defensive copy of a pool's state for read-only consumers.
type PoolView struct {
	PoolID            uint64
	StakedToken       common.Address
	AccRewardPerShare *big.Int
	LastRewardTime    int64
	RatePerSecond     *big.Int
	TotalStaked       *big.Int
	Rewarder          common.Address
}

// PositionView is a defensive copy of a user position.
type PositionView struct {
	PoolID     uint64
	User       common.Address
	Amount     *big.Int
	RewardDebt *big.Int
}

// PendingReward is the projection returned by the ledger's pending query: the
// primary stream plus, when a rewarder is attached, the secondary stream and
// its token identity.
type PendingReward struct {
	Primary     *big.Int
	BonusToken  common.Address
	BonusSymbol string
	Bonus       *big.Int
}

type positionKey struct {
	pid  uint64
	user common.Address
}

func (p *Pool) view(pid uint64) PoolView {
	v := PoolView{
		PoolID:            pid,
		StakedToken:       p.StakedToken,
		AccRewardPerShare: new(big.Int).Set(p.AccRewardPerShare),
		LastRewardTime:    p.LastRewardTime,
		RatePerSecond:     new(big.Int).Set(p.RatePerSecond),
		TotalStaked:       new(big.Int).Set(p.TotalStaked),
	}
	if p.Rewarder != nil {
		v.Rewarder = p.Rewarder.Address()
	}
	return v
}
