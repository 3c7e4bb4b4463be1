package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/traderjoe-xyz/auto-pool-token-farm/core/types"
)

const (
	TypeRewarderPaid        = "rewarder.reward_paid"
	TypeRewarderRateUpdated = "rewarder.rate_updated"
	TypeRewarderCreated     = "rewarder.created"
)

// RewarderPaid carries the amount actually transferred to the user, which may
// fall short of the nominal pending amount when the rewarder is underfunded.
type RewarderPaid struct {
	Rewarder common.Address
	User     common.Address
	Amount   *big.Int
	Unpaid   *big.Int
}

func (RewarderPaid) EventType() string { return TypeRewarderPaid }

func (e RewarderPaid) Event() *types.Event {
	return &types.Event{
		Type: TypeRewarderPaid,
		Attributes: map[string]string{
			"rewarder": formatAddress(e.Rewarder),
			"user":     formatAddress(e.User),
			"amount":   formatAmount(e.Amount),
			"unpaid":   formatAmount(e.Unpaid),
		},
	}
}

type RewarderRateUpdated struct {
	Rewarder      common.Address
	RatePerSecond *big.Int
}

func (RewarderRateUpdated) EventType() string { return TypeRewarderRateUpdated }

func (e RewarderRateUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeRewarderRateUpdated,
		Attributes: map[string]string{
			"rewarder":      formatAddress(e.Rewarder),
			"ratePerSecond": formatAmount(e.RatePerSecond),
		},
	}
}

// RewarderCreated is emitted by the factory for every provisioned instance.
type RewarderCreated struct {
	Rewarder      common.Address
	Sequence      uint64
	RewardToken   common.Address
	StakedToken   common.Address
	RatePerSecond *big.Int
	NativeAsset   bool
	Creator       common.Address
}

func (RewarderCreated) EventType() string { return TypeRewarderCreated }

func (e RewarderCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeRewarderCreated,
		Attributes: map[string]string{
			"rewarder":      formatAddress(e.Rewarder),
			"sequence":      uintToString(e.Sequence),
			"rewardToken":   formatAddress(e.RewardToken),
			"stakedToken":   formatAddress(e.StakedToken),
			"ratePerSecond": formatAmount(e.RatePerSecond),
			"nativeAsset":   boolToString(e.NativeAsset),
			"creator":       formatAddress(e.Creator),
		},
	}
}
