package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/traderjoe-xyz/auto-pool-token-farm/core/types"
)

const (
	TypeFarmPoolCreated       = "farm.pool_created"
	TypeFarmPoolUpdated       = "farm.pool_updated"
	TypeFarmDeposit           = "farm.deposit"
	TypeFarmWithdraw          = "farm.withdraw"
	TypeFarmEmergencyWithdraw = "farm.emergency_withdraw"
	TypeFarmBatchHarvest      = "farm.batch_harvest"
	TypeFarmSkim              = "farm.skim"
	TypeFarmSurplusWithdrawn  = "farm.surplus_withdrawn"
)

// FarmPoolCreated is emitted when the operator registers a new staking pool.
type FarmPoolCreated struct {
	PoolID        uint64
	StakedToken   common.Address
	RatePerSecond *big.Int
	Rewarder      common.Address
}

func (FarmPoolCreated) EventType() string { return TypeFarmPoolCreated }

func (e FarmPoolCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeFarmPoolCreated,
		Attributes: map[string]string{
			"poolId":        uintToString(e.PoolID),
			"stakedToken":   formatAddress(e.StakedToken),
			"ratePerSecond": formatAmount(e.RatePerSecond),
			"rewarder":      formatAddress(e.Rewarder),
		},
	}
}

// FarmPoolUpdated is emitted when the operator changes a pool's emission rate
// or rewarder attachment.
type FarmPoolUpdated struct {
	PoolID            uint64
	RatePerSecond     *big.Int
	Rewarder          common.Address
	RewarderOverwrite bool
}

func (FarmPoolUpdated) EventType() string { return TypeFarmPoolUpdated }

func (e FarmPoolUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeFarmPoolUpdated,
		Attributes: map[string]string{
			"poolId":            uintToString(e.PoolID),
			"ratePerSecond":     formatAmount(e.RatePerSecond),
			"rewarder":          formatAddress(e.Rewarder),
			"rewarderOverwrite": boolToString(e.RewarderOverwrite),
		},
	}
}

// FarmDeposit carries the credited amount, which is the observed balance
// delta rather than the requested amount.
type FarmDeposit struct {
	PoolID uint64
	User   common.Address
	Amount *big.Int
}

func (FarmDeposit) EventType() string { return TypeFarmDeposit }

func (e FarmDeposit) Event() *types.Event {
	return &types.Event{
		Type: TypeFarmDeposit,
		Attributes: map[string]string{
			"poolId": uintToString(e.PoolID),
			"user":   formatAddress(e.User),
			"amount": formatAmount(e.Amount),
		},
	}
}

type FarmWithdraw struct {
	PoolID uint64
	User   common.Address
	Amount *big.Int
}

func (FarmWithdraw) EventType() string { return TypeFarmWithdraw }

func (e FarmWithdraw) Event() *types.Event {
	return &types.Event{
		Type: TypeFarmWithdraw,
		Attributes: map[string]string{
			"poolId": uintToString(e.PoolID),
			"user":   formatAddress(e.User),
			"amount": formatAmount(e.Amount),
		},
	}
}

// FarmEmergencyWithdraw records a principal-only exit that bypassed reward
// settlement.
type FarmEmergencyWithdraw struct {
	PoolID uint64
	User   common.Address
	Amount *big.Int
}

func (FarmEmergencyWithdraw) EventType() string { return TypeFarmEmergencyWithdraw }

func (e FarmEmergencyWithdraw) Event() *types.Event {
	return &types.Event{
		Type: TypeFarmEmergencyWithdraw,
		Attributes: map[string]string{
			"poolId": uintToString(e.PoolID),
			"user":   formatAddress(e.User),
			"amount": formatAmount(e.Amount),
		},
	}
}

// FarmBatchHarvest lists every pool settled in a HarvestMany call together
// with the single aggregated payout.
type FarmBatchHarvest struct {
	User    common.Address
	PoolIDs []uint64
	Amount  *big.Int
}

func (FarmBatchHarvest) EventType() string { return TypeFarmBatchHarvest }

func (e FarmBatchHarvest) Event() *types.Event {
	return &types.Event{
		Type: TypeFarmBatchHarvest,
		Attributes: map[string]string{
			"user":    formatAddress(e.User),
			"poolIds": joinPoolIDs(e.PoolIDs),
			"amount":  formatAmount(e.Amount),
		},
	}
}

// FarmSkim records sweeping of balance held in excess of accounted principal.
type FarmSkim struct {
	Token  common.Address
	To     common.Address
	Amount *big.Int
}

func (FarmSkim) EventType() string { return TypeFarmSkim }

func (e FarmSkim) Event() *types.Event {
	return &types.Event{
		Type: TypeFarmSkim,
		Attributes: map[string]string{
			"token":  formatAddress(e.Token),
			"to":     formatAddress(e.To),
			"amount": formatAmount(e.Amount),
		},
	}
}

type FarmSurplusWithdrawn struct {
	To     common.Address
	Amount *big.Int
}

func (FarmSurplusWithdrawn) EventType() string { return TypeFarmSurplusWithdrawn }

func (e FarmSurplusWithdrawn) Event() *types.Event {
	return &types.Event{
		Type: TypeFarmSurplusWithdrawn,
		Attributes: map[string]string{
			"to":     formatAddress(e.To),
			"amount": formatAmount(e.Amount),
		},
	}
}
