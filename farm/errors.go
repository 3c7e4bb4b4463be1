package farm

import "errors"

var (
	errNilPort             = errors.New("farm ledger: token port not configured")
	errNotOperator         = errors.New("farm ledger: caller is not the operator")
	errReentrantCall       = errors.New("farm ledger: reentrant call")
	errPoolExists          = errors.New("farm ledger: staked token already has a pool")
	errPoolNotFound        = errors.New("farm ledger: pool not found")
	errRewardTokenStaked   = errors.New("farm ledger: staked token must not be the reward token")
	errInvalidAmount       = errors.New("farm ledger: amount must be positive")
	errInvalidRate         = errors.New("farm ledger: rate not configured")
	errRateAboveCeiling    = errors.New("farm ledger: rate per second above safety ceiling")
	errWithdrawExceeds     = errors.New("farm ledger: withdraw amount exceeds staked balance")
	errRewardUnderfunded   = errors.New("farm ledger: insufficient reward token balance")
	errSurplusUnderfunded  = errors.New("farm ledger: surplus amount exceeds reward token balance")
	errRewarderProbeFailed = errors.New("farm ledger: rewarder probe failed")
)
