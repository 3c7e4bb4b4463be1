package rewarder

import "errors"

var (
	errNilPort          = errors.New("rewarder: token port not configured")
	errNotLedger        = errors.New("rewarder: caller is not the bound ledger")
	errNotOwner         = errors.New("rewarder: caller is not the owner")
	errNotCreator       = errors.New("rewarder factory: caller not in creator set")
	errNotOperator      = errors.New("rewarder factory: caller is not the operator")
	errUnknownToken     = errors.New("rewarder factory: token does not resolve to a registered token")
	errInvalidRate      = errors.New("rewarder: rate not configured")
	errRateAboveCeiling = errors.New("rewarder: rate per second above safety ceiling")
	errIndexOutOfRange  = errors.New("rewarder factory: registry index out of range")
)
