package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Native is the sentinel token identity for the chain's native asset.
// Rewarders created with the native-asset flag pay out against this identity.
var Native = common.Address{}

// Info describes a registered fungible token.
type Info struct {
	Symbol   string
	Decimals uint8
}

// Port moves fungible tokens in and out of an engine's custody. Implementors
// must report the observed balance delta from TransferFrom: the farm ledger
// credits deposits by delta, not by requested amount, so transfer-fee tokens
// remain accounted exactly.
type Port interface {
	// Exists reports whether the token identity resolves to a registered
	// token.
	Exists(token common.Address) bool
	// Info returns the token's descriptive metadata.
	Info(token common.Address) (Info, bool)
	// BalanceOf returns the holder's current balance. Fails for unknown
	// tokens, which doubles as the ledger's capability probe.
	BalanceOf(token, holder common.Address) (*big.Int, error)
	// Transfer moves amount from one holder to another.
	Transfer(token, from, to common.Address, amount *big.Int) error
	// TransferFrom moves up to amount from the source holder and returns the
	// amount actually received by the destination.
	TransferFrom(token, from, to common.Address, amount *big.Int) (*big.Int, error)
}
