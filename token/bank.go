package token

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	errUnknownToken        = errors.New("token bank: unknown token")
	errTokenExists         = errors.New("token bank: token already registered")
	errInvalidAmount       = errors.New("token bank: amount must not be negative")
	errInsufficientBalance = errors.New("token bank: insufficient balance")
	errFeeTooLarge         = errors.New("token bank: transfer fee above 100%")
)

const feeDenominator = 10_000

type tokenRecord struct {
	info     Info
	feeBps   uint64
	balances map[common.Address]*big.Int
}

// Bank is an in-memory implementation of the transfer Port. Per-token
// transfer fees (basis points, burned on every move) model fee-on-transfer
// tokens so callers relying on observed deltas can be exercised.
type Bank struct {
	mu     sync.RWMutex
	tokens map[common.Address]*tokenRecord
}

// NewBank constructs an empty bank with the native asset pre-registered.
func NewBank() *Bank {
	b := &Bank{tokens: make(map[common.Address]*tokenRecord)}
	b.tokens[Native] = &tokenRecord{
		info:     Info{Symbol: "NATIVE", Decimals: 18},
		balances: make(map[common.Address]*big.Int),
	}
	return b
}

// Register adds a token to the bank. feeBps is burned from every transfer of
// the token.
func (b *Bank) Register(addr common.Address, info Info, feeBps uint64) error {
	if feeBps > feeDenominator {
		return errFeeTooLarge
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.tokens[addr]; ok {
		return fmt.Errorf("%w: %s", errTokenExists, strings.ToLower(addr.Hex()))
	}
	b.tokens[addr] = &tokenRecord{
		info:     info,
		feeBps:   feeBps,
		balances: make(map[common.Address]*big.Int),
	}
	return nil
}

// Mint credits newly issued tokens to the holder.
func (b *Bank) Mint(token, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errInvalidAmount
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.tokens[token]
	if !ok {
		return errUnknownToken
	}
	rec.credit(to, amount)
	return nil
}

func (b *Bank) Exists(token common.Address) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.tokens[token]
	return ok
}

func (b *Bank) Info(token common.Address) (Info, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, ok := b.tokens[token]
	if !ok {
		return Info{}, false
	}
	return rec.info, true
}

func (b *Bank) BalanceOf(token, holder common.Address) (*big.Int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, ok := b.tokens[token]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownToken, strings.ToLower(token.Hex()))
	}
	return rec.balance(holder), nil
}

func (b *Bank) Transfer(token, from, to common.Address, amount *big.Int) error {
	_, err := b.TransferFrom(token, from, to, amount)
	return err
}

// TransferFrom debits amount from the source, burns the token's configured
// fee, credits the remainder to the destination and returns the credited
// amount.
func (b *Bank) TransferFrom(token, from, to common.Address, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, errInvalidAmount
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.tokens[token]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownToken, strings.ToLower(token.Hex()))
	}
	if amount.Sign() == 0 {
		return big.NewInt(0), nil
	}
	fromBal := rec.balance(from)
	if fromBal.Cmp(amount) < 0 {
		return nil, fmt.Errorf("%w: have %s want %s", errInsufficientBalance, fromBal, amount)
	}
	rec.balances[from] = new(big.Int).Sub(fromBal, amount)

	received := new(big.Int).Set(amount)
	if rec.feeBps > 0 {
		fee := new(big.Int).Mul(amount, new(big.Int).SetUint64(rec.feeBps))
		fee.Quo(fee, big.NewInt(feeDenominator))
		received.Sub(received, fee)
	}
	rec.credit(to, received)
	return received, nil
}

func (r *tokenRecord) balance(holder common.Address) *big.Int {
	if bal, ok := r.balances[holder]; ok {
		return new(big.Int).Set(bal)
	}
	return big.NewInt(0)
}

func (r *tokenRecord) credit(holder common.Address, amount *big.Int) {
	r.balances[holder] = new(big.Int).Add(r.balance(holder), amount)
}
