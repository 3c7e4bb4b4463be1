package rewarder

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/traderjoe-xyz/auto-pool-token-farm/core/events"
	"github.com/traderjoe-xyz/auto-pool-token-farm/token"
)

// Factory provisions SimpleRewarder instances bound to one farm ledger.
// Instance identities are derived from an internally incrementing sequence
// number, never from the creation parameters, so two rewarders with identical
// parameters still get distinct addresses. The registry is append only.
type Factory struct {
	port    token.Port
	emitter events.Emitter
	nowFn   func() int64

	self     common.Address
	ledger   common.Address
	operator common.Address

	sequence uint64
	registry []*SimpleRewarder
	creators map[common.Address]bool
}

// NewFactory constructs a factory whose creator set initially holds the
// operator (the deployer).
func NewFactory(operator, self, ledger common.Address, port token.Port) (*Factory, error) {
	if port == nil {
		return nil, errNilPort
	}
	return &Factory{
		port:     port,
		emitter:  events.NoopEmitter{},
		nowFn:    func() int64 { return time.Now().Unix() },
		self:     self,
		ledger:   ledger,
		operator: operator,
		creators: map[common.Address]bool{operator: true},
	}, nil
}

// SetEmitter configures the event emitter wired into the factory and every
// rewarder it creates afterwards.
func (f *Factory) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		f.emitter = events.NoopEmitter{}
		return
	}
	f.emitter = emitter
}

// SetNowFunc overrides the time source handed to created rewarders.
func (f *Factory) SetNowFunc(now func() int64) {
	if now == nil {
		f.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	f.nowFn = now
}

// AllowCreator adds or removes an address from the authorized creator set.
// Operator only.
func (f *Factory) AllowCreator(caller, creator common.Address, allowed bool) error {
	if caller != f.operator {
		return errNotOperator
	}
	if allowed {
		f.creators[creator] = true
		return nil
	}
	delete(f.creators, creator)
	return nil
}

// IsCreator reports membership in the authorized creator set.
func (f *Factory) IsCreator(addr common.Address) bool { return f.creators[addr] }

// CreateRewarder instantiates, initializes and registers a new rewarder for
// the supplied token pair. When nativeAsset is set the instance pays the
// native asset and rewardToken is ignored.
func (f *Factory) CreateRewarder(caller, rewardToken, stakedToken common.Address, ratePerSecond *big.Int, nativeAsset bool) (*SimpleRewarder, error) {
	if !f.creators[caller] {
		return nil, errNotCreator
	}
	if nativeAsset {
		rewardToken = token.Native
	} else if !f.port.Exists(rewardToken) {
		return nil, fmt.Errorf("%w: reward token %s", errUnknownToken, rewardToken.Hex())
	}
	if !f.port.Exists(stakedToken) {
		return nil, fmt.Errorf("%w: staked token %s", errUnknownToken, stakedToken.Hex())
	}
	if err := checkRate(ratePerSecond); err != nil {
		return nil, err
	}

	seq := f.sequence
	f.sequence++
	instance := f.deriveAddress(seq)

	r := newSimpleRewarder(instance, caller, f.ledger, rewardToken, stakedToken, ratePerSecond, nativeAsset, f.port)
	r.SetEmitter(f.emitter)
	r.SetNowFunc(f.nowFn)
	f.registry = append(f.registry, r)

	f.emitter.Emit(events.RewarderCreated{
		Rewarder:      instance,
		Sequence:      seq,
		RewardToken:   rewardToken,
		StakedToken:   stakedToken,
		RatePerSecond: newBigInt(ratePerSecond),
		NativeAsset:   nativeAsset,
		Creator:       caller,
	})
	return r, nil
}

// Count returns the number of rewarders ever created.
func (f *Factory) Count() uint64 { return uint64(len(f.registry)) }

// ByIndex returns the i-th created rewarder from the append-only registry.
func (f *Factory) ByIndex(i uint64) (*SimpleRewarder, error) {
	if i >= uint64(len(f.registry)) {
		return nil, fmt.Errorf("%w: %d", errIndexOutOfRange, i)
	}
	return f.registry[i], nil
}

// deriveAddress computes the deterministic instance identity from the factory
// address and the sequence number alone.
func (f *Factory) deriveAddress(seq uint64) common.Address {
	var seqBytes [8]byte
	binary.BigEndian.PutUint64(seqBytes[:], seq)
	digest := ethcrypto.Keccak256(f.self.Bytes(), seqBytes[:])
	return common.BytesToAddress(digest[12:])
}
