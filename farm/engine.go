package farm

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/traderjoe-xyz/auto-pool-token-farm/core/events"
	"github.com/traderjoe-xyz/auto-pool-token-farm/token"
)

// Ledger is the top-level farm: it owns the pool set, every user position and
// the token→pool uniqueness index, and streams the reward token to depositors
// at each pool's configured rate.
//
// The execution model is serialized and atomic per call. Every mutating entry
// point holds the reentrancy guard for its full duration; a token or rewarder
// callback that re-enters a mutating operation is rejected. All fallible
// checks run before any internal state is committed, and external transfers
// and rewarder notifications run after, so a failed operation leaves no
// partial state behind.
type Ledger struct {
	guard       reentrancyGuard
	port        token.Port
	emitter     events.Emitter
	nowFn       func() int64
	operator    common.Address
	self        common.Address
	rewardToken common.Address

	pools       []*Pool
	poolByToken map[common.Address]uint64
	positions   map[positionKey]*UserPosition
}

// NewLedger constructs a farm ledger holding custody under the self address.
// The reward token must already be reachable through the port.
func NewLedger(operator, self, rewardToken common.Address, port token.Port) (*Ledger, error) {
	if port == nil {
		return nil, errNilPort
	}
	if _, err := port.BalanceOf(rewardToken, self); err != nil {
		return nil, fmt.Errorf("farm ledger: reward token probe: %w", err)
	}
	return &Ledger{
		port:        port,
		emitter:     events.NoopEmitter{},
		nowFn:       func() int64 { return time.Now().Unix() },
		operator:    operator,
		self:        self,
		rewardToken: rewardToken,
		poolByToken: make(map[common.Address]uint64),
		positions:   make(map[positionKey]*UserPosition),
	}, nil
}

// SetEmitter configures the event emitter used by the ledger.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (l *Ledger) SetNowFunc(now func() int64) {
	if now == nil {
		l.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	l.nowFn = now
}

// Address returns the ledger's custody address.
func (l *Ledger) Address() common.Address { return l.self }

// RewardToken returns the primary reward token identity.
func (l *Ledger) RewardToken() common.Address { return l.rewardToken }

// Operator returns the configured operator address.
func (l *Ledger) Operator() common.Address { return l.operator }

func (l *Ledger) emit(evt events.Event) {
	if l.emitter != nil {
		l.emitter.Emit(evt)
	}
}

func (l *Ledger) requireOperator(caller common.Address) error {
	if caller != l.operator {
		return errNotOperator
	}
	return nil
}

func (l *Ledger) pool(pid uint64) (*Pool, error) {
	if pid >= uint64(len(l.pools)) {
		return nil, fmt.Errorf("%w: %d", errPoolNotFound, pid)
	}
	return l.pools[pid], nil
}

func (l *Ledger) position(pid uint64, user common.Address) *UserPosition {
	key := positionKey{pid: pid, user: user}
	pos, ok := l.positions[key]
	if !ok {
		pos = &UserPosition{Amount: big.NewInt(0), RewardDebt: big.NewInt(0)}
		l.positions[key] = pos
	}
	return pos
}

func checkRate(rate *big.Int) error {
	if rate == nil {
		return errInvalidRate
	}
	if rate.Sign() < 0 || rate.Cmp(maxRatePerSecond) > 0 {
		return fmt.Errorf("%w: %s", errRateAboveCeiling, rate)
	}
	return nil
}

// probeRewarder issues a zero-effect notification so a malformed rewarder
// attachment fails at configuration time rather than at the first deposit.
func (l *Ledger) probeRewarder(r Rewarder) error {
	if r == nil {
		return nil
	}
	if _, err := r.OnStakeChange(l.self, common.Address{}, big.NewInt(0)); err != nil {
		return fmt.Errorf("%w: %v", errRewarderProbeFailed, err)
	}
	return nil
}

// settle advances the pool's accumulator to now. lastRewardTime moves even
// when nothing is staked, so stake appearing later earns no back-dated
// reward.
func settle(p *Pool, now int64) {
	if now <= p.LastRewardTime {
		return
	}
	elapsed := now - p.LastRewardTime
	if p.TotalStaked.Sign() > 0 {
		p.AccRewardPerShare.Add(p.AccRewardPerShare, accrualPerShare(elapsed, p.RatePerSecond, p.TotalStaked))
	}
	p.LastRewardTime = now
}

// settledAcc projects the accumulator value settlement would produce at now,
// without mutating the pool.
func settledAcc(p *Pool, now int64) *big.Int {
	acc := new(big.Int).Set(p.AccRewardPerShare)
	if now > p.LastRewardTime && p.TotalStaked.Sign() > 0 {
		acc.Add(acc, accrualPerShare(now-p.LastRewardTime, p.RatePerSecond, p.TotalStaked))
	}
	return acc
}

// AddPool registers a new pool for stakedToken. Pool identifiers are
// sequential and zero based. Operator only.
func (l *Ledger) AddPool(caller common.Address, ratePerSecond *big.Int, stakedToken common.Address, rewarder Rewarder) (uint64, error) {
	if err := l.guard.enter(); err != nil {
		return 0, err
	}
	defer l.guard.exit()
	if err := l.requireOperator(caller); err != nil {
		return 0, err
	}
	if err := checkRate(ratePerSecond); err != nil {
		return 0, err
	}
	if stakedToken == l.rewardToken {
		return 0, errRewardTokenStaked
	}
	if _, ok := l.poolByToken[stakedToken]; ok {
		return 0, fmt.Errorf("%w: %s", errPoolExists, stakedToken.Hex())
	}
	// Capability probe: the token must at least answer a balance query.
	if _, err := l.port.BalanceOf(stakedToken, l.self); err != nil {
		return 0, fmt.Errorf("farm ledger: staked token probe: %w", err)
	}
	if err := l.probeRewarder(rewarder); err != nil {
		return 0, err
	}

	pid := uint64(len(l.pools))
	pool := &Pool{
		StakedToken:       stakedToken,
		AccRewardPerShare: big.NewInt(0),
		LastRewardTime:    l.nowFn(),
		RatePerSecond:     newBigInt(ratePerSecond),
		Rewarder:          rewarder,
		TotalStaked:       big.NewInt(0),
	}
	l.pools = append(l.pools, pool)
	l.poolByToken[stakedToken] = pid

	evt := events.FarmPoolCreated{
		PoolID:        pid,
		StakedToken:   stakedToken,
		RatePerSecond: newBigInt(ratePerSecond),
	}
	if rewarder != nil {
		evt.Rewarder = rewarder.Address()
	}
	l.emit(evt)
	return pid, nil
}

// SetPool updates a pool's emission rate and, when overwriteRewarder is set,
// its rewarder attachment. The pool is settled at the old rate first so the
// change is never retroactive. Operator only.
func (l *Ledger) SetPool(caller common.Address, pid uint64, ratePerSecond *big.Int, rewarder Rewarder, overwriteRewarder bool) error {
	if err := l.guard.enter(); err != nil {
		return err
	}
	defer l.guard.exit()
	if err := l.requireOperator(caller); err != nil {
		return err
	}
	pool, err := l.pool(pid)
	if err != nil {
		return err
	}
	if err := checkRate(ratePerSecond); err != nil {
		return err
	}
	if overwriteRewarder {
		if err := l.probeRewarder(rewarder); err != nil {
			return err
		}
	}

	settle(pool, l.nowFn())
	pool.RatePerSecond = newBigInt(ratePerSecond)
	if overwriteRewarder {
		pool.Rewarder = rewarder
	}

	evt := events.FarmPoolUpdated{
		PoolID:            pid,
		RatePerSecond:     newBigInt(ratePerSecond),
		RewarderOverwrite: overwriteRewarder,
	}
	if pool.Rewarder != nil {
		evt.Rewarder = pool.Rewarder.Address()
	}
	l.emit(evt)
	return nil
}

// PendingReward projects the user's claimable primary reward, and the
// secondary stream when a rewarder is attached, without mutating any state.
func (l *Ledger) PendingReward(pid uint64, user common.Address) (*PendingReward, error) {
	pool, err := l.pool(pid)
	if err != nil {
		return nil, err
	}
	pos := l.positions[positionKey{pid: pid, user: user}]
	amount, debt := big.NewInt(0), big.NewInt(0)
	if pos != nil {
		amount, debt = pos.Amount, pos.RewardDebt
	}

	result := &PendingReward{
		Primary: pendingAmount(amount, settledAcc(pool, l.nowFn()), debt),
		Bonus:   big.NewInt(0),
	}
	if pool.Rewarder != nil {
		bonus, err := pool.Rewarder.PendingTokens(user)
		if err != nil {
			return nil, fmt.Errorf("farm ledger: rewarder pending query: %w", err)
		}
		result.BonusToken, result.BonusSymbol = pool.Rewarder.RewardToken()
		result.Bonus = bonus
	}
	return result, nil
}

// Deposit pulls amount of the pool's staked token from the caller, harvesting
// any pending primary reward first. The credited amount is the observed
// balance delta, so transfer-fee tokens stay accounted exactly.
func (l *Ledger) Deposit(caller common.Address, pid uint64, amount *big.Int) error {
	if err := l.guard.enter(); err != nil {
		return err
	}
	defer l.guard.exit()
	if amount == nil || amount.Sign() < 0 {
		return errInvalidAmount
	}
	pool, err := l.pool(pid)
	if err != nil {
		return err
	}
	now := l.nowFn()
	acc := settledAcc(pool, now)
	pos := l.position(pid, caller)
	pending := pendingAmount(pos.Amount, acc, pos.RewardDebt)
	if err := l.checkRewardFunding(pending); err != nil {
		return err
	}

	received, err := l.port.TransferFrom(pool.StakedToken, caller, l.self, amount)
	if err != nil {
		return fmt.Errorf("farm ledger: deposit transfer: %w", err)
	}

	// Commit. The harvest below is computed from state this block overwrites,
	// which is safe under the guard.
	pool.AccRewardPerShare = acc
	pool.LastRewardTime = now
	pos.Amount = new(big.Int).Add(pos.Amount, received)
	pool.TotalStaked = new(big.Int).Add(pool.TotalStaked, received)
	pos.RewardDebt = rewardDebt(pos.Amount, acc)

	if err := l.payReward(caller, pending); err != nil {
		return err
	}
	l.notifyRewarder(pool, caller, pos.Amount)
	l.emit(events.FarmDeposit{PoolID: pid, User: caller, Amount: newBigInt(received)})
	return nil
}

// Withdraw returns amount of staked principal to the caller after harvesting
// the pending primary reward. Fails when amount exceeds the staked balance or
// the primary payout cannot be fully funded.
func (l *Ledger) Withdraw(caller common.Address, pid uint64, amount *big.Int) error {
	if err := l.guard.enter(); err != nil {
		return err
	}
	defer l.guard.exit()
	if amount == nil || amount.Sign() < 0 {
		return errInvalidAmount
	}
	pool, err := l.pool(pid)
	if err != nil {
		return err
	}
	pos := l.position(pid, caller)
	if pos.Amount.Cmp(amount) < 0 {
		return fmt.Errorf("%w: attempted %s available %s", errWithdrawExceeds, amount, pos.Amount)
	}
	now := l.nowFn()
	acc := settledAcc(pool, now)
	pending := pendingAmount(pos.Amount, acc, pos.RewardDebt)
	if err := l.checkRewardFunding(pending); err != nil {
		return err
	}

	pool.AccRewardPerShare = acc
	pool.LastRewardTime = now
	pos.Amount = new(big.Int).Sub(pos.Amount, amount)
	pool.TotalStaked = new(big.Int).Sub(pool.TotalStaked, amount)
	pos.RewardDebt = rewardDebt(pos.Amount, acc)

	if err := l.payReward(caller, pending); err != nil {
		return err
	}
	l.notifyRewarder(pool, caller, pos.Amount)
	if err := l.port.Transfer(pool.StakedToken, l.self, caller, amount); err != nil {
		return fmt.Errorf("farm ledger: withdraw transfer: %w", err)
	}
	l.emit(events.FarmWithdraw{PoolID: pid, User: caller, Amount: newBigInt(amount)})
	return nil
}

// EmergencyWithdraw returns the caller's full principal without settling or
// harvesting. It is the escape hatch when the primary reward path is broken;
// pending reward is forfeited. The rewarder is still notified with a zero
// stake so its own accounting stays honest, and a rewarder failure never
// blocks the principal from leaving. A caller with no staked balance is a
// silent no-op.
func (l *Ledger) EmergencyWithdraw(caller common.Address, pid uint64) error {
	if err := l.guard.enter(); err != nil {
		return err
	}
	defer l.guard.exit()
	pool, err := l.pool(pid)
	if err != nil {
		return err
	}
	pos := l.position(pid, caller)
	amount := pos.Amount
	if amount.Sign() == 0 {
		return nil
	}
	pos.Amount = big.NewInt(0)
	pos.RewardDebt = big.NewInt(0)
	pool.TotalStaked = new(big.Int).Sub(pool.TotalStaked, amount)

	l.notifyRewarder(pool, caller, big.NewInt(0))
	if err := l.port.Transfer(pool.StakedToken, l.self, caller, amount); err != nil {
		return fmt.Errorf("farm ledger: emergency transfer: %w", err)
	}
	l.emit(events.FarmEmergencyWithdraw{PoolID: pid, User: caller, Amount: newBigInt(amount)})
	return nil
}

// HarvestMany settles every requested pool and pays the caller's accumulated
// primary reward in a single transfer. The funding check covers the batch
// total, so the whole batch succeeds or fails together.
func (l *Ledger) HarvestMany(caller common.Address, pids []uint64) error {
	if err := l.guard.enter(); err != nil {
		return err
	}
	defer l.guard.exit()
	now := l.nowFn()

	// First pass: project settlements and sum the payout without mutating.
	// A repeated pool id is worth zero on its second settlement, so
	// duplicates are skipped rather than double-counted.
	total := big.NewInt(0)
	accs := make([]*big.Int, len(pids))
	seen := make(map[uint64]bool, len(pids))
	for i, pid := range pids {
		pool, err := l.pool(pid)
		if err != nil {
			return err
		}
		if seen[pid] {
			continue
		}
		seen[pid] = true
		accs[i] = settledAcc(pool, now)
		pos := l.positions[positionKey{pid: pid, user: caller}]
		if pos != nil {
			total.Add(total, pendingAmount(pos.Amount, accs[i], pos.RewardDebt))
		}
	}
	if err := l.checkRewardFunding(total); err != nil {
		return err
	}

	// Second pass: commit settlements and debts, then notify rewarders.
	for i, pid := range pids {
		if accs[i] == nil {
			continue
		}
		pool := l.pools[pid]
		pool.AccRewardPerShare = accs[i]
		pool.LastRewardTime = now
		pos := l.positions[positionKey{pid: pid, user: caller}]
		if pos == nil {
			continue
		}
		pos.RewardDebt = rewardDebt(pos.Amount, accs[i])
		l.notifyRewarder(pool, caller, pos.Amount)
	}
	if err := l.payReward(caller, total); err != nil {
		return err
	}
	l.emit(events.FarmBatchHarvest{User: caller, PoolIDs: append([]uint64(nil), pids...), Amount: total})
	return nil
}

// Skim sweeps token balance held in excess of the accounted principal for
// that token's pool. Accounted principal is never touched, and a skim with no
// excess is a silent no-op. Operator only.
func (l *Ledger) Skim(caller, tok, to common.Address) (*big.Int, error) {
	if err := l.guard.enter(); err != nil {
		return nil, err
	}
	defer l.guard.exit()
	if err := l.requireOperator(caller); err != nil {
		return nil, err
	}
	balance, err := l.port.BalanceOf(tok, l.self)
	if err != nil {
		return nil, fmt.Errorf("farm ledger: skim balance query: %w", err)
	}
	tracked := big.NewInt(0)
	if pid, ok := l.poolByToken[tok]; ok {
		tracked = l.pools[pid].TotalStaked
	}
	excess := new(big.Int).Sub(balance, tracked)
	if excess.Sign() <= 0 {
		return big.NewInt(0), nil
	}
	if err := l.port.Transfer(tok, l.self, to, excess); err != nil {
		return nil, fmt.Errorf("farm ledger: skim transfer: %w", err)
	}
	l.emit(events.FarmSkim{Token: tok, To: to, Amount: newBigInt(excess)})
	return excess, nil
}

// WithdrawRewardSurplus moves reward-token balance out of the ledger. A zero
// or nil amount means the entire current balance. Operator only.
func (l *Ledger) WithdrawRewardSurplus(caller, to common.Address, amount *big.Int) (*big.Int, error) {
	if err := l.guard.enter(); err != nil {
		return nil, err
	}
	defer l.guard.exit()
	if err := l.requireOperator(caller); err != nil {
		return nil, err
	}
	balance, err := l.port.BalanceOf(l.rewardToken, l.self)
	if err != nil {
		return nil, fmt.Errorf("farm ledger: surplus balance query: %w", err)
	}
	withdrawn := balance
	if amount != nil && amount.Sign() > 0 {
		if balance.Cmp(amount) < 0 {
			return nil, fmt.Errorf("%w: attempted %s available %s", errSurplusUnderfunded, amount, balance)
		}
		withdrawn = new(big.Int).Set(amount)
	}
	if withdrawn.Sign() > 0 {
		if err := l.port.Transfer(l.rewardToken, l.self, to, withdrawn); err != nil {
			return nil, fmt.Errorf("farm ledger: surplus transfer: %w", err)
		}
	}
	l.emit(events.FarmSurplusWithdrawn{To: to, Amount: newBigInt(withdrawn)})
	return withdrawn, nil
}

// PoolCount returns the number of registered pools.
func (l *Ledger) PoolCount() uint64 { return uint64(len(l.pools)) }

// PoolByID returns a defensive copy of the pool's state.
func (l *Ledger) PoolByID(pid uint64) (PoolView, error) {
	pool, err := l.pool(pid)
	if err != nil {
		return PoolView{}, err
	}
	return pool.view(pid), nil
}

// PoolByToken resolves the staked token's pool id through the uniqueness
// index.
func (l *Ledger) PoolByToken(stakedToken common.Address) (uint64, bool) {
	pid, ok := l.poolByToken[stakedToken]
	return pid, ok
}

// Position returns a defensive copy of the (pool, user) position.
func (l *Ledger) Position(pid uint64, user common.Address) (PositionView, error) {
	if _, err := l.pool(pid); err != nil {
		return PositionView{}, err
	}
	view := PositionView{PoolID: pid, User: user, Amount: big.NewInt(0), RewardDebt: big.NewInt(0)}
	if pos := l.positions[positionKey{pid: pid, user: user}]; pos != nil {
		view.Amount = newBigInt(pos.Amount)
		view.RewardDebt = newBigInt(pos.RewardDebt)
	}
	return view, nil
}

// checkRewardFunding enforces the all-or-nothing primary payout rule before
// any state is committed.
func (l *Ledger) checkRewardFunding(pending *big.Int) error {
	if pending == nil || pending.Sign() == 0 {
		return nil
	}
	balance, err := l.port.BalanceOf(l.rewardToken, l.self)
	if err != nil {
		return fmt.Errorf("farm ledger: reward balance query: %w", err)
	}
	if balance.Cmp(pending) < 0 {
		return fmt.Errorf("%w: pending %s available %s", errRewardUnderfunded, pending, balance)
	}
	return nil
}

func (l *Ledger) payReward(to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if err := l.port.Transfer(l.rewardToken, l.self, to, amount); err != nil {
		return fmt.Errorf("farm ledger: reward transfer: %w", err)
	}
	return nil
}

// notifyRewarder is best effort: rewarder code is not trusted, and a failing
// attachment must never block a user's principal or primary reward. A
// malformed rewarder is still rejected at configuration time by
// probeRewarder.
func (l *Ledger) notifyRewarder(pool *Pool, user common.Address, newAmount *big.Int) {
	if pool.Rewarder == nil {
		return
	}
	_, _ = pool.Rewarder.OnStakeChange(l.self, user, newAmount)
}
