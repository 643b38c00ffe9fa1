package streampool

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"streampay/core/events"
	"streampay/core/types"
)

var errNilState = errors.New("streampool engine: state not configured")

// AssetTransfer abstracts the custody layer that actually moves the
// underlying asset. An empty asset denotes the native coin, where PullIn may
// be a no-op when the amount arrived atomically with the triggering call
// (payable-call pattern). The collaborator is untrusted: it may call back
// into the ledger, so the engine finishes its own bookkeeping before handing
// over control.
type AssetTransfer interface {
	PullIn(asset string, from [20]byte, amount *big.Int) error
	PushOut(asset string, to [20]byte, amount *big.Int) error
}

// NoopTransfer accepts every custody movement without acting on it. It is the
// default collaborator and the natural choice when the surrounding system
// settles balances elsewhere.
type NoopTransfer struct{}

func (NoopTransfer) PullIn(string, [20]byte, *big.Int) error  { return nil }
func (NoopTransfer) PushOut(string, [20]byte, *big.Int) error { return nil }

// Authorizer decides whether a caller may mutate the share registry.
type Authorizer interface {
	IsAuthorized(caller [20]byte) bool
}

// AuthorizerFunc adapts a plain function to the Authorizer interface.
type AuthorizerFunc func(caller [20]byte) bool

func (f AuthorizerFunc) IsAuthorized(caller [20]byte) bool { return f(caller) }

type poolEvent struct {
	evt *types.Event
}

func (e poolEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e poolEvent) Event() *types.Event { return e.evt }

// Engine is the streaming-pool ledger: it records deposits into time-bound
// vesting pools and pays each shareholder their proportional, time-vested
// entitlement on demand. A single mutex serializes the mutating operations
// so entitlement math always sees a registry consistent with the instant of
// computation.
type Engine struct {
	mu       sync.Mutex
	state    LedgerState
	transfer AssetTransfer
	auth     Authorizer
	emitter  events.Emitter
	nowFn    func() int64
}

// NewEngine creates a ledger engine with no-op collaborators. Callers wire
// state, custody, authorization and events via the setters.
func NewEngine() *Engine {
	return &Engine{
		transfer: NoopTransfer{},
		emitter:  events.NoopEmitter{},
		nowFn:    func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the storage backend used by the engine.
func (e *Engine) SetState(state LedgerState) { e.state = state }

// SetTransfer configures the custody collaborator. Passing nil resets it to
// the no-op implementation.
func (e *Engine) SetTransfer(transfer AssetTransfer) {
	if transfer == nil {
		e.transfer = NoopTransfer{}
		return
	}
	e.transfer = transfer
}

// SetAuthorizer configures the share-update authorization check. With no
// authorizer configured every SetShares call is rejected.
func (e *Engine) SetAuthorizer(auth Authorizer) { e.auth = auth }

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps. The clock must be monotonic
// non-decreasing and unit-consistent with pool periods (Unix seconds).
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(poolEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// Deposit opens a native-coin pool. The deposited amount is assumed received
// atomically with the call that triggered it; PullIn is still consulted so
// custody backends that need to act on native receipts can.
func (e *Engine) Deposit(depositor [20]byte, amount *big.Int, period int64) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.createPool(NativeAsset, depositor, amount, period)
}

// DepositToken opens a token pool and pulls the deposit into custody. The
// native sentinel is rejected; use Deposit for native-coin pools.
func (e *Engine) DepositToken(asset string, depositor [20]byte, amount *big.Int, period int64) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	normalized := NormalizeAsset(asset)
	if normalized == NativeAsset {
		return 0, ErrInvalidAsset
	}
	return e.createPool(normalized, depositor, amount, period)
}

func (e *Engine) createPool(asset string, depositor [20]byte, amount *big.Int, period int64) (uint64, error) {
	if e.state == nil {
		return 0, errNilState
	}
	if period <= 0 {
		return 0, ErrInvalidPeriod
	}
	if amount == nil || amount.Sign() <= 0 {
		return 0, ErrInsufficientDeposit
	}
	count, err := e.state.PoolCount()
	if err != nil {
		return 0, err
	}
	pool := &Pool{
		ID:          count + 1,
		Asset:       asset,
		Depositor:   depositor,
		Deposited:   copyBigInt(amount),
		DepositedAt: e.now(),
		Period:      period,
	}
	// Custody first: a rejected pull must leave no pool allocated.
	if err := e.transfer.PullIn(asset, depositor, copyBigInt(amount)); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := e.state.PoolPut(pool); err != nil {
		return 0, err
	}
	if err := e.state.SetPoolCount(pool.ID); err != nil {
		return 0, err
	}
	e.emit(NewDepositEvent(pool))
	return pool.ID, nil
}

// Withdraw pays the participant everything they are currently entitled to
// from the pool and have not yet drawn. The entitlement uses the CURRENT
// registry weights, not a snapshot taken at deposit time, so a share update
// re-weights the undrawn balance of every existing pool. A zero payout is a
// legal no-op that simply re-confirms state.
//
// Bookkeeping is recorded before the custody push so a re-entrant transfer
// collaborator cannot double-pay; a failed push rolls the record back.
func (e *Engine) Withdraw(poolID uint64, participant [20]byte) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil, errNilState
	}
	weight, err := e.state.ShareWeight(participant)
	if err != nil {
		return nil, err
	}
	if weight.Sign() == 0 {
		return nil, ErrNoShare
	}
	if weight.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative weight stored", ErrInvariantViolation)
	}
	pool, ok, err := e.state.PoolGet(poolID)
	if err != nil {
		return nil, err
	}
	if poolID == 0 || !ok {
		return nil, ErrInvalidPool
	}
	total, err := e.state.TotalShareWeight()
	if err != nil {
		return nil, err
	}
	if total.Sign() <= 0 {
		// A participant with weight already passed, so an empty registry here
		// means the incremental total diverged from the stored rows.
		return nil, ErrNoShares
	}
	elapsed := e.now() - pool.DepositedAt
	if elapsed < 0 {
		elapsed = 0
	}
	vested := VestedAmount(pool.Deposited, elapsed, pool.Period)
	entitlement := splitByWeight(vested, weight, total)
	drawn, err := e.state.Withdrawn(pool.ID, participant)
	if err != nil {
		return nil, err
	}
	withdrawable := new(big.Int).Sub(entitlement, drawn)
	if withdrawable.Sign() < 0 {
		return nil, fmt.Errorf("%w: entitlement %s below recorded withdrawals %s",
			ErrInvariantViolation, entitlement, drawn)
	}
	if err := e.state.SetWithdrawn(pool.ID, participant, entitlement); err != nil {
		return nil, err
	}
	if withdrawable.Sign() > 0 {
		if err := e.transfer.PushOut(pool.Asset, participant, copyBigInt(withdrawable)); err != nil {
			if rbErr := e.state.SetWithdrawn(pool.ID, participant, drawn); rbErr != nil {
				return nil, fmt.Errorf("%w: rollback failed after %v", ErrInvariantViolation, err)
			}
			return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
	}
	e.emit(NewWithdrawEvent(pool, participant, withdrawable))
	return withdrawable, nil
}

// PoolInfo returns an immutable snapshot of the pool record.
func (e *Engine) PoolInfo(poolID uint64) (*Pool, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pool, ok, err := e.state.PoolGet(poolID)
	if err != nil {
		return nil, err
	}
	if poolID == 0 || !ok {
		return nil, ErrInvalidPool
	}
	return pool, nil
}

// Withdrawn reports the cumulative amount already paid to the participant
// from the pool.
func (e *Engine) Withdrawn(poolID uint64, participant [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	_, ok, err := e.state.PoolGet(poolID)
	if err != nil {
		return nil, err
	}
	if poolID == 0 || !ok {
		return nil, ErrInvalidPool
	}
	return e.state.Withdrawn(poolID, participant)
}
