package streampool

import (
	"fmt"
	"math/big"
	"strings"
)

// NativeAsset is the sentinel asset identifier denoting the native coin.
// Token pools carry a non-empty identifier chosen by the depositor's custody
// layer (symbol, contract address, or similar opaque key).
const NativeAsset = ""

// ShareUpdate assigns an absolute weight to one participant. Updates within a
// batch apply in order; later entries for the same participant overwrite
// earlier ones while every entry's delta still moves the running total,
// matching sequential assignment semantics.
type ShareUpdate struct {
	Participant [20]byte
	Weight      *big.Int
}

// Pool captures one deposit with its own vesting schedule. Everything except
// the per-participant withdrawal bookkeeping is immutable after creation, and
// pools are kept forever for audit history.
type Pool struct {
	ID          uint64
	Asset       string
	Depositor   [20]byte
	Deposited   *big.Int
	DepositedAt int64
	Period      int64
}

// Clone returns a deep copy so callers can mutate the copy without touching
// the stored instance.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Deposited != nil {
		clone.Deposited = new(big.Int).Set(p.Deposited)
	} else {
		clone.Deposited = big.NewInt(0)
	}
	return &clone
}

// NormalizeAsset trims the asset identifier; an all-whitespace identifier
// collapses to the native sentinel.
func NormalizeAsset(asset string) string {
	return strings.TrimSpace(asset)
}

// SanitizePool validates a pool record before it crosses a storage boundary.
// It returns a cloned instance with a normalized asset and non-nil amount.
func SanitizePool(p *Pool) (*Pool, error) {
	if p == nil {
		return nil, fmt.Errorf("streampool: nil pool")
	}
	clone := p.Clone()
	clone.Asset = NormalizeAsset(clone.Asset)
	if clone.ID == 0 {
		return nil, fmt.Errorf("%w: id 0 is reserved", ErrInvalidPool)
	}
	if clone.Period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if clone.Deposited.Sign() <= 0 {
		return nil, ErrInsufficientDeposit
	}
	return clone, nil
}

func copyBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
