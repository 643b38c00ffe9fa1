package streampool

import (
	"fmt"
	"math/big"
)

// SetShares overwrites the weights of the listed participants after the
// delegated authorization check. Entries apply in order: each entry's delta
// against the participant's previous weight moves the running total, and for
// duplicate participants the last write wins, matching sequential assignment
// semantics. The batch is all-or-nothing: every entry is validated and the
// resulting total computed before anything is stored.
//
// Setting a weight to zero removes the participant's entitlement; the entry
// itself persists (there is no deletion primitive).
func (e *Engine) SetShares(caller [20]byte, updates []ShareUpdate) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return errNilState
	}
	if e.auth == nil || !e.auth.IsAuthorized(caller) {
		return ErrUnauthorized
	}
	if len(updates) == 0 {
		return ErrEmptyUpdate
	}
	for i, update := range updates {
		if update.Weight == nil || update.Weight.Sign() < 0 {
			return fmt.Errorf("%w: entry %d", ErrNegativeWeight, i)
		}
	}

	total, err := e.state.TotalShareWeight()
	if err != nil {
		return err
	}
	// Stage the whole batch first so duplicates resolve against pending
	// writes, then commit in one pass.
	pending := make(map[[20]byte]*big.Int, len(updates))
	for _, update := range updates {
		previous, ok := pending[update.Participant]
		if !ok {
			previous, err = e.state.ShareWeight(update.Participant)
			if err != nil {
				return err
			}
		}
		total.Add(total, update.Weight)
		total.Sub(total, previous)
		pending[update.Participant] = copyBigInt(update.Weight)
	}
	if total.Sign() < 0 {
		return fmt.Errorf("%w: total weight went negative", ErrInvariantViolation)
	}
	for participant, weight := range pending {
		if err := e.state.SetShareWeight(participant, weight); err != nil {
			return err
		}
	}
	if err := e.state.SetTotalShareWeight(total); err != nil {
		return err
	}
	e.emit(NewSharesUpdatedEvent(updates, total))
	return nil
}

// WeightOf returns the participant's current share weight. The read never
// fails; an unlisted participant weighs zero.
func (e *Engine) WeightOf(participant [20]byte) *big.Int {
	if e == nil || e.state == nil {
		return big.NewInt(0)
	}
	weight, err := e.state.ShareWeight(participant)
	if err != nil {
		return big.NewInt(0)
	}
	return weight
}

// TotalWeight returns the running sum of all stored weights. It is
// maintained incrementally on every update, never recomputed from scratch.
func (e *Engine) TotalWeight() *big.Int {
	if e == nil || e.state == nil {
		return big.NewInt(0)
	}
	total, err := e.state.TotalShareWeight()
	if err != nil {
		return big.NewInt(0)
	}
	return total
}
