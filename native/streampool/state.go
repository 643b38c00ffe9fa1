package streampool

import (
	"math/big"
	"sync"
)

// LedgerState is the storage backend the engine writes through. The persisted
// layout is three relations: (participant, weight) rows plus the scalar
// total, pools keyed by sequential id, and (pool, participant, withdrawn)
// rows. Implementations must return deep copies of stored big integers.
type LedgerState interface {
	PoolPut(pool *Pool) error
	PoolGet(id uint64) (*Pool, bool, error)
	PoolCount() (uint64, error)
	SetPoolCount(count uint64) error

	ShareWeight(participant [20]byte) (*big.Int, error)
	SetShareWeight(participant [20]byte, weight *big.Int) error
	TotalShareWeight() (*big.Int, error)
	SetTotalShareWeight(total *big.Int) error

	Withdrawn(poolID uint64, participant [20]byte) (*big.Int, error)
	SetWithdrawn(poolID uint64, participant [20]byte, amount *big.Int) error
}

type withdrawnKey struct {
	pool        uint64
	participant [20]byte
}

// MemoryLedgerState keeps the full ledger in process memory. It is the
// default backend for tests and for embedding the ledger as a pure library.
type MemoryLedgerState struct {
	mu        sync.RWMutex
	pools     map[uint64]*Pool
	poolCount uint64
	weights   map[[20]byte]*big.Int
	total     *big.Int
	withdrawn map[withdrawnKey]*big.Int
}

// NewMemoryLedgerState returns an empty in-memory ledger state.
func NewMemoryLedgerState() *MemoryLedgerState {
	return &MemoryLedgerState{
		pools:     make(map[uint64]*Pool),
		weights:   make(map[[20]byte]*big.Int),
		total:     big.NewInt(0),
		withdrawn: make(map[withdrawnKey]*big.Int),
	}
}

func (s *MemoryLedgerState) PoolPut(pool *Pool) error {
	sanitized, err := SanitizePool(pool)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pools[sanitized.ID] = sanitized
	return nil
}

func (s *MemoryLedgerState) PoolGet(id uint64) (*Pool, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pool, ok := s.pools[id]
	if !ok {
		return nil, false, nil
	}
	return pool.Clone(), true, nil
}

func (s *MemoryLedgerState) PoolCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.poolCount, nil
}

func (s *MemoryLedgerState) SetPoolCount(count uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.poolCount = count
	return nil
}

func (s *MemoryLedgerState) ShareWeight(participant [20]byte) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyBigInt(s.weights[participant]), nil
}

func (s *MemoryLedgerState) SetShareWeight(participant [20]byte, weight *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weights[participant] = copyBigInt(weight)
	return nil
}

func (s *MemoryLedgerState) TotalShareWeight() (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyBigInt(s.total), nil
}

func (s *MemoryLedgerState) SetTotalShareWeight(total *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total = copyBigInt(total)
	return nil
}

func (s *MemoryLedgerState) Withdrawn(poolID uint64, participant [20]byte) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyBigInt(s.withdrawn[withdrawnKey{pool: poolID, participant: participant}]), nil
}

func (s *MemoryLedgerState) SetWithdrawn(poolID uint64, participant [20]byte, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.withdrawn[withdrawnKey{pool: poolID, participant: participant}] = copyBigInt(amount)
	return nil
}
