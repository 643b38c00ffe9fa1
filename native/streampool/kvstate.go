package streampool

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	"streampay/storage"
)

const (
	keyPoolPrefix      = "streampool/pool/"
	keyPoolCount       = "streampool/pool-count"
	keySharePrefix     = "streampool/share/"
	keyShareTotal      = "streampool/share-total"
	keyWithdrawnPrefix = "streampool/withdrawn/"
)

type poolRecord struct {
	ID          uint64 `json:"id"`
	Asset       string `json:"asset,omitempty"`
	Depositor   string `json:"depositor"`
	Deposited   string `json:"deposited"`
	DepositedAt int64  `json:"depositedAt"`
	Period      int64  `json:"period"`
}

// KVLedgerState persists the ledger through a storage.Database. The layout
// mirrors the relational shape: weight rows and a total scalar, pool records
// keyed by big-endian id, and withdrawn rows keyed by (id, participant).
type KVLedgerState struct {
	db storage.Database
}

// NewKVLedgerState wraps a key-value database as a ledger state backend.
func NewKVLedgerState(db storage.Database) *KVLedgerState {
	return &KVLedgerState{db: db}
}

func poolKey(id uint64) []byte {
	key := make([]byte, len(keyPoolPrefix)+8)
	copy(key, keyPoolPrefix)
	binary.BigEndian.PutUint64(key[len(keyPoolPrefix):], id)
	return key
}

func shareKey(participant [20]byte) []byte {
	return append([]byte(keySharePrefix), participant[:]...)
}

func withdrawnKeyBytes(id uint64, participant [20]byte) []byte {
	key := make([]byte, len(keyWithdrawnPrefix)+8, len(keyWithdrawnPrefix)+8+20)
	copy(key, keyWithdrawnPrefix)
	binary.BigEndian.PutUint64(key[len(keyWithdrawnPrefix):], id)
	return append(key, participant[:]...)
}

func (s *KVLedgerState) PoolPut(pool *Pool) error {
	sanitized, err := SanitizePool(pool)
	if err != nil {
		return err
	}
	record := poolRecord{
		ID:          sanitized.ID,
		Asset:       sanitized.Asset,
		Depositor:   hex.EncodeToString(sanitized.Depositor[:]),
		Deposited:   sanitized.Deposited.String(),
		DepositedAt: sanitized.DepositedAt,
		Period:      sanitized.Period,
	}
	encoded, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.db.Put(poolKey(sanitized.ID), encoded)
}

func (s *KVLedgerState) PoolGet(id uint64) (*Pool, bool, error) {
	key := poolKey(id)
	ok, err := s.db.Has(key)
	if err != nil || !ok {
		return nil, false, err
	}
	encoded, err := s.db.Get(key)
	if err != nil {
		return nil, false, err
	}
	record := poolRecord{}
	if err := json.Unmarshal(encoded, &record); err != nil {
		return nil, false, fmt.Errorf("streampool: corrupt pool record %d: %w", id, err)
	}
	deposited, ok := new(big.Int).SetString(record.Deposited, 10)
	if !ok {
		return nil, false, fmt.Errorf("streampool: corrupt deposit amount in pool %d", id)
	}
	depositorBytes, err := hex.DecodeString(record.Depositor)
	if err != nil || len(depositorBytes) != 20 {
		return nil, false, fmt.Errorf("streampool: corrupt depositor in pool %d", id)
	}
	pool := &Pool{
		ID:          record.ID,
		Asset:       record.Asset,
		Deposited:   deposited,
		DepositedAt: record.DepositedAt,
		Period:      record.Period,
	}
	copy(pool.Depositor[:], depositorBytes)
	return pool, true, nil
}

func (s *KVLedgerState) PoolCount() (uint64, error) {
	return s.readUint64([]byte(keyPoolCount))
}

func (s *KVLedgerState) SetPoolCount(count uint64) error {
	value := make([]byte, 8)
	binary.BigEndian.PutUint64(value, count)
	return s.db.Put([]byte(keyPoolCount), value)
}

func (s *KVLedgerState) ShareWeight(participant [20]byte) (*big.Int, error) {
	return s.readBigInt(shareKey(participant))
}

func (s *KVLedgerState) SetShareWeight(participant [20]byte, weight *big.Int) error {
	return s.db.Put(shareKey(participant), []byte(copyBigInt(weight).String()))
}

func (s *KVLedgerState) TotalShareWeight() (*big.Int, error) {
	return s.readBigInt([]byte(keyShareTotal))
}

func (s *KVLedgerState) SetTotalShareWeight(total *big.Int) error {
	return s.db.Put([]byte(keyShareTotal), []byte(copyBigInt(total).String()))
}

func (s *KVLedgerState) Withdrawn(poolID uint64, participant [20]byte) (*big.Int, error) {
	return s.readBigInt(withdrawnKeyBytes(poolID, participant))
}

func (s *KVLedgerState) SetWithdrawn(poolID uint64, participant [20]byte, amount *big.Int) error {
	return s.db.Put(withdrawnKeyBytes(poolID, participant), []byte(copyBigInt(amount).String()))
}

func (s *KVLedgerState) readUint64(key []byte) (uint64, error) {
	ok, err := s.db.Has(key)
	if err != nil || !ok {
		return 0, err
	}
	value, err := s.db.Get(key)
	if err != nil {
		return 0, err
	}
	if len(value) != 8 {
		return 0, fmt.Errorf("streampool: corrupt counter at %q", key)
	}
	return binary.BigEndian.Uint64(value), nil
}

func (s *KVLedgerState) readBigInt(key []byte) (*big.Int, error) {
	ok, err := s.db.Has(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	value, err := s.db.Get(key)
	if err != nil {
		return nil, err
	}
	parsed, ok := new(big.Int).SetString(string(value), 10)
	if !ok {
		return nil, fmt.Errorf("streampool: corrupt integer at %q", key)
	}
	return parsed, nil
}
