package streampool

import (
	"encoding/hex"
	"encoding/json"
	"math/big"
	"strconv"

	"streampay/core/types"
)

const (
	EventTypeSharesUpdated = "streampool.shares_updated"
	EventTypeDeposit       = "streampool.deposit"
	EventTypeWithdraw      = "streampool.withdraw"
)

type shareUpdateJSON struct {
	Participant string `json:"participant"`
	Weight      string `json:"weight"`
}

// NewSharesUpdatedEvent returns the canonical payload emitted after a share
// registry update, carrying the full list of applied (participant, weight)
// pairs in batch order.
func NewSharesUpdatedEvent(updates []ShareUpdate, total *big.Int) *types.Event {
	applied := make([]shareUpdateJSON, 0, len(updates))
	for _, update := range updates {
		weight := "0"
		if update.Weight != nil {
			weight = update.Weight.String()
		}
		applied = append(applied, shareUpdateJSON{
			Participant: formatAddress(update.Participant),
			Weight:      weight,
		})
	}
	attrs := make(map[string]string)
	if encoded, err := json.Marshal(applied); err == nil {
		attrs["updates"] = string(encoded)
	}
	if total != nil {
		attrs["totalWeight"] = total.String()
	}
	attrs["count"] = strconv.Itoa(len(updates))
	return &types.Event{Type: EventTypeSharesUpdated, Attributes: attrs}
}

// NewDepositEvent returns the canonical payload emitted when a pool is
// created by a deposit.
func NewDepositEvent(pool *Pool) *types.Event {
	attrs := make(map[string]string)
	if pool == nil {
		return &types.Event{Type: EventTypeDeposit, Attributes: attrs}
	}
	attrs["poolId"] = strconv.FormatUint(pool.ID, 10)
	attrs["depositor"] = formatAddress(pool.Depositor)
	attrs["amount"] = copyBigInt(pool.Deposited).String()
	attrs["period"] = strconv.FormatInt(pool.Period, 10)
	attrs["depositedAt"] = strconv.FormatInt(pool.DepositedAt, 10)
	if pool.Asset != NativeAsset {
		attrs["asset"] = pool.Asset
	}
	return &types.Event{Type: EventTypeDeposit, Attributes: attrs}
}

// NewWithdrawEvent returns the canonical payload emitted after a successful
// withdrawal, including zero-amount no-op withdrawals.
func NewWithdrawEvent(pool *Pool, participant [20]byte, amount *big.Int) *types.Event {
	attrs := make(map[string]string)
	if pool != nil {
		attrs["poolId"] = strconv.FormatUint(pool.ID, 10)
		if pool.Asset != NativeAsset {
			attrs["asset"] = pool.Asset
		}
	}
	attrs["participant"] = formatAddress(participant)
	attrs["amount"] = copyBigInt(amount).String()
	return &types.Event{Type: EventTypeWithdraw, Attributes: attrs}
}

func formatAddress(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}
