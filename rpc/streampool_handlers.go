package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"streampay/native/streampool"
)

const (
	codePoolInvalidParams = -32031
	codePoolNotFound      = -32032
	codePoolForbidden     = -32033
	codePoolConflict      = -32034
	codePoolInternal      = -32035
)

type shareEntryParam struct {
	Participant string `json:"participant"`
	Weight      string `json:"weight"`
}

type setSharesParams struct {
	Caller  string            `json:"caller"`
	Updates []shareEntryParam `json:"updates"`
}

type depositParams struct {
	Depositor string `json:"depositor"`
	Amount    string `json:"amount"`
	Period    int64  `json:"period"`
}

type depositTokenParams struct {
	Asset     string `json:"asset"`
	Depositor string `json:"depositor"`
	Amount    string `json:"amount"`
	Period    int64  `json:"period"`
}

type withdrawParams struct {
	PoolID      uint64 `json:"poolId"`
	Participant string `json:"participant"`
}

type poolQueryParams struct {
	PoolID uint64 `json:"poolId"`
}

type withdrawnQueryParams struct {
	PoolID      uint64 `json:"poolId"`
	Participant string `json:"participant"`
}

type participantParams struct {
	Participant string `json:"participant"`
}

type depositResult struct {
	PoolID uint64 `json:"poolId"`
}

type withdrawResult struct {
	PoolID uint64 `json:"poolId"`
	Amount string `json:"amount"`
}

type poolJSON struct {
	ID          uint64 `json:"id"`
	Asset       string `json:"asset,omitempty"`
	Depositor   string `json:"depositor"`
	Deposited   string `json:"deposited"`
	DepositedAt int64  `json:"depositedAt"`
	Period      int64  `json:"period"`
}

func (s *Server) handleSetShares(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	params := setSharesParams{}
	if !decodeParams(w, req, &params) {
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codePoolInvalidParams, "invalid caller", err.Error())
		return
	}
	updates := make([]streampool.ShareUpdate, 0, len(params.Updates))
	for i, entry := range params.Updates {
		participant, err := parseAddress(entry.Participant)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codePoolInvalidParams, fmt.Sprintf("invalid participant at entry %d", i), err.Error())
			return
		}
		weight, ok := new(big.Int).SetString(strings.TrimSpace(entry.Weight), 10)
		if !ok {
			writeError(w, http.StatusBadRequest, req.ID, codePoolInvalidParams, fmt.Sprintf("invalid weight at entry %d", i), entry.Weight)
			return
		}
		updates = append(updates, streampool.ShareUpdate{Participant: participant, Weight: weight})
	}
	if err := s.engine.SetShares(caller, updates); err != nil {
		writeStreampoolError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"totalWeight": s.engine.TotalWeight().String()})
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	params := depositParams{}
	if !decodeParams(w, req, &params) {
		return
	}
	depositor, err := parseAddress(params.Depositor)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codePoolInvalidParams, "invalid depositor", err.Error())
		return
	}
	amount, err := parsePositiveBigInt(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codePoolInvalidParams, "invalid amount", err.Error())
		return
	}
	poolID, err := s.engine.Deposit(depositor, amount, params.Period)
	if err != nil {
		writeStreampoolError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, depositResult{PoolID: poolID})
}

func (s *Server) handleDepositToken(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	params := depositTokenParams{}
	if !decodeParams(w, req, &params) {
		return
	}
	depositor, err := parseAddress(params.Depositor)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codePoolInvalidParams, "invalid depositor", err.Error())
		return
	}
	amount, err := parsePositiveBigInt(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codePoolInvalidParams, "invalid amount", err.Error())
		return
	}
	poolID, err := s.engine.DepositToken(params.Asset, depositor, amount, params.Period)
	if err != nil {
		writeStreampoolError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, depositResult{PoolID: poolID})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	params := withdrawParams{}
	if !decodeParams(w, req, &params) {
		return
	}
	participant, err := parseAddress(params.Participant)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codePoolInvalidParams, "invalid participant", err.Error())
		return
	}
	paid, err := s.engine.Withdraw(params.PoolID, participant)
	if err != nil {
		writeStreampoolError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, withdrawResult{PoolID: params.PoolID, Amount: paid.String()})
}

func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	params := poolQueryParams{}
	if !decodeParams(w, req, &params) {
		return
	}
	pool, err := s.engine.PoolInfo(params.PoolID)
	if err != nil {
		writeStreampoolError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatPoolJSON(pool))
}

func (s *Server) handleGetWithdrawn(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	params := withdrawnQueryParams{}
	if !decodeParams(w, req, &params) {
		return
	}
	participant, err := parseAddress(params.Participant)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codePoolInvalidParams, "invalid participant", err.Error())
		return
	}
	withdrawn, err := s.engine.Withdrawn(params.PoolID, participant)
	if err != nil {
		writeStreampoolError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, withdrawResult{PoolID: params.PoolID, Amount: withdrawn.String()})
}

func (s *Server) handleWeightOf(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	params := participantParams{}
	if !decodeParams(w, req, &params) {
		return
	}
	participant, err := parseAddress(params.Participant)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codePoolInvalidParams, "invalid participant", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]string{"weight": s.engine.WeightOf(participant).String()})
}

func (s *Server) handleTotalWeight(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	writeResult(w, req.ID, map[string]string{"totalWeight": s.engine.TotalWeight().String()})
}

func decodeParams(w http.ResponseWriter, req *RPCRequest, out interface{}) bool {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codePoolInvalidParams, "expected one parameter object", nil)
		return false
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codePoolInvalidParams, "invalid parameters", err.Error())
		return false
	}
	return true
}

func parseAddress(raw string) ([20]byte, error) {
	var out [20]byte
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return out, fmt.Errorf("address required")
	}
	cleaned := strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	if len(cleaned) != 40 {
		return out, fmt.Errorf("address must be 20 bytes of hex")
	}
	decoded, err := hex.DecodeString(cleaned)
	if err != nil {
		return out, err
	}
	copy(out[:], decoded)
	return out, nil
}

func parsePositiveBigInt(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount")
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	return amount, nil
}

func formatPoolJSON(pool *streampool.Pool) poolJSON {
	deposited := "0"
	if pool.Deposited != nil {
		deposited = pool.Deposited.String()
	}
	return poolJSON{
		ID:          pool.ID,
		Asset:       pool.Asset,
		Depositor:   "0x" + hex.EncodeToString(pool.Depositor[:]),
		Deposited:   deposited,
		DepositedAt: pool.DepositedAt,
		Period:      pool.Period,
	}
}

func writeStreampoolError(w http.ResponseWriter, id interface{}, err error) {
	if err == nil {
		return
	}
	status := http.StatusInternalServerError
	code := codePoolInternal
	message := "internal_error"
	switch {
	case errors.Is(err, streampool.ErrInvalidPool):
		status = http.StatusNotFound
		code = codePoolNotFound
		message = "not_found"
	case errors.Is(err, streampool.ErrUnauthorized):
		status = http.StatusForbidden
		code = codePoolForbidden
		message = "forbidden"
	case errors.Is(err, streampool.ErrEmptyUpdate),
		errors.Is(err, streampool.ErrNegativeWeight),
		errors.Is(err, streampool.ErrInvalidPeriod),
		errors.Is(err, streampool.ErrInvalidAsset),
		errors.Is(err, streampool.ErrInsufficientDeposit):
		status = http.StatusBadRequest
		code = codePoolInvalidParams
		message = "invalid_params"
	case errors.Is(err, streampool.ErrNoShare),
		errors.Is(err, streampool.ErrNoShares),
		errors.Is(err, streampool.ErrTransferFailed):
		status = http.StatusConflict
		code = codePoolConflict
		message = "conflict"
	}
	writeError(w, status, id, code, message, err.Error())
}
