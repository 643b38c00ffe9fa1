package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streampay/native/streampool"
)

const (
	testAdmin = "0xadadadadadadadadadadadadadadadadadadadad"
	testAlice = "0xa1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1"
	testBob   = "0xb1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1"
)

type testHarness struct {
	server *Server
	now    int64
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	h := &testHarness{now: 1_700_000_000}
	engine := streampool.NewEngine()
	engine.SetState(streampool.NewMemoryLedgerState())
	engine.SetAuthorizer(streampool.AuthorizerFunc(func([20]byte) bool { return true }))
	engine.SetNowFunc(func() int64 { return h.now })
	h.server = NewServer(engine)
	h.server.authToken = ""
	return h
}

func (h *testHarness) call(t *testing.T, method string, params interface{}, headers map[string]string) (*RPCResponse, int) {
	t.Helper()
	payload := map[string]interface{}{
		"jsonrpc": jsonRPCVersion,
		"id":      1,
		"method":  method,
	}
	if params != nil {
		payload["params"] = []interface{}{params}
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(recorder, req)

	resp := &RPCResponse{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), resp))
	return resp, recorder.Code
}

func (h *testHarness) result(t *testing.T, resp *RPCResponse, out interface{}) {
	t.Helper()
	require.Nil(t, resp.Error, "unexpected RPC error: %+v", resp.Error)
	encoded, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(encoded, out))
}

func TestRPCDepositWithdrawFlow(t *testing.T) {
	h := newTestHarness(t)

	resp, status := h.call(t, "streampool_setShares", setSharesParams{
		Caller: testAdmin,
		Updates: []shareEntryParam{
			{Participant: testAlice, Weight: "10"},
			{Participant: testBob, Weight: "30"},
		},
	}, nil)
	require.Equal(t, http.StatusOK, status)
	totals := map[string]string{}
	h.result(t, resp, &totals)
	assert.Equal(t, "40", totals["totalWeight"])

	resp, status = h.call(t, "streampool_deposit", depositParams{
		Depositor: testAdmin,
		Amount:    "2000000000000000000",
		Period:    2_592_000,
	}, nil)
	require.Equal(t, http.StatusOK, status)
	deposit := depositResult{}
	h.result(t, resp, &deposit)
	assert.Equal(t, uint64(1), deposit.PoolID)

	resp, status = h.call(t, "streampool_getPool", poolQueryParams{PoolID: 1}, nil)
	require.Equal(t, http.StatusOK, status)
	pool := poolJSON{}
	h.result(t, resp, &pool)
	assert.Equal(t, "2000000000000000000", pool.Deposited)
	assert.Equal(t, int64(2_592_000), pool.Period)
	assert.Empty(t, pool.Asset)

	h.now += 2_592_000
	resp, status = h.call(t, "streampool_withdraw", withdrawParams{
		PoolID:      1,
		Participant: testAlice,
	}, nil)
	require.Equal(t, http.StatusOK, status)
	paid := withdrawResult{}
	h.result(t, resp, &paid)
	assert.Equal(t, "500000000000000000", paid.Amount)

	resp, status = h.call(t, "streampool_getWithdrawn", withdrawnQueryParams{
		PoolID:      1,
		Participant: testAlice,
	}, nil)
	require.Equal(t, http.StatusOK, status)
	drawn := withdrawResult{}
	h.result(t, resp, &drawn)
	assert.Equal(t, "500000000000000000", drawn.Amount)
}

func TestRPCErrorMapping(t *testing.T) {
	h := newTestHarness(t)

	resp, status := h.call(t, "streampool_withdraw", withdrawParams{
		PoolID:      1,
		Participant: testAlice,
	}, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, codePoolConflict, resp.Error.Code)

	resp, status = h.call(t, "streampool_getPool", poolQueryParams{PoolID: 42}, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, codePoolNotFound, resp.Error.Code)

	resp, status = h.call(t, "streampool_deposit", depositParams{
		Depositor: testAdmin,
		Amount:    "-5",
		Period:    100,
	}, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, codePoolInvalidParams, resp.Error.Code)

	resp, status = h.call(t, "streampool_unknown", nil, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestRPCBearerToken(t *testing.T) {
	h := newTestHarness(t)
	h.server.authToken = "sekrit"

	params := depositParams{Depositor: testAdmin, Amount: "100", Period: 60}
	resp, status := h.call(t, "streampool_deposit", params, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, codeUnauthorized, resp.Error.Code)

	resp, status = h.call(t, "streampool_deposit", params, map[string]string{
		"Authorization": "Bearer wrong",
	})
	require.NotNil(t, resp.Error)
	assert.Equal(t, http.StatusUnauthorized, status)

	resp, status = h.call(t, "streampool_deposit", params, map[string]string{
		"Authorization": "Bearer sekrit",
	})
	require.Equal(t, http.StatusOK, status)
	deposit := depositResult{}
	h.result(t, resp, &deposit)
	assert.Equal(t, uint64(1), deposit.PoolID)

	// Reads stay open.
	resp, status = h.call(t, "streampool_totalWeight", nil, nil)
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, resp.Error)
}
