// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BricklayerDAO/mrtr-token/genesis"
	"github.com/BricklayerDAO/mrtr-token/kv"
	"github.com/BricklayerDAO/mrtr-token/mrtr"
	"github.com/BricklayerDAO/mrtr-token/node"
)

type testClock struct{ now uint64 }

func (c *testClock) Now() uint64 { return c.now }

func newTestServer(t *testing.T) (*httptest.Server, *testClock) {
	t.Helper()
	store := kv.NewLevelMemStore()
	t.Cleanup(func() { store.Close() })

	clock := &testClock{now: 10000}
	ledger, err := node.New(store, genesis.NewDevnet(10000), nil, clock.Now)
	require.NoError(t, err)

	router := mux.NewRouter()
	New(ledger).Mount(router, "/staking")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts, clock
}

func httpPost(t *testing.T, url string, body interface{}) (int, []byte) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer res.Body.Close()
	out, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, out
}

func httpGet(t *testing.T, url string) (int, []byte) {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	out, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, out
}

func amount(n int64) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(new(big.Int).Mul(big.NewInt(n), mrtr.Precision))
}

func TestStakingActions(t *testing.T) {
	ts, clock := newTestServer(t)
	acc := genesis.DevAccounts()[1]

	code, body := httpPost(t, ts.URL+"/staking/deposits", &DepositRequest{Address: acc, Amount: amount(100)})
	require.Equal(t, http.StatusOK, code, string(body))
	var action ActionResponse
	require.NoError(t, json.Unmarshal(body, &action))
	assert.Equal(t, 0, (*big.Int)(action.Shares).Cmp((*big.Int)(amount(100))))

	code, body = httpGet(t, ts.URL+"/staking/status")
	require.Equal(t, http.StatusOK, code)
	var status StatusResponse
	require.NoError(t, json.Unmarshal(body, &status))
	assert.Equal(t, "devnet", status.Network)
	assert.Equal(t, uint32(0), status.Cursor)
	require.NotNil(t, status.CurrentWindow)
	assert.Equal(t, uint32(0), *status.CurrentWindow)
	assert.Equal(t, 0, (*big.Int)(status.TotalStaked).Cmp((*big.Int)(amount(100))))

	// cross the first boundary and settle
	clock.now = 10700
	code, body = httpPost(t, ts.URL+"/staking/claims", &ClaimRequest{Address: acc})
	require.Equal(t, http.StatusOK, code, string(body))
	require.NoError(t, json.Unmarshal(body, &action))
	assert.True(t, (*big.Int)(action.Shares).Cmp((*big.Int)(amount(100))) > 0)

	code, body = httpPost(t, ts.URL+"/staking/withdrawals", &WithdrawRequest{Address: acc, Amount: amount(50)})
	require.Equal(t, http.StatusOK, code, string(body))
	require.NoError(t, json.Unmarshal(body, &action))
	assert.True(t, (*big.Int)(action.Shares).Sign() > 0)

	code, body = httpPost(t, ts.URL+"/staking/transfers", &TransferRequest{
		From: acc, To: genesis.DevAccounts()[2], Shares: amount(10),
	})
	require.Equal(t, http.StatusOK, code, string(body))
}

func TestStakingValidation(t *testing.T) {
	ts, _ := newTestServer(t)
	acc := genesis.DevAccounts()[1]

	// zero amount is rejected
	code, body := httpPost(t, ts.URL+"/staking/deposits", &DepositRequest{
		Address: acc, Amount: (*math.HexOrDecimal256)(big.NewInt(0)),
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), "amount must be positive")

	// unknown fields are rejected
	code, _ = httpPost(t, ts.URL+"/staking/deposits", map[string]interface{}{
		"address": acc, "amount": "100", "bogus": true,
	})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestStakingRoleChecks(t *testing.T) {
	ts, _ := newTestServer(t)
	owner := genesis.DevAccounts()[0]
	stranger := genesis.DevAccounts()[3]

	code, body := httpPost(t, ts.URL+"/staking/reserve/topups", &TopUpRequest{Caller: stranger, Amount: amount(1)})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Contains(t, string(body), "caller is not the treasurer")

	code, body = httpPost(t, ts.URL+"/staking/pause", &PauseRequest{Caller: stranger, Paused: true})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Contains(t, string(body), "caller is not the owner")

	code, _ = httpPost(t, ts.URL+"/staking/pause", &PauseRequest{Caller: owner, Paused: true})
	require.Equal(t, http.StatusOK, code)

	// staking actions revert while paused
	code, body = httpPost(t, ts.URL+"/staking/deposits", &DepositRequest{Address: stranger, Amount: amount(1)})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), "paused")

	// the treasurer can fund the reserve
	code, _ = httpPost(t, ts.URL+"/staking/reserve/topups", &TopUpRequest{Caller: owner, Amount: amount(1)})
	assert.Equal(t, http.StatusOK, code)
}

func TestScheduleAndWindows(t *testing.T) {
	ts, _ := newTestServer(t)

	code, body := httpGet(t, ts.URL+"/staking/schedule")
	require.Equal(t, http.StatusOK, code)
	var sched ScheduleResponse
	require.NoError(t, json.Unmarshal(body, &sched))
	assert.Equal(t, uint32(8), sched.Windows)
	require.Len(t, sched.Boundaries, 9)
	assert.Equal(t, uint64(10000), sched.Boundaries[0])

	code, body = httpGet(t, ts.URL+"/staking/windows/0")
	require.Equal(t, http.StatusOK, code)
	var win WindowResponse
	require.NoError(t, json.Unmarshal(body, &win))
	assert.Equal(t, uint64(10000), win.Start)
	assert.Equal(t, uint64(10600), win.End)

	code, _ = httpGet(t, ts.URL+"/staking/windows/99")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestReserveView(t *testing.T) {
	ts, _ := newTestServer(t)

	code, body := httpGet(t, ts.URL+"/staking/reserve")
	require.Equal(t, http.StatusOK, code)
	var reserve ReserveResponse
	require.NoError(t, json.Unmarshal(body, &reserve))
	assert.Equal(t, mrtr.InitialReserveAddress, reserve.Address)
	assert.Equal(t, 0, (*big.Int)(reserve.Balance).Cmp((*big.Int)(amount(1000))))
}
