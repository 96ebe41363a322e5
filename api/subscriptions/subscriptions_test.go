// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"math/big"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BricklayerDAO/mrtr-token/api/events"
	"github.com/BricklayerDAO/mrtr-token/eventdb"
	"github.com/BricklayerDAO/mrtr-token/genesis"
	"github.com/BricklayerDAO/mrtr-token/kv"
	"github.com/BricklayerDAO/mrtr-token/mrtr"
	"github.com/BricklayerDAO/mrtr-token/node"
)

func TestSubscribeEvents(t *testing.T) {
	store := kv.NewLevelMemStore()
	defer store.Close()
	db, err := eventdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	ledger, err := node.New(store, genesis.NewDevnet(10000), db, func() uint64 { return 10000 })
	require.NoError(t, err)

	subs := New(db)
	defer subs.Close()
	router := mux.NewRouter()
	subs.Mount(router, "/subscriptions")
	ts := httptest.NewServer(router)
	defer ts.Close()

	alice := genesis.DevAccounts()[1]
	staked := new(big.Int).Mul(big.NewInt(100), mrtr.Precision)
	_, err = ledger.Deposit(alice, staked)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/subscriptions/events"
	conn, res, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	defer res.Body.Close()

	// the event journaled before connecting is replayed
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	var ev events.EventResponse
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, uint64(1), ev.Sequence)
	assert.Equal(t, eventdb.ActionDeposit, ev.Action)
	assert.Equal(t, alice, ev.Address)

	// a fresh event is streamed on the next poll
	_, err = ledger.Deposit(genesis.DevAccounts()[2], staked)
	require.NoError(t, err)
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, uint64(2), ev.Sequence)
}
