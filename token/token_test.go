// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BricklayerDAO/mrtr-token/kv"
	"github.com/BricklayerDAO/mrtr-token/mrtr"
	"github.com/BricklayerDAO/mrtr-token/state"
)

func newTestToken(t *testing.T) *Token {
	t.Helper()
	store := kv.NewLevelMemStore()
	t.Cleanup(func() { store.Close() })
	st := state.NewStater(store, 0).NewState()
	return New(mrtr.BytesToAddress([]byte("token-module")), st)
}

func TestTokenMetadata(t *testing.T) {
	tok := newTestToken(t)
	assert.Equal(t, "Mortar", tok.Name())
	assert.Equal(t, "MRTR", tok.Symbol())
	assert.Equal(t, uint8(18), tok.Decimals())
}

func TestTokenSupply(t *testing.T) {
	tok := newTestToken(t)
	acc := mrtr.BytesToAddress([]byte("acc1"))

	tok.InitializeSupply(big.NewInt(1000))

	supply, err := tok.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), supply)

	require.NoError(t, tok.AddBalance(acc, big.NewInt(100)))
	supply, err = tok.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1100), supply)

	ok, err := tok.SubBalance(acc, big.NewInt(30))
	require.NoError(t, err)
	assert.True(t, ok)

	supply, err = tok.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1070), supply)

	burned, err := tok.TotalBurned()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(-70), burned)
}

func TestTokenBalanceOps(t *testing.T) {
	tok := newTestToken(t)

	alice := mrtr.BytesToAddress([]byte("alice"))
	bob := mrtr.BytesToAddress([]byte("bob"))

	require.NoError(t, tok.AddBalance(alice, big.NewInt(100)))

	bal, err := tok.BalanceOf(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), bal)

	// insufficient balance
	ok, err := tok.SubBalance(alice, big.NewInt(101))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = tok.Transfer(alice, bob, big.NewInt(40))
	require.NoError(t, err)
	assert.True(t, ok)

	bal, err = tok.BalanceOf(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(60), bal)

	bal, err = tok.BalanceOf(bob)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(40), bal)

	// transfer more than balance
	ok, err = tok.Transfer(bob, alice, big.NewInt(41))
	require.NoError(t, err)
	assert.False(t, ok)

	// zero transfer is a no-op
	ok, err = tok.Transfer(bob, alice, new(big.Int))
	require.NoError(t, err)
	assert.True(t, ok)
}
