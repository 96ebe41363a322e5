// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BricklayerDAO/mrtr-token/kv"
	"github.com/BricklayerDAO/mrtr-token/mrtr"
)

func newTestState(t *testing.T) (*Stater, *State) {
	t.Helper()
	store := kv.NewLevelMemStore()
	t.Cleanup(func() { store.Close() })
	stater := NewStater(store, 0)
	return stater, stater.NewState()
}

func TestStateReadWrite(t *testing.T) {
	_, st := newTestState(t)

	addr := mrtr.BytesToAddress([]byte("addr1"))
	storageKey := mrtr.BytesToBytes32([]byte("key"))
	storageValue := mrtr.BytesToBytes32([]byte("value"))

	balance, err := st.GetBalance(addr)
	require.NoError(t, err)
	assert.Equal(t, 0, balance.Sign())

	exists, err := st.Exists(addr)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, st.SetBalance(addr, big.NewInt(10)))
	require.NoError(t, st.SetShares(addr, big.NewInt(20)))
	st.SetStorage(addr, storageKey, storageValue)

	balance, err = st.GetBalance(addr)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(10), balance)

	shares, err := st.GetShares(addr)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(20), shares)

	value, err := st.GetStorage(addr, storageKey)
	require.NoError(t, err)
	assert.Equal(t, storageValue, value)

	exists, err = st.Exists(addr)
	require.NoError(t, err)
	assert.True(t, exists)

	// delete account
	st.Delete(addr)

	balance, err = st.GetBalance(addr)
	require.NoError(t, err)
	assert.Equal(t, 0, balance.Sign())

	value, err = st.GetStorage(addr, storageKey)
	require.NoError(t, err)
	assert.True(t, value.IsZero())
}

func TestStateRevert(t *testing.T) {
	_, st := newTestState(t)

	addr := mrtr.BytesToAddress([]byte("addr1"))
	storageKey := mrtr.BytesToBytes32([]byte("key"))

	values := []struct {
		balance *big.Int
		shares  *big.Int
		storage mrtr.Bytes32
	}{
		{big.NewInt(10), big.NewInt(1), mrtr.BytesToBytes32([]byte("v1"))},
		{big.NewInt(20), big.NewInt(2), mrtr.BytesToBytes32([]byte("v2"))},
		{big.NewInt(30), big.NewInt(3), mrtr.BytesToBytes32([]byte("v3"))},
	}

	var checkpoints []int
	for _, v := range values {
		checkpoints = append(checkpoints, st.NewCheckpoint())
		require.NoError(t, st.SetBalance(addr, v.balance))
		require.NoError(t, st.SetShares(addr, v.shares))
		st.SetStorage(addr, storageKey, v.storage)
	}

	for i := range values {
		v := values[len(values)-i-1]

		balance, err := st.GetBalance(addr)
		require.NoError(t, err)
		assert.Equal(t, v.balance, balance)

		shares, err := st.GetShares(addr)
		require.NoError(t, err)
		assert.Equal(t, v.shares, shares)

		storage, err := st.GetStorage(addr, storageKey)
		require.NoError(t, err)
		assert.Equal(t, v.storage, storage)

		st.RevertTo(checkpoints[len(values)-i-1])
	}

	balance, err := st.GetBalance(addr)
	require.NoError(t, err)
	assert.Equal(t, 0, balance.Sign())
}

func TestStateCommitRoundTrip(t *testing.T) {
	stater, st := newTestState(t)

	addr := mrtr.BytesToAddress([]byte("addr1"))
	storageKey := mrtr.BytesToBytes32([]byte("key"))
	storageValue := mrtr.BytesToBytes32([]byte("value"))

	require.NoError(t, st.SetBalance(addr, big.NewInt(100)))
	st.SetStorage(addr, storageKey, storageValue)

	stage, err := st.Stage()
	require.NoError(t, err)

	digest, err := stage.Commit()
	require.NoError(t, err)
	assert.False(t, digest.IsZero())
	assert.Equal(t, stage.Hash(), digest)

	// a fresh state over the same stater sees the committed data
	st2 := stater.NewState()
	balance, err := st2.GetBalance(addr)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), balance)

	value, err := st2.GetStorage(addr, storageKey)
	require.NoError(t, err)
	assert.Equal(t, storageValue, value)
}

func TestStageDigestDeterministic(t *testing.T) {
	_, st1 := newTestState(t)
	_, st2 := newTestState(t)

	addrs := []mrtr.Address{
		mrtr.BytesToAddress([]byte("a")),
		mrtr.BytesToAddress([]byte("b")),
		mrtr.BytesToAddress([]byte("c")),
	}

	// apply the same mutations in different orders
	for _, addr := range addrs {
		require.NoError(t, st1.SetBalance(addr, big.NewInt(7)))
	}
	for i := len(addrs) - 1; i >= 0; i-- {
		require.NoError(t, st2.SetBalance(addrs[i], big.NewInt(7)))
	}

	stage1, err := st1.Stage()
	require.NoError(t, err)
	stage2, err := st2.Stage()
	require.NoError(t, err)

	assert.Equal(t, stage1.Hash(), stage2.Hash())
}

func TestEncodeDecodeStorage(t *testing.T) {
	_, st := newTestState(t)

	addr := mrtr.BytesToAddress([]byte("addr1"))
	key := mrtr.BytesToBytes32([]byte("key"))

	err := st.EncodeStorage(addr, key, func() ([]byte, error) {
		return []byte{0x01, 0x02}, nil
	})
	require.NoError(t, err)

	var decoded []byte
	err = st.DecodeStorage(addr, key, func(data []byte) error {
		decoded = data
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, decoded)
}

func TestAccountCodec(t *testing.T) {
	empty := emptyAccount()
	data, err := encodeAccount(empty)
	require.NoError(t, err)
	assert.Nil(t, data)

	acc := &Account{Balance: big.NewInt(5), Shares: big.NewInt(0)}
	data, err = encodeAccount(acc)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestMutateBeforeCheckpoint(t *testing.T) {
	_, st := newTestState(t)

	// a fresh state accepts mutations before any checkpoint is opened,
	// and reverting the first checkpoint keeps them
	addr := mrtr.BytesToAddress([]byte("seed"))
	require.NoError(t, st.SetBalance(addr, big.NewInt(7)))

	cp := st.NewCheckpoint()
	require.NoError(t, st.SetBalance(addr, big.NewInt(9)))
	st.RevertTo(cp)

	bal, err := st.GetBalance(addr)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7), bal)
}

func TestStaterCachedLoad(t *testing.T) {
	stater, st := newTestState(t)

	addr := mrtr.BytesToAddress([]byte("cached"))
	require.NoError(t, st.SetBalance(addr, big.NewInt(42)))
	stage, err := st.Stage()
	require.NoError(t, err)
	_, err = stage.Commit()
	require.NoError(t, err)

	// first read fills the cache, second is served from it
	for i := 0; i < 2; i++ {
		bal, err := stater.NewState().GetBalance(addr)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(42), bal)
	}
}
