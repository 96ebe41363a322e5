// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package voteweight

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BricklayerDAO/mrtr-token/kv"
	"github.com/BricklayerDAO/mrtr-token/mrtr"
	"github.com/BricklayerDAO/mrtr-token/state"
	"github.com/BricklayerDAO/mrtr-token/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store := kv.NewLevelMemStore()
	t.Cleanup(func() { store.Close() })
	st := state.NewStater(store, 0).NewState()
	return New(storage.NewContext(mrtr.StakingAddress, st))
}

func TestWeightAt(t *testing.T) {
	svc := newTestService(t)
	addr := mrtr.BytesToAddress([]byte("voter"))

	// no history
	w, err := svc.WeightAt(addr, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, w.Sign())

	require.NoError(t, svc.Record(addr, 2, big.NewInt(100)))
	require.NoError(t, svc.Record(addr, 5, big.NewInt(250)))
	require.NoError(t, svc.Record(addr, 9, big.NewInt(50)))

	for _, tc := range []struct {
		window uint32
		weight int64
	}{
		{0, 0}, {1, 0}, {2, 100}, {3, 100}, {4, 100},
		{5, 250}, {8, 250}, {9, 50}, {79, 50},
	} {
		w, err := svc.WeightAt(addr, tc.window)
		require.NoError(t, err)
		assert.Equal(t, tc.weight, w.Int64(), "window %d", tc.window)
	}

	latest, err := svc.Latest(addr)
	require.NoError(t, err)
	assert.Equal(t, int64(50), latest.Int64())
}

func TestRecordSameWindowOverwrites(t *testing.T) {
	svc := newTestService(t)
	addr := mrtr.BytesToAddress([]byte("voter"))

	require.NoError(t, svc.Record(addr, 3, big.NewInt(10)))
	require.NoError(t, svc.Record(addr, 3, big.NewInt(30)))

	w, err := svc.WeightAt(addr, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(30), w.Int64())

	w, err = svc.WeightAt(addr, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), w.Int64())
}
