// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BricklayerDAO/mrtr-token/kv"
	"github.com/BricklayerDAO/mrtr-token/mrtr"
	"github.com/BricklayerDAO/mrtr-token/state"
)

type record struct {
	Amount *big.Int
	Index  uint64
}

func newTestContext(t *testing.T) *Context {
	t.Helper()
	store := kv.NewLevelMemStore()
	t.Cleanup(func() { store.Close() })
	st := state.NewStater(store, 0).NewState()
	return NewContext(mrtr.BytesToAddress([]byte("test-module")), st)
}

func TestMapping(t *testing.T) {
	ctx := newTestContext(t)
	m := NewMapping[mrtr.Address, *record](ctx, NameToSlot("records"))

	key := mrtr.BytesToAddress([]byte("participant"))

	// missing entry yields allocated zero value
	got, err := m.Get(key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Amount)

	has, err := m.Has(key)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, m.Set(key, &record{Amount: big.NewInt(42), Index: 7}))

	got, err = m.Get(key)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), got.Amount)
	assert.Equal(t, uint64(7), got.Index)

	has, err = m.Has(key)
	require.NoError(t, err)
	assert.True(t, has)

	m.Delete(key)
	has, err = m.Has(key)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestMappingKeyIsolation(t *testing.T) {
	ctx := newTestContext(t)
	m := NewMapping[Uint64Key, *record](ctx, NameToSlot("windows"))

	require.NoError(t, m.Set(Uint64Key(1), &record{Amount: big.NewInt(1), Index: 1}))
	require.NoError(t, m.Set(Uint64Key(2), &record{Amount: big.NewInt(2), Index: 2}))

	got1, err := m.Get(Uint64Key(1))
	require.NoError(t, err)
	got2, err := m.Get(Uint64Key(2))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1), got1.Amount)
	assert.Equal(t, big.NewInt(2), got2.Amount)
}

func TestUint256(t *testing.T) {
	ctx := newTestContext(t)
	u := NewUint256(ctx, NameToSlot("total"))

	v, err := u.Get()
	require.NoError(t, err)
	assert.Equal(t, 0, v.Sign())

	u.Set(big.NewInt(100))
	require.NoError(t, u.Add(big.NewInt(23)))
	require.NoError(t, u.Sub(big.NewInt(3)))

	v, err = u.Get()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(120), v)
}

func TestUint64(t *testing.T) {
	ctx := newTestContext(t)
	u := NewUint64(ctx, NameToSlot("cursor"))

	v, err := u.Get()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)

	u.Set(79)
	v, err = u.Get()
	require.NoError(t, err)
	assert.Equal(t, uint64(79), v)
}

func TestAddressSlot(t *testing.T) {
	ctx := newTestContext(t)
	a := NewAddress(ctx, NameToSlot("owner"))

	v, err := a.Get()
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	owner := mrtr.BytesToAddress([]byte("owner-addr"))
	a.Set(&owner)
	v, err = a.Get()
	require.NoError(t, err)
	assert.Equal(t, owner, v)

	a.Set(nil)
	v, err = a.Get()
	require.NoError(t, err)
	assert.True(t, v.IsZero())
}
