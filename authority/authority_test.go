// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package authority

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BricklayerDAO/mrtr-token/kv"
	"github.com/BricklayerDAO/mrtr-token/mrtr"
	"github.com/BricklayerDAO/mrtr-token/staking/reverts"
	"github.com/BricklayerDAO/mrtr-token/state"
	"github.com/BricklayerDAO/mrtr-token/storage"
)

var (
	owner     = mrtr.BytesToAddress([]byte("owner"))
	treasurer = mrtr.BytesToAddress([]byte("treasurer"))
	stranger  = mrtr.BytesToAddress([]byte("stranger"))
)

func newTestAuthority(t *testing.T) *Authority {
	t.Helper()
	store := kv.NewLevelMemStore()
	t.Cleanup(func() { store.Close() })
	st := state.NewStater(store, 0).NewState()
	auth := New(storage.NewContext(mrtr.AuthorityAddress, st))
	auth.Init(owner, treasurer)
	return auth
}

func TestRoles(t *testing.T) {
	auth := newTestAuthority(t)

	got, err := auth.Owner()
	require.NoError(t, err)
	assert.Equal(t, owner, got)

	got, err = auth.Treasurer()
	require.NoError(t, err)
	assert.Equal(t, treasurer, got)

	assert.NoError(t, auth.RequireOwner(owner))
	assert.True(t, reverts.IsRevertErr(auth.RequireOwner(stranger)))
	assert.True(t, reverts.IsRevertErr(auth.RequireOwner(treasurer)))

	assert.NoError(t, auth.RequireTreasurer(treasurer))
	// the owner may act as treasurer
	assert.NoError(t, auth.RequireTreasurer(owner))
	assert.True(t, reverts.IsRevertErr(auth.RequireTreasurer(stranger)))
}

func TestRoleTransfer(t *testing.T) {
	auth := newTestAuthority(t)

	assert.True(t, reverts.IsRevertErr(auth.SetOwner(stranger, stranger)))
	assert.True(t, reverts.IsRevertErr(auth.SetOwner(owner, mrtr.Address{})))

	require.NoError(t, auth.SetOwner(owner, stranger))
	got, err := auth.Owner()
	require.NoError(t, err)
	assert.Equal(t, stranger, got)

	// old owner lost the role
	assert.True(t, reverts.IsRevertErr(auth.SetTreasurer(owner, stranger)))
	require.NoError(t, auth.SetTreasurer(stranger, stranger))
}

func TestPause(t *testing.T) {
	auth := newTestAuthority(t)

	paused, err := auth.Paused()
	require.NoError(t, err)
	assert.False(t, paused)

	assert.True(t, reverts.IsRevertErr(auth.SetPaused(treasurer, true)))

	require.NoError(t, auth.SetPaused(owner, true))
	paused, err = auth.Paused()
	require.NoError(t, err)
	assert.True(t, paused)

	require.NoError(t, auth.SetPaused(owner, false))
	paused, err = auth.Paused()
	require.NoError(t, err)
	assert.False(t, paused)
}
