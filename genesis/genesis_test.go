// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis_test

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BricklayerDAO/mrtr-token/authority"
	"github.com/BricklayerDAO/mrtr-token/genesis"
	"github.com/BricklayerDAO/mrtr-token/kv"
	"github.com/BricklayerDAO/mrtr-token/mrtr"
	"github.com/BricklayerDAO/mrtr-token/state"
	"github.com/BricklayerDAO/mrtr-token/storage"
	"github.com/BricklayerDAO/mrtr-token/token"
)

func TestMainnetGenesis(t *testing.T) {
	gene := genesis.NewMainnet()
	assert.Equal(t, "mainnet", gene.Name())
	assert.Equal(t, uint64(1724889600), gene.LaunchTime())

	sched, err := gene.Schedule()
	require.NoError(t, err)
	assert.Equal(t, uint32(mrtr.QuarterCount), sched.Windows())

	store := kv.NewLevelMemStore()
	defer store.Close()
	stater := state.NewStater(store, 0)
	digest, err := gene.Build(stater)
	require.NoError(t, err)
	assert.False(t, digest.IsZero())

	// the network identity is deterministic and distinct from the
	// bare state digest (it also covers the calendar and budget)
	id, err := gene.ID()
	require.NoError(t, err)
	again, err := gene.ID()
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.NotEqual(t, digest, id)
	assert.False(t, id.IsZero())

	st := stater.NewState()
	tok := token.New(mrtr.TokenAddress, st)
	supply, err := tok.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, mrtr.InitialSupply, supply)

	reserveBal, err := tok.BalanceOf(mrtr.InitialReserveAddress)
	require.NoError(t, err)
	assert.Equal(t, mrtr.TotalRewards, reserveBal)

	owner, err := authority.New(storage.NewContext(mrtr.AuthorityAddress, st)).Owner()
	require.NoError(t, err)
	assert.Equal(t, genesis.MainnetTreasury, owner)
}

func TestDevnetGenesis(t *testing.T) {
	gene := genesis.NewDevnet(10000)
	assert.Equal(t, "devnet", gene.Name())

	sched, err := gene.Schedule()
	require.NoError(t, err)
	assert.Equal(t, uint32(8), sched.Windows())
	assert.Equal(t, uint64(10000), sched.Start())
	assert.Equal(t, uint64(10000+8*600), sched.End())

	store := kv.NewLevelMemStore()
	defer store.Close()
	stater := state.NewStater(store, 0)
	_, err = gene.Build(stater)
	require.NoError(t, err)

	st := stater.NewState()
	tok := token.New(mrtr.TokenAddress, st)
	for _, acc := range genesis.DevAccounts() {
		bal, err := tok.BalanceOf(acc)
		require.NoError(t, err)
		assert.True(t, bal.Sign() > 0)
	}
}

func TestCustomNetGenesis(t *testing.T) {
	raw := `{
		"name": "testnet",
		"boundaries": [1000, 2000, 3000],
		"totalRewards": "0x64",
		"owner": "0x0123456789012345678901234567890123456789",
		"accounts": [
			{"address": "0x1234567890123456789012345678901234567890", "balance": 500}
		]
	}`
	var custom genesis.CustomGenesis
	require.NoError(t, json.Unmarshal([]byte(raw), &custom))

	gene, err := genesis.NewCustomNet(&custom)
	require.NoError(t, err)
	assert.Equal(t, "testnet", gene.Name())
	assert.Equal(t, big.NewInt(100), gene.TotalRewards())

	store := kv.NewLevelMemStore()
	defer store.Close()
	stater := state.NewStater(store, 0)
	_, err = gene.Build(stater)
	require.NoError(t, err)

	st := stater.NewState()
	tok := token.New(mrtr.TokenAddress, st)
	bal, err := tok.BalanceOf(mrtr.MustParseAddress("0x1234567890123456789012345678901234567890"))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500), bal)

	supply, err := tok.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(600), supply)

	// treasurer falls back to the owner
	auth := authority.New(storage.NewContext(mrtr.AuthorityAddress, st))
	treasurer, err := auth.Treasurer()
	require.NoError(t, err)
	assert.Equal(t, mrtr.MustParseAddress("0x0123456789012345678901234567890123456789"), treasurer)
}

func TestCustomNetValidation(t *testing.T) {
	_, err := genesis.NewCustomNet(&genesis.CustomGenesis{})
	assert.Error(t, err)

	owner := mrtr.BytesToAddress([]byte("owner"))
	rewards := genesis.HexOrDecimal256(*big.NewInt(100))
	_, err = genesis.NewCustomNet(&genesis.CustomGenesis{
		Boundaries:   []uint64{2000, 1000},
		TotalRewards: &rewards,
		Owner:        owner,
	})
	assert.Error(t, err)
}

func TestGenesisCurve(t *testing.T) {
	gene := genesis.NewDevnet(10000)

	curve, err := gene.Curve()
	require.NoError(t, err)
	assert.Equal(t, gene.TotalRewards(), curve.Total())
}
