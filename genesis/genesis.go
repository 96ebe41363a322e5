// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis assembles initial ledger states: the mainnet preset
// with the fixed quarter calendar, a short-window devnet, and custom
// networks loaded from a JSON file.
package genesis

import (
	"math/big"

	"github.com/qianbin/drlp"

	"github.com/BricklayerDAO/mrtr-token/kv"
	"github.com/BricklayerDAO/mrtr-token/mrtr"
	"github.com/BricklayerDAO/mrtr-token/staking/emission"
	"github.com/BricklayerDAO/mrtr-token/staking/schedule"
	"github.com/BricklayerDAO/mrtr-token/state"
)

// Genesis describes one network's initial ledger.
type Genesis struct {
	builder    *Builder
	name       string
	boundaries []uint64
	rewards    *big.Int
}

// Name returns the network name.
func (g *Genesis) Name() string { return g.name }

// LaunchTime returns the staking start timestamp.
func (g *Genesis) LaunchTime() uint64 { return g.boundaries[0] }

// Boundaries returns the window boundary timestamps.
func (g *Genesis) Boundaries() []uint64 { return g.boundaries }

// TotalRewards returns the reward budget of the emission curve.
func (g *Genesis) TotalRewards() *big.Int { return g.rewards }

// Schedule constructs the window schedule.
func (g *Genesis) Schedule() (*schedule.Schedule, error) {
	return schedule.New(g.boundaries)
}

// Curve constructs the emission curve.
func (g *Genesis) Curve() (*emission.Curve, error) {
	return emission.New(g.rewards, g.boundaries[0], g.boundaries[len(g.boundaries)-1])
}

// Build commits the initial ledger into the given store and returns
// the state digest.
func (g *Genesis) Build(stater *state.Stater) (mrtr.Bytes32, error) {
	return g.builder.Build(stater)
}

// ID computes the network identity: the genesis state digest folded
// with the boundary calendar and reward budget, which live outside
// the state.
func (g *Genesis) ID() (mrtr.Bytes32, error) {
	store := kv.NewLevelMemStore()
	defer store.Close()
	digest, err := g.Build(state.NewStater(store, 0))
	if err != nil {
		return mrtr.Bytes32{}, err
	}

	var buf []byte
	buf = append(buf, digest[:]...)
	for _, b := range g.boundaries {
		buf = drlp.AppendUint(buf, b)
	}
	buf = drlp.AppendString(buf, g.rewards.Bytes())

	hw := mrtr.NewBlake2b()
	hw.Write(buf)
	var id mrtr.Bytes32
	hw.Sum(id[:0])
	return id, nil
}
