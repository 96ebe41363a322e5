// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package voteweight answers historical voting-weight queries. Voting
// weight is the settled share balance; every settlement appends a
// per-participant checkpoint so past windows stay answerable.
package voteweight

import (
	"math/big"
	"sort"

	"github.com/pkg/errors"

	"github.com/BricklayerDAO/mrtr-token/mrtr"
	"github.com/BricklayerDAO/mrtr-token/storage"
)

var slotCheckpoints = storage.NameToSlot("vote-checkpoints")

// Checkpoint pins a participant's settled weight as of a window.
type Checkpoint struct {
	Window uint32
	Weight *big.Int
}

// Service records and queries weight checkpoints.
type Service struct {
	checkpoints *storage.Mapping[mrtr.Address, []Checkpoint]
}

func New(ctx *storage.Context) *Service {
	return &Service{
		checkpoints: storage.NewMapping[mrtr.Address, []Checkpoint](ctx, slotCheckpoints),
	}
}

// Record stores addr's settled weight as of the given window. A
// repeated settlement in the same window overwrites its checkpoint.
func (s *Service) Record(addr mrtr.Address, window uint32, weight *big.Int) error {
	cps, err := s.checkpoints.Get(addr)
	if err != nil {
		return errors.Wrap(err, "failed to get vote checkpoints")
	}
	cp := Checkpoint{Window: window, Weight: new(big.Int).Set(weight)}
	if n := len(cps); n > 0 && cps[n-1].Window == window {
		cps[n-1] = cp
	} else {
		cps = append(cps, cp)
	}
	return errors.Wrap(s.checkpoints.Set(addr, cps), "failed to save vote checkpoints")
}

// WeightAt returns addr's voting weight as of the given window: the
// weight of the latest checkpoint at or before it. A participant with
// no checkpoint that early has zero weight.
func (s *Service) WeightAt(addr mrtr.Address, window uint32) (*big.Int, error) {
	cps, err := s.checkpoints.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get vote checkpoints")
	}
	// first checkpoint after the window
	i := sort.Search(len(cps), func(i int) bool {
		return cps[i].Window > window
	})
	if i == 0 {
		return new(big.Int), nil
	}
	return new(big.Int).Set(cps[i-1].Weight), nil
}

// Latest returns addr's most recent checkpointed weight.
func (s *Service) Latest(addr mrtr.Address) (*big.Int, error) {
	cps, err := s.checkpoints.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get vote checkpoints")
	}
	if len(cps) == 0 {
		return new(big.Int), nil
	}
	return new(big.Int).Set(cps[len(cps)-1].Weight), nil
}
