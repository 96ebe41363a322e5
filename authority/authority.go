// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package authority keeps the access-control roles of the ledger. The
// owner gates configuration-level changes and the pause flag; the
// treasurer gates reserve top-ups. Pausing blocks stake-affecting
// actions only, never settlement.
package authority

import (
	"github.com/pkg/errors"

	"github.com/BricklayerDAO/mrtr-token/mrtr"
	"github.com/BricklayerDAO/mrtr-token/staking/reverts"
	"github.com/BricklayerDAO/mrtr-token/storage"
)

var (
	slotOwner     = storage.NameToSlot("owner")
	slotTreasurer = storage.NameToSlot("treasurer")
	slotPaused    = storage.NameToSlot("paused")
)

// Authority provides role checks and role mutation.
type Authority struct {
	owner     *storage.Address
	treasurer *storage.Address
	paused    *storage.Uint64
}

func New(ctx *storage.Context) *Authority {
	return &Authority{
		owner:     storage.NewAddress(ctx, slotOwner),
		treasurer: storage.NewAddress(ctx, slotTreasurer),
		paused:    storage.NewUint64(ctx, slotPaused),
	}
}

// Init seeds the roles at genesis.
func (a *Authority) Init(owner, treasurer mrtr.Address) {
	a.owner.Set(&owner)
	a.treasurer.Set(&treasurer)
}

// Owner returns the current owner.
func (a *Authority) Owner() (mrtr.Address, error) {
	addr, err := a.owner.Get()
	return addr, errors.Wrap(err, "failed to get owner")
}

// Treasurer returns the current treasurer.
func (a *Authority) Treasurer() (mrtr.Address, error) {
	addr, err := a.treasurer.Get()
	return addr, errors.Wrap(err, "failed to get treasurer")
}

// RequireOwner reverts unless caller is the owner.
func (a *Authority) RequireOwner(caller mrtr.Address) error {
	owner, err := a.Owner()
	if err != nil {
		return err
	}
	if owner != caller {
		return reverts.New("caller is not the owner")
	}
	return nil
}

// RequireTreasurer reverts unless caller is the treasurer or owner.
func (a *Authority) RequireTreasurer(caller mrtr.Address) error {
	treasurer, err := a.Treasurer()
	if err != nil {
		return err
	}
	if treasurer == caller {
		return nil
	}
	owner, err := a.Owner()
	if err != nil {
		return err
	}
	if owner != caller {
		return reverts.New("caller is not the treasurer")
	}
	return nil
}

// SetOwner hands the owner role to a new address.
func (a *Authority) SetOwner(caller, newOwner mrtr.Address) error {
	if err := a.RequireOwner(caller); err != nil {
		return err
	}
	if newOwner.IsZero() {
		return reverts.New("owner must not be the zero address")
	}
	a.owner.Set(&newOwner)
	return nil
}

// SetTreasurer hands the treasurer role to a new address.
func (a *Authority) SetTreasurer(caller, newTreasurer mrtr.Address) error {
	if err := a.RequireOwner(caller); err != nil {
		return err
	}
	a.treasurer.Set(&newTreasurer)
	return nil
}

// Paused reports whether stake-affecting actions are paused.
func (a *Authority) Paused() (bool, error) {
	v, err := a.paused.Get()
	if err != nil {
		return false, errors.Wrap(err, "failed to get pause flag")
	}
	return v != 0, nil
}

// SetPaused flips the pause flag.
func (a *Authority) SetPaused(caller mrtr.Address, paused bool) error {
	if err := a.RequireOwner(caller); err != nil {
		return err
	}
	var v uint64
	if paused {
		v = 1
	}
	a.paused.Set(v)
	return nil
}
