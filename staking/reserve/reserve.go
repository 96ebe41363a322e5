// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reserve manages the reward budget custody account. The
// window ledger pulls one closed window's reward at a time; operations
// top the reserve up ahead of window boundaries.
package reserve

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/BricklayerDAO/mrtr-token/mrtr"
	"github.com/BricklayerDAO/mrtr-token/staking/reverts"
	"github.com/BricklayerDAO/mrtr-token/storage"
	"github.com/BricklayerDAO/mrtr-token/token"
)

var slotReserveAddress = storage.NameToSlot("reserve-address")

// Service moves reward budget between the reserve account and the
// engine's custody account.
type Service struct {
	token  *token.Token
	engine mrtr.Address
	addr   *storage.Address
}

// New creates the reserve service. The context address is the engine
// custody account receiving pulled funds.
func New(ctx *storage.Context, tok *token.Token) *Service {
	return &Service{
		token:  tok,
		engine: ctx.Address(),
		addr:   storage.NewAddress(ctx, slotReserveAddress),
	}
}

// Address returns the configured reserve account.
func (s *Service) Address() (mrtr.Address, error) {
	return s.addr.Get()
}

// SetAddress configures the reserve account. Gated by the owner role
// at the facade.
func (s *Service) SetAddress(addr mrtr.Address) {
	s.addr.Set(&addr)
}

// Balance returns the reserve's remaining budget.
func (s *Service) Balance() (*big.Int, error) {
	addr, err := s.addr.Get()
	if err != nil {
		return nil, err
	}
	return s.token.BalanceOf(addr)
}

// Pull moves amount from the reserve into engine custody. An
// underfunded reserve yields a revert so the triggering action aborts
// atomically and can be retried after a top-up.
func (s *Service) Pull(amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	addr, err := s.addr.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get reserve address")
	}
	ok, err := s.token.Transfer(addr, s.engine, amount)
	if err != nil {
		return errors.Wrap(err, "failed to pull from reserve")
	}
	if !ok {
		return reverts.New("reserve balance insufficient")
	}
	return nil
}

// TopUp moves amount from the given account into the reserve.
func (s *Service) TopUp(from mrtr.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return reverts.New("top-up amount must be positive")
	}
	addr, err := s.addr.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get reserve address")
	}
	ok, err := s.token.Transfer(from, addr, amount)
	if err != nil {
		return errors.Wrap(err, "failed to top up reserve")
	}
	if !ok {
		return reverts.New("top-up balance insufficient")
	}
	return nil
}
