// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/BricklayerDAO/mrtr-token/authority"
	"github.com/BricklayerDAO/mrtr-token/mrtr"
	"github.com/BricklayerDAO/mrtr-token/staking/reserve"
	"github.com/BricklayerDAO/mrtr-token/staking/schedule"
	"github.com/BricklayerDAO/mrtr-token/state"
	"github.com/BricklayerDAO/mrtr-token/storage"
	"github.com/BricklayerDAO/mrtr-token/token"
)

// NewCustomNet create custom network genesis.
func NewCustomNet(gen *CustomGenesis) (*Genesis, error) {
	if _, err := schedule.New(gen.Boundaries); err != nil {
		return nil, errors.Wrap(err, "invalid boundaries")
	}
	rewards := gen.TotalRewards.ToBig()
	if rewards == nil || rewards.Sign() <= 0 {
		return nil, errors.New("totalRewards must be positive")
	}
	if gen.Owner.IsZero() {
		return nil, errors.New("owner must not be the zero address")
	}
	treasurer := gen.Treasurer
	if treasurer.IsZero() {
		treasurer = gen.Owner
	}
	reserveAddr := mrtr.InitialReserveAddress
	if gen.Reserve != nil {
		reserveAddr = *gen.Reserve
	}
	name := gen.Name
	if name == "" {
		name = "customnet"
	}

	accounts := gen.Accounts
	builder := new(Builder).
		Timestamp(gen.Boundaries[0]).
		State(func(st *state.State) error {
			supply := new(big.Int).Set(rewards)
			if err := st.SetBalance(reserveAddr, rewards); err != nil {
				return err
			}
			for _, a := range accounts {
				balance := a.Balance.ToBig()
				if balance == nil || balance.Sign() < 0 {
					return errors.New("account balance must not be negative")
				}
				bal, err := st.GetBalance(a.Address)
				if err != nil {
					return err
				}
				if err := st.SetBalance(a.Address, new(big.Int).Add(bal, balance)); err != nil {
					return err
				}
				supply.Add(supply, balance)
			}
			tok := token.New(mrtr.TokenAddress, st)
			tok.InitializeSupply(supply)

			authority.New(storage.NewContext(mrtr.AuthorityAddress, st)).
				Init(gen.Owner, treasurer)
			reserve.New(storage.NewContext(mrtr.StakingAddress, st), tok).
				SetAddress(reserveAddr)
			return nil
		})

	return &Genesis{
		builder:    builder,
		name:       name,
		boundaries: gen.Boundaries,
		rewards:    rewards,
	}, nil
}
