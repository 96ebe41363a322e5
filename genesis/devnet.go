// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"fmt"
	"math/big"

	"github.com/BricklayerDAO/mrtr-token/authority"
	"github.com/BricklayerDAO/mrtr-token/mrtr"
	"github.com/BricklayerDAO/mrtr-token/staking/reserve"
	"github.com/BricklayerDAO/mrtr-token/state"
	"github.com/BricklayerDAO/mrtr-token/storage"
	"github.com/BricklayerDAO/mrtr-token/token"
)

const (
	devWindowCount  = 8
	devWindowLength = 600 // seconds
)

// DevAccounts returns pre-funded accounts for dev mode. The first
// account carries the owner and treasurer roles.
func DevAccounts() []mrtr.Address {
	accs := make([]mrtr.Address, 10)
	for i := range accs {
		accs[i] = mrtr.BytesToAddress(fmt.Appendf(nil, "mrtr-dev-%d", i))
	}
	return accs
}

// NewDevnet create devnet genesis with short windows for interactive
// testing. Boundaries start at the given launch time.
func NewDevnet(launchTime uint64) *Genesis {
	boundaries := make([]uint64, devWindowCount+1)
	for i := range boundaries {
		boundaries[i] = launchTime + uint64(i)*devWindowLength
	}

	rewards := new(big.Int).Mul(big.NewInt(1000), mrtr.Precision)
	accountFund := new(big.Int).Mul(big.NewInt(10_000), mrtr.Precision)
	accounts := DevAccounts()

	builder := new(Builder).
		Timestamp(launchTime).
		State(func(st *state.State) error {
			supply := new(big.Int).Set(rewards)
			if err := st.SetBalance(mrtr.InitialReserveAddress, rewards); err != nil {
				return err
			}
			for _, acc := range accounts {
				if err := st.SetBalance(acc, accountFund); err != nil {
					return err
				}
				supply.Add(supply, accountFund)
			}
			tok := token.New(mrtr.TokenAddress, st)
			tok.InitializeSupply(supply)

			authority.New(storage.NewContext(mrtr.AuthorityAddress, st)).
				Init(accounts[0], accounts[0])
			reserve.New(storage.NewContext(mrtr.StakingAddress, st), tok).
				SetAddress(mrtr.InitialReserveAddress)
			return nil
		})

	return &Genesis{
		builder:    builder,
		name:       "devnet",
		boundaries: boundaries,
		rewards:    rewards,
	}
}
