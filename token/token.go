// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token implements the underlying MRTR token ledger.
//
// Balances live in world-state accounts. The package tracks the
// circulating supply with add/sub counters so minting and burning
// stay auditable.
package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/BricklayerDAO/mrtr-token/mrtr"
	"github.com/BricklayerDAO/mrtr-token/state"
)

var (
	initialSupplyKey = mrtr.Bytes32(crypto.Keccak256Hash([]byte("token-supply")))
	totalAddKey      = mrtr.Bytes32(crypto.Keccak256Hash([]byte("total-add")))
	totalSubKey      = mrtr.Bytes32(crypto.Keccak256Hash([]byte("total-sub")))
)

// Token provides access to MRTR balances and supply counters.
type Token struct {
	addr  mrtr.Address
	state *state.State
}

// New creates a token instance keeping its supply counters under addr.
func New(addr mrtr.Address, state *state.State) *Token {
	return &Token{addr, state}
}

// Name returns the token name.
func (t *Token) Name() string { return mrtr.TokenName }

// Symbol returns the token symbol.
func (t *Token) Symbol() string { return mrtr.TokenSymbol }

// Decimals returns the number of decimals of the token.
func (t *Token) Decimals() uint8 { return mrtr.TokenDecimals }

func (t *Token) getCounter(key mrtr.Bytes32) (*big.Int, error) {
	v, err := t.state.GetStorage(t.addr, key)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(v.Bytes()), nil
}

func (t *Token) setCounter(key mrtr.Bytes32, v *big.Int) {
	t.state.SetStorage(t.addr, key, mrtr.BytesToBytes32(v.Bytes()))
}

// InitializeSupply records the genesis token supply.
func (t *Token) InitializeSupply(supply *big.Int) {
	t.setCounter(initialSupplyKey, supply)
}

// TotalSupply returns the current circulating supply.
func (t *Token) TotalSupply() (*big.Int, error) {
	initial, err := t.getCounter(initialSupplyKey)
	if err != nil {
		return nil, err
	}
	totalAdd, err := t.getCounter(totalAddKey)
	if err != nil {
		return nil, err
	}
	totalSub, err := t.getCounter(totalSubKey)
	if err != nil {
		return nil, err
	}
	initial.Add(initial, totalAdd)
	return initial.Sub(initial, totalSub), nil
}

// TotalBurned returns the cumulative burned amount.
func (t *Token) TotalBurned() (*big.Int, error) {
	totalAdd, err := t.getCounter(totalAddKey)
	if err != nil {
		return nil, err
	}
	totalSub, err := t.getCounter(totalSubKey)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Sub(totalSub, totalAdd), nil
}

// BalanceOf returns the token balance of an account.
func (t *Token) BalanceOf(addr mrtr.Address) (*big.Int, error) {
	return t.state.GetBalance(addr)
}

// AddBalance mints amount to addr.
func (t *Token) AddBalance(addr mrtr.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	bal, err := t.state.GetBalance(addr)
	if err != nil {
		return err
	}
	if err := t.state.SetBalance(addr, new(big.Int).Add(bal, amount)); err != nil {
		return err
	}
	totalAdd, err := t.getCounter(totalAddKey)
	if err != nil {
		return err
	}
	t.setCounter(totalAddKey, totalAdd.Add(totalAdd, amount))
	return nil
}

// SubBalance burns amount from addr. It returns false if the balance
// is insufficient.
func (t *Token) SubBalance(addr mrtr.Address, amount *big.Int) (bool, error) {
	if amount.Sign() == 0 {
		return true, nil
	}
	bal, err := t.state.GetBalance(addr)
	if err != nil {
		return false, err
	}
	if bal.Cmp(amount) < 0 {
		return false, nil
	}
	if err := t.state.SetBalance(addr, new(big.Int).Sub(bal, amount)); err != nil {
		return false, err
	}
	totalSub, err := t.getCounter(totalSubKey)
	if err != nil {
		return false, err
	}
	t.setCounter(totalSubKey, totalSub.Add(totalSub, amount))
	return true, nil
}

// Transfer moves amount between accounts. It returns false if the
// sender balance is insufficient. Supply counters are unaffected.
func (t *Token) Transfer(from, to mrtr.Address, amount *big.Int) (bool, error) {
	fromBal, err := t.state.GetBalance(from)
	if err != nil {
		return false, err
	}
	if fromBal.Cmp(amount) < 0 {
		return false, err
	}
	if amount.Sign() == 0 {
		return true, nil
	}
	if err := t.state.SetBalance(from, new(big.Int).Sub(fromBal, amount)); err != nil {
		return false, err
	}
	toBal, err := t.state.GetBalance(to)
	if err != nil {
		return false, err
	}
	if err := t.state.SetBalance(to, new(big.Int).Add(toBal, amount)); err != nil {
		return false, err
	}
	return true, nil
}
