// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/BricklayerDAO/mrtr-token/mrtr"
)

// Account is the persisted representation of a ledger account.
// RLP encoded objects are stored under the account key space.
type Account struct {
	Balance *big.Int // underlying token balance, in wei units
	Shares  *big.Int // staked share balance
}

// IsEmpty returns if an account is empty.
// An empty account has zero balance and zero shares.
func (a *Account) IsEmpty() bool {
	return a.Balance.Sign() == 0 && a.Shares.Sign() == 0
}

func emptyAccount() *Account {
	return &Account{Balance: &big.Int{}, Shares: &big.Int{}}
}

const (
	accountKeyPrefix = 'a'
	storageKeyPrefix = 's'
)

// accountKey builds the backing-store key of the account record.
func accountKey(addr mrtr.Address) []byte {
	k := make([]byte, 0, 1+len(addr))
	k = append(k, accountKeyPrefix)
	return append(k, addr[:]...)
}

// storageStoreKey builds the backing-store key of a storage slot.
func storageStoreKey(addr mrtr.Address, key mrtr.Bytes32) []byte {
	k := make([]byte, 0, 1+len(addr)+len(key))
	k = append(k, storageKeyPrefix)
	k = append(k, addr[:]...)
	return append(k, key[:]...)
}

// loadAccount loads an account object by address.
// It returns an empty account if no account is found at the address.
func loadAccount(read readFunc, addr mrtr.Address) (*Account, error) {
	data, err := read(accountKey(addr))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return emptyAccount(), nil
	}
	var a Account
	if err := rlp.DecodeBytes(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// encodeAccount encodes the account for saving.
// An empty account encodes to nil, meaning its key is deleted.
func encodeAccount(a *Account) ([]byte, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	return rlp.EncodeToBytes(a)
}

// loadStorage loads the raw storage value for the given slot.
func loadStorage(read readFunc, addr mrtr.Address, key mrtr.Bytes32) (rlp.RawValue, error) {
	v, err := read(storageStoreKey(addr, key))
	return v, err
}
