// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/BricklayerDAO/mrtr-token/mrtr"
)

// readFunc reads a raw value from the backing store.
// A missing key yields a nil value and no error.
type readFunc func(key []byte) ([]byte, error)

// cachedObject caches an account and its loaded storage slots.
type cachedObject struct {
	read readFunc
	addr mrtr.Address
	data Account

	cache struct {
		storage map[mrtr.Bytes32]rlp.RawValue
	}
}

func newCachedObject(read readFunc, addr mrtr.Address, data *Account) *cachedObject {
	return &cachedObject{read: read, addr: addr, data: *data}
}

// GetStorage returns the storage value for the given slot key.
func (co *cachedObject) GetStorage(key mrtr.Bytes32) (rlp.RawValue, error) {
	cache := &co.cache
	if cache.storage != nil {
		if v, ok := cache.storage[key]; ok {
			return v, nil
		}
	}
	v, err := loadStorage(co.read, co.addr, key)
	if err != nil {
		return nil, err
	}
	if cache.storage == nil {
		cache.storage = make(map[mrtr.Bytes32]rlp.RawValue)
	}
	cache.storage[key] = v
	return v, nil
}
