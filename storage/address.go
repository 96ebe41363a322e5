// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/BricklayerDAO/mrtr-token/mrtr"
)

// Address is a wrapper for storage and retrieval of an address,
// similar to storing an address in a smart contract.
type Address struct {
	context *Context
	pos     mrtr.Bytes32
}

func NewAddress(context *Context, pos mrtr.Bytes32) *Address {
	return &Address{context: context, pos: pos}
}

func (a *Address) Get() (mrtr.Address, error) {
	storage, err := a.context.state.GetStorage(a.context.address, a.pos)
	if err != nil {
		return mrtr.Address{}, err
	}
	return mrtr.BytesToAddress(storage.Bytes()), nil
}

func (a *Address) Set(addr *mrtr.Address) {
	var storage mrtr.Bytes32
	if addr != nil {
		storage = mrtr.BytesToBytes32(addr.Bytes())
	}
	a.context.state.SetStorage(a.context.address, a.pos, storage)
}
