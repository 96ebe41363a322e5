// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"math/big"

	"github.com/BricklayerDAO/mrtr-token/mrtr"
)

// Uint64 is a wrapper for storage and retrieval of a small counter or
// cursor value.
type Uint64 struct {
	context *Context
	pos     mrtr.Bytes32
}

func NewUint64(context *Context, pos mrtr.Bytes32) *Uint64 {
	return &Uint64{context: context, pos: pos}
}

func (u *Uint64) Get() (uint64, error) {
	storage, err := u.context.state.GetStorage(u.context.address, u.pos)
	if err != nil {
		return 0, err
	}
	return new(big.Int).SetBytes(storage.Bytes()).Uint64(), nil
}

func (u *Uint64) Set(value uint64) {
	storage := mrtr.BytesToBytes32(new(big.Int).SetUint64(value).Bytes())
	u.context.state.SetStorage(u.context.address, u.pos, storage)
}
