// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package storage provides typed slot accessors over the world state,
// similar to declaring storage variables in a contract. Each module
// owns an address space and derives slot positions from names.
package storage

import (
	"github.com/BricklayerDAO/mrtr-token/mrtr"
	"github.com/BricklayerDAO/mrtr-token/state"
)

// Context binds an owning address to a state instance.
type Context struct {
	address mrtr.Address
	state   *state.State
}

func NewContext(address mrtr.Address, state *state.State) *Context {
	return &Context{
		address: address,
		state:   state,
	}
}

func (c *Context) State() *state.State {
	return c.state
}

func (c *Context) Address() mrtr.Address {
	return c.address
}

// NameToSlot derives the storage slot position for a named variable.
func NameToSlot(name string) mrtr.Bytes32 {
	return mrtr.BytesToBytes32([]byte(name))
}
