// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"math/big"

	"github.com/BricklayerDAO/mrtr-token/mrtr"
)

// Action names one kind of ledger event.
type Action string

const (
	ActionDeposit      Action = "deposit"
	ActionMint         Action = "mint"
	ActionWithdraw     Action = "withdraw"
	ActionRedeem       Action = "redeem"
	ActionTransfer     Action = "transfer"
	ActionClaim        Action = "claim"
	ActionWindowClosed Action = "window-closed"
	ActionTopUp        Action = "top-up"
)

// Event is one journaled ledger event. The journal is observational:
// it is written after the state commit and the ledger never reads it
// back.
type Event struct {
	Sequence     uint64        `json:"sequence"`
	Timestamp    uint64        `json:"timestamp"`
	Window       uint32        `json:"window"`
	Action       Action        `json:"action"`
	Address      mrtr.Address  `json:"address"`
	Counterparty *mrtr.Address `json:"counterparty,omitempty"`
	Shares       *big.Int      `json:"shares"`
	Assets       *big.Int      `json:"assets"`
}

type OrderType string

const (
	ASC  OrderType = "ASC"
	DESC OrderType = "DESC"
)

// Range bounds a filter by event timestamp, inclusive.
type Range struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// Filter selects journaled events. Nil members match everything.
type Filter struct {
	Address *mrtr.Address `json:"address"`
	Actions []Action      `json:"actions"`
	Window  *uint32       `json:"window"`
	Range   *Range        `json:"range"`
	Options *Options      `json:"options"`
	Order   OrderType     `json:"order"` // default ASC
}
