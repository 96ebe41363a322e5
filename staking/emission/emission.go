// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package emission implements the constant-rate reward curve spanning
// the whole staking schedule.
package emission

import (
	"errors"
	"math/big"
)

// Curve emits a fixed total reward budget linearly over [start, end).
// The per-second rate is fixed at construction; the integer division
// leaves sub-second dust that is never emitted.
type Curve struct {
	rate  *big.Int
	start uint64
	end   uint64
	total *big.Int
}

// New creates a curve distributing total over [start, end).
func New(total *big.Int, start, end uint64) (*Curve, error) {
	if end <= start {
		return nil, errors.New("emission: empty time span")
	}
	if total.Sign() < 0 {
		return nil, errors.New("emission: negative total")
	}
	span := new(big.Int).SetUint64(end - start)
	return &Curve{
		rate:  new(big.Int).Div(total, span),
		start: start,
		end:   end,
		total: new(big.Int).Set(total),
	}, nil
}

// Rate returns the emission rate in wei per second.
func (c *Curve) Rate() *big.Int {
	return new(big.Int).Set(c.rate)
}

// Total returns the configured reward budget.
func (c *Curve) Total() *big.Int {
	return new(big.Int).Set(c.total)
}

// Between returns the reward emitted in [a, b]. It clamps to zero when
// a > b; correct sequencing never produces that case.
func (c *Curve) Between(a, b uint64) *big.Int {
	if a > b {
		return new(big.Int)
	}
	span := new(big.Int).SetUint64(b - a)
	return span.Mul(span, c.rate)
}
