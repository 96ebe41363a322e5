// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package shares holds the proportional-ownership conversion shared by
// deposits, roll-forward and settlement. All conversions multiply
// before dividing so truncation happens once, at the end.
package shares

import (
	"math/big"

	"github.com/BricklayerDAO/mrtr-token/mrtr"
)

// FromValue converts an amount of underlying value into shares against
// the reference pair (totalShares, totalValue), rounding down. A zero
// base yields zero shares; callers own the bootstrap case.
func FromValue(amount, totalShares, totalValue *big.Int) *big.Int {
	if totalValue.Sign() == 0 || totalShares.Sign() == 0 {
		return new(big.Int)
	}
	out := new(big.Int).Mul(amount, totalShares)
	return out.Div(out, totalValue)
}

// FromValueCeil is FromValue rounding up, used where rounding must
// favor the pool over the caller.
func FromValueCeil(amount, totalShares, totalValue *big.Int) *big.Int {
	if totalValue.Sign() == 0 || totalShares.Sign() == 0 {
		return new(big.Int)
	}
	out := new(big.Int).Mul(amount, totalShares)
	return ceilDiv(out, totalValue)
}

// ToValue converts shares back into underlying value, rounding down.
func ToValue(amount, totalShares, totalValue *big.Int) *big.Int {
	return FromValue(amount, totalValue, totalShares)
}

// ToValueCeil is ToValue rounding up.
func ToValueCeil(amount, totalShares, totalValue *big.Int) *big.Int {
	return FromValueCeil(amount, totalValue, totalShares)
}

// AccRewardPerShare returns the fixed-point per-share increment for a
// reward delta against totalShares: delta * PRECISION / totalShares.
func AccRewardPerShare(delta, totalShares *big.Int) *big.Int {
	if totalShares.Sign() == 0 {
		return new(big.Int)
	}
	out := new(big.Int).Mul(delta, mrtr.Precision)
	return out.Div(out, totalShares)
}

// Accumulated returns shares * accRewardPerShare / PRECISION, the
// cumulative reward attributed to a share balance.
func Accumulated(shares, accRewardPerShare *big.Int) *big.Int {
	out := new(big.Int).Mul(shares, accRewardPerShare)
	return out.Div(out, mrtr.Precision)
}

func ceilDiv(x, y *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(x, y, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}
