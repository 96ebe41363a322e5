// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package shares

import (
	"math/big"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"

	"github.com/BricklayerDAO/mrtr-token/mrtr"
)

func TestFromValue(t *testing.T) {
	// zero base never divides by zero
	assert.Equal(t, int64(0), FromValue(big.NewInt(100), big.NewInt(0), big.NewInt(0)).Int64())
	assert.Equal(t, int64(0), FromValue(big.NewInt(100), big.NewInt(0), big.NewInt(50)).Int64())

	// 1:1 pool
	assert.Equal(t, int64(100), FromValue(big.NewInt(100), big.NewInt(500), big.NewInt(500)).Int64())

	// appreciated pool: 2 value per share, floor
	assert.Equal(t, int64(50), FromValue(big.NewInt(101), big.NewInt(500), big.NewInt(1000)).Int64())
	assert.Equal(t, int64(51), FromValueCeil(big.NewInt(101), big.NewInt(500), big.NewInt(1000)).Int64())
}

func TestToValue(t *testing.T) {
	// 2 value per share
	assert.Equal(t, int64(200), ToValue(big.NewInt(100), big.NewInt(500), big.NewInt(1000)).Int64())
	assert.Equal(t, int64(0), ToValue(big.NewInt(100), big.NewInt(0), big.NewInt(0)).Int64())

	// 3 value per 2 shares, rounding direction
	assert.Equal(t, int64(1), ToValue(big.NewInt(1), big.NewInt(2), big.NewInt(3)).Int64())
	assert.Equal(t, int64(2), ToValueCeil(big.NewInt(1), big.NewInt(2), big.NewInt(3)).Int64())
}

func TestMultiplyBeforeDivide(t *testing.T) {
	// 7 * 3 / 2 = 10 (floor of 10.5); dividing first would give 9
	got := FromValue(big.NewInt(7), big.NewInt(3), big.NewInt(2))
	assert.Equal(t, int64(10), got.Int64())
}

func TestAccRewardPerShare(t *testing.T) {
	assert.Equal(t, int64(0), AccRewardPerShare(big.NewInt(100), big.NewInt(0)).Int64())

	// 100 reward over 100 shares = 1 reward per share, scaled
	acc := AccRewardPerShare(big.NewInt(100), big.NewInt(100))
	assert.Equal(t, mrtr.Precision, acc)

	// round trip through Accumulated
	assert.Equal(t, int64(100), Accumulated(big.NewInt(100), acc).Int64())
}

func TestFloorCeilAdjacency(t *testing.T) {
	for _, tc := range []struct{ x, s, v int64 }{
		{1, 3, 7}, {10, 3, 7}, {21, 3, 7}, {999, 7, 13},
	} {
		fl := FromValue(big.NewInt(tc.x), big.NewInt(tc.s), big.NewInt(tc.v))
		ce := FromValueCeil(big.NewInt(tc.x), big.NewInt(tc.s), big.NewInt(tc.v))
		diff := new(big.Int).Sub(ce, fl)
		assert.LessOrEqual(t, diff.Int64(), int64(1))
		assert.GreaterOrEqual(t, diff.Int64(), int64(0))
	}
}

func TestConversionProperties(t *testing.T) {
	f := fuzz.New()

	for i := 0; i < 1000; i++ {
		var x, s, v uint64
		f.Fuzz(&x)
		f.Fuzz(&s)
		f.Fuzz(&v)
		amount := new(big.Int).SetUint64(x)
		sh := new(big.Int).SetUint64(s%1_000_000 + 1)
		val := new(big.Int).SetUint64(v%1_000_000 + 1)

		floor := FromValue(amount, sh, val)
		ceil := FromValueCeil(amount, sh, val)
		diff := new(big.Int).Sub(ceil, floor)
		assert.True(t, diff.Sign() >= 0 && diff.Cmp(big.NewInt(1)) <= 0,
			"ceil/floor spread for %v %v %v", amount, sh, val)

		// redeeming what a deposit granted can never exceed the deposit
		back := ToValue(floor, sh, val)
		assert.True(t, back.Cmp(amount) <= 0, "round trip gained value: %v -> %v", amount, back)

		// minting rounds against the caller
		cost := ToValueCeil(ceil, sh, val)
		assert.True(t, cost.Cmp(amount) >= 0, "mint undercharged: %v -> %v", amount, cost)
	}
}
