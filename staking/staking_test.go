// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BricklayerDAO/mrtr-token/kv"
	"github.com/BricklayerDAO/mrtr-token/mrtr"
	"github.com/BricklayerDAO/mrtr-token/staking/emission"
	"github.com/BricklayerDAO/mrtr-token/staking/reverts"
	"github.com/BricklayerDAO/mrtr-token/staking/schedule"
	"github.com/BricklayerDAO/mrtr-token/staking/window"
	"github.com/BricklayerDAO/mrtr-token/state"
	"github.com/BricklayerDAO/mrtr-token/test/datagen"
)

var (
	owner     = mrtr.BytesToAddress([]byte("owner"))
	treasurer = mrtr.BytesToAddress([]byte("treasurer"))
	reserved  = mrtr.BytesToAddress([]byte("reserve"))
	alice     = mrtr.BytesToAddress([]byte("alice"))
	bob       = mrtr.BytesToAddress([]byte("bob"))
)

// three windows of 1000 seconds each, emitting 1 unit per second
func newTestStaking(t *testing.T) *Staking {
	t.Helper()
	store := kv.NewLevelMemStore()
	t.Cleanup(func() { store.Close() })

	sched, err := schedule.New([]uint64{1000, 2000, 3000, 4000})
	require.NoError(t, err)
	curve, err := emission.New(big.NewInt(3000), 1000, 4000)
	require.NoError(t, err)

	st := state.NewStater(store, 0).NewState()
	s := New(st, sched, curve)
	s.Token().InitializeSupply(big.NewInt(1_000_000))
	require.NoError(t, s.Token().AddBalance(reserved, big.NewInt(100_000)))
	require.NoError(t, s.Token().AddBalance(alice, big.NewInt(10_000)))
	require.NoError(t, s.Token().AddBalance(bob, big.NewInt(10_000)))
	s.Reserve().SetAddress(reserved)
	s.Authority().Init(owner, treasurer)
	return s
}

func TestDepositAndSettleCompounds(t *testing.T) {
	s := newTestStaking(t)

	minted, err := s.Deposit(alice, big.NewInt(1000), 1000)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), minted)

	bal, err := s.Token().BalanceOf(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(9000), bal)

	// after the first window closes, the 1000 reward compounds 1:1
	settled, err := s.Claim(alice, 2000)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2000), settled)

	held, err := s.SharesOf(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2000), held)

	// custody holds the stake plus the pulled reward
	custody, err := s.Token().BalanceOf(mrtr.StakingAddress)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2000), custody)
}

func TestRewardSplitsByShares(t *testing.T) {
	s := newTestStaking(t)

	_, err := s.Deposit(alice, big.NewInt(3000), 1000)
	require.NoError(t, err)
	_, err = s.Deposit(bob, big.NewInt(1000), 1000)
	require.NoError(t, err)

	settledAlice, err := s.Claim(alice, 2000)
	require.NoError(t, err)
	settledBob, err := s.Claim(bob, 2000)
	require.NoError(t, err)

	// the 1000 reward of window 0 splits 3:1
	assert.Equal(t, big.NewInt(3750), settledAlice)
	assert.Equal(t, big.NewInt(1250), settledBob)
}

func TestMidWindowEntryEarnsOnlyRemainder(t *testing.T) {
	s := newTestStaking(t)

	_, err := s.Deposit(alice, big.NewInt(1000), 1000)
	require.NoError(t, err)
	// bob joins halfway through the window
	_, err = s.Deposit(bob, big.NewInt(1000), 1500)
	require.NoError(t, err)

	settledAlice, err := s.Claim(alice, 2000)
	require.NoError(t, err)
	settledBob, err := s.Claim(bob, 2000)
	require.NoError(t, err)

	// alice alone for the first 500, then an even split
	assert.Equal(t, big.NewInt(1750), settledAlice)
	assert.Equal(t, big.NewInt(1250), settledBob)
}

func TestFailedReservePullRevertsAtomically(t *testing.T) {
	s := newTestStaking(t)
	// drain the reserve below the first window's reward
	_, err := s.Token().Transfer(reserved, treasurer, big.NewInt(99_500))
	require.NoError(t, err)

	_, err = s.Deposit(alice, big.NewInt(1000), 1000)
	require.NoError(t, err)

	// crossing the boundary needs a 1000 pull against a 500 balance
	_, err = s.Deposit(alice, big.NewInt(100), 2500)
	require.Error(t, err)
	assert.True(t, reverts.IsRevertErr(err))
	assert.ErrorContains(t, err, "reserve balance insufficient")

	// nothing moved: cursor, balance and shares are untouched
	cursor, err := s.Windows().Cursor()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), cursor)
	bal, err := s.Token().BalanceOf(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(9000), bal)

	// a top-up unblocks the identical action
	require.NoError(t, s.TopUpReserve(treasurer, big.NewInt(99_500)))
	_, err = s.Deposit(alice, big.NewInt(100), 2500)
	require.NoError(t, err)
}

func TestWithdrawReturnsStake(t *testing.T) {
	s := newTestStaking(t)

	_, err := s.Deposit(alice, big.NewInt(1000), 1000)
	require.NoError(t, err)

	burned, err := s.Withdraw(alice, big.NewInt(400), 1500)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(400), burned)

	bal, err := s.Token().BalanceOf(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(9400), bal)

	win, err := s.Windows().Get(0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(600), win.TotalShares)
	assert.Equal(t, big.NewInt(600), win.TotalStaked)
}

func TestRedeemAfterReward(t *testing.T) {
	s := newTestStaking(t)

	_, err := s.Deposit(alice, big.NewInt(1000), 1000)
	require.NoError(t, err)

	// window 0 closed: 2000 shares backed by 2000 staked
	assets, err := s.Redeem(alice, big.NewInt(500), 2500)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500), assets)

	held, err := s.SharesOf(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1500), held)
}

func TestTransferSettlesBothSides(t *testing.T) {
	s := newTestStaking(t)

	_, err := s.Deposit(alice, big.NewInt(1000), 1000)
	require.NoError(t, err)

	require.NoError(t, s.Transfer(alice, bob, big.NewInt(500), 2500))

	heldAlice, err := s.SharesOf(alice)
	require.NoError(t, err)
	heldBob, err := s.SharesOf(bob)
	require.NoError(t, err)
	// the transfer moves settled shares: alice settled to 2000 first
	assert.Equal(t, big.NewInt(1500), heldAlice)
	assert.Equal(t, big.NewInt(500), heldBob)

	// vote weight checkpoints the post-transfer balances
	weight, err := s.Votes().WeightAt(bob, 1)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500), weight)
}

func TestValidation(t *testing.T) {
	s := newTestStaking(t)

	_, err := s.Deposit(mrtr.Address{}, big.NewInt(1), 1000)
	assert.True(t, reverts.IsRevertErr(err))

	_, err = s.Deposit(alice, big.NewInt(0), 1000)
	assert.True(t, reverts.IsRevertErr(err))

	_, err = s.Deposit(alice, big.NewInt(1), 999)
	assert.ErrorContains(t, err, "staking has not started")

	_, err = s.Deposit(alice, big.NewInt(1), 4000)
	assert.ErrorContains(t, err, "staking period has ended")

	err = s.Transfer(alice, alice, big.NewInt(1), 1000)
	assert.ErrorContains(t, err, "transfer to self")

	// empty vault: the ceil conversion yields zero shares
	_, err = s.Withdraw(alice, big.NewInt(1), 1000)
	assert.ErrorContains(t, err, "withdrawal too small for one share")
}

func TestPauseBlocksStakingButNotClaims(t *testing.T) {
	s := newTestStaking(t)

	_, err := s.Deposit(alice, big.NewInt(1000), 1000)
	require.NoError(t, err)

	require.NoError(t, s.SetPaused(owner, true))

	_, err = s.Deposit(alice, big.NewInt(100), 1500)
	assert.ErrorContains(t, err, "staking is paused")
	_, err = s.Withdraw(alice, big.NewInt(100), 1500)
	assert.ErrorContains(t, err, "staking is paused")

	// claims keep working while paused
	settled, err := s.Claim(alice, 2000)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2000), settled)

	require.NoError(t, s.SetPaused(owner, false))
	_, err = s.Deposit(alice, big.NewInt(100), 2500)
	require.NoError(t, err)

	// only the owner can pause
	err = s.SetPaused(alice, true)
	assert.True(t, reverts.IsRevertErr(err))
}

func TestClaimAfterPeriodEnd(t *testing.T) {
	s := newTestStaking(t)

	_, err := s.Deposit(alice, big.NewInt(1000), 1000)
	require.NoError(t, err)

	settled, err := s.Claim(alice, 5000)
	require.NoError(t, err)
	// the whole emission compounded in, minus truncation dust
	assert.Equal(t, big.NewInt(3999), settled)

	cursor, err := s.Windows().Cursor()
	require.NoError(t, err)
	assert.Equal(t, s.Windows().Terminal(), cursor)

	// a later claim reads the settled balance without rework
	again, err := s.Claim(alice, 6000)
	require.NoError(t, err)
	assert.Equal(t, settled, again)
}

func TestPreviewDoesNotMutate(t *testing.T) {
	s := newTestStaking(t)

	_, err := s.Deposit(alice, big.NewInt(1000), 1000)
	require.NoError(t, err)

	preview, err := s.Preview(alice, 2000)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2000), preview)

	cursor, err := s.Windows().Cursor()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), cursor)
}

func TestTopUpRequiresTreasurer(t *testing.T) {
	s := newTestStaking(t)

	err := s.TopUpReserve(alice, big.NewInt(100))
	assert.True(t, reverts.IsRevertErr(err))

	require.NoError(t, s.Token().AddBalance(treasurer, big.NewInt(100)))
	require.NoError(t, s.TopUpReserve(treasurer, big.NewInt(100)))

	bal, err := s.Reserve().Balance()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100_100), bal)
}

// TestRandomizedConservation drives a random action sequence through a
// full staking period and checks the global accounting afterwards:
// every emitted unit is either pulled or forfeited, and every minted
// share is either held by a participant or stranded in the pool.
func TestRandomizedConservation(t *testing.T) {
	s := newTestStaking(t)

	actors := []mrtr.Address{alice, bob, treasurer}
	require.NoError(t, s.Token().AddBalance(treasurer, big.NewInt(10_000)))

	minted := new(big.Int)
	now := uint64(1000)
	for now < 4000 {
		addr := actors[datagen.RandIntN(len(actors))]
		amount := datagen.RandAmount(500)
		var err error
		switch datagen.RandIntN(3) {
		case 0:
			var out *big.Int
			if out, err = s.Deposit(addr, amount, now); err == nil {
				minted.Add(minted, out)
			}
		case 1:
			var out *big.Int
			if out, err = s.Withdraw(addr, amount, now); err == nil {
				minted.Sub(minted, out)
			}
		case 2:
			_, err = s.Claim(addr, now)
		}
		if err != nil {
			require.True(t, reverts.IsRevertErr(err), "unexpected error: %v", err)
		}
		now += uint64(1 + datagen.RandIntN(200))
	}

	for _, addr := range actors {
		_, err := s.Claim(addr, 5000)
		require.NoError(t, err)
	}

	pulled, err := s.Windows().Pulled()
	require.NoError(t, err)
	forfeited, err := s.Windows().Forfeited()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(3000), new(big.Int).Add(pulled, forfeited))

	generated := new(big.Int)
	var recs []*window.Record
	for i := uint32(0); i < s.Windows().Terminal(); i++ {
		win, err := s.Windows().Get(i)
		require.NoError(t, err)
		generated.Add(generated, win.SharesGenerated)
		recs = append(recs, win)
	}

	held := new(big.Int)
	for _, addr := range actors {
		bal, err := s.SharesOf(addr)
		require.NoError(t, err)
		held.Add(held, bal)
	}
	pool, err := s.SharesOf(mrtr.StakingAddress)
	require.NoError(t, err)
	assert.True(t, pool.Sign() >= 0)

	total := new(big.Int).Add(minted, generated)
	assert.Equal(t, total, new(big.Int).Add(held, pool), spew.Sdump(recs))
}
