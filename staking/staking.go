// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staking composes the share accounting facade: the deposit,
// withdraw, transfer and claim entry points that chain window
// roll-forward, participant settlement and the proportional-ownership
// mutation into one atomic action.
package staking

import (
	"math/big"

	"github.com/BricklayerDAO/mrtr-token/authority"
	"github.com/BricklayerDAO/mrtr-token/log"
	"github.com/BricklayerDAO/mrtr-token/metrics"
	"github.com/BricklayerDAO/mrtr-token/mrtr"
	"github.com/BricklayerDAO/mrtr-token/staking/emission"
	"github.com/BricklayerDAO/mrtr-token/staking/participant"
	"github.com/BricklayerDAO/mrtr-token/staking/reserve"
	"github.com/BricklayerDAO/mrtr-token/staking/reverts"
	"github.com/BricklayerDAO/mrtr-token/staking/schedule"
	"github.com/BricklayerDAO/mrtr-token/staking/window"
	"github.com/BricklayerDAO/mrtr-token/state"
	"github.com/BricklayerDAO/mrtr-token/storage"
	"github.com/BricklayerDAO/mrtr-token/token"
	"github.com/BricklayerDAO/mrtr-token/voteweight"
)

var logger = log.WithContext("pkg", "staking")

var (
	metricActionCount   = metrics.LazyLoadCounterVec("staking_action_count", []string{"type"})
	metricRolledWindows = metrics.LazyLoadHistogram("staking_rolled_windows", []int64{0, 1, 2, 5, 10, 20, 40, 80})
	metricSweepLength   = metrics.LazyLoadHistogram("staking_settle_sweep_length", []int64{0, 1, 2, 5, 10, 20, 40, 80})
)

// Staking is the share accounting facade over one ledger state.
type Staking struct {
	state *state.State
	sched *schedule.Schedule
	curve *emission.Curve

	token   *token.Token
	auth    *authority.Authority
	reserve *reserve.Service
	windows *window.Service
	parts   *participant.Service
	votes   *voteweight.Service
}

// New wires the facade over the given state. The schedule and curve
// come from genesis and never change afterwards.
func New(st *state.State, sched *schedule.Schedule, curve *emission.Curve) *Staking {
	ctx := storage.NewContext(mrtr.StakingAddress, st)
	tok := token.New(mrtr.TokenAddress, st)
	res := reserve.New(ctx, tok)
	win := window.New(ctx, sched, curve, res)
	return &Staking{
		state:   st,
		sched:   sched,
		curve:   curve,
		token:   tok,
		auth:    authority.New(storage.NewContext(mrtr.AuthorityAddress, st)),
		reserve: res,
		windows: win,
		parts:   participant.New(ctx, win),
		votes:   voteweight.New(ctx),
	}
}

// Token returns the underlying token ledger.
func (s *Staking) Token() *token.Token { return s.token }

// Authority returns the role records.
func (s *Staking) Authority() *authority.Authority { return s.auth }

// Reserve returns the reward reserve service.
func (s *Staking) Reserve() *reserve.Service { return s.reserve }

// Windows returns the window ledger.
func (s *Staking) Windows() *window.Service { return s.windows }

// Participants returns the participant ledger.
func (s *Staking) Participants() *participant.Service { return s.parts }

// Votes returns the vote-weight checkpoint service.
func (s *Staking) Votes() *voteweight.Service { return s.votes }

// Schedule returns the window schedule.
func (s *Staking) Schedule() *schedule.Schedule { return s.sched }

// Curve returns the emission curve.
func (s *Staking) Curve() *emission.Curve { return s.curve }

// SharesOf returns the settled share balance recorded for addr.
func (s *Staking) SharesOf(addr mrtr.Address) (*big.Int, error) {
	return s.state.GetShares(addr)
}

// atomically runs fn under a state checkpoint: any error reverts every
// mutation fn made.
func (s *Staking) atomically(fn func() error) error {
	cp := s.state.NewCheckpoint()
	if err := fn(); err != nil {
		s.state.RevertTo(cp)
		return err
	}
	return nil
}

// settleTarget maps a timestamp to the window the ledger must advance
// to before acting at that time.
func (s *Staking) settleTarget(now uint64) (uint32, bool) {
	valid, idx, _, _ := s.sched.Locate(now)
	if valid {
		return idx, true
	}
	if now >= s.sched.End() {
		return s.windows.Terminal(), false
	}
	return 0, false
}

// prepare runs the fixed front half of every entry point: locate,
// roll-forward, settle. For stake-affecting actions the timestamp must
// fall inside the staking period and the ledger must not be paused.
func (s *Staking) prepare(addr mrtr.Address, now uint64, stakeAffecting bool) (uint32, *big.Int, error) {
	if now < s.sched.Start() {
		return 0, nil, reverts.New("staking has not started")
	}
	target, inPeriod := s.settleTarget(now)
	if stakeAffecting {
		if !inPeriod {
			return 0, nil, reverts.New("staking period has ended")
		}
		paused, err := s.auth.Paused()
		if err != nil {
			return 0, nil, err
		}
		if paused {
			return 0, nil, reverts.New("staking is paused")
		}
	}

	before, err := s.windows.Cursor()
	if err != nil {
		return 0, nil, err
	}
	if err := s.windows.AdvanceTo(target, now); err != nil {
		return 0, nil, err
	}
	if target > before {
		metricRolledWindows().Observe(int64(target - before))
	}

	pcur, has, err := s.parts.Cursor(addr)
	if err != nil {
		return 0, nil, err
	}
	settled, err := s.parts.Settle(addr, target, now)
	if err != nil {
		return 0, nil, err
	}
	if has && target > pcur {
		metricSweepLength().Observe(int64(target - pcur))
	}
	return target, settled, nil
}

// checkpointVotes records addr's post-action weight.
func (s *Staking) checkpointVotes(addr mrtr.Address, windowIndex uint32, weight *big.Int) error {
	return s.votes.Record(addr, windowIndex, weight)
}

func (s *Staking) mintShares(addr mrtr.Address, amount *big.Int) error {
	bal, err := s.state.GetShares(addr)
	if err != nil {
		return err
	}
	return s.state.SetShares(addr, new(big.Int).Add(bal, amount))
}

func (s *Staking) burnShares(addr mrtr.Address, amount *big.Int) error {
	bal, err := s.state.GetShares(addr)
	if err != nil {
		return err
	}
	next := new(big.Int).Sub(bal, amount)
	if next.Sign() < 0 {
		return reverts.New("share balance insufficient")
	}
	return s.state.SetShares(addr, next)
}

func (s *Staking) moveShares(from, to mrtr.Address, amount *big.Int) error {
	if err := s.burnShares(from, amount); err != nil {
		return err
	}
	return s.mintShares(to, amount)
}
