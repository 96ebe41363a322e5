// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package window implements the per-window ledger and its lazy
// roll-forward state machine. Windows are processed strictly in order,
// one at a time, driven by whichever external action happens to occur
// after a boundary has passed.
package window

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/BricklayerDAO/mrtr-token/log"
	"github.com/BricklayerDAO/mrtr-token/metrics"
	"github.com/BricklayerDAO/mrtr-token/staking/emission"
	"github.com/BricklayerDAO/mrtr-token/staking/schedule"
	"github.com/BricklayerDAO/mrtr-token/staking/shares"
	"github.com/BricklayerDAO/mrtr-token/storage"
)

var (
	logger = log.WithContext("pkg", "window")

	metricWindowsClosed = metrics.LazyLoadCounter("staking_windows_closed_count")
	metricReservePulls  = metrics.LazyLoadCounter("staking_reserve_pulls_count")
)

var (
	slotWindows   = storage.NameToSlot("windows")
	slotCursor    = storage.NameToSlot("window-cursor")
	slotForfeited = storage.NameToSlot("reward-forfeited")
	slotPulled    = storage.NameToSlot("reserve-pulled")
)

// Record is the ledger entry of one window.
type Record struct {
	AccRewardPerShare  *big.Int // cumulative reward per share, fixed point
	LastUpdate         uint64   // high-water mark within [start, end]
	TotalRewardAccrued *big.Int
	TotalShares        *big.Int
	TotalStaked        *big.Int
	SharesGenerated    *big.Int // shares minted from this window's own reward
}

// norm allocates zero big ints and anchors a fresh record's high-water
// mark at the window start.
func (r *Record) norm(start uint64) *Record {
	if r.AccRewardPerShare == nil {
		r.AccRewardPerShare = new(big.Int)
	}
	if r.TotalRewardAccrued == nil {
		r.TotalRewardAccrued = new(big.Int)
	}
	if r.TotalShares == nil {
		r.TotalShares = new(big.Int)
	}
	if r.TotalStaked == nil {
		r.TotalStaked = new(big.Int)
	}
	if r.SharesGenerated == nil {
		r.SharesGenerated = new(big.Int)
	}
	if r.LastUpdate == 0 {
		r.LastUpdate = start
	}
	return r
}

// ReservePuller moves reward budget into engine custody.
type ReservePuller interface {
	Pull(amount *big.Int) error
}

// Service is the window ledger. The context address doubles as the
// engine pool account holding generated-but-unclaimed shares.
type Service struct {
	ctx     *storage.Context
	sched   *schedule.Schedule
	curve   *emission.Curve
	reserve ReservePuller

	windows   *storage.Mapping[storage.Uint64Key, *Record]
	cursor    *storage.Uint64
	forfeited *storage.Uint256
	pulled    *storage.Uint256
}

func New(ctx *storage.Context, sched *schedule.Schedule, curve *emission.Curve, reserve ReservePuller) *Service {
	return &Service{
		ctx:       ctx,
		sched:     sched,
		curve:     curve,
		reserve:   reserve,
		windows:   storage.NewMapping[storage.Uint64Key, *Record](ctx, slotWindows),
		cursor:    storage.NewUint64(ctx, slotCursor),
		forfeited: storage.NewUint256(ctx, slotForfeited),
		pulled:    storage.NewUint256(ctx, slotPulled),
	}
}

// Terminal returns the cursor's terminal value N.
func (s *Service) Terminal() uint32 {
	return s.sched.Windows()
}

// Cursor returns the highest window index rolled forward so far. The
// terminal value N means all windows are closed.
func (s *Service) Cursor() (uint32, error) {
	c, err := s.cursor.Get()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get window cursor")
	}
	return uint32(c), nil
}

// Get returns the (normalized) record of window i.
func (s *Service) Get(i uint32) (*Record, error) {
	rec, err := s.windows.Get(storage.Uint64Key(i))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get window")
	}
	return rec.norm(s.sched.Boundary(i)), nil
}

func (s *Service) save(i uint32, rec *Record) error {
	return errors.Wrap(s.windows.Set(storage.Uint64Key(i), rec), "failed to save window")
}

// Forfeited returns the total emission lapsed in zero-share spans.
func (s *Service) Forfeited() (*big.Int, error) {
	v, err := s.forfeited.Get()
	return v, errors.Wrap(err, "failed to get forfeited total")
}

// Pulled returns the total reward pulled from the reserve.
func (s *Service) Pulled() (*big.Int, error) {
	v, err := s.pulled.Get()
	return v, errors.Wrap(err, "failed to get pulled total")
}

// AdvanceTo rolls the ledger forward to the target window and accrues
// the target window up to now. Idempotent: repeating the call with the
// same arguments changes nothing. Callers wrap it in a state
// checkpoint so a failed reserve pull aborts the whole pass.
func (s *Service) AdvanceTo(target uint32, now uint64) error {
	terminal := s.Terminal()
	if target > terminal {
		target = terminal
	}
	cur, err := s.Cursor()
	if err != nil {
		return err
	}
	if cur >= terminal || target < cur {
		return nil
	}

	for i := cur; i < target; i++ {
		if err := s.close(i); err != nil {
			return err
		}
	}
	if cur != target {
		s.cursor.Set(uint64(target))
	}

	if target == terminal {
		return nil
	}
	return s.accrue(target, now)
}

// close finishes window i: accrue to its end boundary, convert the
// window's reward into pool shares, pull the reserve, seed window i+1.
func (s *Service) close(i uint32) error {
	rec, err := s.Get(i)
	if err != nil {
		return err
	}
	end := s.sched.Boundary(i + 1)

	accrued := s.curve.Between(rec.LastUpdate, end)
	if rec.TotalShares.Sign() > 0 {
		// per-share update strictly before any share conversion
		rec.AccRewardPerShare = new(big.Int).Add(rec.AccRewardPerShare, shares.AccRewardPerShare(accrued, rec.TotalShares))
		rec.TotalRewardAccrued = new(big.Int).Add(rec.TotalRewardAccrued, accrued)
	} else if accrued.Sign() > 0 {
		if err := s.forfeited.Add(accrued); err != nil {
			return errors.Wrap(err, "failed to track forfeited reward")
		}
	}
	rec.LastUpdate = end

	generated := new(big.Int)
	carriedStake := rec.TotalStaked
	if rec.TotalShares.Sign() > 0 {
		if rec.TotalRewardAccrued.Sign() > 0 {
			// exactly one pull per closed window
			if err := s.reserve.Pull(rec.TotalRewardAccrued); err != nil {
				return err
			}
			metricReservePulls().Add(1)
			if err := s.pulled.Add(rec.TotalRewardAccrued); err != nil {
				return errors.Wrap(err, "failed to track pulled reward")
			}
			generated = shares.FromValue(rec.TotalRewardAccrued, rec.TotalShares, rec.TotalStaked)
			rec.SharesGenerated = generated
			if err := s.mintPool(generated); err != nil {
				return err
			}
			carriedStake = new(big.Int).Add(rec.TotalStaked, rec.TotalRewardAccrued)
		}
	} else if rec.TotalRewardAccrued.Sign() > 0 {
		// every holder left before the close; nothing can claim this
		if err := s.forfeited.Add(rec.TotalRewardAccrued); err != nil {
			return errors.Wrap(err, "failed to track forfeited reward")
		}
	}
	if err := s.save(i, rec); err != nil {
		return err
	}

	if i+1 < s.Terminal() {
		next, err := s.Get(i + 1)
		if err != nil {
			return err
		}
		next.TotalShares = new(big.Int).Add(rec.TotalShares, generated)
		next.TotalStaked = carriedStake
		next.LastUpdate = end
		if err := s.save(i+1, next); err != nil {
			return err
		}
	}

	metricWindowsClosed().Add(1)
	logger.Debug("window closed",
		"index", i,
		"accrued", rec.TotalRewardAccrued,
		"generated", generated,
		"shares", rec.TotalShares,
	)
	return nil
}

// accrue advances the open window's high-water mark to now without any
// share conversion.
func (s *Service) accrue(i uint32, now uint64) error {
	rec, err := s.Get(i)
	if err != nil {
		return err
	}
	if now <= rec.LastUpdate {
		return nil
	}
	if end := s.sched.Boundary(i + 1); now >= end {
		// the open window never accrues past its own close
		now = end
	}
	accrued := s.curve.Between(rec.LastUpdate, now)
	if rec.TotalShares.Sign() > 0 {
		rec.AccRewardPerShare = new(big.Int).Add(rec.AccRewardPerShare, shares.AccRewardPerShare(accrued, rec.TotalShares))
		rec.TotalRewardAccrued = new(big.Int).Add(rec.TotalRewardAccrued, accrued)
	} else if accrued.Sign() > 0 {
		if err := s.forfeited.Add(accrued); err != nil {
			return errors.Wrap(err, "failed to track forfeited reward")
		}
	}
	rec.LastUpdate = now
	return s.save(i, rec)
}

// ApplyDelta adjusts the open window's participating totals after a
// deposit, withdrawal or redemption. Deltas may be negative; driving a
// total below zero is an invariant breach, not a user error.
func (s *Service) ApplyDelta(i uint32, dShares, dStaked *big.Int) error {
	rec, err := s.Get(i)
	if err != nil {
		return err
	}
	totalShares := new(big.Int).Add(rec.TotalShares, dShares)
	totalStaked := new(big.Int).Add(rec.TotalStaked, dStaked)
	if totalShares.Sign() < 0 || totalStaked.Sign() < 0 {
		return errors.New("window totals underflow")
	}
	rec.TotalShares = totalShares
	rec.TotalStaked = totalStaked
	return s.save(i, rec)
}

// mintPool credits generated shares to the engine pool account.
func (s *Service) mintPool(amount *big.Int) error {
	st := s.ctx.State()
	pool, err := st.GetShares(s.ctx.Address())
	if err != nil {
		return errors.Wrap(err, "failed to get pool shares")
	}
	return errors.Wrap(st.SetShares(s.ctx.Address(), new(big.Int).Add(pool, amount)), "failed to mint pool shares")
}
