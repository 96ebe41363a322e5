// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package participant implements the per-participant ledger and its
// settlement sweep. A participant's reward for each closed window is
// converted into claim-shares drawn from the engine pool; records are
// folded forward and cleared as the sweep passes through them.
package participant

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"

	"github.com/BricklayerDAO/mrtr-token/log"
	"github.com/BricklayerDAO/mrtr-token/mrtr"
	"github.com/BricklayerDAO/mrtr-token/staking/shares"
	"github.com/BricklayerDAO/mrtr-token/staking/window"
	"github.com/BricklayerDAO/mrtr-token/storage"
)

var logger = log.WithContext("pkg", "participant")

var (
	slotRecords = storage.NameToSlot("participants")
	slotCursors = storage.NameToSlot("participant-cursors")
)

// Record is the ledger entry of one (participant, window) pair.
// RewardDebt is a checkpoint, not an independent quantity: it always
// equals shares * accRewardPerShare / PRECISION as of the last write.
// RewardAccrued stashes pending reward whenever the share balance
// changes mid-window.
type Record struct {
	Shares        *big.Int
	RewardAccrued *big.Int
	RewardDebt    *big.Int
	LastUpdate    uint64
}

func (r *Record) norm() *Record {
	if r.Shares == nil {
		r.Shares = new(big.Int)
	}
	if r.RewardAccrued == nil {
		r.RewardAccrued = new(big.Int)
	}
	if r.RewardDebt == nil {
		r.RewardDebt = new(big.Int)
	}
	return r
}

// recordKey addresses one (participant, window) pair.
type recordKey struct {
	addr  mrtr.Address
	index uint32
}

func (k recordKey) Bytes() []byte {
	b := make([]byte, 0, len(k.addr)+4)
	b = append(b, k.addr[:]...)
	return binary.BigEndian.AppendUint32(b, k.index)
}

// Service is the participant ledger. The context address is the engine
// pool account that settlement claims shares from.
type Service struct {
	ctx     *storage.Context
	windows *window.Service
	records *storage.Mapping[recordKey, *Record]
	cursors *storage.Mapping[mrtr.Address, uint64]
}

func New(ctx *storage.Context, windows *window.Service) *Service {
	return &Service{
		ctx:     ctx,
		windows: windows,
		records: storage.NewMapping[recordKey, *Record](ctx, slotRecords),
		cursors: storage.NewMapping[mrtr.Address, uint64](ctx, slotCursors),
	}
}

// Cursor returns the participant's settled-through window and whether
// the participant has ever been settled.
func (s *Service) Cursor(addr mrtr.Address) (uint32, bool, error) {
	has, err := s.cursors.Has(addr)
	if err != nil {
		return 0, false, errors.Wrap(err, "failed to probe participant cursor")
	}
	if !has {
		return 0, false, nil
	}
	c, err := s.cursors.Get(addr)
	if err != nil {
		return 0, false, errors.Wrap(err, "failed to get participant cursor")
	}
	return uint32(c), true, nil
}

// Get returns the (normalized) record of addr at window i.
func (s *Service) Get(addr mrtr.Address, i uint32) (*Record, error) {
	rec, err := s.records.Get(recordKey{addr, i})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get participant record")
	}
	return rec.norm(), nil
}

func (s *Service) save(addr mrtr.Address, i uint32, rec *Record) error {
	return errors.Wrap(s.records.Set(recordKey{addr, i}, rec), "failed to save participant record")
}

// Settle brings addr's cursor up to the through window, converting
// every elapsed window's pending reward into shares claimed from the
// pool. It returns the settled share balance. Must run after the
// window ledger has advanced at least that far. Settling twice in
// succession is a no-op the second time.
func (s *Service) Settle(addr mrtr.Address, through uint32, now uint64) (*big.Int, error) {
	terminal := s.windows.Terminal()
	if through > terminal {
		through = terminal
	}

	cur, has, err := s.Cursor(addr)
	if err != nil {
		return nil, err
	}
	if has && cur == terminal {
		// permanently settled; cleared records must not be reread
		return s.ctx.State().GetShares(addr)
	}

	from := through
	if has {
		if cur > through {
			return nil, errors.New("participant cursor ahead of window cursor")
		}
		from = cur
	}

	rec, err := s.Get(addr, from)
	if err != nil {
		return nil, err
	}
	held := rec.Shares

	swept := 0
	for i := from; i < through; i++ {
		rec, err := s.Get(addr, i)
		if err != nil {
			return nil, err
		}
		win, err := s.windows.Get(i)
		if err != nil {
			return nil, err
		}
		accumulated := shares.Accumulated(held, win.AccRewardPerShare)
		pending := new(big.Int).Add(rec.RewardAccrued, accumulated)
		pending.Sub(pending, rec.RewardDebt)
		if pending.Sign() > 0 {
			delta := shares.FromValue(pending, win.TotalShares, win.TotalStaked)
			if delta.Sign() > 0 {
				if err := s.claimPool(addr, delta); err != nil {
					return nil, err
				}
				held = new(big.Int).Add(held, delta)
			}
		}
		s.records.Delete(recordKey{addr, i})
		swept++
	}

	if through == terminal {
		// terminal sentinel only; no record exists at index N
		if err := s.setCursor(addr, terminal); err != nil {
			return nil, err
		}
		if swept > 0 {
			logger.Debug("participant terminally settled", "addr", addr, "windows", swept, "shares", held)
		}
		return held, nil
	}

	win, err := s.windows.Get(through)
	if err != nil {
		return nil, err
	}
	out, err := s.Get(addr, through)
	if err != nil {
		return nil, err
	}
	accumulated := shares.Accumulated(held, win.AccRewardPerShare)
	out.RewardAccrued = new(big.Int).Add(out.RewardAccrued, accumulated)
	out.RewardAccrued.Sub(out.RewardAccrued, out.RewardDebt)
	out.RewardDebt = accumulated
	out.Shares = held
	out.LastUpdate = now
	if err := s.save(addr, through, out); err != nil {
		return nil, err
	}
	if err := s.setCursor(addr, through); err != nil {
		return nil, err
	}
	return held, nil
}

// UpdateShares rewrites addr's record at window i after a balance
// mutation, re-deriving the reward-debt checkpoint from the new share
// total. Settle must have run for the same window first.
func (s *Service) UpdateShares(addr mrtr.Address, i uint32, newShares *big.Int, now uint64) error {
	rec, err := s.Get(addr, i)
	if err != nil {
		return err
	}
	win, err := s.windows.Get(i)
	if err != nil {
		return err
	}
	rec.Shares = new(big.Int).Set(newShares)
	rec.RewardDebt = shares.Accumulated(newShares, win.AccRewardPerShare)
	rec.LastUpdate = now
	return s.save(addr, i, rec)
}

func (s *Service) setCursor(addr mrtr.Address, i uint32) error {
	return errors.Wrap(s.cursors.Set(addr, uint64(i)), "failed to save participant cursor")
}

// claimPool moves settled shares from the engine pool to addr.
func (s *Service) claimPool(addr mrtr.Address, amount *big.Int) error {
	st := s.ctx.State()
	pool, err := st.GetShares(s.ctx.Address())
	if err != nil {
		return errors.Wrap(err, "failed to get pool shares")
	}
	if pool.Cmp(amount) < 0 {
		return errors.New("engine pool underflow")
	}
	if err := st.SetShares(s.ctx.Address(), new(big.Int).Sub(pool, amount)); err != nil {
		return errors.Wrap(err, "failed to debit pool shares")
	}
	bal, err := st.GetShares(addr)
	if err != nil {
		return errors.Wrap(err, "failed to get participant shares")
	}
	return errors.Wrap(st.SetShares(addr, new(big.Int).Add(bal, amount)), "failed to credit participant shares")
}
