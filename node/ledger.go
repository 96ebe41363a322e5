// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package node hosts the running ledger: one persistent state, the
// staking facade over it, and the event journal. All writes are
// serialized behind one mutex; reads run against the committed state.
package node

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/BricklayerDAO/mrtr-token/cache"
	"github.com/BricklayerDAO/mrtr-token/eventdb"
	"github.com/BricklayerDAO/mrtr-token/genesis"
	"github.com/BricklayerDAO/mrtr-token/kv"
	"github.com/BricklayerDAO/mrtr-token/log"
	"github.com/BricklayerDAO/mrtr-token/mrtr"
	"github.com/BricklayerDAO/mrtr-token/staking"
	"github.com/BricklayerDAO/mrtr-token/staking/emission"
	"github.com/BricklayerDAO/mrtr-token/staking/schedule"
	"github.com/BricklayerDAO/mrtr-token/staking/window"
	"github.com/BricklayerDAO/mrtr-token/state"
)

var logger = log.WithContext("pkg", "node")

var keyGenesisID = []byte("mrtr-genesis-id")

// Ledger is the running ledger service.
type Ledger struct {
	mu         sync.Mutex
	stater     *state.Stater
	gene       *genesis.Genesis
	sched      *schedule.Schedule
	curve      *emission.Curve
	events     *eventdb.EventDB
	now        func() uint64
	closedWins *cache.LRU // records behind the cursor, final
}

// New opens (or initializes) the ledger over the given store. The
// event journal is optional. A nil clock means wall time.
func New(store kv.Store, gene *genesis.Genesis, events *eventdb.EventDB, clock func() uint64) (*Ledger, error) {
	sched, err := gene.Schedule()
	if err != nil {
		return nil, errors.Wrap(err, "invalid genesis schedule")
	}
	curve, err := gene.Curve()
	if err != nil {
		return nil, errors.Wrap(err, "invalid genesis emission curve")
	}
	stater := state.NewStater(store, 0)

	id, err := gene.ID()
	if err != nil {
		return nil, err
	}
	have, err := store.Has(keyGenesisID)
	if err != nil {
		return nil, errors.Wrap(err, "probe genesis marker")
	}
	if !have {
		if _, err := gene.Build(stater); err != nil {
			return nil, errors.Wrap(err, "build genesis state")
		}
		if err := store.Put(keyGenesisID, id.Bytes()); err != nil {
			return nil, errors.Wrap(err, "save genesis marker")
		}
		logger.Info("initialized ledger", "network", gene.Name(), "genesis", id)
	} else {
		saved, err := store.Get(keyGenesisID)
		if err != nil {
			return nil, errors.Wrap(err, "load genesis marker")
		}
		if mrtr.BytesToBytes32(saved) != id {
			return nil, errors.New("store was initialized for a different genesis")
		}
	}

	if clock == nil {
		clock = func() uint64 { return uint64(time.Now().Unix()) }
	}
	closedWins, err := cache.NewLRU(256)
	if err != nil {
		return nil, err
	}
	return &Ledger{
		stater:     stater,
		gene:       gene,
		sched:      sched,
		curve:      curve,
		events:     events,
		now:        clock,
		closedWins: closedWins,
	}, nil
}

// Genesis returns the network's genesis.
func (l *Ledger) Genesis() *genesis.Genesis { return l.gene }

// Schedule returns the window schedule.
func (l *Ledger) Schedule() *schedule.Schedule { return l.sched }

// EventDB returns the event journal, possibly nil.
func (l *Ledger) EventDB() *eventdb.EventDB { return l.events }

// snapshot returns a fresh facade over the committed state. The state
// is private to the caller; uncommitted mutations are discarded.
func (l *Ledger) snapshot() *staking.Staking {
	return staking.New(l.stater.NewState(), l.sched, l.curve)
}

// write runs one action against a fresh state, commits on success and
// journals the emitted events. The journal is observational: a journal
// failure is logged, never surfaced.
func (l *Ledger) write(fn func(stk *staking.Staking, now uint64) ([]*eventdb.Event, error)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := l.stater.NewState()
	stk := staking.New(st, l.sched, l.curve)
	now := l.now()

	before, err := stk.Windows().Cursor()
	if err != nil {
		return err
	}
	events, err := fn(stk, now)
	if err != nil {
		return err
	}
	stage, err := st.Stage()
	if err != nil {
		return err
	}
	if _, err := stage.Commit(); err != nil {
		return err
	}

	if l.events != nil {
		closed, err := closedEvents(stk, before, now)
		if err == nil {
			events = append(closed, events...)
		}
		if err := l.events.Log(context.Background(), events); err != nil {
			logger.Warn("failed to journal events", "err", err)
		}
	}
	return nil
}

// closedEvents builds one journal entry per window the action closed.
func closedEvents(stk *staking.Staking, before uint32, now uint64) ([]*eventdb.Event, error) {
	after, err := stk.Windows().Cursor()
	if err != nil {
		return nil, err
	}
	var events []*eventdb.Event
	for i := before; i < after; i++ {
		rec, err := stk.Windows().Get(i)
		if err != nil {
			return nil, err
		}
		events = append(events, &eventdb.Event{
			Timestamp: now,
			Window:    i,
			Action:    eventdb.ActionWindowClosed,
			Address:   mrtr.StakingAddress,
			Shares:    rec.SharesGenerated,
			Assets:    rec.TotalRewardAccrued,
		})
	}
	return events, nil
}

func (l *Ledger) currentWindow(now uint64) uint32 {
	_, idx, _, _ := l.sched.Locate(now)
	return idx
}

// Deposit locks assets for addr and returns the shares minted.
func (l *Ledger) Deposit(addr mrtr.Address, assets *big.Int) (minted *big.Int, err error) {
	err = l.write(func(stk *staking.Staking, now uint64) ([]*eventdb.Event, error) {
		out, err := stk.Deposit(addr, assets, now)
		if err != nil {
			return nil, err
		}
		minted = out
		return []*eventdb.Event{{
			Timestamp: now, Window: l.currentWindow(now),
			Action: eventdb.ActionDeposit, Address: addr,
			Shares: out, Assets: assets,
		}}, nil
	})
	return
}

// Mint buys exactly the given shares for addr and returns the assets charged.
func (l *Ledger) Mint(addr mrtr.Address, shares *big.Int) (assets *big.Int, err error) {
	err = l.write(func(stk *staking.Staking, now uint64) ([]*eventdb.Event, error) {
		out, err := stk.Mint(addr, shares, now)
		if err != nil {
			return nil, err
		}
		assets = out
		return []*eventdb.Event{{
			Timestamp: now, Window: l.currentWindow(now),
			Action: eventdb.ActionMint, Address: addr,
			Shares: shares, Assets: out,
		}}, nil
	})
	return
}

// Withdraw releases exactly assets to addr and returns the shares burned.
func (l *Ledger) Withdraw(addr mrtr.Address, assets *big.Int) (burned *big.Int, err error) {
	err = l.write(func(stk *staking.Staking, now uint64) ([]*eventdb.Event, error) {
		out, err := stk.Withdraw(addr, assets, now)
		if err != nil {
			return nil, err
		}
		burned = out
		return []*eventdb.Event{{
			Timestamp: now, Window: l.currentWindow(now),
			Action: eventdb.ActionWithdraw, Address: addr,
			Shares: out, Assets: assets,
		}}, nil
	})
	return
}

// Redeem burns exactly the given shares of addr and returns the assets released.
func (l *Ledger) Redeem(addr mrtr.Address, shares *big.Int) (assets *big.Int, err error) {
	err = l.write(func(stk *staking.Staking, now uint64) ([]*eventdb.Event, error) {
		out, err := stk.Redeem(addr, shares, now)
		if err != nil {
			return nil, err
		}
		assets = out
		return []*eventdb.Event{{
			Timestamp: now, Window: l.currentWindow(now),
			Action: eventdb.ActionRedeem, Address: addr,
			Shares: shares, Assets: out,
		}}, nil
	})
	return
}

// Transfer moves settled shares between participants.
func (l *Ledger) Transfer(from, to mrtr.Address, shares *big.Int) error {
	return l.write(func(stk *staking.Staking, now uint64) ([]*eventdb.Event, error) {
		if err := stk.Transfer(from, to, shares, now); err != nil {
			return nil, err
		}
		return []*eventdb.Event{{
			Timestamp: now, Window: l.currentWindow(now),
			Action: eventdb.ActionTransfer, Address: from, Counterparty: &to,
			Shares: shares, Assets: new(big.Int),
		}}, nil
	})
}

// Claim settles addr and returns the settled share balance.
func (l *Ledger) Claim(addr mrtr.Address) (settled *big.Int, err error) {
	err = l.write(func(stk *staking.Staking, now uint64) ([]*eventdb.Event, error) {
		out, err := stk.Claim(addr, now)
		if err != nil {
			return nil, err
		}
		settled = out
		return []*eventdb.Event{{
			Timestamp: now, Window: l.currentWindow(now),
			Action: eventdb.ActionClaim, Address: addr,
			Shares: out, Assets: new(big.Int),
		}}, nil
	})
	return
}

// TopUpReserve moves assets from the caller into the reward reserve.
func (l *Ledger) TopUpReserve(caller mrtr.Address, assets *big.Int) error {
	return l.write(func(stk *staking.Staking, now uint64) ([]*eventdb.Event, error) {
		if err := stk.TopUpReserve(caller, assets); err != nil {
			return nil, err
		}
		return []*eventdb.Event{{
			Timestamp: now, Window: l.currentWindow(now),
			Action: eventdb.ActionTopUp, Address: caller,
			Shares: new(big.Int), Assets: assets,
		}}, nil
	})
}

// SetPaused flips the emergency pause.
func (l *Ledger) SetPaused(caller mrtr.Address, paused bool) error {
	return l.write(func(stk *staking.Staking, _ uint64) ([]*eventdb.Event, error) {
		return nil, stk.SetPaused(caller, paused)
	})
}

// Status is a point-in-time summary of the ledger.
type Status struct {
	Network        string
	Now            uint64
	Cursor         uint32
	Terminal       uint32
	CurrentWindow  *uint32 // nil outside the staking period
	TotalShares    *big.Int
	TotalStaked    *big.Int
	Forfeited      *big.Int
	Pulled         *big.Int
	ReserveBalance *big.Int
	TotalSupply    *big.Int
	Paused         bool
}

// Status summarizes the committed ledger at the current time.
func (l *Ledger) Status() (*Status, error) {
	stk := l.snapshot()
	now := l.now()

	cursor, err := stk.Windows().Cursor()
	if err != nil {
		return nil, err
	}
	win, err := stk.Windows().Get(cursor)
	if err != nil {
		return nil, err
	}
	forfeited, err := stk.Windows().Forfeited()
	if err != nil {
		return nil, err
	}
	pulled, err := stk.Windows().Pulled()
	if err != nil {
		return nil, err
	}
	reserveBal, err := stk.Reserve().Balance()
	if err != nil {
		return nil, err
	}
	supply, err := stk.Token().TotalSupply()
	if err != nil {
		return nil, err
	}
	paused, err := stk.Authority().Paused()
	if err != nil {
		return nil, err
	}

	status := &Status{
		Network:        l.gene.Name(),
		Now:            now,
		Cursor:         cursor,
		Terminal:       stk.Windows().Terminal(),
		TotalShares:    win.TotalShares,
		TotalStaked:    win.TotalStaked,
		Forfeited:      forfeited,
		Pulled:         pulled,
		ReserveBalance: reserveBal,
		TotalSupply:    supply,
		Paused:         paused,
	}
	if valid, idx, _, _ := l.sched.Locate(now); valid {
		status.CurrentWindow = &idx
	}
	return status, nil
}

// Window returns the committed record of one window. Records behind
// the cursor never change again and are served from an LRU cache.
func (l *Ledger) Window(i uint32) (*window.Record, error) {
	if i >= l.sched.Windows() {
		return nil, errors.New("window index out of range")
	}
	stk := l.snapshot()
	cursor, err := stk.Windows().Cursor()
	if err != nil {
		return nil, err
	}
	if i >= cursor {
		return stk.Windows().Get(i)
	}
	rec, err := l.closedWins.GetOrLoad(i, func(any) (any, error) {
		return stk.Windows().Get(i)
	})
	if err != nil {
		return nil, err
	}
	return rec.(*window.Record), nil
}

// Account is the committed view of one participant.
type Account struct {
	Balance *big.Int // underlying tokens
	Shares  *big.Int // settled claim shares
	Settled *big.Int // share balance if settled at the current time
}

// Account reads one participant's balances including a settlement
// preview at the current time.
func (l *Ledger) Account(addr mrtr.Address) (*Account, error) {
	stk := l.snapshot()
	balance, err := stk.Token().BalanceOf(addr)
	if err != nil {
		return nil, err
	}
	shares, err := stk.SharesOf(addr)
	if err != nil {
		return nil, err
	}
	settled, err := stk.Preview(addr, l.now())
	if err != nil {
		// preview can legitimately revert (e.g. underfunded
		// reserve); fall back to the settled balance
		settled = shares
	}
	return &Account{Balance: balance, Shares: shares, Settled: settled}, nil
}

// Reserve reports the reward reserve account and its committed balance.
func (l *Ledger) Reserve() (mrtr.Address, *big.Int, error) {
	stk := l.snapshot()
	addr, err := stk.Reserve().Address()
	if err != nil {
		return mrtr.Address{}, nil, err
	}
	balance, err := stk.Reserve().Balance()
	if err != nil {
		return mrtr.Address{}, nil, err
	}
	return addr, balance, nil
}

// WeightAt returns addr's vote weight as of the given window.
func (l *Ledger) WeightAt(addr mrtr.Address, window uint32) (*big.Int, error) {
	return l.snapshot().Votes().WeightAt(addr, window)
}
