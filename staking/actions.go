// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/BricklayerDAO/mrtr-token/mrtr"
	"github.com/BricklayerDAO/mrtr-token/staking/reverts"
	"github.com/BricklayerDAO/mrtr-token/staking/shares"
)

func validAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return reverts.New("amount must be positive")
	}
	return nil
}

func validParticipant(addr mrtr.Address) error {
	if addr.IsZero() {
		return reverts.New("participant must not be the zero address")
	}
	return nil
}

// Deposit locks assets of underlying value and credits addr with the
// proportional amount of shares, rounded down. The first deposit into
// an empty vault mints shares 1:1.
func (s *Staking) Deposit(addr mrtr.Address, assets *big.Int, now uint64) (*big.Int, error) {
	if err := validParticipant(addr); err != nil {
		return nil, err
	}
	if err := validAmount(assets); err != nil {
		return nil, err
	}
	var minted *big.Int
	err := s.atomically(func() error {
		idx, settled, err := s.prepare(addr, now, true)
		if err != nil {
			return err
		}
		win, err := s.windows.Get(idx)
		if err != nil {
			return err
		}
		if win.TotalShares.Sign() == 0 || win.TotalStaked.Sign() == 0 {
			minted = new(big.Int).Set(assets)
		} else {
			minted = shares.FromValue(assets, win.TotalShares, win.TotalStaked)
		}
		if minted.Sign() == 0 {
			return reverts.New("deposit too small for one share")
		}
		return s.applyStake(addr, idx, settled, minted, assets, now)
	})
	if err != nil {
		return nil, err
	}
	metricActionCount().AddWithLabel(1, map[string]string{"type": "deposit"})
	logger.Info("deposit", "addr", addr, "assets", assets, "shares", minted)
	return minted, nil
}

// Mint credits addr with exactly wantShares, charging the underlying
// value rounded up. The first mint into an empty vault charges 1:1.
func (s *Staking) Mint(addr mrtr.Address, wantShares *big.Int, now uint64) (*big.Int, error) {
	if err := validParticipant(addr); err != nil {
		return nil, err
	}
	if err := validAmount(wantShares); err != nil {
		return nil, err
	}
	var assets *big.Int
	err := s.atomically(func() error {
		idx, settled, err := s.prepare(addr, now, true)
		if err != nil {
			return err
		}
		win, err := s.windows.Get(idx)
		if err != nil {
			return err
		}
		if win.TotalShares.Sign() == 0 || win.TotalStaked.Sign() == 0 {
			assets = new(big.Int).Set(wantShares)
		} else {
			assets = shares.ToValueCeil(wantShares, win.TotalShares, win.TotalStaked)
		}
		return s.applyStake(addr, idx, settled, wantShares, assets, now)
	})
	if err != nil {
		return nil, err
	}
	metricActionCount().AddWithLabel(1, map[string]string{"type": "mint"})
	logger.Info("mint", "addr", addr, "assets", assets, "shares", wantShares)
	return assets, nil
}

// applyStake is the shared back half of Deposit and Mint: custody the
// underlying, mint the shares, grow the open window and checkpoint the
// participant.
func (s *Staking) applyStake(addr mrtr.Address, idx uint32, settled, minted, assets *big.Int, now uint64) error {
	ok, err := s.token.Transfer(addr, mrtr.StakingAddress, assets)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.New("token balance insufficient")
	}
	if err := s.mintShares(addr, minted); err != nil {
		return err
	}
	if err := s.windows.ApplyDelta(idx, minted, assets); err != nil {
		return err
	}
	total := new(big.Int).Add(settled, minted)
	if err := s.parts.UpdateShares(addr, idx, total, now); err != nil {
		return err
	}
	return s.checkpointVotes(addr, idx, total)
}

// Withdraw releases exactly assets of underlying value to addr, burning
// the share amount rounded up.
func (s *Staking) Withdraw(addr mrtr.Address, assets *big.Int, now uint64) (*big.Int, error) {
	if err := validParticipant(addr); err != nil {
		return nil, err
	}
	if err := validAmount(assets); err != nil {
		return nil, err
	}
	var burned *big.Int
	err := s.atomically(func() error {
		idx, settled, err := s.prepare(addr, now, true)
		if err != nil {
			return err
		}
		win, err := s.windows.Get(idx)
		if err != nil {
			return err
		}
		burned = shares.FromValueCeil(assets, win.TotalShares, win.TotalStaked)
		if burned.Sign() == 0 {
			return reverts.New("withdrawal too small for one share")
		}
		return s.applyUnstake(addr, idx, settled, burned, assets, now)
	})
	if err != nil {
		return nil, err
	}
	metricActionCount().AddWithLabel(1, map[string]string{"type": "withdraw"})
	logger.Info("withdraw", "addr", addr, "assets", assets, "shares", burned)
	return burned, nil
}

// Redeem burns exactly shareAmount of addr's shares and releases the
// underlying value rounded down.
func (s *Staking) Redeem(addr mrtr.Address, shareAmount *big.Int, now uint64) (*big.Int, error) {
	if err := validParticipant(addr); err != nil {
		return nil, err
	}
	if err := validAmount(shareAmount); err != nil {
		return nil, err
	}
	var assets *big.Int
	err := s.atomically(func() error {
		idx, settled, err := s.prepare(addr, now, true)
		if err != nil {
			return err
		}
		win, err := s.windows.Get(idx)
		if err != nil {
			return err
		}
		assets = shares.ToValue(shareAmount, win.TotalShares, win.TotalStaked)
		return s.applyUnstake(addr, idx, settled, shareAmount, assets, now)
	})
	if err != nil {
		return nil, err
	}
	metricActionCount().AddWithLabel(1, map[string]string{"type": "redeem"})
	logger.Info("redeem", "addr", addr, "assets", assets, "shares", shareAmount)
	return assets, nil
}

// applyUnstake is the shared back half of Withdraw and Redeem.
func (s *Staking) applyUnstake(addr mrtr.Address, idx uint32, settled, burned, assets *big.Int, now uint64) error {
	if settled.Cmp(burned) < 0 {
		return reverts.New("share balance insufficient")
	}
	if err := s.burnShares(addr, burned); err != nil {
		return err
	}
	ok, err := s.token.Transfer(mrtr.StakingAddress, addr, assets)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.New("custody balance insufficient")
	}
	neg := new(big.Int)
	if err := s.windows.ApplyDelta(idx, neg.Neg(burned), new(big.Int).Neg(assets)); err != nil {
		return err
	}
	total := new(big.Int).Sub(settled, burned)
	if err := s.parts.UpdateShares(addr, idx, total, now); err != nil {
		return err
	}
	return s.checkpointVotes(addr, idx, total)
}

// Transfer moves shareAmount of settled shares from one participant to
// another. Both sides are settled first so neither gains nor loses
// accrued reward; window totals are unchanged.
func (s *Staking) Transfer(from, to mrtr.Address, shareAmount *big.Int, now uint64) error {
	if err := validParticipant(from); err != nil {
		return err
	}
	if err := validParticipant(to); err != nil {
		return err
	}
	if from == to {
		return reverts.New("transfer to self")
	}
	if err := validAmount(shareAmount); err != nil {
		return err
	}
	err := s.atomically(func() error {
		idx, settledFrom, err := s.prepare(from, now, true)
		if err != nil {
			return err
		}
		// The window cursor is already rolled; settling the
		// receiver repeats the front half without re-advancing.
		_, settledTo, err := s.prepare(to, now, true)
		if err != nil {
			return err
		}
		if settledFrom.Cmp(shareAmount) < 0 {
			return reverts.New("share balance insufficient")
		}
		if err := s.moveShares(from, to, shareAmount); err != nil {
			return err
		}
		nextFrom := new(big.Int).Sub(settledFrom, shareAmount)
		nextTo := new(big.Int).Add(settledTo, shareAmount)
		if err := s.parts.UpdateShares(from, idx, nextFrom, now); err != nil {
			return err
		}
		if err := s.parts.UpdateShares(to, idx, nextTo, now); err != nil {
			return err
		}
		if err := s.checkpointVotes(from, idx, nextFrom); err != nil {
			return err
		}
		return s.checkpointVotes(to, idx, nextTo)
	})
	if err != nil {
		return err
	}
	metricActionCount().AddWithLabel(1, map[string]string{"type": "transfer"})
	logger.Info("transfer", "from", from, "to", to, "shares", shareAmount)
	return nil
}

// Claim settles addr through the current time and returns the settled
// share balance. Claims are settlement-only: they stay available after
// the staking period ends and while the ledger is paused.
func (s *Staking) Claim(addr mrtr.Address, now uint64) (*big.Int, error) {
	if err := validParticipant(addr); err != nil {
		return nil, err
	}
	var settled *big.Int
	err := s.atomically(func() error {
		target, out, err := s.prepare(addr, now, false)
		if err != nil {
			return err
		}
		settled = out
		return s.checkpointVotes(addr, target, settled)
	})
	if err != nil {
		return nil, err
	}
	metricActionCount().AddWithLabel(1, map[string]string{"type": "claim"})
	logger.Info("claim", "addr", addr, "shares", settled)
	return settled, nil
}

// Preview returns the share balance addr would hold after settling at
// now, without mutating the ledger.
func (s *Staking) Preview(addr mrtr.Address, now uint64) (*big.Int, error) {
	cp := s.state.NewCheckpoint()
	defer s.state.RevertTo(cp)
	_, settled, err := s.prepare(addr, now, false)
	if err != nil {
		return nil, err
	}
	return settled, nil
}

// TopUpReserve moves amount from the caller into the reward reserve.
// Restricted to the treasurer role.
func (s *Staking) TopUpReserve(caller mrtr.Address, amount *big.Int) error {
	if err := s.auth.RequireTreasurer(caller); err != nil {
		return err
	}
	err := s.atomically(func() error {
		return s.reserve.TopUp(caller, amount)
	})
	if err != nil {
		return err
	}
	metricActionCount().AddWithLabel(1, map[string]string{"type": "topup"})
	return nil
}

// SetPaused flips the emergency pause. Restricted to the owner role.
func (s *Staking) SetPaused(caller mrtr.Address, paused bool) error {
	if err := s.auth.SetPaused(caller, paused); err != nil {
		return err
	}
	logger.Info("pause flag changed", "paused", paused)
	return nil
}
