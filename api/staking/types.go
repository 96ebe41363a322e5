// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/BricklayerDAO/mrtr-token/mrtr"
	"github.com/BricklayerDAO/mrtr-token/node"
)

// DepositRequest funds a deposit (exact assets in) or a mint (exact
// shares out).
type DepositRequest struct {
	Address mrtr.Address          `json:"address"`
	Amount  *math.HexOrDecimal256 `json:"amount"`
}

// WithdrawRequest releases exact assets (withdrawal) or burns exact
// shares (redemption).
type WithdrawRequest struct {
	Address mrtr.Address          `json:"address"`
	Amount  *math.HexOrDecimal256 `json:"amount"`
}

// TransferRequest moves settled shares between participants.
type TransferRequest struct {
	From   mrtr.Address          `json:"from"`
	To     mrtr.Address          `json:"to"`
	Shares *math.HexOrDecimal256 `json:"shares"`
}

// ClaimRequest settles a participant.
type ClaimRequest struct {
	Address mrtr.Address `json:"address"`
}

// TopUpRequest moves assets from the caller into the reward reserve.
type TopUpRequest struct {
	Caller mrtr.Address          `json:"caller"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// PauseRequest flips the emergency pause.
type PauseRequest struct {
	Caller mrtr.Address `json:"caller"`
	Paused bool         `json:"paused"`
}

// ActionResponse reports the two sides of a completed action.
type ActionResponse struct {
	Shares *math.HexOrDecimal256 `json:"shares"`
	Assets *math.HexOrDecimal256 `json:"assets"`
}

// StatusResponse summarizes the ledger.
type StatusResponse struct {
	Network        string                `json:"network"`
	Now            uint64                `json:"now"`
	Cursor         uint32                `json:"cursor"`
	Terminal       uint32                `json:"terminal"`
	CurrentWindow  *uint32               `json:"currentWindow"`
	TotalShares    *math.HexOrDecimal256 `json:"totalShares"`
	TotalStaked    *math.HexOrDecimal256 `json:"totalStaked"`
	Forfeited      *math.HexOrDecimal256 `json:"forfeited"`
	Pulled         *math.HexOrDecimal256 `json:"pulled"`
	ReserveBalance *math.HexOrDecimal256 `json:"reserveBalance"`
	TotalSupply    *math.HexOrDecimal256 `json:"totalSupply"`
	Paused         bool                  `json:"paused"`
}

// WindowResponse is the ledger record of one window.
type WindowResponse struct {
	Index              uint32                `json:"index"`
	Start              uint64                `json:"start"`
	End                uint64                `json:"end"`
	AccRewardPerShare  *math.HexOrDecimal256 `json:"accRewardPerShare"`
	LastUpdate         uint64                `json:"lastUpdate"`
	TotalRewardAccrued *math.HexOrDecimal256 `json:"totalRewardAccrued"`
	TotalShares        *math.HexOrDecimal256 `json:"totalShares"`
	TotalStaked        *math.HexOrDecimal256 `json:"totalStaked"`
	SharesGenerated    *math.HexOrDecimal256 `json:"sharesGenerated"`
}

// ScheduleResponse is the window calendar.
type ScheduleResponse struct {
	Windows    uint32   `json:"windows"`
	Boundaries []uint64 `json:"boundaries"`
}

// ReserveResponse is the reward reserve view.
type ReserveResponse struct {
	Address mrtr.Address          `json:"address"`
	Balance *math.HexOrDecimal256 `json:"balance"`
}

func hex(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		return nil
	}
	return (*math.HexOrDecimal256)(v)
}

func statusResponse(s *node.Status) *StatusResponse {
	return &StatusResponse{
		Network:        s.Network,
		Now:            s.Now,
		Cursor:         s.Cursor,
		Terminal:       s.Terminal,
		CurrentWindow:  s.CurrentWindow,
		TotalShares:    hex(s.TotalShares),
		TotalStaked:    hex(s.TotalStaked),
		Forfeited:      hex(s.Forfeited),
		Pulled:         hex(s.Pulled),
		ReserveBalance: hex(s.ReserveBalance),
		TotalSupply:    hex(s.TotalSupply),
		Paused:         s.Paused,
	}
}
