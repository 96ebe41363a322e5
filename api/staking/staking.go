// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/BricklayerDAO/mrtr-token/api/utils"
	"github.com/BricklayerDAO/mrtr-token/node"
	"github.com/BricklayerDAO/mrtr-token/staking/reverts"
)

// Staking exposes the ledger's staking actions and views over HTTP.
type Staking struct {
	ledger *node.Ledger
}

func New(ledger *node.Ledger) *Staking {
	return &Staking{ledger}
}

// asHTTPError maps reverts to client errors: role checks become 403,
// everything else a revert produces is a 400. Non-revert errors pass
// through and surface as 500.
func asHTTPError(err error) error {
	if err == nil || !reverts.IsRevertErr(err) {
		return err
	}
	if strings.Contains(err.Error(), "caller is not") {
		return utils.Forbidden(err)
	}
	return utils.BadRequest(err)
}

func (s *Staking) handleDeposit(w http.ResponseWriter, req *http.Request) error {
	var dr DepositRequest
	if err := utils.ParseJSON(req.Body, &dr); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	minted, err := s.ledger.Deposit(dr.Address, (*big.Int)(dr.Amount))
	if err != nil {
		return asHTTPError(err)
	}
	return utils.WriteJSON(w, &ActionResponse{Shares: hex(minted), Assets: dr.Amount})
}

func (s *Staking) handleMint(w http.ResponseWriter, req *http.Request) error {
	var dr DepositRequest
	if err := utils.ParseJSON(req.Body, &dr); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	assets, err := s.ledger.Mint(dr.Address, (*big.Int)(dr.Amount))
	if err != nil {
		return asHTTPError(err)
	}
	return utils.WriteJSON(w, &ActionResponse{Shares: dr.Amount, Assets: hex(assets)})
}

func (s *Staking) handleWithdraw(w http.ResponseWriter, req *http.Request) error {
	var wr WithdrawRequest
	if err := utils.ParseJSON(req.Body, &wr); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	burned, err := s.ledger.Withdraw(wr.Address, (*big.Int)(wr.Amount))
	if err != nil {
		return asHTTPError(err)
	}
	return utils.WriteJSON(w, &ActionResponse{Shares: hex(burned), Assets: wr.Amount})
}

func (s *Staking) handleRedeem(w http.ResponseWriter, req *http.Request) error {
	var wr WithdrawRequest
	if err := utils.ParseJSON(req.Body, &wr); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	assets, err := s.ledger.Redeem(wr.Address, (*big.Int)(wr.Amount))
	if err != nil {
		return asHTTPError(err)
	}
	return utils.WriteJSON(w, &ActionResponse{Shares: wr.Amount, Assets: hex(assets)})
}

func (s *Staking) handleTransfer(w http.ResponseWriter, req *http.Request) error {
	var tr TransferRequest
	if err := utils.ParseJSON(req.Body, &tr); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := s.ledger.Transfer(tr.From, tr.To, (*big.Int)(tr.Shares)); err != nil {
		return asHTTPError(err)
	}
	return utils.WriteJSON(w, &ActionResponse{Shares: tr.Shares, Assets: hex(new(big.Int))})
}

func (s *Staking) handleClaim(w http.ResponseWriter, req *http.Request) error {
	var cr ClaimRequest
	if err := utils.ParseJSON(req.Body, &cr); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	settled, err := s.ledger.Claim(cr.Address)
	if err != nil {
		return asHTTPError(err)
	}
	return utils.WriteJSON(w, &ActionResponse{Shares: hex(settled), Assets: hex(new(big.Int))})
}

func (s *Staking) handlePause(w http.ResponseWriter, req *http.Request) error {
	var pr PauseRequest
	if err := utils.ParseJSON(req.Body, &pr); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := s.ledger.SetPaused(pr.Caller, pr.Paused); err != nil {
		return asHTTPError(err)
	}
	return utils.WriteJSON(w, &utils.M{"paused": pr.Paused})
}

func (s *Staking) handleStatus(w http.ResponseWriter, _ *http.Request) error {
	status, err := s.ledger.Status()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, statusResponse(status))
}

func (s *Staking) handleWindow(w http.ResponseWriter, req *http.Request) error {
	index, err := strconv.ParseUint(mux.Vars(req)["index"], 10, 32)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "index"))
	}
	rec, err := s.ledger.Window(uint32(index))
	if err != nil {
		return utils.BadRequest(err)
	}
	sched := s.ledger.Schedule()
	return utils.WriteJSON(w, &WindowResponse{
		Index:              uint32(index),
		Start:              sched.Boundary(uint32(index)),
		End:                sched.Boundary(uint32(index) + 1),
		AccRewardPerShare:  hex(rec.AccRewardPerShare),
		LastUpdate:         rec.LastUpdate,
		TotalRewardAccrued: hex(rec.TotalRewardAccrued),
		TotalShares:        hex(rec.TotalShares),
		TotalStaked:        hex(rec.TotalStaked),
		SharesGenerated:    hex(rec.SharesGenerated),
	})
}

func (s *Staking) handleSchedule(w http.ResponseWriter, _ *http.Request) error {
	sched := s.ledger.Schedule()
	return utils.WriteJSON(w, &ScheduleResponse{
		Windows:    sched.Windows(),
		Boundaries: sched.Boundaries(),
	})
}

func (s *Staking) handleReserve(w http.ResponseWriter, _ *http.Request) error {
	addr, balance, err := s.ledger.Reserve()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &ReserveResponse{Address: addr, Balance: hex(balance)})
}

func (s *Staking) handleTopUp(w http.ResponseWriter, req *http.Request) error {
	var tr TopUpRequest
	if err := utils.ParseJSON(req.Body, &tr); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := s.ledger.TopUpReserve(tr.Caller, (*big.Int)(tr.Amount)); err != nil {
		return asHTTPError(err)
	}
	return utils.WriteJSON(w, &ActionResponse{Shares: hex(new(big.Int)), Assets: tr.Amount})
}

func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/deposits").
		Methods(http.MethodPost).
		Name("POST /staking/deposits").
		HandlerFunc(utils.WrapHandlerFunc(s.handleDeposit))
	sub.Path("/mints").
		Methods(http.MethodPost).
		Name("POST /staking/mints").
		HandlerFunc(utils.WrapHandlerFunc(s.handleMint))
	sub.Path("/withdrawals").
		Methods(http.MethodPost).
		Name("POST /staking/withdrawals").
		HandlerFunc(utils.WrapHandlerFunc(s.handleWithdraw))
	sub.Path("/redemptions").
		Methods(http.MethodPost).
		Name("POST /staking/redemptions").
		HandlerFunc(utils.WrapHandlerFunc(s.handleRedeem))
	sub.Path("/transfers").
		Methods(http.MethodPost).
		Name("POST /staking/transfers").
		HandlerFunc(utils.WrapHandlerFunc(s.handleTransfer))
	sub.Path("/claims").
		Methods(http.MethodPost).
		Name("POST /staking/claims").
		HandlerFunc(utils.WrapHandlerFunc(s.handleClaim))
	sub.Path("/pause").
		Methods(http.MethodPost).
		Name("POST /staking/pause").
		HandlerFunc(utils.WrapHandlerFunc(s.handlePause))
	sub.Path("/status").
		Methods(http.MethodGet).
		Name("GET /staking/status").
		HandlerFunc(utils.WrapHandlerFunc(s.handleStatus))
	sub.Path("/windows/{index}").
		Methods(http.MethodGet).
		Name("GET /staking/windows/{index}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleWindow))
	sub.Path("/schedule").
		Methods(http.MethodGet).
		Name("GET /staking/schedule").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSchedule))
	sub.Path("/reserve").
		Methods(http.MethodGet).
		Name("GET /staking/reserve").
		HandlerFunc(utils.WrapHandlerFunc(s.handleReserve))
	sub.Path("/reserve/topups").
		Methods(http.MethodPost).
		Name("POST /staking/reserve/topups").
		HandlerFunc(utils.WrapHandlerFunc(s.handleTopUp))
}
