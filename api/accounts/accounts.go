// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/BricklayerDAO/mrtr-token/api/utils"
	"github.com/BricklayerDAO/mrtr-token/mrtr"
	"github.com/BricklayerDAO/mrtr-token/node"
)

// AccountResponse is one participant's committed view. Settled is the
// share balance the participant would hold after settling at the
// current time.
type AccountResponse struct {
	Address mrtr.Address          `json:"address"`
	Balance *math.HexOrDecimal256 `json:"balance"`
	Shares  *math.HexOrDecimal256 `json:"shares"`
	Settled *math.HexOrDecimal256 `json:"settled"`
}

// VoteWeightResponse is a participant's checkpointed weight for one window.
type VoteWeightResponse struct {
	Address mrtr.Address          `json:"address"`
	Window  uint32                `json:"window"`
	Weight  *math.HexOrDecimal256 `json:"weight"`
}

// Accounts exposes participant balances and vote weights over HTTP.
type Accounts struct {
	ledger *node.Ledger
}

func New(ledger *node.Ledger) *Accounts {
	return &Accounts{ledger}
}

func (a *Accounts) parseAddress(req *http.Request) (mrtr.Address, error) {
	addr, err := mrtr.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return mrtr.Address{}, utils.BadRequest(errors.WithMessage(err, "address"))
	}
	return *addr, nil
}

func (a *Accounts) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := a.parseAddress(req)
	if err != nil {
		return err
	}
	acc, err := a.ledger.Account(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &AccountResponse{
		Address: addr,
		Balance: (*math.HexOrDecimal256)(acc.Balance),
		Shares:  (*math.HexOrDecimal256)(acc.Shares),
		Settled: (*math.HexOrDecimal256)(acc.Settled),
	})
}

func (a *Accounts) handleGetVoteWeight(w http.ResponseWriter, req *http.Request) error {
	addr, err := a.parseAddress(req)
	if err != nil {
		return err
	}
	window, err := strconv.ParseUint(req.URL.Query().Get("window"), 10, 32)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "window"))
	}
	weight, err := a.ledger.WeightAt(addr, uint32(window))
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &VoteWeightResponse{
		Address: addr,
		Window:  uint32(window),
		Weight:  (*math.HexOrDecimal256)(weight),
	})
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("GET /accounts/{address}").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetAccount))
	sub.Path("/{address}/voteweight").
		Methods(http.MethodGet).
		Name("GET /accounts/{address}/voteweight").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetVoteWeight))
}
