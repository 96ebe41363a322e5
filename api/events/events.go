// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/BricklayerDAO/mrtr-token/api/utils"
	"github.com/BricklayerDAO/mrtr-token/eventdb"
	"github.com/BricklayerDAO/mrtr-token/mrtr"
)

// EventFilter is the wire form of an event journal query.
type EventFilter struct {
	Address *mrtr.Address     `json:"address"`
	Actions []eventdb.Action  `json:"actions"`
	Window  *uint32           `json:"window"`
	Range   *eventdb.Range    `json:"range"`
	Options *eventdb.Options  `json:"options"`
	Order   eventdb.OrderType `json:"order"`
}

// EventResponse is one journaled event.
type EventResponse struct {
	Sequence     uint64                `json:"sequence"`
	Timestamp    uint64                `json:"timestamp"`
	Window       uint32                `json:"window"`
	Action       eventdb.Action        `json:"action"`
	Address      mrtr.Address          `json:"address"`
	Counterparty *mrtr.Address         `json:"counterparty,omitempty"`
	Shares       *math.HexOrDecimal256 `json:"shares"`
	Assets       *math.HexOrDecimal256 `json:"assets"`
}

// ConvertEvent converts a journal row to its wire form.
func ConvertEvent(ev *eventdb.Event) *EventResponse {
	return &EventResponse{
		Sequence:     ev.Sequence,
		Timestamp:    ev.Timestamp,
		Window:       ev.Window,
		Action:       ev.Action,
		Address:      ev.Address,
		Counterparty: ev.Counterparty,
		Shares:       (*math.HexOrDecimal256)(ev.Shares),
		Assets:       (*math.HexOrDecimal256)(ev.Assets),
	}
}

// Events serves filtered reads of the event journal.
type Events struct {
	db    *eventdb.EventDB
	limit uint64
}

func New(db *eventdb.EventDB, limit uint64) *Events {
	return &Events{db, limit}
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	var filter EventFilter
	if err := utils.ParseJSON(req.Body, &filter); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if filter.Options != nil && filter.Options.Limit > e.limit {
		return utils.Forbidden(fmt.Errorf("options.limit exceeds the maximum allowed value of %d", e.limit))
	}
	if filter.Options == nil {
		filter.Options = &eventdb.Options{Limit: e.limit}
	}
	events, err := e.db.Filter(req.Context(), &eventdb.Filter{
		Address: filter.Address,
		Actions: filter.Actions,
		Window:  filter.Window,
		Range:   filter.Range,
		Options: filter.Options,
		Order:   filter.Order,
	})
	if err != nil {
		return err
	}
	out := make([]*EventResponse, len(events))
	for i, ev := range events {
		out[i] = ConvertEvent(ev)
	}
	return utils.WriteJSON(w, out)
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /events").
		HandlerFunc(utils.WrapHandlerFunc(e.handleFilter))
}
