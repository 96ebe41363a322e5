// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/BricklayerDAO/mrtr-token/api/events"
	"github.com/BricklayerDAO/mrtr-token/api/utils"
	"github.com/BricklayerDAO/mrtr-token/eventdb"
	"github.com/BricklayerDAO/mrtr-token/log"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	pollInterval = time.Second
	pollBatch    = 256
)

// Subscriptions streams newly journaled events over websocket. A
// subscriber names the last sequence it has seen via the pos query
// parameter and receives every later event in order.
type Subscriptions struct {
	db       *eventdb.EventDB
	upgrader websocket.Upgrader
	done     chan struct{}
}

func New(db *eventdb.EventDB) *Subscriptions {
	return &Subscriptions{
		db: db,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		done: make(chan struct{}),
	}
}

// Close terminates every active subscription.
func (s *Subscriptions) Close() {
	close(s.done)
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	var pos uint64
	if q := req.URL.Query().Get("pos"); q != "" {
		parsed, err := strconv.ParseUint(q, 10, 64)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "pos"))
		}
		pos = parsed
	}

	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader has already replied to the client
		return nil
	}
	defer conn.Close()

	// the read pump only detects the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return nil
		case <-closed:
			return nil
		case <-ticker.C:
			next, err := s.pump(conn, pos, req)
			if err != nil {
				logger.Debug("subscription ended", "err", err)
				return nil
			}
			pos = next
		}
	}
}

// pump pushes every event past pos to the subscriber and returns the
// new position. Sequences are dense, so the journal offset equals the
// number of already-delivered events.
func (s *Subscriptions) pump(conn *websocket.Conn, pos uint64, req *http.Request) (uint64, error) {
	for {
		batch, err := s.db.Filter(req.Context(), &eventdb.Filter{
			Options: &eventdb.Options{Offset: pos, Limit: pollBatch},
		})
		if err != nil {
			return pos, err
		}
		for _, ev := range batch {
			if err := conn.WriteJSON(events.ConvertEvent(ev)); err != nil {
				return pos, err
			}
			pos = ev.Sequence
		}
		if len(batch) < pollBatch {
			return pos, nil
		}
	}
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/events").
		Methods(http.MethodGet).
		Name("GET /subscriptions/events").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeEvents))
}
