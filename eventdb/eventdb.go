// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventdb journals ledger events into sqlite for queries and
// audit. The journal is append-only and strictly downstream of the
// state: losing it never affects balances.
package eventdb

import (
	"context"
	"database/sql"
	"math/big"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/BricklayerDAO/mrtr-token/mrtr"
)

const eventTableSchema = `
create table if not exists event (
	seq integer primary key autoincrement,
	ts integer not null,
	windowIndex integer not null,
	action text not null,
	addr blob not null,
	counterparty blob,
	shares text not null,
	assets text not null
);

CREATE INDEX if not exists eventAddrIndex on event(addr);
CREATE INDEX if not exists eventActionIndex on event(action);
CREATE INDEX if not exists eventWindowIndex on event(windowIndex);
`

type EventDB struct {
	path          string
	db            *sql.DB
	driverVersion string
	stmtCache     *stmtCache
}

// New creates or opens the event journal at the given path.
func New(path string) (eventDB *EventDB, err error) {
	dsn := path + "?_journal_mode=wal&_synchronous=normal"
	if strings.Contains(path, "?") {
		dsn = path + "&_journal_mode=wal&_synchronous=normal"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	defer func() {
		if eventDB == nil {
			db.Close()
		}
	}()
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, err
	}

	driverVer, _, _ := sqlite3.Version()
	return &EventDB{
		path:          path,
		db:            db,
		driverVersion: driverVer,
		stmtCache:     newStmtCache(db),
	}, nil
}

// NewMem creates an event journal in ram.
func NewMem() (*EventDB, error) {
	return New("file::memory:?cache=shared")
}

func (db *EventDB) Close() error {
	db.stmtCache.Clear()
	return db.db.Close()
}

func (db *EventDB) Path() string {
	return db.path
}

// Log appends events in one transaction. Sequence numbers are assigned
// by the journal.
func (db *EventDB) Log(ctx context.Context, events []*Event) (err error) {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := db.stmtCache.Prepare(
		"INSERT INTO event(ts, windowIndex, action, addr, counterparty, shares, assets) VALUES(?,?,?,?,?,?,?)")
	if err != nil {
		return err
	}
	for _, ev := range events {
		var counterparty []byte
		if ev.Counterparty != nil {
			counterparty = ev.Counterparty.Bytes()
		}
		shares, assets := "0", "0"
		if ev.Shares != nil {
			shares = ev.Shares.String()
		}
		if ev.Assets != nil {
			assets = ev.Assets.String()
		}
		if _, err = tx.Stmt(stmt).ExecContext(ctx,
			ev.Timestamp, ev.Window, string(ev.Action), ev.Address.Bytes(), counterparty, shares, assets,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// MaxSequence returns the highest journaled sequence, 0 when the
// journal is empty.
func (db *EventDB) MaxSequence(ctx context.Context) (uint64, error) {
	var seq uint64
	if err := db.db.QueryRowContext(ctx, "SELECT IFNULL(MAX(seq), 0) FROM event").Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}

// Filter queries journaled events.
func (db *EventDB) Filter(ctx context.Context, filter *Filter) ([]*Event, error) {
	stmt := "SELECT seq, ts, windowIndex, action, addr, counterparty, shares, assets FROM event WHERE 1"
	var args []any
	if filter != nil {
		if filter.Address != nil {
			stmt += " AND addr = ?"
			args = append(args, filter.Address.Bytes())
		}
		if len(filter.Actions) > 0 {
			stmt += " AND action IN (?" + repeat(",?", len(filter.Actions)-1) + ")"
			for _, a := range filter.Actions {
				args = append(args, string(a))
			}
		}
		if filter.Window != nil {
			stmt += " AND windowIndex = ?"
			args = append(args, *filter.Window)
		}
		if filter.Range != nil {
			stmt += " AND ts >= ?"
			args = append(args, filter.Range.From)
			if filter.Range.To >= filter.Range.From {
				stmt += " AND ts <= ?"
				args = append(args, filter.Range.To)
			}
		}
	}

	if filter != nil && filter.Order == DESC {
		stmt += " ORDER BY seq DESC"
	} else {
		stmt += " ORDER BY seq ASC"
	}

	if filter != nil && filter.Options != nil {
		stmt += " LIMIT ?, ?"
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.query(ctx, stmt, args...)
}

func (db *EventDB) query(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var (
			ev           Event
			action       string
			addr         []byte
			counterparty []byte
			shares       string
			assets       string
		)
		if err := rows.Scan(
			&ev.Sequence, &ev.Timestamp, &ev.Window, &action, &addr, &counterparty, &shares, &assets,
		); err != nil {
			return nil, err
		}
		ev.Action = Action(action)
		ev.Address = mrtr.BytesToAddress(addr)
		if len(counterparty) > 0 {
			cp := mrtr.BytesToAddress(counterparty)
			ev.Counterparty = &cp
		}
		ev.Shares, _ = new(big.Int).SetString(shares, 10)
		ev.Assets, _ = new(big.Int).SetString(assets, 10)
		events = append(events, &ev)
	}
	return events, rows.Err()
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}
