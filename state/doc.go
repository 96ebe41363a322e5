// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages the ledger world state.
//
// The world state is a set of accounts, each carrying an underlying
// token balance, a staked share balance and a keyed storage space.
// All reads and writes go through a stacked map so that arbitrary
// checkpoints can be taken and reverted; nothing touches the backing
// store until a Stage is committed.
package state
