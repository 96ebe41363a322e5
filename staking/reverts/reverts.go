// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts distinguishes user-recoverable rejection errors from
// internal faults. A revert means the action was refused and no state
// was changed; the caller may retry with corrected input (or after the
// reserve is topped up). Any other error is an internal fault.
package reverts

import "errors"

// ErrRevert is a recoverable rejection of a ledger action.
type ErrRevert struct {
	message string
}

// New creates a revert error with the given message.
func New(message string) *ErrRevert {
	return &ErrRevert{message: message}
}

func (e *ErrRevert) Error() string {
	return e.message
}

// IsRevertErr reports whether err is (or wraps) a revert.
func IsRevertErr(err error) bool {
	if err == nil {
		return false
	}
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve != nil
	}
	return false
}
