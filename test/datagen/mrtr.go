// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"crypto/rand"

	"github.com/BricklayerDAO/mrtr-token/mrtr"
)

func RandBytes32() (b mrtr.Bytes32) {
	rand.Read(b[:])
	return
}

func RandAddress() (addr mrtr.Address) {
	rand.Read(addr[:])
	return
}
