// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsRevertErr(t *testing.T) {
	assert.False(t, IsRevertErr(nil))
	assert.False(t, IsRevertErr(errors.New("plain")))

	rev := New("amount must not be zero")
	assert.True(t, IsRevertErr(rev))
	assert.Equal(t, "amount must not be zero", rev.Error())

	// wrapped reverts are still reverts
	assert.True(t, IsRevertErr(pkgerrors.Wrap(rev, "deposit")))
}
