// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co_test

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BricklayerDAO/mrtr-token/co"
)

func TestGoes(t *testing.T) {
	var goes co.Goes
	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		goes.Go(func() { ran.Add(1) })
	}
	goes.Wait()
	assert.Equal(t, int32(10), ran.Load())

	<-goes.Done()
}
