// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetOrLoad(t *testing.T) {
	c, err := NewLRU(16)
	assert.NoError(t, err)

	loads := 0
	loader := func(key any) (any, error) {
		loads++
		return key.(int) * 2, nil
	}

	v, err := c.GetOrLoad(1, loader)
	assert.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, loads)

	// second hit comes from the cache
	v, err = c.GetOrLoad(1, loader)
	assert.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, loads)
}

func TestGetOrLoadError(t *testing.T) {
	c, _ := NewLRU(16)

	boom := errors.New("boom")
	_, err := c.GetOrLoad(1, func(any) (any, error) {
		return nil, boom
	})
	assert.Equal(t, boom, err)

	// failed loads are not cached
	_, ok := c.Get(1)
	assert.False(t, ok)
}
