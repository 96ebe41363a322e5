// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidation(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New([]uint64{100})
	assert.Error(t, err)

	_, err = New([]uint64{100, 100})
	assert.Error(t, err)

	_, err = New([]uint64{100, 200, 150})
	assert.Error(t, err)

	s, err := New([]uint64{100, 200, 300})
	require.NoError(t, err)
	assert.Equal(t, uint32(2), s.Windows())
	assert.Equal(t, uint64(100), s.Start())
	assert.Equal(t, uint64(300), s.End())
}

func TestLocate(t *testing.T) {
	boundaries := []uint64{100, 200, 300, 400}
	s, err := New(boundaries)
	require.NoError(t, err)

	// before start
	valid, index, start, end := s.Locate(99)
	assert.False(t, valid)
	assert.Equal(t, uint32(0), index)
	assert.Equal(t, uint64(0), start)
	assert.Equal(t, uint64(0), end)

	// every boundary belongs to the window it starts
	for i := range boundaries[:len(boundaries)-1] {
		valid, index, start, end = s.Locate(boundaries[i])
		assert.True(t, valid)
		assert.Equal(t, uint32(i), index)
		assert.Equal(t, boundaries[i], start)
		assert.Equal(t, boundaries[i+1], end)
	}

	// interior point
	valid, index, start, end = s.Locate(250)
	assert.True(t, valid)
	assert.Equal(t, uint32(1), index)
	assert.Equal(t, uint64(200), start)
	assert.Equal(t, uint64(300), end)

	// last instant of the last window
	valid, index, _, _ = s.Locate(399)
	assert.True(t, valid)
	assert.Equal(t, uint32(2), index)

	// at and after the end, invalid but with final bounds
	for _, ts := range []uint64{400, 401, 10_000} {
		valid, index, start, end = s.Locate(ts)
		assert.False(t, valid)
		assert.Equal(t, uint32(2), index)
		assert.Equal(t, uint64(300), start)
		assert.Equal(t, uint64(400), end)
	}
}

func TestLocateSingleWindow(t *testing.T) {
	s, err := New([]uint64{10, 20})
	require.NoError(t, err)

	valid, index, start, end := s.Locate(10)
	assert.True(t, valid)
	assert.Equal(t, uint32(0), index)
	assert.Equal(t, uint64(10), start)
	assert.Equal(t, uint64(20), end)

	valid, _, _, _ = s.Locate(20)
	assert.False(t, valid)
}
