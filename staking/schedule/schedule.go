// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package schedule defines the fixed sequence of staking windows and
// the timestamp-to-window lookup.
package schedule

import (
	"errors"
	"sort"
)

// Schedule is an immutable ordered set of window boundary timestamps.
// With boundaries T[0..N], window i spans [T[i], T[i+1]) and there are
// N windows in total. T[0] is the staking start, T[N] the staking end.
type Schedule struct {
	boundaries []uint64
}

// New creates a schedule from the given boundary timestamps.
// At least two boundaries are required and they must be strictly
// increasing.
func New(boundaries []uint64) (*Schedule, error) {
	if len(boundaries) < 2 {
		return nil, errors.New("schedule: at least two boundaries required")
	}
	for i := 1; i < len(boundaries); i++ {
		if boundaries[i] <= boundaries[i-1] {
			return nil, errors.New("schedule: boundaries must be strictly increasing")
		}
	}
	cpy := append([]uint64(nil), boundaries...)
	return &Schedule{boundaries: cpy}, nil
}

// Windows returns the number of windows N.
func (s *Schedule) Windows() uint32 {
	return uint32(len(s.boundaries) - 1)
}

// Start returns T[0], the staking start time.
func (s *Schedule) Start() uint64 {
	return s.boundaries[0]
}

// End returns T[N], the staking end time.
func (s *Schedule) End() uint64 {
	return s.boundaries[len(s.boundaries)-1]
}

// Boundary returns T[i].
func (s *Schedule) Boundary(i uint32) uint64 {
	return s.boundaries[i]
}

// Boundaries returns a copy of all boundary timestamps.
func (s *Schedule) Boundaries() []uint64 {
	return append([]uint64(nil), s.boundaries...)
}

// Locate finds the window containing ts. Windows are right-open, so a
// boundary timestamp belongs to the window it starts.
//
// ts < T[0] yields (false, 0, 0, 0): staking has not started.
// ts >= T[N] yields valid=false with the final window's index and
// bounds, which callers still need for settlement math.
func (s *Schedule) Locate(ts uint64) (valid bool, index uint32, start uint64, end uint64) {
	n := len(s.boundaries) - 1
	if ts < s.boundaries[0] {
		return false, 0, 0, 0
	}
	if ts >= s.boundaries[n] {
		return false, uint32(n - 1), s.boundaries[n-1], s.boundaries[n]
	}
	// the unique i with T[i] <= ts < T[i+1]
	i := sort.Search(n, func(i int) bool {
		return s.boundaries[i+1] > ts
	})
	return true, uint32(i), s.boundaries[i], s.boundaries[i+1]
}
