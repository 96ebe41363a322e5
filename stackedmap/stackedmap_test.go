// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BricklayerDAO/mrtr-token/stackedmap"
)

func TestStackedMap(t *testing.T) {
	assert := assert.New(t)
	src := make(map[string]string)
	src["foo"] = "bar"

	sm := stackedmap.New(func(key any) (any, bool, error) {
		v, r := src[key.(string)]
		return v, r, nil
	})

	tests := []struct {
		f         func()
		depth     int
		putKey    string
		putValue  string
		getKey    string
		getReturn []any
	}{
		{func() {}, 0, "", "", "foo", []any{"bar", true}},
		{func() { sm.Push() }, 1, "foo", "baz", "foo", []any{"baz", true}},
		{func() { sm.Push() }, 2, "foo", "qux", "foo", []any{"qux", true}},
		{func() { sm.Pop() }, 1, "", "", "foo", []any{"baz", true}},
		{func() { sm.Pop() }, 0, "", "", "foo", []any{"bar", true}},

		{func() { sm.Push() }, 1, "a", "b", "a", []any{"b", true}},
		{func() { sm.Push() }, 2, "a", "c", "a", []any{"c", true}},
		{func() { sm.PopTo(0) }, 0, "", "", "a", []any{"", false}},
	}

	for _, test := range tests {
		test.f()
		assert.Equal(test.depth, sm.Depth())
		if test.putKey != "" {
			sm.Put(test.putKey, test.putValue)
		}
		if test.getKey != "" {
			v, ok, err := sm.Get(test.getKey)
			assert.Nil(err)
			assert.Equal(test.getReturn, []any{v, ok})
		}
	}
}

func TestJournal(t *testing.T) {
	sm := stackedmap.New(func(_ any) (any, bool, error) {
		return nil, false, nil
	})

	sm.Push()
	sm.Put("a", "1")
	sm.Push()
	sm.Put("b", "2")
	sm.Put("a", "3")

	var kvs [][2]string
	sm.Journal(func(k, v any) bool {
		kvs = append(kvs, [2]string{k.(string), v.(string)})
		return true
	})
	assert.Equal(t, [][2]string{{"a", "1"}, {"b", "2"}, {"a", "3"}}, kvs)

	// popped level drops out of the journal
	sm.Pop()
	kvs = kvs[:0]
	sm.Journal(func(k, v any) bool {
		kvs = append(kvs, [2]string{k.(string), v.(string)})
		return true
	})
	assert.Equal(t, [][2]string{{"a", "1"}}, kvs)

	// traversal abandons when cb returns false
	sm.Put("c", "4")
	n := 0
	sm.Journal(func(_, _ any) bool {
		n++
		return false
	})
	assert.Equal(t, 1, n)
}

func TestRepeatedPutThenPop(t *testing.T) {
	src := make(map[string]string)
	src["k"] = "base"

	sm := stackedmap.New(func(key any) (any, bool, error) {
		v, r := src[key.(string)]
		return v, r, nil
	})

	// overwriting a key inside one level must leave a single revision,
	// so popping the level fully forgets the key
	sm.Push()
	sm.Put("k", "v1")
	sm.Put("k", "v2")

	v, ok, err := sm.Get("k")
	assert.Nil(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", v)

	sm.Pop()

	v, ok, err = sm.Get("k")
	assert.Nil(t, err)
	assert.True(t, ok)
	assert.Equal(t, "base", v)
}
