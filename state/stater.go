// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/qianbin/directcache"

	"github.com/BricklayerDAO/mrtr-token/kv"
)

const minCacheSize = 256 * 1024

// Stater is the state creator. It wraps the backing store with a
// read-through cache shared by all states it creates.
type Stater struct {
	store kv.Store
	cache *directcache.Cache
}

// NewStater creates a stater with the given cache size in bytes.
func NewStater(store kv.Store, cacheSizeBytes int) *Stater {
	if cacheSizeBytes < minCacheSize {
		cacheSizeBytes = minCacheSize
	}
	return &Stater{
		store: store,
		cache: directcache.New(cacheSizeBytes),
	}
}

// NewState creates a new state object.
func (s *Stater) NewState() *State {
	return New(s)
}

// load reads a raw value, going to the store on cache miss.
// Missing keys yield a nil value and no error.
func (s *Stater) load(key []byte) ([]byte, error) {
	var val []byte
	if s.cache.AdvGet(key, func(v []byte) {
		val = append([]byte(nil), v...)
	}, false) {
		metricCacheHitMiss().AddWithLabel(1, map[string]string{"type": "hit"})
		if len(val) == 0 {
			return nil, nil
		}
		return val, nil
	}
	metricCacheHitMiss().AddWithLabel(1, map[string]string{"type": "miss"})

	val, err := s.store.Get(key)
	if err != nil {
		if s.store.IsNotFound(err) {
			_ = s.cache.Set(key, nil)
			return nil, nil
		}
		return nil, err
	}
	_ = s.cache.Set(key, val)
	return val, nil
}

// commit writes the staged key-values atomically and refreshes the cache.
func (s *Stater) commit(kvs []stagedKV) error {
	bulk := s.store.Bulk()
	for _, kv := range kvs {
		if len(kv.value) == 0 {
			if err := bulk.Delete(kv.key); err != nil {
				return err
			}
		} else {
			if err := bulk.Put(kv.key, kv.value); err != nil {
				return err
			}
		}
	}
	if err := bulk.Write(); err != nil {
		return err
	}
	for _, kv := range kvs {
		_ = s.cache.Set(kv.key, kv.value)
	}
	return nil
}
