// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	dberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var (
	writeOpt = opt.WriteOptions{}
	readOpt  = opt.ReadOptions{}

	// threshold to flush an auto-flush bulk.
	bulkFlushThreshold = 1024 * 1024
)

// Options options for opening a file-backed store.
type Options struct {
	CacheSize              int // megabytes of block cache
	OpenFilesCacheCapacity int
}

type levelStore struct {
	db *leveldb.DB
}

// NewLevelFileStore opens or creates the leveldb store at the given path.
func NewLevelFileStore(path string, opts Options) (StoreCloser, error) {
	cacheSize := opts.CacheSize
	if cacheSize < 16 {
		cacheSize = 16
	}
	fdCache := opts.OpenFilesCacheCapacity
	if fdCache < 64 {
		fdCache = 64
	}

	db, err := leveldb.OpenFile(path, &opt.Options{
		OpenFilesCacheCapacity: fdCache,
		BlockCacheCapacity:     cacheSize / 2 * opt.MiB,
		WriteBuffer:            cacheSize / 4 * opt.MiB, // two of these are used internally
		Filter:                 filter.NewBloomFilter(10),
	})
	if dberrors.IsCorrupted(err) {
		db, err = leveldb.RecoverFile(path, nil)
	}
	if err != nil {
		return nil, errors.Wrap(err, "open level db")
	}
	return &levelStore{db}, nil
}

// NewLevelMemStore creates a memory-backed store, for tests mostly.
func NewLevelMemStore() StoreCloser {
	db, _ := leveldb.Open(storage.NewMemStorage(), nil)
	return &levelStore{db}
}

func (ls *levelStore) Get(key []byte) ([]byte, error) {
	return ls.db.Get(key, &readOpt)
}

func (ls *levelStore) Has(key []byte) (bool, error) {
	return ls.db.Has(key, &readOpt)
}

func (ls *levelStore) IsNotFound(err error) bool {
	return errors.Is(err, leveldb.ErrNotFound)
}

func (ls *levelStore) Put(key, val []byte) error {
	return ls.db.Put(key, val, &writeOpt)
}

func (ls *levelStore) Delete(key []byte) error {
	return ls.db.Delete(key, &writeOpt)
}

func (ls *levelStore) Close() error {
	return ls.db.Close()
}

func (ls *levelStore) Snapshot() Snapshot {
	s, err := ls.db.GetSnapshot()
	return &levelSnapshot{s, err}
}

func (ls *levelStore) Bulk() Bulk {
	return &levelBulk{store: ls}
}

func (ls *levelStore) Iterate(r Range) Iterator {
	return ls.db.NewIterator(&util.Range{Start: r.Start, Limit: r.Limit}, &readOpt)
}

type levelSnapshot struct {
	snapshot *leveldb.Snapshot
	err      error
}

func (s *levelSnapshot) Get(key []byte) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.snapshot.Get(key, &readOpt)
}

func (s *levelSnapshot) Has(key []byte) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.snapshot.Has(key, &readOpt)
}

func (s *levelSnapshot) IsNotFound(err error) bool {
	return errors.Is(err, leveldb.ErrNotFound)
}

func (s *levelSnapshot) Release() {
	if s.err == nil {
		s.snapshot.Release()
	}
}

type levelBulk struct {
	store     *levelStore
	batch     leveldb.Batch
	autoFlush bool
	err       error
}

func (b *levelBulk) flushIfNeeded() {
	if b.autoFlush && b.batch.Len() > 0 {
		// the batch size counts keys and values only
		if len(b.batch.Dump()) >= bulkFlushThreshold {
			b.err = b.store.db.Write(&b.batch, &writeOpt)
			b.batch.Reset()
		}
	}
}

func (b *levelBulk) Put(key, val []byte) error {
	if b.err != nil {
		return b.err
	}
	b.batch.Put(key, val)
	b.flushIfNeeded()
	return b.err
}

func (b *levelBulk) Delete(key []byte) error {
	if b.err != nil {
		return b.err
	}
	b.batch.Delete(key)
	b.flushIfNeeded()
	return b.err
}

func (b *levelBulk) EnableAutoFlush() {
	b.autoFlush = true
}

func (b *levelBulk) Write() error {
	if b.err != nil {
		return b.err
	}
	if b.batch.Len() == 0 {
		return nil
	}
	b.err = b.store.db.Write(&b.batch, &writeOpt)
	b.batch.Reset()
	return b.err
}
