// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/qianbin/drlp"

	"github.com/BricklayerDAO/mrtr-token/mrtr"
)

// stagedKV is a pending write to the backing store.
// A nil value deletes the key.
type stagedKV struct {
	key   []byte
	value []byte
}

// Stage abstracts the changes collected from a state, ready to be
// committed. The changes are ordered by key, so the digest is
// deterministic for a given set of mutations.
type Stage struct {
	db  *Stater
	kvs []stagedKV
}

func newStage(db *Stater, kvs []stagedKV) *Stage {
	return &Stage{db: db, kvs: kvs}
}

// Hash computes the digest of the staged changes.
func (s *Stage) Hash() mrtr.Bytes32 {
	hw := mrtr.NewBlake2b()
	var buf []byte
	for _, kv := range s.kvs {
		buf = drlp.AppendString(buf[:0], kv.key)
		buf = drlp.AppendString(buf, kv.value)
		hw.Write(buf)
	}
	var digest mrtr.Bytes32
	hw.Sum(digest[:0])
	return digest
}

// Commit writes all staged changes into the backing store.
func (s *Stage) Commit() (mrtr.Bytes32, error) {
	if err := s.db.commit(s.kvs); err != nil {
		return mrtr.Bytes32{}, &Error{err}
	}
	return s.Hash(), nil
}
