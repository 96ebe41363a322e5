// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/BricklayerDAO/mrtr-token/mrtr"
	"github.com/BricklayerDAO/mrtr-token/stackedmap"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the cause of the state error.
func (e *Error) Unwrap() error { return e.cause }

// State manages the world state.
type State struct {
	db    *Stater
	cache map[mrtr.Address]*cachedObject // cache of loaded accounts
	sm    *stackedmap.StackedMap         // keeps revisions of account state
}

// New creates a state object over the given stater.
func New(db *Stater) *State {
	state := State{
		db:    db,
		cache: make(map[mrtr.Address]*cachedObject),
	}
	state.sm = stackedmap.New(func(key any) (any, bool, error) {
		return state.cacheGetter(key)
	})
	// base level, so mutations are legal before any checkpoint is opened
	state.sm.Push()
	return &state
}

// cacheGetter implements stackedmap.MapGetter.
func (s *State) cacheGetter(key any) (value any, exist bool, err error) {
	switch k := key.(type) {
	case mrtr.Address: // get account
		obj, err := s.getCachedObject(k)
		if err != nil {
			return nil, false, err
		}
		return &obj.data, true, nil
	case storageKey: // get storage
		// the address was ever deleted in the life-cycle of this state instance.
		// treat its storage as an empty set.
		if k.barrier != 0 {
			return rlp.RawValue(nil), true, nil
		}
		obj, err := s.getCachedObject(k.addr)
		if err != nil {
			return nil, false, err
		}
		v, err := obj.GetStorage(k.key)
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	case storageBarrierKey: // get barrier, 0 as initial value
		return 0, true, nil
	}
	panic(fmt.Errorf("unexpected key type %+v", key))
}

func (s *State) getCachedObject(addr mrtr.Address) (*cachedObject, error) {
	if co, ok := s.cache[addr]; ok {
		return co, nil
	}
	a, err := loadAccount(s.db.load, addr)
	if err != nil {
		return nil, err
	}
	co := newCachedObject(s.db.load, addr, a)
	s.cache[addr] = co
	return co, nil
}

// getAccount gets account by address. The returned account must not be modified.
func (s *State) getAccount(addr mrtr.Address) (*Account, error) {
	v, _, err := s.sm.Get(addr)
	if err != nil {
		return nil, err
	}
	return v.(*Account), nil
}

// getAccountCopy gets a copy of account by address.
func (s *State) getAccountCopy(addr mrtr.Address) (Account, error) {
	acc, err := s.getAccount(addr)
	if err != nil {
		return Account{}, err
	}
	return *acc, nil
}

func (s *State) updateAccount(addr mrtr.Address, acc *Account) {
	s.sm.Put(addr, acc)
}

func (s *State) getStorageBarrier(addr mrtr.Address) int {
	b, _, _ := s.sm.Get(storageBarrierKey(addr))
	return b.(int)
}

func (s *State) setStorageBarrier(addr mrtr.Address, barrier int) {
	s.sm.Put(storageBarrierKey(addr), barrier)
}

// GetBalance returns the underlying token balance for the given address.
func (s *State) GetBalance(addr mrtr.Address) (*big.Int, error) {
	acc, err := s.getAccount(addr)
	if err != nil {
		return nil, &Error{err}
	}
	return acc.Balance, nil
}

// SetBalance sets the underlying token balance for the given address.
func (s *State) SetBalance(addr mrtr.Address, balance *big.Int) error {
	cpy, err := s.getAccountCopy(addr)
	if err != nil {
		return &Error{err}
	}
	cpy.Balance = balance
	s.updateAccount(addr, &cpy)
	return nil
}

// GetShares returns the staked share balance for the given address.
func (s *State) GetShares(addr mrtr.Address) (*big.Int, error) {
	acc, err := s.getAccount(addr)
	if err != nil {
		return nil, &Error{err}
	}
	return acc.Shares, nil
}

// SetShares sets the staked share balance for the given address.
func (s *State) SetShares(addr mrtr.Address, shares *big.Int) error {
	cpy, err := s.getAccountCopy(addr)
	if err != nil {
		return &Error{err}
	}
	cpy.Shares = shares
	s.updateAccount(addr, &cpy)
	return nil
}

// GetStorage returns the storage value for the given address and key.
func (s *State) GetStorage(addr mrtr.Address, key mrtr.Bytes32) (mrtr.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return mrtr.Bytes32{}, &Error{err}
	}
	if len(raw) == 0 {
		return mrtr.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return mrtr.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// special case for rlp list, it should be a customized storage value.
		// return hash of raw data.
		return mrtr.Blake2b(raw), nil
	}
	return mrtr.BytesToBytes32(content), nil
}

// SetStorage sets the storage value for the given address and key.
func (s *State) SetStorage(addr mrtr.Address, key, value mrtr.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// GetRawStorage returns the storage value in rlp raw form for the given address and key.
func (s *State) GetRawStorage(addr mrtr.Address, key mrtr.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, s.getStorageBarrier(addr), key})
	if err != nil {
		return nil, &Error{err}
	}
	return data.(rlp.RawValue), nil
}

// SetRawStorage sets the storage value in rlp raw form.
func (s *State) SetRawStorage(addr mrtr.Address, key mrtr.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, s.getStorageBarrier(addr), key}, raw)
}

// EncodeStorage sets a storage value encoded by the given enc method.
// Errors returned by enc are wrapped into state errors.
func (s *State) EncodeStorage(addr mrtr.Address, key mrtr.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage gets and decodes a storage value.
// Errors returned by dec are wrapped into state errors.
func (s *State) DecodeStorage(addr mrtr.Address, key mrtr.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return &Error{err}
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// Exists returns whether an account exists at the given address.
// See Account.IsEmpty()
func (s *State) Exists(addr mrtr.Address) (bool, error) {
	acc, err := s.getAccount(addr)
	if err != nil {
		return false, &Error{err}
	}
	return !acc.IsEmpty(), nil
}

// Delete deletes the account at the given address.
// That's set balance and shares to zero and discard all its storage.
func (s *State) Delete(addr mrtr.Address) {
	s.updateAccount(addr, emptyAccount())
	// increase the barrier value
	s.setStorageBarrier(addr, s.getStorageBarrier(addr)+1)
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo reverts to the checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// Stage makes a stage object to compute the state digest or commit all changes.
func (s *State) Stage() (*Stage, error) {
	type changed struct {
		data    Account
		storage map[mrtr.Bytes32]rlp.RawValue
	}

	changes := make(map[mrtr.Address]*changed)

	// get or create changed account
	getChanged := func(addr mrtr.Address) (*changed, error) {
		if obj, ok := changes[addr]; ok {
			return obj, nil
		}
		co, err := s.getCachedObject(addr)
		if err != nil {
			return nil, &Error{err}
		}
		c := &changed{data: co.data}
		changes[addr] = c
		return c, nil
	}

	var jerr error
	// traverse journal to build changes
	s.sm.Journal(func(k, v any) bool {
		var c *changed
		switch key := k.(type) {
		case mrtr.Address:
			if c, jerr = getChanged(key); jerr != nil {
				return false
			}
			c.data = *(v.(*Account))
		case storageKey:
			if c, jerr = getChanged(key.addr); jerr != nil {
				return false
			}
			if c.storage == nil {
				c.storage = make(map[mrtr.Bytes32]rlp.RawValue)
			}
			c.storage[key.key] = v.(rlp.RawValue)
		case storageBarrierKey:
			if c, jerr = getChanged(mrtr.Address(key)); jerr != nil {
				return false
			}
			// discard all storage updates when meeting the barrier.
			c.storage = nil
		}
		return true
	})
	if jerr != nil {
		return nil, &Error{jerr}
	}

	kvs := make([]stagedKV, 0, len(changes))
	for addr, c := range changes {
		data, err := encodeAccount(&c.data)
		if err != nil {
			return nil, &Error{err}
		}
		kvs = append(kvs, stagedKV{accountKey(addr), data})
		for k, v := range c.storage {
			kvs = append(kvs, stagedKV{storageStoreKey(addr, k), v})
		}
	}
	// deterministic write order, also fixes the digest
	sort.Slice(kvs, func(i, j int) bool {
		return bytes.Compare(kvs[i].key, kvs[j].key) < 0
	})
	return newStage(s.db, kvs), nil
}

type (
	storageKey struct {
		addr    mrtr.Address
		barrier int
		key     mrtr.Bytes32
	}
	storageBarrierKey mrtr.Address
)
