// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/syndtr/goleveldb/leveldb"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/quarrynet/quarryd/codec"
)

// PoolHandle - one keyspace inside the store
type PoolHandle struct {
	prefix     byte
	limit      []byte
	dataAccess Access
}

// Element - a binary data item
type Element struct {
	Key   []byte
	Value []byte
}

// prepend the pool prefix onto the key
func (p *PoolHandle) prefixKey(key []byte) []byte {
	prefixedKey := make([]byte, 1, len(key)+1)
	prefixedKey[0] = p.prefix
	return append(prefixedKey, key...)
}

// Put - store a key/value bytes pair, immediately visible
func (p *PoolHandle) Put(key []byte, value []byte) error {
	return p.dataAccess.PutNow(p.prefixKey(key), value)
}

// PutN - store a big endian uint64 value, immediately visible
func (p *PoolHandle) PutN(key []byte, value uint64) error {
	return p.dataAccess.PutNow(p.prefixKey(key), codec.EncodeUint64(value))
}

// Delete - remove a key, immediately visible
func (p *PoolHandle) Delete(key []byte) error {
	return p.dataAccess.DeleteNow(p.prefixKey(key))
}

// Get - read a value for a given key
//
// returns nil if the key is absent
func (p *PoolHandle) Get(key []byte) ([]byte, error) {
	value, err := p.dataAccess.Get(p.prefixKey(key))
	if leveldb.ErrNotFound == err {
		return nil, nil
	}
	return value, err
}

// GetN - read a record and decode first 8 bytes as big endian uint64
//
// second return is false if the record was not found
func (p *PoolHandle) GetN(key []byte) (uint64, bool, error) {
	buffer, err := p.Get(key)
	if nil != err {
		return 0, false, err
	}
	if nil == buffer {
		return 0, false, nil
	}
	n, err := codec.DecodeUint64(buffer)
	if nil != err {
		return 0, false, err
	}
	return n, true, nil
}

// Has - check if a key exists
func (p *PoolHandle) Has(key []byte) (bool, error) {
	return p.dataAccess.Has(p.prefixKey(key))
}

// Range - run a function over every key starting with keyPrefix
//
// keys are delivered in byte order with the pool prefix stripped
func (p *PoolHandle) Range(keyPrefix []byte, f func(key []byte, value []byte) error) error {
	searchRange := ldb_util.BytesPrefix(p.prefixKey(keyPrefix))

	iter := p.dataAccess.Iterator(searchRange)

	var err error
iterating:
	for iter.Next() {

		// contents of the returned slice must not be modified, and are
		// only valid until the next call to Next
		key := iter.Key()
		value := iter.Value()

		dataKey := make([]byte, len(key)-1) // strip the prefix
		copy(dataKey, key[1:])              // ...

		dataValue := make([]byte, len(value))
		copy(dataValue, value)

		err = f(dataKey, dataValue)
		if nil != err {
			break iterating
		}
	}
	iter.Release()
	if nil == err {
		err = iter.Error()
	}
	return err
}

// searchRange - full key range of this pool
func (p *PoolHandle) searchRange() ldb_util.Range {
	return ldb_util.Range{
		Start: []byte{p.prefix}, // Start of key range, included in the range
		Limit: p.limit,          // Limit of key range, excluded from the range
	}
}
