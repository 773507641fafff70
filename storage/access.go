// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"
)

// Access - combined direct and batched access to one database
type Access interface {
	Abort()
	Begin()
	Commit() error
	Delete([]byte)
	DeleteNow([]byte) error
	DumpTx() []byte
	Get([]byte) ([]byte, error)
	Has([]byte) (bool, error)
	Iterator(*ldb_util.Range) iterator.Iterator
	Put([]byte, []byte)
	PutNow([]byte, []byte) error
}

type AccessData struct {
	sync.Mutex
	db    *leveldb.DB
	batch *leveldb.Batch
	cache Cache
}

func newDA(db *leveldb.DB, batch *leveldb.Batch, cache Cache) Access {
	return &AccessData{
		db:    db,
		batch: batch,
		cache: cache,
	}
}

func (d *AccessData) Begin() {
	d.Lock()
	defer d.Unlock()

	d.batch.Reset()
}

// Put - stage a write into the current batch
func (d *AccessData) Put(key []byte, value []byte) {
	d.cache.Set(dbPut, string(key), value)
	d.batch.Put(key, value)
}

// Delete - stage a removal into the current batch
func (d *AccessData) Delete(key []byte) {
	d.cache.Set(dbDelete, string(key), []byte{})
	d.batch.Delete(key)
}

// Commit - atomically apply the staged batch
func (d *AccessData) Commit() error {
	d.Lock()
	defer d.Unlock()

	err := d.db.Write(d.batch, nil)
	d.batch.Reset()
	return err
}

// Abort - discard the staged batch and any cached values from it
func (d *AccessData) Abort() {
	d.Lock()
	defer d.Unlock()

	d.batch.Reset()
	d.cache.Clear()
}

func (d *AccessData) DumpTx() []byte {
	return d.batch.Dump()
}

// PutNow - immediate point write bypassing the batch
//
// the cache is still updated so an open transaction observes it
func (d *AccessData) PutNow(key []byte, value []byte) error {
	d.cache.Set(dbPut, string(key), value)
	return d.db.Put(key, value, nil)
}

// DeleteNow - immediate point removal bypassing the batch
func (d *AccessData) DeleteNow(key []byte) error {
	d.cache.Set(dbDelete, string(key), []byte{})
	return d.db.Delete(key, nil)
}

func (d *AccessData) Get(key []byte) ([]byte, error) {
	val, found := d.getFromCache(key)
	if found {
		return val, nil
	}
	return d.getFromDB(key)
}

func (d *AccessData) getFromCache(key []byte) ([]byte, bool) {
	return d.cache.Get(string(key))
}

func (d *AccessData) getFromDB(key []byte) ([]byte, error) {
	return d.db.Get(key, nil)
}

func (d *AccessData) Iterator(searchRange *ldb_util.Range) iterator.Iterator {
	return d.db.NewIterator(searchRange, nil)
}

func (d *AccessData) Has(key []byte) (bool, error) {
	_, found := d.getFromCache(key)
	if found {
		return true, nil
	}
	return d.db.Has(key, nil)
}
