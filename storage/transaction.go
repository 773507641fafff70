// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"sync"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/quarrynet/quarryd/codec"
)

// Transaction - atomic scope over the whole store
//
// every pool shares the one underlying database so a single commit
// covers keys staged into any combination of pools
type Transaction interface {
	Begin()
	Put(*PoolHandle, []byte, []byte)
	PutN(*PoolHandle, []byte, uint64)
	Delete(*PoolHandle, []byte)
	Get(*PoolHandle, []byte) ([]byte, error)
	GetN(*PoolHandle, []byte) (uint64, bool, error)
	Has(*PoolHandle, []byte) (bool, error)
	DumpTx() []byte
	Commit() error
	Abort()
}

type TransactionImpl struct {
	inUse      sync.Mutex
	dataAccess Access
}

func newTransaction(dataAccess Access) Transaction {
	return &TransactionImpl{
		dataAccess: dataAccess,
	}
}

// Begin - take the single transaction scope
//
// blocks until any in-flight transaction commits or aborts; the
// store serialises writers, there is no optimistic retry loop
func (t *TransactionImpl) Begin() {
	t.inUse.Lock()
	t.dataAccess.Begin()
}

func (t *TransactionImpl) Put(p *PoolHandle, key []byte, value []byte) {
	t.dataAccess.Put(p.prefixKey(key), value)
}

func (t *TransactionImpl) PutN(p *PoolHandle, key []byte, value uint64) {
	t.dataAccess.Put(p.prefixKey(key), codec.EncodeUint64(value))
}

func (t *TransactionImpl) Delete(p *PoolHandle, key []byte) {
	t.dataAccess.Delete(p.prefixKey(key))
}

// Get - read inside the transaction, staged writes are visible
func (t *TransactionImpl) Get(p *PoolHandle, key []byte) ([]byte, error) {
	value, err := t.dataAccess.Get(p.prefixKey(key))
	if leveldb.ErrNotFound == err {
		return nil, nil
	}
	return value, err
}

func (t *TransactionImpl) GetN(p *PoolHandle, key []byte) (uint64, bool, error) {
	buffer, err := t.Get(p, key)
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

func (t *TransactionImpl) Has(p *PoolHandle, key []byte) (bool, error) {
	return t.dataAccess.Has(p.prefixKey(key))
}

// DumpTx - raw bytes of the staged batch, for diagnostics
func (t *TransactionImpl) DumpTx() []byte {
	return t.dataAccess.DumpTx()
}

// Commit - apply every staged write in one atomic batch
func (t *TransactionImpl) Commit() error {
	err := t.dataAccess.Commit()
	t.inUse.Unlock()
	return err
}

// Abort - drop every staged write
func (t *TransactionImpl) Abort() {
	t.dataAccess.Abort()
	t.inUse.Unlock()
}
