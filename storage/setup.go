// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"reflect"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/quarrynet/quarryd/fault"
)

// keyspaces of the player data store
//
// note all must be exported (i.e. initial capital) or initialisation will panic
type pools struct {
	Users         *PoolHandle `prefix:"U"`
	NameIndex     *PoolHandle `prefix:"N"`
	IpIndex       *PoolHandle `prefix:"I"`
	Groups        *PoolHandle `prefix:"G"`
	Punishments   *PoolHandle `prefix:"P"`
	IpPunishments *PoolHandle `prefix:"Q"`
}

// Store - one opened player database and its keyspace handles
//
// constructed once at startup and handed to the repositories, so a
// test can run against its own temp-directory instance
type Store struct {
	Pool pools

	sequenceLock sync.Mutex
	db           *leveldb.DB
	dataAccess   Access
	trx          Transaction
}

// for database version
var versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}

// next punishment id, lives inside the punishments pool but can
// never collide with an 8 byte id key
var sequenceKey = []byte{0x00, 'S', 'E', 'Q'}

const currentDataVersion = 0x100

// pool access modes
const (
	ReadOnly  = true
	ReadWrite = false
)

// Initialise - open up the database connection
//
// returns mustMigrate true when the on-disk data predates the
// current version; running the migration is the caller's decision
func Initialise(database string, readOnly bool) (*Store, bool, error) {

	mustMigrate := false

	playersDatabase := database + "-players.leveldb"

	db, version, err := getDB(playersDatabase, readOnly)
	if nil != err {
		return nil, false, err
	}

	// ensure no database downgrade
	if version > currentDataVersion {
		db.Close()
		return nil, false, fault.ErrWrongDatabaseVersion
	}

	if 0 < version && version < currentDataVersion {

		mustMigrate = true

	} else if 0 == version && !readOnly {

		// database was empty so tag as current version
		err = putVersion(db, currentDataVersion)
		if nil != err {
			db.Close()
			return nil, false, err
		}
	}

	batch := new(leveldb.Batch)
	dataAccess := newDA(db, batch, newCache())

	store := &Store{
		db:         db,
		dataAccess: dataAccess,
		trx:        newTransaction(dataAccess),
	}

	// this will be a struct type
	poolType := reflect.TypeOf(store.Pool)

	// get write access by using pointer + Elem()
	poolValue := reflect.ValueOf(&store.Pool).Elem()

	// scan each field
	for i := 0; i < poolType.NumField(); i += 1 {

		fieldInfo := poolType.Field(i)

		prefixTag := fieldInfo.Tag.Get("prefix")
		if 1 != len(prefixTag) {
			db.Close()
			fault.Panicf("pool: %v has invalid prefix: %q", fieldInfo, prefixTag)
		}

		prefix := prefixTag[0]
		limit := []byte(nil)
		if prefix < 255 {
			limit = []byte{prefix + 1}
		}

		p := &PoolHandle{
			prefix:     prefix,
			limit:      limit,
			dataAccess: dataAccess,
		}

		poolValue.Field(i).Set(reflect.ValueOf(p))
	}

	return store, mustMigrate, nil
}

// Finalise - close the database connection
func (s *Store) Finalise() {
	if nil != s.db {
		s.db.Close()
		s.db = nil
	}
}

// NewDBTransaction - take the store's single transaction scope
func (s *Store) NewDBTransaction() Transaction {
	s.trx.Begin()
	return s.trx
}

// NextPunishmentID - allocate a new punishment id
//
// strictly increasing, assigned exactly once and never reused; an
// id consumed by a failed creation stays consumed
func (s *Store) NextPunishmentID() (uint64, error) {
	s.sequenceLock.Lock()
	defer s.sequenceLock.Unlock()

	p := s.Pool.Punishments

	n, _, err := p.GetN(sequenceKey)
	if nil != err {
		return 0, err
	}
	n += 1

	err = p.PutN(sequenceKey, n)
	if nil != err {
		return 0, err
	}
	return n, nil
}

// MigrationDone - stamp the database as fully migrated
func (s *Store) MigrationDone() error {
	return putVersion(s.db, currentDataVersion)
}

// return:
//
//	database handle
//	version number
func getDB(name string, readOnly bool) (*leveldb.DB, int, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: readOnly,
		ReadOnly:       readOnly,
	}

	db, err := leveldb.OpenFile(name, opt)
	if nil != err {
		return nil, 0, err
	}

	versionValue, err := db.Get(versionKey, nil)
	if leveldb.ErrNotFound == err {
		return db, 0, nil
	} else if nil != err {
		db.Close()
		return nil, 0, err
	}

	if 4 != len(versionValue) {
		db.Close()
		return nil, 0, fault.ErrWrongDatabaseVersionSize
	}

	version := int(binary.BigEndian.Uint32(versionValue))
	return db, version, nil
}

func putVersion(db *leveldb.DB, version int) error {
	currentVersion := make([]byte, 4)
	binary.BigEndian.PutUint32(currentVersion, uint32(version))

	return db.Put(versionKey, currentVersion, nil)
}
