// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package group - permission groups
//
// A group is administrator managed and rewritten whole, never
// patched field by field. One store-wide pointer marks the default
// group; an account without an explicit group resolves through it.
package group

import (
	"strings"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/quarrynet/quarryd/codec"
	"github.com/quarrynet/quarryd/fault"
	"github.com/quarrynet/quarryd/storage"
)

// Permission - one named boolean grant
//
// the same shape is owned by groups and by individual users
type Permission struct {
	Name  string
	Value bool
}

// Group - a named permission set with chat decorations
type Group struct {
	Name        string
	Prefix      string
	Suffix      string
	Permissions []Permission
	Modified    time.Time
}

// NewGroup - an empty group
func NewGroup(name string, now time.Time) *Group {
	return &Group{
		Name:     name,
		Modified: now,
	}
}

// Store - group repository over the groups keyspace
type Store struct {
	store *storage.Store
	log   *logger.L
}

// New - create the group repository
func New(store *storage.Store) *Store {
	return &Store{
		store: store,
		log:   logger.New("group"),
	}
}

// the default group pointer lives under a reserved key that no
// group name can collide with
var defaultGroupKey = []byte{0x00, 'd', 'e', 'f', 'a', 'u', 'l', 't'}

// group names share the keyspace with the pointer key, so a name
// must be printable and must not contain the field separator
func validName(name string) bool {
	if "" == name {
		return false
	}
	for _, r := range name {
		if r < 0x20 || r > 0x7e || ':' == r {
			return false
		}
	}
	return true
}

func fieldKey(name string, field string) []byte {
	return []byte(name + ":" + field)
}

func permissionKey(name string, permission string) []byte {
	return []byte(name + ":perms:" + permission)
}

// Fetch - read a whole group
//
// returns nil with no error when the group does not exist
func (s *Store) Fetch(name string) (*Group, error) {
	pool := s.store.Pool.Groups

	// the modification stamp marks existence
	stamp, err := pool.Get(fieldKey(name, "modified"))
	if nil != err {
		return nil, err
	}
	if nil == stamp {
		return nil, nil
	}
	modified, err := codec.DecodeTimestamp(stamp)
	if nil != err {
		s.log.Errorf("group: %q has undecodable modification stamp", name)
		return nil, fault.ErrCorruptGroupRecord
	}

	g := &Group{
		Name:     name,
		Modified: modified,
	}

	prefix, err := pool.Get(fieldKey(name, "prefix"))
	if nil != err {
		return nil, err
	}
	g.Prefix = string(prefix)

	suffix, err := pool.Get(fieldKey(name, "suffix"))
	if nil != err {
		return nil, err
	}
	g.Suffix = string(suffix)

	permPrefix := permissionKey(name, "")
	err = pool.Range(permPrefix, func(key []byte, value []byte) error {
		g.Permissions = append(g.Permissions, Permission{
			Name:  string(key[len(permPrefix):]),
			Value: 0 != len(value) && 0 != value[0],
		})
		return nil
	})
	if nil != err {
		return nil, err
	}

	return g, nil
}

// Save - rewrite a whole group in one transaction
//
// permissions removed from the set disappear from the store
func (s *Store) Save(g *Group) error {
	if !validName(g.Name) {
		return fault.ErrInvalidGroupName
	}

	pool := s.store.Pool.Groups

	// stale permission keys, collected before staging the rewrite
	stale := [][]byte{}
	err := pool.Range(permissionKey(g.Name, ""), func(key []byte, value []byte) error {
		k := make([]byte, len(key))
		copy(k, key)
		stale = append(stale, k)
		return nil
	})
	if nil != err {
		return err
	}

	trx := s.store.NewDBTransaction()

	for _, key := range stale {
		trx.Delete(pool, key)
	}

	trx.Put(pool, fieldKey(g.Name, "modified"), codec.EncodeTimestamp(g.Modified))
	trx.Put(pool, fieldKey(g.Name, "prefix"), []byte(g.Prefix))
	trx.Put(pool, fieldKey(g.Name, "suffix"), []byte(g.Suffix))

	for _, permission := range g.Permissions {
		value := []byte{0}
		if permission.Value {
			value[0] = 1
		}
		trx.Put(pool, permissionKey(g.Name, permission.Name), value)
	}

	return trx.Commit()
}

// SetDefault - point the store-wide default at a group
//
// the group must exist; an account with no explicit group resolves
// to this one from its next read onward
func (s *Store) SetDefault(name string) error {
	g, err := s.Fetch(name)
	if nil != err {
		return err
	}
	if nil == g {
		return fault.ErrGroupNotFound
	}
	return s.store.Pool.Groups.Put(defaultGroupKey, []byte(name))
}

// DefaultName - current default group name, empty when unset
func (s *Store) DefaultName() (string, error) {
	value, err := s.store.Pool.Groups.Get(defaultGroupKey)
	if nil != err {
		return "", err
	}
	return string(value), nil
}

// FetchDefault - resolve the default group, nil when none is
// configured or the pointer is stale
func (s *Store) FetchDefault() (*Group, error) {
	name, err := s.DefaultName()
	if nil != err {
		return nil, err
	}
	if "" == name {
		return nil, nil
	}
	g, err := s.Fetch(name)
	if nil != err {
		return nil, err
	}
	if nil == g {
		s.log.Warnf("default group: %q does not exist", name)
	}
	return g, nil
}

// Names - list every group, for the privileged surface
func (s *Store) Names() ([]string, error) {
	names := []string{}
	last := ""
	err := s.store.Pool.Groups.Range(nil, func(key []byte, value []byte) error {
		k := string(key)
		if 0 == strings.IndexByte(k, 0x00) {
			return nil // reserved pointer key
		}
		i := strings.IndexByte(k, ':')
		if i < 0 {
			return nil
		}
		name := k[:i]
		if name != last {
			names = append(names, name)
			last = name
		}
		return nil
	})
	if nil != err {
		return nil, err
	}
	return names, nil
}
