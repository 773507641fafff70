// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package player

import (
	"strings"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/google/uuid"

	"github.com/quarrynet/quarryd/codec"
	"github.com/quarrynet/quarryd/fault"
	"github.com/quarrynet/quarryd/group"
	"github.com/quarrynet/quarryd/mail"
	"github.com/quarrynet/quarryd/punishment"
	"github.com/quarrynet/quarryd/storage"
)

// Store - account repository over the users keyspace and the
// punishment, index and group keyspaces it references
type Store struct {
	store  *storage.Store
	groups *group.Store
	log    *logger.L
}

// New - create the account repository
func New(store *storage.Store, groups *group.Store) *Store {
	return &Store{
		store:  store,
		groups: groups,
		log:    logger.New("player"),
	}
}

// scalar field names within the users keyspace
const (
	fieldName        = "name"
	fieldEmail       = "email"
	fieldChat        = "chat"
	fieldMessages    = "pms"
	fieldSuffix      = "suffix"
	fieldLanguage    = "lang"
	fieldScoreboard  = "scoreboard"
	fieldCoins       = "coins"
	fieldFriendReqs  = "friendreqs"
	fieldPackPrompt  = "packprompt"
	fieldTipFriend   = "tipfriend"
	fieldCreated     = "created"
	fieldGroup       = "group"
	fieldLastAddress = "ip"
	fieldInbox       = "inbox"
)

// repeated relation names, one key per member
const (
	relationFriends     = "friends"
	relationIgnores     = "ignores"
	relationPermissions = "perms"
	relationPunishments = "punishments"
)

func fieldKey(accountID string, field string) []byte {
	return []byte(accountID + ":" + field)
}

func relationPrefix(accountID string, relation string) []byte {
	return []byte(accountID + ":" + relation + ":")
}

func memberKey(accountID string, relation string, member []byte) []byte {
	return append(relationPrefix(accountID, relation), member...)
}

func validUUID(accountID string) bool {
	_, err := uuid.Parse(accountID)
	return nil == err
}

func packBool(flag bool) []byte {
	if flag {
		return []byte{1}
	}
	return []byte{0}
}

// read a boolean field applying its default when absent
func (s *Store) getBool(accountID string, field string, absent bool) (bool, error) {
	value, err := s.store.Pool.Users.Get(fieldKey(accountID, field))
	if nil != err {
		return false, err
	}
	if nil == value {
		return absent, nil
	}
	return 0 != len(value) && 0 != value[0], nil
}

// read a string field applying its default when absent
func (s *Store) getString(accountID string, field string, absent string) (string, error) {
	value, err := s.store.Pool.Users.Get(fieldKey(accountID, field))
	if nil != err {
		return "", err
	}
	if nil == value {
		return absent, nil
	}
	return string(value), nil
}

// Fetch - assemble a whole account from its scattered keys
//
// returns nil with no error when the account does not exist; fields
// added after the account was written decode to their documented
// defaults instead of failing the read
func (s *Store) Fetch(accountID string) (*User, error) {
	pool := s.store.Pool.Users

	// the name marks existence, everything else has a default
	name, err := pool.Get(fieldKey(accountID, fieldName))
	if nil != err {
		return nil, err
	}
	if nil == name {
		return nil, nil
	}

	u := &User{
		UUID: accountID,
		Name: string(name),
	}

	if u.Email, err = s.getString(accountID, fieldEmail, ""); nil != err {
		return nil, err
	}
	if u.ChatEnabled, err = s.getBool(accountID, fieldChat, true); nil != err {
		return nil, err
	}

	pms, err := pool.Get(fieldKey(accountID, fieldMessages))
	if nil != err {
		return nil, err
	}
	u.Messages = PMEnabledWithIgnores
	if 0 != len(pms) {
		u.Messages = PMMode(pms[0])
	}

	if u.Suffix, err = s.getString(accountID, fieldSuffix, ""); nil != err {
		return nil, err
	}
	if u.Language, err = s.getString(accountID, fieldLanguage, "en"); nil != err {
		return nil, err
	}
	if u.ScoreboardEnabled, err = s.getBool(accountID, fieldScoreboard, true); nil != err {
		return nil, err
	}

	coins, found, err := pool.GetN(fieldKey(accountID, fieldCoins))
	if nil != err {
		return nil, err
	}
	if found {
		u.Coins = coins
	}

	if u.FriendRequests, err = s.getBool(accountID, fieldFriendReqs, true); nil != err {
		return nil, err
	}
	if u.PackPrompt, err = s.getBool(accountID, fieldPackPrompt, true); nil != err {
		return nil, err
	}
	if u.TipFirstFriend, err = s.getBool(accountID, fieldTipFriend, false); nil != err {
		return nil, err
	}

	created, err := pool.Get(fieldKey(accountID, fieldCreated))
	if nil != err {
		return nil, err
	}
	if nil != created {
		u.CreatedAt, err = codec.DecodeTimestamp(created)
		if nil != err {
			return nil, err
		}
	}

	if u.LastAddress, err = s.getString(accountID, fieldLastAddress, ""); nil != err {
		return nil, err
	}

	// repeated relations
	for _, relation := range []struct {
		name string
		set  *[]string
	}{
		{relationFriends, &u.Friends},
		{relationIgnores, &u.Ignores},
	} {
		prefix := relationPrefix(accountID, relation.name)
		set := relation.set
		err = pool.Range(prefix, func(key []byte, value []byte) error {
			*set = append(*set, string(key[len(prefix):]))
			return nil
		})
		if nil != err {
			return nil, err
		}
	}

	permPrefix := relationPrefix(accountID, relationPermissions)
	err = pool.Range(permPrefix, func(key []byte, value []byte) error {
		u.Permissions = append(u.Permissions, group.Permission{
			Name:  string(key[len(permPrefix):]),
			Value: 0 != len(value) && 0 != value[0],
		})
		return nil
	})
	if nil != err {
		return nil, err
	}

	// punishment links: a link without its record is a broken
	// reference and must surface, not vanish
	punishPrefix := relationPrefix(accountID, relationPunishments)
	err = pool.Range(punishPrefix, func(key []byte, value []byte) error {
		record, err := s.store.Pool.Punishments.Get(key[len(punishPrefix):])
		if nil != err {
			return err
		}
		if nil == record {
			s.log.Criticalf("account: %s links missing punishment: %x", accountID, key[len(punishPrefix):])
			return fault.ErrCorruptPunishmentLink
		}
		p, err := punishment.Unpack(record)
		if nil != err {
			return err
		}
		u.Punishments = append(u.Punishments, p)
		return nil
	})
	if nil != err {
		return nil, err
	}

	// inbox is one tagged blob
	blob, err := pool.Get(fieldKey(accountID, fieldInbox))
	if nil != err {
		return nil, err
	}
	if nil != blob {
		u.Inbox, err = mail.UnpackInbox(blob)
		if nil != err {
			return nil, err
		}
	}

	// explicit group, or whatever default is configured right now
	if u.GroupName, err = s.getString(accountID, fieldGroup, ""); nil != err {
		return nil, err
	}
	if "" == u.GroupName {
		u.Group, err = s.groups.FetchDefault()
		if nil != err {
			return nil, err
		}
	} else {
		u.Group, err = s.groups.Fetch(u.GroupName)
		if nil != err {
			return nil, err
		}
		if nil == u.Group {
			s.log.Warnf("account: %s references missing group: %q", accountID, u.GroupName)
		}
	}

	return u, nil
}

// Save - write a whole account in one transaction
//
// a reader never observes a half written account; collection
// members removed from the in-memory sets disappear from the store.
// Inherited subnet punishments are deliberately not persisted.
func (s *Store) Save(u *User) error {
	if !validUUID(u.UUID) {
		return fault.ErrInvalidUuid
	}

	pool := s.store.Pool.Users

	// stale member keys, collected before staging the rewrite
	stale := [][]byte{}
	for _, relation := range []string{
		relationFriends,
		relationIgnores,
		relationPermissions,
		relationPunishments,
	} {
		err := pool.Range(relationPrefix(u.UUID, relation), func(key []byte, value []byte) error {
			k := make([]byte, len(key))
			copy(k, key)
			stale = append(stale, k)
			return nil
		})
		if nil != err {
			return err
		}
	}

	trx := s.store.NewDBTransaction()

	for _, key := range stale {
		trx.Delete(pool, key)
	}

	trx.Put(pool, fieldKey(u.UUID, fieldName), []byte(u.Name))

	if "" == u.Email {
		trx.Delete(pool, fieldKey(u.UUID, fieldEmail))
	} else {
		trx.Put(pool, fieldKey(u.UUID, fieldEmail), []byte(u.Email))
	}

	trx.Put(pool, fieldKey(u.UUID, fieldChat), packBool(u.ChatEnabled))
	trx.Put(pool, fieldKey(u.UUID, fieldMessages), []byte{byte(u.Messages)})
	trx.Put(pool, fieldKey(u.UUID, fieldSuffix), []byte(u.Suffix))
	trx.Put(pool, fieldKey(u.UUID, fieldLanguage), []byte(u.Language))
	trx.Put(pool, fieldKey(u.UUID, fieldScoreboard), packBool(u.ScoreboardEnabled))
	trx.PutN(pool, fieldKey(u.UUID, fieldCoins), u.Coins)
	trx.Put(pool, fieldKey(u.UUID, fieldFriendReqs), packBool(u.FriendRequests))
	trx.Put(pool, fieldKey(u.UUID, fieldPackPrompt), packBool(u.PackPrompt))
	trx.Put(pool, fieldKey(u.UUID, fieldTipFriend), packBool(u.TipFirstFriend))
	trx.Put(pool, fieldKey(u.UUID, fieldCreated), codec.EncodeTimestamp(u.CreatedAt))

	if "" == u.LastAddress {
		trx.Delete(pool, fieldKey(u.UUID, fieldLastAddress))
	} else {
		trx.Put(pool, fieldKey(u.UUID, fieldLastAddress), []byte(u.LastAddress))
	}

	if "" == u.GroupName {
		trx.Delete(pool, fieldKey(u.UUID, fieldGroup))
	} else {
		trx.Put(pool, fieldKey(u.UUID, fieldGroup), []byte(u.GroupName))
	}

	for _, f := range u.Friends {
		trx.Put(pool, memberKey(u.UUID, relationFriends, []byte(f)), []byte{})
	}
	for _, f := range u.Ignores {
		trx.Put(pool, memberKey(u.UUID, relationIgnores, []byte(f)), []byte{})
	}
	for _, permission := range u.Permissions {
		trx.Put(pool, memberKey(u.UUID, relationPermissions, []byte(permission.Name)), packBool(permission.Value))
	}
	for _, p := range u.Punishments {
		trx.Put(pool, memberKey(u.UUID, relationPunishments, codec.EncodeUint64(p.ID)), []byte{})
	}

	if 0 == len(u.Inbox) {
		trx.Delete(pool, fieldKey(u.UUID, fieldInbox))
	} else {
		trx.Put(pool, fieldKey(u.UUID, fieldInbox), mail.PackInbox(u.Inbox))
	}

	return trx.Commit()
}

// CreateNewPlayer - first login of an unknown account
//
// the account gets the default field values and sees the currently
// configured default group; the group reference stays implicit so a
// later default change shows up on the next read
func (s *Store) CreateNewPlayer(accountID string, name string) (*User, error) {
	if !validUUID(accountID) {
		return nil, fault.ErrInvalidUuid
	}

	u := NewUser(accountID, name, time.Now())

	g, err := s.groups.FetchDefault()
	if nil != err {
		return nil, err
	}
	u.Group = g

	err = s.Save(u)
	if nil != err {
		return nil, err
	}
	return u, nil
}

// FetchByName - resolve an account through the name index
//
// the index is an accelerator, not authority: a hit that resolves
// to no account reads as absence
func (s *Store) FetchByName(name string) (*User, error) {
	accountID, err := s.store.Pool.NameIndex.Get([]byte(strings.ToLower(name)))
	if nil != err {
		return nil, err
	}
	if nil == accountID {
		return nil, nil
	}
	return s.Fetch(string(accountID))
}

// ClaimMail - claim the coins grant at an inbox position
//
// returns the claimed amount, zero when the grant was already
// claimed; the updated inbox and balance are persisted together
func (s *Store) ClaimMail(u *User, index int) (uint64, error) {
	if index < 0 || index >= len(u.Inbox) {
		return 0, fault.ErrMailNotFound
	}
	grant, ok := u.Inbox[index].(*mail.CoinsGrant)
	if !ok {
		return 0, fault.ErrNotCoinsMail
	}

	amount, ok := grant.Claim()
	if !ok {
		return 0, nil
	}
	u.Coins += amount

	err := s.Save(u)
	if nil != err {
		return 0, err
	}
	return amount, nil
}
