// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package player

import (
	"net"
	"strings"
	"time"

	"github.com/quarrynet/quarryd/codec"
	"github.com/quarrynet/quarryd/fault"
	"github.com/quarrynet/quarryd/punishment"
)

// subnetPrefix - bucket key for an address family
//
// IPv4 buckets by /24, IPv6 by dropping the last group; addresses
// that share a bucket share ip-flagged punishments
func subnetPrefix(address string) (string, error) {
	ip := net.ParseIP(address)
	if nil == ip {
		return "", fault.ErrInvalidIpAddress
	}
	if nil != ip.To4() {
		i := strings.LastIndexByte(address, '.')
		return address[:i] + ":", nil
	}
	i := strings.LastIndexByte(address, ':')
	return address[:i] + ":", nil
}

// FetchConnected - fetch an account at connection time
//
// creates the account on first login, refreshes the name and the
// name/address indexes, then folds the punishments of the address
// subnet into the returned view; inherited punishments stay out of
// the account's own record, and expiry is the caller's concern via
// ActivePunishments
func (s *Store) FetchConnected(accountID string, name string, address string) (*User, error) {
	if !validUUID(accountID) {
		return nil, fault.ErrInvalidUuid
	}
	prefix, err := subnetPrefix(address)
	if nil != err {
		return nil, err
	}

	u, err := s.Fetch(accountID)
	if nil != err {
		return nil, err
	}
	if nil == u {
		u, err = s.CreateNewPlayer(accountID, name)
		if nil != err {
			return nil, err
		}
	}

	// point writes, the rest of the account is untouched
	pool := s.store.Pool.Users
	if u.Name != name {
		u.Name = name
		err = pool.Put(fieldKey(accountID, fieldName), []byte(name))
		if nil != err {
			return nil, err
		}
	}
	if u.LastAddress != address {
		u.LastAddress = address
		err = pool.Put(fieldKey(accountID, fieldLastAddress), []byte(address))
		if nil != err {
			return nil, err
		}
	}
	err = s.store.Pool.NameIndex.Put([]byte(strings.ToLower(name)), []byte(accountID))
	if nil != err {
		return nil, err
	}
	err = s.store.Pool.IpIndex.Put([]byte(address), []byte(accountID))
	if nil != err {
		return nil, err
	}

	own := make(map[uint64]struct{})
	for _, p := range u.Punishments {
		own[p.ID] = struct{}{}
	}

	err = s.store.Pool.IpPunishments.Range([]byte(prefix), func(key []byte, value []byte) error {
		id8 := key[len(prefix):]
		record, err := s.store.Pool.Punishments.Get(id8)
		if nil != err {
			return err
		}
		if nil == record {
			s.log.Criticalf("subnet: %q links missing punishment: %x", prefix, id8)
			return fault.ErrCorruptPunishmentLink
		}
		p, err := punishment.Unpack(record)
		if nil != err {
			return err
		}
		if _, mine := own[p.ID]; mine {
			return nil
		}
		u.SubnetPunishments = append(u.SubnetPunishments, p)
		return nil
	})
	if nil != err {
		return nil, err
	}

	return u, nil
}

// CreatePunishment - issue a punishment against an account
//
// the record, the account link and the optional subnet entry are
// committed together; an ip-flagged punishment needs an address on
// record from a previous connection
func (s *Store) CreatePunishment(
	accountID string,
	kind punishment.Kind,
	title string,
	reason string,
	expiresAt *time.Time,
	alsoIP bool,
) (*punishment.Punishment, error) {

	exists, err := s.store.Pool.Users.Has(fieldKey(accountID, fieldName))
	if nil != err {
		return nil, err
	}
	if !exists {
		return nil, fault.ErrUserNotFound
	}

	prefix := ""
	if alsoIP {
		address, err := s.store.Pool.Users.Get(fieldKey(accountID, fieldLastAddress))
		if nil != err {
			return nil, err
		}
		if nil == address {
			return nil, fault.ErrNoIndexedIp
		}
		prefix, err = subnetPrefix(string(address))
		if nil != err {
			return nil, err
		}
	}

	p, err := punishment.New(kind, title, reason, time.Now(), expiresAt, alsoIP)
	if nil != err {
		return nil, err
	}
	p.ID, err = s.store.NextPunishmentID()
	if nil != err {
		return nil, err
	}

	id8 := codec.EncodeUint64(p.ID)

	trx := s.store.NewDBTransaction()
	trx.Put(s.store.Pool.Punishments, id8, p.Pack())
	trx.Put(s.store.Pool.Users, memberKey(accountID, relationPunishments, id8), []byte{})
	if alsoIP {
		trx.Put(s.store.Pool.IpPunishments, append([]byte(prefix), id8...), []byte{})
	}
	err = trx.Commit()
	if nil != err {
		return nil, err
	}

	s.log.Infof("punishment: %d kind: %d account: %s alsoip: %t", p.ID, kind, accountID, alsoIP)
	return p, nil
}
