// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package player - accounts and their storage
//
// An account is created on first successful login and never deleted,
// moderation only ever adds records. The full account view is
// assembled from many scattered keys on every read; see the storage
// package doc for the on-disk layout.
package player

import (
	"sort"
	"time"

	"github.com/quarrynet/quarryd/group"
	"github.com/quarrynet/quarryd/mail"
	"github.com/quarrynet/quarryd/punishment"
)

// PMMode - who may open a private conversation with the account
type PMMode byte

// persisted values - never renumber
const (
	PMEnabled            PMMode = iota // anyone
	PMEnabledWithIgnores               // anyone not on the ignore list
	PMFriendsOnly                      // friends only
	PMDisabled                         // nobody
)

// User - one account
type User struct {
	UUID string // immutable after creation
	Name string

	Email             string // empty when unset
	ChatEnabled       bool
	Messages          PMMode
	Suffix            string
	Language          string
	ScoreboardEnabled bool
	Coins             uint64
	FriendRequests    bool
	PackPrompt        bool
	TipFirstFriend    bool
	CreatedAt         time.Time // set once, second precision
	LastAddress       string    // most recent indexed login address

	Friends     []string
	Ignores     []string
	Permissions []group.Permission
	Inbox       []mail.Mail

	// explicit group reference; empty means the account follows
	// whatever default group is configured at read time
	GroupName string

	// resolved view, explicit reference or the store default
	Group *group.Group

	// punishments linked to this account
	Punishments []*punishment.Punishment

	// punishments inherited from the login subnet, assembled at
	// read time and never written back to this account
	SubnetPunishments []*punishment.Punishment
}

// NewUser - an account with the first-login defaults
func NewUser(uuid string, name string, now time.Time) *User {
	return &User{
		UUID:              uuid,
		Name:              name,
		ChatEnabled:       true,
		Messages:          PMEnabledWithIgnores,
		Language:          "en",
		ScoreboardEnabled: true,
		FriendRequests:    true,
		PackPrompt:        true,
		CreatedAt:         now.UTC().Truncate(time.Second),
	}
}

// AllPunishments - owned and inherited records, most severe first
func (u *User) AllPunishments() []*punishment.Punishment {
	all := make([]*punishment.Punishment, 0, len(u.Punishments)+len(u.SubnetPunishments))
	all = append(all, u.Punishments...)
	all = append(all, u.SubnetPunishments...)
	sort.SliceStable(all, func(i int, j int) bool {
		return all[i].MoreSevere(all[j])
	})
	return all
}

// ActivePunishments - as AllPunishments but without expired records
func (u *User) ActivePunishments(now time.Time) []*punishment.Punishment {
	active := []*punishment.Punishment(nil)
	for _, p := range u.AllPunishments() {
		if !p.IsExpired(now) {
			active = append(active, p)
		}
	}
	return active
}

// IsFriend - check the friend set
func (u *User) IsFriend(uuid string) bool {
	for _, f := range u.Friends {
		if f == uuid {
			return true
		}
	}
	return false
}

// IsIgnoring - check the ignore set
func (u *User) IsIgnoring(uuid string) bool {
	for _, f := range u.Ignores {
		if f == uuid {
			return true
		}
	}
	return false
}

// MayMessage - apply the private message mode against a sender
func (u *User) MayMessage(sender string) bool {
	switch u.Messages {
	case PMEnabled:
		return true
	case PMEnabledWithIgnores:
		return !u.IsIgnoring(sender)
	case PMFriendsOnly:
		return u.IsFriend(sender)
	case PMDisabled:
		return false
	default:
		return false
	}
}
