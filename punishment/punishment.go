// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package punishment - moderation records
//
// A punishment is append-only: created once with a store generated
// id and never edited. What a punishment forbids is carried as four
// capability flags so the game servers do not need to know the kind
// to enforce it.
package punishment

import (
	"time"

	"github.com/quarrynet/quarryd/fault"
)

// Kind - the punishment variant
type Kind byte

// variant serial numbers, persisted - never renumber
const (
	Ban Kind = iota
	Blacklist
	Mute
	RankedBan
	Warn
	Custom
)

// Punishment - one moderation record
type Punishment struct {
	ID        uint64
	Kind      Kind
	Title     string
	CreatedAt time.Time
	ExpiresAt *time.Time // nil when permanent
	Reason    string
	AlsoIP    bool

	// capabilities left to the punished account
	AllowChat      bool
	AllowRanked    bool
	AllowUnranked  bool
	AllowMinigames bool
}

// New - build an unsaved record of a given kind
//
// every kind except Custom fixes the capability flags; a Custom
// record starts fully permissive and the caller restricts it
func New(kind Kind, title string, reason string, createdAt time.Time, expiresAt *time.Time, alsoIP bool) (*Punishment, error) {
	p := &Punishment{
		Kind:           kind,
		Title:          title,
		CreatedAt:      createdAt,
		ExpiresAt:      expiresAt,
		Reason:         reason,
		AlsoIP:         alsoIP,
		AllowChat:      true,
		AllowRanked:    true,
		AllowUnranked:  true,
		AllowMinigames: true,
	}

	switch kind {
	case Ban, Blacklist:
		p.AllowChat = false
		p.AllowRanked = false
		p.AllowUnranked = false
		p.AllowMinigames = false
	case Mute:
		p.AllowChat = false
	case RankedBan:
		p.AllowRanked = false
	case Warn, Custom:
		// nothing denied
	default:
		return nil, fault.ErrInvalidPunishmentKind
	}
	return p, nil
}

// Priority - derived severity, not stored
//
// one point per denied capability plus one when the record also
// covers the subject's address range
func (p *Punishment) Priority() int {
	priority := 0
	if p.AlsoIP {
		priority += 1
	}
	if !p.AllowChat {
		priority += 1
	}
	if !p.AllowRanked {
		priority += 1
	}
	if !p.AllowUnranked {
		priority += 1
	}
	if !p.AllowMinigames {
		priority += 1
	}
	return priority
}

// IsExpired - check the record against a point in time
//
// a permanent record never expires
func (p *Punishment) IsExpired(now time.Time) bool {
	if nil == p.ExpiresAt {
		return false
	}
	return p.ExpiresAt.Before(now)
}

// MoreSevere - sort order for display and enforcement
//
// higher priority wins; on equal priority a permanent record comes
// before an expiring one and of two expiring records the one ending
// later comes first
func (p *Punishment) MoreSevere(other *Punishment) bool {
	if p.Priority() != other.Priority() {
		return p.Priority() > other.Priority()
	}

	if nil == p.ExpiresAt {
		return nil != other.ExpiresAt
	}
	if nil == other.ExpiresAt {
		return false
	}
	return p.ExpiresAt.After(*other.ExpiresAt)
}
