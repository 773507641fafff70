// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mail - the per-user inbox
//
// An inbox is an ordered list of tagged records stored as one value.
// The variant set is closed: a plain message and a coins grant. Each
// record carries its own length so a decoder that meets a tag it
// does not know can skip the record instead of failing the whole
// inbox; older software survives newer mail this way.
package mail

import (
	"time"
)

// record tags
const (
	TagMessage = byte(0)
	TagCoins   = byte(1)
)

// Mail - one inbox entry
type Mail interface {
	Tag() byte
	From() string
	SubmittedAt() time.Time
	IsDeleted() bool

	packBody() []byte
}

// Message - plain text mail
type Message struct {
	Sender    string
	Submitted time.Time
	Text      string
	Deleted   bool
}

// Tag - variant selector of a message
func (m *Message) Tag() byte {
	return TagMessage
}

func (m *Message) From() string {
	return m.Sender
}

func (m *Message) SubmittedAt() time.Time {
	return m.Submitted
}

func (m *Message) IsDeleted() bool {
	return m.Deleted
}

// CoinsGrant - mail carrying coins that can be claimed once
type CoinsGrant struct {
	Sender    string
	Submitted time.Time
	Text      string
	Deleted   bool
	Amount    uint64
	Claimed   bool
}

// Tag - variant selector of a coins grant
func (c *CoinsGrant) Tag() byte {
	return TagCoins
}

func (c *CoinsGrant) From() string {
	return c.Sender
}

func (c *CoinsGrant) SubmittedAt() time.Time {
	return c.Submitted
}

func (c *CoinsGrant) IsDeleted() bool {
	return c.Deleted
}

// Claim - take the coins out of the grant
//
// returns the amount on first claim and zero afterwards; a claimed
// grant is a no-op forever
func (c *CoinsGrant) Claim() (uint64, bool) {
	if c.Claimed {
		return 0, false
	}
	c.Claimed = true
	return c.Amount, true
}
