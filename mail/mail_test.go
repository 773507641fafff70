// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mail_test

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quarrynet/quarryd/fault"
	"github.com/quarrynet/quarryd/mail"
)

var submitted = time.Date(2024, time.March, 5, 17, 42, 9, 0, time.UTC)

func sampleInbox() []mail.Mail {
	return []mail.Mail{
		&mail.Message{
			Sender:    "console",
			Submitted: submitted,
			Text:      "welcome to the network",
		},
		&mail.CoinsGrant{
			Sender:    "events",
			Submitted: submitted.Add(time.Hour),
			Text:      "tournament reward",
			Amount:    2500,
		},
		&mail.Message{
			Sender:    "moderator",
			Submitted: submitted.Add(2 * time.Hour),
			Text:      "please review the rules",
			Deleted:   true,
		},
	}
}

// an inbox must survive the encode/decode round trip in order
func TestInboxRoundTrip(t *testing.T) {
	expected := sampleInbox()

	decoded, err := mail.UnpackInbox(mail.PackInbox(expected))
	assert.Nil(t, err, "unpack error")
	assert.Equal(t, expected, decoded, "inbox changed across round trip")
}

// empty inbox encodes to an empty value
func TestInboxEmpty(t *testing.T) {
	packed := mail.PackInbox(nil)
	assert.Equal(t, 0, len(packed), "empty inbox must pack to nothing")

	decoded, err := mail.UnpackInbox(packed)
	assert.Nil(t, err, "unpack error")
	assert.Equal(t, 0, len(decoded), "empty inbox must stay empty")
}

// a record with an unknown tag is dropped, the rest survives
func TestInboxUnknownTagSkipped(t *testing.T) {
	packed := mail.PackInbox(sampleInbox())

	// splice an unknown record between the existing ones
	unknownBody := []byte("future mail variant")
	unknown := make([]byte, 5, 5+len(unknownBody))
	unknown[0] = 0x7f
	binary.BigEndian.PutUint32(unknown[1:5], uint32(len(unknownBody)))
	unknown = append(unknown, unknownBody...)

	spliced := append(append([]byte{}, unknown...), packed...)

	decoded, err := mail.UnpackInbox(spliced)
	assert.Nil(t, err, "unpack error")
	assert.Equal(t, sampleInbox(), decoded, "known records must survive an unknown tag")
}

// a truncated record is structural corruption, not a skip
func TestInboxTruncated(t *testing.T) {
	packed := mail.PackInbox(sampleInbox())

	for _, cut := range []int{1, 4, 5, len(packed) - 1} {
		_, err := mail.UnpackInbox(packed[:cut])
		assert.Equal(t, fault.ErrCorruptInbox, err, "cut at %d", cut)
	}
}

// coins can only be claimed once
func TestCoinsClaimOnce(t *testing.T) {
	grant := &mail.CoinsGrant{
		Sender:    "events",
		Submitted: submitted,
		Amount:    800,
	}

	amount, ok := grant.Claim()
	assert.True(t, ok, "first claim must succeed")
	assert.Equal(t, uint64(800), amount, "first claim amount")

	amount, ok = grant.Claim()
	assert.False(t, ok, "second claim must be a no-op")
	assert.Equal(t, uint64(0), amount, "second claim amount")

	// the claimed flag must survive storage
	decoded, err := mail.UnpackInbox(mail.PackInbox([]mail.Mail{grant}))
	assert.Nil(t, err, "unpack error")
	assert.True(t, decoded[0].(*mail.CoinsGrant).Claimed, "claimed flag lost")
}
