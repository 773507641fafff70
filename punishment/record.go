// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package punishment

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/quarrynet/quarryd/codec"
	"github.com/quarrynet/quarryd/fault"
)

// record layout:
//
//   id          8 bytes big endian
//   kind        1 byte
//   created     7 byte timestamp
//   has expiry  1 byte bool
//   expiry      7 byte timestamp, zero filled when permanent
//   also ip     1 byte bool
//   allows      4 bytes bool: chat, ranked, unranked, minigames
//   title       counted string (2 byte big endian length ++ bytes)
//   reason      counted string

func packBool(flag bool) byte {
	if flag {
		return 1
	}
	return 0
}

// Pack - encode the record for the punishments keyspace
func (p *Punishment) Pack() []byte {
	buffer := &bytes.Buffer{}

	buffer.Write(codec.EncodeUint64(p.ID))
	buffer.WriteByte(byte(p.Kind))
	buffer.Write(codec.EncodeTimestamp(p.CreatedAt))

	if nil == p.ExpiresAt {
		buffer.WriteByte(0)
		buffer.Write(make([]byte, codec.TimestampLength))
	} else {
		buffer.WriteByte(1)
		buffer.Write(codec.EncodeTimestamp(*p.ExpiresAt))
	}

	buffer.WriteByte(packBool(p.AlsoIP))
	buffer.WriteByte(packBool(p.AllowChat))
	buffer.WriteByte(packBool(p.AllowRanked))
	buffer.WriteByte(packBool(p.AllowUnranked))
	buffer.WriteByte(packBool(p.AllowMinigames))

	for _, s := range []string{p.Title, p.Reason} {
		size := make([]byte, 2)
		binary.BigEndian.PutUint16(size, uint16(len(s)))
		buffer.Write(size)
		buffer.WriteString(s)
	}

	return buffer.Bytes()
}

// fixed part before the two counted strings
const fixedLength = codec.Uint64Length + 1 + codec.TimestampLength + 1 + codec.TimestampLength + 5

// Unpack - decode a record read back from the punishments keyspace
func Unpack(buffer []byte) (*Punishment, error) {
	if len(buffer) < fixedLength {
		return nil, fault.ErrCorruptPunishmentRecord
	}

	id, err := codec.DecodeUint64(buffer)
	if nil != err {
		return nil, fault.ErrCorruptPunishmentRecord
	}
	buffer = buffer[codec.Uint64Length:]

	kind := Kind(buffer[0])
	buffer = buffer[1:]

	createdAt, err := codec.DecodeTimestamp(buffer)
	if nil != err {
		return nil, fault.ErrCorruptPunishmentRecord
	}
	buffer = buffer[codec.TimestampLength:]

	var expiresAt *time.Time
	hasExpiry := 0 != buffer[0]
	buffer = buffer[1:]
	if hasExpiry {
		expiry, err := codec.DecodeTimestamp(buffer)
		if nil != err {
			return nil, fault.ErrCorruptPunishmentRecord
		}
		expiresAt = &expiry
	}
	buffer = buffer[codec.TimestampLength:]

	alsoIP := 0 != buffer[0]
	allowChat := 0 != buffer[1]
	allowRanked := 0 != buffer[2]
	allowUnranked := 0 != buffer[3]
	allowMinigames := 0 != buffer[4]
	buffer = buffer[5:]

	title, buffer, err := unpackCountedString(buffer)
	if nil != err {
		return nil, err
	}
	reason, _, err := unpackCountedString(buffer)
	if nil != err {
		return nil, err
	}

	return &Punishment{
		ID:             id,
		Kind:           kind,
		Title:          title,
		CreatedAt:      createdAt,
		ExpiresAt:      expiresAt,
		Reason:         reason,
		AlsoIP:         alsoIP,
		AllowChat:      allowChat,
		AllowRanked:    allowRanked,
		AllowUnranked:  allowUnranked,
		AllowMinigames: allowMinigames,
	}, nil
}

func unpackCountedString(buffer []byte) (string, []byte, error) {
	if len(buffer) < 2 {
		return "", nil, fault.ErrCorruptPunishmentRecord
	}
	size := int(binary.BigEndian.Uint16(buffer))
	buffer = buffer[2:]
	if len(buffer) < size {
		return "", nil, fault.ErrCorruptPunishmentRecord
	}
	return string(buffer[:size]), buffer[size:], nil
}
