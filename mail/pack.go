// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mail

import (
	"bytes"
	"encoding/binary"

	"github.com/quarrynet/quarryd/codec"
	"github.com/quarrynet/quarryd/fault"
)

// record layout:
//
//   tag      1 byte
//   length   4 bytes big endian, size of the body that follows
//   body     variant dependent
//
// message body:    sender cs ++ submitted timestamp ++ deleted bool ++ text cs
// coins body:      message body ++ amount uint64 ++ claimed bool
//
// cs = counted string: 2 byte big endian length ++ UTF-8 bytes

func packBool(flag bool) byte {
	if flag {
		return 1
	}
	return 0
}

func packCountedString(buffer *bytes.Buffer, s string) {
	size := make([]byte, 2)
	binary.BigEndian.PutUint16(size, uint16(len(s)))
	buffer.Write(size)
	buffer.WriteString(s)
}

func unpackCountedString(buffer []byte) (string, []byte, error) {
	if len(buffer) < 2 {
		return "", nil, fault.ErrCorruptInbox
	}
	size := int(binary.BigEndian.Uint16(buffer))
	buffer = buffer[2:]
	if len(buffer) < size {
		return "", nil, fault.ErrCorruptInbox
	}
	return string(buffer[:size]), buffer[size:], nil
}

func (m *Message) packBody() []byte {
	buffer := &bytes.Buffer{}
	packCountedString(buffer, m.Sender)
	buffer.Write(codec.EncodeTimestamp(m.Submitted))
	buffer.WriteByte(packBool(m.Deleted))
	packCountedString(buffer, m.Text)
	return buffer.Bytes()
}

func (c *CoinsGrant) packBody() []byte {
	buffer := &bytes.Buffer{}
	packCountedString(buffer, c.Sender)
	buffer.Write(codec.EncodeTimestamp(c.Submitted))
	buffer.WriteByte(packBool(c.Deleted))
	packCountedString(buffer, c.Text)
	buffer.Write(codec.EncodeUint64(c.Amount))
	buffer.WriteByte(packBool(c.Claimed))
	return buffer.Bytes()
}

// PackInbox - encode an ordered list of mail into one value
func PackInbox(inbox []Mail) []byte {
	buffer := &bytes.Buffer{}
	for _, m := range inbox {
		body := m.packBody()
		size := make([]byte, 4)
		binary.BigEndian.PutUint32(size, uint32(len(body)))
		buffer.WriteByte(m.Tag())
		buffer.Write(size)
		buffer.Write(body)
	}
	return buffer.Bytes()
}

// UnpackInbox - decode an inbox value
//
// a record with an unknown tag is skipped, order of the remaining
// records is preserved; a truncated record is corrupt data
func UnpackInbox(buffer []byte) ([]Mail, error) {
	inbox := []Mail(nil)

	for len(buffer) > 0 {
		if len(buffer) < 5 {
			return nil, fault.ErrCorruptInbox
		}
		tag := buffer[0]
		size := int(binary.BigEndian.Uint32(buffer[1:5]))
		buffer = buffer[5:]
		if len(buffer) < size {
			return nil, fault.ErrCorruptInbox
		}
		body := buffer[:size]
		buffer = buffer[size:]

		switch tag {
		case TagMessage:
			m, err := unpackMessage(body)
			if nil != err {
				return nil, err
			}
			inbox = append(inbox, m)

		case TagCoins:
			c, err := unpackCoins(body)
			if nil != err {
				return nil, err
			}
			inbox = append(inbox, c)

		default:
			// an unknown variant from newer software, ignore it
		}
	}
	return inbox, nil
}

// common leading fields of every variant
func unpackCommon(body []byte) (sender string, submitted []byte, deleted bool, rest []byte, err error) {
	sender, body, err = unpackCountedString(body)
	if nil != err {
		return "", nil, false, nil, err
	}
	if len(body) < codec.TimestampLength+1 {
		return "", nil, false, nil, fault.ErrCorruptInbox
	}
	submitted = body[:codec.TimestampLength]
	deleted = 0 != body[codec.TimestampLength]
	rest = body[codec.TimestampLength+1:]
	return sender, submitted, deleted, rest, nil
}

func unpackMessage(body []byte) (*Message, error) {
	sender, submitted, deleted, rest, err := unpackCommon(body)
	if nil != err {
		return nil, err
	}
	when, err := codec.DecodeTimestamp(submitted)
	if nil != err {
		return nil, err
	}
	text, _, err := unpackCountedString(rest)
	if nil != err {
		return nil, err
	}
	return &Message{
		Sender:    sender,
		Submitted: when,
		Text:      text,
		Deleted:   deleted,
	}, nil
}

func unpackCoins(body []byte) (*CoinsGrant, error) {
	sender, submitted, deleted, rest, err := unpackCommon(body)
	if nil != err {
		return nil, err
	}
	when, err := codec.DecodeTimestamp(submitted)
	if nil != err {
		return nil, err
	}
	text, rest, err := unpackCountedString(rest)
	if nil != err {
		return nil, err
	}
	if len(rest) < codec.Uint64Length+1 {
		return nil, fault.ErrCorruptInbox
	}
	amount, err := codec.DecodeUint64(rest)
	if nil != err {
		return nil, err
	}
	return &CoinsGrant{
		Sender:    sender,
		Submitted: when,
		Text:      text,
		Deleted:   deleted,
		Amount:    amount,
		Claimed:   0 != rest[codec.Uint64Length],
	}, nil
}
