// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package codec - fixed width binary encoding of stored values
//
// All multi-byte values are big endian so that encoded values sort
// byte-wise in numeric order, LevelDB compares keys byte-wise.
package codec

import (
	"encoding/binary"
	"time"

	"github.com/quarrynet/quarryd/fault"
)

// TimestampLength - encoded timestamp size in bytes
const TimestampLength = 7

// Uint64Length - encoded uint64 size in bytes
const Uint64Length = 8

// EncodeTimestamp - pack a UTC date-time at second precision
//
// layout: 16 bit big endian year then month, day, hour, minute and
// second as one byte each; all of these fit unsigned 8 bit values
func EncodeTimestamp(t time.Time) []byte {
	t = t.UTC()
	return []byte{
		byte(t.Year() >> 8),
		byte(t.Year()),
		byte(t.Month()),
		byte(t.Day()),
		byte(t.Hour()),
		byte(t.Minute()),
		byte(t.Second()),
	}
}

// DecodeTimestamp - unpack a 7 byte timestamp record
//
// fails if the buffer is short or the reconstructed calendar
// date-time is not valid (e.g. month 13 or 31 February)
func DecodeTimestamp(buffer []byte) (time.Time, error) {
	if len(buffer) < TimestampLength {
		return time.Time{}, fault.ErrCorruptTimestamp
	}

	year := int(buffer[0])<<8 | int(buffer[1])
	month := int(buffer[2])
	day := int(buffer[3])
	hour := int(buffer[4])
	minute := int(buffer[5])
	second := int(buffer[6])

	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)

	// time.Date normalises out of range values, so an invalid
	// record is detected by the components not surviving the trip
	if t.Year() != year || int(t.Month()) != month || t.Day() != day ||
		t.Hour() != hour || t.Minute() != minute || t.Second() != second {
		return time.Time{}, fault.ErrCorruptTimestamp
	}

	return t, nil
}

// EncodeUint64 - pack an unsigned 64 bit value as 8 bytes big endian
func EncodeUint64(n uint64) []byte {
	buffer := make([]byte, Uint64Length)
	binary.BigEndian.PutUint64(buffer, n)
	return buffer
}

// DecodeUint64 - unpack an 8 byte big endian counter record
func DecodeUint64(buffer []byte) (uint64, error) {
	if len(buffer) < Uint64Length {
		return 0, fault.ErrCorruptCounter
	}
	return binary.BigEndian.Uint64(buffer[:Uint64Length]), nil
}
