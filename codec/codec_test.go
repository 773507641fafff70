// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package codec_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/quarrynet/quarryd/codec"
	"github.com/quarrynet/quarryd/fault"
)

// timestamps must survive an encode/decode round trip
func TestTimestampRoundTrip(t *testing.T) {
	testList := []time.Time{
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1999, time.December, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2000, time.February, 29, 6, 7, 8, 0, time.UTC),
		time.Date(2038, time.July, 15, 12, 30, 45, 0, time.UTC),
		time.Now().UTC().Truncate(time.Second),
	}

	for i, expected := range testList {
		buffer := codec.EncodeTimestamp(expected)
		if codec.TimestampLength != len(buffer) {
			t.Fatalf("%d: encoded length: %d  expected: %d", i, len(buffer), codec.TimestampLength)
		}
		actual, err := codec.DecodeTimestamp(buffer)
		if nil != err {
			t.Fatalf("%d: decode error: %s", i, err)
		}
		if !actual.Equal(expected) {
			t.Errorf("%d: decoded: %v  expected: %v", i, actual, expected)
		}
	}
}

// a short buffer is corrupt data, never a partial decode
func TestTimestampShortBuffer(t *testing.T) {
	buffer := codec.EncodeTimestamp(time.Now())
	for i := 0; i < codec.TimestampLength; i += 1 {
		_, err := codec.DecodeTimestamp(buffer[:i])
		if fault.ErrCorruptTimestamp != err {
			t.Errorf("length %d: error: %v  expected: %v", i, err, fault.ErrCorruptTimestamp)
		}
	}
}

// impossible calendar values must be rejected
func TestTimestampInvalidCalendar(t *testing.T) {
	testList := [][]byte{
		{0x07, 0xe4, 13, 1, 0, 0, 0},   // month 13
		{0x07, 0xe4, 0, 1, 0, 0, 0},    // month 0
		{0x07, 0xe4, 2, 30, 0, 0, 0},   // 30 February
		{0x07, 0xe5, 2, 29, 0, 0, 0},   // 29 February 2021
		{0x07, 0xe4, 1, 1, 24, 0, 0},   // hour 24
		{0x07, 0xe4, 1, 1, 0, 60, 0},   // minute 60
		{0x07, 0xe4, 1, 1, 0, 0, 61},   // second 61
		{0x07, 0xe4, 4, 31, 12, 0, 0},  // 31 April
		{0x07, 0xe4, 6, 0, 12, 00, 00}, // day 0
	}
	for i, buffer := range testList {
		_, err := codec.DecodeTimestamp(buffer)
		if fault.ErrCorruptTimestamp != err {
			t.Errorf("%d: error: %v  expected: %v", i, err, fault.ErrCorruptTimestamp)
		}
	}
}

// counters must round trip and keep byte-wise sort order
func TestUint64(t *testing.T) {
	testList := []uint64{0, 1, 255, 256, 0xdeadbeef, 1<<63 + 5, ^uint64(0)}

	previous := []byte(nil)
	for i, expected := range testList {
		buffer := codec.EncodeUint64(expected)
		if codec.Uint64Length != len(buffer) {
			t.Fatalf("%d: encoded length: %d  expected: %d", i, len(buffer), codec.Uint64Length)
		}
		actual, err := codec.DecodeUint64(buffer)
		if nil != err {
			t.Fatalf("%d: decode error: %s", i, err)
		}
		if actual != expected {
			t.Errorf("%d: decoded: %d  expected: %d", i, actual, expected)
		}
		if nil != previous && bytes.Compare(previous, buffer) >= 0 {
			t.Errorf("%d: keys not strictly increasing: %x >= %x", i, previous, buffer)
		}
		previous = buffer
	}

	_, err := codec.DecodeUint64([]byte{1, 2, 3})
	if fault.ErrCorruptCounter != err {
		t.Errorf("short buffer error: %v  expected: %v", err, fault.ErrCorruptCounter)
	}
}
