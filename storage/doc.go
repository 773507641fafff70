// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// maintain the on-disk player data store
//
// maintain separate pools of a number of elements in key->value form
//
// This maintains a LevelDB database split into a series of tables.
// Each table is defined by a prefix byte that is obtained from the
// prefix tag in the struct defining the available tables.
//
// Notes:
// 1. each separate pool has a single byte prefix (to spread the keys in LevelDB)
// 2. ++            = concatenation of byte data
// 3. uuid          = account identifier as UTF-8 text
// 4. id            = punishment number as big endian uint64 (8 bytes)
// 5. timestamp     = 7 byte second precision date-time (see codec)
// 6. bool          = single byte 0/1
// 7. *others*      = byte values of various length
//
// Users:
//
//   U ++ uuid:field          - user scalar field
//                              data: field dependent (text, bool, uint64, timestamp)
//   U ++ uuid:friends:uuid   - friend set member, data: empty
//   U ++ uuid:ignores:uuid   - ignore set member, data: empty
//   U ++ uuid:perms:name     - user permission, data: bool
//   U ++ uuid:punishments:id - link to punishment record, data: empty
//   U ++ uuid:inbox          - whole inbox, data: tagged mail records
//
// Name index:
//
//   N ++ lowercase name      - data: uuid
//
// IP index:
//
//   I ++ ip address          - data: uuid
//
// Groups:
//
//   G ++ name:prefix         - data: text
//   G ++ name:suffix         - data: text
//   G ++ name:modified       - data: timestamp (marks group existence)
//   G ++ name:perms:name     - data: bool
//   G ++ 0x00 ++ "default"   - the default group pointer, data: group name
//
// Punishments:
//
//   P ++ id                  - data: packed punishment record
//   P ++ 0x00 ++ "SEQ"       - next id allocator, data: big endian uint64
//
// IP punishments:
//
//   Q ++ subnet ++ ":" ++ id - subnet bucket entry, data: empty
//                              subnet = ip address without its final octet
package storage
