// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Player data storage daemon for the quarry network
//
// This program opens the player database, applies the configured
// default permission group and keeps it in sync with edits to the
// configuration file. With a command argument it instead runs a
// single administrative enquiry against the database and exits.
package main
