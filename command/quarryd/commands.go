// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bitmark-inc/exitwithstatus"

	"github.com/quarrynet/quarryd/group"
	"github.com/quarrynet/quarryd/player"
	"github.com/quarrynet/quarryd/punishment"
)

var punishmentKinds = map[string]punishment.Kind{
	"ban":        punishment.Ban,
	"blacklist":  punishment.Blacklist,
	"mute":       punishment.Mute,
	"ranked-ban": punishment.RankedBan,
	"warn":       punishment.Warn,
}

// process administrative enquiries against an opened database
//
// returns false if the command was not recognised
func processDataCommand(groups *group.Store, players *player.Store, arguments []string) bool {

	command := arguments[0]
	arguments = arguments[1:]

	switch command {

	case "list-groups":
		names, err := groups.Names()
		if nil != err {
			exitwithstatus.Message("group enumeration error: %s", err)
		}
		defaultName, err := groups.DefaultName()
		if nil != err {
			exitwithstatus.Message("default group error: %s", err)
		}
		for _, name := range names {
			marker := "  "
			if name == defaultName {
				marker = "* "
			}
			fmt.Printf("%s%s\n", marker, name)
		}

	case "show-group":
		if 1 != len(arguments) {
			exitwithstatus.Message("usage: show-group GROUP-NAME")
		}
		g, err := groups.Fetch(arguments[0])
		if nil != err {
			exitwithstatus.Message("group fetch error: %s", err)
		}
		if nil == g {
			exitwithstatus.Message("no such group: %q", arguments[0])
		}
		printJSON(g)

	case "set-default-group":
		if 1 != len(arguments) {
			exitwithstatus.Message("usage: set-default-group GROUP-NAME")
		}
		err := groups.SetDefault(arguments[0])
		if nil != err {
			exitwithstatus.Message("set default error: %s", err)
		}

	case "show-user":
		if 1 != len(arguments) {
			exitwithstatus.Message("usage: show-user ACCOUNT-ID")
		}
		u, err := players.Fetch(arguments[0])
		if nil != err {
			exitwithstatus.Message("user fetch error: %s", err)
		}
		if nil == u {
			exitwithstatus.Message("no such user: %q", arguments[0])
		}
		printJSON(u)

	case "show-user-by-name":
		if 1 != len(arguments) {
			exitwithstatus.Message("usage: show-user-by-name NAME")
		}
		u, err := players.FetchByName(arguments[0])
		if nil != err {
			exitwithstatus.Message("user fetch error: %s", err)
		}
		if nil == u {
			exitwithstatus.Message("no such user: %q", arguments[0])
		}
		printJSON(u)

	case "punish":
		// punish ACCOUNT-ID KIND TITLE [REASON] [MINUTES] [ip]
		if len(arguments) < 3 {
			exitwithstatus.Message("usage: punish ACCOUNT-ID KIND TITLE [REASON] [MINUTES] [ip]")
		}
		kind, ok := punishmentKinds[strings.ToLower(arguments[1])]
		if !ok {
			exitwithstatus.Message("unknown punishment kind: %q", arguments[1])
		}
		reason := ""
		if len(arguments) > 3 {
			reason = arguments[3]
		}
		var expiresAt *time.Time
		if len(arguments) > 4 {
			minutes, err := strconv.Atoi(arguments[4])
			if nil != err || minutes <= 0 {
				exitwithstatus.Message("invalid expiry minutes: %q", arguments[4])
			}
			expiry := time.Now().Add(time.Duration(minutes) * time.Minute)
			expiresAt = &expiry
		}
		alsoIP := len(arguments) > 5 && "ip" == arguments[5]

		p, err := players.CreatePunishment(arguments[0], kind, arguments[2], reason, expiresAt, alsoIP)
		if nil != err {
			exitwithstatus.Message("punishment error: %s", err)
		}
		printJSON(p)

	default:
		return false
	}

	return true
}

func printJSON(item interface{}) {
	buffer, err := json.MarshalIndent(item, "", "  ")
	if nil != err {
		exitwithstatus.Message("json marshal error: %s", err)
	}
	fmt.Printf("%s\n", buffer)
}
