// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"

	"github.com/quarrynet/quarryd/fault"
	"github.com/quarrynet/quarryd/group"
	"github.com/quarrynet/quarryd/player"
	"github.com/quarrynet/quarryd/storage"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		exitwithstatus.Message("%s: version: %s", program, version)
	}

	if len(options["help"]) > 0 {
		exitwithstatus.Message("usage: %s [--help] [--verbose] [--quiet] --config-file=FILE", program)
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	// read options and parse the configuration file
	configurationFile := options["config-file"][0]
	theConfiguration, err := getConfiguration(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// channel for last-resort logging on a panic
	if err = fault.Initialise(); nil != err {
		exitwithstatus.Message("%s: fault initialise error: %s", program, err)
	}
	defer fault.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)
	log.Infof("network: %s", theConfiguration.Network)

	// ------------------
	// start of real main
	// ------------------

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	// start the data storage
	log.Info("initialise storage")
	databasePath := filepath.Join(theConfiguration.Database.Directory, filepath.Base(theConfiguration.Database.Name))
	store, mustMigrate, err := storage.Initialise(databasePath, storage.ReadWrite)
	if nil != err {
		log.Criticalf("storage initialise error: %s", err)
		exitwithstatus.Message("storage initialise error: %s", err)
	}
	defer store.Finalise()

	if mustMigrate {
		// all record encodings are forward compatible so far, the
		// migration is just the version stamp
		log.Warn("database migration required")
		err = store.MigrationDone()
		if nil != err {
			log.Criticalf("migration error: %s", err)
			exitwithstatus.Message("migration error: %s", err)
		}
		log.Warn("database migration complete")
	}

	// repositories
	groups := group.New(store)
	players := player.New(store, groups)

	// administrative enquiries run against the opened database and
	// exit without starting the daemon loop
	if len(arguments) > 0 {
		if !processDataCommand(groups, players, arguments) {
			exitwithstatus.Message("%s: unknown command: %q", program, arguments[0])
		}
		return
	}

	err = applyDefaultGroup(groups, theConfiguration.DefaultGroup, log)
	if nil != err {
		log.Criticalf("default group error: %s", err)
		exitwithstatus.Message("default group error: %s", err)
	}

	// watch the configuration file, only the default group is dynamic
	watcher, err := newConfigWatcher(configurationFile, logger.New(fileWatcherLoggerPrefix))
	if nil != err {
		log.Criticalf("file watcher error: %s", err)
		exitwithstatus.Message("file watcher error: %s", err)
	}
	err = watcher.start()
	if nil != err {
		log.Criticalf("file watcher start error: %s", err)
		exitwithstatus.Message("file watcher start error: %s", err)
	}

	names, err := groups.Names()
	if nil != err {
		log.Criticalf("group enumeration error: %s", err)
		exitwithstatus.Message("group enumeration error: %s", err)
	}
	log.Infof("groups: %v", names)
	log.Info("ready")

	// wait for termination, reloading the dynamic configuration on
	// file change
	sigChannel := make(chan os.Signal, 1)
	signal.Notify(sigChannel, syscall.SIGINT, syscall.SIGTERM)

running:
	for {
		select {
		case sig := <-sigChannel:
			log.Infof("signal: %v", sig)
			break running

		case <-watcher.remove:
			log.Warn("configuration file removed, shutting down")
			break running

		case <-watcher.change:
			log.Info("reloading configuration")
			reloaded, err := getConfiguration(configurationFile)
			if nil != err {
				log.Errorf("configuration reload error: %s", err)
				continue running
			}
			err = applyDefaultGroup(groups, reloaded.DefaultGroup, log)
			if nil != err {
				log.Errorf("default group reload error: %s", err)
			}
		}
	}

	log.Info("shutting down…")
}

// applyDefaultGroup - point the store at the configured default group
//
// the group is created empty when it does not exist yet; an empty
// name leaves whatever default the store already has
func applyDefaultGroup(groups *group.Store, name string, log *logger.L) error {
	if "" == name {
		return nil
	}

	g, err := groups.Fetch(name)
	if nil != err {
		return err
	}
	if nil == g {
		log.Infof("creating default group: %q", name)
		err = groups.Save(group.NewGroup(name, time.Now()))
		if nil != err {
			return err
		}
	}

	current, err := groups.DefaultName()
	if nil != err {
		return err
	}
	if current == name {
		return nil
	}

	log.Infof("default group: %q", name)
	return groups.SetDefault(name)
}
