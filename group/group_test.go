// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package group_test

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"

	"github.com/quarrynet/quarryd/fault"
	"github.com/quarrynet/quarryd/group"
	"github.com/quarrynet/quarryd/storage"
)

const (
	databaseFileName = "test-group"
	logDirectory     = "test-group-log"
)

var modified = time.Date(2024, time.May, 2, 8, 15, 0, 0, time.UTC)

func removeFiles() {
	os.RemoveAll(databaseFileName + "-players.leveldb")
	os.RemoveAll(logDirectory)
}

func setup(t *testing.T) (*storage.Store, *group.Store) {
	removeFiles()
	_ = os.Mkdir(logDirectory, 0700)

	logging := logger.Configuration{
		Directory: logDirectory,
		File:      fmt.Sprintf("%s.log", databaseFileName),
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}
	_ = logger.Initialise(logging)

	store, _, err := storage.Initialise(databaseFileName, storage.ReadWrite)
	if nil != err {
		t.Fatalf("storage initialise error: %s", err)
	}
	return store, group.New(store)
}

func teardown(t *testing.T, store *storage.Store) {
	store.Finalise()
	logger.Finalise()
	removeFiles()
}

func sampleGroup() *group.Group {
	return &group.Group{
		Name:   "mod",
		Prefix: "[MOD] ",
		Suffix: " ✷",
		Permissions: []group.Permission{
			{Name: "chat.bypass-filter", Value: true},
			{Name: "server.kick", Value: true},
		},
		Modified: modified,
	}
}

// a saved group must read back whole
func TestSaveFetch(t *testing.T) {
	store, groups := setup(t)
	defer teardown(t, store)

	expected := sampleGroup()
	err := groups.Save(expected)
	assert.Nil(t, err, "save error")

	actual, err := groups.Fetch("mod")
	assert.Nil(t, err, "fetch error")
	assert.Equal(t, expected, actual, "group changed across save/fetch")
}

// a missing group is absence, not an error
func TestFetchMissing(t *testing.T) {
	store, groups := setup(t)
	defer teardown(t, store)

	g, err := groups.Fetch("nonexistent")
	assert.Nil(t, err, "fetch error")
	assert.Nil(t, g, "missing group must fetch as nil")
}

// a rewrite drops permissions that were removed from the set
func TestSaveIsFullRewrite(t *testing.T) {
	store, groups := setup(t)
	defer teardown(t, store)

	g := sampleGroup()
	assert.Nil(t, groups.Save(g), "save error")

	g.Permissions = []group.Permission{
		{Name: "chat.bypass-filter", Value: false},
	}
	assert.Nil(t, groups.Save(g), "rewrite error")

	actual, err := groups.Fetch("mod")
	assert.Nil(t, err, "fetch error")
	assert.Equal(t, 1, len(actual.Permissions), "stale permission survived the rewrite")
	assert.Equal(t, "chat.bypass-filter", actual.Permissions[0].Name, "wrong permission kept")
	assert.False(t, actual.Permissions[0].Value, "permission value not rewritten")
}

// invalid names are rejected before touching the store
func TestSaveInvalidName(t *testing.T) {
	store, groups := setup(t)
	defer teardown(t, store)

	for _, name := range []string{"", "bad:name", "bad\x00name"} {
		g := group.NewGroup(name, modified)
		err := groups.Save(g)
		assert.Equal(t, fault.ErrInvalidGroupName, err, "name %q", name)
	}
}

// the default pointer binds late: setting it after an account is
// created changes resolution without rewriting anything
func TestDefaultPointer(t *testing.T) {
	store, groups := setup(t)
	defer teardown(t, store)

	name, err := groups.DefaultName()
	assert.Nil(t, err, "default name error")
	assert.Equal(t, "", name, "fresh store must have no default")

	g, err := groups.FetchDefault()
	assert.Nil(t, err, "fetch default error")
	assert.Nil(t, g, "fresh store must resolve no default group")

	err = groups.SetDefault("mod")
	assert.Equal(t, fault.ErrGroupNotFound, err, "pointer must not target a missing group")

	assert.Nil(t, groups.Save(sampleGroup()), "save error")
	assert.Nil(t, groups.SetDefault("mod"), "set default error")

	name, err = groups.DefaultName()
	assert.Nil(t, err, "default name error")
	assert.Equal(t, "mod", name, "default name not stored")

	g, err = groups.FetchDefault()
	assert.Nil(t, err, "fetch default error")
	assert.Equal(t, "mod", g.Name, "default group not resolved")
}

// group enumeration for the privileged surface
func TestNames(t *testing.T) {
	store, groups := setup(t)
	defer teardown(t, store)

	for _, name := range []string{"admin", "mod", "vip"} {
		assert.Nil(t, groups.Save(group.NewGroup(name, modified)), "save error")
	}
	assert.Nil(t, groups.SetDefault("vip"), "set default error")

	names, err := groups.Names()
	assert.Nil(t, err, "names error")
	assert.Equal(t, []string{"admin", "mod", "vip"}, names, "wrong group list")
}
