// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package session - login tokens and connection rate limiting
//
// Tokens are in-memory only. A restart drops every session and each
// client simply authenticates again, so nothing here touches the
// database.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/quarrynet/quarryd/fault"
)

// token and limiter lifetimes
const (
	defaultTokenExpiry = 30 * time.Minute
	cleanupInterval    = 5 * time.Minute

	connectionRate  = 2 // per address per second
	connectionBurst = 5
)

// Store - live tokens and per-address connection limiters
type Store struct {
	sync.Mutex
	tokens   *gocache.Cache
	limiters map[string]*rate.Limiter
}

// New - create an empty session store
//
// a zero expiry selects the default token lifetime
func New(tokenExpiry time.Duration) *Store {
	if tokenExpiry <= 0 {
		tokenExpiry = defaultTokenExpiry
	}
	return &Store{
		tokens:   gocache.New(tokenExpiry, cleanupInterval),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Grant - issue a fresh token for an account
//
// every grant makes a new token, earlier tokens for the same account
// stay valid until they expire
func (s *Store) Grant(accountID string) string {
	token := uuid.New().String()
	s.tokens.Set(token, accountID, gocache.DefaultExpiration)
	return token
}

// Lookup - resolve a token to its account
func (s *Store) Lookup(token string) (string, error) {
	accountID, found := s.tokens.Get(token)
	if !found {
		return "", fault.ErrTokenNotFound
	}
	return accountID.(string), nil
}

// Revoke - drop a token immediately
//
// revoking an unknown token is not an error
func (s *Store) Revoke(token string) {
	s.tokens.Delete(token)
}

// Attempt - account a connection attempt from an address
//
// short bursts are delayed rather than refused
func (s *Store) Attempt(address string) error {
	s.Lock()
	limiter, ok := s.limiters[address]
	if !ok {
		limiter = rate.NewLimiter(connectionRate, connectionBurst)
		s.limiters[address] = limiter
	}
	s.Unlock()

	r := limiter.Reserve()
	if !r.OK() {
		return fault.ErrRateLimiting
	}
	time.Sleep(r.Delay())
	return nil
}
