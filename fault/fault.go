// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

// error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type CorruptDataError GenericError
type ProcessError GenericError

// common errors - keep in alphabetic order
var (
	ErrAlreadyInitialised       = ProcessError("already initialised")
	ErrCannotDecreaseVersion    = ProcessError("cannot decrease version")
	ErrCorruptCounter           = CorruptDataError("counter record is truncated")
	ErrCorruptGroupRecord       = CorruptDataError("group record is corrupt")
	ErrCorruptInbox             = CorruptDataError("inbox record is truncated")
	ErrCorruptPunishmentLink    = CorruptDataError("punishment link references a missing record")
	ErrCorruptPunishmentRecord  = CorruptDataError("punishment record is corrupt")
	ErrCorruptTimestamp         = CorruptDataError("timestamp record is corrupt")
	ErrGroupNotFound            = NotFoundError("group not found")
	ErrInvalidCount             = InvalidError("invalid count")
	ErrInvalidCursor            = InvalidError("invalid cursor")
	ErrInvalidGroupName         = InvalidError("group name is invalid")
	ErrInvalidIpAddress         = InvalidError("ip address is invalid")
	ErrInvalidLoggerChannel     = ProcessError("invalid logger channel")
	ErrInvalidPunishmentKind    = InvalidError("punishment kind is invalid")
	ErrInvalidStructPointer     = InvalidError("invalid struct pointer")
	ErrInvalidUuid              = InvalidError("uuid is invalid")
	ErrMailNotFound             = NotFoundError("mail not found")
	ErrNotCoinsMail             = InvalidError("mail carries no coins")
	ErrNoIndexedIp              = InvalidError("user has no indexed ip address")
	ErrNotInitialised           = ProcessError("not initialised")
	ErrPunishmentNotFound       = NotFoundError("punishment not found")
	ErrRateLimiting             = InvalidError("rate limiting active")
	ErrTokenNotFound            = NotFoundError("token has expired or does not exist")
	ErrTransactionAlreadyInUse  = ProcessError("transaction already in use")
	ErrUserNotFound             = NotFoundError("user not found")
	ErrWrongDatabaseVersion     = ProcessError("database version is newer than this program")
	ErrWrongDatabaseVersionSize = CorruptDataError("database version record has wrong size")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string      { return string(e) }
func (e InvalidError) Error() string     { return string(e) }
func (e NotFoundError) Error() string    { return string(e) }
func (e CorruptDataError) Error() string { return string(e) }
func (e ProcessError) Error() string     { return string(e) }

// determine the class of an error
func IsErrExists(e error) bool      { _, ok := e.(ExistsError); return ok }
func IsErrInvalid(e error) bool     { _, ok := e.(InvalidError); return ok }
func IsErrNotFound(e error) bool    { _, ok := e.(NotFoundError); return ok }
func IsErrCorruptData(e error) bool { _, ok := e.(CorruptDataError); return ok }
func IsErrProcess(e error) bool     { _, ok := e.(ProcessError); return ok }
