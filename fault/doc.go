// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fault - error instances
//
// Provides a single instance of errors to allow easy comparison
// without having to resort to partial string matches
//
// Errors are grouped into classes so that the request layer can map
// them to a response status without knowing every individual error:
// invalid data from a caller, a record that does not exist, bytes on
// disk that fail their format contract, or a failure reported by the
// underlying store.
package fault
