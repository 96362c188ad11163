// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"errors"
	"syscall"
)

// transientErr reports whether err, or any of its wrapped causes, is
// transient from the perspective of completing an HTTP request
// attempt: a client-side timeout, a refused connection (the remote
// service may be mid-restart), or a reset connection.
//
// Errors exposing a Temporary() method are deliberately not
// considered, as the semantics of Temporary() aren't entirely clear.
func transientErr(err error) bool {
	if err == nil {
		return false
	}

	var ht hasTimeout
	if errors.As(err, &ht) && ht.Timeout() {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ECONNRESET || errno == syscall.ECONNREFUSED
	}

	return false
}

type hasTimeout interface {
	Timeout() bool
}
