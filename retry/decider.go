// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/gogama/onion/request"
)

// An Attempt is the state a retry decision is made on: the zero-based
// index of the attempt just finished, and the response or error it
// produced. Exactly one of Response and Err is nil.
type Attempt struct {
	// Index is the zero-based attempt number: zero for the initial
	// attempt, one for the first retry, and so on.
	Index int

	// Start is the time the first attempt began.
	Start time.Time

	// Response is the response of the attempt, nil if the attempt
	// ended in error.
	Response *request.Response

	// Err is the error the attempt ended with, nil if a response was
	// received.
	Err error
}

// StatusCode returns the status code of the attempt's response, or
// zero if the attempt ended in error.
func (a *Attempt) StatusCode() int {
	if a.Response == nil {
		return 0
	}
	return a.Response.StatusCode
}

// Duration returns the time elapsed since the first attempt began.
func (a *Attempt) Duration() time.Duration {
	return time.Since(a.Start)
}

// A Decider decides if a retry should be done.
//
// Implementations of Decider must be safe for concurrent use by
// multiple goroutines.
//
// Use the built-in constructors Times, StatusCode, and Before, and
// the built-in decider TransientErr; or implement your own. Use
// DeciderFunc to convert an ordinary function into a Decider and to
// compose deciders logically with DeciderFunc.And and DeciderFunc.Or.
type Decider interface {
	Decide(a *Attempt) bool
}

// The DeciderFunc type is an adapter to allow the use of ordinary
// functions as retry deciders. It implements the Decider interface
// and provides the logical composition methods And and Or.
//
// Every DeciderFunc must be safe for concurrent use by multiple
// goroutines.
type DeciderFunc func(a *Attempt) bool

// DefaultTimes is the number of times DefaultDecider will retry.
const DefaultTimes = 5

// DefaultDecider is a general-purpose retry decider suitable for
// common use cases. It allows up to DefaultTimes retries, and retries
// in the case of a transient error (TransientErr) or if a valid HTTP
// response was received with one of the status codes 429 (Too Many
// Requests), 502 (Bad Gateway), 503 (Service Unavailable), or 504
// (Gateway Timeout).
var DefaultDecider = Times(DefaultTimes).And(StatusCode(429, 502, 503, 504).Or(TransientErr))

// TransientErr is a decider that indicates a retry if the attempt's
// error is transient: a timeout, a refused connection, or a reset
// connection. It only looks at the error, so it always returns false
// when a valid HTTP response was received; compose it with other
// deciders for more complex behavior.
var TransientErr DeciderFunc = func(a *Attempt) bool {
	return transientErr(a.Err)
}

// Decide returns true if a retry should be done, and false otherwise,
// after examining the state of the attempt just finished.
func (f DeciderFunc) Decide(a *Attempt) bool {
	return f(a)
}

// And composes two retry deciders into a new decider which returns
// true if both sub-deciders return true, and false otherwise.
//
// Short-circuit logic is used, so g will not be evaluated if f
// returns false.
func (f DeciderFunc) And(g DeciderFunc) DeciderFunc {
	return func(a *Attempt) bool {
		return f(a) && g(a)
	}
}

// Or composes two retry deciders into a new decider which returns
// true if either of the two sub-deciders returns true, but false if
// they both return false.
//
// Short-circuit logic is used, so g will not be evaluated if f
// returns true.
func (f DeciderFunc) Or(g DeciderFunc) DeciderFunc {
	return func(a *Attempt) bool {
		return f(a) || g(a)
	}
}

// Times constructs a retry decider which allows up to n retries. The
// returned decider returns true while the attempt index is less than
// n, and false otherwise.
func Times(n int) DeciderFunc {
	return func(a *Attempt) bool {
		return a.Index < n
	}
}

// Before constructs a retry decider allowing retries until a certain
// amount of time has elapsed since the first attempt began.
func Before(d time.Duration) DeciderFunc {
	return func(a *Attempt) bool {
		return a.Duration() < d
	}
}

// StatusCode constructs a retry decider allowing retries based on the
// HTTP response status code. If the attempt received a valid HTTP
// response and the status code is contained in ss, the decider
// returns true; otherwise it returns false.
func StatusCode(ss ...int) DeciderFunc {
	ss2 := make([]int, len(ss))
	copy(ss2, ss)
	return func(a *Attempt) bool {
		for _, s := range ss2 {
			if a.StatusCode() == s {
				return true
			}
		}
		return false
	}
}
