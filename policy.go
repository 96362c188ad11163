// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package onion

import (
	"errors"
	"fmt"

	"github.com/gogama/onion/request"
)

// ErrMultipleNext is returned by a policy wrapped with Strict when the
// policy invokes its next step more than once in a single Apply call.
var ErrMultipleNext = errors.New("onion: policy called next more than once")

// Next is the remainder of a policy chain, as seen from one policy.
// Invoking it runs every downstream policy and finally the transport.
type Next func(*request.Request) (*request.Response, error)

// A Policy is a composable unit of request/response behavior.
//
// Apply receives the request on the way in and the rest of the chain
// as next. A policy does its inbound work, invokes next (or
// short-circuits by not invoking it, for example on a cache hit), and
// does its outbound work on the response after next returns. An error
// from next propagates to the policy, which may handle it or pass it
// up; errors are never swallowed by the engine itself.
//
// A policy must never mutate a request it received and forward the
// same object with changed fields. It clones the request, changes the
// clone, and forwards that.
//
// Implementations of Policy must be safe for concurrent use by
// multiple goroutines: a policy is a stateless closure over its own
// configuration, never over live request data.
type Policy interface {
	Apply(req *request.Request, next Next) (*request.Response, error)
}

// The PolicyFunc type is an adapter to allow the use of ordinary
// functions as policies. If f is a function with the appropriate
// signature, PolicyFunc(f) is a Policy that calls f.
type PolicyFunc func(req *request.Request, next Next) (*request.Response, error)

// Apply calls f(req, next).
func (f PolicyFunc) Apply(req *request.Request, next Next) (*request.Response, error) {
	return f(req, next)
}

// Compose nests the given policies into a single policy. The first
// policy declared is the outermost: it runs first on the way in and
// last on the way out, the classic onion ordering. Given policies
// P1..Pn and a chain remainder T, the composed policy is equivalent
// to
//
//	P1(req, func(r1) { return P2(r1, func(r2) { ... T(rn) }) })
//
// Composing zero policies yields the identity policy. Composed
// policies may themselves be composed; Tree renders the resulting
// structure.
func Compose(policies ...Policy) Policy {
	for i, p := range policies {
		if p == nil {
			panic(fmt.Sprintf("onion: nil policy at index %d", i))
		}
	}
	ps := make([]Policy, len(policies))
	copy(ps, policies)
	return composite(ps)
}

type composite []Policy

func (c composite) Apply(req *request.Request, next Next) (*request.Response, error) {
	chain := next
	for i := len(c) - 1; i >= 0; i-- {
		p := c[i]
		inner := chain
		chain = func(r *request.Request) (*request.Response, error) {
			return p.Apply(r, inner)
		}
	}
	return chain(req)
}

// Strict wraps a policy so that invoking next more than once in a
// single Apply call returns ErrMultipleNext instead of issuing a
// second downstream traversal. Calling next at most once is part of
// the Policy contract; Strict makes violations observable during
// development.
//
// Do not wrap attempt-looping policies (redirect following, retry,
// rate-limit backoff) with Strict: re-invoking next once per attempt
// is exactly their job.
func Strict(p Policy) Policy {
	return PolicyFunc(func(req *request.Request, next Next) (*request.Response, error) {
		called := false
		guarded := func(r *request.Request) (*request.Response, error) {
			if called {
				return nil, ErrMultipleNext
			}
			called = true
			return next(r)
		}
		return p.Apply(req, guarded)
	})
}
