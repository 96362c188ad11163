// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/gogama/onion"
	"github.com/gogama/onion/ratelimit"
	"github.com/gogama/onion/request"
)

// Default is a retry policy composed of DefaultDecider, DefaultWaiter,
// and the default rate-limit strategy.
var Default = New(Options{})

// Options configures a retry policy.
type Options struct {
	// Decider decides whether an attempt's outcome warrants a retry.
	// Nil means DefaultDecider.
	Decider Decider

	// Waiter computes the generic backoff between attempts. Nil means
	// DefaultWaiter.
	Waiter Waiter

	// RateLimit, if non-nil, is consulted before the Waiter: when a
	// rate-limited response carries a Retry-After opinion, that delay
	// is used instead of the generic backoff. Options{} defaults it
	// to ratelimit.DefaultStrategy; set NoRateLimit to disable.
	RateLimit *ratelimit.Strategy

	// NoRateLimit disables the Retry-After consultation entirely.
	NoRateLimit bool
}

// New constructs a policy that re-invokes the remainder of the chain
// while the decider asks for a retry, sleeping between attempts.
//
// The wait between attempts is the Retry-After suggestion when the
// rate-limit strategy has one, and the Waiter's backoff otherwise.
// The sleep is interruptible: if the request's context is cancelled
// or times out mid-wait, the policy returns the context error
// immediately. The response body of a retried attempt is closed
// before the next attempt begins.
func New(opt Options) onion.Policy {
	d := opt.Decider
	if d == nil {
		d = DefaultDecider
	}
	w := opt.Waiter
	if w == nil {
		w = DefaultWaiter
	}
	rl := opt.RateLimit
	if rl == nil && !opt.NoRateLimit {
		rl = ratelimit.DefaultStrategy
	}
	p := &policy{decider: d, waiter: w, rateLimit: rl}
	return onion.Named("retry", "protocol", map[string]interface{}{
		"decider":   d,
		"waiter":    w,
		"rateLimit": !opt.NoRateLimit,
	}, p)
}

type policy struct {
	decider   Decider
	waiter    Waiter
	rateLimit *ratelimit.Strategy
}

func (p *policy) Apply(req *request.Request, next onion.Next) (*request.Response, error) {
	start := time.Now()
	for i := 0; ; i++ {
		resp, err := next(req)
		a := &Attempt{Index: i, Start: start, Response: resp, Err: err}
		if !p.decider.Decide(a) {
			return resp, err
		}
		wait := p.waiter.Wait(a)
		if p.rateLimit != nil {
			if suggested, ok := p.rateLimit.GetDelay(resp, err, i); ok {
				wait = suggested
			}
		}
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		}
	}
}
