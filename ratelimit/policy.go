// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ratelimit

import (
	"context"
	"time"

	"github.com/gogama/onion"
	"github.com/gogama/onion/request"
)

// DefaultAttempts is the total attempt bound used when Options leaves
// Attempts at zero.
const DefaultAttempts = 3

// Default is a rate-limit backoff policy with the default strategy
// and attempt bound.
var Default = New(Options{})

// Options configures a rate-limit backoff policy.
type Options struct {
	// Strategy computes the wait from Retry-After. Nil means
	// DefaultStrategy.
	Strategy *Strategy

	// Attempts bounds the total number of attempts, the initial one
	// included. Zero means DefaultAttempts.
	Attempts int

	// OnDelay, if non-nil, is invoked with the computed delay before
	// the delay is applied. It may block (for example to log or to
	// sleep externally); the policy waits for it to return. The
	// context is the request's context.
	OnDelay func(ctx context.Context, delay time.Duration)
}

// New constructs a policy that retries 429 and 503 responses after
// the wait suggested by the response's Retry-After header.
//
// Only responses for which the strategy has an opinion are retried:
// 429/503 without a Retry-After header pass through untouched, on the
// theory that a generic retry policy downstream of the caller's
// choosing owns that case. The wait is interruptible; if the
// request's context is cancelled mid-wait, the policy returns the
// context error.
func New(opt Options) onion.Policy {
	s := opt.Strategy
	if s == nil {
		s = DefaultStrategy
	}
	attempts := opt.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	p := &policy{strategy: s, attempts: attempts, onDelay: opt.OnDelay}
	return onion.Named("ratelimit", "protocol", map[string]interface{}{
		"maxWait":  s.maxWait,
		"attempts": attempts,
		"onDelay":  opt.OnDelay,
	}, p)
}

type policy struct {
	strategy *Strategy
	attempts int
	onDelay  func(ctx context.Context, delay time.Duration)
}

func (p *policy) Apply(req *request.Request, next onion.Next) (*request.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := next(req)
		if err != nil {
			return nil, err
		}
		delay, ok := p.strategy.GetDelay(resp, nil, attempt)
		if !ok || attempt+1 >= p.attempts {
			return resp, nil
		}
		if p.onDelay != nil {
			p.onDelay(req.Context(), delay)
		}
		if resp.Body != nil {
			_ = resp.Body.Close()
		}
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		}
	}
}
