// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gogama/onion/request"
)

// DefaultMaxWait caps the delay a Strategy will suggest, regardless
// of what the server's Retry-After header asks for.
const DefaultMaxWait = 60 * time.Second

// DefaultStrategy is a Strategy with the default wait cap.
var DefaultStrategy = NewStrategy(DefaultMaxWait)

// A Strategy computes a suggested wait from a rate-limited response's
// Retry-After header. It has an opinion only for status 429 (Too Many
// Requests) and 503 (Service Unavailable) responses that carry the
// header; everywhere else it defers to the caller's generic backoff.
//
// A Strategy is safe for concurrent use by multiple goroutines.
type Strategy struct {
	maxWait time.Duration
	now     func() time.Time
}

// NewStrategy constructs a Strategy whose suggested delays are capped
// at maxWait. A non-positive maxWait means DefaultMaxWait.
func NewStrategy(maxWait time.Duration) *Strategy {
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &Strategy{maxWait: maxWait, now: time.Now}
}

// GetDelay computes the wait suggested by the response's Retry-After
// header before attempt attempt+1 is made.
//
// The boolean result reports whether the strategy has an opinion. It
// is false when the response is nil (the attempt errored without a
// response), when the status is not 429 or 503, or when the header is
// absent. Absent any opinion, the caller's own backoff applies.
//
// When the header is present, its value may be a non-negative integer
// number of seconds or an HTTP-date; a date is converted to a delta
// from now, clamped to zero if already past. The result is capped at
// the strategy's maximum wait. A present but unparseable header yields
// (0, true): an explicit "retry now" rather than "no opinion". That
// asymmetry with the absent-header case is a compatibility contract,
// kept deliberately.
func (s *Strategy) GetDelay(resp *request.Response, err error, attempt int) (time.Duration, bool) {
	_ = err
	_ = attempt
	if resp == nil {
		return 0, false
	}
	if resp.StatusCode != 429 && resp.StatusCode != 503 {
		return 0, false
	}
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	d, ok := s.parse(v)
	if !ok {
		return 0, true
	}
	if d > s.maxWait {
		d = s.maxWait
	}
	return d, true
}

func (s *Strategy) parse(v string) (time.Duration, bool) {
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		d := t.Sub(s.now())
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}
