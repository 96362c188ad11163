// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package ratelimit interprets the Retry-After header on 429 and 503
// responses. Strategy turns the header into a bounded wait
// suggestion; New wraps a Strategy into a backoff policy that sleeps
// and re-attempts.
package ratelimit
