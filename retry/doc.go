// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package retry provides the generic retry policy: a Decider deciding
// whether an attempt's outcome warrants another try, and a Waiter
// computing the backoff between tries. Deciders compose logically via
// DeciderFunc.And and DeciderFunc.Or; the policy defers to a
// rate-limit Retry-After suggestion when the server offers one.
package retry
