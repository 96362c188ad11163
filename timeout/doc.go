// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout bounds a chain traversal with a timer-derived
// cancellation, merged with any cancellation the request already
// carries so that external cancellation always wins.
package timeout
