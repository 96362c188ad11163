// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package redirect provides the redirect-following policy: a small
// state machine over repeated request attempts that follows 3XX
// Location headers, rewrites the method and body where the status
// code demands it, detects redirect loops, and bounds the total
// number of follows.
package redirect
