// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package sse decodes Server-Sent-Events streams: blank-line
// separated records of "field: value" lines, parsed incrementally
// and independently of how the underlying bytes are chunked.
package sse
