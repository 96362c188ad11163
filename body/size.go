// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package body

import "io"

// DataSize returns the exact byte size of a payload value, or -1 when
// the size cannot be known without consuming the value (streams,
// unsupported types).
//
// For strings the result is the UTF-8 encoded byte length — len(s),
// which in Go counts bytes, not characters — so multi-byte input
// cannot slip under a size limit by undercounting. DataSize is the
// single source of truth for both progress totals and the multipart
// MaxFileSize check, and it never under-reports a knowable size.
func DataSize(data interface{}) int64 {
	switch x := data.(type) {
	case nil:
		return 0
	case string:
		return int64(len(x))
	case []byte:
		return int64(len(x))
	case *Descriptor:
		if x.kind == KindMultipart {
			return -1
		}
		b, _, err := x.Serialize()
		if err != nil {
			return -1
		}
		return int64(len(b))
	case io.Reader:
		return -1
	default:
		return -1
	}
}
