// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package body

import (
	"strconv"

	"github.com/gogama/onion"
	"github.com/gogama/onion/request"
)

// Serialize constructs the body serialization policy. A request
// carrying a Descriptor and no buffered body is forwarded with the
// descriptor's wire form as its body, plus Content-Type and
// Content-Length headers (an already-set Content-Type wins).
//
// Serialization errors — including all multipart validation errors —
// abort the request before it reaches the transport.
func Serialize() onion.Policy {
	p := onion.PolicyFunc(func(req *request.Request, next onion.Next) (*request.Response, error) {
		if req.Descriptor == nil || len(req.Body) > 0 || req.Stream != nil {
			return next(req)
		}
		payload, contentType, err := req.Descriptor.Serialize()
		if err != nil {
			return nil, err
		}
		r2 := req.Clone()
		r2.Body = payload
		r2.Descriptor = nil
		if r2.Header.Get("Content-Type") == "" {
			r2.Header.Set("Content-Type", contentType)
		}
		r2.Header.Set("Content-Length", strconv.Itoa(len(payload)))
		return next(r2)
	})
	return onion.Named("body", "codec", nil, p)
}
