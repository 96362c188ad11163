// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package sse

import (
	"github.com/gogama/onion"
	"github.com/gogama/onion/request"
)

// Stream constructs the identity-shaped streaming policy. It exposes
// the raw response byte stream unchanged; its purpose is to mark the
// point in a chain where stream consumers — progress instrumentation,
// or a Decoder over the response body — attach.
func Stream() onion.Policy {
	p := onion.PolicyFunc(func(req *request.Request, next onion.Next) (*request.Response, error) {
		return next(req)
	})
	return onion.Named("stream", "codec", nil, p)
}

// Decode returns a Decoder over a response's body stream. The caller
// owns the decoder and should Close it when done, which closes the
// response body.
func Decode(resp *request.Response) *Decoder {
	return NewDecoder(resp.Body)
}
