// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"context"
	"io"
	"time"

	"github.com/gogama/onion"
	"github.com/gogama/onion/request"
)

// DefaultTimeout is the per-traversal timeout used by Default.
const DefaultTimeout = 5 * time.Second

// Default is a timeout policy with DefaultTimeout.
var Default = New(DefaultTimeout)

// New constructs a policy that bounds the remainder of the chain with
// the duration d.
//
// The timer-derived cancellation is merged with, never substituted
// for, any cancellation already on the request: the bounded context
// derives from the request's own, so an external cancellation always
// wins regardless of where the policy sits in the chain.
func New(d time.Duration) onion.Policy {
	if d <= 0 {
		panic("onion/timeout: non-positive timeout")
	}
	p := onion.PolicyFunc(func(req *request.Request, next onion.Next) (*request.Response, error) {
		ctx, cancel := context.WithTimeout(req.Context(), d)
		resp, err := next(req.WithContext(ctx))
		if err != nil {
			cancel()
			return nil, err
		}
		if resp.Body == nil {
			cancel()
			return resp, nil
		}
		// The context must outlive the response body stream; cancel
		// when the consumer closes it.
		resp2 := *resp
		resp2.Body = &cancelOnClose{rc: resp.Body, cancel: cancel}
		return &resp2, nil
	})
	return onion.Named("timeout", "protocol", map[string]interface{}{
		"timeout": d,
	}, p)
}

type cancelOnClose struct {
	rc     io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Read(p []byte) (int, error) {
	return c.rc.Read(p)
}

func (c *cancelOnClose) Close() error {
	c.cancel()
	return c.rc.Close()
}
