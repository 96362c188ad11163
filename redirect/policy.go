// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package redirect

import (
	"errors"
	"fmt"
	urlpkg "net/url"

	"github.com/gogama/onion"
	"github.com/gogama/onion/request"
)

// ErrLoop is returned when a redirect sequence revisits a URL it has
// already attempted. Wrapped errors identify the offending URL;
// detect with errors.Is.
var ErrLoop = errors.New("onion/redirect: redirect loop detected")

// ErrMaxRedirects is returned when a redirect sequence exceeds the
// policy's MaxRedirects bound without looping.
var ErrMaxRedirects = errors.New("onion/redirect: too many redirects")

// DefaultMaxRedirects is the follow bound used by the Default policy.
const DefaultMaxRedirects = 10

// Default is a redirect policy with DefaultMaxRedirects follows and
// 303 following disabled.
var Default = New(Options{MaxRedirects: DefaultMaxRedirects})

// Options configures a redirect policy.
type Options struct {
	// MaxRedirects caps the number of follows in one redirect
	// sequence. Zero means DefaultMaxRedirects; a negative value
	// means follow nothing.
	MaxRedirects int

	// Follow303 enables following 303 See Other responses. 303
	// implies a semantic method change (the follow-up is always a
	// GET), so it is opt-in.
	Follow303 bool
}

// New constructs a redirect-following policy.
//
// The policy re-issues the request toward the Location header of any
// 301, 302, 307, or 308 response (and 303, when Follow303 is set),
// rewriting the request per the status code: 303, and 301/302 for a
// non-GET/HEAD request, downgrade the method to GET and drop the body
// (the legacy browser-compatible behavior); 307 and 308 preserve
// method and body unchanged.
//
// Every URL attempted in one redirect sequence is remembered; a
// Location resolving to a URL already attempted fails immediately
// with ErrLoop rather than burning follows up to the limit. Exceeding
// MaxRedirects fails with ErrMaxRedirects.
func New(opt Options) onion.Policy {
	max := opt.MaxRedirects
	if max == 0 {
		max = DefaultMaxRedirects
	}
	p := &policy{max: max, follow303: opt.Follow303}
	return onion.Named("redirect", "protocol", map[string]interface{}{
		"maxRedirects": max,
		"follow303":    opt.Follow303,
	}, p)
}

type policy struct {
	max       int
	follow303 bool
}

func (p *policy) Apply(req *request.Request, next onion.Next) (*request.Response, error) {
	visited := map[string]struct{}{req.URL.String(): {}}
	cur := req
	follows := 0
	for {
		resp, err := next(cur)
		if err != nil {
			return nil, err
		}
		loc := resp.Header.Get("Location")
		if !p.shouldFollow(resp.StatusCode, loc) {
			return resp, nil
		}
		target, err := cur.URL.Parse(loc)
		if err != nil {
			closeBody(resp)
			return nil, fmt.Errorf("onion/redirect: bad Location %q: %w", loc, err)
		}
		key := target.String()
		if _, seen := visited[key]; seen {
			closeBody(resp)
			return nil, fmt.Errorf("%w: %s", ErrLoop, key)
		}
		if follows >= p.max {
			closeBody(resp)
			return nil, fmt.Errorf("%w: stopped after %d", ErrMaxRedirects, p.max)
		}
		visited[key] = struct{}{}
		follows++
		closeBody(resp)
		cur = rewrite(cur, target, resp.StatusCode)
	}
}

func (p *policy) shouldFollow(status int, location string) bool {
	if location == "" {
		return false
	}
	switch status {
	case 301, 302, 307, 308:
		return true
	case 303:
		return p.follow303
	default:
		return false
	}
}

// rewrite produces the follow-up request for one redirect hop. The
// incoming request is cloned, never modified.
func rewrite(req *request.Request, target *urlpkg.URL, status int) *request.Request {
	r2 := req.Clone()
	r2.URL = target
	r2.Host = target.Host
	switch status {
	case 303:
		dropBody(r2)
	case 301, 302:
		if req.Method != "GET" && req.Method != "HEAD" {
			dropBody(r2)
		}
	}
	return r2
}

func dropBody(r *request.Request) {
	r.Method = "GET"
	r.Body = nil
	r.Stream = nil
	r.Descriptor = nil
	r.Header.Del("Content-Type")
	r.Header.Del("Content-Length")
}

func closeBody(resp *request.Response) {
	if resp.Body != nil {
		_ = resp.Body.Close()
	}
}
