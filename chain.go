// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package onion

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	urlpkg "net/url"

	"go.uber.org/zap"

	"github.com/gogama/onion/request"
)

// A Transport is the terminal function at the bottom of a policy
// chain. It performs the actual network I/O for a request and returns
// a response or an error. The engine assumes nothing about how: DNS,
// TLS, and connection pooling are entirely the transport's business.
type Transport func(*request.Request) (*request.Response, error)

// An HTTPDoer implements a Do method in the same manner as the Go
// standard library http.Client from the net/http package. Use
// StdTransport to place an HTTPDoer at the bottom of a chain.
type HTTPDoer interface {
	Do(r *http.Request) (*http.Response, error)
}

// A Chain wires an ordered list of policies and a terminal transport
// into one callable. The first policy listed is the outermost.
//
// The zero value is a valid configuration: no policies, the default
// transport (a standard library HTTP client that honors per-request
// proxies and never follows redirects itself), and a discarding
// diagnostic channel. A Chain is safe for concurrent use by multiple
// goroutines.
type Chain struct {
	// Policies is the ordered policy list, outermost first.
	Policies []Policy

	// Transport performs the terminal I/O. If nil, DefaultTransport
	// is used.
	Transport Transport

	// Diag receives warnings and debug detail from the chain. If nil,
	// diagnostics are discarded.
	Diag *Diagnostics

	// Strict wraps every policy with Strict, turning a double
	// invocation of next into ErrMultipleNext. Intended for
	// development builds; incompatible with attempt-looping policies.
	Strict bool
}

// Do sends a request through the policy chain and returns the
// terminal response.
//
// Before any policy runs, the request headers are validated against
// RFC 7230; a request carrying CR or LF in a header name or value is
// rejected with request.ErrHeaderInjection and never sent.
func (c *Chain) Do(req *request.Request) (*request.Response, error) {
	if req == nil {
		return nil, errors.New("onion: nil request")
	}
	if err := req.CheckHeader(); err != nil {
		return nil, err
	}
	c.Diag.Debug("chain start",
		zap.String("request_id", req.ID),
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()))
	policies := c.Policies
	if c.Strict {
		strict := make([]Policy, len(policies))
		for i, p := range policies {
			strict[i] = Strict(p)
		}
		policies = strict
	}
	t := c.Transport
	if t == nil {
		t = DefaultTransport
	}
	resp, err := Compose(policies...).Apply(req, Next(t))
	if err != nil {
		c.Diag.Debug("chain error", zap.String("request_id", req.ID), zap.Error(err))
		return nil, err
	}
	c.Diag.Debug("chain done",
		zap.String("request_id", req.ID),
		zap.Int("status", resp.StatusCode))
	return resp, nil
}

// Tree renders the chain's composed policy list as a nested tree for
// debugging. See Tree.
func (c *Chain) Tree() string {
	return Tree(Compose(c.Policies...))
}

// DefaultTransport executes requests with a standard library HTTP
// client configured to honor per-request proxies (see ProxyURL) and
// to never follow redirects on its own, leaving redirect behavior to
// the redirect policy.
var DefaultTransport = StdTransport(&http.Client{
	Transport: &http.Transport{Proxy: ProxyURL},
	CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	},
})

// StdTransport adapts an HTTPDoer into a Transport.
//
// The request's buffered body (or stream, if set) becomes the
// http.Request body. If the request carries a proxy, the proxy's URL
// is attached to the outgoing request context where ProxyURL can
// recover it, so an http.Transport configured with Proxy: ProxyURL
// routes the request accordingly.
func StdTransport(doer HTTPDoer) Transport {
	if doer == nil {
		panic("onion: nil doer")
	}
	return func(req *request.Request) (*request.Response, error) {
		ctx := req.Context()
		if req.Proxy != nil {
			u := &urlpkg.URL{
				Scheme: req.Proxy.Protocol,
				Host:   req.Proxy.Address(),
			}
			ctx = context.WithValue(ctx, proxyCtxKey{}, u)
		}
		hr, err := http.NewRequestWithContext(ctx, req.Method, req.URL.String(), httpBody(req))
		if err != nil {
			return nil, err
		}
		for k, vv := range req.Header {
			hr.Header[k] = vv
		}
		if req.Host != "" {
			hr.Host = req.Host
		}
		resp, err := doer.Do(hr)
		if err != nil {
			return nil, err
		}
		return request.FromHTTP(resp), nil
	}
}

func httpBody(req *request.Request) io.Reader {
	if req.Stream != nil {
		return req.Stream
	}
	if len(req.Body) > 0 {
		return bytes.NewReader(req.Body)
	}
	return nil
}

type proxyCtxKey struct{}

// ProxyURL is an http.Transport.Proxy function that recovers the
// proxy attached to a request by StdTransport. It returns nil (no
// proxy) for requests that were not routed through a proxy policy, or
// whose policy bypassed the proxy.
func ProxyURL(r *http.Request) (*urlpkg.URL, error) {
	if u, ok := r.Context().Value(proxyCtxKey{}).(*urlpkg.URL); ok {
		return u, nil
	}
	return nil, nil
}
