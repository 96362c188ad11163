// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	urlpkg "net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/http/httpguts"
)

const nilCtxMsg = "onion/request: nil context"

// ErrHeaderInjection is returned when a header name or value contains
// CR or LF characters, or is otherwise invalid per RFC 7230. Requests
// carrying such headers are rejected before they are sent.
var ErrHeaderInjection = errors.New("onion/request: header injection")

// A Serializer produces the wire form of a request payload together
// with its content type. It is implemented by body.Descriptor and is
// declared here so the request model stays a leaf package.
//
// Serialize must be deterministic and free of side effects other than
// returning a validation error.
type Serializer interface {
	Serialize() (payload []byte, contentType string, err error)
}

// A Request describes one logical HTTP request travelling through a
// policy chain toward a transport.
//
// Policies receive a *Request and must treat it as immutable: a policy
// that wants to change a field makes a copy with Clone (or WithContext)
// and forwards the copy to the next step. The original request is left
// untouched so that attempts can be replayed and chains can be
// debugged after the fact.
//
// Like http.Request, a Request carries a context which controls
// cancellation of the whole chain traversal.
type Request struct {
	// ID identifies the request for log correlation. It is assigned
	// by New and copied unchanged by Clone, so every attempt derived
	// from one logical request shares one ID.
	ID string

	// Method specifies the HTTP method (GET, POST, PUT, etc.).
	// An empty string means GET.
	Method string

	// URL specifies the URL to access.
	URL *urlpkg.URL

	// Header contains the request header fields to be sent.
	Header http.Header

	// Body is the pre-buffered request body to be sent. A nil or
	// empty body indicates no request body should be sent, for
	// example on a GET or DELETE request.
	Body []byte

	// Stream is an optional streaming request body. It is consumed at
	// most once, is not replayable, and takes precedence over Body
	// when both are set. Policies that re-issue attempts (redirects,
	// retries) require a buffered Body.
	Stream io.ReadCloser

	// Descriptor optionally describes a structured payload that has
	// not been serialized yet. The body serialization policy converts
	// it into Body and a Content-Type header before the request
	// reaches the transport.
	Descriptor Serializer

	// Proxy is the proxy the transport should route this request
	// through. It is nil when no proxy applies; a bypassed request
	// carries no Proxy at all, so transports can skip proxy routing
	// entirely.
	Proxy *ProxyConfig

	// Host optionally overrides the Host header to send. If empty,
	// the value of URL.Host is sent.
	Host string

	// ctx controls cancellation of the chain traversal. It should
	// only be changed by copying the whole Request via WithContext.
	ctx context.Context
}

// New wraps NewWithContext using the background context.
//
// Parameter body may be nil (empty body), or it may be a string,
// []byte, io.Reader, or io.ReadCloser; see BodyBytes for the
// conversion rules.
func New(method, url string, body interface{}) (*Request, error) {
	return NewWithContext(context.Background(), method, url, body)
}

// NewWithContext returns a new Request given a method, URL, and
// optional body.
//
// The method is validated as an HTTP token and the URL must parse.
// Parameter body may be nil (empty body), or it may be a string,
// []byte, io.Reader, or io.ReadCloser; see BodyBytes for the
// conversion rules.
func NewWithContext(ctx context.Context, method, url string, body interface{}) (*Request, error) {
	if ctx == nil {
		return nil, errors.New(nilCtxMsg)
	}
	if method == "" {
		method = "GET"
	}
	if !validMethod(method) {
		return nil, fmt.Errorf("onion/request: invalid method %q", method)
	}
	u, err := urlpkg.Parse(url)
	if err != nil {
		return nil, err
	}
	u.Host = removeEmptyPort(u.Host)
	b, err := BodyBytes(body)
	if err != nil {
		return nil, err
	}
	return &Request{
		ID:     uuid.NewString(),
		Method: method,
		URL:    u,
		Header: make(http.Header),
		Body:   b,
		Host:   u.Host,
		ctx:    ctx,
	}, nil
}

// Context returns the request's context. The context controls
// cancellation of the whole chain traversal. To change the context,
// use WithContext.
//
// The returned context is always non-nil; it defaults to the
// background context.
func (r *Request) Context() context.Context {
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

// WithContext returns a shallow copy of r with its context changed to
// ctx, which must be non-nil.
func (r *Request) WithContext(ctx context.Context) *Request {
	if ctx == nil {
		panic(nilCtxMsg)
	}
	r2 := new(Request)
	*r2 = *r
	r2.ctx = ctx
	return r2
}

// Clone returns a copy of r that is safe for a policy to modify and
// forward. The URL and Header are deep-copied; Body shares the
// underlying bytes (policies replace Body rather than writing into
// it); the context, Stream, Descriptor, and Proxy are carried over
// unchanged.
func (r *Request) Clone() *Request {
	r2 := new(Request)
	*r2 = *r
	if r.URL != nil {
		u := *r.URL
		if r.URL.User != nil {
			user := *r.URL.User
			u.User = &user
		}
		r2.URL = &u
	}
	r2.Header = make(http.Header, len(r.Header))
	for k, vv := range r.Header {
		vv2 := make([]string, len(vv))
		copy(vv2, vv)
		r2.Header[k] = vv2
	}
	return r2
}

// SetBasicAuth sets the request's Authorization header to use HTTP
// Basic Authentication with the provided username and password.
//
// With HTTP Basic Authentication the provided username and password
// are not encrypted.
func (r *Request) SetBasicAuth(username, password string) {
	r.Header.Set("Authorization", "Basic "+BasicAuth(username, password))
}

// AddCookie adds a cookie to the request. Per RFC 6265 section 5.4,
// AddCookie does not attach more than one Cookie header field: all
// cookies, if any, are written into the same line, separated by
// semicolons.
func (r *Request) AddCookie(c *http.Cookie) {
	c2 := &http.Cookie{Name: c.Name, Value: c.Value}
	s := c2.String()
	if h := r.Header.Get("Cookie"); h != "" {
		r.Header.Set("Cookie", h+"; "+s)
	} else {
		r.Header.Set("Cookie", s)
	}
}

// CheckHeader validates every header name and value on the request
// against RFC 7230. It returns an error wrapping ErrHeaderInjection
// if any name or value contains CR, LF, or other forbidden bytes;
// header injection is rejected before a request is sent, never
// silently repaired.
func (r *Request) CheckHeader() error {
	for name, values := range r.Header {
		if !httpguts.ValidHeaderFieldName(name) {
			return fmt.Errorf("%w: invalid header name %q", ErrHeaderInjection, name)
		}
		for _, v := range values {
			if !httpguts.ValidHeaderFieldValue(v) {
				return fmt.Errorf("%w: invalid value for header %q", ErrHeaderInjection, name)
			}
		}
	}
	return nil
}

// BasicAuth encodes a username and password pair in the form required
// by HTTP Basic Authentication and the Proxy-Authorization header.
//
// See 2 (end of page 4) https://www.ietf.org/rfc/rfc2617.txt
// "To receive authorization, the client sends the userid and password,
// separated by a single colon (":") character, within a base64
// encoded string in the credentials."
// It is not meant to be urlencoded.
func BasicAuth(username, password string) string {
	auth := username + ":" + password
	return base64.StdEncoding.EncodeToString([]byte(auth))
}

func validMethod(method string) bool {
	/*
	     Method         = "OPTIONS"                ; Section 9.2
	                    | "GET"                    ; Section 9.3
	                    | "HEAD"                   ; Section 9.4
	                    | "POST"                   ; Section 9.5
	                    | "PUT"                    ; Section 9.6
	                    | "DELETE"                 ; Section 9.7
	                    | "TRACE"                  ; Section 9.8
	                    | "CONNECT"                ; Section 9.9
	                    | extension-method
	   extension-method = token
	     token          = 1*<any CHAR except CTLs or separators>

	   We don't need to check for length more than 1 because we always
	   interpret the empty string as "GET".
	*/
	return strings.IndexFunc(method, isNotToken) == -1
}

func isNotToken(r rune) bool {
	return !httpguts.IsTokenRune(r)
}

// removeEmptyPort strips a trailing colon with no port from a host, so
// "example.com:" normalizes to "example.com".
func removeEmptyPort(host string) string {
	if strings.HasSuffix(host, ":") {
		return host[:len(host)-1]
	}
	return host
}
