// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package onion

import (
	urlpkg "net/url"

	"github.com/gogama/onion/request"
)

// Doer is the interface that wraps the basic Do method.
//
// Do sends a request through a policy chain and returns the terminal
// response. Chain implements the Doer interface, and any other Doer
// implementation must behave substantially the same as Chain.Do.
type Doer interface {
	Do(req *request.Request) (*request.Response, error)
}

// Get issues a GET to the specified URL through the given Doer.
func Get(d Doer, url string) (*request.Response, error) {
	req, err := request.New("GET", url, nil)
	if err != nil {
		return nil, err
	}
	return d.Do(req)
}

// Head issues a HEAD to the specified URL through the given Doer.
func Head(d Doer, url string) (*request.Response, error) {
	req, err := request.New("HEAD", url, nil)
	if err != nil {
		return nil, err
	}
	return d.Do(req)
}

// Post issues a POST to the specified URL through the given Doer.
//
// The body parameter may be nil for an empty body, or may be any of
// the types supported by request.BodyBytes, namely: string; []byte;
// io.Reader; and io.ReadCloser.
func Post(d Doer, url, contentType string, body interface{}) (*request.Response, error) {
	req, err := request.New("POST", url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return d.Do(req)
}

// PostForm issues a POST to the specified URL through the given Doer,
// with data's keys and values URL-encoded as the request body.
//
// The Content-Type header is set to application/x-www-form-urlencoded.
func PostForm(d Doer, url string, data urlpkg.Values) (*request.Response, error) {
	return Post(d, url, "application/x-www-form-urlencoded", data.Encode())
}
