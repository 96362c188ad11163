// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"io"
	"net/http"
)

// A Response is the terminal value of a policy chain: what the
// transport produced, as seen after every policy has had its chance
// to post-process it on the way out.
//
// Policies may wrap Body (for example to instrument a stream) but
// must preserve StatusCode unless they are intentionally following a
// redirect.
type Response struct {
	// StatusCode is the numeric HTTP status, e.g. 200.
	StatusCode int

	// Status is the full status line text, e.g. "200 OK". It may be
	// empty when the transport does not supply one.
	Status string

	// Header contains the response header fields.
	Header http.Header

	// Body is the response payload. It may be a live network stream;
	// the consumer owns it and must close it. Policies that wrap Body
	// must propagate errors and Close calls to the stream they
	// wrapped.
	Body io.ReadCloser
}

// OK reports whether the response status code is in the 2XX range.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

// ReadAll reads the remainder of the response body into memory,
// closes the underlying stream, and leaves the body replaced with a
// re-readable buffer over the same bytes. It returns the bytes read.
//
// ReadAll is a convenience for transaction-style consumers that do
// not care about streaming. Calling it twice returns the same bytes.
func (r *Response) ReadAll() ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	b, err := io.ReadAll(r.Body)
	closeErr := r.Body.Close()
	if err == nil {
		err = closeErr
	}
	r.Body = io.NopCloser(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	return b, nil
}

// FromHTTP converts a standard library response into a Response. The
// body is carried over as-is, so the caller keeps the obligation to
// close it.
func FromHTTP(hr *http.Response) *Response {
	return &Response{
		StatusCode: hr.StatusCode,
		Status:     hr.Status,
		Header:     hr.Header,
		Body:       hr.Body,
	}
}
