// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package onion

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogama/onion/request"
)

func testRequest(t *testing.T) *request.Request {
	req, err := request.New("GET", "http://test.local/x", nil)
	require.NoError(t, err)
	return req
}

func okResponse() *request.Response {
	return &request.Response{
		StatusCode: 200,
		Status:     "200 OK",
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader("")),
	}
}

// tag returns a policy that records its traversal order on the way in
// and on the way out.
func tag(name string, log *[]string) Policy {
	return PolicyFunc(func(req *request.Request, next Next) (*request.Response, error) {
		*log = append(*log, name+" in")
		resp, err := next(req)
		*log = append(*log, name+" out")
		return resp, err
	})
}

func TestCompose(t *testing.T) {
	t.Run("Onion ordering", func(t *testing.T) {
		var log []string
		p := Compose(tag("P1", &log), tag("P2", &log), tag("P3", &log))
		resp, err := p.Apply(testRequest(t), func(_ *request.Request) (*request.Response, error) {
			log = append(log, "transport")
			return okResponse(), nil
		})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, []string{
			"P1 in", "P2 in", "P3 in",
			"transport",
			"P3 out", "P2 out", "P1 out",
		}, log)
	})
	t.Run("Zero policies is identity", func(t *testing.T) {
		called := false
		p := Compose()
		_, err := p.Apply(testRequest(t), func(_ *request.Request) (*request.Response, error) {
			called = true
			return okResponse(), nil
		})
		require.NoError(t, err)
		assert.True(t, called)
	})
	t.Run("Short circuit skips downstream", func(t *testing.T) {
		var log []string
		hit := PolicyFunc(func(_ *request.Request, _ Next) (*request.Response, error) {
			return okResponse(), nil // cache hit: never calls next
		})
		p := Compose(tag("P1", &log), hit, tag("P3", &log))
		_, err := p.Apply(testRequest(t), func(_ *request.Request) (*request.Response, error) {
			log = append(log, "transport")
			return okResponse(), nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"P1 in", "P1 out"}, log)
	})
	t.Run("Error propagates through every policy", func(t *testing.T) {
		boom := errors.New("boom")
		var sawErr error
		observer := PolicyFunc(func(req *request.Request, next Next) (*request.Response, error) {
			resp, err := next(req)
			sawErr = err
			return resp, err
		})
		p := Compose(observer)
		resp, err := p.Apply(testRequest(t), func(_ *request.Request) (*request.Response, error) {
			return nil, boom
		})
		assert.Nil(t, resp)
		assert.Same(t, boom, err)
		assert.Same(t, boom, sawErr)
	})
	t.Run("Nil policy panics", func(t *testing.T) {
		assert.Panics(t, func() { Compose(nil) })
	})
	t.Run("Nested composition flattens behavior", func(t *testing.T) {
		var log []string
		inner := Compose(tag("P2", &log), tag("P3", &log))
		outer := Compose(tag("P1", &log), inner)
		_, err := outer.Apply(testRequest(t), func(_ *request.Request) (*request.Response, error) {
			log = append(log, "transport")
			return okResponse(), nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{
			"P1 in", "P2 in", "P3 in",
			"transport",
			"P3 out", "P2 out", "P1 out",
		}, log)
	})
}

func TestStrict(t *testing.T) {
	t.Run("Single next call passes", func(t *testing.T) {
		p := Strict(PolicyFunc(func(req *request.Request, next Next) (*request.Response, error) {
			return next(req)
		}))
		resp, err := p.Apply(testRequest(t), func(_ *request.Request) (*request.Response, error) {
			return okResponse(), nil
		})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})
	t.Run("Second next call fails", func(t *testing.T) {
		calls := 0
		p := Strict(PolicyFunc(func(req *request.Request, next Next) (*request.Response, error) {
			_, _ = next(req)
			return next(req)
		}))
		_, err := p.Apply(testRequest(t), func(_ *request.Request) (*request.Response, error) {
			calls++
			return okResponse(), nil
		})
		assert.ErrorIs(t, err, ErrMultipleNext)
		assert.Equal(t, 1, calls, "downstream must not run a second time")
	})
}
