// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package progress

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogama/onion/request"
)

func newRequest(t *testing.T) *request.Request {
	req, err := request.New("GET", "http://test.local/file", nil)
	require.NoError(t, err)
	return req
}

func respond(body string, contentLength string) *request.Response {
	h := make(http.Header)
	if contentLength != "" {
		h.Set("Content-Length", contentLength)
	}
	return &request.Response{
		StatusCode: 200,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// chunkReader serves its payload in fixed-size chunks so the wrapper
// observes multiple reads.
type chunkReader struct {
	data  []byte
	chunk int
	err   error // returned after the data is exhausted; nil means EOF
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		if c.err != nil {
			return 0, c.err
		}
		return 0, io.EOF
	}
	n := c.chunk
	if n > len(c.data) {
		n = len(c.data)
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, c.data[:n])
	c.data = c.data[n:]
	return n, nil
}

func TestDownload(t *testing.T) {
	t.Run("Counts every byte and finishes at 100 percent", func(t *testing.T) {
		var events []Event
		p := Download(func(ev Event) { events = append(events, ev) }, Options{Interval: time.Nanosecond})
		resp, err := p.Apply(newRequest(t), func(_ *request.Request) (*request.Response, error) {
			r := respond("", "10")
			r.Body = io.NopCloser(&chunkReader{data: []byte("0123456789"), chunk: 3})
			return r, nil
		})
		require.NoError(t, err)

		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "0123456789", string(b), "payload passes through unmodified")
		require.NoError(t, resp.Body.Close())

		require.NotEmpty(t, events)
		final := events[len(events)-1]
		assert.Equal(t, int64(10), final.Loaded)
		assert.Equal(t, int64(10), final.Total)
		assert.Equal(t, float64(100), final.Percent)
		assert.Equal(t, time.Duration(0), final.ETA)
	})
	t.Run("Unknown length yields no total and no percent", func(t *testing.T) {
		var events []Event
		p := Download(func(ev Event) { events = append(events, ev) }, Options{Interval: time.Nanosecond})
		resp, err := p.Apply(newRequest(t), func(_ *request.Request) (*request.Response, error) {
			return respond("data", ""), nil
		})
		require.NoError(t, err)
		_, _ = io.ReadAll(resp.Body)
		require.NotEmpty(t, events)
		for _, ev := range events {
			assert.Equal(t, int64(-1), ev.Total)
			assert.Equal(t, float64(-1), ev.Percent, "percent is never fabricated")
		}
	})
	t.Run("Non-numeric content length treated as unknown", func(t *testing.T) {
		var events []Event
		p := Download(func(ev Event) { events = append(events, ev) }, Options{Interval: time.Nanosecond})
		resp, err := p.Apply(newRequest(t), func(_ *request.Request) (*request.Response, error) {
			return respond("data", "banana"), nil
		})
		require.NoError(t, err)
		_, _ = io.ReadAll(resp.Body)
		require.NotEmpty(t, events)
		assert.Equal(t, int64(-1), events[len(events)-1].Total)
	})
	t.Run("Stream error propagates with identity intact", func(t *testing.T) {
		boom := errors.New("connection reset")
		p := Download(func(Event) {}, Options{})
		resp, err := p.Apply(newRequest(t), func(_ *request.Request) (*request.Response, error) {
			r := respond("", "100")
			r.Body = io.NopCloser(&chunkReader{data: []byte("partial"), chunk: 7, err: boom})
			return r, nil
		})
		require.NoError(t, err)
		_, err = io.ReadAll(resp.Body)
		assert.Same(t, boom, err)
	})
	t.Run("Close releases the wrapped stream", func(t *testing.T) {
		rec := &closeRecorder{Reader: strings.NewReader("abc")}
		p := Download(func(Event) {}, Options{})
		resp, err := p.Apply(newRequest(t), func(_ *request.Request) (*request.Response, error) {
			r := respond("", "")
			r.Body = rec
			return r, nil
		})
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.True(t, rec.closed)
	})
	t.Run("Throttling bounds callback count", func(t *testing.T) {
		var events []Event
		p := Download(func(ev Event) { events = append(events, ev) }, Options{Interval: time.Hour})
		resp, err := p.Apply(newRequest(t), func(_ *request.Request) (*request.Response, error) {
			r := respond("", "10")
			r.Body = io.NopCloser(&chunkReader{data: []byte("0123456789"), chunk: 1})
			return r, nil
		})
		require.NoError(t, err)
		_, _ = io.ReadAll(resp.Body)
		// One throttle-window opener plus the unthrottled final event.
		assert.Equal(t, 2, len(events))
		assert.Equal(t, int64(10), events[len(events)-1].Loaded)
	})
}

func TestUpload(t *testing.T) {
	t.Run("Buffered body emits a single final event", func(t *testing.T) {
		var events []Event
		p := Upload(func(ev Event) { events = append(events, ev) }, Options{})
		req := newRequest(t)
		req.Body = []byte("hello world")
		_, err := p.Apply(req, func(_ *request.Request) (*request.Response, error) {
			return respond("", ""), nil
		})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, int64(11), events[0].Loaded)
		assert.Equal(t, int64(11), events[0].Total)
		assert.Equal(t, float64(100), events[0].Percent)
	})
	t.Run("Streaming body wrapped read by read", func(t *testing.T) {
		var events []Event
		p := Upload(func(ev Event) { events = append(events, ev) }, Options{Interval: time.Nanosecond})
		req := newRequest(t)
		req.Stream = io.NopCloser(&chunkReader{data: []byte("abcdef"), chunk: 2})
		req.Header.Set("Content-Length", "6")
		var consumed []byte
		_, err := p.Apply(req, func(r *request.Request) (*request.Response, error) {
			b, err := io.ReadAll(r.Stream)
			require.NoError(t, err)
			consumed = b
			return respond("", ""), nil
		})
		require.NoError(t, err)
		assert.Equal(t, "abcdef", string(consumed))
		require.NotEmpty(t, events)
		final := events[len(events)-1]
		assert.Equal(t, int64(6), final.Loaded)
		assert.Equal(t, int64(6), final.Total)
	})
	t.Run("Empty body emits nothing", func(t *testing.T) {
		calls := 0
		p := Upload(func(Event) { calls++ }, Options{})
		_, err := p.Apply(newRequest(t), func(_ *request.Request) (*request.Response, error) {
			return respond("", ""), nil
		})
		require.NoError(t, err)
		assert.Zero(t, calls)
	})
}

type closeRecorder struct {
	io.Reader
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}
