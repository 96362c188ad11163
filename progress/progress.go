// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package progress

import (
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/gogama/onion"
	"github.com/gogama/onion/request"
)

// DefaultInterval is the minimum spacing between throttled progress
// callbacks when Options leaves Interval at zero.
const DefaultInterval = 100 * time.Millisecond

// An Event is one progress observation.
//
// Total, Percent, and ETA are -1 when the payload size is unknown (no
// numeric content length was available); they are never fabricated.
// Rate is bytes per second of wall-clock time since the first
// observed byte, and is zero until a first byte has been observed.
type Event struct {
	Loaded  int64
	Total   int64
	Percent float64
	Rate    float64
	ETA     time.Duration
}

// A Callback receives progress events. It is invoked synchronously
// from the stream's read path, so it should return quickly.
type Callback func(Event)

// Options configures progress instrumentation.
type Options struct {
	// Interval is the minimum spacing between callbacks while the
	// stream flows. Zero means DefaultInterval. The final event on
	// completion is never throttled.
	Interval time.Duration
}

// Download constructs a policy that instruments the response payload.
//
// The response body is wrapped so that every read the consumer makes
// is counted and passed through unmodified: the wrapper never reads
// ahead of its consumer and never buffers the payload. Total size is
// taken from the response's Content-Length header when present and
// numeric; otherwise events carry no total and no percentage. Errors
// from the underlying stream reach the consumer unchanged, and
// closing the wrapper closes the stream it wraps.
func Download(cb Callback, opt Options) onion.Policy {
	interval := intervalOf(opt)
	p := onion.PolicyFunc(func(req *request.Request, next onion.Next) (*request.Response, error) {
		resp, err := next(req)
		if err != nil {
			return nil, err
		}
		if cb == nil || resp.Body == nil {
			return resp, nil
		}
		r2 := *resp
		r2.Body = &reader{
			r: resp.Body,
			t: newTracker(cb, interval, contentLength(resp)),
		}
		return &r2, nil
	})
	return onion.Named("progress", "instrumentation", map[string]interface{}{
		"direction": "download",
		"interval":  interval,
		"callback":  cb,
	}, p)
}

// Upload constructs a policy that instruments the outgoing request
// payload.
//
// For a buffered body the total is known up front and a single,
// final, 100% event is emitted once the attempt completes — the cheap
// case needs no streaming. For a streaming body the stream is wrapped
// the same way Download wraps a response payload, with the total
// taken from the request's Content-Length header if set.
func Upload(cb Callback, opt Options) onion.Policy {
	interval := intervalOf(opt)
	p := onion.PolicyFunc(func(req *request.Request, next onion.Next) (*request.Response, error) {
		if cb == nil {
			return next(req)
		}
		if req.Stream != nil {
			r2 := req.Clone()
			r2.Stream = &reader{
				r: req.Stream,
				t: newTracker(cb, interval, requestLength(req)),
			}
			return next(r2)
		}
		resp, err := next(req)
		if err != nil {
			return nil, err
		}
		if n := int64(len(req.Body)); n > 0 {
			t := newTracker(cb, interval, n)
			t.loaded = n
			t.finish()
		}
		return resp, nil
	})
	return onion.Named("progress", "instrumentation", map[string]interface{}{
		"direction": "upload",
		"interval":  interval,
		"callback":  cb,
	}, p)
}

func intervalOf(opt Options) time.Duration {
	if opt.Interval <= 0 {
		return DefaultInterval
	}
	return opt.Interval
}

func contentLength(resp *request.Response) int64 {
	return parseLength(resp.Header.Get("Content-Length"))
}

func requestLength(req *request.Request) int64 {
	return parseLength(req.Header.Get("Content-Length"))
}

// parseLength returns -1 for a missing or non-numeric content length;
// an invalid header must yield "unknown", never a fabricated total.
func parseLength(v string) int64 {
	if v == "" {
		return -1
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return -1
	}
	return n
}

// A tracker owns the mutable accumulator state for one instrumented
// stream: bytes loaded, the first-byte timestamp the rate is derived
// from, and the last emission time used for throttling. One tracker
// exists per active stream; none of its state is shared.
type tracker struct {
	mu       sync.Mutex
	cb       Callback
	interval time.Duration
	total    int64
	loaded   int64
	first    time.Time
	lastEmit time.Time
	done     bool
}

func newTracker(cb Callback, interval time.Duration, total int64) *tracker {
	return &tracker{cb: cb, interval: interval, total: total}
}

func (t *tracker) add(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n <= 0 || t.done {
		return
	}
	now := time.Now()
	if t.first.IsZero() {
		t.first = now
	}
	t.loaded += int64(n)
	if !t.lastEmit.IsZero() && now.Sub(t.lastEmit) < t.interval {
		return
	}
	t.lastEmit = now
	t.cb(t.event(now))
}

// finish emits the final, unthrottled event. It fires at most once.
func (t *tracker) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.done = true
	t.cb(t.event(time.Now()))
}

func (t *tracker) event(now time.Time) Event {
	ev := Event{
		Loaded:  t.loaded,
		Total:   t.total,
		Percent: -1,
		ETA:     -1,
	}
	if !t.first.IsZero() {
		if elapsed := now.Sub(t.first).Seconds(); elapsed > 0 {
			ev.Rate = float64(t.loaded) / elapsed
		}
	}
	if t.total >= 0 {
		if t.total > 0 {
			ev.Percent = float64(t.loaded) / float64(t.total) * 100
		} else {
			ev.Percent = 100
		}
		if ev.Rate > 0 && t.loaded < t.total {
			ev.ETA = time.Duration(float64(t.total-t.loaded) / ev.Rate * float64(time.Second))
		} else if t.loaded >= t.total {
			ev.ETA = 0
		}
	}
	return ev
}

// reader wraps a stream, counting bytes through the tracker while
// passing every chunk to the real consumer unmodified. Reads are
// pull-based: the wrapper never reads ahead of what its consumer
// requests. Errors propagate with their identity intact.
type reader struct {
	r io.ReadCloser
	t *tracker
}

func (pr *reader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.t.add(n)
	}
	if err == io.EOF {
		pr.t.finish()
	}
	return n, err
}

// Close releases the underlying stream on every terminal path,
// success or failure, so instrumentation never leaks a held stream.
func (pr *reader) Close() error {
	return pr.r.Close()
}
