// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package sse

import (
	"io"
	"strconv"
	"strings"
)

// An Event is one Server-Sent-Events record.
type Event struct {
	// Name is the value of the record's "event" field, or empty when
	// the field was absent.
	Name string

	// Data is the record's data payload. Repeated "data" fields are
	// joined with "\n".
	Data string

	// ID is the value of the record's "id" field, or empty when the
	// field was absent.
	ID string

	// Retry is the reconnection time in milliseconds from the
	// record's "retry" field. It is -1 when the field was absent or
	// not parseable as a non-negative integer.
	Retry int
}

// A Decoder incrementally decodes a byte stream per the
// Server-Sent-Events grammar.
//
// The decoder is chunk-boundary-agnostic: an event split across two
// underlying read chunks parses identically to the same event
// delivered in one chunk. Internally it carries over the unterminated
// tail of the input and only emits on a confirmed blank-line record
// boundary.
//
// On an underlying stream error the decoder first returns every fully
// parsed event, then surfaces the error — with its identity intact —
// exactly once from Next. A Decoder is not safe for concurrent use.
type Decoder struct {
	r     io.Reader
	buf   []byte
	carry []byte
	queue []Event
	err   error

	// current record accumulator
	name     string
	data     []string
	id       string
	retry    int
	hasRetry bool
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r, buf: make([]byte, 4096)}
}

// Next returns the next event from the stream. It reads from the
// underlying stream only when no already-parsed event is pending, so
// the decoder never pulls ahead of its consumer by more than one read
// chunk. At the end of the stream Next returns io.EOF; any
// unterminated trailing record is discarded, per the SSE grammar.
func (d *Decoder) Next() (Event, error) {
	for {
		if len(d.queue) > 0 {
			ev := d.queue[0]
			d.queue = d.queue[1:]
			return ev, nil
		}
		if d.err != nil {
			return Event{}, d.err
		}
		n, err := d.r.Read(d.buf)
		if n > 0 {
			d.feed(d.buf[:n])
		}
		if err != nil {
			// Serve events parsed from this final chunk before
			// surfacing the error.
			d.err = err
		}
	}
}

// Close releases the underlying stream if it is closable. It is safe
// to call on any terminal path.
func (d *Decoder) Close() error {
	if c, ok := d.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// feed consumes a chunk, emitting events for every record whose
// blank-line terminator is now confirmed. Incomplete trailing input
// stays in the carry buffer.
func (d *Decoder) feed(chunk []byte) {
	d.carry = append(d.carry, chunk...)
	for {
		i := indexOfByte(d.carry, '\n')
		if i < 0 {
			return
		}
		line := string(d.carry[:i])
		d.carry = d.carry[i+1:]
		line = strings.TrimSuffix(line, "\r")
		d.line(line)
	}
}

func indexOfByte(b []byte, c byte) int {
	for i := range b {
		if b[i] == c {
			return i
		}
	}
	return -1
}

// line processes one complete line of input.
func (d *Decoder) line(s string) {
	if s == "" {
		d.dispatch()
		return
	}
	if strings.HasPrefix(s, ":") {
		return // comment
	}
	field, value, found := strings.Cut(s, ":")
	if found {
		value = strings.TrimPrefix(value, " ")
	}
	switch field {
	case "data":
		d.data = append(d.data, value)
	case "event":
		d.name = value
	case "id":
		d.id = value
	case "retry":
		if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
			d.retry = ms
			d.hasRetry = true
		}
	}
}

// dispatch emits the accumulated record, if it carried any data, and
// resets the accumulator. A record with no data field is dropped, per
// the SSE processing model.
func (d *Decoder) dispatch() {
	if len(d.data) > 0 {
		ev := Event{
			Name:  d.name,
			Data:  strings.Join(d.data, "\n"),
			ID:    d.id,
			Retry: -1,
		}
		if d.hasRetry {
			ev.Retry = d.retry
		}
		d.queue = append(d.queue, ev)
	}
	d.name = ""
	d.data = nil
	d.id = ""
	d.retry = 0
	d.hasRetry = false
}

// Parse decodes a complete event-stream input held in memory. It
// yields the same event sequence the Decoder would produce for the
// same bytes arriving in any chunking.
func Parse(s string) []Event {
	d := NewDecoder(strings.NewReader(s))
	var events []Event
	for {
		ev, err := d.Next()
		if err != nil {
			return events
		}
		events = append(events, ev)
	}
}
