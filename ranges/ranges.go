// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ranges

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogama/onion"
	"github.com/gogama/onion/request"
)

// DefaultUnit is the range unit used when none is specified.
const DefaultUnit = "bytes"

// New constructs a policy that requests the byte range [start, end]
// by setting a Range header, e.g. New(0, 1023) sets
// "Range: bytes=0-1023". A negative end produces an open-ended range,
// "bytes=start-".
func New(start, end int64) onion.Policy {
	return NewUnit(DefaultUnit, start, end)
}

// From constructs a policy requesting the open-ended range starting
// at start, "bytes=start-".
func From(start int64) onion.Policy {
	return NewUnit(DefaultUnit, start, -1)
}

// NewUnit is New with an explicit range unit.
func NewUnit(unit string, start, end int64) onion.Policy {
	header := FormatRange(unit, start, end)
	return onion.Named("range", "protocol", map[string]interface{}{
		"unit":  unit,
		"start": start,
		"end":   end,
	}, setHeader(header))
}

// Resume constructs a policy that resumes an interrupted download of
// which downloaded bytes are already on hand. When downloaded is
// zero there is nothing to resume and no Range header is emitted;
// otherwise the policy requests the open-ended range
// "bytes=downloaded-". The total is accepted for caller bookkeeping
// only and never changes the emitted header.
func Resume(downloaded, total int64) onion.Policy {
	var header string
	if downloaded > 0 {
		header = FormatRange(DefaultUnit, downloaded, -1)
	}
	return onion.Named("resume", "protocol", map[string]interface{}{
		"downloaded": downloaded,
		"total":      total,
	}, setHeader(header))
}

func setHeader(value string) onion.Policy {
	return onion.PolicyFunc(func(req *request.Request, next onion.Next) (*request.Response, error) {
		if value == "" {
			return next(req)
		}
		r2 := req.Clone()
		r2.Header.Set("Range", value)
		return next(r2)
	})
}

// FormatRange renders a Range header value, "unit=start-end". A
// negative end yields the open-ended form "unit=start-". An empty
// unit means DefaultUnit.
func FormatRange(unit string, start, end int64) string {
	if unit == "" {
		unit = DefaultUnit
	}
	if end < 0 {
		return fmt.Sprintf("%s=%d-", unit, start)
	}
	return fmt.Sprintf("%s=%d-%d", unit, start, end)
}

// SupportsRange reports whether the response advertises byte-range
// support, i.e. whether its Accept-Ranges header equals exactly
// "bytes".
func SupportsRange(resp *request.Response) bool {
	return resp != nil && resp.Header.Get("Accept-Ranges") == "bytes"
}

// A ContentRange is the parsed form of a Content-Range header. Total
// is -1 when the header carried "*" (total unknown).
type ContentRange struct {
	Unit  string
	Start int64
	End   int64
	Total int64
}

// ParseContentRange parses the strict Content-Range grammar
//
//	<unit> <start>-<end>/<total|*>
//
// e.g. "bytes 200-1023/1024". Any deviation — missing dash, missing
// slash, non-numeric fields — returns nil. This parser sits on a
// response-inspection hot path, so it fails closed and never panics.
func ParseContentRange(v string) *ContentRange {
	unit, rest, ok := strings.Cut(v, " ")
	if !ok || unit == "" {
		return nil
	}
	span, totalPart, ok := strings.Cut(rest, "/")
	if !ok || totalPart == "" {
		return nil
	}
	startPart, endPart, ok := strings.Cut(span, "-")
	if !ok {
		return nil
	}
	start, err := strconv.ParseInt(startPart, 10, 64)
	if err != nil || start < 0 {
		return nil
	}
	end, err := strconv.ParseInt(endPart, 10, 64)
	if err != nil || end < 0 {
		return nil
	}
	total := int64(-1)
	if totalPart != "*" {
		total, err = strconv.ParseInt(totalPart, 10, 64)
		if err != nil || total < 0 {
			return nil
		}
	}
	return &ContentRange{Unit: unit, Start: start, End: end, Total: total}
}
