// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ranges

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogama/onion"
	"github.com/gogama/onion/request"
)

func headerSentBy(t *testing.T, p onion.Policy) string {
	req, err := request.New("GET", "http://test.local/file", nil)
	require.NoError(t, err)
	var sent *request.Request
	_, err = p.Apply(req, func(r *request.Request) (*request.Response, error) {
		sent = r
		return &request.Response{StatusCode: 206, Header: make(http.Header)}, nil
	})
	require.NoError(t, err)
	if values, ok := sent.Header["Range"]; ok {
		require.Len(t, values, 1)
		return values[0]
	}
	return ""
}

func TestRangeHeader(t *testing.T) {
	assert.Equal(t, "bytes=0-1023", headerSentBy(t, New(0, 1023)))
	assert.Equal(t, "bytes=100-", headerSentBy(t, From(100)))
	assert.Equal(t, "bytes=5-5", headerSentBy(t, New(5, 5)))
	assert.Equal(t, "items=2-4", headerSentBy(t, NewUnit("items", 2, 4)))
}

func TestResume(t *testing.T) {
	t.Run("Nothing downloaded emits no header", func(t *testing.T) {
		assert.Empty(t, headerSentBy(t, Resume(0, 4096)))
	})
	t.Run("Partial download resumes open-ended", func(t *testing.T) {
		assert.Equal(t, "bytes=1024-", headerSentBy(t, Resume(1024, 0)))
	})
	t.Run("Total never changes the header", func(t *testing.T) {
		assert.Equal(t, "bytes=1024-", headerSentBy(t, Resume(1024, 4096)))
	})
}

func TestSupportsRange(t *testing.T) {
	h := make(http.Header)
	h.Set("Accept-Ranges", "bytes")
	assert.True(t, SupportsRange(&request.Response{Header: h}))

	h = make(http.Header)
	h.Set("Accept-Ranges", "none")
	assert.False(t, SupportsRange(&request.Response{Header: h}))

	assert.False(t, SupportsRange(&request.Response{Header: make(http.Header)}))
	assert.False(t, SupportsRange(nil))
}

func TestParseContentRange(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		cr := ParseContentRange("bytes 200-1023/1024")
		require.NotNil(t, cr)
		assert.Equal(t, ContentRange{Unit: "bytes", Start: 200, End: 1023, Total: 1024}, *cr)
	})
	t.Run("Unknown total", func(t *testing.T) {
		cr := ParseContentRange("bytes 0-99/*")
		require.NotNil(t, cr)
		assert.Equal(t, int64(-1), cr.Total)
	})
	t.Run("Round trip", func(t *testing.T) {
		for _, c := range []ContentRange{
			{Unit: "bytes", Start: 0, End: 0, Total: 1},
			{Unit: "bytes", Start: 200, End: 1023, Total: 1024},
			{Unit: "items", Start: 5, End: 9, Total: 100},
		} {
			s := fmt.Sprintf("%s %d-%d/%d", c.Unit, c.Start, c.End, c.Total)
			cr := ParseContentRange(s)
			require.NotNil(t, cr, s)
			assert.Equal(t, c, *cr)
		}
	})
	t.Run("Malformed returns nil, never panics", func(t *testing.T) {
		for _, s := range []string{
			"",
			"bytes",
			"bytes ",
			"bytes 200-1023",
			"bytes 2001023/1024",
			"bytes x-1023/1024",
			"bytes 200-x/1024",
			"bytes 200-1023/x",
			"bytes -5-10/20",
			"bytes 200-1023/",
			" 200-1023/1024",
			"bytes 200-1023/1024 extra",
		} {
			assert.NotPanics(t, func() {
				assert.Nil(t, ParseContentRange(s), "input %q", s)
			})
		}
	})
}

func TestFormatRange(t *testing.T) {
	assert.Equal(t, "bytes=0-1023", FormatRange("", 0, 1023))
	assert.Equal(t, "bytes=512-", FormatRange("bytes", 512, -1))
	assert.Equal(t, "items=1-2", FormatRange("items", 1, 2))
}
