// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gogama/onion/request"
)

func responseAttempt(index, statusCode int) *Attempt {
	return &Attempt{
		Index:    index,
		Start:    time.Now(),
		Response: &request.Response{StatusCode: statusCode},
	}
}

func errorAttempt(index int, err error) *Attempt {
	return &Attempt{Index: index, Start: time.Now(), Err: err}
}

func TestAttempt(t *testing.T) {
	t.Run("StatusCode", func(t *testing.T) {
		assert.Equal(t, 503, responseAttempt(0, 503).StatusCode())
		assert.Equal(t, 0, errorAttempt(0, errors.New("x")).StatusCode())
	})
	t.Run("Duration", func(t *testing.T) {
		a := &Attempt{Start: time.Now().Add(-time.Minute)}
		assert.GreaterOrEqual(t, a.Duration(), time.Minute)
	})
}

func TestTimes(t *testing.T) {
	d := Times(3)
	assert.True(t, d.Decide(responseAttempt(0, 500)))
	assert.True(t, d.Decide(responseAttempt(2, 500)))
	assert.False(t, d.Decide(responseAttempt(3, 500)))
	assert.False(t, Times(0).Decide(responseAttempt(0, 500)))
}

func TestBefore(t *testing.T) {
	d := Before(time.Hour)
	assert.True(t, d.Decide(&Attempt{Start: time.Now()}))
	assert.False(t, d.Decide(&Attempt{Start: time.Now().Add(-2 * time.Hour)}))
}

func TestStatusCode(t *testing.T) {
	d := StatusCode(429, 503)
	assert.True(t, d.Decide(responseAttempt(0, 429)))
	assert.True(t, d.Decide(responseAttempt(0, 503)))
	assert.False(t, d.Decide(responseAttempt(0, 200)))
	assert.False(t, d.Decide(errorAttempt(0, errors.New("x"))), "error attempts have no status")
	assert.False(t, StatusCode().Decide(responseAttempt(0, 500)))
}

func TestTransientErr(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "Nil", err: nil, expected: false},
		{name: "Plain", err: errors.New("x"), expected: false},
		{name: "Timeout", err: timeoutErr{timeout: true}, expected: true},
		{name: "NonTimeout", err: timeoutErr{timeout: false}, expected: false},
		{name: "WrappedTimeout", err: fmt.Errorf("attempt: %w", timeoutErr{timeout: true}), expected: true},
		{name: "OpErrTimeout", err: &net.OpError{Op: "dial", Err: timeoutErr{timeout: true}}, expected: true},
		{name: "ConnReset", err: syscall.ECONNRESET, expected: true},
		{name: "ConnRefused", err: fmt.Errorf("dial: %w", syscall.ECONNREFUSED), expected: true},
		{name: "OtherErrno", err: syscall.EPERM, expected: false},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, TransientErr.Decide(errorAttempt(0, testCase.err)))
		})
	}
	t.Run("ResponseAttempt", func(t *testing.T) {
		assert.False(t, TransientErr.Decide(responseAttempt(0, 503)))
	})
}

type timeoutErr struct {
	timeout bool
}

func (e timeoutErr) Error() string { return "timeout error" }
func (e timeoutErr) Timeout() bool { return e.timeout }

func TestAndOr(t *testing.T) {
	yes := DeciderFunc(func(*Attempt) bool { return true })
	no := DeciderFunc(func(*Attempt) bool { return false })
	a := &Attempt{}

	assert.True(t, yes.And(yes).Decide(a))
	assert.False(t, yes.And(no).Decide(a))
	assert.False(t, no.And(yes).Decide(a))
	assert.True(t, no.Or(yes).Decide(a))
	assert.True(t, yes.Or(no).Decide(a))
	assert.False(t, no.Or(no).Decide(a))

	t.Run("ShortCircuit", func(t *testing.T) {
		evaluated := false
		spy := DeciderFunc(func(*Attempt) bool { evaluated = true; return true })
		assert.False(t, no.And(spy).Decide(a))
		assert.False(t, evaluated, "And must not evaluate g when f is false")
		assert.True(t, yes.Or(spy).Decide(a))
		assert.False(t, evaluated, "Or must not evaluate g when f is true")
	})
}

func TestDefaultDecider(t *testing.T) {
	assert.True(t, DefaultDecider.Decide(responseAttempt(0, 429)))
	assert.True(t, DefaultDecider.Decide(responseAttempt(0, 503)))
	assert.True(t, DefaultDecider.Decide(errorAttempt(0, syscall.ECONNRESET)))
	assert.False(t, DefaultDecider.Decide(responseAttempt(0, 200)))
	assert.False(t, DefaultDecider.Decide(responseAttempt(0, 500)), "500 is not retried by default")
	assert.False(t, DefaultDecider.Decide(responseAttempt(DefaultTimes, 503)), "attempt budget exhausted")
}
