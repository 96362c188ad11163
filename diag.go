// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package onion

import "go.uber.org/zap"

// Diagnostics is the channel policies and codecs use to surface
// warnings and debug detail that are not part of a request's result,
// for example the multipart codec's security warning when MIME
// validation has been explicitly disabled.
//
// The zero value and the nil *Diagnostics both discard everything, so
// code holding a *Diagnostics may log through it unconditionally.
type Diagnostics struct {
	logger *zap.Logger
}

// NewDiagnostics wraps a zap logger as a diagnostic channel. A nil
// logger yields a channel that discards everything.
func NewDiagnostics(logger *zap.Logger) *Diagnostics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Diagnostics{logger: logger}
}

// Warn emits a warning on the diagnostic channel.
func (d *Diagnostics) Warn(msg string, fields ...zap.Field) {
	if d == nil || d.logger == nil {
		return
	}
	d.logger.Warn(msg, fields...)
}

// Debug emits debug detail on the diagnostic channel.
func (d *Diagnostics) Debug(msg string, fields ...zap.Field) {
	if d == nil || d.logger == nil {
		return
	}
	d.logger.Debug(msg, fields...)
}
