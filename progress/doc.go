// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package progress instruments uploads and downloads with progress
// events without ever buffering the payload. Buffered bodies get a
// single final event; streaming payloads are wrapped read-by-read
// with throttled callbacks and one unthrottled final event on
// completion.
package progress
