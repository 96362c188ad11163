// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package body serializes structured request payloads. A Descriptor
// is a closed sum over the payload kinds — JSON, text, URL-encoded
// form, binary, and multipart form — each with a fixed content type
// and serialization rule.
//
// Multipart serialization enforces security constraints at serialize
// time: a content-type allow-list with wildcard support, a per-part
// size cap measured in exact bytes, filename sanitization against
// path traversal, and rejection of nested multipart and stream-backed
// parts.
package body
