// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package body

import (
	"encoding/json"
	"fmt"
	urlpkg "net/url"
)

// A Kind discriminates the closed set of payload descriptor variants.
type Kind int

const (
	// KindJSON is a JSON-encoded payload.
	KindJSON Kind = iota
	// KindText is a plain-text payload passed through unchanged.
	KindText
	// KindForm is an application/x-www-form-urlencoded payload.
	KindForm
	// KindBinary is an opaque byte payload passed through unchanged.
	KindBinary
	// KindMultipart is a multipart/form-data payload assembled from
	// named parts.
	KindMultipart
)

var kindNames = []string{"json", "text", "form", "binary", "multipart"}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// A Descriptor is a typed, serializable representation of a request
// payload. Construct one with JSON, Text, Form, Binary, or Multipart;
// Serialize produces the wire form together with its content type.
//
// Serialization is deterministic and free of side effects, with one
// exception: multipart serialization validates its parts and may
// return an error. Validation deliberately happens at Serialize time,
// not at construction time, so descriptors stay inert values that can
// be built, inspected, and logged freely.
type Descriptor struct {
	kind   Kind
	value  interface{}
	text   string
	form   urlpkg.Values
	binary []byte
	parts  []Part
	opt    MultipartOptions
}

// JSON describes a payload that serializes to the compact JSON
// encoding of v, with content type application/json.
func JSON(v interface{}) *Descriptor {
	return &Descriptor{kind: KindJSON, value: v}
}

// Text describes a plain-text payload, content type
// text/plain; charset=utf-8.
func Text(s string) *Descriptor {
	return &Descriptor{kind: KindText, text: s}
}

// Form describes a URL-encoded form payload, content type
// application/x-www-form-urlencoded. Values are percent-encoded with
// spaces as "+", keys sorted, pairs joined by "&".
func Form(values urlpkg.Values) *Descriptor {
	return &Descriptor{kind: KindForm, form: values}
}

// Binary describes an opaque byte payload, content type
// application/octet-stream.
func Binary(b []byte) *Descriptor {
	return &Descriptor{kind: KindBinary, binary: b}
}

// Multipart describes a multipart/form-data payload assembled from
// parts. See MultipartOptions for the security validation applied
// when the descriptor is serialized.
func Multipart(parts []Part, opt MultipartOptions) *Descriptor {
	ps := make([]Part, len(parts))
	copy(ps, parts)
	return &Descriptor{kind: KindMultipart, parts: ps, opt: opt}
}

// Kind returns the descriptor's variant.
func (d *Descriptor) Kind() Kind {
	return d.kind
}

// Serialize produces the payload's wire form and content type. It
// implements request.Serializer.
func (d *Descriptor) Serialize() ([]byte, string, error) {
	switch d.kind {
	case KindJSON:
		b, err := json.Marshal(d.value)
		if err != nil {
			return nil, "", fmt.Errorf("onion/body: json: %w", err)
		}
		return b, "application/json", nil
	case KindText:
		return []byte(d.text), "text/plain; charset=utf-8", nil
	case KindForm:
		return []byte(d.form.Encode()), "application/x-www-form-urlencoded", nil
	case KindBinary:
		return d.binary, "application/octet-stream", nil
	case KindMultipart:
		return d.serializeMultipart()
	default:
		return nil, "", fmt.Errorf("onion/body: unknown kind %v", d.kind)
	}
}
