// Copyright 2023 The onion Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package body

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"go.uber.org/zap"

	"github.com/gogama/onion"
)

// ErrInvalidMIMEType is returned when a part's content type is not in
// the configured allow-list.
var ErrInvalidMIMEType = errors.New("onion/body: content type not allowed")

// ErrFileSizeExceeded is returned when a part's payload is larger
// than the configured maximum.
var ErrFileSizeExceeded = errors.New("onion/body: part exceeds maximum size")

// ErrNestedMultipart is returned when a part's data is itself a
// multipart descriptor. Multipart assembly requires non-recursive
// parts.
var ErrNestedMultipart = errors.New("onion/body: nested multipart not supported")

// ErrStreamingPart is returned when a part's data is a stream.
// Multipart assembly requires fully materialized parts.
var ErrStreamingPart = errors.New("onion/body: streaming parts not supported")

// DefaultMaxFileSize is the per-part size cap used when
// MultipartOptions leaves MaxFileSize at zero.
const DefaultMaxFileSize = 10 << 20 // 10 MiB

// DefaultAllowedMIMETypes is the content-type allow-list used when
// MultipartOptions leaves AllowedMIMETypes nil.
var DefaultAllowedMIMETypes = []string{
	"text/*",
	"application/json",
	"application/xml",
	"application/pdf",
	"application/zip",
	"application/octet-stream",
	"application/x-www-form-urlencoded",
	"image/*",
	"audio/*",
	"video/*",
}

// The boundary is fixed so that serialization is deterministic.
const defaultBoundary = "onion-1f9d4c6b2e8a37d0"

// A Part is one named part of a multipart form.
type Part struct {
	// Name is the form field name.
	Name string

	// Filename, if non-empty, marks the part as a file part and is
	// sent in the Content-Disposition header. Path components are
	// stripped during serialization unless
	// MultipartOptions.KeepFilenamePaths is set.
	Filename string

	// ContentType is the part's content type. If empty, file parts
	// default to application/octet-stream and plain fields to
	// text/plain.
	ContentType string

	// Data is the part payload: a string, a []byte, or a
	// non-multipart *Descriptor (which is serialized in place).
	// Streams are rejected.
	Data interface{}
}

// MultipartOptions configures multipart validation and assembly.
// Validation runs when the descriptor is serialized, never at
// construction.
type MultipartOptions struct {
	// AllowedMIMETypes is the part content-type allow-list. Entries
	// of the form "type/*" match any subtype. A nil list means
	// DefaultAllowedMIMETypes. An empty, non-nil list explicitly
	// disables validation; serialization proceeds but emits exactly
	// one security warning on the diagnostic channel.
	AllowedMIMETypes []string

	// MaxFileSize caps each part's payload in bytes, measured with
	// DataSize. Zero means DefaultMaxFileSize; negative means no cap.
	MaxFileSize int64

	// KeepFilenamePaths disables the default stripping of directory
	// components from part filenames.
	KeepFilenamePaths bool

	// Boundary overrides the fixed default part boundary.
	Boundary string

	// Diag receives the security warning emitted when validation is
	// disabled. Nil discards it.
	Diag *onion.Diagnostics
}

func (d *Descriptor) serializeMultipart() ([]byte, string, error) {
	opt := d.opt
	allowed := opt.AllowedMIMETypes
	validate := true
	if allowed == nil {
		allowed = DefaultAllowedMIMETypes
	} else if len(allowed) == 0 {
		validate = false
		opt.Diag.Warn("multipart MIME validation disabled",
			zap.Int("parts", len(d.parts)))
	}
	maxSize := opt.MaxFileSize
	if maxSize == 0 {
		maxSize = DefaultMaxFileSize
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	boundary := opt.Boundary
	if boundary == "" {
		boundary = defaultBoundary
	}
	if err := w.SetBoundary(boundary); err != nil {
		return nil, "", fmt.Errorf("onion/body: %w", err)
	}

	for _, part := range d.parts {
		payload, partType, err := partPayload(part)
		if err != nil {
			return nil, "", err
		}
		if validate && !mimeAllowed(allowed, partType) {
			return nil, "", fmt.Errorf("%w: part %q has type %q", ErrInvalidMIMEType, part.Name, partType)
		}
		if maxSize >= 0 {
			if size := DataSize(part.Data); size > maxSize {
				return nil, "", fmt.Errorf("%w: part %q is %d bytes (max %d)",
					ErrFileSizeExceeded, part.Name, size, maxSize)
			}
		}
		filename := part.Filename
		if filename != "" && !opt.KeepFilenamePaths {
			filename = sanitizeFilename(filename)
		}
		pw, err := w.CreatePart(partHeader(part.Name, filename, partType))
		if err != nil {
			return nil, "", fmt.Errorf("onion/body: %w", err)
		}
		if _, err := pw.Write(payload); err != nil {
			return nil, "", fmt.Errorf("onion/body: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("onion/body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// partPayload materializes a part's data and resolves its effective
// content type.
func partPayload(part Part) ([]byte, string, error) {
	contentType := part.ContentType
	var payload []byte
	switch x := part.Data.(type) {
	case string:
		payload = []byte(x)
	case []byte:
		payload = x
	case *Descriptor:
		if x.kind == KindMultipart {
			return nil, "", fmt.Errorf("%w: part %q", ErrNestedMultipart, part.Name)
		}
		b, ct, err := x.Serialize()
		if err != nil {
			return nil, "", err
		}
		payload = b
		if contentType == "" {
			contentType = ct
		}
	case io.Reader:
		return nil, "", fmt.Errorf("%w: part %q", ErrStreamingPart, part.Name)
	default:
		return nil, "", fmt.Errorf("onion/body: part %q: invalid data type %T", part.Name, part.Data)
	}
	if contentType == "" {
		if part.Filename != "" {
			contentType = "application/octet-stream"
		} else {
			contentType = "text/plain"
		}
	}
	return payload, contentType, nil
}

// mimeAllowed matches a content type against an allow-list with
// "type/*" wildcard support. Matching ignores case and any parameters
// after ";".
func mimeAllowed(allowed []string, contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == ct {
			return true
		}
		if mediaType, ok := strings.CutSuffix(a, "/*"); ok {
			if strings.HasPrefix(ct, mediaType+"/") {
				return true
			}
		}
	}
	return false
}

// sanitizeFilename strips directory components (both separator
// conventions) so a hostile filename cannot traverse paths on the
// receiving side.
func sanitizeFilename(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || name == "." || name == ".." {
		return "upload"
	}
	return name
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func partHeader(name, filename, contentType string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	if filename != "" {
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(name), quoteEscaper.Replace(filename)))
	} else {
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"`,
			quoteEscaper.Replace(name)))
	}
	h.Set("Content-Type", contentType)
	return h
}
