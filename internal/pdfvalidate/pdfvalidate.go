// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfvalidate performs byte-level structural validation of
// downloaded PDF bodies, rejecting non-PDF or corrupt bytes before they
// reach persistent storage. It is a pure function over a byte slice: no I/O.
package pdfvalidate

import (
	"bytes"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// pdfMagic is the leading byte sequence every valid PDF begins with.
var pdfMagic = []byte("%PDF-")

var eofMarker = []byte("%%EOF")

const eofSearchWindow = 1024

// Result classifies validated bytes.
type Result string

const (
	Valid           Result = "valid"
	TooSmall        Result = "too_small"
	TooLarge        Result = "too_large"
	BadHeader       Result = "bad_header"
	MissingEOF      Result = "missing_eof"
	LandingPageHTML Result = "landing_page_html"
)

// Validate applies §4.4's rules against body and returns a Result
// classification. cfg supplies the configured size bounds.
func Validate(body []byte, cfg types.PDFValidationConfig) Result {
	if looksLikeHTML(body) {
		return LandingPageHTML
	}

	n := int64(len(body))
	if n < cfg.MinSizeBytes {
		return TooSmall
	}
	if n > cfg.MaxSizeBytes {
		return TooLarge
	}
	if !bytes.HasPrefix(body, pdfMagic) {
		return BadHeader
	}

	tail := body
	if len(tail) > eofSearchWindow {
		tail = tail[len(tail)-eofSearchWindow:]
	}
	if !bytes.Contains(tail, eofMarker) {
		return MissingEOF
	}
	return Valid
}

// looksLikeHTML reports whether body begins with an HTML document
// preamble, the heuristic used to distinguish a landing page from a
// corrupt PDF.
func looksLikeHTML(body []byte) bool {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	upper := bytes.ToUpper(trimmed)
	return bytes.HasPrefix(upper, []byte("<!DOCTYPE")) || bytes.HasPrefix(upper, []byte("<HTML"))
}
