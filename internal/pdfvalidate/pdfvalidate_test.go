// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfvalidate

import (
	"bytes"
	"testing"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

func cfg() types.PDFValidationConfig {
	return types.PDFValidationConfig{MinSizeBytes: 10, MaxSizeBytes: 1000}
}

func validPDF(padding int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	buf.Write(bytes.Repeat([]byte("x"), padding))
	buf.WriteString("\n%%EOF")
	return buf.Bytes()
}

func TestValidatePDF(t *testing.T) {
	got := Validate(validPDF(5), cfg())
	if got != Valid {
		t.Fatalf("Validate = %v, want Valid", got)
	}
}

func TestValidateTooSmall(t *testing.T) {
	body := []byte("%PDF-")
	if got := Validate(body, cfg()); got != TooSmall {
		t.Errorf("Validate(%q) = %v, want TooSmall", body, got)
	}
}

func TestValidateExactlyMinSizeMinusOne(t *testing.T) {
	c := types.PDFValidationConfig{MinSizeBytes: 20, MaxSizeBytes: 1000}
	body := append([]byte("%PDF-1.4"), bytes.Repeat([]byte("a"), 11)...) // 19 bytes = min - 1
	if got := Validate(body, c); got != TooSmall {
		t.Errorf("Validate = %v, want TooSmall (got %d bytes, min %d)", got, len(body), c.MinSizeBytes)
	}
}

func TestValidateTooLarge(t *testing.T) {
	c := types.PDFValidationConfig{MinSizeBytes: 1, MaxSizeBytes: 20}
	body := validPDF(50)
	if got := Validate(body, c); got != TooLarge {
		t.Errorf("Validate = %v, want TooLarge", got)
	}
}

func TestValidateBadHeader(t *testing.T) {
	body := append([]byte("NOT-A-PDF-"), bytes.Repeat([]byte("x"), 20)...)
	if got := Validate(body, cfg()); got != BadHeader {
		t.Errorf("Validate = %v, want BadHeader", got)
	}
}

func TestValidateMissingEOF(t *testing.T) {
	body := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("x"), 30)...)
	if got := Validate(body, cfg()); got != MissingEOF {
		t.Errorf("Validate = %v, want MissingEOF", got)
	}
}

func TestValidateEOFOutsideWindow(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n%%EOF\n")
	buf.Write(bytes.Repeat([]byte("x"), 2000))
	if got := Validate(buf.Bytes(), types.PDFValidationConfig{MinSizeBytes: 1, MaxSizeBytes: 10000}); got != MissingEOF {
		t.Errorf("Validate = %v, want MissingEOF (EOF marker outside last 1024 bytes)", got)
	}
}

func TestValidateLandingPageHTML(t *testing.T) {
	tests := [][]byte{
		[]byte("<!DOCTYPE html><html><head></head></html>"),
		[]byte("<html><body>nope</body></html>"),
		[]byte("  <!doctype html>"),
	}
	for _, body := range tests {
		if got := Validate(body, cfg()); got != LandingPageHTML {
			t.Errorf("Validate(%q) = %v, want LandingPageHTML", body, got)
		}
	}
}
