// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package manifest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempPDF(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing temp pdf: %v", err)
	}
	return path
}

func TestSaveVerifyRoundTrip(t *testing.T) {
	base := t.TempDir()
	src := writeTempPDF(t, t.TempDir(), "incoming.pdf", "%PDF-1.4 geo test %%EOF")

	s := New(base)
	res, err := s.Save("GSE12345", "987654", src)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !res.Verified || res.SHA256 == "" {
		t.Fatalf("unexpected save result: %+v", res)
	}

	wantPath := filepath.Join(base, "pdfs", "by_geo", "GSE12345", "pmid_987654.pdf")
	if res.PDFPath != wantPath {
		t.Fatalf("PDFPath = %q, want %q", res.PDFPath, wantPath)
	}

	ok, err := s.Verify("GSE12345", "987654")
	if err != nil || !ok {
		t.Fatalf("Verify: ok=%v err=%v", ok, err)
	}
}

func TestVerifyAllDetectsTamperedFile(t *testing.T) {
	base := t.TempDir()
	src := writeTempPDF(t, t.TempDir(), "a.pdf", "%PDF-1.4 aaa %%EOF")

	s := New(base)
	if _, err := s.Save("GSE1", "111", src); err != nil {
		t.Fatalf("Save: %v", err)
	}

	result, err := s.VerifyAll("GSE1")
	if err != nil {
		t.Fatalf("VerifyAll: %v", err)
	}
	if result.Total != 1 || result.Valid != 1 || result.Invalid != 0 {
		t.Fatalf("unexpected clean scan: %+v", result)
	}

	// Tamper with the on-disk PDF without touching the manifest.
	pdfPath := filepath.Join(base, "pdfs", "by_geo", "GSE1", "pmid_111.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF-1.4 tampered %%EOF"), 0o644); err != nil {
		t.Fatalf("tampering: %v", err)
	}

	result, err = s.VerifyAll("GSE1")
	if err != nil {
		t.Fatalf("VerifyAll after tamper: %v", err)
	}
	if result.Valid != 0 || result.Invalid != 1 {
		t.Fatalf("expected tamper detected, got %+v", result)
	}
}

func TestRebuildManifestRecoversFromLossAndVerifiesClean(t *testing.T) {
	base := t.TempDir()
	src := writeTempPDF(t, t.TempDir(), "b.pdf", "%PDF-1.4 bbb %%EOF")

	s := New(base)
	if _, err := s.Save("GSE2", "222", src); err != nil {
		t.Fatalf("Save: %v", err)
	}

	manifestPath := filepath.Join(base, "pdfs", "by_geo", "GSE2", ".manifest.json")
	if err := os.Remove(manifestPath); err != nil {
		t.Fatalf("removing manifest: %v", err)
	}

	if err := s.RebuildManifest("GSE2"); err != nil {
		t.Fatalf("RebuildManifest: %v", err)
	}

	result, err := s.VerifyAll("GSE2")
	if err != nil {
		t.Fatalf("VerifyAll: %v", err)
	}
	if result.Invalid != 0 || result.Total != 1 {
		t.Fatalf("expected clean scan after rebuild, got %+v", result)
	}
}

func TestSaveSerializesPerGEODirectory(t *testing.T) {
	base := t.TempDir()
	srcA := writeTempPDF(t, t.TempDir(), "a.pdf", "%PDF-1.4 aaa %%EOF")
	srcB := writeTempPDF(t, t.TempDir(), "b.pdf", "%PDF-1.4 bbb %%EOF")

	s := New(base)
	done := make(chan error, 2)
	go func() { _, err := s.Save("GSE3", "1", srcA); done <- err }()
	go func() { _, err := s.Save("GSE3", "2", srcB); done <- err }()

	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent Save: %v", err)
		}
	}

	result, err := s.VerifyAll("GSE3")
	if err != nil {
		t.Fatalf("VerifyAll: %v", err)
	}
	if result.Total != 2 || result.Invalid != 0 {
		t.Fatalf("expected both entries valid, got %+v", result)
	}
}

func TestExportCSL(t *testing.T) {
	base := t.TempDir()
	src := writeTempPDF(t, t.TempDir(), "c.pdf", "%PDF-1.4 ccc %%EOF")

	s := New(base)
	if _, err := s.Save("GSE4", "333", src); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var buf bytes.Buffer
	if err := s.ExportCSL("GSE4", &buf); err != nil {
		t.Fatalf("ExportCSL: %v", err)
	}
	if !strings.Contains(buf.String(), "PMID:333") {
		t.Fatalf("expected PMID:333 in CSL export, got %q", buf.String())
	}
}

func TestExportCopiesPDFsAndManifest(t *testing.T) {
	base := t.TempDir()
	src := writeTempPDF(t, t.TempDir(), "d.pdf", "%PDF-1.4 ddd %%EOF")

	s := New(base)
	if _, err := s.Save("GSE5", "444", src); err != nil {
		t.Fatalf("Save: %v", err)
	}

	outDir := t.TempDir()
	if err := s.Export("GSE5", outDir); err != nil {
		t.Fatalf("Export: %v", err)
	}

	pdfData, err := os.ReadFile(filepath.Join(outDir, "pmid_444.pdf"))
	if err != nil {
		t.Fatalf("reading exported pdf: %v", err)
	}
	if string(pdfData) != "%PDF-1.4 ddd %%EOF" {
		t.Fatalf("unexpected exported pdf contents: %q", pdfData)
	}

	manData, err := os.ReadFile(filepath.Join(outDir, ".manifest.json"))
	if err != nil {
		t.Fatalf("reading exported manifest: %v", err)
	}
	if !strings.Contains(string(manData), "444") {
		t.Fatalf("expected exported manifest to mention pmid 444, got %q", manData)
	}
}
