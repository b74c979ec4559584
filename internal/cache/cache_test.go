// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

func TestPutGetRoundTrip(t *testing.T) {
	c := New(t.TempDir())
	body := []byte("%PDF-1.4 fake pdf body %%EOF")

	meta, err := c.Put("pdf", "unpaywall", "abc123", "pdf", body, types.CacheMetadata{
		Identifier: "doi:10.1/x",
		Source:     "unpaywall",
		URL:        "https://example.org/a.pdf",
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	wantSum := fmt.Sprintf("%x", sha256.Sum256(body))
	if meta.SHA256 != wantSum {
		t.Errorf("SHA256 = %q, want %q", meta.SHA256, wantSum)
	}

	got, ok, err := c.GetBytes("pdf", "unpaywall", "abc123", "pdf")
	if err != nil {
		t.Fatalf("GetBytes: %v", err)
	}
	if !ok {
		t.Fatal("GetBytes: not found after Put")
	}
	if string(got) != string(body) {
		t.Errorf("GetBytes = %q, want %q", got, body)
	}

	entry, ok, err := c.Get("pdf", "unpaywall", "abc123", "pdf")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if entry.Metadata.SizeBytes != int64(len(body)) {
		t.Errorf("SizeBytes = %d, want %d", entry.Metadata.SizeBytes, len(body))
	}
}

func TestGetMissReturnsNotOK(t *testing.T) {
	c := New(t.TempDir())
	_, ok, err := c.Get("pdf", "unpaywall", "nope", "pdf")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("Get: expected miss, got hit")
	}
}

func TestPutLeavesNoTempFilesOnSuccess(t *testing.T) {
	root := t.TempDir()
	c := New(root)
	if _, err := c.Put("pdf", "core", "h1", "pdf", []byte("data"), types.CacheMetadata{}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(root, "pdf", "core"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("leftover temp file: %s", e.Name())
		}
	}
}

func TestMetadataExistsIffContentExists(t *testing.T) {
	root := t.TempDir()
	c := New(root)
	if _, err := c.Put("xml", "pmc", "h2", "nxml", []byte("<article/>"), types.CacheMetadata{}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	contentPath := c.PathFor("xml", "pmc", "h2", "nxml")
	if _, err := os.Stat(contentPath); err != nil {
		t.Fatalf("content file missing: %v", err)
	}

	metaPath := c.metaPathFor("xml", "pmc", "h2")
	if _, err := os.Stat(metaPath); err != nil {
		t.Fatalf("metadata file missing: %v", err)
	}
}
