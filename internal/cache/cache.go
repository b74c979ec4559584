// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache implements the content-addressed, identifier-hash-keyed
// artifact store: a durable local cache for fetched XML and PDF bytes, laid
// out as {cache_root}/{content_type}/{source}/{identifier_hash}.{ext} with
// a sibling .json metadata file. Writes go to a temp file and are renamed
// into place, so a reader never observes a partial artifact.
package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// Cache owns one cache-root directory tree exclusively: every read and
// write to artifacts under root goes through this type.
type Cache struct {
	root string
}

// New returns a Cache rooted at root. The directory is created lazily on
// first write.
func New(root string) *Cache {
	return &Cache{root: root}
}

// Entry is the result of a successful Get: the artifact's on-disk path and
// its recorded metadata.
type Entry struct {
	Path     string
	Metadata types.CacheMetadata
}

// path_for equivalent: PathFor returns the deterministic artifact location
// for (contentType, source, identifierHash, ext), independent of whether
// the artifact currently exists — used by external callers that need to
// read back a cached file directly.
func (c *Cache) PathFor(contentType, source, identifierHash, ext string) string {
	return filepath.Join(c.root, contentType, source, identifierHash+"."+ext)
}

func (c *Cache) metaPathFor(contentType, source, identifierHash string) string {
	return filepath.Join(c.root, contentType, source, identifierHash+".json")
}

// Get returns the cached artifact for (contentType, source,
// identifierHash, ext) if both the content file and its sibling metadata
// file exist; ok is false otherwise.
func (c *Cache) Get(contentType, source, identifierHash, ext string) (entry Entry, ok bool, err error) {
	contentPath := c.PathFor(contentType, source, identifierHash, ext)
	metaPath := c.metaPathFor(contentType, source, identifierHash)

	if _, statErr := os.Stat(contentPath); statErr != nil {
		if os.IsNotExist(statErr) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("cache: stat %s: %w", contentPath, statErr)
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("cache: reading metadata %s: %w", metaPath, err)
	}

	var meta types.CacheMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Entry{}, false, fmt.Errorf("cache: parsing metadata %s: %w", metaPath, err)
	}

	return Entry{Path: contentPath, Metadata: meta}, true, nil
}

// GetBytes reads the artifact body for a Get hit.
func (c *Cache) GetBytes(contentType, source, identifierHash, ext string) ([]byte, bool, error) {
	entry, ok, err := c.Get(contentType, source, identifierHash, ext)
	if err != nil || !ok {
		return nil, ok, err
	}
	data, err := os.ReadFile(entry.Path)
	if err != nil {
		return nil, false, fmt.Errorf("cache: reading artifact %s: %w", entry.Path, err)
	}
	return data, true, nil
}

// Put writes bytes to a temp file in the target directory, fsyncs,
// and renames to the final name; it then computes the SHA-256, fills it
// into meta, and writes the metadata JSON. Any I/O failure leaves no
// partial final file: the temp file is removed on error.
func (c *Cache) Put(contentType, source, identifierHash, ext string, body []byte, meta types.CacheMetadata) (types.CacheMetadata, error) {
	dir := filepath.Join(c.root, contentType, source)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return types.CacheMetadata{}, fmt.Errorf("cache: creating directory %s: %w", dir, err)
	}

	contentPath := c.PathFor(contentType, source, identifierHash, ext)
	if err := atomicWrite(dir, contentPath, body); err != nil {
		return types.CacheMetadata{}, err
	}

	sum := sha256.Sum256(body)
	meta.SHA256 = fmt.Sprintf("%x", sum)
	meta.SizeBytes = int64(len(body))
	if meta.DownloadDate.IsZero() {
		meta.DownloadDate = time.Now().UTC()
	}

	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return types.CacheMetadata{}, fmt.Errorf("cache: marshaling metadata: %w", err)
	}
	metaPath := c.metaPathFor(contentType, source, identifierHash)
	if err := atomicWrite(dir, metaPath, metaBytes); err != nil {
		return types.CacheMetadata{}, err
	}

	return meta, nil
}

// atomicWrite writes data to destPath via a temp file in dir, fsyncing
// before the rename so the final file is durable even across a crash.
func atomicWrite(dir, destPath string, data []byte) error {
	tmpFile, err := os.CreateTemp(dir, ".cache-*.tmp")
	if err != nil {
		return fmt.Errorf("cache: creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := io.Copy(tmpFile, bytes.NewReader(data))
	syncErr := tmpFile.Sync()
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("cache: writing %s: %w", destPath, writeErr)
	}
	if syncErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("cache: syncing %s: %w", destPath, syncErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("cache: closing temp file for %s: %w", destPath, closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("cache: renaming into place %s: %w", destPath, err)
	}
	return nil
}
