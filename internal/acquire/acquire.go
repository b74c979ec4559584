// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire drives the full lookup-then-download chain for one
// publication: waterfall lookup, PDF download, and tiered retry. When a
// source yields a URL whose download then fails permanently, the failed
// source is added to the skip set and the waterfall runs again; the skip
// set grows monotonically, so the chain always terminates once the finite
// adapter set is exhausted.
package acquire

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pdiddy/fulltext-engine/internal/cache"
	"github.com/pdiddy/fulltext-engine/internal/download"
	"github.com/pdiddy/fulltext-engine/internal/ident"
	"github.com/pdiddy/fulltext-engine/internal/waterfall"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// Engine ties the orchestrator and downloader together. Cache is optional;
// when present, every freshly downloaded PDF is written back into it so
// the Cache source can serve the next request for the same identifier
// without touching the network.
type Engine struct {
	Orchestrator *waterfall.Orchestrator
	Downloader   *download.Downloader
	Cache        *cache.Cache

	// Log receives one line per tiered-retry event. Defaults to io.Discard.
	Log io.Writer
}

// Result pairs the winning lookup with its download outcome. Tried lists
// the sources whose URLs were obtained and then failed to download, in the
// order they were skipped.
type Result struct {
	Lookup   types.LookupOutcome   `json:"lookup"`
	Download types.DownloadOutcome `json:"download"`
	Tried    []types.SourceKind    `json:"tried,omitempty"`
}

// Acquired reports whether a validated PDF ended up on disk.
func (r Result) Acquired() bool {
	return r.Download.Downloaded()
}

// AcquirePDF runs the waterfall for pub and exercises each winning URL
// through the downloader, skipping the failed source and re-running the
// waterfall whenever a download fails permanently or exhausts its retries.
// A cache hit (file:// URL) short-circuits without a download. The final
// non-Found lookup is returned as-is when every source is exhausted.
func (e *Engine) AcquirePDF(ctx context.Context, pub types.Publication) Result {
	// Normalized here as well as in the orchestrator: the cache write-back
	// and download filename below key on pub.ID, and those keys must match
	// what the Cache source computes from the orchestrator-normalized
	// identifier on the next lookup.
	if norm, err := ident.Normalize(pub.ID); err == nil {
		pub.ID = norm
	}

	w := e.logWriter()
	skip := map[types.SourceKind]bool{}
	var tried []types.SourceKind

	for {
		lookup := e.Orchestrator.GetFulltext(ctx, pub, skip)
		if !lookup.Found() {
			return Result{Lookup: lookup, Tried: tried}
		}

		if path, ok := strings.CutPrefix(lookup.URL, "file://"); ok {
			dl, err := describeLocalPDF(path)
			if err != nil {
				fmt.Fprintf(w, "cached copy unreadable, skipping %s: %v\n", lookup.Source, err)
				skip[lookup.Source] = true
				tried = append(tried, lookup.Source)
				continue
			}
			return Result{Lookup: lookup, Download: dl, Tried: tried}
		}

		filename := ident.Slug(pub.ID, pub.Title) + ".pdf"
		dl := e.Downloader.Download(ctx, lookup.URL, filename)
		if dl.Downloaded() {
			e.writeBack(pub, lookup, dl, w)
			return Result{Lookup: lookup, Download: dl, Tried: tried}
		}
		if ctx.Err() != nil {
			return Result{Lookup: lookup, Download: dl, Tried: tried}
		}

		fmt.Fprintf(w, "download via %s failed (%s), retrying with remaining sources\n", lookup.Source, dl.Kind)
		skip[lookup.Source] = true
		tried = append(tried, lookup.Source)
	}
}

// writeBack stores a fresh download in the content-addressed cache so the
// Cache source serves it next time. A write-back failure is logged and
// swallowed: the PDF is already safely on disk.
func (e *Engine) writeBack(pub types.Publication, lookup types.LookupOutcome, dl types.DownloadOutcome, w io.Writer) {
	if e.Cache == nil {
		return
	}
	body, err := os.ReadFile(dl.Path)
	if err != nil {
		fmt.Fprintf(w, "cache write-back read failed: %v\n", err)
		return
	}
	_, err = e.Cache.Put("pdf", "cache", ident.MD5Hash(pub.ID), "pdf", body, types.CacheMetadata{
		Identifier: ident.CacheKey(pub.ID),
		Source:     string(lookup.Source),
		URL:        lookup.URL,
	})
	if err != nil {
		fmt.Fprintf(w, "cache write-back failed: %v\n", err)
	}
}

// describeLocalPDF synthesizes a Downloaded outcome for a PDF that is
// already on disk (a Cache source hit), re-hashing it so the caller gets
// the same integrity fields a fresh download would carry.
func describeLocalPDF(path string) (types.DownloadOutcome, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return types.DownloadOutcome{}, err
	}
	sum := sha256.Sum256(body)
	return types.DownloadOutcome{
		Kind:        types.DownloadOK,
		Path:        path,
		SHA256:      hex.EncodeToString(sum[:]),
		SizeBytes:   int64(len(body)),
		ValidatedAt: time.Now().UTC(),
	}, nil
}

func (e *Engine) logWriter() io.Writer {
	if e.Log == nil {
		return io.Discard
	}
	return e.Log
}
