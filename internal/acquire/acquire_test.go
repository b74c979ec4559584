// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pdiddy/fulltext-engine/internal/cache"
	"github.com/pdiddy/fulltext-engine/internal/download"
	"github.com/pdiddy/fulltext-engine/internal/sources"
	"github.com/pdiddy/fulltext-engine/internal/waterfall"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

type scriptedAdapter struct {
	kind types.SourceKind
	url  string
}

func (s *scriptedAdapter) Name() types.SourceKind { return s.kind }
func (s *scriptedAdapter) Applicable(types.Publication) bool { return true }
func (s *scriptedAdapter) Lookup(context.Context, types.Publication) types.LookupOutcome {
	if s.url == "" {
		return types.LookupOutcome{Kind: types.LookupNotFound, Source: s.kind}
	}
	return types.LookupOutcome{Kind: types.LookupFound, Source: s.kind, URL: s.url}
}

func validPDFBody() []byte {
	body := []byte("%PDF-1.4\n")
	for len(body) < 15*1024 {
		body = append(body, 'x')
	}
	return append(body, []byte("\n%%EOF")...)
}

func testDownloader(dir string) *download.Downloader {
	return &download.Downloader{
		Client:     http.DefaultClient,
		Semaphore:  make(chan struct{}, 2),
		UserAgent:  "test-agent",
		MaxRetries: 1,
		PDFConfig:  types.DefaultPDFValidationConfig(),
		OutputDir:  dir,
	}
}

func TestAcquirePDFTieredRetryAfterForbidden(t *testing.T) {
	download.RetryBaseUnit = time.Millisecond

	pdf := validPDFBody()
	mux := http.NewServeMux()
	mux.HandleFunc("/proxy", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	mux.HandleFunc("/oa.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Write(pdf)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	institutional := &scriptedAdapter{kind: types.SourceInstitutional, url: srv.URL + "/proxy"}
	unpaywall := &scriptedAdapter{kind: types.SourceUnpaywall, url: srv.URL + "/oa.pdf"}

	orch := waterfall.New([]sources.Adapter{institutional, unpaywall}, time.Second)
	e := &Engine{Orchestrator: orch, Downloader: testDownloader(t.TempDir())}

	pub := types.Publication{ID: types.Identifier{DOI: "10.1371/journal.pgen.1011043"}}
	res := e.AcquirePDF(context.Background(), pub)

	if !res.Acquired() {
		t.Fatalf("expected acquisition to succeed via unpaywall, got %+v", res)
	}
	if res.Lookup.Source != types.SourceUnpaywall {
		t.Fatalf("expected unpaywall to win after institutional 403, got %v", res.Lookup.Source)
	}
	if len(res.Tried) != 1 || res.Tried[0] != types.SourceInstitutional {
		t.Fatalf("expected institutional in the tried list, got %v", res.Tried)
	}
}

func TestAcquirePDFExhaustsSources(t *testing.T) {
	download.RetryBaseUnit = time.Millisecond

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	institutional := &scriptedAdapter{kind: types.SourceInstitutional, url: srv.URL}
	crossref := &scriptedAdapter{kind: types.SourceCrossref, url: srv.URL}

	orch := waterfall.New([]sources.Adapter{institutional, crossref}, time.Second)
	e := &Engine{Orchestrator: orch, Downloader: testDownloader(t.TempDir())}

	pub := types.Publication{ID: types.Identifier{DOI: "10.1/paywalled"}}
	res := e.AcquirePDF(context.Background(), pub)

	if res.Acquired() {
		t.Fatalf("expected acquisition to fail, got %+v", res)
	}
	if res.Lookup.Kind != types.LookupNotFound {
		t.Fatalf("expected final NotFound after exhausting sources, got %+v", res.Lookup)
	}
	if len(res.Tried) != 2 {
		t.Fatalf("expected both sources tried and skipped, got %v", res.Tried)
	}
}

func TestAcquirePDFWriteBackFeedsCacheSource(t *testing.T) {
	download.RetryBaseUnit = time.Millisecond

	pdf := validPDFBody()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pdf)
	}))
	defer srv.Close()

	artifactCache := cache.New(t.TempDir())
	unpaywall := &scriptedAdapter{kind: types.SourceUnpaywall, url: srv.URL}
	cacheAdapter := &sources.CacheAdapter{Cache: artifactCache}

	orch := waterfall.New([]sources.Adapter{cacheAdapter, unpaywall}, time.Second)
	e := &Engine{Orchestrator: orch, Downloader: testDownloader(t.TempDir()), Cache: artifactCache}

	pub := types.Publication{ID: types.Identifier{DOI: "10.1/cached-next-time"}}

	first := e.AcquirePDF(context.Background(), pub)
	if !first.Acquired() || first.Lookup.Source != types.SourceUnpaywall {
		t.Fatalf("expected first acquisition via unpaywall, got %+v", first)
	}

	second := e.AcquirePDF(context.Background(), pub)
	if !second.Acquired() {
		t.Fatalf("expected second acquisition to succeed, got %+v", second)
	}
	if second.Lookup.Source != types.SourceCache {
		t.Fatalf("expected cache to serve the second acquisition, got %v", second.Lookup.Source)
	}
	if second.Download.SHA256 != first.Download.SHA256 {
		t.Fatalf("cache served different bytes: %s vs %s", second.Download.SHA256, first.Download.SHA256)
	}
}
