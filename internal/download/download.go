// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download implements the PDF Acquisition & Integrity layer's
// downloader: an HTTP fetch with redirect following, landing-page-to-PDF
// re-resolution, byte-level validation, and atomic content-addressed
// writes. Grounded on the original PDFDownloadManager._download_single
// (omics_oracle_v2/lib/storage/pdf/download_manager.py), adapted to the
// teacher's temp-file-then-rename write idiom
// (internal/acquire/acquire.go's downloadFile).
package download

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/pdiddy/fulltext-engine/internal/httputil"
	"github.com/pdiddy/fulltext-engine/internal/pdfvalidate"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// Downloader fetches, validates, and durably stores PDF content. One
// instance is shared across a batch; Semaphore bounds max concurrent
// downloads.
type Downloader struct {
	Client     *http.Client
	Semaphore  chan struct{}
	UserAgent  string
	MaxRetries int
	PDFConfig  types.PDFValidationConfig
	OutputDir  string

	// Log receives one line per download attempt and outcome, matching the
	// teacher's fmt.Fprintf(w, "downloading: ...") idiom. Defaults to
	// io.Discard.
	Log io.Writer

	// CookieHook, if set, is called on every outbound request before it is
	// sent, letting a caller inject session cookies for institutional
	// access. Nil by default; spec §9 Open Question, no required semantics.
	CookieHook func(*http.Request)
}

// NewDownloader builds a Downloader with a lax-TLS, redirect-following
// client capped at 10 hops, matching spec §4.6 step 2.
func NewDownloader(cfg types.OrchestratorConfig) *Downloader {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify},
	}
	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	concurrency := cfg.MaxConcurrentDownloads
	if concurrency <= 0 {
		concurrency = 5
	}

	return &Downloader{
		Client:     client,
		Semaphore:  make(chan struct{}, concurrency),
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
		PDFConfig:  cfg.PDF,
		OutputDir:  cfg.PDFStorageRootDir,
		Log:        io.Discard,
	}
}

var (
	citationPDFURLPattern = regexp.MustCompile(`(?i)<meta[^>]+name=["']citation_pdf_url["'][^>]+content=["']([^"']+)["']`)
	hrefPDFPattern        = regexp.MustCompile(`(?i)href=["']([^"']+\.pdf[^"']*)["']`)
)

// RetryBaseUnit is the unit exponential backoff is scaled by between
// download attempts (sleep(2**attempt) * RetryBaseUnit). Tests shrink this
// to avoid real sleeps.
var RetryBaseUnit = time.Second

// Download fetches url, recovering from a single landing-page redirect,
// validates the body, and writes it to filename under d.OutputDir.
// It retries transient outcomes up to d.MaxRetries times with exponential
// backoff, mirroring the original's sleep(2**attempt) contract.
func (d *Downloader) Download(ctx context.Context, url, filename string) types.DownloadOutcome {
	maxRetries := d.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	w := d.logWriter()
	fmt.Fprintf(w, "downloading: %s\n", url)

	var last types.DownloadOutcome
	for attempt := 0; attempt <= maxRetries; attempt++ {
		last = d.attempt(ctx, url, filename, attempt)
		if last.Kind == types.DownloadOK {
			fmt.Fprintf(w, "downloaded: %s (%d bytes, sha256 %s)\n", last.Path, last.SizeBytes, last.SHA256)
			return last
		}
		if last.Kind == types.DownloadHTTPFailure && httputil.Classify(last.Status) == httputil.ClassPermanent {
			return last
		}
		if !last.Retryable() {
			return last
		}
		if attempt == maxRetries {
			break
		}
		backoff := time.Duration(1<<uint(attempt)) * RetryBaseUnit
		select {
		case <-ctx.Done():
			return types.DownloadOutcome{Kind: types.DownloadTimeout, Status: 0}
		case <-time.After(backoff):
		}
	}
	fmt.Fprintf(w, "failed: %s (%s)\n", url, last.Kind)
	return last
}

// logWriter returns d.Log, falling back to io.Discard for a Downloader
// constructed as a bare struct literal rather than via NewDownloader.
func (d *Downloader) logWriter() io.Writer {
	if d.Log == nil {
		return io.Discard
	}
	return d.Log
}

func (d *Downloader) attempt(ctx context.Context, url, filename string, attemptNum int) types.DownloadOutcome {
	select {
	case d.Semaphore <- struct{}{}:
		defer func() { <-d.Semaphore }()
	case <-ctx.Done():
		return types.DownloadOutcome{Kind: types.DownloadTimeout, Attempt: attemptNum}
	}

	body, _, status, err := d.fetch(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return types.DownloadOutcome{Kind: types.DownloadTimeout, Attempt: attemptNum}
		}
		return types.DownloadOutcome{Kind: types.DownloadNetworkError, Status: status, Attempt: attemptNum}
	}

	if httputil.Classify(status) != httputil.ClassOK {
		return types.DownloadOutcome{Kind: types.DownloadHTTPFailure, Status: status, Attempt: attemptNum}
	}

	result := pdfvalidate.Validate(body, d.PDFConfig)
	if result == pdfvalidate.LandingPageHTML {
		// One recursive re-fetch via the extracted URL, per spec §4.6 step 5;
		// a second landing page or a failed extraction ends the attempt.
		extracted := extractPDFURL(body)
		if extracted == "" {
			return types.DownloadOutcome{Kind: types.DownloadLandingPage, BytesReceived: int64(len(body)), Attempt: attemptNum}
		}
		nextBody, _, nextStatus, nextErr := d.fetch(ctx, extracted)
		if nextErr != nil || httputil.Classify(nextStatus) != httputil.ClassOK {
			return types.DownloadOutcome{
				Kind:            types.DownloadLandingPage,
				ExtractedPDFURL: extracted,
				BytesReceived:   int64(len(body)),
				Attempt:         attemptNum,
			}
		}
		body = nextBody
		result = pdfvalidate.Validate(body, d.PDFConfig)
		if result != pdfvalidate.Valid {
			return types.DownloadOutcome{
				Kind:            types.DownloadInvalidPDF,
				InvalidReason:   string(result),
				ExtractedPDFURL: extracted,
				BytesReceived:   int64(len(body)),
				Attempt:         attemptNum,
			}
		}
	} else if result != pdfvalidate.Valid {
		return types.DownloadOutcome{
			Kind:          types.DownloadInvalidPDF,
			InvalidReason: string(result),
			BytesReceived: int64(len(body)),
			Attempt:       attemptNum,
		}
	}

	destPath := filepath.Join(d.OutputDir, filename)
	sum, err := writeAtomic(destPath, body)
	if err != nil {
		return types.DownloadOutcome{Kind: types.DownloadNetworkError, Attempt: attemptNum}
	}

	return types.DownloadOutcome{
		Kind:        types.DownloadOK,
		Path:        destPath,
		SHA256:      sum,
		SizeBytes:   int64(len(body)),
		ValidatedAt: time.Now().UTC(),
		Attempt:     attemptNum,
	}
}

func (d *Downloader) fetch(ctx context.Context, url string) ([]byte, string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", 0, err
	}
	req.Header.Set("User-Agent", d.UserAgent)
	req.Header.Set("Accept", "application/pdf,*/*")
	if d.CookieHook != nil {
		d.CookieHook(req)
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, "", 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", resp.StatusCode, err
	}

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return body, finalURL, resp.StatusCode, nil
}

// extractPDFURL looks for a citation_pdf_url meta tag first, then any href
// containing .pdf, matching spec §4.6 step 5's extraction order.
func extractPDFURL(body []byte) string {
	if m := citationPDFURLPattern.FindSubmatch(body); m != nil {
		return string(m[1])
	}
	if m := hrefPDFPattern.FindSubmatch(body); m != nil {
		return string(m[1])
	}
	return ""
}

// writeAtomic writes data to destPath via a temp file in the same
// directory, fsync, then rename, matching internal/acquire's downloadFile.
func writeAtomic(destPath string, data []byte) (string, error) {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".download-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(tmp, bytes.NewReader(data))
	syncErr := tmp.Sync()
	closeErr := tmp.Close()
	if copyErr != nil || syncErr != nil || closeErr != nil {
		os.Remove(tmpPath)
		if copyErr != nil {
			return "", fmt.Errorf("writing download: %w", copyErr)
		}
		if syncErr != nil {
			return "", fmt.Errorf("syncing download: %w", syncErr)
		}
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
