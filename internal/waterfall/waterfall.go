// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package waterfall implements the WaterfallOrchestrator: a priority-
// ordered, short-circuiting pipeline that queries a configurable set of
// SourceAdapters for a publication, stopping at the first one that yields
// a usable result. Grounded directly on the original
// omics_oracle_v2/lib/fulltext/manager.py's get_fulltext loop and
// get_statistics/reset_statistics accounting, with the concurrency idiom
// (goroutines fanning into a channel) taken from internal/search/search.go's
// Search().
package waterfall

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pdiddy/fulltext-engine/internal/ident"
	"github.com/pdiddy/fulltext-engine/internal/sources"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// priorityOrder is the fixed 11-slot waterfall order. Cache is
// free, so it runs first; legal/high-quality aggregators precede
// gray-area mirrors; preprint-server checks run after general aggregators
// because the DOI-pattern predicate is cheap but aggregators often
// already hold the canonical copy.
var priorityOrder = []types.SourceKind{
	types.SourceCache,
	types.SourceInstitutional,
	types.SourceUnpaywall,
	types.SourceCORE,
	types.SourceOpenAlexOA,
	types.SourceCrossref,
	types.SourceBioRxiv,
	types.SourceArxiv,
	types.SourcePMC,
	types.SourceSciHub,
	types.SourceLibGen,
}

// Orchestrator runs a fixed set of adapters, one per SourceKind, in
// priority order for each publication. It is safe for concurrent use:
// BatchRunner shares one Orchestrator (and its Stats) across every
// in-flight lookup.
type Orchestrator struct {
	adapters map[types.SourceKind]sources.Adapter

	// PerSourceTimeout bounds a single adapter's Lookup call (spec §4.7
	// step 1, default 30s).
	PerSourceTimeout time.Duration

	// Log receives one line per notable waterfall event, matching the
	// teacher's fmt.Fprintf(w, ...) progress-reporting idiom. Defaults to
	// io.Discard.
	Log io.Writer

	mu    sync.Mutex
	stats types.Stats
}

// New builds an Orchestrator from the given adapters, keyed by the
// SourceKind each reports via Name(). Adapters for SourceKinds the caller
// never constructed (e.g. a disabled source) are simply absent from the
// map and are skipped during the waterfall, same as if Applicable
// returned false.
func New(adapters []sources.Adapter, perSourceTimeout time.Duration) *Orchestrator {
	if perSourceTimeout <= 0 {
		perSourceTimeout = 30 * time.Second
	}
	m := make(map[types.SourceKind]sources.Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Name()] = a
	}
	return &Orchestrator{adapters: m, PerSourceTimeout: perSourceTimeout, Log: io.Discard, stats: types.Stats{BySource: map[string]int{}}}
}

// GetFulltext runs the waterfall for one publication: for each enabled
// adapter in priority order whose SourceKind is not in skipSources and
// whose Applicable predicate accepts pub, it awaits Lookup under
// PerSourceTimeout. The first Found outcome wins and is returned
// immediately; everything else advances to the next adapter. A per-source
// timeout is recorded as TransientError{Timeout} and also advances.
//
// skipSources grows monotonically across a single publication's tiered
// retry chain (the caller's responsibility, not this method's); progress
// is guaranteed because the adapter set is finite.
func (o *Orchestrator) GetFulltext(ctx context.Context, pub types.Publication, skipSources map[types.SourceKind]bool) types.LookupOutcome {
	// Canonicalize before any suitability predicate runs: adapters match
	// on the normalized forms (lowercased DOI with the doi.org prefix
	// stripped, PMC-prefixed PMCID). A normalization error means the
	// identifier is empty; title-only publications stay as-is.
	if norm, err := ident.Normalize(pub.ID); err == nil {
		pub.ID = norm
	}

	o.recordAttempt()
	w := o.logWriter()

	for _, kind := range priorityOrder {
		if skipSources[kind] {
			continue
		}
		adapter, ok := o.adapters[kind]
		if !ok {
			continue
		}
		if !adapter.Applicable(pub) {
			continue
		}

		fmt.Fprintf(w, "trying source: %s\n", kind)
		outcome := o.lookupWithTimeout(ctx, adapter, pub)
		// The slot kind is authoritative: tiered retry keys its skip set
		// on the returned Source, so it must always name the adapter the
		// orchestrator actually invoked.
		outcome.Source = kind
		if outcome.Found() {
			fmt.Fprintf(w, "found via %s: %s\n", kind, outcome.URL)
			o.recordSuccess(kind)
			return outcome
		}
		if ctx.Err() != nil {
			// A publication-level cancellation must stop the waterfall
			// outright rather than spuriously "advance" through every
			// remaining adapter.
			o.recordFailure()
			return types.LookupOutcome{Kind: types.LookupTransientErr, ErrorKind: types.ErrTimeout, Reason: ctx.Err().Error()}
		}
	}

	fmt.Fprintln(w, "exhausted all applicable sources")
	o.recordFailure()
	return types.LookupOutcome{Kind: types.LookupNotFound}
}

// logWriter returns o.Log, falling back to io.Discard for an Orchestrator
// constructed without New (e.g. a bare zero-value in a test).
func (o *Orchestrator) logWriter() io.Writer {
	if o.Log == nil {
		return io.Discard
	}
	return o.Log
}

// lookupWithTimeout runs adapter.Lookup under a context bounded by
// PerSourceTimeout, converting a timeout expiry into
// TransientError{Timeout} rather than letting the caller observe a bare
// context.DeadlineExceeded.
func (o *Orchestrator) lookupWithTimeout(ctx context.Context, adapter sources.Adapter, pub types.Publication) types.LookupOutcome {
	sctx, cancel := context.WithTimeout(ctx, o.PerSourceTimeout)
	defer cancel()

	done := make(chan types.LookupOutcome, 1)
	go func() {
		done <- adapter.Lookup(sctx, pub)
	}()

	select {
	case out := <-done:
		return out
	case <-sctx.Done():
		kind := adapter.Name()
		return types.LookupOutcome{Kind: types.LookupTransientErr, Source: kind, ErrorKind: types.ErrTimeout, Reason: "per-source timeout expired"}
	}
}

func (o *Orchestrator) recordAttempt() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stats.TotalAttempts++
}

func (o *Orchestrator) recordSuccess(kind types.SourceKind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stats.Successes++
	o.stats.BySource[string(kind)]++
}

func (o *Orchestrator) recordFailure() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stats.Failures++
}

// Statistics returns a snapshot of the orchestrator's attempt counters.
func (o *Orchestrator) Statistics() types.Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	snapshot := types.Stats{
		TotalAttempts: o.stats.TotalAttempts,
		Successes:     o.stats.Successes,
		Failures:      o.stats.Failures,
		BySource:      make(map[string]int, len(o.stats.BySource)),
	}
	for k, v := range o.stats.BySource {
		snapshot.BySource[k] = v
	}
	return snapshot
}

// ResetStatistics zeroes the attempt counters, matching the original
// manager's reset_statistics.
func (o *Orchestrator) ResetStatistics() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stats = types.Stats{BySource: map[string]int{}}
}
