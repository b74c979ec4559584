// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch implements the BatchRunner: bounded-concurrency fan-out of
// get_fulltext across many publications, preserving input order in the
// result slice and aggregating per-source statistics. Grounded on
// internal/acquire's sequential AcquireBatch loop, generalized to the
// bounded-semaphore + indexed-channel-fan-in pattern internal/search's
// Search() already uses for concurrent backend calls, plus context
// cancellation propagation per spec §5.
package batch

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// Lookup is the single-publication operation BatchRunner fans out. It is
// satisfied by (*waterfall.Orchestrator).GetFulltext bound to a fixed
// skipSources set, kept as a function value here so this package does not
// need to import internal/waterfall (and gains nothing from the generality
// if it did — BatchRunner only ever needs "run this one lookup").
type Lookup func(ctx context.Context, pub types.Publication) types.LookupOutcome

// Result pairs one publication with its waterfall outcome, preserving the
// association after fan-in reorders completion.
type Result struct {
	Publication types.Publication
	Outcome     types.LookupOutcome
}

// Run executes lookup against every publication with at most maxConcurrent
// in flight at once, and returns results in the same order as pubs
// regardless of completion order. A per-publication failure (any
// non-Found outcome) does not abort the batch; only ctx cancellation
// propagates to every outstanding lookup and stops issuing new ones.
//
// A non-positive maxConcurrent defaults to 3, matching spec §6's
// batch_max_concurrent default. A nil log is treated as io.Discard.
func Run(ctx context.Context, pubs []types.Publication, lookup Lookup, maxConcurrent int, log io.Writer) []Result {
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	if log == nil {
		log = io.Discard
	}

	results := make([]Result, len(pubs))
	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup

	for i, pub := range pubs {
		// Checked before the select: with a cancelled context and a free
		// semaphore slot both select cases would be ready and the pick
		// would be random.
		if ctx.Err() != nil {
			results[i] = cancelledResult(pub, ctx)
			continue
		}
		select {
		case <-ctx.Done():
			results[i] = cancelledResult(pub, ctx)
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, pub types.Publication) {
			defer wg.Done()
			defer func() { <-sem }()
			outcome := lookup(ctx, pub)
			results[i] = Result{Publication: pub, Outcome: outcome}
			if outcome.Found() {
				fmt.Fprintf(log, "batch: found %q via %s\n", pub.Title, outcome.Source)
			} else {
				fmt.Fprintf(log, "batch: %q not found (%s)\n", pub.Title, outcome.Kind)
			}
		}(i, pub)
	}

	wg.Wait()
	return results
}

func cancelledResult(pub types.Publication, ctx context.Context) Result {
	return Result{Publication: pub, Outcome: types.LookupOutcome{
		Kind:      types.LookupTransientErr,
		ErrorKind: types.ErrTimeout,
		Reason:    ctx.Err().Error(),
	}}
}

// Stats aggregates per-source success counts across a batch's results,
// independent of (and in addition to) whatever running totals the shared
// waterfall.Orchestrator already maintains.
type Stats struct {
	Total     int
	Succeeded int
	Failed    int
	BySource  map[string]int
}

// Summarize tallies a Run's results into a Stats snapshot.
func Summarize(results []Result) Stats {
	stats := Stats{Total: len(results), BySource: map[string]int{}}
	for _, r := range results {
		if r.Outcome.Found() {
			stats.Succeeded++
			stats.BySource[string(r.Outcome.Source)]++
		} else {
			stats.Failed++
		}
	}
	return stats
}
