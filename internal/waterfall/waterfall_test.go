// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package waterfall

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdiddy/fulltext-engine/internal/sources"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// fakeAdapter lets tests script a fixed outcome and observe how many
// times Lookup was actually invoked (request count), matching the spec's
// "applicable=false implies zero requests" testable property.
type fakeAdapter struct {
	kind        types.SourceKind
	applicable  bool
	outcome     types.LookupOutcome
	delay       time.Duration
	lookupCalls int32
	lastPub     types.Publication
}

func (f *fakeAdapter) Name() types.SourceKind { return f.kind }
func (f *fakeAdapter) Applicable(types.Publication) bool { return f.applicable }
func (f *fakeAdapter) Lookup(ctx context.Context, pub types.Publication) types.LookupOutcome {
	atomic.AddInt32(&f.lookupCalls, 1)
	f.lastPub = pub
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return types.LookupOutcome{Kind: types.LookupTransientErr, ErrorKind: types.ErrTimeout}
		}
	}
	return f.outcome
}

func TestGetFulltextStopsAtFirstSuccess(t *testing.T) {
	cacheAdapter := &fakeAdapter{kind: types.SourceCache, applicable: true, outcome: types.LookupOutcome{Kind: types.LookupNotFound}}
	institutional := &fakeAdapter{kind: types.SourceInstitutional, applicable: true, outcome: types.LookupOutcome{Kind: types.LookupFound, Source: types.SourceInstitutional, URL: "https://proxy.example/x"}}
	unpaywall := &fakeAdapter{kind: types.SourceUnpaywall, applicable: true, outcome: types.LookupOutcome{Kind: types.LookupFound, Source: types.SourceUnpaywall, URL: "https://oa.example/x.pdf"}}

	o := New([]sources.Adapter{cacheAdapter, institutional, unpaywall}, time.Second)
	out := o.GetFulltext(context.Background(), types.Publication{}, nil)

	if !out.Found() || out.Source != types.SourceInstitutional {
		t.Fatalf("expected institutional to win, got %+v", out)
	}
	if atomic.LoadInt32(&unpaywall.lookupCalls) != 0 {
		t.Fatalf("expected unpaywall never invoked, got %d calls", unpaywall.lookupCalls)
	}
}

func TestGetFulltextSkipsInapplicableAdapters(t *testing.T) {
	skipped := &fakeAdapter{kind: types.SourceUnpaywall, applicable: false, outcome: types.LookupOutcome{Kind: types.LookupFound, URL: "should-never-surface"}}
	fallback := &fakeAdapter{kind: types.SourceCrossref, applicable: true, outcome: types.LookupOutcome{Kind: types.LookupFound, Source: types.SourceCrossref, URL: "https://crossref.example/x.pdf"}}

	o := New([]sources.Adapter{skipped, fallback}, time.Second)
	out := o.GetFulltext(context.Background(), types.Publication{}, nil)

	if out.Source != types.SourceCrossref {
		t.Fatalf("expected crossref to win, got %+v", out)
	}
	if atomic.LoadInt32(&skipped.lookupCalls) != 0 {
		t.Fatalf("expected request count 0 for inapplicable adapter, got %d", skipped.lookupCalls)
	}
}

func TestGetFulltextRespectsSkipSources(t *testing.T) {
	institutional := &fakeAdapter{kind: types.SourceInstitutional, applicable: true, outcome: types.LookupOutcome{Kind: types.LookupFound, Source: types.SourceInstitutional, URL: "https://proxy.example/x"}}
	unpaywall := &fakeAdapter{kind: types.SourceUnpaywall, applicable: true, outcome: types.LookupOutcome{Kind: types.LookupFound, Source: types.SourceUnpaywall, URL: "https://oa.example/x.pdf"}}

	o := New([]sources.Adapter{institutional, unpaywall}, time.Second)
	skip := map[types.SourceKind]bool{types.SourceInstitutional: true}
	out := o.GetFulltext(context.Background(), types.Publication{}, skip)

	if out.Source != types.SourceUnpaywall {
		t.Fatalf("expected unpaywall after skipping institutional, got %+v", out)
	}
	if skip[out.Source] {
		t.Fatalf("returned source must not be a member of skipSources")
	}
}

func TestGetFulltextNotFoundWhenAllExhausted(t *testing.T) {
	a := &fakeAdapter{kind: types.SourceCache, applicable: true, outcome: types.LookupOutcome{Kind: types.LookupNotFound}}
	b := &fakeAdapter{kind: types.SourceCrossref, applicable: true, outcome: types.LookupOutcome{Kind: types.LookupNotApplicable}}

	o := New([]sources.Adapter{a, b}, time.Second)
	out := o.GetFulltext(context.Background(), types.Publication{}, nil)

	if out.Kind != types.LookupNotFound {
		t.Fatalf("expected NotFound, got %+v", out)
	}

	stats := o.Statistics()
	if stats.TotalAttempts != 1 || stats.Failures != 1 || stats.Successes != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestGetFulltextTimeoutAdvances(t *testing.T) {
	slow := &fakeAdapter{kind: types.SourceCache, applicable: true, delay: 50 * time.Millisecond}
	fast := &fakeAdapter{kind: types.SourceCrossref, applicable: true, outcome: types.LookupOutcome{Kind: types.LookupFound, Source: types.SourceCrossref, URL: "https://x/y.pdf"}}

	o := New([]sources.Adapter{slow, fast}, 5*time.Millisecond)
	out := o.GetFulltext(context.Background(), types.Publication{}, nil)

	if out.Source != types.SourceCrossref {
		t.Fatalf("expected crossref after cache timeout, got %+v", out)
	}
}

func TestGetFulltextNormalizesIdentifiersBeforeDispatch(t *testing.T) {
	a := &fakeAdapter{kind: types.SourceCache, applicable: true, outcome: types.LookupOutcome{Kind: types.LookupNotFound}}
	o := New([]sources.Adapter{a}, time.Second)

	pub := types.Publication{ID: types.Identifier{
		DOI:   "https://doi.org/10.1101/2021.01.01.425000",
		PMCID: "11851118",
	}}
	o.GetFulltext(context.Background(), pub, nil)

	if a.lastPub.ID.DOI != "10.1101/2021.01.01.425000" {
		t.Errorf("adapter saw DOI %q, want prefix-stripped lowercase form", a.lastPub.ID.DOI)
	}
	if a.lastPub.ID.PMCID != "PMC11851118" {
		t.Errorf("adapter saw PMCID %q, want PMC-prefixed form", a.lastPub.ID.PMCID)
	}
}

func TestStatisticsBySourceAndReset(t *testing.T) {
	a := &fakeAdapter{kind: types.SourceCache, applicable: true, outcome: types.LookupOutcome{Kind: types.LookupFound, Source: types.SourceCache, URL: "file://x"}}
	o := New([]sources.Adapter{a}, time.Second)

	o.GetFulltext(context.Background(), types.Publication{}, nil)
	o.GetFulltext(context.Background(), types.Publication{}, nil)

	stats := o.Statistics()
	if stats.Successes != 2 || stats.BySource["cache"] != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.SuccessRate() != 1.0 {
		t.Fatalf("expected success rate 1.0, got %v", stats.SuccessRate())
	}

	o.ResetStatistics()
	if s := o.Statistics(); s.TotalAttempts != 0 {
		t.Fatalf("expected reset stats, got %+v", s)
	}
}
