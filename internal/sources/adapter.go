// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources implements the SourceAdapter family: a uniform
// lookup(identifier) -> LookupOutcome capability backed by eleven distinct
// wire protocols (local cache, institutional proxy, PMC JATS XML,
// Unpaywall, CORE, OpenAlex OA metadata, Crossref, bioRxiv, arXiv, and the
// opt-in gray-area SciHub/LibGen mirrors).
package sources

import (
	"context"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// Adapter is the uniform capability every source implements. Applicable is
// a cheap, network-free predicate the orchestrator calls before Lookup so
// it can skip adapters that cannot possibly service a publication without
// invoking them (observable as a request count of zero in tests).
type Adapter interface {
	Name() types.SourceKind
	Applicable(pub types.Publication) bool
	Lookup(ctx context.Context, pub types.Publication) types.LookupOutcome
}

func notApplicable(kind types.SourceKind, reason string) types.LookupOutcome {
	return types.LookupOutcome{Kind: types.LookupNotApplicable, Source: kind, Reason: reason}
}

func notFound(kind types.SourceKind, reason string) types.LookupOutcome {
	return types.LookupOutcome{Kind: types.LookupNotFound, Source: kind, Reason: reason}
}

func found(kind types.SourceKind, url string, metadata map[string]string) types.LookupOutcome {
	return types.LookupOutcome{Kind: types.LookupFound, Source: kind, URL: url, Metadata: metadata}
}

func transientErr(kind types.SourceKind, errKind types.ErrorKind, reason string) types.LookupOutcome {
	return types.LookupOutcome{Kind: types.LookupTransientErr, Source: kind, ErrorKind: errKind, Reason: reason}
}

func permanentErr(kind types.SourceKind, errKind types.ErrorKind, reason string) types.LookupOutcome {
	return types.LookupOutcome{Kind: types.LookupPermanentErr, Source: kind, ErrorKind: errKind, Reason: reason}
}

// classifyHTTPStatus maps an HTTP status code to the §4.5/§7 taxonomy for
// a generic JSON/XML metadata adapter: 404 is NotFound, 401/403 is
// PermanentError{AuthFailure}, 429 is TransientError{RateLimited}, other
// non-2xx is TransientError{NetworkError} (eligible for retry up the call
// stack), and 2xx is not classified (caller proceeds to parse the body).
func classifyHTTPStatus(kind types.SourceKind, status int) (types.LookupOutcome, bool) {
	switch {
	case status >= 200 && status < 300:
		return types.LookupOutcome{}, false
	case status == 404:
		return notFound(kind, "HTTP 404"), true
	case status == 401 || status == 403:
		return permanentErr(kind, types.ErrAuthFailure, "HTTP 401/403"), true
	case status == 429:
		return transientErr(kind, types.ErrRateLimited, "HTTP 429"), true
	default:
		return transientErr(kind, types.ErrNetwork, "unexpected HTTP status"), true
	}
}
