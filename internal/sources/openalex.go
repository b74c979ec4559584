// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// OpenAlexOAAdapter inspects the publication's inbound OAURL field,
// supplied by upstream discovery; it never makes a network call of its
// own. Grounded on internal/acquire/openalex.go's best_oa_location
// extraction, adapted here to the no-network, metadata-only contract §4.5
// assigns to this specific variant (OpenAlexOA is distinct from a live
// OpenAlex API query, which would be a different adapter).
type OpenAlexOAAdapter struct{}

func (a *OpenAlexOAAdapter) Name() types.SourceKind { return types.SourceOpenAlexOA }

func (a *OpenAlexOAAdapter) Applicable(pub types.Publication) bool {
	return pub.OAURL != ""
}

func (a *OpenAlexOAAdapter) Lookup(_ context.Context, pub types.Publication) types.LookupOutcome {
	if pub.OAURL == "" {
		return notApplicable(types.SourceOpenAlexOA, "no OA URL in metadata")
	}
	return found(types.SourceOpenAlexOA, pub.OAURL, map[string]string{"oa_url": pub.OAURL})
}
