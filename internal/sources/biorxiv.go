// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"

	"github.com/pdiddy/fulltext-engine/internal/ident"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// bioRxivPDFBase is the canonical bioRxiv/medRxiv PDF URL scheme. Declared
// as a var so tests can substitute an alternate scheme if ever needed;
// this adapter never dereferences the URL itself.
var bioRxivPDFBase = "https://www.biorxiv.org/content/"

// BioRxivAdapter constructs the canonical bioRxiv/medRxiv PDF URL for DOIs
// in the 10.1101/ family without probing the network.
type BioRxivAdapter struct{}

func (a *BioRxivAdapter) Name() types.SourceKind { return types.SourceBioRxiv }

func (a *BioRxivAdapter) Applicable(pub types.Publication) bool {
	return ident.IsBiorxivFamily(pub.ID)
}

func (a *BioRxivAdapter) Lookup(_ context.Context, pub types.Publication) types.LookupOutcome {
	if !ident.IsBiorxivFamily(pub.ID) {
		return notApplicable(types.SourceBioRxiv, "DOI is not in the bioRxiv/medRxiv family")
	}
	url := bioRxivPDFBase + pub.ID.DOI + ".full.pdf"
	return found(types.SourceBioRxiv, url, nil)
}
