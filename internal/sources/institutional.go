// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"strings"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// InstitutionalAdapter constructs an institutional-proxy URL from a DOI by
// appending the configured proxy suffix. It never probes the network: the
// constructed URL is exercised later by the downloader, which is where a
// 403 (no institutional access for this title) actually surfaces.
type InstitutionalAdapter struct {
	ProxySuffix string
}

func (a *InstitutionalAdapter) Name() types.SourceKind { return types.SourceInstitutional }

func (a *InstitutionalAdapter) Applicable(pub types.Publication) bool {
	return pub.ID.DOI != "" && a.ProxySuffix != ""
}

func (a *InstitutionalAdapter) Lookup(_ context.Context, pub types.Publication) types.LookupOutcome {
	if pub.ID.DOI == "" {
		return notApplicable(types.SourceInstitutional, "no DOI")
	}
	url := "https://doi.org/" + pub.ID.DOI
	if !strings.Contains(url, a.ProxySuffix) {
		url = url + a.ProxySuffix
	}
	return found(types.SourceInstitutional, url, map[string]string{"method": "proxy"})
}
