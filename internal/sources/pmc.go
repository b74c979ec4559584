// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/pdiddy/fulltext-engine/internal/cache"
	"github.com/pdiddy/fulltext-engine/internal/httputil"
	"github.com/pdiddy/fulltext-engine/internal/ident"
	"github.com/pdiddy/fulltext-engine/internal/ratelimit"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// pmcEfetchBase is a var so tests can point it at an httptest server.
var pmcEfetchBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"

// minPMCBodyBytes is the smallest JATS payload treated as a real article;
// anything shorter is almost certainly an empty/error stub.
const minPMCBodyBytes = 100

// pmcArticleBase is the canonical PMC article page, returned as the
// LookupOutcome's URL per spec §4.5/§6 (the efetch response itself is an
// internal detail materialized into Cache, not the fulltext location).
const pmcArticleBase = "https://www.ncbi.nlm.nih.gov/pmc/articles/"

// PMCAdapter fetches the full JATS XML body for a PMC article through NCBI
// e-utilities, writes it into the ContentAddressedCache at
// xml/pmc/{pmcid_numeric}.nxml, and returns the canonical PMC article page
// as the Found URL, matching the original pubmed.py's efetch-then-cache
// contract (omics_oracle_v2/lib/publications/clients/pubmed.py).
type PMCAdapter struct {
	Client  *http.Client
	Limiter *ratelimit.Limiter
	APIKey  string
	Cache   *cache.Cache
}

func (a *PMCAdapter) Name() types.SourceKind { return types.SourcePMC }

func (a *PMCAdapter) Applicable(pub types.Publication) bool {
	return pub.ID.PMCID != ""
}

func (a *PMCAdapter) Lookup(ctx context.Context, pub types.Publication) types.LookupOutcome {
	if pub.ID.PMCID == "" {
		return notApplicable(types.SourcePMC, "no PMCID")
	}

	if err := a.Limiter.Acquire(ctx); err != nil {
		return transientErr(types.SourcePMC, types.ErrTimeout, err.Error())
	}

	reqURL := pmcEfetchBase + "?db=pmc&id=" + pub.ID.PMCID + "&retmode=xml&rettype=full"
	if a.APIKey != "" {
		reqURL += "&api_key=" + a.APIKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return permanentErr(types.SourcePMC, types.ErrMalformedResponse, err.Error())
	}

	resp, err := httputil.DoWithRetry(ctx, a.Client, req, 0)
	if err != nil {
		return transientErr(types.SourcePMC, types.ErrNetwork, err.Error())
	}
	defer resp.Body.Close()

	if outcome, handled := classifyHTTPStatus(types.SourcePMC, resp.StatusCode); handled {
		return outcome
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transientErr(types.SourcePMC, types.ErrNetwork, err.Error())
	}

	if len(body) < minPMCBodyBytes || bytes.Contains(body, []byte("<ERROR>")) {
		return permanentErr(types.SourcePMC, types.ErrMalformedResponse, "efetch returned an error stub or empty payload")
	}

	if a.Cache != nil {
		numeric := ident.PMCIDNumeric(pub.ID.PMCID)
		if _, err := a.Cache.Put("xml", "pmc", numeric, "nxml", body, types.CacheMetadata{
			Identifier: pub.ID.PMCID,
			Source:     string(types.SourcePMC),
			URL:        reqURL,
		}); err != nil {
			return transientErr(types.SourcePMC, types.ErrNetwork, err.Error())
		}
	}

	articleURL := pmcArticleBase + pub.ID.PMCID + "/"
	return found(types.SourcePMC, articleURL, map[string]string{"format": "jats-xml"})
}
