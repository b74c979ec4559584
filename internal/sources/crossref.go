// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/fulltext-engine/internal/httputil"
	"github.com/pdiddy/fulltext-engine/internal/ratelimit"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// crossrefWorksBase is a var so tests can point it at an httptest server.
var crossrefWorksBase = "https://api.crossref.org/works/"

// CrossrefAdapter fetches Crossref work metadata and extracts a link whose
// content-type indicates a PDF. Grounded on internal/acquire's
// fetchCrossRefMetadata, generalized here to also harvest a fulltext link.
type CrossrefAdapter struct {
	Client  *http.Client
	Limiter *ratelimit.Limiter
}

func (a *CrossrefAdapter) Name() types.SourceKind { return types.SourceCrossref }

func (a *CrossrefAdapter) Applicable(pub types.Publication) bool {
	return pub.ID.DOI != ""
}

type crossrefResponse struct {
	Message struct {
		Link []struct {
			URL         string `json:"URL"`
			ContentType string `json:"content-type"`
		} `json:"link"`
	} `json:"message"`
}

func (a *CrossrefAdapter) Lookup(ctx context.Context, pub types.Publication) types.LookupOutcome {
	if pub.ID.DOI == "" {
		return notApplicable(types.SourceCrossref, "no DOI")
	}

	if err := a.Limiter.Acquire(ctx); err != nil {
		return transientErr(types.SourceCrossref, types.ErrTimeout, err.Error())
	}

	reqURL := crossrefWorksBase + url.PathEscape(pub.ID.DOI)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return permanentErr(types.SourceCrossref, types.ErrMalformedResponse, err.Error())
	}

	resp, err := httputil.DoWithRetry(ctx, a.Client, req, 0)
	if err != nil {
		return transientErr(types.SourceCrossref, types.ErrNetwork, err.Error())
	}
	defer resp.Body.Close()

	if outcome, handled := classifyHTTPStatus(types.SourceCrossref, resp.StatusCode); handled {
		return outcome
	}

	var body crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return permanentErr(types.SourceCrossref, types.ErrMalformedResponse, err.Error())
	}

	for _, link := range body.Message.Link {
		if strings.Contains(strings.ToLower(link.ContentType), "pdf") {
			return found(types.SourceCrossref, link.URL, map[string]string{"content_type": link.ContentType})
		}
	}
	return notFound(types.SourceCrossref, "no PDF-typed link in Crossref metadata")
}
