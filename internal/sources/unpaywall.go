// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/pdiddy/fulltext-engine/internal/httputil"
	"github.com/pdiddy/fulltext-engine/internal/ratelimit"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// unpaywallBase is a var so tests can point it at an httptest server.
var unpaywallBase = "https://api.unpaywall.org/v2/"

// UnpaywallAdapter queries the Unpaywall API for an open-access location.
// Grounded on manager.py's _try_unpaywall.
type UnpaywallAdapter struct {
	Client  *http.Client
	Limiter *ratelimit.Limiter
	Email   string
}

func (a *UnpaywallAdapter) Name() types.SourceKind { return types.SourceUnpaywall }

func (a *UnpaywallAdapter) Applicable(pub types.Publication) bool {
	return pub.ID.DOI != "" && a.Email != ""
}

type unpaywallResponse struct {
	IsOA           bool `json:"is_oa"`
	BestOALocation *struct {
		URLForPDF string `json:"url_for_pdf"`
		URL       string `json:"url"`
		License   string `json:"license"`
		Version   string `json:"version"`
	} `json:"best_oa_location"`
}

func (a *UnpaywallAdapter) Lookup(ctx context.Context, pub types.Publication) types.LookupOutcome {
	if pub.ID.DOI == "" {
		return notApplicable(types.SourceUnpaywall, "no DOI")
	}
	if a.Email == "" {
		return notApplicable(types.SourceUnpaywall, "no contact email configured")
	}

	if err := a.Limiter.Acquire(ctx); err != nil {
		return transientErr(types.SourceUnpaywall, types.ErrTimeout, err.Error())
	}

	reqURL := unpaywallBase + url.PathEscape(pub.ID.DOI) + "?email=" + url.QueryEscape(a.Email)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return permanentErr(types.SourceUnpaywall, types.ErrMalformedResponse, err.Error())
	}

	resp, err := httputil.DoWithRetry(ctx, a.Client, req, 0)
	if err != nil {
		return transientErr(types.SourceUnpaywall, types.ErrNetwork, err.Error())
	}
	defer resp.Body.Close()

	if outcome, handled := classifyHTTPStatus(types.SourceUnpaywall, resp.StatusCode); handled {
		return outcome
	}

	var body unpaywallResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return permanentErr(types.SourceUnpaywall, types.ErrMalformedResponse, err.Error())
	}

	if !body.IsOA || body.BestOALocation == nil {
		return notFound(types.SourceUnpaywall, "no open-access location")
	}

	pdfURL := body.BestOALocation.URLForPDF
	if pdfURL == "" {
		pdfURL = body.BestOALocation.URL
	}
	if pdfURL == "" {
		return notFound(types.SourceUnpaywall, "best_oa_location had no usable URL")
	}

	return found(types.SourceUnpaywall, pdfURL, map[string]string{
		"license": body.BestOALocation.License,
		"version": body.BestOALocation.Version,
	})
}
