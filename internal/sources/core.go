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

// coreSearchBase is a var so tests can point it at an httptest server.
var coreSearchBase = "https://api.core.ac.uk/v3/search/works"

// CoreAdapter queries the CORE works-search API, trying a DOI filter first
// and falling back to a title query. Grounded on core_client.py's search
// request shape and the teacher's patentsview.go query-builder pattern.
type CoreAdapter struct {
	Client  *http.Client
	Limiter *ratelimit.Limiter
	APIKey  string
}

func (a *CoreAdapter) Name() types.SourceKind { return types.SourceCORE }

func (a *CoreAdapter) Applicable(pub types.Publication) bool {
	return a.APIKey != "" && (pub.ID.DOI != "" || pub.Title != "")
}

type coreSearchResponse struct {
	Results []struct {
		DownloadURL       string   `json:"downloadUrl"`
		FullText          string   `json:"fullText"`
		SourceFulltextURLs []string `json:"sourceFulltextUrls"`
	} `json:"results"`
}

// minSpecificTitleWords is the threshold below which a title is considered
// too generic to search CORE by (spec §4.5: "a sufficiently specific title
// is available").
const minSpecificTitleWords = 4

func (a *CoreAdapter) Lookup(ctx context.Context, pub types.Publication) types.LookupOutcome {
	if a.APIKey == "" {
		return notApplicable(types.SourceCORE, "no CORE API key configured")
	}
	if pub.ID.DOI == "" && pub.Title == "" {
		return notApplicable(types.SourceCORE, "no DOI or title to search")
	}

	// DOI-keyed search runs first; title-based lookup is only attempted
	// when the DOI search comes back empty (or there was no DOI to begin
	// with) and the title is specific enough to be worth searching on.
	if pub.ID.DOI != "" {
		out := a.search(ctx, "doi:\""+pub.ID.DOI+"\"")
		if out.Kind != types.LookupNotFound {
			return out
		}
		if !specificTitle(pub.Title) {
			return out
		}
		return a.search(ctx, "title:\""+pub.Title+"\"")
	}

	if !specificTitle(pub.Title) {
		return notFound(types.SourceCORE, "title too generic for a CORE search")
	}
	return a.search(ctx, "title:\""+pub.Title+"\"")
}

// specificTitle rejects titles too short to narrow a CORE search usefully.
func specificTitle(title string) bool {
	return len(strings.Fields(title)) >= minSpecificTitleWords
}

func (a *CoreAdapter) search(ctx context.Context, query string) types.LookupOutcome {
	if err := a.Limiter.Acquire(ctx); err != nil {
		return transientErr(types.SourceCORE, types.ErrTimeout, err.Error())
	}

	reqURL := coreSearchBase + "?q=" + url.QueryEscape(query) + "&limit=1"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return permanentErr(types.SourceCORE, types.ErrMalformedResponse, err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+a.APIKey)

	resp, err := httputil.DoWithRetry(ctx, a.Client, req, 0)
	if err != nil {
		return transientErr(types.SourceCORE, types.ErrNetwork, err.Error())
	}
	defer resp.Body.Close()

	if outcome, handled := classifyHTTPStatus(types.SourceCORE, resp.StatusCode); handled {
		return outcome
	}

	var body coreSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return permanentErr(types.SourceCORE, types.ErrMalformedResponse, err.Error())
	}
	if len(body.Results) == 0 {
		return notFound(types.SourceCORE, "no CORE results")
	}

	r := body.Results[0]
	switch {
	case r.DownloadURL != "":
		return found(types.SourceCORE, r.DownloadURL, map[string]string{"field": "downloadUrl"})
	case r.FullText != "":
		return found(types.SourceCORE, r.FullText, map[string]string{"field": "fullText"})
	case len(r.SourceFulltextURLs) > 0:
		return found(types.SourceCORE, r.SourceFulltextURLs[0], map[string]string{"field": "sourceFulltextUrls"})
	default:
		return notFound(types.SourceCORE, "matched result had no fulltext URL")
	}
}
