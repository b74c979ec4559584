// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/xml"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/fulltext-engine/internal/httputil"
	"github.com/pdiddy/fulltext-engine/internal/ratelimit"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// arxivPDFBase and arxivAPIBase are declared as vars so tests can
// substitute httptest servers, matching the teacher's pattern for
// package-level endpoint constants.
var (
	arxivPDFBase = "https://arxiv.org/pdf/"
	arxivAPIBase = "https://export.arxiv.org/api/query"
)

// ArxivAdapter resolves PDFs either by constructing the direct
// arxiv.org/pdf/{id}.pdf URL when an arXiv ID is already known, or by
// title search through the arXiv Atom API otherwise.
type ArxivAdapter struct {
	Client    *http.Client
	Limiter   *ratelimit.Limiter
	UserAgent string
}

func (a *ArxivAdapter) Name() types.SourceKind { return types.SourceArxiv }

func (a *ArxivAdapter) Applicable(pub types.Publication) bool {
	return pub.ID.ArxivID != "" || pub.ID.LooksLikeArxiv() || pub.Title != ""
}

func (a *ArxivAdapter) Lookup(ctx context.Context, pub types.Publication) types.LookupOutcome {
	if id := arxivIDOf(pub); id != "" {
		return found(types.SourceArxiv, arxivPDFBase+id+".pdf", map[string]string{"arxiv_id": id})
	}

	// Title mode is skipped when the publication already carries a
	// non-arXiv DOI — another adapter is more likely to resolve it, and a
	// title search against arXiv would just add noise.
	if pub.ID.DOI != "" && !pub.ID.LooksLikeArxiv() {
		return notApplicable(types.SourceArxiv, "has non-arXiv DOI, skipping title search")
	}
	if pub.Title == "" {
		return notApplicable(types.SourceArxiv, "no arXiv ID and no title for search")
	}

	if err := a.Limiter.Acquire(ctx); err != nil {
		return transientErr(types.SourceArxiv, types.ErrTimeout, err.Error())
	}

	phrase := `ti:"` + strings.Join(strings.Fields(pub.Title), " ") + `"`
	reqURL := arxivAPIBase + "?search_query=" + url.QueryEscape(phrase) + "&start=0&max_results=1"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return permanentErr(types.SourceArxiv, types.ErrMalformedResponse, err.Error())
	}
	req.Header.Set("User-Agent", a.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, a.Client, req, 0)
	if err != nil {
		return transientErr(types.SourceArxiv, types.ErrNetwork, err.Error())
	}
	defer resp.Body.Close()

	if outcome, handled := classifyHTTPStatus(types.SourceArxiv, resp.StatusCode); handled {
		return outcome
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return permanentErr(types.SourceArxiv, types.ErrMalformedResponse, err.Error())
	}
	if len(feed.Entries) == 0 {
		return notFound(types.SourceArxiv, "no arXiv entries matched title")
	}

	id := extractArxivID(feed.Entries[0].ID)
	if id == "" {
		return notFound(types.SourceArxiv, "entry had no resolvable arXiv id")
	}
	return found(types.SourceArxiv, arxivPDFBase+id+".pdf", map[string]string{"arxiv_id": id, "method": "title"})
}

// arxivIDOf returns a usable arXiv ID from the identifier's ArxivID field,
// or extracted from a DOI that embeds one, or empty.
func arxivIDOf(pub types.Publication) string {
	if pub.ID.ArxivID != "" {
		return pub.ID.ArxivID
	}
	if pub.ID.LooksLikeArxiv() {
		// DOIs of the form "10.48550/arXiv.2301.07041" embed the id after
		// the final dot-separated "arXiv." segment.
		idx := strings.LastIndex(strings.ToLower(pub.ID.DOI), "arxiv.")
		if idx >= 0 {
			return pub.ID.DOI[idx+len("arxiv."):]
		}
	}
	return ""
}

type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID string `xml:"id"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" -> "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		id = id[:vIdx]
	}
	return id
}
