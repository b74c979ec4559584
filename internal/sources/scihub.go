// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/pdiddy/fulltext-engine/internal/ratelimit"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// defaultSciHubMirrors is tried in order; the first mirror that yields a
// scrapeable PDF link wins. It is used when SciHubAdapter.Mirrors is
// empty; Build leaves Mirrors empty, so built adapters use this list.
var defaultSciHubMirrors = []string{
	"https://sci-hub.se/",
	"https://sci-hub.st/",
	"https://sci-hub.ru/",
}

// sciHubEmbedPattern matches the embed/iframe element Sci-Hub mirrors use
// to present the article PDF.
var sciHubEmbedPattern = regexp.MustCompile(`(?i)<(?:embed|iframe)[^>]+src\s*=\s*["']([^"']+\.pdf[^"']*)["']`)

// sciHubOnclickPattern matches the location.href redirect on the mirror's
// save button, the other place the PDF URL appears.
var sciHubOnclickPattern = regexp.MustCompile(`location\.href\s*=\s*\\?['"]([^'"]+\.pdf[^'"]*)`)

// SciHubAdapter is disabled by default (spec: gray-area sources require an
// explicit opt-in toggle) and is always placed last in the waterfall,
// before LibGen. It accepts a DOI or a PMID. Each mirror is fetched in
// turn and its response scraped for a PDF link; any HTTP failure or parse
// failure advances to the next mirror.
type SciHubAdapter struct {
	Client  *http.Client
	Limiter *ratelimit.Limiter
	Enabled bool

	// Mirrors overrides the default mirror list; empty means defaults.
	Mirrors []string
}

func (a *SciHubAdapter) Name() types.SourceKind { return types.SourceSciHub }

func (a *SciHubAdapter) Applicable(pub types.Publication) bool {
	return a.Enabled && (pub.ID.DOI != "" || pub.ID.PMID != "")
}

func (a *SciHubAdapter) mirrors() []string {
	if len(a.Mirrors) > 0 {
		return a.Mirrors
	}
	return defaultSciHubMirrors
}

func (a *SciHubAdapter) Lookup(ctx context.Context, pub types.Publication) types.LookupOutcome {
	if !a.Enabled {
		return notApplicable(types.SourceSciHub, "disabled by configuration")
	}
	id := pub.ID.DOI
	if id == "" {
		id = pub.ID.PMID
	}
	if id == "" {
		return notApplicable(types.SourceSciHub, "no DOI or PMID")
	}

	for _, mirror := range a.mirrors() {
		if err := a.Limiter.Acquire(ctx); err != nil {
			return transientErr(types.SourceSciHub, types.ErrTimeout, err.Error())
		}

		pageURL := strings.TrimSuffix(mirror, "/") + "/" + id
		body, ok := fetchMirrorPage(ctx, a.Client, pageURL)
		if !ok {
			continue
		}

		pdfURL := scrapeSciHubPDF(body)
		if pdfURL == "" {
			continue
		}
		return found(types.SourceSciHub, absoluteMirrorURL(mirror, pdfURL), map[string]string{"mirror": mirror})
	}
	return notFound(types.SourceSciHub, "no mirror yielded a PDF link")
}

// scrapeSciHubPDF extracts the PDF URL from a mirror's article page,
// preferring the embed/iframe src over the save-button redirect.
func scrapeSciHubPDF(body []byte) string {
	if m := sciHubEmbedPattern.FindSubmatch(body); m != nil {
		return string(m[1])
	}
	if m := sciHubOnclickPattern.FindSubmatch(body); m != nil {
		return string(m[1])
	}
	return ""
}

// fetchMirrorPage GETs pageURL and returns its body, reporting ok=false on
// any network or non-200 failure so the caller can advance to the next
// mirror. Mirror failures are expected and never surface as errors.
func fetchMirrorPage(ctx context.Context, client *http.Client, pageURL string) ([]byte, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, false
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, false
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false
	}
	return body, true
}

// absoluteMirrorURL resolves a scraped link against its mirror: scheme-
// relative links get https, site-relative links get the mirror's origin,
// and absolute links pass through unchanged.
func absoluteMirrorURL(mirror, link string) string {
	switch {
	case strings.HasPrefix(link, "//"):
		return "https:" + link
	case strings.HasPrefix(link, "/"):
		return strings.TrimSuffix(mirror, "/") + link
	default:
		return link
	}
}
