// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/pdiddy/fulltext-engine/internal/ratelimit"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// defaultLibGenMirrors mirrors the SciHub list in spirit: rotating,
// operator overridable, first mirror that scrapes cleanly wins.
var defaultLibGenMirrors = []string{
	"https://libgen.is/scimag/",
	"https://libgen.rs/scimag/",
}

// libGenLinkPattern matches the download anchors on a scimag result page:
// either a direct .pdf link or a get.php gateway link.
var libGenLinkPattern = regexp.MustCompile(`(?i)href\s*=\s*["']([^"']+(?:\.pdf[^"']*|get\.php\?[^"']+))["']`)

// LibGenAdapter is disabled by default and always tried last, after
// SciHub, matching the original manager's fixed ordering. It requires a
// DOI; each mirror's scimag search page is fetched and scraped for a
// download link, and any HTTP or parse failure advances to the next
// mirror.
type LibGenAdapter struct {
	Client  *http.Client
	Limiter *ratelimit.Limiter
	Enabled bool

	// Mirrors overrides the default mirror list; empty means defaults.
	Mirrors []string
}

func (a *LibGenAdapter) Name() types.SourceKind { return types.SourceLibGen }

func (a *LibGenAdapter) Applicable(pub types.Publication) bool {
	return a.Enabled && pub.ID.DOI != ""
}

func (a *LibGenAdapter) mirrors() []string {
	if len(a.Mirrors) > 0 {
		return a.Mirrors
	}
	return defaultLibGenMirrors
}

func (a *LibGenAdapter) Lookup(ctx context.Context, pub types.Publication) types.LookupOutcome {
	if !a.Enabled {
		return notApplicable(types.SourceLibGen, "disabled by configuration")
	}
	if pub.ID.DOI == "" {
		return notApplicable(types.SourceLibGen, "no DOI")
	}

	for _, mirror := range a.mirrors() {
		if err := a.Limiter.Acquire(ctx); err != nil {
			return transientErr(types.SourceLibGen, types.ErrTimeout, err.Error())
		}

		pageURL := strings.TrimSuffix(mirror, "/") + "/?q=" + url.QueryEscape(pub.ID.DOI)
		body, ok := fetchMirrorPage(ctx, a.Client, pageURL)
		if !ok {
			continue
		}

		m := libGenLinkPattern.FindSubmatch(body)
		if m == nil {
			continue
		}
		return found(types.SourceLibGen, absoluteMirrorURL(mirror, string(m[1])), map[string]string{"mirror": mirror})
	}
	return notFound(types.SourceLibGen, "no mirror yielded a download link")
}
