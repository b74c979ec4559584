// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"net/http"

	"github.com/pdiddy/fulltext-engine/internal/cache"
	"github.com/pdiddy/fulltext-engine/internal/ratelimit"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// defaultRate is the requests-per-second ceiling for sources with no
// documented asymmetric rate (spec §4.2 default).
const defaultRate = 3.0

// ncbiCredentialedRate is PMC's rate once an NCBI API key is configured
// (spec §6: "increases PMC rate limit from 3 to 10 req/s").
const ncbiCredentialedRate = 10.0

// Build constructs the full SourceAdapter set enabled by cfg, each wired
// to its own RateLimiter instance (spec §4.2: one limiter per source,
// shared by reference across concurrent invocations of that adapter) and
// a shared HTTP client. Adapters for disabled sources are simply omitted;
// the caller (typically internal/waterfall.New) treats an absent adapter
// the same as one whose Applicable predicate returned false.
//
// This is the SourceRegistry of spec §4.9/§2: the one place construction-
// time configuration (credentials, concurrency, toggles) is translated
// into live adapter instances, so adapters themselves never read global
// state or know about the registry that built them (spec §9's cyclic-
// reference re-architecture).
func Build(cfg types.OrchestratorConfig, client *http.Client, artifactCache *cache.Cache) []Adapter {
	var adapters []Adapter

	if cfg.Sources.EnableCache {
		adapters = append(adapters, &CacheAdapter{Cache: artifactCache})
	}
	if cfg.Sources.EnableInstitutional {
		adapters = append(adapters, &InstitutionalAdapter{ProxySuffix: cfg.Credentials.InstitutionalProxySuffix})
	}
	if cfg.Sources.EnableUnpaywall {
		adapters = append(adapters, &UnpaywallAdapter{
			Client:  client,
			Limiter: ratelimit.New(defaultRate),
			Email:   cfg.Credentials.UnpaywallEmail,
		})
	}
	if cfg.Sources.EnableCORE {
		adapters = append(adapters, &CoreAdapter{
			Client:  client,
			Limiter: ratelimit.New(defaultRate),
			APIKey:  cfg.Credentials.COREAPIKey,
		})
	}
	if cfg.Sources.EnableOpenAlex {
		adapters = append(adapters, &OpenAlexOAAdapter{})
	}
	if cfg.Sources.EnableCrossref {
		adapters = append(adapters, &CrossrefAdapter{Client: client, Limiter: ratelimit.New(defaultRate)})
	}
	if cfg.Sources.EnableBioRxiv {
		adapters = append(adapters, &BioRxivAdapter{})
	}
	if cfg.Sources.EnableArxiv {
		adapters = append(adapters, &ArxivAdapter{
			Client:    client,
			Limiter:   ratelimit.New(defaultRate),
			UserAgent: cfg.UserAgent,
		})
	}
	if cfg.Sources.EnablePMC {
		rate := defaultRate
		if cfg.Credentials.NCBIAPIKey != "" {
			rate = ncbiCredentialedRate
		}
		adapters = append(adapters, &PMCAdapter{
			Client:  client,
			Limiter: ratelimit.New(rate),
			APIKey:  cfg.Credentials.NCBIAPIKey,
			Cache:   artifactCache,
		})
	}
	if cfg.Sources.EnableSciHub {
		adapters = append(adapters, &SciHubAdapter{Client: client, Limiter: ratelimit.New(defaultRate), Enabled: true})
	}
	if cfg.Sources.EnableLibGen {
		adapters = append(adapters, &LibGenAdapter{Client: client, Limiter: ratelimit.New(defaultRate), Enabled: true})
	}

	return adapters
}
