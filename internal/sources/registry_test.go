// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/pdiddy/fulltext-engine/internal/cache"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

func TestBuildRespectsToggles(t *testing.T) {
	cfg := types.DefaultOrchestratorConfig()
	cfg.Sources = types.SourceToggles{EnableCache: true, EnableUnpaywall: true}
	cfg.Credentials.UnpaywallEmail = "researcher@example.org"

	adapters := Build(cfg, http.DefaultClient, cache.New(t.TempDir()))
	if len(adapters) != 2 {
		t.Fatalf("expected 2 adapters, got %d", len(adapters))
	}

	kinds := map[types.SourceKind]bool{}
	for _, a := range adapters {
		kinds[a.Name()] = true
	}
	if !kinds[types.SourceCache] || !kinds[types.SourceUnpaywall] {
		t.Fatalf("unexpected adapter set: %v", kinds)
	}
}

func TestBuildGrantsNCBICredentialedRate(t *testing.T) {
	cfg := types.DefaultOrchestratorConfig()
	cfg.Sources = types.SourceToggles{EnablePMC: true}
	cfg.Credentials.NCBIAPIKey = "secret-key"

	adapters := Build(cfg, http.DefaultClient, cache.New(t.TempDir()))
	if len(adapters) != 1 {
		t.Fatalf("expected 1 adapter, got %d", len(adapters))
	}
	pmc, ok := adapters[0].(*PMCAdapter)
	if !ok {
		t.Fatalf("expected *PMCAdapter, got %T", adapters[0])
	}
	if pmc.APIKey != "secret-key" {
		t.Fatalf("expected API key to be threaded through, got %q", pmc.APIKey)
	}

	// At 10 req/s the second Acquire waits ~100ms; at the 3 req/s default
	// it would wait ~333ms.
	ctx := context.Background()
	start := time.Now()
	if err := pmc.Limiter.Acquire(ctx); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := pmc.Limiter.Acquire(ctx); err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if elapsed := time.Since(start); elapsed >= 250*time.Millisecond {
		t.Fatalf("expected the credentialed 10 req/s PMC rate, two acquires took %v", elapsed)
	}
}

func TestBuildOmitsDisabledGrayAreaSourcesByDefault(t *testing.T) {
	cfg := types.DefaultOrchestratorConfig()
	adapters := Build(cfg, http.DefaultClient, cache.New(t.TempDir()))
	for _, a := range adapters {
		if a.Name() == types.SourceSciHub || a.Name() == types.SourceLibGen {
			t.Fatalf("expected gray-area sources disabled by default, found %v", a.Name())
		}
	}
}
