// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"

	"github.com/pdiddy/fulltext-engine/internal/cache"
	"github.com/pdiddy/fulltext-engine/internal/ident"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// CacheAdapter is the highest-priority source: it never touches the
// network, only the local ContentAddressedCache.
type CacheAdapter struct {
	Cache *cache.Cache
}

func (a *CacheAdapter) Name() types.SourceKind { return types.SourceCache }

func (a *CacheAdapter) Applicable(pub types.Publication) bool {
	return !pub.ID.Empty()
}

func (a *CacheAdapter) Lookup(_ context.Context, pub types.Publication) types.LookupOutcome {
	hash := ident.MD5Hash(pub.ID)
	entry, ok, err := a.Cache.Get("pdf", "cache", hash, "pdf")
	if err != nil {
		return transientErr(types.SourceCache, types.ErrNetwork, err.Error())
	}
	if !ok {
		return notFound(types.SourceCache, "not in cache")
	}
	return found(types.SourceCache, "file://"+entry.Path, map[string]string{
		"cached": "true",
		"size":   fmt.Sprintf("%d", entry.Metadata.SizeBytes),
	})
}
