// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// CacheMetadata is the sibling JSON record written next to every artifact
// in the ContentAddressedCache, at
// {cache_root}/{content_type}/{source}/{identifier_hash}.json
type CacheMetadata struct {
	Identifier   string    `json:"identifier"`
	Source       string    `json:"source"`
	URL          string    `json:"url,omitempty"`
	DownloadDate time.Time `json:"download_date"`
	SizeBytes    int64     `json:"size_bytes"`
	SHA256       string    `json:"sha256"`
	OAStatus     string    `json:"oa_status,omitempty"`
	License      string    `json:"license,omitempty"`
}

// ManifestEntry is one row of a GEO directory's .manifest.json, keyed by
// PMID in the containing map.
type ManifestEntry struct {
	Filename string    `json:"filename"`
	SHA256   string    `json:"sha256"`
	Size     int64     `json:"size_bytes"`
	SavedAt  time.Time `json:"saved_at"`
	Verified bool      `json:"verified"`
}

// Manifest is the full contents of one GEO directory's .manifest.json:
// pmid -> entry.
type Manifest struct {
	GEOID   string                   `json:"geo_id"`
	Entries map[string]ManifestEntry `json:"entries"`
}
