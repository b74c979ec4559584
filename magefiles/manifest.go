// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build mage

package main

import (
	"fmt"

	"github.com/pdiddy/fulltext-engine/internal/manifest"
)

// ManifestVerify runs VerifyAll against a GEO directory and prints a summary.
//
// Usage: mage manifestverify GSE12345
func ManifestVerify(geoID string) error {
	store := manifest.New("data")
	result, err := store.VerifyAll(geoID)
	if err != nil {
		return fmt.Errorf("verifying %s: %w", geoID, err)
	}
	fmt.Printf("%s: %d total, %d valid, %d invalid\n", geoID, result.Total, result.Valid, result.Invalid)
	for _, f := range result.Failures {
		fmt.Println("  ", f)
	}
	if result.Invalid > 0 {
		return fmt.Errorf("%d manifest entries failed verification", result.Invalid)
	}
	return nil
}

// ManifestRebuild regenerates a GEO directory's manifest from the files on disk.
//
// Usage: mage manifestrebuild GSE12345
func ManifestRebuild(geoID string) error {
	store := manifest.New("data")
	if err := store.RebuildManifest(geoID); err != nil {
		return fmt.Errorf("rebuilding manifest for %s: %w", geoID, err)
	}
	fmt.Println("rebuilt manifest for", geoID)
	return nil
}
