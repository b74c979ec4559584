// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manifest implements the GEO-centric ManifestStore: the
// on-disk layout {base}/pdfs/by_geo/{geo_id}/pmid_{pmid}.pdf plus a
// sibling .manifest.json index used for downstream audit and export.
// Grounded directly on the original GEOStorage
// (omics_oracle_v2/lib/storage/geo_storage.py) and IntegrityVerifier
// (omics_oracle_v2/lib/storage/integrity.py): calculate_sha256,
// verify_file_integrity. This package is independent of and never merges
// with internal/cache's legacy md5-keyed artifact store — the two serve
// different consumers per spec §9.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

const manifestFilename = ".manifest.json"

// Store owns every GEO directory under root. Writes to a single GEO
// directory are serialized via a directory-level lock; reads are
// unsynchronized, matching spec §4.8's concurrency contract.
type Store struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New returns a Store rooted at {base}/pdfs/by_geo.
func New(base string) *Store {
	return &Store{root: filepath.Join(base, "pdfs", "by_geo"), locks: map[string]*sync.Mutex{}}
}

func (s *Store) lockFor(geoID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[geoID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[geoID] = l
	}
	return l
}

func (s *Store) dir(geoID string) string {
	return filepath.Join(s.root, geoID)
}

func (s *Store) manifestPath(geoID string) string {
	return filepath.Join(s.dir(geoID), manifestFilename)
}

func pmidFilename(pmid string) string {
	return "pmid_" + pmid + ".pdf"
}

// SaveResult is the outcome of a successful Save.
type SaveResult struct {
	PDFPath  string
	SHA256   string
	SizeBytes int64
	Verified bool
}

// Save copies sourcePath into the geoID directory under pmid's canonical
// filename, recomputes its SHA-256, updates the manifest, and verifies the
// write before returning. The per-GEO lock serializes this against any
// other Save/RebuildManifest targeting the same geoID.
func (s *Store) Save(geoID, pmid, sourcePath string) (SaveResult, error) {
	lock := s.lockFor(geoID)
	lock.Lock()
	defer lock.Unlock()

	dir := s.dir(geoID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return SaveResult{}, fmt.Errorf("manifest: creating geo directory %s: %w", dir, err)
	}

	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return SaveResult{}, fmt.Errorf("manifest: reading source %s: %w", sourcePath, err)
	}

	destPath := filepath.Join(dir, pmidFilename(pmid))
	if err := atomicWrite(dir, destPath, data); err != nil {
		return SaveResult{}, err
	}

	sum := sha256.Sum256(data)
	hexSum := hex.EncodeToString(sum[:])

	onDisk, err := hashFile(destPath)
	if err != nil {
		return SaveResult{}, fmt.Errorf("manifest: verifying %s: %w", destPath, err)
	}
	verified := onDisk == hexSum

	man, err := s.load(geoID)
	if err != nil {
		return SaveResult{}, err
	}
	man.Entries[pmid] = types.ManifestEntry{
		Filename: pmidFilename(pmid),
		SHA256:   hexSum,
		Size:     int64(len(data)),
		SavedAt:  time.Now().UTC(),
		Verified: verified,
	}
	if err := s.persist(geoID, man); err != nil {
		return SaveResult{}, err
	}

	return SaveResult{PDFPath: destPath, SHA256: hexSum, SizeBytes: int64(len(data)), Verified: verified}, nil
}

// Verify re-hashes the on-disk file for (geoID, pmid) and compares it
// against the manifest entry's recorded SHA-256.
func (s *Store) Verify(geoID, pmid string) (bool, error) {
	man, err := s.load(geoID)
	if err != nil {
		return false, err
	}
	entry, ok := man.Entries[pmid]
	if !ok {
		return false, nil
	}
	path := filepath.Join(s.dir(geoID), entry.Filename)
	actual, err := hashFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return actual == entry.SHA256, nil
}

// VerifyResult summarizes a full-directory verification scan.
type VerifyResult struct {
	Total    int
	Valid    int
	Invalid  int
	Failures []string
}

// VerifyAll scans every manifest entry for geoID and reports how many
// file-hash pairs still match, matching the original's
// verify_file_integrity sweep.
func (s *Store) VerifyAll(geoID string) (VerifyResult, error) {
	man, err := s.load(geoID)
	if err != nil {
		return VerifyResult{}, err
	}

	result := VerifyResult{Total: len(man.Entries)}
	for pmid, entry := range man.Entries {
		path := filepath.Join(s.dir(geoID), entry.Filename)
		actual, err := hashFile(path)
		if err != nil {
			result.Invalid++
			result.Failures = append(result.Failures, fmt.Sprintf("%s: %v", pmid, err))
			continue
		}
		if actual == entry.SHA256 {
			result.Valid++
		} else {
			result.Invalid++
			result.Failures = append(result.Failures, fmt.Sprintf("%s: sha256 mismatch", pmid))
		}
	}
	return result, nil
}

// RebuildManifest regenerates a GEO directory's manifest from the PDF
// files actually present on disk, a recovery path for a lost or corrupt
// .manifest.json.
func (s *Store) RebuildManifest(geoID string) error {
	lock := s.lockFor(geoID)
	lock.Lock()
	defer lock.Unlock()

	dir := s.dir(geoID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("manifest: reading geo directory %s: %w", dir, err)
	}

	man := types.Manifest{GEOID: geoID, Entries: map[string]types.ManifestEntry{}}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == manifestFilename || filepath.Ext(name) != ".pdf" {
			continue
		}
		pmid := pmidFromFilename(name)
		if pmid == "" {
			continue
		}
		path := filepath.Join(dir, name)
		info, err := e.Info()
		if err != nil {
			return fmt.Errorf("manifest: stat %s: %w", path, err)
		}
		sum, err := hashFile(path)
		if err != nil {
			return fmt.Errorf("manifest: hashing %s: %w", path, err)
		}
		man.Entries[pmid] = types.ManifestEntry{
			Filename: name,
			SHA256:   sum,
			Size:     info.Size(),
			SavedAt:  info.ModTime().UTC(),
			Verified: true,
		}
	}
	return s.persist(geoID, man)
}

// Export copies a GEO directory's manifest and every PDF it references into
// outDir, for handing a dataset's acquired evidence to a downstream
// auditor. Grounded on the original GEOStorage's export_dataset, which
// performs the same plain recursive copy rather than a packaged archive.
func (s *Store) Export(geoID, outDir string) error {
	man, err := s.load(geoID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("manifest: creating export directory %s: %w", outDir, err)
	}

	for pmid, entry := range man.Entries {
		src := filepath.Join(s.dir(geoID), entry.Filename)
		data, err := os.ReadFile(src)
		if err != nil {
			return fmt.Errorf("manifest: reading %s for export: %w", pmid, err)
		}
		if err := atomicWrite(outDir, filepath.Join(outDir, entry.Filename), data); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(man, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest: marshaling manifest for export: %w", err)
	}
	return atomicWrite(outDir, filepath.Join(outDir, manifestFilename), data)
}

func pmidFromFilename(name string) string {
	const prefix, suffix = "pmid_", ".pdf"
	if len(name) <= len(prefix)+len(suffix) {
		return ""
	}
	if name[:len(prefix)] != prefix {
		return ""
	}
	return name[len(prefix) : len(name)-len(suffix)]
}

func (s *Store) load(geoID string) (types.Manifest, error) {
	path := s.manifestPath(geoID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.Manifest{GEOID: geoID, Entries: map[string]types.ManifestEntry{}}, nil
		}
		return types.Manifest{}, fmt.Errorf("manifest: reading %s: %w", path, err)
	}
	var man types.Manifest
	if err := json.Unmarshal(data, &man); err != nil {
		return types.Manifest{}, fmt.Errorf("manifest: parsing %s: %w", path, err)
	}
	if man.Entries == nil {
		man.Entries = map[string]types.ManifestEntry{}
	}
	man.GEOID = geoID
	return man, nil
}

func (s *Store) persist(geoID string, man types.Manifest) error {
	dir := s.dir(geoID)
	data, err := json.MarshalIndent(man, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest: marshaling manifest for %s: %w", geoID, err)
	}
	return atomicWrite(dir, s.manifestPath(geoID), data)
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func atomicWrite(dir, destPath string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("manifest: creating directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".manifest-*.tmp")
	if err != nil {
		return fmt.Errorf("manifest: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	syncErr := tmp.Sync()
	closeErr := tmp.Close()
	if writeErr != nil || syncErr != nil || closeErr != nil {
		os.Remove(tmpPath)
		if writeErr != nil {
			return fmt.Errorf("manifest: writing %s: %w", destPath, writeErr)
		}
		if syncErr != nil {
			return fmt.Errorf("manifest: syncing %s: %w", destPath, syncErr)
		}
		return fmt.Errorf("manifest: closing temp file for %s: %w", destPath, closeErr)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("manifest: renaming into place %s: %w", destPath, err)
	}
	return nil
}
