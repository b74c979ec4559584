// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package manifest

import (
	"io"
	"sort"

	"go.yaml.in/yaml/v3"
)

// CSLItem mirrors internal/search/csl.go's CSL-YAML shape, retargeted at
// manifest entries: downstream tooling that already consumes search
// output's CSL export can consume a GEO directory's manifest the same
// way, with Note carrying the integrity fields CSL itself has no slot for.
type CSLItem struct {
	ID   string `yaml:"id"`
	Type string `yaml:"type"`
	Note string `yaml:"note"`
}

// ExportCSL writes every entry of geoID's manifest as a CSL-YAML list to
// w, ordered by PMID for a stable diff across repeated exports.
func (s *Store) ExportCSL(geoID string, w io.Writer) error {
	man, err := s.load(geoID)
	if err != nil {
		return err
	}

	pmids := make([]string, 0, len(man.Entries))
	for pmid := range man.Entries {
		pmids = append(pmids, pmid)
	}
	sort.Strings(pmids)

	items := make([]CSLItem, 0, len(pmids))
	for _, pmid := range pmids {
		entry := man.Entries[pmid]
		items = append(items, CSLItem{
			ID:   "PMID:" + pmid,
			Type: "article-journal",
			Note: entry.Filename + " sha256:" + entry.SHA256,
		})
	}

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}
