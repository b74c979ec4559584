// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ident canonicalizes inbound publication identifiers (DOI, PMID,
// PMCID, arXiv ID) and provides the suitability predicates source adapters
// consult before making a network call.
package ident

import (
	"crypto/md5"
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// arxivPattern matches arXiv IDs: "2301.07041", "arXiv:2301.07041", "2301.07041v2".
var arxivPattern = regexp.MustCompile(`^(?:arXiv:)?(\d{4}\.\d{4,5}(?:v\d+)?)$`)

var doiURLPrefix = regexp.MustCompile(`^https?://(dx\.)?doi\.org/`)

// Normalize canonicalizes raw identifier fields: DOIs are lowercased and
// stripped of any doi.org URL prefix; PMCIDs are stored with the PMC
// prefix even if supplied without one. Normalize is idempotent:
// Normalize(Normalize(id)) == Normalize(id).
func Normalize(raw types.Identifier) (types.Identifier, error) {
	out := raw

	doi := strings.TrimSpace(raw.DOI)
	out.DOI = doi
	if doi != "" {
		out.DOI = doiURLPrefix.ReplaceAllString(strings.ToLower(doi), "")
	}

	pmcid := strings.TrimSpace(raw.PMCID)
	out.PMCID = pmcid
	if pmcid != "" {
		if !strings.HasPrefix(strings.ToUpper(pmcid), "PMC") {
			pmcid = "PMC" + pmcid
		} else {
			pmcid = "PMC" + strings.TrimPrefix(strings.ToUpper(pmcid), "PMC")
		}
		out.PMCID = pmcid
	}

	out.PMID = strings.TrimSpace(raw.PMID)

	arxiv := strings.TrimSpace(raw.ArxivID)
	out.ArxivID = arxiv
	if arxiv != "" {
		if m := arxivPattern.FindStringSubmatch(arxiv); m != nil {
			out.ArxivID = m[1]
		} else {
			out.ArxivID = arxiv
		}
	}

	out.TitleHash = strings.TrimSpace(raw.TitleHash)

	if out.Empty() {
		return types.Identifier{}, fmt.Errorf("ident: empty or structurally impossible identifier")
	}
	return out, nil
}

// IsBiorxivFamily reports whether the identifier's DOI belongs to the
// bioRxiv/medRxiv prefix family.
func IsBiorxivFamily(id types.Identifier) bool {
	return id.IsBiorxivFamily()
}

// LooksLikeArxiv reports whether the identifier's DOI string encodes an
// arXiv identifier, case-insensitively.
func LooksLikeArxiv(id types.Identifier) bool {
	return id.LooksLikeArxiv()
}

// CacheKey returns the canonical textual form of an identifier used for
// legacy MD5-keyed cache hashing. Preference order: DOI, PMCID, PMID,
// ArxivID, TitleHash — the first non-empty field wins. This order differs
// from Slug's filename order, which puts PMID first.
func CacheKey(id types.Identifier) string {
	switch {
	case id.DOI != "":
		return "doi:" + id.DOI
	case id.PMCID != "":
		return "pmcid:" + id.PMCID
	case id.PMID != "":
		return "pmid:" + id.PMID
	case id.ArxivID != "":
		return "arxiv:" + id.ArxivID
	case id.TitleHash != "":
		return "title:" + id.TitleHash
	default:
		return ""
	}
}

// MD5Hash returns the hex-encoded MD5 digest of the canonical identifier
// string, the legacy-compatible "identifier_hash" used as a cache filename
// stem. MD5 has no security role here; it is mandated only for
// compatibility with the existing cache layout.
func MD5Hash(id types.Identifier) string {
	sum := md5.Sum([]byte(CacheKey(id)))
	return fmt.Sprintf("%x", sum)
}

// PMCIDNumeric strips the "PMC" prefix from a normalized PMCID, returning
// the bare digits used as the on-disk filename stem for cached PMC XML
// (spec §6: {cache_root}/xml/pmc/{pmcid_numeric}.nxml).
func PMCIDNumeric(pmcid string) string {
	return strings.TrimPrefix(strings.ToUpper(pmcid), "PMC")
}

// Slug returns a filesystem-safe filename stem for the identifier,
// preferring PMID, then DOI, then PMCID, then arXiv ID, then a hash of the
// title — the priority the PDF downloader's filename-generation step uses.
func Slug(id types.Identifier, title string) string {
	switch {
	case id.PMID != "":
		return "PMID_" + id.PMID
	case id.DOI != "":
		clean := strings.NewReplacer("/", "_", "\\", "_").Replace(id.DOI)
		return "DOI_" + clean
	case id.PMCID != "":
		return id.PMCID
	case id.ArxivID != "":
		return "arxiv_" + id.ArxivID
	default:
		sum := md5.Sum([]byte(title))
		return fmt.Sprintf("paper_%x", sum[:6])
	}
}
