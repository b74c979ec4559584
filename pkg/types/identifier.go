// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// Identifier carries one or more ways of naming a publication. A zero
// Identifier (all fields empty) is invalid; adapters decide which field,
// if any, they can act on.
type Identifier struct {
	DOI        string `json:"doi,omitempty" yaml:"doi,omitempty"`
	PMID       string `json:"pmid,omitempty" yaml:"pmid,omitempty"`
	PMCID      string `json:"pmcid,omitempty" yaml:"pmcid,omitempty"`
	ArxivID    string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`
	TitleHash  string `json:"title_hash,omitempty" yaml:"title_hash,omitempty"`
}

// Empty reports whether the identifier carries no variant at all.
func (id Identifier) Empty() bool {
	return id.DOI == "" && id.PMID == "" && id.PMCID == "" && id.ArxivID == "" && id.TitleHash == ""
}

// IsBiorxivFamily reports whether the DOI belongs to the bioRxiv/medRxiv
// prefix family (10.1101/).
func (id Identifier) IsBiorxivFamily() bool {
	return strings.HasPrefix(id.DOI, "10.1101/")
}

// LooksLikeArxiv reports whether the DOI string itself encodes an arXiv
// identifier, a pattern Crossref sometimes assigns to arXiv preprints.
func (id Identifier) LooksLikeArxiv() bool {
	return strings.Contains(strings.ToLower(id.DOI), "arxiv")
}

// Publication is a record carrying bibliographic data and one or more
// Identifiers. The core never modifies a Publication; the result fields
// FulltextURL, FulltextSource, PDFPath and PDFSHA256 are for callers that
// copy a waterfall or download result onto the record.
type Publication struct {
	Title    string   `json:"title" yaml:"title"`
	Abstract string   `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Authors  []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Journal  string   `json:"journal,omitempty" yaml:"journal,omitempty"`
	Year     int      `json:"year,omitempty" yaml:"year,omitempty"`

	ID Identifier `json:"id" yaml:"id"`

	// OAURL is supplied by upstream discovery (e.g. an OpenAlex harvest) and
	// consumed only by the OpenAlexOA adapter; the core never sets it.
	OAURL string `json:"oa_url,omitempty" yaml:"oa_url,omitempty"`

	// Mutable result fields. Populated by callers that choose to stamp a
	// waterfall/download result onto the record; the orchestrator itself
	// only returns these in LookupOutcome/DownloadOutcome.
	FulltextURL    string `json:"fulltext_url,omitempty" yaml:"fulltext_url,omitempty"`
	FulltextSource string `json:"fulltext_source,omitempty" yaml:"fulltext_source,omitempty"`
	PDFPath        string `json:"pdf_path,omitempty" yaml:"pdf_path,omitempty"`
	PDFSHA256      string `json:"pdf_sha256,omitempty" yaml:"pdf_sha256,omitempty"`
}
