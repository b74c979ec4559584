// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SourceKind enumerates the full-text sources the waterfall orchestrator
// knows about. Order here is declarative only; the fixed priority order
// lives in the waterfall package.
type SourceKind string

const (
	SourceCache         SourceKind = "cache"
	SourceInstitutional SourceKind = "institutional"
	SourceUnpaywall     SourceKind = "unpaywall"
	SourceCORE          SourceKind = "core"
	SourceOpenAlexOA    SourceKind = "openalex_oa"
	SourceCrossref      SourceKind = "crossref"
	SourceBioRxiv       SourceKind = "biorxiv"
	SourceArxiv         SourceKind = "arxiv"
	SourcePMC           SourceKind = "pmc"
	SourceSciHub        SourceKind = "scihub"
	SourceLibGen        SourceKind = "libgen"
)
