// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by any stage that makes
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// InsecureSkipVerify disables TLS certificate verification. Several
	// publisher endpoints present certificate chains that fail strict
	// verification; default on, configurable per deployment.
	InsecureSkipVerify bool `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// SourceToggles enumerates which adapters the orchestrator will consult.
// Gray-area sources default to false.
type SourceToggles struct {
	EnableCache         bool `json:"enable_cache" yaml:"enable_cache"`
	EnableInstitutional bool `json:"enable_institutional" yaml:"enable_institutional"`
	EnablePMC           bool `json:"enable_pmc" yaml:"enable_pmc"`
	EnableOpenAlex      bool `json:"enable_openalex" yaml:"enable_openalex"`
	EnableUnpaywall     bool `json:"enable_unpaywall" yaml:"enable_unpaywall"`
	EnableCORE          bool `json:"enable_core" yaml:"enable_core"`
	EnableBioRxiv       bool `json:"enable_biorxiv" yaml:"enable_biorxiv"`
	EnableArxiv         bool `json:"enable_arxiv" yaml:"enable_arxiv"`
	EnableCrossref      bool `json:"enable_crossref" yaml:"enable_crossref"`
	EnableSciHub        bool `json:"enable_scihub" yaml:"enable_scihub"`
	EnableLibGen        bool `json:"enable_libgen" yaml:"enable_libgen"`
}

// DefaultSourceToggles returns the toggle set the reference design
// recommends: every legal source on, gray-area sources off.
func DefaultSourceToggles() SourceToggles {
	return SourceToggles{
		EnableCache:         true,
		EnableInstitutional: true,
		EnablePMC:           true,
		EnableOpenAlex:      true,
		EnableUnpaywall:     true,
		EnableCORE:          true,
		EnableBioRxiv:       true,
		EnableArxiv:         true,
		EnableCrossref:      true,
		EnableSciHub:        false,
		EnableLibGen:        false,
	}
}

// Credentials groups the API keys and contact identifiers the source
// adapters require. Loaded once at the CLI boundary via internal/secrets.
type Credentials struct {
	UnpaywallEmail           string `json:"unpaywall_email,omitempty" yaml:"unpaywall_email,omitempty"`
	COREAPIKey               string `json:"core_api_key,omitempty" yaml:"core_api_key,omitempty"`
	NCBIAPIKey               string `json:"ncbi_api_key,omitempty" yaml:"ncbi_api_key,omitempty"`
	InstitutionalProxySuffix string `json:"institutional_proxy_suffix,omitempty" yaml:"institutional_proxy_suffix,omitempty"`
}

// PDFValidationConfig bounds the size a downloaded body must fall within
// to be accepted as a PDF.
type PDFValidationConfig struct {
	MinSizeBytes int64 `json:"min_pdf_size_bytes" yaml:"min_pdf_size_bytes"`
	MaxSizeBytes int64 `json:"max_pdf_size_bytes" yaml:"max_pdf_size_bytes"`
}

// DefaultPDFValidationConfig matches §4.4's stated defaults: 10 KiB to 100 MiB.
func DefaultPDFValidationConfig() PDFValidationConfig {
	return PDFValidationConfig{
		MinSizeBytes: 10 * 1024,
		MaxSizeBytes: 100 * 1024 * 1024,
	}
}

// OrchestratorConfig is the single config struct threaded through every
// constructor in the engine: waterfall, adapters, downloader, cache,
// manifest store, and batch runner all take relevant slices of it.
type OrchestratorConfig struct {
	HTTPConfig `yaml:",inline"`

	Sources     SourceToggles `json:"sources" yaml:"sources"`
	Credentials Credentials   `json:"credentials" yaml:"credentials"`
	PDF         PDFValidationConfig `json:"pdf" yaml:"pdf"`

	// TimeoutPerSource bounds a single adapter's lookup call (default 30s).
	TimeoutPerSource time.Duration `json:"timeout_per_source" yaml:"timeout_per_source"`

	// MaxRetries bounds exponential-backoff retries for transient failures
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// MaxConcurrentDownloads bounds the PDFDownloader's download semaphore
	// (default 5).
	MaxConcurrentDownloads int `json:"max_concurrent_downloads" yaml:"max_concurrent_downloads"`

	// BatchMaxConcurrent bounds BatchRunner's lookup semaphore (default 3).
	BatchMaxConcurrent int `json:"batch_max_concurrent" yaml:"batch_max_concurrent"`

	// CacheRootDir is the root of the content-addressed cache tree.
	CacheRootDir string `json:"cache_root_dir" yaml:"cache_root_dir"`

	// PDFStorageRootDir is the root of the GEO-centric manifest-governed
	// PDF store.
	PDFStorageRootDir string `json:"pdf_storage_root_dir" yaml:"pdf_storage_root_dir"`
}

// DefaultOrchestratorConfig returns the documented defaults from §6.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		HTTPConfig: HTTPConfig{
			Timeout:            30 * time.Second,
			UserAgent:          "Mozilla/5.0 (compatible; fulltext-engine/1.0; Academic Research Tool)",
			InsecureSkipVerify: true,
		},
		Sources:                DefaultSourceToggles(),
		PDF:                    DefaultPDFValidationConfig(),
		TimeoutPerSource:       30 * time.Second,
		MaxRetries:             3,
		MaxConcurrentDownloads: 5,
		BatchMaxConcurrent:     3,
		CacheRootDir:           "data/cache",
		PDFStorageRootDir:      "data/pdfs",
	}
}
