// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/fulltext-engine/internal/acquire"
	"github.com/pdiddy/fulltext-engine/internal/cache"
	"github.com/pdiddy/fulltext-engine/internal/download"
	"github.com/pdiddy/fulltext-engine/internal/manifest"
	"github.com/pdiddy/fulltext-engine/internal/sources"
	"github.com/pdiddy/fulltext-engine/internal/waterfall"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Run the waterfall orchestrator for one publication and print the result",
	Long: `fetch runs get_fulltext for a single publication built from the given
identifier flags, in priority order (cache, institutional, Unpaywall, CORE,
OpenAlex, Crossref, bioRxiv, arXiv, PMC, and opt-in SciHub/LibGen), and
prints the resulting LookupOutcome as JSON.

With --download, the winning URL is also exercised through the PDF
downloader; if the download fails permanently the waterfall re-runs with
that source skipped, until a source delivers a valid PDF or every source is
exhausted. With --geo-id, a downloaded PDF is additionally filed into the
GEO manifest store under --pmid.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("doi", "", "DOI identifier")
	fetchCmd.Flags().String("pmid", "", "PubMed identifier")
	fetchCmd.Flags().String("pmcid", "", "PubMed Central identifier")
	fetchCmd.Flags().String("arxiv-id", "", "arXiv identifier")
	fetchCmd.Flags().String("title", "", "publication title (used by title-search adapters)")
	fetchCmd.Flags().String("oa-url", "", "upstream-supplied open-access URL (OpenAlexOA adapter)")
	fetchCmd.Flags().Bool("download", false, "download and validate the PDF, with tiered retry across sources")
	fetchCmd.Flags().String("geo-id", "", "file the downloaded PDF under this GEO dataset (requires --download and --pmid)")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	doi, _ := cmd.Flags().GetString("doi")
	pmid, _ := cmd.Flags().GetString("pmid")
	pmcid, _ := cmd.Flags().GetString("pmcid")
	arxivID, _ := cmd.Flags().GetString("arxiv-id")
	title, _ := cmd.Flags().GetString("title")
	oaURL, _ := cmd.Flags().GetString("oa-url")
	withDownload, _ := cmd.Flags().GetBool("download")
	geoID, _ := cmd.Flags().GetString("geo-id")

	if doi == "" && pmid == "" && pmcid == "" && arxivID == "" && title == "" {
		fmt.Fprintln(os.Stderr, "config error: at least one of --doi, --pmid, --pmcid, --arxiv-id, --title is required")
		os.Exit(2)
	}
	if geoID != "" && (!withDownload || pmid == "") {
		fmt.Fprintln(os.Stderr, "config error: --geo-id requires --download and --pmid")
		os.Exit(2)
	}

	pub := types.Publication{
		Title: title,
		OAURL: oaURL,
		ID: types.Identifier{
			DOI:     doi,
			PMID:    pmid,
			PMCID:   pmcid,
			ArxivID: arxivID,
		},
	}

	cfg := loadOrchestratorConfig()
	client := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}},
	}
	artifactCache := cache.New(cfg.CacheRootDir)

	adapters := sources.Build(cfg, client, artifactCache)
	orch := waterfall.New(adapters, cfg.TimeoutPerSource)
	orch.Log = os.Stderr

	if !withDownload {
		out := orch.GetFulltext(context.Background(), pub, nil)
		if err := printJSON(out); err != nil {
			return err
		}
		if !out.Found() {
			os.Exit(1)
		}
		return nil
	}

	d := download.NewDownloader(cfg)
	d.Log = os.Stderr
	engine := &acquire.Engine{
		Orchestrator: orch,
		Downloader:   d,
		Cache:        artifactCache,
		Log:          os.Stderr,
	}

	res := engine.AcquirePDF(context.Background(), pub)
	if err := printJSON(res); err != nil {
		return err
	}
	if !res.Acquired() {
		os.Exit(1)
	}

	if geoID != "" {
		store := manifest.New(cfg.PDFStorageRootDir)
		saved, err := store.Save(geoID, pmid, res.Download.Path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "i/o error:", err)
			os.Exit(3)
		}
		fmt.Fprintf(os.Stderr, "filed under %s: %s\n", geoID, saved.PDFPath)
	}
	return nil
}
