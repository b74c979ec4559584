// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/fulltext-engine/internal/download"
	"github.com/pdiddy/fulltext-engine/internal/ident"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

var downloadCmd = &cobra.Command{
	Use:   "download <url>",
	Short: "Download, validate, and write a PDF from a direct URL",
	Long: `download fetches url, following a single landing-page redirect if the
body is HTML, validates the PDF (magic bytes, size bounds, trailing %%EOF),
and writes it under the configured pdf_storage_root_dir with an atomic
temp-then-rename write.`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().String("filename", "", "output filename within the target directory (default: derived from --pmid/--doi/--title)")
	downloadCmd.Flags().String("pmid", "", "PubMed identifier, used to derive the output filename")
	downloadCmd.Flags().String("doi", "", "DOI, used to derive the output filename")
	downloadCmd.Flags().String("title", "", "title, used to derive the output filename as a fallback")
	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	url := args[0]
	filename, _ := cmd.Flags().GetString("filename")
	pmid, _ := cmd.Flags().GetString("pmid")
	doi, _ := cmd.Flags().GetString("doi")
	title, _ := cmd.Flags().GetString("title")

	cfg := loadOrchestratorConfig()

	if filename == "" {
		id := types.Identifier{PMID: pmid, DOI: doi}
		filename = ident.Slug(id, title) + ".pdf"
	}

	d := download.NewDownloader(cfg)
	d.Log = os.Stderr
	outcome := d.Download(context.Background(), url, filename)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(outcome); err != nil {
		return err
	}

	switch outcome.Kind {
	case types.DownloadOK:
		return nil
	case types.DownloadInvalidPDF, types.DownloadLandingPage:
		os.Exit(1)
	default:
		fmt.Fprintln(os.Stderr, "i/o or network error during download")
		os.Exit(3)
	}
	return nil
}
