// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/fulltext-engine/internal/manifest"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Manage the GEO-centric PDF manifest store",
}

var manifestSaveCmd = &cobra.Command{
	Use:   "save <geo-id> <pmid> <source-pdf-path>",
	Short: "Save a PDF into a GEO directory and update its manifest",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := manifestStore()
		res, err := store.Save(args[0], args[1], args[2])
		if err != nil {
			fmt.Fprintln(os.Stderr, "i/o error:", err)
			os.Exit(3)
		}
		return printJSON(res)
	},
}

var manifestVerifyCmd = &cobra.Command{
	Use:   "verify <geo-id> <pmid>",
	Short: "Verify one manifest entry's SHA-256 against its on-disk file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := manifestStore()
		ok, err := store.Verify(args[0], args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "i/o error:", err)
			os.Exit(3)
		}
		if !ok {
			os.Exit(1)
		}
		fmt.Println("valid")
		return nil
	},
}

var manifestVerifyAllCmd = &cobra.Command{
	Use:   "verify-all <geo-id>",
	Short: "Verify every manifest entry in a GEO directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := manifestStore()
		result, err := store.VerifyAll(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "i/o error:", err)
			os.Exit(3)
		}
		if err := printJSON(result); err != nil {
			return err
		}
		if result.Invalid > 0 {
			os.Exit(1)
		}
		return nil
	},
}

var manifestRebuildCmd = &cobra.Command{
	Use:   "rebuild <geo-id>",
	Short: "Regenerate a GEO directory's manifest from the files on disk",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := manifestStore()
		if err := store.RebuildManifest(args[0]); err != nil {
			fmt.Fprintln(os.Stderr, "i/o error:", err)
			os.Exit(3)
		}
		fmt.Println("rebuilt manifest for", args[0])
		return nil
	},
}

var manifestExportCSLCmd = &cobra.Command{
	Use:   "export-csl <geo-id>",
	Short: "Export a GEO directory's manifest as CSL-YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := manifestStore()
		if err := store.ExportCSL(args[0], os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "i/o error:", err)
			os.Exit(3)
		}
		return nil
	},
}

var manifestExportCmd = &cobra.Command{
	Use:   "export <geo-id> <out-dir>",
	Short: "Copy a GEO directory's PDFs and manifest to an external directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := manifestStore()
		if err := store.Export(args[0], args[1]); err != nil {
			fmt.Fprintln(os.Stderr, "i/o error:", err)
			os.Exit(3)
		}
		fmt.Println("exported", args[0], "to", args[1])
		return nil
	},
}

func init() {
	manifestCmd.AddCommand(manifestSaveCmd, manifestVerifyCmd, manifestVerifyAllCmd, manifestRebuildCmd, manifestExportCSLCmd, manifestExportCmd)
	rootCmd.AddCommand(manifestCmd)
}

func manifestStore() *manifest.Store {
	cfg := loadOrchestratorConfig()
	return manifest.New(cfg.PDFStorageRootDir)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
