// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the fulltext-engine CLI: a thin
// wrapper around the Waterfall Orchestrator, PDF downloader, and
// GEO-centric manifest store. Exit codes follow spec §6: 0 success, 1 no
// source succeeded, 2 configuration error, 3 I/O error on cache/manifest.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/fulltext-engine/internal/secrets"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credential files loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if flagValue is empty.
func secretDefault(key, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return loadedSecrets[key]
}

// rootCmd is the base command for the fulltext-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "fulltext-engine",
	Short: "Locate and retrieve open-access full text for scientific publications",
	Long: `fulltext-engine runs a priority-ordered waterfall of content sources
(institutional proxy, Unpaywall, CORE, OpenAlex, Crossref, bioRxiv, arXiv, PMC,
and opt-in gray-area mirrors) to locate a usable URL for a publication, then
downloads, validates, and durably caches the resulting PDF.

Each stage is a subcommand: fetch, download, manifest, and batch.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./fulltext-engine.yaml or ~/.config/fulltext-engine/fulltext-engine.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("fulltext-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "fulltext-engine"))
		}
	}

	viper.SetEnvPrefix("FULLTEXT_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadOrchestratorConfig builds an OrchestratorConfig from defaults, any
// loaded config file (via viper), and .secrets/ credentials, in that
// priority order (explicit config file values win over secrets-file
// defaults; nothing here ever reads the environment directly except
// through viper.AutomaticEnv, matching spec §9's "environment reading
// happens exactly once at the boundary" re-architecture note).
func loadOrchestratorConfig() types.OrchestratorConfig {
	cfg := types.DefaultOrchestratorConfig()

	if v := viper.GetDuration("timeout_per_source"); v > 0 {
		cfg.TimeoutPerSource = v
	}
	if v := viper.GetInt("max_retries"); v > 0 {
		cfg.MaxRetries = v
	}
	if v := viper.GetInt("max_concurrent_downloads"); v > 0 {
		cfg.MaxConcurrentDownloads = v
	}
	if v := viper.GetInt("batch_max_concurrent"); v > 0 {
		cfg.BatchMaxConcurrent = v
	}
	if v := viper.GetString("cache_root_dir"); v != "" {
		cfg.CacheRootDir = v
	}
	if v := viper.GetString("pdf_storage_root_dir"); v != "" {
		cfg.PDFStorageRootDir = v
	}

	if viper.IsSet("sources") {
		viper.UnmarshalKey("sources", &cfg.Sources)
	}

	cfg.Credentials.UnpaywallEmail = secretDefault("unpaywall-email", viper.GetString("unpaywall_email"))
	cfg.Credentials.COREAPIKey = secretDefault("core-api-key", viper.GetString("core_api_key"))
	cfg.Credentials.NCBIAPIKey = secretDefault("ncbi-api-key", viper.GetString("ncbi_api_key"))
	cfg.Credentials.InstitutionalProxySuffix = secretDefault("institutional-proxy-suffix", viper.GetString("institutional_proxy_suffix"))

	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
