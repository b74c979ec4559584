// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/fulltext-engine/internal/batch"
	"github.com/pdiddy/fulltext-engine/internal/cache"
	"github.com/pdiddy/fulltext-engine/internal/sources"
	"github.com/pdiddy/fulltext-engine/internal/waterfall"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

var batchCmd = &cobra.Command{
	Use:   "batch <publications.yaml>",
	Short: "Run get_fulltext across many publications with bounded concurrency",
	Long: `batch reads a YAML list of publications (each with optional doi, pmid,
pmcid, arxiv_id, title, oa_url fields), runs the waterfall orchestrator over
all of them with --max-concurrent in flight at once, and prints per-
publication outcomes plus aggregate statistics as JSON. Results are printed
in the same order as the input regardless of completion order.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().Int("max-concurrent", 0, "bounded concurrency (default from config, else 3)")
	rootCmd.AddCommand(batchCmd)
}

type batchOutput struct {
	Results []batch.Result `json:"results"`
	Stats   batch.Stats    `json:"stats"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, "i/o error:", err)
		os.Exit(3)
	}

	var pubs []types.Publication
	if err := yaml.Unmarshal(data, &pubs); err != nil {
		fmt.Fprintln(os.Stderr, "config error: parsing", args[0], ":", err)
		os.Exit(2)
	}

	cfg := loadOrchestratorConfig()
	maxConcurrent, _ := cmd.Flags().GetInt("max-concurrent")
	if maxConcurrent <= 0 {
		maxConcurrent = cfg.BatchMaxConcurrent
	}

	client := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}},
	}
	artifactCache := cache.New(cfg.CacheRootDir)
	adapters := sources.Build(cfg, client, artifactCache)
	orch := waterfall.New(adapters, cfg.TimeoutPerSource)
	orch.Log = os.Stderr

	lookup := func(ctx context.Context, pub types.Publication) types.LookupOutcome {
		return orch.GetFulltext(ctx, pub, nil)
	}

	results := batch.Run(context.Background(), pubs, lookup, maxConcurrent, os.Stderr)
	out := batchOutput{Results: results, Stats: batch.Summarize(results)}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}

	if out.Stats.Succeeded == 0 && out.Stats.Total > 0 {
		os.Exit(1)
	}
	return nil
}
