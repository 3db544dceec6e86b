// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cortex-dev/cortex/internal/search"
	cortexerr "github.com/cortex-dev/cortex/pkg/errors"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the knowledge base",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearch,
	}

	cmd.Flags().Int("limit", 0, "maximum results (default from config)")
	cmd.Flags().Float64("threshold", 0, "minimum cosine similarity (default from config)")
	cmd.Flags().String("mode", "auto", "retrieval mode: auto, semantic, or keyword")
	cmd.Flags().Int("depth", 0, "wikilink expansion depth (0 to 3)")
	cmd.Flags().StringP("output", "o", "text", "output format: text, json, or yaml")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	mode, _ := cmd.Flags().GetString("mode")
	depth, _ := cmd.Flags().GetInt("depth")
	format, _ := cmd.Flags().GetString("output")

	if limit == 0 {
		limit = cfg.Search.DefaultLimit
	}
	if threshold == 0 {
		threshold = cfg.Search.DefaultThreshold
	}

	ctx := cmd.Context()
	app, err := WireApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	hits, err := app.Search.Search(ctx, search.Request{
		Query:     strings.Join(args, " "),
		Limit:     limit,
		Threshold: threshold,
		Mode:      search.Mode(mode),
		Depth:     depth,
		Project:   cfg.Notes.Project,
	})
	if err != nil {
		return err
	}

	return printHits(cmd, hits, format)
}

func printHits(cmd *cobra.Command, hits []search.Hit, format string) error {
	out := cmd.OutOrStdout()

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	case "yaml":
		return yaml.NewEncoder(out).Encode(hits)
	case "text":
		if len(hits) == 0 {
			fmt.Fprintln(out, "no results")
			return nil
		}
		for _, h := range hits {
			switch h.Source {
			case search.SourceSemantic:
				fmt.Fprintf(out, "%.3f  %s  %s\n", h.SimilarityScore, h.Permalink, h.Title)
			case search.SourceRelated:
				fmt.Fprintf(out, "%s~%d  %s  %s\n", strings.Repeat(" ", 5), h.Depth, h.Permalink, h.Title)
			default:
				fmt.Fprintf(out, "  kw  %s  %s\n", h.Permalink, h.Title)
			}
		}
		return nil
	default:
		return cortexerr.Errorf(cortexerr.CodeCLIInputInvalid, "unknown output format %q", format)
	}
}
