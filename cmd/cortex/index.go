// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	cortexerr "github.com/cortex-dev/cortex/pkg/errors"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index [permalink]",
		Short: "Chunk and embed notes into the search index",
		Long:  "With a permalink, reindex that single note. With --all, sweep the whole knowledge base.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runIndex,
	}

	cmd.Flags().Bool("all", false, "index every note under the configured root")
	cmd.Flags().Bool("delete", false, "remove the note's embeddings instead of indexing")

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}

	all, _ := cmd.Flags().GetBool("all")
	del, _ := cmd.Flags().GetBool("delete")
	out := cmd.OutOrStdout()

	if !all && len(args) == 0 {
		return cortexerr.New(cortexerr.CodeCLIInputInvalid, "either a permalink or --all is required")
	}
	if all && del {
		return cortexerr.New(cortexerr.CodeCLIInputInvalid, "--all and --delete cannot be combined")
	}

	ctx := cmd.Context()
	app, err := WireApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	if all {
		summary, err := app.Indexer.IndexAll(ctx, cfg.Notes.Project)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "indexed %d, skipped %d\n", summary.Indexed, summary.Skipped)
		for _, permalink := range summary.Failed {
			fmt.Fprintf(out, "failed: %s\n", permalink)
		}
		if len(summary.Failed) > 0 {
			return cortexerr.Errorf(cortexerr.CodeIndexPipelineFailure, "%d notes failed to index", len(summary.Failed))
		}
		return nil
	}

	if del {
		deleted, err := app.Indexer.DeleteNote(ctx, args[0])
		if err != nil {
			return err
		}
		if deleted {
			fmt.Fprintf(out, "removed embeddings for %s\n", args[0])
		} else {
			fmt.Fprintf(out, "no embeddings stored for %s\n", args[0])
		}
		return nil
	}

	res, err := app.Indexer.IndexNote(ctx, args[0], cfg.Notes.Project)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %s (%d chunks)\n", res.Permalink, res.Status, res.Chunks)
	return nil
}
