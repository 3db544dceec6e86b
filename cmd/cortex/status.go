// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cortex-dev/cortex/internal/embed"
	"github.com/cortex-dev/cortex/internal/notes"
	"github.com/cortex-dev/cortex/internal/search"
	"github.com/cortex-dev/cortex/internal/store"
	"github.com/cortex-dev/cortex/internal/store/sqlite"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Probe the embedding backend, note root, and index",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	embedder, err := embed.NewClient(embed.ClientConfig{
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    cfg.Embedding.Timeout(),
	})
	if err != nil {
		return err
	}

	var noteStore notes.Store
	if cfg.Notes.Root != "" {
		if ns, err := notes.NewDir(cfg.Notes.Root); err == nil {
			noteStore = ns
		}
	}

	if noteStore == nil {
		fmt.Fprintf(out, "notes:     unavailable (root %q)\n", cfg.Notes.Root)
		fmt.Fprintf(out, "embedding: not probed\n")
		return nil
	}

	avail, probe := search.Probe(ctx, embedder, noteStore)

	if avail.Embedding {
		fmt.Fprintf(out, "embedding: ok (%s, model %s", cfg.Embedding.BaseURL, cfg.Embedding.Model)
		if probe.EmbeddingLatency != nil {
			fmt.Fprintf(out, ", %s", probe.EmbeddingLatency.Round(time.Millisecond))
		}
		fmt.Fprintln(out, ")")
	} else {
		fmt.Fprintf(out, "embedding: unavailable (%s)\n", probe.EmbeddingError)
	}
	fmt.Fprintf(out, "notes:     ok (%s)\n", cfg.Notes.Root)

	st, err := sqlite.NewEmbeddingStore(store.Config{
		DBPath:     cfg.Storage.DBPath,
		Dimensions: cfg.Embedding.Dimensions,
	})
	if err != nil {
		fmt.Fprintf(out, "index:     unavailable (%v)\n", err)
		return nil
	}
	defer func() { _ = st.Close() }()

	hasAny, err := st.HasAny(ctx)
	switch {
	case err != nil:
		fmt.Fprintf(out, "index:     error (%v)\n", err)
	case hasAny:
		fmt.Fprintf(out, "index:     populated (%s)\n", cfg.Storage.DBPath)
	default:
		fmt.Fprintf(out, "index:     empty, run 'cortex index --all'\n")
	}
	return nil
}
