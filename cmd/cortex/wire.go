// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cortex-dev/cortex/internal/config"
	"github.com/cortex-dev/cortex/internal/embed"
	"github.com/cortex-dev/cortex/internal/index"
	"github.com/cortex-dev/cortex/internal/notes"
	"github.com/cortex-dev/cortex/internal/search"
	"github.com/cortex-dev/cortex/internal/store"
	"github.com/cortex-dev/cortex/internal/store/sqlite"
	cortexerr "github.com/cortex-dev/cortex/pkg/errors"
	"github.com/cortex-dev/cortex/pkg/health"
)

// App holds all wired subsystems and manages their lifecycle.
type App struct {
	Store    store.EmbeddingStore
	Embedder *embed.Client
	Notes    notes.Store
	Indexer  *index.Indexer
	Search   *search.Service
	Health   health.Status
}

// WireApp creates all subsystems and wires them together. The embedding
// backend and note root are probed once here; the availability record
// holds for the process lifetime.
func WireApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0o755); err != nil {
		return nil, cortexerr.Errorf(cortexerr.CodeCLISetupFailure, "creating database directory: %w", err)
	}

	// 1. Embedding store.
	st, err := sqlite.NewEmbeddingStore(store.Config{
		DBPath:     cfg.Storage.DBPath,
		Dimensions: cfg.Embedding.Dimensions,
	})
	if err != nil {
		return nil, cortexerr.Wrap(err, cortexerr.CodeCLISetupFailure, "opening embedding store")
	}

	// 2. Embedding client.
	embedder, err := embed.NewClient(embed.ClientConfig{
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    cfg.Embedding.Timeout(),
	})
	if err != nil {
		_ = st.Close()
		return nil, cortexerr.Wrap(err, cortexerr.CodeCLISetupFailure, "creating embedding client")
	}

	// 3. Note store.
	if cfg.Notes.Root == "" {
		_ = st.Close()
		return nil, cortexerr.New(cortexerr.CodeNotesRootUnavailable, "notes.root is not configured")
	}
	noteStore, err := notes.NewDir(cfg.Notes.Root)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	// 4. Boot-time availability probe.
	avail, probe := search.Probe(ctx, embedder, noteStore)
	if !avail.Embedding {
		slog.Warn("embedding backend unavailable, semantic search disabled",
			"base_url", cfg.Embedding.BaseURL, "error", probe.EmbeddingError)
	}

	// 5. Retrieval and indexing services.
	sem := search.NewSemantic(st, embedder, noteStore, slog.Default())
	svc := search.NewService(sem, st, noteStore, avail, search.GuardMode(cfg.Search.GuardMode), slog.Default())
	ix := index.New(st, embedder, noteStore, slog.Default())

	return &App{
		Store:    st,
		Embedder: embedder,
		Notes:    noteStore,
		Indexer:  ix,
		Search:   svc,
		Health:   probe,
	}, nil
}

// Close releases the app's resources.
func (a *App) Close() error {
	return a.Store.Close()
}
