// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

// Package index implements the per-note upsert pipeline: read the note,
// chunk it, batch-embed the chunk texts, and replace the note's rows in
// the embedding store under one transaction.
package index

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/cortex-dev/cortex/internal/chunk"
	"github.com/cortex-dev/cortex/internal/embed"
	"github.com/cortex-dev/cortex/internal/notes"
	"github.com/cortex-dev/cortex/internal/store"
)

// Status reports what an indexing run did for a note.
type Status string

const (
	// StatusIndexed means chunks were embedded and stored.
	StatusIndexed Status = "indexed"
	// StatusSkipped means the note had no indexable prose; any stored
	// chunks were removed.
	StatusSkipped Status = "skipped"
)

// Result summarizes one note's indexing run.
type Result struct {
	Permalink string `json:"permalink"`
	Status    Status `json:"status"`
	Chunks    int    `json:"chunks"`
	RunID     string `json:"run_id"`
}

// Summary aggregates an IndexAll sweep.
type Summary struct {
	Indexed int      `json:"indexed"`
	Skipped int      `json:"skipped"`
	Failed  []string `json:"failed,omitempty"`
}

// Indexer is the sole writer of the embedding store. Concurrent calls
// for different notes are fine; callers must not index the same note
// concurrently.
type Indexer struct {
	store    store.EmbeddingStore
	embedder embed.Embedder
	notes    notes.Store
	chunker  *chunk.Chunker
	logger   *slog.Logger
}

// New creates an Indexer. A nil logger falls back to slog.Default.
func New(st store.EmbeddingStore, em embed.Embedder, ns notes.Store, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		store:    st,
		embedder: em,
		notes:    ns,
		chunker:  chunk.New(),
		logger:   logger,
	}
}

// IndexNote runs the full pipeline for one note. On any embedding
// failure no store mutation happens; the error propagates and the prior
// chunk set stays intact.
func (ix *Indexer) IndexNote(ctx context.Context, permalink, project string) (*Result, error) {
	runID := uuid.NewString()
	log := ix.logger.With("run_id", runID, "permalink", permalink)

	note, err := ix.notes.ReadNote(ctx, permalink, project)
	if err != nil {
		return nil, err
	}

	chunks := ix.chunker.Split(note.Text)
	if len(chunks) == 0 {
		// Nothing embeddable; cascade away any chunks from a prior run.
		if _, err := ix.store.DeleteForEntity(ctx, note.Permalink); err != nil {
			return nil, err
		}
		log.Info("note skipped, no indexable text")
		return &Result{Permalink: note.Permalink, Status: StatusSkipped, RunID: runID}, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := ix.embedder.EmbedBatch(ctx, texts, embed.TaskDocument)
	if err != nil {
		return nil, err
	}

	inputs := make([]store.ChunkInput, len(chunks))
	for i, c := range chunks {
		inputs[i] = store.ChunkInput{
			ChunkIndex:  c.Index,
			TotalChunks: len(chunks),
			ChunkStart:  c.Start,
			ChunkEnd:    c.End,
			Text:        c.Text,
			Embedding:   vectors[i],
		}
	}

	n, err := ix.store.StoreChunks(ctx, note.Permalink, inputs)
	if err != nil {
		return nil, err
	}

	log.Info("note indexed", "chunks", n)
	return &Result{Permalink: note.Permalink, Status: StatusIndexed, Chunks: n, RunID: runID}, nil
}

// DeleteNote removes a note's chunks after the note itself is gone.
func (ix *Indexer) DeleteNote(ctx context.Context, permalink string) (bool, error) {
	removed, err := ix.store.DeleteForEntity(ctx, permalink)
	if err != nil {
		return false, err
	}
	if removed {
		ix.logger.Info("note chunks removed", "permalink", permalink)
	}
	return removed, nil
}

// MoveNote handles a permalink change as delete-old plus index-new.
func (ix *Indexer) MoveNote(ctx context.Context, oldPermalink, newPermalink, project string) (*Result, error) {
	if _, err := ix.store.DeleteForEntity(ctx, oldPermalink); err != nil {
		return nil, err
	}
	return ix.IndexNote(ctx, newPermalink, project)
}

// IndexAll sweeps every note in the store. Individual note failures are
// logged and collected; the sweep keeps going.
func (ix *Indexer) IndexAll(ctx context.Context, project string) (*Summary, error) {
	refs, err := ix.notes.ListNotes(ctx, project)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	for _, ref := range refs {
		res, err := ix.IndexNote(ctx, ref.Permalink, project)
		if err != nil {
			ix.logger.Warn("indexing failed", "permalink", ref.Permalink, "error", err)
			summary.Failed = append(summary.Failed, ref.Permalink)
			continue
		}
		switch res.Status {
		case StatusIndexed:
			summary.Indexed++
		case StatusSkipped:
			summary.Skipped++
		}
	}

	return summary, nil
}
