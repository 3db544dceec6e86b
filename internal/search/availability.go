// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

package search

import (
	"context"
	"time"

	"github.com/cortex-dev/cortex/internal/embed"
	"github.com/cortex-dev/cortex/internal/notes"
	"github.com/cortex-dev/cortex/pkg/health"
)

// Availability records which external collaborators answered the boot
// probe. It is set once at startup, passed into the orchestrator, and
// never mutated, so reads need no synchronization.
type Availability struct {
	Embedding bool
	Notes     bool
}

// Probe checks the embedding server and the note store and returns the
// availability record together with a reportable health snapshot.
// A failed embedding probe is not an error: the system degrades to
// keyword search.
func Probe(ctx context.Context, em embed.Embedder, ns notes.Store) (Availability, health.Status) {
	status := health.Status{ProbedAt: time.Now()}
	var avail Availability

	startedAt := time.Now()
	if _, err := em.Embed(ctx, "healthcheck", embed.TaskDocument); err != nil {
		status.EmbeddingError = err.Error()
	} else {
		avail.Embedding = true
		latency := time.Since(startedAt)
		status.EmbeddingLatency = &latency
	}
	status.EmbeddingAvailable = avail.Embedding

	if err := ns.Ping(ctx); err != nil {
		status.NotesError = err.Error()
	} else {
		avail.Notes = true
	}
	status.NotesAvailable = avail.Notes

	return avail, status
}
