// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

// Package embed talks to the external embedding model server. The vendor
// model requires an asymmetric task-type prefix: corpus text is embedded
// as "search_document: ..." and query text as "search_query: ...".
// Getting the prefix wrong silently degrades retrieval quality, so the
// prefixing is centralized here.
package embed

import "context"

// TaskType is the vendor prefix category for an embedding request.
type TaskType string

const (
	// TaskDocument marks content being indexed. This is the default.
	TaskDocument TaskType = "search_document"
	// TaskQuery marks user query text on the retrieval path.
	TaskQuery TaskType = "search_query"
)

// Prompt builds the wire prompt for a text: "<task>: <text>". An empty
// task falls back to TaskDocument. The input text is never mutated.
func Prompt(task TaskType, text string) string {
	if task == "" {
		task = TaskDocument
	}
	return string(task) + ": " + text
}

// Embedder produces fixed-dimension dense vectors for text.
type Embedder interface {
	// Embed returns the embedding for a single text.
	Embed(ctx context.Context, text string, task TaskType) ([]float32, error)

	// EmbedBatch embeds texts in order; the i-th vector belongs to the
	// i-th input. Semantically equivalent to mapping Embed over texts.
	EmbedBatch(ctx context.Context, texts []string, task TaskType) ([][]float32, error)

	// Dimensions returns the vector width the backing model produces.
	Dimensions() int
}
