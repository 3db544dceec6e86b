// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

// Package store defines the persistent chunked-embedding store interface.
// Rows are owned exclusively by the indexing pipeline: they are created by
// a full indexing run and destroyed only by re-indexing or cascade delete.
package store

import "context"

// DefaultDimensions is the embedding width the vendor model produces.
const DefaultDimensions = 768

// ChunkInput is one chunk of a note together with its embedding, as
// produced by the indexing pipeline.
type ChunkInput struct {
	ChunkIndex  int
	TotalChunks int
	ChunkStart  int
	ChunkEnd    int
	Text        string
	Embedding   []float32
}

// ChunkedEmbedding is a persisted chunk row. ChunkID encodes
// (EntityID, ChunkIndex) reversibly as "<entity>#chunk-<index>".
type ChunkedEmbedding struct {
	ChunkID     string
	EntityID    string
	ChunkIndex  int
	TotalChunks int
	ChunkStart  int
	ChunkEnd    int
	Text        string
	Embedding   []float32
}

// SearchResult is a chunk-level hit from a cosine search.
// Similarity is 1 - Distance.
type SearchResult struct {
	ChunkID     string
	EntityID    string
	ChunkIndex  int
	TotalChunks int
	ChunkText   string
	Distance    float64
	Similarity  float64
}

// EmbeddingStore manages chunked note embeddings and cosine search.
type EmbeddingStore interface {
	// StoreChunks replaces all chunks for an entity with the given set,
	// delete-then-insert under a single transaction. An empty set is a
	// no-op returning 0 and does not delete existing rows; callers that
	// want cascade deletion use DeleteForEntity. Every embedding must
	// have the configured dimension or the whole batch fails.
	StoreChunks(ctx context.Context, entityID string, chunks []ChunkInput) (int, error)

	// DeleteForEntity removes all chunks for an entity. Returns true iff
	// at least one row was removed.
	DeleteForEntity(ctx context.Context, entityID string) (bool, error)

	// GetForEntity returns the entity's chunks ordered by chunk index.
	GetForEntity(ctx context.Context, entityID string) ([]ChunkedEmbedding, error)

	// CountForEntity returns the number of stored chunks for an entity.
	CountForEntity(ctx context.Context, entityID string) (int, error)

	// HasAny reports whether the store holds any chunks at all.
	HasAny(ctx context.Context) (bool, error)

	// Search runs a cosine nearest-neighbor query. Rows whose distance
	// exceeds 1-threshold are excluded; results are ordered by distance
	// ascending with chunk_id as the deterministic tiebreak.
	Search(ctx context.Context, query []float32, limit int, threshold float64) ([]SearchResult, error)

	Close() error
}

// Config controls the embedding store backend.
type Config struct {
	DBPath     string
	Dimensions int // 0 uses DefaultDimensions.
}
