// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

// Package sqlite implements the embedding store on SQLite with the
// sqlite-vec extension. Embeddings live in a vec0 virtual table keyed by
// chunk id; the scalar chunk columns live in a companion table joined on
// that key, since vec0 auxiliary columns cannot be constrained in
// non-KNN queries.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/cortex-dev/cortex/internal/chunk"
	"github.com/cortex-dev/cortex/internal/store"
	cortexerr "github.com/cortex-dev/cortex/pkg/errors"
)

func init() {
	sqlite_vec.Auto()
}

// Compile-time interface check.
var _ store.EmbeddingStore = (*EmbeddingStore)(nil)

// EmbeddingStore implements store.EmbeddingStore backed by SQLite with
// sqlite-vec.
type EmbeddingStore struct {
	db         *sql.DB
	dimensions int
}

// NewEmbeddingStore opens (or creates) a SQLite database at dbPath and
// initialises the vec0 virtual table and companion chunk table. The DDL
// is idempotent; reopening an existing database is safe.
func NewEmbeddingStore(cfg store.Config) (*EmbeddingStore, error) {
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = store.DefaultDimensions
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, cortexerr.Wrapf(err, cortexerr.CodeStoreDatabaseFailure, "opening sqlite db")
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, cortexerr.Wrapf(err, cortexerr.CodeStoreDatabaseFailure, "pinging sqlite db")
	}

	if err := migrateEmbeddings(db, dims); err != nil {
		_ = db.Close()
		return nil, cortexerr.Wrapf(err, cortexerr.CodeStoreDatabaseFailure, "migrating embedding tables")
	}

	return &EmbeddingStore{db: db, dimensions: dims}, nil
}

func migrateEmbeddings(db *sql.DB, dimensions int) error {
	vecDDL := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS brain_embeddings USING vec0(chunk_id TEXT PRIMARY KEY, embedding float[%d] distance_metric=cosine)`,
		dimensions,
	)
	if _, err := db.Exec(vecDDL); err != nil {
		return fmt.Errorf("creating brain_embeddings virtual table: %w", err)
	}

	const chunkDDL = `
CREATE TABLE IF NOT EXISTS brain_embedding_chunks (
	chunk_id     TEXT PRIMARY KEY,
	entity_id    TEXT NOT NULL,
	chunk_index  INTEGER NOT NULL,
	total_chunks INTEGER NOT NULL,
	chunk_start  INTEGER NOT NULL,
	chunk_end    INTEGER NOT NULL,
	chunk_text   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_brain_embedding_chunks_entity
	ON brain_embedding_chunks(entity_id);
`
	if _, err := db.Exec(chunkDDL); err != nil {
		return fmt.Errorf("creating brain_embedding_chunks table: %w", err)
	}

	return nil
}

// Dimensions returns the configured embedding width.
func (s *EmbeddingStore) Dimensions() int {
	return s.dimensions
}

// StoreChunks replaces the entity's chunk set atomically. The whole batch
// is validated before any row is touched, so a bad embedding never leaves
// the store in a mixed state.
func (s *EmbeddingStore) StoreChunks(ctx context.Context, entityID string, chunks []store.ChunkInput) (int, error) {
	if entityID == "" {
		return 0, cortexerr.New(cortexerr.CodeStoreChunkInvalidInput, "entity id must not be empty")
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	for i, c := range chunks {
		if len(c.Embedding) != s.dimensions {
			return 0, cortexerr.New(cortexerr.CodeStoreChunkInvalidInput,
				fmt.Sprintf("embedding for chunk %d has %d dimensions, want %d", i, len(c.Embedding), s.dimensions),
				cortexerr.FieldEntity(entityID))
		}
		if c.ChunkIndex != i {
			return 0, cortexerr.New(cortexerr.CodeStoreChunkInvalidInput,
				fmt.Sprintf("chunk at position %d carries index %d", i, c.ChunkIndex),
				cortexerr.FieldEntity(entityID))
		}
		if c.TotalChunks != len(chunks) {
			return 0, cortexerr.New(cortexerr.CodeStoreChunkInvalidInput,
				fmt.Sprintf("chunk %d declares total %d, batch has %d", i, c.TotalChunks, len(chunks)),
				cortexerr.FieldEntity(entityID))
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, cortexerr.Wrapf(err, cortexerr.CodeStoreDatabaseFailure, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteEntityLocked(ctx, tx, entityID); err != nil {
		return 0, err
	}

	for _, c := range chunks {
		chunkID := chunk.MakeID(entityID, c.ChunkIndex)

		blob, err := sqlite_vec.SerializeFloat32(c.Embedding)
		if err != nil {
			return 0, cortexerr.Wrap(err, cortexerr.CodeStoreDatabaseFailure, "serializing embedding",
				cortexerr.FieldChunk(chunkID))
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO brain_embeddings(chunk_id, embedding) VALUES (?, ?)`,
			chunkID, blob); err != nil {
			return 0, cortexerr.Wrap(err, cortexerr.CodeStoreDatabaseFailure, "inserting embedding",
				cortexerr.FieldChunk(chunkID))
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO brain_embedding_chunks(chunk_id, entity_id, chunk_index, total_chunks, chunk_start, chunk_end, chunk_text)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
			chunkID, entityID, c.ChunkIndex, c.TotalChunks, c.ChunkStart, c.ChunkEnd, c.Text); err != nil {
			return 0, cortexerr.Wrap(err, cortexerr.CodeStoreDatabaseFailure, "inserting chunk row",
				cortexerr.FieldChunk(chunkID))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, cortexerr.Wrapf(err, cortexerr.CodeStoreDatabaseFailure, "committing chunk upsert for %s", entityID)
	}
	return len(chunks), nil
}

// deleteEntityLocked removes all rows for an entity inside an open
// transaction. Embeddings go first so the companion table can still
// resolve the chunk ids.
func deleteEntityLocked(ctx context.Context, tx *sql.Tx, entityID string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM brain_embeddings WHERE chunk_id IN (SELECT chunk_id FROM brain_embedding_chunks WHERE entity_id = ?)`,
		entityID); err != nil {
		return cortexerr.Wrap(err, cortexerr.CodeStoreDatabaseFailure, "deleting embeddings",
			cortexerr.FieldEntity(entityID))
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM brain_embedding_chunks WHERE entity_id = ?`, entityID); err != nil {
		return cortexerr.Wrap(err, cortexerr.CodeStoreDatabaseFailure, "deleting chunk rows",
			cortexerr.FieldEntity(entityID))
	}

	return nil
}

// DeleteForEntity removes all chunks for an entity.
func (s *EmbeddingStore) DeleteForEntity(ctx context.Context, entityID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, cortexerr.Wrapf(err, cortexerr.CodeStoreDatabaseFailure, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM brain_embeddings WHERE chunk_id IN (SELECT chunk_id FROM brain_embedding_chunks WHERE entity_id = ?)`,
		entityID); err != nil {
		return false, cortexerr.Wrap(err, cortexerr.CodeStoreDatabaseFailure, "deleting embeddings",
			cortexerr.FieldEntity(entityID))
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM brain_embedding_chunks WHERE entity_id = ?`, entityID)
	if err != nil {
		return false, cortexerr.Wrap(err, cortexerr.CodeStoreDatabaseFailure, "deleting chunk rows",
			cortexerr.FieldEntity(entityID))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, cortexerr.Wrapf(err, cortexerr.CodeStoreDatabaseFailure, "reading affected rows")
	}

	if err := tx.Commit(); err != nil {
		return false, cortexerr.Wrapf(err, cortexerr.CodeStoreDatabaseFailure, "committing delete for %s", entityID)
	}
	return affected > 0, nil
}

// GetForEntity returns the entity's chunks ordered by chunk index,
// embeddings included.
func (s *EmbeddingStore) GetForEntity(ctx context.Context, entityID string) ([]store.ChunkedEmbedding, error) {
	const q = `SELECT m.chunk_id, m.entity_id, m.chunk_index, m.total_chunks, m.chunk_start, m.chunk_end, m.chunk_text, v.embedding
FROM brain_embedding_chunks m
JOIN brain_embeddings v ON v.chunk_id = m.chunk_id
WHERE m.entity_id = ?
ORDER BY m.chunk_index ASC`

	rows, err := s.db.QueryContext(ctx, q, entityID)
	if err != nil {
		return nil, cortexerr.Wrap(err, cortexerr.CodeStoreDatabaseFailure, "querying chunks",
			cortexerr.FieldEntity(entityID))
	}
	defer func() { _ = rows.Close() }()

	var out []store.ChunkedEmbedding
	for rows.Next() {
		var ce store.ChunkedEmbedding
		var blob []byte

		if err := rows.Scan(&ce.ChunkID, &ce.EntityID, &ce.ChunkIndex, &ce.TotalChunks,
			&ce.ChunkStart, &ce.ChunkEnd, &ce.Text, &blob); err != nil {
			return nil, cortexerr.Wrapf(err, cortexerr.CodeStoreDatabaseFailure, "scanning chunk row")
		}

		ce.Embedding, err = deserializeFloat32(blob, s.dimensions)
		if err != nil {
			return nil, cortexerr.Wrap(err, cortexerr.CodeStoreDatabaseFailure, "decoding embedding",
				cortexerr.FieldChunk(ce.ChunkID))
		}

		out = append(out, ce)
	}
	if err := rows.Err(); err != nil {
		return nil, cortexerr.Wrapf(err, cortexerr.CodeStoreDatabaseFailure, "iterating chunk rows")
	}

	return out, nil
}

// CountForEntity returns the number of stored chunks for an entity.
func (s *EmbeddingStore) CountForEntity(ctx context.Context, entityID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM brain_embedding_chunks WHERE entity_id = ?`, entityID).Scan(&n)
	if err != nil {
		return 0, cortexerr.Wrap(err, cortexerr.CodeStoreDatabaseFailure, "counting chunks",
			cortexerr.FieldEntity(entityID))
	}
	return n, nil
}

// HasAny reports whether the store holds any chunks. A missing table is
// treated as an empty store, not an error, so the probe works on a fresh
// database file.
func (s *EmbeddingStore) HasAny(ctx context.Context) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM brain_embedding_chunks)`).Scan(&n)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return false, nil
		}
		return false, cortexerr.Wrapf(err, cortexerr.CodeStoreDatabaseFailure, "probing store")
	}
	return n > 0, nil
}

// Search runs a cosine k-nearest-neighbor query and maps rows to
// search results with similarity = 1 - distance.
func (s *EmbeddingStore) Search(ctx context.Context, query []float32, limit int, threshold float64) ([]store.SearchResult, error) {
	if len(query) != s.dimensions {
		return nil, cortexerr.New(cortexerr.CodeStoreQueryInvalidInput,
			fmt.Sprintf("query vector has %d dimensions, want %d", len(query), s.dimensions))
	}
	if limit < 1 {
		return nil, cortexerr.New(cortexerr.CodeStoreQueryInvalidInput,
			fmt.Sprintf("limit must be positive, got %d", limit))
	}

	blob, err := sqlite_vec.SerializeFloat32(query)
	if err != nil {
		return nil, cortexerr.Wrapf(err, cortexerr.CodeStoreDatabaseFailure, "serializing query vector")
	}

	maxDistance := 1 - threshold

	// The KNN subquery must be MATERIALIZED: if SQLite flattens it, the
	// outer two-term ORDER BY is pushed into the vec0 table, which only
	// accepts a single ORDER BY distance clause on KNN queries.
	const q = `WITH v AS MATERIALIZED (SELECT chunk_id, distance FROM brain_embeddings WHERE embedding MATCH ? AND k = ?)
SELECT v.chunk_id, m.entity_id, m.chunk_index, m.total_chunks, m.chunk_text, v.distance
FROM v
JOIN brain_embedding_chunks m ON m.chunk_id = v.chunk_id
WHERE v.distance <= ?
ORDER BY v.distance ASC, v.chunk_id ASC`

	rows, err := s.db.QueryContext(ctx, q, blob, limit, maxDistance)
	if err != nil {
		return nil, cortexerr.Wrapf(err, cortexerr.CodeStoreDatabaseFailure, "searching embeddings")
	}
	defer func() { _ = rows.Close() }()

	var results []store.SearchResult
	for rows.Next() {
		var r store.SearchResult
		if err := rows.Scan(&r.ChunkID, &r.EntityID, &r.ChunkIndex, &r.TotalChunks, &r.ChunkText, &r.Distance); err != nil {
			return nil, cortexerr.Wrapf(err, cortexerr.CodeStoreDatabaseFailure, "scanning search result")
		}
		r.Similarity = 1 - r.Distance
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, cortexerr.Wrapf(err, cortexerr.CodeStoreDatabaseFailure, "iterating search results")
	}

	return results, nil
}

// Close closes the underlying database connection.
func (s *EmbeddingStore) Close() error {
	return s.db.Close()
}

// deserializeFloat32 interprets a vec0 blob as little-endian 32-bit
// floats of the given length. All embedding byte decoding goes through
// this helper.
func deserializeFloat32(blob []byte, dimensions int) ([]float32, error) {
	if len(blob) != dimensions*4 {
		return nil, fmt.Errorf("embedding blob is %d bytes, want %d", len(blob), dimensions*4)
	}

	vec := make([]float32, dimensions)
	for i := range vec {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vec[i] = math.Float32frombits(bits)
	}
	return vec, nil
}
