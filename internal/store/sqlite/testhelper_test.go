// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

package sqlite_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cortex-dev/cortex/internal/store"
	"github.com/cortex-dev/cortex/internal/store/sqlite"
	"github.com/stretchr/testify/require"
)

// testDir creates a temp directory for a test with cleanup registered.
func testDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "cortex-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

// testStore opens an embedding store on a temp database with small
// dimensions so test vectors stay readable.
func testStore(t *testing.T, name string, dims int) *sqlite.EmbeddingStore {
	t.Helper()
	s, err := sqlite.NewEmbeddingStore(store.Config{
		DBPath:     filepath.Join(testDir(t), name+".db"),
		Dimensions: dims,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// inputs builds a valid chunk batch from bare texts and embeddings.
func inputs(texts []string, embeddings [][]float32) []store.ChunkInput {
	out := make([]store.ChunkInput, len(texts))
	offset := 0
	for i, text := range texts {
		out[i] = store.ChunkInput{
			ChunkIndex:  i,
			TotalChunks: len(texts),
			ChunkStart:  offset,
			ChunkEnd:    offset + len(text),
			Text:        text,
			Embedding:   embeddings[i],
		}
		offset += len(text)
	}
	return out
}
