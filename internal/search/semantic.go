// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

package search

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	gocache "github.com/patrickmn/go-cache"

	"github.com/cortex-dev/cortex/internal/embed"
	"github.com/cortex-dev/cortex/internal/notes"
	"github.com/cortex-dev/cortex/internal/store"
	cortexerr "github.com/cortex-dev/cortex/pkg/errors"
)

const (
	// overFetchFactor widens the chunk-level query so per-entity
	// deduplication still fills the requested limit.
	overFetchFactor = 3

	snippetLength = 200

	titleCacheTTL     = 5 * time.Minute
	titleCacheCleanup = 10 * time.Minute
)

// Semantic reduces chunk-level cosine hits to note-level results with
// titles and snippets.
type Semantic struct {
	store    store.EmbeddingStore
	embedder embed.Embedder
	notes    notes.Store
	titles   *gocache.Cache
	logger   *slog.Logger
}

// NewSemantic creates the semantic searcher. A nil logger falls back to
// slog.Default.
func NewSemantic(st store.EmbeddingStore, em embed.Embedder, ns notes.Store, logger *slog.Logger) *Semantic {
	if logger == nil {
		logger = slog.Default()
	}
	return &Semantic{
		store:    st,
		embedder: em,
		notes:    ns,
		titles:   gocache.New(titleCacheTTL, titleCacheCleanup),
		logger:   logger,
	}
}

// Search embeds the query with the retrieval task type, over-fetches
// chunk hits, keeps the best chunk per note, and composes hits.
// A note whose permalink no longer resolves is dropped, not fatal.
func (s *Semantic) Search(ctx context.Context, query string, limit int, threshold float64, project string) ([]Hit, error) {
	vec, err := s.embedder.Embed(ctx, query, embed.TaskQuery)
	if err != nil {
		return nil, err
	}

	results, err := s.store.Search(ctx, vec, limit*overFetchFactor, threshold)
	if err != nil {
		return nil, err
	}

	best := dedupeByEntity(results)
	if len(best) > limit {
		best = best[:limit]
	}

	hits := make([]Hit, 0, len(best))
	for _, r := range best {
		title, err := s.title(ctx, r.EntityID, project)
		if err != nil {
			if cortexerr.IsNotFound(err) {
				s.logger.Debug("dropping hit for missing note", "permalink", r.EntityID)
				continue
			}
			return nil, err
		}

		hits = append(hits, Hit{
			Permalink:       r.EntityID,
			Title:           title,
			SimilarityScore: r.Similarity,
			Snippet:         Snippet(r.ChunkText),
			Source:          SourceSemantic,
		})
	}

	return hits, nil
}

// dedupeByEntity keeps the first (best) row per entity. Input rows are
// ordered by distance ascending, so first wins and the output stays in
// non-increasing similarity order.
func dedupeByEntity(results []store.SearchResult) []store.SearchResult {
	seen := make(map[string]struct{}, len(results))
	out := make([]store.SearchResult, 0, len(results))
	for _, r := range results {
		if _, dup := seen[r.EntityID]; dup {
			continue
		}
		seen[r.EntityID] = struct{}{}
		out = append(out, r)
	}
	return out
}

// title resolves a note title through the TTL cache.
func (s *Semantic) title(ctx context.Context, permalink, project string) (string, error) {
	if cached, ok := s.titles.Get(permalink); ok {
		return cached.(string), nil
	}

	note, err := s.notes.ReadNote(ctx, permalink, project)
	if err != nil {
		return "", err
	}

	s.titles.Set(permalink, note.Title, gocache.DefaultExpiration)
	return note.Title, nil
}

// Snippet derives a short excerpt from chunk or note text: leading
// whitespace trimmed, cut at a rune boundary.
func Snippet(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= snippetLength {
		return trimmed
	}

	cut := snippetLength
	for cut > 0 && !utf8.RuneStart(trimmed[cut]) {
		cut--
	}
	return strings.TrimSpace(trimmed[:cut]) + "..."
}
