// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cortex-dev/cortex/internal/notes"
	"github.com/cortex-dev/cortex/internal/store"
	cortexerr "github.com/cortex-dev/cortex/pkg/errors"
)

// GuardMode controls what auto mode does when semantic retrieval is
// unavailable: warn and fall back to keyword, or surface the error.
type GuardMode string

const (
	GuardWarn    GuardMode = "warn"
	GuardEnforce GuardMode = "enforce"
)

// Service orchestrates semantic and keyword retrieval behind a single
// Search entrypoint. Embedding availability is probed once at boot and
// never re-checked per request.
type Service struct {
	semantic *Semantic
	store    store.EmbeddingStore
	notes    notes.Store
	avail    Availability
	guard    GuardMode
	logger   *slog.Logger
}

// NewService wires the orchestrator. avail is the boot-time probe
// result; a nil logger falls back to slog.Default.
func NewService(sem *Semantic, st store.EmbeddingStore, ns notes.Store, avail Availability, guard GuardMode, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if guard == "" {
		guard = GuardWarn
	}
	return &Service{
		semantic: sem,
		store:    st,
		notes:    ns,
		avail:    avail,
		guard:    guard,
		logger:   logger,
	}
}

// Availability reports the boot-time probe result the service was
// constructed with.
func (s *Service) Availability() Availability {
	return s.avail
}

// normalize fills request defaults in place and validates ranges.
func normalize(req *Request) error {
	if strings.TrimSpace(req.Query) == "" {
		return cortexerr.New(cortexerr.CodeSearchRequestInvalid, "query must not be empty")
	}
	if req.Limit == 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit < 1 || req.Limit > MaxLimit {
		return cortexerr.Errorf(cortexerr.CodeSearchRequestInvalid, "limit must be between 1 and %d, got %d", MaxLimit, req.Limit)
	}
	if req.Threshold == 0 {
		req.Threshold = DefaultThreshold
	}
	if req.Threshold < 0 || req.Threshold > 1 {
		return cortexerr.Errorf(cortexerr.CodeSearchRequestInvalid, "threshold must be between 0 and 1, got %g", req.Threshold)
	}
	if req.Depth < 0 || req.Depth > MaxDepth {
		return cortexerr.Errorf(cortexerr.CodeSearchRequestInvalid, "depth must be between 0 and %d, got %d", MaxDepth, req.Depth)
	}
	switch req.Mode {
	case "":
		req.Mode = ModeAuto
	case ModeAuto, ModeSemantic, ModeKeyword:
	default:
		return cortexerr.Errorf(cortexerr.CodeSearchRequestInvalid, "unknown search mode %q", req.Mode)
	}
	return nil
}

// Search runs the requested mode, then expands related notes through
// wikilinks up to req.Depth and truncates to req.Limit.
func (s *Service) Search(ctx context.Context, req Request) ([]Hit, error) {
	if err := normalize(&req); err != nil {
		return nil, err
	}

	primary, err := s.primaryHits(ctx, req)
	if err != nil {
		return nil, err
	}

	hits := primary
	if req.Depth > 0 && len(primary) > 0 {
		hits = append(hits, s.expandRelated(ctx, primary, req)...)
	}
	if len(hits) > req.Limit {
		hits = hits[:req.Limit]
	}
	return hits, nil
}

func (s *Service) primaryHits(ctx context.Context, req Request) ([]Hit, error) {
	switch req.Mode {
	case ModeSemantic:
		if err := s.checkSemantic(ctx); err != nil {
			return nil, err
		}
		return s.semantic.Search(ctx, req.Query, req.Limit, req.Threshold, req.Project)

	case ModeKeyword:
		return s.keyword(ctx, req)

	default: // ModeAuto
		if err := s.checkSemantic(ctx); err != nil {
			if cortexerr.IsUnavailable(err) && s.guard != GuardEnforce {
				s.logger.Info("semantic search unavailable, falling back to keyword", "reason", err.Error())
				return s.keyword(ctx, req)
			}
			return nil, err
		}
		hits, err := s.semantic.Search(ctx, req.Query, req.Limit, req.Threshold, req.Project)
		if err != nil {
			if cortexerr.IsUnavailable(err) && s.guard != GuardEnforce {
				s.logger.Warn("semantic search failed, falling back to keyword", "error", err)
				return s.keyword(ctx, req)
			}
			return nil, err
		}
		if len(hits) == 0 {
			return s.keyword(ctx, req)
		}
		return hits, nil
	}
}

// checkSemantic enforces the boot-time availability record and the
// presence of at least one indexed embedding.
func (s *Service) checkSemantic(ctx context.Context) error {
	if !s.avail.Embedding {
		return cortexerr.New(cortexerr.CodeSearchSemanticUnavailable, "embedding backend was unavailable at startup")
	}
	hasAny, err := s.store.HasAny(ctx)
	if err != nil {
		return err
	}
	if !hasAny {
		return cortexerr.New(cortexerr.CodeSearchSemanticUnavailable, "no embeddings indexed yet")
	}
	return nil
}

// keyword maps note-store substring search to hits. Keyword hits carry
// no similarity score.
func (s *Service) keyword(ctx context.Context, req Request) ([]Hit, error) {
	found, err := s.notes.SearchNotes(ctx, req.Query, req.Project, req.Limit)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(found))
	for _, n := range found {
		hits = append(hits, Hit{
			Permalink: n.Permalink,
			Title:     n.Title,
			Snippet:   Snippet(n.Text),
			Source:    SourceKeyword,
		})
	}
	return hits, nil
}

// expandRelated walks outgoing wikilinks breadth-first from the primary
// hits. Each note appears at most once across the whole result set, at
// its shallowest depth. Link targets that do not resolve are skipped.
func (s *Service) expandRelated(ctx context.Context, primary []Hit, req Request) []Hit {
	seen := make(map[string]struct{}, len(primary))
	frontier := make([]string, 0, len(primary))
	for _, h := range primary {
		seen[h.Permalink] = struct{}{}
		frontier = append(frontier, h.Permalink)
	}

	var related []Hit
	for depth := 1; depth <= req.Depth; depth++ {
		if len(frontier) == 0 || len(primary)+len(related) >= req.Limit {
			break
		}

		var next []string
		for _, permalink := range frontier {
			note, err := s.notes.ReadNote(ctx, permalink, req.Project)
			if err != nil {
				s.logger.Debug("skipping unreadable note during expansion", "permalink", permalink, "error", err)
				continue
			}

			for _, target := range notes.ExtractWikilinks(note.Text) {
				resolved, err := s.notes.Resolve(ctx, target, req.Project)
				if err != nil {
					s.logger.Debug("skipping unresolvable wikilink", "target", target, "from", permalink)
					continue
				}
				if _, dup := seen[resolved.Permalink]; dup {
					continue
				}
				seen[resolved.Permalink] = struct{}{}

				linked, err := s.notes.ReadNote(ctx, resolved.Permalink, req.Project)
				if err != nil {
					continue
				}
				related = append(related, Hit{
					Permalink: resolved.Permalink,
					Title:     linked.Title,
					Snippet:   Snippet(linked.Text),
					Source:    SourceRelated,
					Depth:     depth,
				})
				next = append(next, resolved.Permalink)

				if len(primary)+len(related) >= req.Limit {
					return related
				}
			}
		}
		frontier = next
	}
	return related
}
