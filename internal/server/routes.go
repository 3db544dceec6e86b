// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cortex-dev/cortex/internal/index"
	"github.com/cortex-dev/cortex/internal/search"
	cortexerr "github.com/cortex-dev/cortex/pkg/errors"
	"github.com/cortex-dev/cortex/pkg/health"
)

// RegisterServices sets the service dependencies and registers REST routes.
func (s *Server) RegisterServices(svc *Services) {
	s.services = svc
	s.registerRoutes()
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search-notes",
		Method:      http.MethodPost,
		Path:        "/api/v1/search",
		Summary:     "Search the knowledge base",
		Tags:        []string{"search"},
	}, s.handleSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "index-note",
		Method:      http.MethodPost,
		Path:        "/api/v1/index",
		Summary:     "Chunk and embed a single note",
		Tags:        []string{"index"},
	}, s.handleIndexNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "index-all",
		Method:      http.MethodPost,
		Path:        "/api/v1/index/all",
		Summary:     "Rebuild the index across all notes",
		Tags:        []string{"index"},
	}, s.handleIndexAll)

	huma.Register(s.api, huma.Operation{
		OperationID: "move-note-index",
		Method:      http.MethodPost,
		Path:        "/api/v1/index/move",
		Summary:     "Reindex a note under a new permalink",
		Tags:        []string{"index"},
	}, s.handleMoveNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-note-index",
		Method:      http.MethodPost,
		Path:        "/api/v1/index/delete",
		Summary:     "Remove a note's embeddings",
		Tags:        []string{"index"},
	}, s.handleDeleteNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "cortex-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/status",
		Summary:     "Backend availability",
		Tags:        []string{"system"},
	}, s.handleStatus)
}

// --- Request/Response types for huma ---

type searchInput struct {
	Body struct {
		Query     string  `json:"query" minLength:"1" doc:"Search query"`
		Limit     int     `json:"limit,omitempty" doc:"Maximum results, defaults to 10"`
		Threshold float64 `json:"threshold,omitempty" doc:"Minimum cosine similarity, defaults to 0.7"`
		Mode      string  `json:"mode,omitempty" enum:"auto,semantic,keyword" doc:"Retrieval mode"`
		Depth     int     `json:"depth,omitempty" doc:"Wikilink expansion depth, 0 to 3"`
		Project   string  `json:"project,omitempty" doc:"Optional project scope"`
	}
}
type searchOutput struct {
	Body struct {
		Hits []search.Hit `json:"hits"`
	}
}

type permalinkInput struct {
	Body struct {
		Permalink string `json:"permalink" minLength:"1" doc:"Note permalink"`
		Project   string `json:"project,omitempty" doc:"Optional project scope"`
	}
}
type indexNoteOutput struct {
	Body index.Result
}

type indexAllInput struct {
	Body struct {
		Project string `json:"project,omitempty" doc:"Optional project scope"`
	}
}
type indexAllOutput struct {
	Body index.Summary
}

type moveNoteInput struct {
	Body struct {
		From    string `json:"from" minLength:"1" doc:"Old permalink"`
		To      string `json:"to" minLength:"1" doc:"New permalink"`
		Project string `json:"project,omitempty" doc:"Optional project scope"`
	}
}

type deleteNoteOutput struct {
	Body struct {
		Deleted bool `json:"deleted" doc:"Whether any embeddings existed"`
	}
}

type statusOutput struct {
	Body struct {
		SemanticSearch bool          `json:"semantic_search" doc:"Semantic retrieval available"`
		Probe          health.Status `json:"probe" doc:"Boot-time probe detail"`
	}
}

// --- Handlers ---

func (s *Server) handleSearch(ctx context.Context, input *searchInput) (*searchOutput, error) {
	hits, err := s.services.Search.Search(ctx, search.Request{
		Query:     input.Body.Query,
		Limit:     input.Body.Limit,
		Threshold: input.Body.Threshold,
		Mode:      search.Mode(input.Body.Mode),
		Depth:     input.Body.Depth,
		Project:   input.Body.Project,
	})
	if err != nil {
		return nil, httpError(err, "search failed")
	}
	out := &searchOutput{}
	out.Body.Hits = hits
	if out.Body.Hits == nil {
		out.Body.Hits = []search.Hit{}
	}
	return out, nil
}

func (s *Server) handleIndexNote(ctx context.Context, input *permalinkInput) (*indexNoteOutput, error) {
	res, err := s.services.Index.IndexNote(ctx, input.Body.Permalink, input.Body.Project)
	if err != nil {
		return nil, httpError(err, "indexing failed")
	}
	return &indexNoteOutput{Body: *res}, nil
}

func (s *Server) handleIndexAll(ctx context.Context, input *indexAllInput) (*indexAllOutput, error) {
	sum, err := s.services.Index.IndexAll(ctx, input.Body.Project)
	if err != nil {
		return nil, httpError(err, "reindexing failed")
	}
	return &indexAllOutput{Body: *sum}, nil
}

func (s *Server) handleMoveNote(ctx context.Context, input *moveNoteInput) (*indexNoteOutput, error) {
	res, err := s.services.Index.MoveNote(ctx, input.Body.From, input.Body.To, input.Body.Project)
	if err != nil {
		return nil, httpError(err, "moving note index failed")
	}
	return &indexNoteOutput{Body: *res}, nil
}

func (s *Server) handleDeleteNote(ctx context.Context, input *permalinkInput) (*deleteNoteOutput, error) {
	deleted, err := s.services.Index.DeleteNote(ctx, input.Body.Permalink)
	if err != nil {
		return nil, httpError(err, "deleting note index failed")
	}
	out := &deleteNoteOutput{}
	out.Body.Deleted = deleted
	return out, nil
}

func (s *Server) handleStatus(_ context.Context, _ *struct{}) (*statusOutput, error) {
	out := &statusOutput{}
	out.Body.SemanticSearch = s.services.Search.Availability().Embedding
	out.Body.Probe = s.services.Health
	return out, nil
}

// httpError maps a service error to a huma status error using the
// error taxonomy.
func httpError(err error, msg string) error {
	return huma.NewError(cortexerr.HTTPStatus(err), msg, err)
}
