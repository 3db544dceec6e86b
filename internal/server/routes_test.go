// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cortex-dev/cortex/internal/index"
	"github.com/cortex-dev/cortex/internal/search"
	"github.com/cortex-dev/cortex/internal/server"
	cortexerr "github.com/cortex-dev/cortex/pkg/errors"
	"github.com/cortex-dev/cortex/pkg/health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock service implementations for testing.
type mockSearchService struct {
	hits  []search.Hit
	err   error
	avail search.Availability
	last  search.Request
}

func (m *mockSearchService) Search(_ context.Context, req search.Request) ([]search.Hit, error) {
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	return m.hits, nil
}

func (m *mockSearchService) Availability() search.Availability { return m.avail }

type mockIndexService struct {
	result  *index.Result
	summary *index.Summary
	deleted bool
	err     error
}

func (m *mockIndexService) IndexNote(_ context.Context, permalink, _ string) (*index.Result, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockIndexService) DeleteNote(_ context.Context, _ string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.deleted, nil
}

func (m *mockIndexService) MoveNote(_ context.Context, _, _, _ string) (*index.Result, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockIndexService) IndexAll(_ context.Context, _ string) (*index.Summary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

func testServer(t *testing.T, searchSvc server.SearchService, indexSvc server.IndexService) *server.Server {
	t.Helper()
	srv, err := server.New(server.Config{ListenAddr: "127.0.0.1:0"})
	require.NoError(t, err)
	srv.RegisterServices(&server.Services{
		Search: searchSvc,
		Index:  indexSvc,
		Health: health.Status{EmbeddingAvailable: true, NotesAvailable: true},
	})
	return srv
}

func doJSON(t *testing.T, srv *server.Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t, &mockSearchService{}, &mockIndexService{})

	rec := doJSON(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestSearchEndpoint(t *testing.T) {
	searchSvc := &mockSearchService{
		hits: []search.Hit{
			{Permalink: "notes/alpha", Title: "Alpha", SimilarityScore: 0.91, Snippet: "alpha...", Source: search.SourceSemantic},
		},
		avail: search.Availability{Embedding: true, Notes: true},
	}
	srv := testServer(t, searchSvc, &mockIndexService{})

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/search",
		`{"query":"alpha","limit":5,"mode":"semantic","depth":1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Hits []search.Hit `json:"hits"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Hits, 1)
	assert.Equal(t, "notes/alpha", out.Hits[0].Permalink)
	assert.InDelta(t, 0.91, out.Hits[0].SimilarityScore, 1e-9)

	assert.Equal(t, "alpha", searchSvc.last.Query)
	assert.Equal(t, 5, searchSvc.last.Limit)
	assert.Equal(t, search.ModeSemantic, searchSvc.last.Mode)
	assert.Equal(t, 1, searchSvc.last.Depth)
}

func TestSearchEndpointEmptyHitsSerializesAsArray(t *testing.T) {
	srv := testServer(t, &mockSearchService{}, &mockIndexService{})

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/search", `{"query":"nothing"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"hits":[]`)
}

func TestSearchEndpointErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", cortexerr.New(cortexerr.CodeSearchRequestInvalid, "bad request"), http.StatusBadRequest},
		{"unavailable", cortexerr.New(cortexerr.CodeSearchSemanticUnavailable, "backend down"), http.StatusServiceUnavailable},
		{"internal", cortexerr.New(cortexerr.CodeStoreDatabaseFailure, "boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testServer(t, &mockSearchService{err: tt.err}, &mockIndexService{})
			rec := doJSON(t, srv, http.MethodPost, "/api/v1/search", `{"query":"q"}`)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestSearchEndpointRejectsEmptyQuery(t *testing.T) {
	srv := testServer(t, &mockSearchService{}, &mockIndexService{})

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/search", `{"query":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestIndexNoteEndpoint(t *testing.T) {
	indexSvc := &mockIndexService{
		result: &index.Result{Permalink: "notes/alpha", Status: index.StatusIndexed, Chunks: 3, RunID: "run-1"},
	}
	srv := testServer(t, &mockSearchService{}, indexSvc)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/index", `{"permalink":"notes/alpha"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var out index.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, index.StatusIndexed, out.Status)
	assert.Equal(t, 3, out.Chunks)
}

func TestIndexNoteEndpointNotFound(t *testing.T) {
	indexSvc := &mockIndexService{
		err: cortexerr.New(cortexerr.CodeNotesNoteNotFound, "note missing"),
	}
	srv := testServer(t, &mockSearchService{}, indexSvc)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/index", `{"permalink":"notes/gone"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIndexAllEndpoint(t *testing.T) {
	indexSvc := &mockIndexService{
		summary: &index.Summary{Indexed: 4, Skipped: 1},
	}
	srv := testServer(t, &mockSearchService{}, indexSvc)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/index/all", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var out index.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 4, out.Indexed)
	assert.Equal(t, 1, out.Skipped)
}

func TestMoveNoteEndpoint(t *testing.T) {
	indexSvc := &mockIndexService{
		result: &index.Result{Permalink: "notes/new", Status: index.StatusIndexed, Chunks: 2},
	}
	srv := testServer(t, &mockSearchService{}, indexSvc)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/index/move", `{"from":"notes/old","to":"notes/new"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "notes/new")
}

func TestDeleteNoteEndpoint(t *testing.T) {
	srv := testServer(t, &mockSearchService{}, &mockIndexService{deleted: true})

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/index/delete", `{"permalink":"notes/alpha"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deleted":true`)
}

func TestStatusEndpoint(t *testing.T) {
	searchSvc := &mockSearchService{avail: search.Availability{Embedding: true, Notes: true}}
	srv := testServer(t, searchSvc, &mockIndexService{})

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		SemanticSearch bool          `json:"semantic_search"`
		Probe          health.Status `json:"probe"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.SemanticSearch)
	assert.True(t, out.Probe.EmbeddingAvailable)
}

func TestNewRequiresListenAddr(t *testing.T) {
	_, err := server.New(server.Config{})
	require.Error(t, err)
}
