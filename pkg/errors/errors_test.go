// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

package errors_test

import (
	stderrors "errors"
	"net/http"
	"testing"

	cortexerr "github.com/cortex-dev/cortex/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIncludesCodeAndFields(t *testing.T) {
	err := cortexerr.New(
		cortexerr.CodeStoreChunkInvalidInput,
		"embedding dimension mismatch",
		cortexerr.FieldEntity("patterns/auth-flow"),
		cortexerr.Field("got", 512),
	)

	require.Error(t, err)
	assert.Equal(t, cortexerr.CodeStoreChunkInvalidInput, cortexerr.CodeOf(err))
	assert.True(t, cortexerr.HasCode(err, cortexerr.CodeStoreChunkInvalidInput))

	fields := cortexerr.FieldsOf(err)
	assert.Equal(t, "patterns/auth-flow", fields["entity_id"])
	assert.Equal(t, 512, fields["got"])
}

func TestErrorfWrapsInnerError(t *testing.T) {
	inner := stderrors.New("disk full")
	err := cortexerr.Errorf(cortexerr.CodeStoreDatabaseFailure, "write failed: %w", inner)
	require.Error(t, err)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, cortexerr.CodeStoreDatabaseFailure, cortexerr.CodeOf(err))
}

func TestWrapPreservesWrappedErrorAndCode(t *testing.T) {
	root := stderrors.New("no such row")
	err := cortexerr.Wrap(
		root,
		cortexerr.CodeStoreEntityNotFound,
		"loading chunks",
		cortexerr.FieldEntity("n/a"),
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, root)
	assert.True(t, cortexerr.IsNotFound(err))
	assert.Equal(t, "n/a", cortexerr.FieldsOf(err)["entity_id"])
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, cortexerr.Wrap(nil, cortexerr.CodeServerInternalFailure, "ignored"))
	assert.NoError(t, cortexerr.Wrapf(nil, cortexerr.CodeServerInternalFailure, "ignored %s", "arg"))
}

func TestClassifiers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"not_found", cortexerr.New(cortexerr.CodeNotesNoteNotFound, "gone"), cortexerr.IsNotFound, true},
		{"invalid_input", cortexerr.New(cortexerr.CodeSearchRequestInvalid, "bad limit"), cortexerr.IsInvalidInput, true},
		{"unavailable", cortexerr.New(cortexerr.CodeEmbedRequestUnavailable, "refused"), cortexerr.IsUnavailable, true},
		{"semantic_unavailable", cortexerr.New(cortexerr.CodeSearchSemanticUnavailable, "disabled"), cortexerr.IsUnavailable, true},
		{"dimension_mismatch", cortexerr.New(cortexerr.CodeEmbedResponseDimensionInvalid, "got 512"), cortexerr.IsDimensionMismatch, true},
		{"database_failure", cortexerr.New(cortexerr.CodeStoreDatabaseFailure, "io"), cortexerr.IsDatabaseFailure, true},
		{"not_found is not invalid", cortexerr.New(cortexerr.CodeNotesNoteNotFound, "gone"), cortexerr.IsInvalidInput, false},
		{"plain error has no code", stderrors.New("plain"), cortexerr.IsNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{cortexerr.New(cortexerr.CodeNotesNoteNotFound, "gone"), http.StatusNotFound},
		{cortexerr.New(cortexerr.CodeSearchRequestInvalid, "bad"), http.StatusBadRequest},
		{cortexerr.New(cortexerr.CodeEmbedResponseDimensionInvalid, "512"), http.StatusBadGateway},
		{cortexerr.New(cortexerr.CodeEmbedRequestUnavailable, "down"), http.StatusServiceUnavailable},
		{cortexerr.New(cortexerr.CodeSearchSemanticUnavailable, "off"), http.StatusServiceUnavailable},
		{cortexerr.New(cortexerr.CodeStoreDatabaseFailure, "io"), http.StatusInternalServerError},
		{stderrors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cortexerr.HTTPStatus(tt.err), "error: %v", tt.err)
	}
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, cortexerr.Code(""), cortexerr.CodeOf(stderrors.New("plain")))
	assert.Equal(t, cortexerr.Code(""), cortexerr.CodeOf(nil))
}

func TestWithAddsFieldsToExistingChain(t *testing.T) {
	err := cortexerr.New(cortexerr.CodeEmbedRequestUnavailable, "refused")
	err = cortexerr.With(err, cortexerr.FieldProject("main"))

	require.Error(t, err)
	assert.Equal(t, cortexerr.CodeEmbedRequestUnavailable, cortexerr.CodeOf(err))
	assert.Equal(t, "main", cortexerr.FieldsOf(err)["project"])
}
