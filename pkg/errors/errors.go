// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeStoreDatabaseFailure   Code = "store.database.failure"
	CodeStoreEntityNotFound    Code = "store.entity.get.not_found"
	CodeStoreChunkInvalidInput Code = "store.chunk.invalid_input"
	CodeStoreQueryInvalidInput Code = "store.query.invalid_input"

	CodeEmbedRequestUnavailable       Code = "embed.request.unavailable"
	CodeEmbedResponseInvalid          Code = "embed.response.invalid"
	CodeEmbedResponseDimensionInvalid Code = "embed.response.dimension_mismatch"

	CodeNotesNoteNotFound    Code = "notes.note.not_found"
	CodeNotesReadFailure     Code = "notes.read.failure"
	CodeNotesSearchFailure   Code = "notes.search.failure"
	CodeNotesRootUnavailable Code = "notes.root.unavailable"

	CodeIndexPipelineFailure Code = "index.pipeline.failure"

	CodeSearchRequestInvalid      Code = "search.request.invalid_input"
	CodeSearchSemanticUnavailable Code = "search.semantic.unavailable"

	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeServerStartFailure    Code = "server.start.failure"
	CodeServerInternalFailure Code = "server.internal.failure"

	CodeCLISetupFailure Code = "cli.setup.failure"
	CodeCLIInputInvalid Code = "cli.input.invalid"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldEntity(value string) Attr {
	return Field("entity_id", value)
}

func FieldChunk(value string) Attr {
	return Field("chunk_id", value)
}

func FieldProject(value string) Attr {
	return Field("project", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

// With adds structured fields to an existing error chain.
func With(err error, fields ...Attr) error {
	if err == nil {
		return nil
	}

	code := CodeOf(err)
	if code == "" {
		code = CodeServerInternalFailure
	}

	return oops.Code(code).With(flatten(fields)...).Wrap(err)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" || r == "invalid_format"
}

// IsUnavailable reports whether the error indicates an unreachable or
// disabled collaborator (embedding server down, semantic search gated off).
func IsUnavailable(err error) bool {
	return reason(CodeOf(err)) == "unavailable"
}

// IsDimensionMismatch reports whether an embedding vector failed the
// fixed-dimension contract. This kind is never retriable.
func IsDimensionMismatch(err error) bool {
	return reason(CodeOf(err)) == "dimension_mismatch"
}

func IsDatabaseFailure(err error) bool {
	code := CodeOf(err)
	return strings.HasPrefix(string(code), "store.") && reason(code) == "failure"
}

func HTTPStatus(err error) int {
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsInvalidInput(err):
		return http.StatusBadRequest
	case IsDimensionMismatch(err):
		return http.StatusBadGateway
	case IsUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func Join(errs ...error) error {
	return oops.Code(CodeServerInternalFailure).Wrap(stderrors.Join(errs...))
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
