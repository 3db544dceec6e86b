// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cortexerr "github.com/cortex-dev/cortex/pkg/errors"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootHasExpectedSubcommands(t *testing.T) {
	root := NewRootCmd()

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"init", "serve", "index", "search", "status", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "cortex dev")
}

func TestInitWritesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cortex.yaml")

	out, err := executeCommand(t, "init", "--output", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "embedding:")
	assert.Contains(t, string(data), "nomic-embed-text")
}

func TestInitRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cortex.yaml")
	require.NoError(t, os.WriteFile(path, []byte("existing: true\n"), 0o600))

	_, err := executeCommand(t, "init", "--output", path)
	require.Error(t, err)
	assert.True(t, cortexerr.IsInvalidInput(err))

	_, err = executeCommand(t, "init", "--output", path, "--force")
	require.NoError(t, err)
}

func TestInitSetsNotesRoot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cortex.yaml")

	_, err := executeCommand(t, "init", "--output", path, "--notes-root", "/srv/vault")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "/srv/vault")
}

func TestIndexRequiresTarget(t *testing.T) {
	_, err := executeCommand(t, "index")
	require.Error(t, err)
	assert.True(t, cortexerr.IsInvalidInput(err))
}

func TestIndexRejectsAllWithDelete(t *testing.T) {
	_, err := executeCommand(t, "index", "--all", "--delete", "notes/a")
	require.Error(t, err)
	assert.True(t, cortexerr.IsInvalidInput(err))
}

func TestBadConfigFlagSurfacesError(t *testing.T) {
	_, err := executeCommand(t, "status", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
