// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

//go:build !windows

package config_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/cortex-dev/cortex/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLogs routes slog output to a buffer for the duration of fn.
func captureLogs(t *testing.T, fn func()) string {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	fn()
	return buf.String()
}

func TestWarnInsecurePermissions_WorldReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cortex.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	out := captureLogs(t, func() {
		config.WarnInsecurePermissions(path)
	})
	assert.Contains(t, out, "insecure permissions")
}

func TestWarnInsecurePermissions_Strict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cortex.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	out := captureLogs(t, func() {
		config.WarnInsecurePermissions(path)
	})
	assert.NotContains(t, out, "insecure permissions")
}

func TestWarnInsecurePermissions_EmptyPath(t *testing.T) {
	out := captureLogs(t, func() {
		config.WarnInsecurePermissions("")
	})
	assert.Empty(t, out)
}
