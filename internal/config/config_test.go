// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cortex-dev/cortex/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", cfg.Embedding.BaseURL)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Equal(t, 768, cfg.Embedding.Dimensions)
	assert.Equal(t, 60*time.Second, cfg.Embedding.Timeout())
	assert.True(t, strings.HasSuffix(cfg.Storage.DBPath, filepath.Join(".basic-memory", "memory.db")))
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.InDelta(t, 0.7, cfg.Search.DefaultThreshold, 1e-9)
	assert.Equal(t, "warn", cfg.Search.GuardMode)
	assert.Equal(t, "127.0.0.1:18890", cfg.Server.Listen)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cortex.yaml")

	content := `
embedding:
  base_url: "http://10.0.0.5:11434"
  model: "mxbai-embed-large"
  dimensions: 1024
notes:
  root: "/srv/notes"
  project: "work"
search:
  guard_mode: "enforce"
server:
  listen: "0.0.0.0:9999"
`
	err := os.WriteFile(cfgPath, []byte(content), 0o644)
	require.NoError(t, err)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:11434", cfg.Embedding.BaseURL)
	assert.Equal(t, "mxbai-embed-large", cfg.Embedding.Model)
	assert.Equal(t, 1024, cfg.Embedding.Dimensions)
	assert.Equal(t, "/srv/notes", cfg.Notes.Root)
	assert.Equal(t, "work", cfg.Notes.Project)
	assert.Equal(t, "enforce", cfg.Search.GuardMode)
	assert.Equal(t, "0.0.0.0:9999", cfg.Server.Listen)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CORTEX_SERVER_LISTEN", "10.0.0.1:8080")
	t.Setenv("CORTEX_EMBEDDING_MODEL", "all-minilm")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:8080", cfg.Server.Listen)
	assert.Equal(t, "all-minilm", cfg.Embedding.Model)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_ExpandsTilde(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cortex.yaml")

	content := `
storage:
  db_path: "~/.basic-memory/memory.db"
notes:
  root: "~/vault"
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".basic-memory", "memory.db"), cfg.Storage.DBPath)
	assert.Equal(t, filepath.Join(home, "vault"), cfg.Notes.Root)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &config.Config{
		Embedding: config.EmbeddingConfig{BaseURL: "", Model: "", TimeoutMS: 0, Dimensions: -1},
		Storage:   config.StorageConfig{DBPath: ""},
		Search:    config.SearchConfig{DefaultLimit: 0, DefaultThreshold: 2, GuardMode: "maybe"},
		Server:    config.ServerConfig{Listen: "not-an-address"},
		Logging:   config.LoggingConfig{Level: "loud"},
	}

	errs := cfg.Validate()
	require.NotEmpty(t, errs)
	assert.GreaterOrEqual(t, len(errs), 9)
}

func TestValidate_RejectsBadListen(t *testing.T) {
	tests := []struct {
		name   string
		listen string
	}{
		{"empty", ""},
		{"no port", "localhost"},
		{"bad port", "localhost:http"},
		{"port out of range", "localhost:70000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Load("")
			require.NoError(t, err)
			cfg.Server.Listen = tt.listen
			assert.NotEmpty(t, cfg.Validate())
		})
	}
}

func TestValidate_AcceptsPortOnlyListen(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Server.Listen = ":8080"
	assert.Empty(t, cfg.Validate())
}

func TestLoad_RejectsInvalidFileValues(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cortex.yaml")

	content := `
search:
  guard_mode: "panic"
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))

	_, err := config.Load(cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "guard_mode")
}

func TestDefaultConfigYAMLParses(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cortex.yaml")
	require.NoError(t, os.WriteFile(cfgPath, config.DefaultConfigYAML, 0o600))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Empty(t, cfg.Validate())
}
