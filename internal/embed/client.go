// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	cortexerr "github.com/cortex-dev/cortex/pkg/errors"
)

// DefaultTimeout bounds a single embedding request. Batch calls against
// local model servers have been observed to approach a minute, so the
// default is generous.
const DefaultTimeout = 60 * time.Second

// ClientConfig configures the HTTP embedding client.
type ClientConfig struct {
	BaseURL    string
	Model      string
	Dimensions int
	Timeout    time.Duration // 0 uses DefaultTimeout.
}

// Compile-time interface check.
var _ Embedder = (*Client)(nil)

// Client is an Embedder backed by an Ollama-compatible model server:
// POST {base}/api/embeddings with {"model","prompt"}, response
// {"embedding":[...]}.
type Client struct {
	baseURL    string
	model      string
	dimensions int
	httpClient *http.Client
}

// NewClient creates an embedding client for the given server.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, cortexerr.New(cortexerr.CodeConfigValidateInvalidValue, "embedding base URL must not be empty")
	}
	if cfg.Model == "" {
		return nil, cortexerr.New(cortexerr.CodeConfigValidateInvalidValue, "embedding model must not be empty")
	}
	if cfg.Dimensions <= 0 {
		return nil, cortexerr.Errorf(cortexerr.CodeConfigValidateInvalidValue, "embedding dimensions must be positive, got %d", cfg.Dimensions)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Dimensions returns the configured vector width.
func (c *Client) Dimensions() int {
	return c.dimensions
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed requests a single embedding with the task-type prefix applied.
func (c *Client) Embed(ctx context.Context, text string, task TaskType) ([]float32, error) {
	payload := embeddingRequest{
		Model:  c.model,
		Prompt: Prompt(task, text),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, cortexerr.Wrapf(err, cortexerr.CodeEmbedResponseInvalid, "marshalling embedding request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, cortexerr.Wrapf(err, cortexerr.CodeEmbedRequestUnavailable, "building embedding request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, cortexerr.Wrapf(err, cortexerr.CodeEmbedRequestUnavailable, "calling embedding server")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, cortexerr.New(cortexerr.CodeEmbedRequestUnavailable,
			fmt.Sprintf("embedding server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	var decoded embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, cortexerr.Wrapf(err, cortexerr.CodeEmbedResponseInvalid, "decoding embedding response")
	}

	if len(decoded.Embedding) != c.dimensions {
		return nil, cortexerr.New(cortexerr.CodeEmbedResponseDimensionInvalid,
			fmt.Sprintf("embedding has %d dimensions, want %d", len(decoded.Embedding), c.dimensions))
	}

	return decoded.Embedding, nil
}

// EmbedBatch embeds texts sequentially, preserving input order. The
// model server exposes no batch endpoint, so any failure aborts the
// whole batch with the position attached.
func (c *Client) EmbedBatch(ctx context.Context, texts []string, task TaskType) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := c.Embed(ctx, text, task)
		if err != nil {
			return nil, cortexerr.With(err, cortexerr.Field("batch_index", i))
		}
		vectors[i] = vec
	}
	return vectors, nil
}
