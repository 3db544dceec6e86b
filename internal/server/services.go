// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

package server

import (
	"context"

	"github.com/cortex-dev/cortex/internal/index"
	"github.com/cortex-dev/cortex/internal/search"
	"github.com/cortex-dev/cortex/pkg/health"
)

// SearchService is the retrieval surface the gateway exposes.
type SearchService interface {
	Search(ctx context.Context, req search.Request) ([]search.Hit, error)
	Availability() search.Availability
}

// IndexService maintains the embedding index.
type IndexService interface {
	IndexNote(ctx context.Context, permalink, project string) (*index.Result, error)
	DeleteNote(ctx context.Context, permalink string) (bool, error)
	MoveNote(ctx context.Context, oldPermalink, newPermalink, project string) (*index.Result, error)
	IndexAll(ctx context.Context, project string) (*index.Summary, error)
}

// Services bundles the backends the HTTP routes delegate to.
type Services struct {
	Search SearchService
	Index  IndexService
	Health health.Status
}

var _ SearchService = (*search.Service)(nil)
var _ IndexService = (*index.Indexer)(nil)
