// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

// Package search embeds queries, runs cosine retrieval reduced to
// note-level hits, and orchestrates auto/semantic/keyword mode selection
// with wikilink relation expansion.
package search

// Source tags where a hit came from.
type Source string

const (
	SourceSemantic Source = "semantic"
	SourceKeyword  Source = "keyword"
	SourceRelated  Source = "related"
)

// Mode selects the retrieval strategy.
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModeSemantic Mode = "semantic"
	ModeKeyword  Mode = "keyword"
)

// Hit is a note-level search result.
type Hit struct {
	Permalink       string  `json:"permalink"`
	Title           string  `json:"title"`
	SimilarityScore float64 `json:"similarity_score"`
	Snippet         string  `json:"snippet"`
	Source          Source  `json:"source"`
	Depth           int     `json:"depth,omitempty"`
}

// Request is a search request. Zero values for Limit, Threshold, and
// Mode take their documented defaults during validation; Depth zero
// means no relation expansion.
type Request struct {
	Query     string
	Limit     int
	Threshold float64
	Mode      Mode
	Depth     int
	Project   string
}

const (
	DefaultLimit     = 10
	MaxLimit         = 100
	DefaultThreshold = 0.7
	MaxDepth         = 3
)
