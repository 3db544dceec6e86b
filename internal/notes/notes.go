// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

// Package notes defines the note-store boundary the retrieval core
// consumes, plus a read-only markdown-directory implementation. The core
// never owns note bodies; it reads them on demand and stores only
// derived chunks.
package notes

import (
	"context"
	"regexp"
	"strings"
)

// Note is a note body read from the store.
type Note struct {
	Permalink string
	Title     string
	Text      string
}

// Ref is a lightweight note reference returned by list and search.
type Ref struct {
	Permalink string
	Title     string
	Text      string
}

// Store is the external note service boundary.
type Store interface {
	// ReadNote returns the note for a permalink.
	ReadNote(ctx context.Context, identifier, project string) (*Note, error)

	// SearchNotes runs the store's keyword text search.
	SearchNotes(ctx context.Context, query, project string, pageSize int) ([]Ref, error)

	// ListNotes returns all known notes, ordered by permalink.
	ListNotes(ctx context.Context, project string) ([]Ref, error)

	// Resolve maps a wikilink reference to a note, or a not-found error.
	Resolve(ctx context.Context, ref, project string) (*Ref, error)

	// Ping probes the store for availability.
	Ping(ctx context.Context) error
}

// wikilinkPattern matches inline [[target]] references. Aliased links
// ([[target|label]]) resolve on the target part.
var wikilinkPattern = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)

// ExtractWikilinks returns the unique wikilink targets in text, in
// order of first appearance.
func ExtractWikilinks(text string) []string {
	matches := wikilinkPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	var targets []string
	for _, m := range matches {
		target := m[1]
		if i := strings.Index(target, "|"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}
		targets = append(targets, target)
	}
	return targets
}
