// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

package notes

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	cortexerr "github.com/cortex-dev/cortex/pkg/errors"
)

// Compile-time interface check.
var _ Store = (*Dir)(nil)

// Dir is a read-only Store over a directory tree of markdown files.
// A note's permalink is its root-relative path without the .md
// extension, e.g. "patterns/auth-flow". A non-empty project scopes
// list, search, and resolution to that subdirectory.
type Dir struct {
	root   string
	parser goldmark.Markdown
}

// NewDir opens a markdown note directory.
func NewDir(root string) (*Dir, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, cortexerr.Wrapf(err, cortexerr.CodeNotesRootUnavailable, "opening notes root %s", root)
	}
	if !info.IsDir() {
		return nil, cortexerr.Errorf(cortexerr.CodeNotesRootUnavailable, "notes root %s is not a directory", root)
	}

	return &Dir{root: root, parser: goldmark.New()}, nil
}

// Ping probes the notes root.
func (d *Dir) Ping(_ context.Context) error {
	if _, err := os.Stat(d.root); err != nil {
		return cortexerr.Wrapf(err, cortexerr.CodeNotesRootUnavailable, "probing notes root")
	}
	return nil
}

// ReadNote loads a note by permalink. A trailing .md on the identifier
// is tolerated. Within a project scope, a bare identifier is also tried
// relative to the project directory.
func (d *Dir) ReadNote(ctx context.Context, identifier, project string) (*Note, error) {
	permalink := strings.TrimSuffix(path.Clean(identifier), ".md")

	raw, err := d.readFile(permalink)
	if err != nil && project != "" && cortexerr.IsNotFound(err) {
		scoped := path.Join(project, permalink)
		if raw2, err2 := d.readFile(scoped); err2 == nil {
			permalink, raw, err = scoped, raw2, nil
		}
	}
	if err != nil {
		return nil, err
	}

	return &Note{
		Permalink: permalink,
		Title:     d.extractTitle(raw, permalink),
		Text:      string(raw),
	}, nil
}

func (d *Dir) readFile(permalink string) ([]byte, error) {
	if permalink == "" || permalink == "." || strings.HasPrefix(permalink, "..") {
		return nil, cortexerr.Errorf(cortexerr.CodeNotesNoteNotFound, "note %q not found", permalink)
	}

	raw, err := os.ReadFile(filepath.Join(d.root, filepath.FromSlash(permalink)+".md"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cortexerr.Errorf(cortexerr.CodeNotesNoteNotFound, "note %q not found", permalink)
		}
		return nil, cortexerr.Wrapf(err, cortexerr.CodeNotesReadFailure, "reading note %q", permalink)
	}
	return raw, nil
}

// ListNotes walks the tree and returns refs ordered by permalink.
func (d *Dir) ListNotes(ctx context.Context, project string) ([]Ref, error) {
	var refs []Ref

	err := filepath.WalkDir(d.root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !strings.HasSuffix(p, ".md") {
			return nil
		}

		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		permalink := strings.TrimSuffix(filepath.ToSlash(rel), ".md")
		if !inProject(permalink, project) {
			return nil
		}

		raw, err := os.ReadFile(p)
		if err != nil {
			return err
		}

		refs = append(refs, Ref{Permalink: permalink, Title: d.extractTitle(raw, permalink)})
		return nil
	})
	if err != nil {
		return nil, cortexerr.Wrapf(err, cortexerr.CodeNotesReadFailure, "listing notes")
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].Permalink < refs[j].Permalink })
	return refs, nil
}

// SearchNotes is a case-insensitive substring search over titles and
// bodies. Title matches rank before body matches; ties keep permalink
// order. Good enough for single-user corpora, which is all this store
// is sized for.
func (d *Dir) SearchNotes(ctx context.Context, query, project string, pageSize int) ([]Ref, error) {
	if strings.TrimSpace(query) == "" {
		return nil, cortexerr.New(cortexerr.CodeNotesSearchFailure, "query must not be empty")
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	refs, err := d.ListNotes(ctx, project)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	var titleHits, bodyHits []Ref
	for _, ref := range refs {
		if strings.Contains(strings.ToLower(ref.Title), needle) {
			titleHits = append(titleHits, ref)
			continue
		}

		raw, err := d.readFile(ref.Permalink)
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(string(raw)), needle) {
			bodyHits = append(bodyHits, ref)
		}
	}

	hits := append(titleHits, bodyHits...)
	if len(hits) > pageSize {
		hits = hits[:pageSize]
	}
	return hits, nil
}

// Resolve maps a wikilink reference to a note. A reference resolves if
// its lowercased form matches a known title, it matches a permalink
// exactly, it matches with .md stripped or appended, or its basename
// matches a permalink's basename.
func (d *Dir) Resolve(ctx context.Context, ref, project string) (*Ref, error) {
	target := strings.TrimSpace(ref)
	if target == "" {
		return nil, cortexerr.Errorf(cortexerr.CodeNotesNoteNotFound, "empty reference")
	}

	refs, err := d.ListNotes(ctx, project)
	if err != nil {
		return nil, err
	}

	lowered := strings.ToLower(target)
	trimmed := strings.TrimSuffix(target, ".md")

	// Title match.
	for _, r := range refs {
		if strings.ToLower(r.Title) == lowered {
			return &r, nil
		}
	}

	// Exact permalink, then with the .md extension stripped or added.
	for _, r := range refs {
		if r.Permalink == target || r.Permalink == trimmed || r.Permalink+".md" == target {
			return &r, nil
		}
	}

	// Basename match; refs are sorted so the first hit is deterministic.
	base := path.Base(trimmed)
	for _, r := range refs {
		if path.Base(r.Permalink) == base {
			return &r, nil
		}
	}

	return nil, cortexerr.Errorf(cortexerr.CodeNotesNoteNotFound, "reference %q does not resolve", ref)
}

func inProject(permalink, project string) bool {
	if project == "" {
		return true
	}
	return strings.HasPrefix(permalink, strings.TrimSuffix(project, "/")+"/")
}

// extractTitle returns the first level-1 heading, else the first
// level-2 heading, else the capitalized basename of the permalink.
func (d *Dir) extractTitle(content []byte, permalink string) string {
	var firstH1, firstH2 string

	doc := d.parser.Parser().Parse(gmtext.NewReader(content))
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		text := headingText(heading, content)
		switch {
		case heading.Level == 1 && firstH1 == "":
			firstH1 = text
			return ast.WalkStop, nil
		case heading.Level == 2 && firstH2 == "":
			firstH2 = text
		}
		return ast.WalkContinue, nil
	})

	if firstH1 != "" {
		return firstH1
	}
	if firstH2 != "" {
		return firstH2
	}
	return titleFromPermalink(permalink)
}

func headingText(n ast.Node, content []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(content))
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func titleFromPermalink(permalink string) string {
	name := path.Base(permalink)
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	for i, word := range words {
		runes := []rune(word)
		if len(runes) > 0 {
			runes[0] = unicode.ToUpper(runes[0])
			words[i] = string(runes)
		}
	}
	return strings.Join(words, " ")
}
