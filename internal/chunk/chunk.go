// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

// Package chunk splits note text into overlapping chunks with byte spans
// and defines the chunk id scheme used as the vector store primary key.
package chunk

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultSize is the target chunk width in bytes.
	DefaultSize = 900
	// DefaultOverlap is how many bytes consecutive chunks share.
	DefaultOverlap = 100
	// boundaryWindow is how far back from a cut point the splitter
	// searches for a paragraph, line, or sentence boundary.
	boundaryWindow = 200
)

// Chunk is a contiguous slice of the input text.
// Text == input[Start:End] always holds.
type Chunk struct {
	Index int
	Start int
	End   int
	Text  string
}

// Chunker performs deterministic sliding-window splitting. The same
// input always yields the same chunk list, so re-indexing an unchanged
// note produces byte-identical rows.
type Chunker struct {
	Size    int
	Overlap int
}

// New returns a Chunker with the build's fixed size and overlap.
func New() *Chunker {
	return &Chunker{Size: DefaultSize, Overlap: DefaultOverlap}
}

// Split chunks text into overlapping windows. Cut points prefer a
// paragraph break, then a line break, then a sentence end, searched
// within the tail of the window. Empty or whitespace-only input yields
// no chunks; whitespace-only windows inside the text are dropped and
// the remaining chunks re-indexed.
func (c *Chunker) Split(text string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	size := c.Size
	if size <= 0 {
		size = DefaultSize
	}
	overlap := c.Overlap
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var chunks []Chunk
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			end = len(text)
		} else if cut := boundaryCut(text, start, end); cut > start {
			end = cut
		}

		piece := text[start:end]
		if strings.TrimSpace(piece) != "" {
			chunks = append(chunks, Chunk{
				Index: len(chunks),
				Start: start,
				End:   end,
				Text:  piece,
			})
		}

		if end == len(text) {
			break
		}

		next := end - overlap
		if next <= start {
			next = end // always make progress
		}
		start = next
	}

	return chunks
}

// boundaryCut searches [end-boundaryWindow, end) for the best cut point
// and returns it, or end when no boundary is found in the window.
func boundaryCut(text string, start, end int) int {
	lo := end - boundaryWindow
	if lo < start {
		lo = start
	}
	window := text[lo:end]

	if i := strings.LastIndex(window, "\n\n"); i != -1 && lo+i+2 > start {
		return lo + i + 2
	}
	if i := strings.LastIndex(window, "\n"); i != -1 && lo+i+1 > start {
		return lo + i + 1
	}
	if i := strings.LastIndex(window, ". "); i != -1 && lo+i+2 > start {
		return lo + i + 2
	}
	return end
}

const idSeparator = "#chunk-"

// MakeID builds the store primary key for a chunk:
// "<entity>#chunk-<index>".
func MakeID(entityID string, index int) string {
	return fmt.Sprintf("%s%s%d", entityID, idSeparator, index)
}

// ParseID reverses MakeID. The last "#chunk-" wins so entity ids
// containing the separator still round-trip.
func ParseID(chunkID string) (entityID string, index int, err error) {
	i := strings.LastIndex(chunkID, idSeparator)
	if i < 0 {
		return "", 0, fmt.Errorf("chunk id %q has no %q separator", chunkID, idSeparator)
	}

	entityID = chunkID[:i]
	if entityID == "" {
		return "", 0, fmt.Errorf("chunk id %q has empty entity", chunkID)
	}

	index, err = strconv.Atoi(chunkID[i+len(idSeparator):])
	if err != nil || index < 0 {
		return "", 0, fmt.Errorf("chunk id %q has invalid index", chunkID)
	}

	return entityID, index, nil
}
