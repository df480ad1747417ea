/*
 * Copyright 2026 The Yorkie Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package rope

import (
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

const (
	// DefaultMaxChunkBytes is the default upper bound of a chunk in bytes.
	DefaultMaxChunkBytes = 256

	// MinMaxChunkBytes is the smallest accepted upper bound of a chunk.
	MinMaxChunkBytes = 16
)

// Chunk is a leaf item of the rope: a short run of text with its summary.
type Chunk struct {
	text    string
	summary TextSummary
}

func newChunk(text string) Chunk {
	return Chunk{text: text, summary: Summarize(text)}
}

// Summary returns the summary of the chunk.
func (c Chunk) Summary() TextSummary {
	return c.summary
}

// Text returns the text of the chunk.
func (c Chunk) Text() string {
	return c.text
}

// splitChunks cuts text into chunks of at most maxBytes bytes.
func splitChunks(text string, maxBytes int) []Chunk {
	var chunks []Chunk
	for len(text) > 0 {
		if len(text) <= maxBytes {
			chunks = append(chunks, newChunk(text))
			break
		}

		// Avoid leaving a tiny tail chunk behind a full one.
		limit := maxBytes
		if len(text) < 2*maxBytes {
			limit = (len(text) + 1) / 2
		}

		cut := chunkBoundary(text, limit)
		chunks = append(chunks, newChunk(text[:cut]))
		text = text[cut:]
	}
	return chunks
}

// chunkBoundary returns the largest offset in (0, limit] at which text can be
// cut. Grapheme cluster boundaries are preferred, which also keeps "\r\n"
// together. A cluster longer than limit is cut at a rune boundary.
func chunkBoundary(text string, limit int) int {
	best, pos, state := 0, 0, -1
	rest := text
	for len(rest) > 0 {
		cluster, remaining, _, newState := uniseg.FirstGraphemeClusterInString(rest, state)
		if pos+len(cluster) > limit {
			break
		}
		pos += len(cluster)
		best = pos
		rest = remaining
		state = newState
	}
	if best > 0 {
		return best
	}

	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if cut > 0 && text[cut-1] == '\r' && text[cut] == '\n' {
		cut--
	}
	if cut == 0 {
		_, cut = utf8.DecodeRuneInString(text)
	}
	return cut
}

// isSplittable reports whether the boundary between left and right is a
// valid chunk boundary.
func isSplittable(left, right string) bool {
	if left == "" || right == "" {
		return true
	}
	if !utf8.RuneStart(right[0]) {
		return false
	}
	return !(left[len(left)-1] == '\r' && right[0] == '\n')
}
