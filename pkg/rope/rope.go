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

// Package rope provides a text container built on sumtree. Offsets are byte
// offsets into UTF-8 text; rows and columns are derived from line feeds.
package rope

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yorkie-team/cotext/pkg/errors"
	"github.com/yorkie-team/cotext/pkg/sumtree"
)

var (
	// ErrOutOfRange is returned when an offset or a point is outside the text.
	ErrOutOfRange = errors.OutOfRange("offset out of range").WithCode("ErrOutOfRange")

	// ErrNotCharBoundary is returned when an offset falls inside a UTF-8 sequence.
	ErrNotCharBoundary = errors.InvalidArgument("offset is not a character boundary").WithCode("ErrNotCharBoundary")

	// ErrInvalidUTF8 is returned when inserted text is not valid UTF-8.
	ErrInvalidUTF8 = errors.InvalidArgument("text is not valid UTF-8").WithCode("ErrInvalidUTF8")
)

// Point is a position expressed as a zero-based row and a byte column.
type Point struct {
	Row    int
	Column int
}

// Rope is a sequence of UTF-8 text split into chunks.
type Rope struct {
	tree     *sumtree.Tree[Chunk, TextSummary]
	maxChunk int
}

// New creates an empty rope whose chunks hold at most maxChunkBytes bytes.
func New(maxChunkBytes int) *Rope {
	if maxChunkBytes == 0 {
		maxChunkBytes = DefaultMaxChunkBytes
	} else if maxChunkBytes < MinMaxChunkBytes {
		maxChunkBytes = MinMaxChunkBytes
	}

	return &Rope{
		tree:     sumtree.New[Chunk, TextSummary](sumtree.Config[Chunk]{}),
		maxChunk: maxChunkBytes,
	}
}

// FromString creates a rope holding the given text.
func FromString(text string, maxChunkBytes int) (*Rope, error) {
	r := New(maxChunkBytes)
	if err := r.Insert(0, text); err != nil {
		return nil, err
	}
	return r, nil
}

// Len returns the length of the text in bytes.
func (r *Rope) Len() int {
	return r.tree.Summary().Bytes
}

// Chars returns the number of characters.
func (r *Rope) Chars() int {
	return r.tree.Summary().Chars
}

// LineCount returns the number of lines. An empty rope has one line.
func (r *Rope) LineCount() int {
	return r.tree.Summary().Lines + 1
}

// Summary returns the summary of the whole text.
func (r *Rope) Summary() TextSummary {
	return r.tree.Summary()
}

// String returns the whole text.
func (r *Rope) String() string {
	var builder strings.Builder
	builder.Grow(r.Len())
	for _, chunk := range r.tree.Items() {
		builder.WriteString(chunk.text)
	}
	return builder.String()
}

// Insert inserts text at the given offset.
func (r *Rope) Insert(offset int, text string) error {
	return r.Replace(offset, offset, text)
}

// Remove removes the text in [from, to).
func (r *Rope) Remove(from, to int) error {
	return r.Replace(from, to, "")
}

// Replace replaces the text in [from, to) with text. Only the chunks touching
// the range are rebuilt.
func (r *Rope) Replace(from, to int, text string) error {
	if err := r.checkRange(from, to); err != nil {
		return err
	}
	if !utf8.ValidString(text) {
		return ErrInvalidUTF8
	}
	if from == to && text == "" {
		return nil
	}

	if r.tree.Len() == 0 {
		r.tree.Insert(0, splitChunks(text, r.maxChunk)...)
		return nil
	}

	first := r.tree.Seek(byteDim, from, sumtree.Left)
	last := r.tree.Seek(byteDim, to, sumtree.Left)
	firstIdx, lastIdx := first.Index(), last.Index()
	windowStart := first.Start().Bytes

	var window strings.Builder
	for c := first; c.Valid() && c.Index() <= lastIdx; c.Next() {
		window.WriteString(c.Item().text)
	}
	old := window.String()
	merged := old[:from-windowStart] + text + old[to-windowStart:]

	// Absorb neighbours when the new edges are not valid chunk boundaries or
	// when the rebuilt text is too small to stand alone.
	if lastIdx+1 < r.tree.Len() {
		next := r.tree.Get(lastIdx + 1).text
		if !isSplittable(merged, next) || len(merged) < r.minChunk() {
			merged += next
			lastIdx++
		}
	}
	if firstIdx > 0 {
		prev := r.tree.Get(firstIdx - 1).text
		if !isSplittable(prev, merged) || len(merged) < r.minChunk() {
			merged = prev + merged
			firstIdx--
		}
	}

	r.tree.Remove(firstIdx, lastIdx+1)
	if merged != "" {
		r.tree.Insert(firstIdx, splitChunks(merged, r.maxChunk)...)
	}
	return nil
}

// Slice returns the text in [from, to).
func (r *Rope) Slice(from, to int) (string, error) {
	chunks, err := r.Chunks(from, to)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	builder.Grow(to - from)
	for chunks.Next() {
		builder.WriteString(chunks.Text())
	}
	return builder.String(), nil
}

// Chunks returns an iterator over the text in [from, to) that yields the
// underlying chunk strings without copying the document.
func (r *Rope) Chunks(from, to int) (*Chunks, error) {
	if err := r.checkRange(from, to); err != nil {
		return nil, err
	}

	return &Chunks{
		cursor: r.tree.Seek(byteDim, from, sumtree.Right),
		from:   from,
		to:     to,
	}, nil
}

// IsCharBoundary reports whether offset is at the start or end of a character.
func (r *Rope) IsCharBoundary(offset int) bool {
	if offset == 0 || offset == r.Len() {
		return true
	}
	if offset < 0 || offset > r.Len() {
		return false
	}

	c := r.tree.Seek(byteDim, offset, sumtree.Right)
	return utf8.RuneStart(c.Item().text[offset-c.Start().Bytes])
}

// SplitsLineBreak reports whether offset falls between the "\r" and the "\n"
// of a line break.
func (r *Rope) SplitsLineBreak(offset int) bool {
	if offset <= 0 || offset >= r.Len() {
		return false
	}
	return r.byteAt(offset-1) == '\r' && r.byteAt(offset) == '\n'
}

// ClipOffset moves offset back to the nearest character boundary, clamping it
// to the text.
func (r *Rope) ClipOffset(offset int) int {
	if offset <= 0 {
		return 0
	}
	if offset >= r.Len() {
		return r.Len()
	}

	c := r.tree.Seek(byteDim, offset, sumtree.Right)
	text, within := c.Item().text, offset-c.Start().Bytes
	for within > 0 && !utf8.RuneStart(text[within]) {
		within--
	}
	return c.Start().Bytes + within
}

// OffsetToPoint converts a byte offset to a point. An offset inside a "\r\n"
// line break has no point of its own and is rejected.
func (r *Rope) OffsetToPoint(offset int) (Point, error) {
	if offset < 0 || offset > r.Len() {
		return Point{}, fmt.Errorf("offset %d: %w", offset, ErrOutOfRange)
	}
	if r.SplitsLineBreak(offset) {
		return Point{}, fmt.Errorf("offset %d: %w", offset, ErrNotCharBoundary)
	}
	if r.tree.Len() == 0 {
		return Point{}, nil
	}

	c := r.tree.Seek(byteDim, offset, sumtree.Left)
	prefix := c.Item().text[:offset-c.Start().Bytes]
	summary := c.Start().Add(Summarize(prefix))
	return Point{Row: summary.Lines, Column: summary.LastLineLen}, nil
}

// PointToOffset converts a point to a byte offset. A column past the end of
// its line is clamped to the end of the line; a row past the last line is an
// error.
func (r *Rope) PointToOffset(point Point) (int, error) {
	if point.Row < 0 || point.Column < 0 || point.Row >= r.LineCount() {
		return 0, fmt.Errorf("point %d:%d: %w", point.Row, point.Column, ErrOutOfRange)
	}

	start := r.lineStart(point.Row)
	lineLen, err := r.LineLen(point.Row)
	if err != nil {
		return 0, err
	}

	return r.ClipOffset(start + min(point.Column, lineLen)), nil
}

// LineLen returns the length in bytes of the given row, excluding the line
// break.
func (r *Rope) LineLen(row int) (int, error) {
	if row < 0 || row >= r.LineCount() {
		return 0, fmt.Errorf("row %d: %w", row, ErrOutOfRange)
	}

	start := r.lineStart(row)
	if row == r.LineCount()-1 {
		return r.Len() - start, nil
	}

	end := r.lineStart(row+1) - 1
	if end > start && r.byteAt(end-1) == '\r' {
		end--
	}
	return end - start, nil
}

// OffsetToChar converts a byte offset to a character index.
func (r *Rope) OffsetToChar(offset int) (int, error) {
	if offset < 0 || offset > r.Len() {
		return 0, fmt.Errorf("offset %d: %w", offset, ErrOutOfRange)
	}
	if r.tree.Len() == 0 {
		return 0, nil
	}

	c := r.tree.Seek(byteDim, offset, sumtree.Left)
	prefix := c.Item().text[:offset-c.Start().Bytes]
	return c.Start().Chars + utf8.RuneCountInString(prefix), nil
}

// CharToOffset converts a character index to a byte offset.
func (r *Rope) CharToOffset(index int) (int, error) {
	if index < 0 || index > r.Chars() {
		return 0, fmt.Errorf("char %d: %w", index, ErrOutOfRange)
	}
	if r.tree.Len() == 0 {
		return 0, nil
	}

	c := r.tree.Seek(charDim, index, sumtree.Left)
	offset, remaining := c.Start().Bytes, index-c.Start().Chars
	for _, ch := range c.Item().text {
		if remaining == 0 {
			break
		}
		offset += utf8.RuneLen(ch)
		remaining--
	}
	return offset, nil
}

// Check verifies the internal invariants of the rope.
func (r *Rope) Check() error {
	if err := r.tree.Check(); err != nil {
		return err
	}

	prev := ""
	for i, chunk := range r.tree.Items() {
		if chunk.text == "" || len(chunk.text) > r.maxChunk {
			return fmt.Errorf("chunk %d has %d bytes, want [1, %d]", i, len(chunk.text), r.maxChunk)
		}
		if !isSplittable(prev, chunk.text) {
			return fmt.Errorf("chunk %d starts inside a character or a line break", i)
		}
		prev = chunk.text
	}
	return nil
}

func (r *Rope) minChunk() int {
	return r.maxChunk / 4
}

func (r *Rope) checkRange(from, to int) error {
	if from < 0 || to < from || to > r.Len() {
		return fmt.Errorf("range [%d, %d): %w", from, to, ErrOutOfRange)
	}
	if !r.IsCharBoundary(from) || !r.IsCharBoundary(to) {
		return fmt.Errorf("range [%d, %d): %w", from, to, ErrNotCharBoundary)
	}
	return nil
}

// lineStart returns the offset of the first byte of the given row.
func (r *Rope) lineStart(row int) int {
	if row == 0 {
		return 0
	}

	c := r.tree.Seek(lineDim, row, sumtree.Left)
	text, remaining := c.Item().text, row-c.Start().Lines
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			remaining--
			if remaining == 0 {
				return c.Start().Bytes + i + 1
			}
		}
	}
	return c.End().Bytes
}

func (r *Rope) byteAt(offset int) byte {
	c := r.tree.Seek(byteDim, offset, sumtree.Right)
	return c.Item().text[offset-c.Start().Bytes]
}
