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

// Package crdt provides the replicated text buffer. Every character keeps a
// stable identity, concurrent insertions are ordered deterministically and
// deletions leave tombstones until compaction proves nobody needs them.
package crdt

import (
	"fmt"
	"strings"
	gotime "time"
	"unicode/utf8"

	"github.com/yorkie-team/cotext/pkg/document/time"
	"github.com/yorkie-team/cotext/pkg/errors"
	"github.com/yorkie-team/cotext/pkg/llrb"
	"github.com/yorkie-team/cotext/pkg/rope"
	"github.com/yorkie-team/cotext/pkg/sumtree"
)

var (
	// ErrUnknownReference is returned when an operation refers to a character
	// that this replica has not seen.
	ErrUnknownReference = errors.NotFound("reference to unknown text").WithCode("ErrUnknownReference")

	// ErrCollectedReference is returned when an operation refers to a
	// character that was already removed by compaction.
	ErrCollectedReference = errors.DataLoss("reference to collected text").WithCode("ErrCollectedReference")

	// ErrInvalidFragment is returned when a fragment cannot be integrated.
	ErrInvalidFragment = errors.InvalidArgument("invalid fragment").WithCode("ErrInvalidFragment")

	// ErrCorrupted is returned by Check when the structures of a text
	// disagree.
	ErrCorrupted = errors.Internal("corrupted text").WithCode("ErrCorrupted")
)

// Text is the replicated text buffer. Fragments are kept in document order in
// a sumtree, indexed by ID, and the live text is mirrored in a rope so reads
// never have to skip tombstones.
//
// Text is not safe for concurrent use.
type Text struct {
	fragments *sumtree.Tree[*Fragment, FragmentSummary]
	index     *llrb.Tree[*FragmentID, *Fragment]
	visible   *rope.Rope

	// removedFragmentMap holds the tombstones that are still in the tree.
	removedFragmentMap map[string]*Fragment

	// collected holds the ranges removed by compaction, keyed by their first
	// character.
	collected *llrb.Tree[*FragmentID, *CollectedSpan]

	now func() gotime.Time
}

// NewText creates an empty text whose rope chunks hold at most maxLeafBytes.
func NewText(maxLeafBytes int) *Text {
	return &Text{
		fragments: sumtree.New[*Fragment, FragmentSummary](sumtree.Config[*Fragment]{
			OnPlace: func(f *Fragment, leaf sumtree.NodeID) {
				f.leaf = leaf
			},
		}),
		index:              llrb.NewTree[*FragmentID, *Fragment](),
		visible:            rope.New(maxLeafBytes),
		removedFragmentMap: make(map[string]*Fragment),
		collected:          llrb.NewTree[*FragmentID, *CollectedSpan](),
		now:                gotime.Now,
	}
}

// SetNow replaces the wall clock used to stamp tombstones.
func (t *Text) SetNow(now func() gotime.Time) {
	t.now = now
}

// Len returns the length of the live text in bytes.
func (t *Text) Len() int {
	return t.visible.Len()
}

// String returns the live text.
func (t *Text) String() string {
	return t.visible.String()
}

// Slice returns the live text in [from, to).
func (t *Text) Slice(from, to int) (string, error) {
	return t.visible.Slice(from, to)
}

// LineCount returns the number of lines of the live text.
func (t *Text) LineCount() int {
	return t.visible.LineCount()
}

// OffsetToPoint converts a byte offset of the live text to a point.
func (t *Text) OffsetToPoint(offset int) (rope.Point, error) {
	return t.visible.OffsetToPoint(offset)
}

// PointToOffset converts a point of the live text to a byte offset.
func (t *Text) PointToOffset(point rope.Point) (int, error) {
	return t.visible.PointToOffset(point)
}

// Fragments returns all fragments, tombstones included, in document order.
func (t *Text) Fragments() []*Fragment {
	return t.fragments.Items()
}

// Summary returns the summary of all fragments.
func (t *Text) Summary() FragmentSummary {
	return t.fragments.Summary()
}

// CollectedLen returns the number of collected ranges.
func (t *Text) CollectedLen() int {
	return t.collected.Len()
}

// InsertOrigins returns the characters that surround the given offset of the
// live text, as the origins of an insertion there. The right origin is the
// next character of the document, which may be a tombstone.
func (t *Text) InsertOrigins(offset int) (*FragmentID, *FragmentID, error) {
	if err := t.checkOffset(offset); err != nil {
		return nil, nil, err
	}

	if offset == 0 {
		if t.fragments.Len() == 0 {
			return nil, nil, nil
		}
		return nil, t.fragments.Get(0).id, nil
	}

	c := t.fragments.Seek(visibleDim, offset, sumtree.Left)
	f := c.Item()
	within := offset - c.Start().Visible
	_, size := utf8.DecodeLastRuneInString(f.content[:within])
	origin := f.id.Split(within - size)

	if within < len(f.content) {
		return origin, f.id.Split(within), nil
	}
	if c.Next() {
		return origin, c.Item().id, nil
	}
	return origin, nil, nil
}

// DeleteSpans returns the spans of the live characters in [from, to).
// Adjacent characters of the same insertion are merged into one span.
func (t *Text) DeleteSpans(from, to int) ([]*Span, error) {
	if err := t.checkOffset(from); err != nil {
		return nil, err
	}
	if err := t.checkOffset(to); err != nil {
		return nil, err
	}
	if to < from {
		return nil, fmt.Errorf("range [%d, %d): %w", from, to, rope.ErrOutOfRange)
	}

	var spans []*Span
	for c := t.fragments.Seek(visibleDim, from, sumtree.Right); c.Valid(); c.Next() {
		start := c.Start().Visible
		if start >= to {
			break
		}

		f := c.Item()
		if f.IsRemoved() {
			continue
		}

		lo := f.id.offset + max(from, start) - start
		hi := f.id.offset + min(to, start+len(f.content)) - start
		if n := len(spans); n > 0 && spans[n-1].createdAt.Equal(f.id.createdAt) && spans[n-1].to == lo {
			spans[n-1].to = hi
			continue
		}
		spans = append(spans, NewSpan(f.id.createdAt, lo, hi))
	}
	return spans, nil
}

// CheckReference returns nil if the character of the given ID is in the
// tree. A nil ID is a document boundary and always valid.
func (t *Text) CheckReference(id *FragmentID) error {
	if id == nil || t.findFragment(id) != nil {
		return nil
	}
	if t.findCollected(id) != nil {
		return fmt.Errorf("%s: %w", id.ToTestString(), ErrCollectedReference)
	}
	return fmt.Errorf("%s: %w", id.ToTestString(), ErrUnknownReference)
}

// CheckInsertion returns nil if text inserted between the given origins by
// an author at the given version can be integrated. A collected right origin
// is forwarded to the character that followed it only if the author had seen
// it deleted; otherwise, like a collected origin, it is reported as
// ErrCollectedReference.
func (t *Text) CheckInsertion(origin, rightOrigin *FragmentID, version time.VersionVector) error {
	if err := t.CheckReference(origin); err != nil {
		return err
	}
	_, err := t.forwardRight(rightOrigin, version)
	return err
}

// forwardRight returns the given right origin, or the character that
// followed it when it was collected. An author that saw the tombstone
// deleted placed its text before the tombstone and after every character it
// knew left of it, so the scan bound is unchanged. An author that saw it
// alive may have concurrent neighbours this replica can no longer order.
func (t *Text) forwardRight(id *FragmentID, version time.VersionVector) (*FragmentID, error) {
	for hops := 0; id != nil; hops++ {
		if t.findFragment(id) != nil {
			return id, nil
		}

		collected := t.findCollected(id)
		if collected == nil {
			return nil, fmt.Errorf("%s: %w", id.ToTestString(), ErrUnknownReference)
		}
		if !collected.seenBy(version) || hops > t.collected.Len() {
			return nil, fmt.Errorf("%s: %w", id.ToTestString(), ErrCollectedReference)
		}
		id = collected.right
	}
	return nil, nil
}

// CheckSpan returns nil if both ends of the span are known, in the tree or
// collected.
func (t *Text) CheckSpan(span *Span) error {
	if span.from < 0 || span.to <= span.from {
		return fmt.Errorf("span %s: %w", span.ToTestString(), ErrInvalidFragment)
	}
	if !t.Has(span.StartID()) || !t.Has(NewFragmentID(span.createdAt, span.to-1)) {
		return fmt.Errorf("span %s: %w", span.ToTestString(), ErrUnknownReference)
	}
	return nil
}

// Has returns whether the character of the given ID is known, either in the
// tree or collected.
func (t *Text) Has(id *FragmentID) bool {
	return t.findFragment(id) != nil || t.findCollected(id) != nil
}

// Integrate places a new fragment between its origins. Concurrent fragments
// with the same origins are ordered by their insertion tickets, lower first.
// version is what the author had applied and decides whether a collected
// right origin can be forwarded. Integrating a fragment that is already
// known is a no-op.
func (t *Text) Integrate(f *Fragment, version time.VersionVector) error {
	if f.content == "" || !utf8.ValidString(f.content) {
		return fmt.Errorf("%s: %w", f.id.ToTestString(), ErrInvalidFragment)
	}
	if t.Has(f.id) {
		return nil
	}
	if err := t.CheckReference(f.origin); err != nil {
		return err
	}
	rightOrigin, err := t.forwardRight(f.rightOrigin, version)
	if err != nil {
		return err
	}

	f.leaf = sumtree.NilNode
	index := t.integrationIndex(f, rightOrigin)
	t.fragments.Insert(index, f)
	t.index.Put(f.id, f)

	if f.IsRemoved() {
		f.removedAt = t.now()
		t.removedFragmentMap[f.id.Key()] = f
		return nil
	}

	_, before := t.position(f)
	if err := t.visible.Insert(before.Visible, f.content); err != nil {
		return fmt.Errorf("mirror insertion of %s: %w", f.id.ToTestString(), err)
	}
	return nil
}

// integrationIndex scans the fragments between the origin of f and the given
// right bound and returns the index f belongs at.
func (t *Text) integrationIndex(f *Fragment, rightOrigin *FragmentID) int {
	var left, right *Fragment
	if f.origin != nil {
		left = t.splitAfter(f.origin)
	}
	if rightOrigin != nil {
		right = t.splitBefore(rightOrigin)
	}

	index := 0
	if left != nil {
		index, _ = t.position(left)
		index++
	}

	conflicting := make(map[*Fragment]struct{})
	beforeOrigin := make(map[*Fragment]struct{})
	for c := t.fragments.CursorAt(index); c.Valid() && c.Item() != right; c.Next() {
		o := c.Item()
		beforeOrigin[o] = struct{}{}
		conflicting[o] = struct{}{}

		if equalIDs(f.origin, o.origin) {
			if o.id.createdAt.Compare(f.id.createdAt) < 0 {
				index = c.Index() + 1
				clear(conflicting)
			} else if equalIDs(f.rightOrigin, o.rightOrigin) {
				break
			}
			continue
		}

		if o.origin == nil {
			break
		}
		originFragment := t.findFragment(o.origin)
		if originFragment == nil {
			break
		}
		if _, ok := beforeOrigin[originFragment]; !ok {
			break
		}
		if _, ok := conflicting[originFragment]; !ok {
			index = c.Index() + 1
			clear(conflicting)
		}
	}

	return index
}

// Tombstone marks the characters covered by the given spans as removed by
// the given delete. Characters that are already collected are skipped, and
// marking a character twice with the same delete is a no-op.
func (t *Text) Tombstone(removedBy *time.Ticket, spans []*Span) (int, error) {
	removed := 0
	for _, span := range spans {
		offset := span.from
		for offset < span.to {
			id := NewFragmentID(span.createdAt, offset)
			f := t.findFragment(id)
			if f == nil {
				collected := t.findCollected(id)
				if collected == nil {
					return removed, fmt.Errorf("%s: %w", id.ToTestString(), ErrUnknownReference)
				}
				offset = collected.id.offset + collected.length
				continue
			}

			if within := offset - f.id.offset; within > 0 {
				f = t.splitFragment(f, within)
			}
			if within := span.to - f.id.offset; within < len(f.content) {
				t.splitFragment(f, within)
			}

			n, err := t.markRemoved(f, removedBy)
			if err != nil {
				return removed, err
			}
			removed += n
			offset = f.id.offset + len(f.content)
		}
	}
	return removed, nil
}

// markRemoved records the delete on f and returns the number of live bytes
// it hid.
func (t *Text) markRemoved(f *Fragment, removedBy *time.Ticket) (int, error) {
	wasLive := !f.IsRemoved()
	index, before := t.position(f)
	if !f.addRemovedBy(removedBy) {
		return 0, nil
	}
	t.fragments.Replace(index, f)

	if !wasLive {
		return 0, nil
	}

	f.removedAt = t.now()
	t.removedFragmentMap[f.id.Key()] = f
	if err := t.visible.Remove(before.Visible, before.Visible+len(f.content)); err != nil {
		return 0, fmt.Errorf("mirror removal of %s: %w", f.id.ToTestString(), err)
	}
	return len(f.content), nil
}

// splitAfter returns the fragment whose last character is the given one,
// splitting the fragment that contains it if needed.
func (t *Text) splitAfter(id *FragmentID) *Fragment {
	f := t.mustFindFragment(id)
	within := id.offset - f.id.offset
	_, size := utf8.DecodeRuneInString(f.content[within:])
	if within+size < len(f.content) {
		t.splitFragment(f, within+size)
	}
	return f
}

// splitBefore returns the fragment whose first character is the given one,
// splitting the fragment that contains it if needed.
func (t *Text) splitBefore(id *FragmentID) *Fragment {
	f := t.mustFindFragment(id)
	if within := id.offset - f.id.offset; within > 0 {
		return t.splitFragment(f, within)
	}
	return f
}

// splitFragment splits f at the given byte offset within it and returns the
// right piece. The right piece keeps the right origin of f, and its origin
// becomes the last character of the left piece.
func (t *Text) splitFragment(f *Fragment, within int) *Fragment {
	_, size := utf8.DecodeLastRuneInString(f.content[:within])
	right := f.DeepCopy()
	right.id = f.id.Split(within)
	right.content = f.content[within:]
	right.origin = f.id.Split(within - size)

	index, _ := t.position(f)
	f.content = f.content[:within]
	t.fragments.Replace(index, f)
	t.fragments.Insert(index+1, right)
	t.index.Put(right.id, right)
	if right.IsRemoved() {
		t.removedFragmentMap[right.id.Key()] = right
	}
	return right
}

// position returns the index of f and the summary of the fragments before it.
func (t *Text) position(f *Fragment) (int, FragmentSummary) {
	index, before, ok := t.fragments.Locate(f.leaf, func(item *Fragment) bool {
		return item == f
	})
	if !ok {
		panic(fmt.Sprintf("fragment %s is not in the tree", f.id.ToTestString()))
	}
	return index, before
}

func (t *Text) findFragment(id *FragmentID) *Fragment {
	_, f, ok := t.index.Floor(id)
	if !ok || !f.contains(id) {
		return nil
	}
	return f
}

func (t *Text) mustFindFragment(id *FragmentID) *Fragment {
	f := t.findFragment(id)
	if f == nil {
		panic(fmt.Sprintf("fragment of %s is not in the tree", id.ToTestString()))
	}
	return f
}

func (t *Text) findCollected(id *FragmentID) *CollectedSpan {
	_, span, ok := t.collected.Floor(id)
	if !ok || !span.contains(id) {
		return nil
	}
	return span
}

func (t *Text) checkOffset(offset int) error {
	if offset < 0 || offset > t.visible.Len() {
		return fmt.Errorf("offset %d: %w", offset, rope.ErrOutOfRange)
	}
	if !t.visible.IsCharBoundary(offset) || t.visible.SplitsLineBreak(offset) {
		return fmt.Errorf("offset %d: %w", offset, rope.ErrNotCharBoundary)
	}
	return nil
}

// StructureAsString returns a String containing the metadata of the fragments
// for debugging purpose.
func (t *Text) StructureAsString() string {
	var builder strings.Builder
	for _, f := range t.fragments.Items() {
		builder.WriteString(f.ToTestString())
	}
	return builder.String()
}

// Check verifies that the fragments, the index and the live text agree.
func (t *Text) Check() error {
	if err := t.fragments.Check(); err != nil {
		return err
	}
	if err := t.visible.Check(); err != nil {
		return err
	}

	var live strings.Builder
	tombstones := 0
	for i, f := range t.fragments.Items() {
		indexed, ok := t.index.Get(f.id)
		if !ok || indexed != f {
			return fmt.Errorf("fragment %d %s is not indexed: %w", i, f.id.ToTestString(), ErrCorrupted)
		}
		if f.IsRemoved() {
			tombstones++
			if t.removedFragmentMap[f.id.Key()] != f {
				return fmt.Errorf("tombstone %s is not tracked: %w", f.id.ToTestString(), ErrCorrupted)
			}
			continue
		}
		live.WriteString(f.content)
	}

	if t.index.Len() != t.fragments.Len() {
		return fmt.Errorf("index has %d entries, want %d: %w", t.index.Len(), t.fragments.Len(), ErrCorrupted)
	}
	if len(t.removedFragmentMap) != tombstones {
		return fmt.Errorf("%d tombstones tracked, want %d: %w", len(t.removedFragmentMap), tombstones, ErrCorrupted)
	}
	if live.String() != t.visible.String() {
		return fmt.Errorf("live text %q does not match fragments %q: %w", t.visible.String(), live.String(), ErrCorrupted)
	}
	return nil
}
