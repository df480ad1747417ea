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

package crdt

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	gotime "time"
	"unicode/utf8"

	"github.com/yorkie-team/cotext/pkg/document/time"
	"github.com/yorkie-team/cotext/pkg/sumtree"
)

// FragmentID identifies a character of the text: the ticket of the insertion
// that created it and the byte offset of the character within that insertion.
// The ID of a fragment is the ID of its first character.
type FragmentID struct {
	createdAt *time.Ticket
	offset    int

	// cachedKey is the cache of the string representation of the ID.
	cachedKey string
}

// NewFragmentID creates a new instance of FragmentID.
func NewFragmentID(createdAt *time.Ticket, offset int) *FragmentID {
	return &FragmentID{
		createdAt: createdAt,
		offset:    offset,
	}
}

// Compare returns an integer comparing two ID. The result will be 0 if
// id==other, -1 if id < other, and +1 if id > other.
func (id *FragmentID) Compare(other *FragmentID) int {
	if compare := id.createdAt.Compare(other.createdAt); compare != 0 {
		return compare
	}

	if id.offset > other.offset {
		return 1
	} else if id.offset < other.offset {
		return -1
	}
	return 0
}

// Equal returns whether given ID equals to this ID or not.
func (id *FragmentID) Equal(other *FragmentID) bool {
	return id.Compare(other) == 0
}

// CreatedAt returns the ticket of the insertion.
func (id *FragmentID) CreatedAt() *time.Ticket {
	return id.createdAt
}

// Offset returns the offset of the character within its insertion.
func (id *FragmentID) Offset() int {
	return id.offset
}

// Split creates a new ID with an offset from this ID.
func (id *FragmentID) Split(offset int) *FragmentID {
	return NewFragmentID(id.createdAt, id.offset+offset)
}

// Key returns a string representation of the ID.
func (id *FragmentID) Key() string {
	if id.cachedKey == "" {
		id.cachedKey = id.createdAt.Key() + ":" + strconv.Itoa(id.offset)
	}
	return id.cachedKey
}

// ToTestString returns a string containing the metadata of the ID for
// debugging purpose.
func (id *FragmentID) ToTestString() string {
	return fmt.Sprintf("%s:%d", id.createdAt.ToTestString(), id.offset)
}

func (id *FragmentID) hasSameCreatedAt(other *FragmentID) bool {
	return id.createdAt.Equal(other.createdAt)
}

// equalIDs compares two optional IDs; nil stands for a document boundary.
func equalIDs(a, b *FragmentID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

// FragmentSummary is the summary of a run of fragments.
type FragmentSummary struct {
	// Visible is the number of bytes of live fragments.
	Visible int

	// Hidden is the number of bytes of tombstones.
	Hidden int

	Fragments  int
	Tombstones int
}

// Zero returns the summary of no fragment.
func (s FragmentSummary) Zero() FragmentSummary {
	return FragmentSummary{}
}

// Add combines two summaries.
func (s FragmentSummary) Add(other FragmentSummary) FragmentSummary {
	return FragmentSummary{
		Visible:    s.Visible + other.Visible,
		Hidden:     s.Hidden + other.Hidden,
		Fragments:  s.Fragments + other.Fragments,
		Tombstones: s.Tombstones + other.Tombstones,
	}
}

func visibleDim(s FragmentSummary) int { return s.Visible }

// Fragment is a contiguous run of characters of one insertion. It is live
// until the first delete that covers it, and a tombstone afterwards.
//
// origin and rightOrigin are the characters that were immediately left and
// right of the run when it was inserted, including tombstones. They are nil
// at the document boundaries.
type Fragment struct {
	id          *FragmentID
	content     string
	origin      *FragmentID
	rightOrigin *FragmentID

	// removedBy holds the tickets of the deletes that cover this fragment in
	// ascending order. A nil slice means the fragment is live.
	removedBy []*time.Ticket

	// removedAt is the local wall clock time at which the fragment became a
	// tombstone. It is not replicated.
	removedAt gotime.Time

	leaf sumtree.NodeID
}

// NewFragment creates a new instance of Fragment.
func NewFragment(
	id *FragmentID,
	content string,
	origin *FragmentID,
	rightOrigin *FragmentID,
	removedBy []*time.Ticket,
) *Fragment {
	f := &Fragment{
		id:          id,
		content:     content,
		origin:      origin,
		rightOrigin: rightOrigin,
		leaf:        sumtree.NilNode,
	}
	for _, ticket := range removedBy {
		f.addRemovedBy(ticket)
	}
	return f
}

// ID returns the ID of the first character of this fragment.
func (f *Fragment) ID() *FragmentID {
	return f.id
}

// Content returns the text of this fragment.
func (f *Fragment) Content() string {
	return f.content
}

// Origin returns the character left of this fragment at insertion time.
func (f *Fragment) Origin() *FragmentID {
	return f.origin
}

// RightOrigin returns the character right of this fragment at insertion time.
func (f *Fragment) RightOrigin() *FragmentID {
	return f.rightOrigin
}

// RemovedBy returns the tickets of the deletes that cover this fragment.
func (f *Fragment) RemovedBy() []*time.Ticket {
	return f.removedBy
}

// IsRemoved returns whether this fragment is a tombstone.
func (f *Fragment) IsRemoved() bool {
	return f.removedBy != nil
}

// Len returns the length of the content in bytes.
func (f *Fragment) Len() int {
	return len(f.content)
}

// Summary returns the summary of this fragment.
func (f *Fragment) Summary() FragmentSummary {
	if f.IsRemoved() {
		return FragmentSummary{Hidden: len(f.content), Fragments: 1, Tombstones: 1}
	}
	return FragmentSummary{Visible: len(f.content), Fragments: 1}
}

// String returns the content of this fragment.
func (f *Fragment) String() string {
	return f.content
}

// ToTestString returns a string containing the metadata of the fragment for
// debugging purpose.
func (f *Fragment) ToTestString() string {
	if f.IsRemoved() {
		return fmt.Sprintf("{%s %q}", f.id.ToTestString(), f.content)
	}
	return fmt.Sprintf("[%s %q]", f.id.ToTestString(), f.content)
}

// DeepCopy returns a copy of this fragment without its position in a tree.
func (f *Fragment) DeepCopy() *Fragment {
	return &Fragment{
		id:          f.id,
		content:     f.content,
		origin:      f.origin,
		rightOrigin: f.rightOrigin,
		removedBy:   slices.Clone(f.removedBy),
		removedAt:   f.removedAt,
		leaf:        sumtree.NilNode,
	}
}

// contains returns whether the character of the given ID is in this fragment.
func (f *Fragment) contains(id *FragmentID) bool {
	return f.id.hasSameCreatedAt(id) &&
		f.id.offset <= id.offset &&
		id.offset < f.id.offset+len(f.content)
}

// lastCharID returns the ID of the last character of this fragment.
func (f *Fragment) lastCharID() *FragmentID {
	_, size := utf8.DecodeLastRuneInString(f.content)
	return f.id.Split(len(f.content) - size)
}

// addRemovedBy records the given delete and reports whether it was new.
func (f *Fragment) addRemovedBy(ticket *time.Ticket) bool {
	i, found := slices.BinarySearchFunc(f.removedBy, ticket, func(a, b *time.Ticket) int {
		return a.Compare(b)
	})
	if found {
		return false
	}
	f.removedBy = slices.Insert(f.removedBy, i, ticket)
	return true
}

// removedBefore returns whether any delete covering this fragment is included
// in the given version vector.
func (f *Fragment) removedBefore(vector time.VersionVector) bool {
	for _, ticket := range f.removedBy {
		if vector.Includes(ticket) {
			return true
		}
	}
	return false
}

// Span is a byte range [from, to) of the characters of one insertion.
type Span struct {
	createdAt *time.Ticket
	from      int
	to        int
}

// NewSpan creates a new instance of Span.
func NewSpan(createdAt *time.Ticket, from, to int) *Span {
	return &Span{createdAt: createdAt, from: from, to: to}
}

// CreatedAt returns the ticket of the insertion.
func (s *Span) CreatedAt() *time.Ticket {
	return s.createdAt
}

// From returns the offset of the first character.
func (s *Span) From() int {
	return s.from
}

// To returns the offset past the last character.
func (s *Span) To() int {
	return s.to
}

// StartID returns the ID of the first character of the span.
func (s *Span) StartID() *FragmentID {
	return NewFragmentID(s.createdAt, s.from)
}

// ToTestString returns a string containing the metadata of the span for
// debugging purpose.
func (s *Span) ToTestString() string {
	return fmt.Sprintf("%s:%d-%d", s.createdAt.ToTestString(), s.from, s.to)
}

// CollectedSpan records a tombstone that compaction removed physically.
// left and right are the characters that surrounded it at that moment, so
// positions that referred into the span can be forwarded. removedBy keeps
// the deletes that covered it: only operations that saw one of them may be
// forwarded.
type CollectedSpan struct {
	id        *FragmentID
	length    int
	left      *FragmentID
	right     *FragmentID
	removedBy []*time.Ticket
}

// NewCollectedSpan creates a new instance of CollectedSpan.
func NewCollectedSpan(
	id *FragmentID,
	length int,
	left, right *FragmentID,
	removedBy []*time.Ticket,
) *CollectedSpan {
	return &CollectedSpan{
		id:        id,
		length:    length,
		left:      left,
		right:     right,
		removedBy: removedBy,
	}
}

// ID returns the ID of the first collected character.
func (c *CollectedSpan) ID() *FragmentID {
	return c.id
}

// Len returns the number of collected bytes.
func (c *CollectedSpan) Len() int {
	return c.length
}

// Left returns the character that preceded the span when it was collected.
func (c *CollectedSpan) Left() *FragmentID {
	return c.left
}

// Right returns the character that followed the span when it was collected.
func (c *CollectedSpan) Right() *FragmentID {
	return c.right
}

// RemovedBy returns the tickets of the deletes that covered the span.
func (c *CollectedSpan) RemovedBy() []*time.Ticket {
	return c.removedBy
}

// seenBy returns whether the given version includes any delete that covered
// the span.
func (c *CollectedSpan) seenBy(version time.VersionVector) bool {
	for _, ticket := range c.removedBy {
		if version.Includes(ticket) {
			return true
		}
	}
	return false
}

func (c *CollectedSpan) contains(id *FragmentID) bool {
	return c.id.hasSameCreatedAt(id) &&
		c.id.offset <= id.offset &&
		id.offset < c.id.offset+c.length
}

func (c *CollectedSpan) String() string {
	var builder strings.Builder
	builder.WriteString(c.id.ToTestString())
	builder.WriteString("+")
	builder.WriteString(strconv.Itoa(c.length))
	return builder.String()
}
