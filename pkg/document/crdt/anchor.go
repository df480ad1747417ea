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
	"unicode/utf8"

	"github.com/yorkie-team/cotext/pkg/sumtree"
)

// Bias decides which neighbour an anchor sticks to when text is inserted
// exactly at its position.
type Bias int

const (
	// BiasLeft sticks to the character before the position.
	BiasLeft Bias = iota

	// BiasRight sticks to the character after the position.
	BiasRight
)

// String returns the name of the bias.
func (b Bias) String() string {
	if b == BiasRight {
		return "right"
	}
	return "left"
}

// Side is the side of its character an anchor is on.
type Side int

const (
	// After is the position right after the character.
	After Side = iota

	// Before is the position right before the character.
	Before
)

// Anchor is a position in the text that survives concurrent edits. It names
// a character and a side of it rather than an offset. An anchor without a
// character is one of the document boundaries.
type Anchor struct {
	id   *FragmentID
	side Side
}

var (
	// MinAnchor is the start of the document.
	MinAnchor = &Anchor{side: After}

	// MaxAnchor is the end of the document.
	MaxAnchor = &Anchor{side: Before}
)

// NewAnchor creates a new instance of Anchor.
func NewAnchor(id *FragmentID, side Side) *Anchor {
	if id == nil {
		if side == After {
			return MinAnchor
		}
		return MaxAnchor
	}
	return &Anchor{id: id, side: side}
}

// ID returns the character of the anchor, or nil for a boundary.
func (a *Anchor) ID() *FragmentID {
	return a.id
}

// Side returns the side of the character the anchor is on.
func (a *Anchor) Side() Side {
	return a.side
}

// Equal returns whether the two anchors name the same position.
func (a *Anchor) Equal(other *Anchor) bool {
	return a.side == other.side && equalIDs(a.id, other.id)
}

// ToTestString returns a string containing the metadata of the anchor for
// debugging purpose.
func (a *Anchor) ToTestString() string {
	if a.id == nil {
		if a.side == After {
			return "min"
		}
		return "max"
	}
	if a.side == After {
		return a.id.ToTestString() + ">"
	}
	return "<" + a.id.ToTestString()
}

// CreateAnchor creates an anchor at the given offset of the live text.
func (t *Text) CreateAnchor(offset int, bias Bias) (*Anchor, error) {
	if err := t.checkOffset(offset); err != nil {
		return nil, err
	}

	if bias == BiasLeft {
		if offset == 0 {
			return MinAnchor, nil
		}
		origin, _, err := t.InsertOrigins(offset)
		if err != nil {
			return nil, err
		}
		return NewAnchor(origin, After), nil
	}

	if offset == t.Len() {
		return MaxAnchor, nil
	}
	c := t.fragments.Seek(visibleDim, offset, sumtree.Right)
	return NewAnchor(c.Item().id.Split(offset-c.Start().Visible), Before), nil
}

// ResolveAnchor returns the current offset of the anchor in the live text.
// When the character was deleted the anchor resolves to where it used to be,
// and when it was collected the anchor follows the neighbour recorded at
// collection time.
func (t *Text) ResolveAnchor(anchor *Anchor) (int, error) {
	id, side := anchor.id, anchor.side
	for hops := 0; ; hops++ {
		if id == nil {
			if side == After {
				return 0, nil
			}
			return t.Len(), nil
		}

		if f := t.findFragment(id); f != nil {
			_, before := t.position(f)
			if f.IsRemoved() {
				return min(before.Visible, t.Len()), nil
			}

			within := id.offset - f.id.offset
			pos := before.Visible + within
			if side == After {
				_, size := utf8.DecodeRuneInString(f.content[within:])
				pos += size
			}
			return min(pos, t.Len()), nil
		}

		collected := t.findCollected(id)
		if collected == nil || hops > t.collected.Len() {
			return 0, fmt.Errorf("anchor %s: %w", anchor.ToTestString(), ErrUnknownReference)
		}
		id, side = collected.left, After
	}
}
