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

package sumtree

// Cursor is a position in a tree. It is bound to the version of the tree it
// was created at: after any mutation of the tree the cursor becomes invalid
// and Err returns ErrStaleCursor.
type Cursor[I Item[S], S Summary[S]] struct {
	tree    *Tree[I, S]
	version uint64
	leaf    NodeID
	offset  int
	index   int
	start   S
}

func (t *Tree[I, S]) newCursor(leaf NodeID, offset, index int, start S) *Cursor[I, S] {
	return &Cursor[I, S]{
		tree:    t,
		version: t.version,
		leaf:    leaf,
		offset:  offset,
		index:   index,
		start:   start,
	}
}

func (t *Tree[I, S]) endCursor() *Cursor[I, S] {
	return t.newCursor(NilNode, 0, t.Len(), t.Summary())
}

// Err returns ErrStaleCursor if the tree was mutated after the cursor was created.
func (c *Cursor[I, S]) Err() error {
	if c.version != c.tree.version {
		return ErrStaleCursor
	}
	return nil
}

// Valid returns whether the cursor points at an item.
func (c *Cursor[I, S]) Valid() bool {
	return c.Err() == nil && c.leaf != NilNode
}

// Item returns the item under the cursor. It returns the zero value if the
// cursor is not valid.
func (c *Cursor[I, S]) Item() I {
	if !c.Valid() {
		var zero I
		return zero
	}
	return c.tree.nodes[c.leaf].items[c.offset]
}

// Index returns the index of the item under the cursor, or the length of the
// tree if the cursor is at the end.
func (c *Cursor[I, S]) Index() int {
	return c.index
}

// Leaf returns the leaf that holds the item under the cursor.
func (c *Cursor[I, S]) Leaf() NodeID {
	return c.leaf
}

// Start returns the summary of all items before the cursor.
func (c *Cursor[I, S]) Start() S {
	return c.start
}

// End returns the summary of all items up to and including the item under
// the cursor.
func (c *Cursor[I, S]) End() S {
	if !c.Valid() {
		return c.start
	}
	return c.start.Add(c.Item().Summary())
}

// Next moves the cursor to the next item and reports whether it is valid.
func (c *Cursor[I, S]) Next() bool {
	if !c.Valid() {
		return false
	}

	c.start = c.End()
	c.index++
	c.offset++
	for c.leaf != NilNode && c.offset >= len(c.tree.nodes[c.leaf].items) {
		c.leaf = c.tree.nodes[c.leaf].next
		c.offset = 0
	}

	return c.leaf != NilNode
}

// Prev moves the cursor to the previous item and reports whether it is valid.
// Summaries have no inverse, so Prev seeks from the root.
func (c *Cursor[I, S]) Prev() bool {
	if c.Err() != nil || c.index == 0 {
		return false
	}

	*c = *c.tree.CursorAt(c.index - 1)
	return true
}
