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

// Package sumtree provides a B+ tree whose nodes cache an aggregate summary
// of their subtree. It is an ordered sequence container: items are addressed
// by their index or by any dimension that can be derived from the summary,
// such as a byte offset or a line number, in logarithmic time.
//
// Nodes live in an arena and refer to each other by NodeID, so the tree has
// no pointer cycles. Leaves are chained to allow linear iteration.
package sumtree

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/yorkie-team/cotext/pkg/errors"
)

// DefaultMaxItems is the default fan-out of the tree.
const DefaultMaxItems = 16

var (
	// ErrOutOfRange is returned when a position is outside the tree.
	ErrOutOfRange = errors.OutOfRange("position out of range").WithCode("ErrOutOfRange")

	// ErrNotBoundary is returned when a position falls inside an item.
	ErrNotBoundary = errors.InvalidArgument("position is not an item boundary").WithCode("ErrNotBoundary")

	// ErrStaleCursor is returned by a cursor used after the tree was mutated.
	ErrStaleCursor = errors.Aborted("cursor is stale").WithCode("ErrStaleCursor")
)

// Summary is the capability a summary type provides to the tree. Zero returns
// the identity and Add combines the summary of a run with the summary of the
// run that follows it.
type Summary[S any] interface {
	Zero() S
	Add(other S) S
}

// Item is an element of the tree.
type Item[S any] interface {
	Summary() S
}

// Dimension projects a summary onto a single measure, e.g. a byte count.
type Dimension[S any] func(summary S) int

// Bias decides which item a seek lands on when the target position is the
// boundary between two items.
type Bias int

const (
	// Left lands on the item that ends at the position.
	Left Bias = iota

	// Right lands on the item that starts at the position.
	Right
)

// NodeID is the index of a node in the arena.
type NodeID int32

// NilNode is the NodeID of no node.
const NilNode NodeID = -1

// Config configures a tree.
type Config[I any] struct {
	// MaxItems is the maximum number of items in a leaf and children in an
	// internal node. Non-root nodes keep at least MaxItems/2 entries.
	MaxItems int

	// OnPlace is called whenever an item is stored into a leaf, including
	// when rebalancing moves it to another leaf.
	OnPlace func(item I, leaf NodeID)
}

type node[I Item[S], S Summary[S]] struct {
	leaf     bool
	parent   NodeID
	items    []I
	children []NodeID
	summary  S
	count    int

	// leaf chain
	prev NodeID
	next NodeID
}

// Tree is a summarized B+ tree. It is not safe for concurrent mutation; readers
// may run concurrently with each other only while no mutation is in progress.
type Tree[I Item[S], S Summary[S]] struct {
	nodes    []*node[I, S]
	free     []NodeID
	root     NodeID
	maxItems int
	minItems int
	onPlace  func(item I, leaf NodeID)
	version  uint64
}

// New creates an empty tree.
func New[I Item[S], S Summary[S]](config Config[I]) *Tree[I, S] {
	maxItems := config.MaxItems
	if maxItems == 0 {
		maxItems = DefaultMaxItems
	} else if maxItems < 4 {
		maxItems = 4
	}

	t := &Tree[I, S]{
		maxItems: maxItems,
		minItems: maxItems / 2,
		onPlace:  config.OnPlace,
	}
	t.root = t.alloc(true)
	return t
}

// Len returns the number of items.
func (t *Tree[I, S]) Len() int {
	return t.nodes[t.root].count
}

// Summary returns the summary of all items.
func (t *Tree[I, S]) Summary() S {
	return t.nodes[t.root].summary
}

// Version returns a counter that changes on every mutation.
func (t *Tree[I, S]) Version() uint64 {
	return t.version
}

// Get returns the item at the given index. It panics if index is out of range.
func (t *Tree[I, S]) Get(index int) I {
	t.checkIndex(index, t.Len()-1)
	leaf, pos := t.findLeaf(index)
	return t.nodes[leaf].items[pos]
}

// Items returns all items in order.
func (t *Tree[I, S]) Items() []I {
	items := make([]I, 0, t.Len())
	for id := t.firstLeaf(); id != NilNode; id = t.nodes[id].next {
		items = append(items, t.nodes[id].items...)
	}
	return items
}

// Insert inserts items before the item at index. index may equal Len to append.
func (t *Tree[I, S]) Insert(index int, items ...I) {
	t.checkIndex(index, t.Len())
	for i, item := range items {
		t.insertOne(index+i, item)
	}
	t.version++
}

// Remove removes the items in [from, to).
func (t *Tree[I, S]) Remove(from, to int) {
	t.checkIndex(from, t.Len())
	t.checkIndex(to, t.Len())
	if to < from {
		panic(fmt.Sprintf("sumtree: invalid range [%d, %d)", from, to))
	}

	for i := from; i < to; i++ {
		t.removeOne(from)
	}
	t.version++
}

// Replace replaces the item at index and refreshes the summaries above it. It
// is also the way to publish a change to an item that was mutated in place.
func (t *Tree[I, S]) Replace(index int, item I) {
	t.checkIndex(index, t.Len()-1)
	leaf, pos := t.findLeaf(index)
	t.nodes[leaf].items[pos] = item
	t.placed(item, leaf)
	for id := leaf; id != NilNode; id = t.nodes[id].parent {
		t.recompute(id)
	}
	t.version++
}

// InsertAt inserts items at the given position of dim. The position must be
// the boundary between two items; items of zero width at the position stay
// before the inserted ones.
func (t *Tree[I, S]) InsertAt(dim Dimension[S], pos int, items ...I) error {
	c := t.Seek(dim, pos, Right)
	if !c.Valid() {
		if dim(t.Summary()) != pos {
			return fmt.Errorf("insert at %d: %w", pos, ErrOutOfRange)
		}
		t.Insert(t.Len(), items...)
		return nil
	}

	if dim(c.Start()) != pos {
		return fmt.Errorf("insert at %d: %w", pos, ErrNotBoundary)
	}
	t.Insert(c.Index(), items...)
	return nil
}

// RemoveRange removes the items covering [from, to) of dim. Both ends must be
// item boundaries.
func (t *Tree[I, S]) RemoveRange(dim Dimension[S], from, to int) error {
	if from < 0 || to < from || to > dim(t.Summary()) {
		return fmt.Errorf("remove range [%d, %d): %w", from, to, ErrOutOfRange)
	}
	if from == to {
		return nil
	}

	c := t.Seek(dim, from, Right)
	if dim(c.Start()) != from {
		return fmt.Errorf("remove range from %d: %w", from, ErrNotBoundary)
	}

	start, count := c.Index(), 0
	for c.Valid() && dim(c.End()) <= to {
		count++
		c.Next()
	}
	if c.Valid() && dim(c.Start()) < to {
		return fmt.Errorf("remove range to %d: %w", to, ErrNotBoundary)
	}

	t.Remove(start, start+count)
	return nil
}

// Seek returns a cursor at the item that contains pos of dim. When pos is the
// boundary between two items, bias chooses between them. If no item contains
// pos the cursor is positioned at the end.
func (t *Tree[I, S]) Seek(dim Dimension[S], pos int, bias Bias) *Cursor[I, S] {
	if bias == Left {
		return t.SeekFunc(func(end S) bool { return dim(end) >= pos })
	}
	return t.SeekFunc(func(end S) bool { return dim(end) > pos })
}

// SeekFunc returns a cursor at the first item for which found reports true
// when given the summary of everything up to and including that item. found
// must be monotone: once true it stays true for later items.
func (t *Tree[I, S]) SeekFunc(found func(end S) bool) *Cursor[I, S] {
	acc, index, id := t.zero(), 0, t.root

	for {
		n := t.nodes[id]
		if n.leaf {
			for i, item := range n.items {
				end := acc.Add(item.Summary())
				if found(end) {
					return t.newCursor(id, i, index+i, acc)
				}
				acc = end
			}
			return t.endCursor()
		}

		next := NilNode
		for _, child := range n.children {
			cn := t.nodes[child]
			end := acc.Add(cn.summary)
			if found(end) {
				next = child
				break
			}
			acc = end
			index += cn.count
		}
		if next == NilNode {
			return t.endCursor()
		}
		id = next
	}
}

// CursorAt returns a cursor at the item with the given index, or at the end
// if index equals Len.
func (t *Tree[I, S]) CursorAt(index int) *Cursor[I, S] {
	t.checkIndex(index, t.Len())
	if index == t.Len() {
		return t.endCursor()
	}

	acc, id, remaining := t.zero(), t.root, index
	for {
		n := t.nodes[id]
		if n.leaf {
			for _, item := range n.items[:remaining] {
				acc = acc.Add(item.Summary())
			}
			return t.newCursor(id, remaining, index, acc)
		}

		for _, child := range n.children {
			cn := t.nodes[child]
			if remaining < cn.count {
				id = child
				break
			}
			acc = acc.Add(cn.summary)
			remaining -= cn.count
		}
	}
}

// Locate finds the item of the given leaf for which match reports true, and
// returns its index and the summary of all items before it.
func (t *Tree[I, S]) Locate(leaf NodeID, match func(item I) bool) (int, S, bool) {
	if leaf < 0 || int(leaf) >= len(t.nodes) || t.nodes[leaf] == nil || !t.nodes[leaf].leaf {
		return -1, t.zero(), false
	}

	acc, pos := t.zero(), -1
	for i, item := range t.nodes[leaf].items {
		if match(item) {
			pos = i
			break
		}
		acc = acc.Add(item.Summary())
	}
	if pos < 0 {
		return -1, t.zero(), false
	}

	index := pos
	for id := leaf; id != t.root; {
		parent := t.nodes[id].parent
		before := t.zero()
		for _, child := range t.nodes[parent].children {
			if child == id {
				break
			}
			before = before.Add(t.nodes[child].summary)
			index += t.nodes[child].count
		}
		acc = before.Add(acc)
		id = parent
	}

	return index, acc, true
}

// Check verifies the structural invariants of the tree: cached summaries and
// counts, parent links, node size bands, uniform leaf depth and the leaf chain.
func (t *Tree[I, S]) Check() error {
	leafDepth := -1
	var leaves []NodeID

	var visit func(id NodeID, depth int) error
	visit = func(id NodeID, depth int) error {
		n := t.nodes[id]
		size := t.size(n)
		if id != t.root && (size < t.minItems || size > t.maxItems) {
			return fmt.Errorf("node %d has %d entries, want [%d, %d]", id, size, t.minItems, t.maxItems)
		}

		summary, count := t.zero(), 0
		if n.leaf {
			if leafDepth == -1 {
				leafDepth = depth
			} else if leafDepth != depth {
				return fmt.Errorf("leaf %d at depth %d, want %d", id, depth, leafDepth)
			}
			leaves = append(leaves, id)
			for _, item := range n.items {
				summary = summary.Add(item.Summary())
			}
			count = len(n.items)
		} else {
			for _, child := range n.children {
				if t.nodes[child].parent != id {
					return fmt.Errorf("node %d has parent %d, want %d", child, t.nodes[child].parent, id)
				}
				if err := visit(child, depth+1); err != nil {
					return err
				}
				summary = summary.Add(t.nodes[child].summary)
				count += t.nodes[child].count
			}
		}

		if count != n.count {
			return fmt.Errorf("node %d has count %d, want %d", id, n.count, count)
		}
		if !reflect.DeepEqual(summary, n.summary) {
			return fmt.Errorf("node %d has summary %+v, want %+v", id, n.summary, summary)
		}
		return nil
	}

	if err := visit(t.root, 0); err != nil {
		return err
	}

	prev := NilNode
	for i, id := range leaves {
		if t.nodes[id].prev != prev {
			return fmt.Errorf("leaf %d has prev %d, want %d", id, t.nodes[id].prev, prev)
		}
		if i == len(leaves)-1 && t.nodes[id].next != NilNode {
			return fmt.Errorf("last leaf %d has next %d", id, t.nodes[id].next)
		}
		prev = id
	}

	return nil
}

func (t *Tree[I, S]) zero() S {
	var s S
	return s.Zero()
}

func (t *Tree[I, S]) alloc(leaf bool) NodeID {
	n := &node[I, S]{
		leaf:    leaf,
		parent:  NilNode,
		prev:    NilNode,
		next:    NilNode,
		summary: t.zero(),
	}

	if last := len(t.free) - 1; last >= 0 {
		id := t.free[last]
		t.free = t.free[:last]
		t.nodes[id] = n
		return id
	}

	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

func (t *Tree[I, S]) release(id NodeID) {
	t.nodes[id] = nil
	t.free = append(t.free, id)
}

func (t *Tree[I, S]) placed(item I, leaf NodeID) {
	if t.onPlace != nil {
		t.onPlace(item, leaf)
	}
}

func (t *Tree[I, S]) checkIndex(index, max int) {
	if index < 0 || index > max {
		panic(fmt.Sprintf("sumtree: index %d out of range [0, %d]", index, max))
	}
}

func (t *Tree[I, S]) size(n *node[I, S]) int {
	if n.leaf {
		return len(n.items)
	}
	return len(n.children)
}

func (t *Tree[I, S]) recompute(id NodeID) {
	n := t.nodes[id]
	summary, count := t.zero(), 0

	if n.leaf {
		for _, item := range n.items {
			summary = summary.Add(item.Summary())
		}
		count = len(n.items)
	} else {
		for _, child := range n.children {
			cn := t.nodes[child]
			summary = summary.Add(cn.summary)
			count += cn.count
		}
	}

	n.summary = summary
	n.count = count
}

func (t *Tree[I, S]) childIndex(parent, child NodeID) int {
	return slices.Index(t.nodes[parent].children, child)
}

func (t *Tree[I, S]) firstLeaf() NodeID {
	id := t.root
	for !t.nodes[id].leaf {
		id = t.nodes[id].children[0]
	}
	return id
}

// findLeaf returns the leaf holding the item at index and the position of
// the item in that leaf. For index == Len it returns the last leaf and its size.
func (t *Tree[I, S]) findLeaf(index int) (NodeID, int) {
	id := t.root
	for {
		n := t.nodes[id]
		if n.leaf {
			return id, index
		}

		for i, child := range n.children {
			cn := t.nodes[child]
			if index < cn.count || i == len(n.children)-1 {
				id = child
				break
			}
			index -= cn.count
		}
	}
}

func (t *Tree[I, S]) insertOne(index int, item I) {
	leaf, pos := t.findLeaf(index)
	n := t.nodes[leaf]
	n.items = slices.Insert(n.items, pos, item)
	t.placed(item, leaf)

	for id := leaf; id != NilNode; id = t.nodes[id].parent {
		t.recompute(id)
		if t.size(t.nodes[id]) > t.maxItems {
			t.split(id)
		}
	}
}

// split moves the upper half of an overfull node into a new right sibling.
func (t *Tree[I, S]) split(id NodeID) {
	n := t.nodes[id]
	siblingID := t.alloc(n.leaf)
	sibling := t.nodes[siblingID]
	half := t.size(n) / 2

	if n.leaf {
		sibling.items = slices.Clone(n.items[half:])
		clear(n.items[half:])
		n.items = n.items[:half]
		for _, item := range sibling.items {
			t.placed(item, siblingID)
		}

		sibling.next = n.next
		if n.next != NilNode {
			t.nodes[n.next].prev = siblingID
		}
		n.next = siblingID
		sibling.prev = id
	} else {
		sibling.children = slices.Clone(n.children[half:])
		n.children = n.children[:half]
		for _, child := range sibling.children {
			t.nodes[child].parent = siblingID
		}
	}

	t.recompute(id)
	t.recompute(siblingID)

	if n.parent == NilNode {
		rootID := t.alloc(false)
		t.nodes[rootID].children = []NodeID{id, siblingID}
		n.parent = rootID
		sibling.parent = rootID
		t.root = rootID
		return
	}

	parent := t.nodes[n.parent]
	parent.children = slices.Insert(parent.children, t.childIndex(n.parent, id)+1, siblingID)
	sibling.parent = n.parent
}

func (t *Tree[I, S]) removeOne(index int) {
	leaf, pos := t.findLeaf(index)
	l := t.nodes[leaf]
	l.items = slices.Delete(l.items, pos, pos+1)

	id := leaf
	for {
		t.recompute(id)
		n := t.nodes[id]
		if id == t.root {
			if !n.leaf && len(n.children) == 1 {
				child := n.children[0]
				t.nodes[child].parent = NilNode
				t.root = child
				t.release(id)
			}
			return
		}

		parent := n.parent
		if t.size(n) < t.minItems {
			t.rebalance(id)
		}
		id = parent
	}
}

// rebalance fixes an underfull node by borrowing an entry from a sibling or
// by merging with it.
func (t *Tree[I, S]) rebalance(id NodeID) {
	n := t.nodes[id]
	parent := t.nodes[n.parent]
	i := t.childIndex(n.parent, id)

	if i > 0 {
		leftID := parent.children[i-1]
		if t.size(t.nodes[leftID]) > t.minItems {
			t.borrowFromLeft(leftID, id)
		} else {
			t.merge(leftID, id)
		}
		return
	}

	rightID := parent.children[i+1]
	if t.size(t.nodes[rightID]) > t.minItems {
		t.borrowFromRight(id, rightID)
	} else {
		t.merge(id, rightID)
	}
}

func (t *Tree[I, S]) borrowFromLeft(leftID, id NodeID) {
	left, n := t.nodes[leftID], t.nodes[id]

	if n.leaf {
		last := len(left.items) - 1
		item := left.items[last]
		clear(left.items[last:])
		left.items = left.items[:last]
		n.items = slices.Insert(n.items, 0, item)
		t.placed(item, id)
	} else {
		last := len(left.children) - 1
		child := left.children[last]
		left.children = left.children[:last]
		n.children = slices.Insert(n.children, 0, child)
		t.nodes[child].parent = id
	}

	t.recompute(leftID)
	t.recompute(id)
}

func (t *Tree[I, S]) borrowFromRight(id, rightID NodeID) {
	n, right := t.nodes[id], t.nodes[rightID]

	if n.leaf {
		item := right.items[0]
		right.items = slices.Delete(right.items, 0, 1)
		n.items = append(n.items, item)
		t.placed(item, id)
	} else {
		child := right.children[0]
		right.children = slices.Delete(right.children, 0, 1)
		n.children = append(n.children, child)
		t.nodes[child].parent = id
	}

	t.recompute(rightID)
	t.recompute(id)
}

// merge moves every entry of the right node into the left one and releases
// the right node.
func (t *Tree[I, S]) merge(leftID, rightID NodeID) {
	left, right := t.nodes[leftID], t.nodes[rightID]

	if left.leaf {
		for _, item := range right.items {
			left.items = append(left.items, item)
			t.placed(item, leftID)
		}
		left.next = right.next
		if right.next != NilNode {
			t.nodes[right.next].prev = leftID
		}
	} else {
		for _, child := range right.children {
			left.children = append(left.children, child)
			t.nodes[child].parent = leftID
		}
	}

	parent := t.nodes[right.parent]
	i := t.childIndex(right.parent, rightID)
	parent.children = slices.Delete(parent.children, i, i+1)

	t.recompute(leftID)
	t.release(rightID)
}
