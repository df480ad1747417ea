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
	"strings"
	"unicode/utf8"

	"github.com/yorkie-team/cotext/pkg/document/time"
	"github.com/yorkie-team/cotext/pkg/errors"
)

// ErrInvalidSnapshot is returned when a snapshot is inconsistent.
var ErrInvalidSnapshot = errors.DataLoss("invalid snapshot").WithCode("ErrInvalidSnapshot")

// Snapshot is the replicated state of a text: every fragment in document
// order including tombstones, the collected ranges and the version it
// reflects.
type Snapshot struct {
	Version   time.VersionVector
	Fragments []*Fragment
	Collected []*CollectedSpan
}

// Snapshot returns a copy of the state of this text at the given version.
func (t *Text) Snapshot(version time.VersionVector) *Snapshot {
	items := t.fragments.Items()
	fragments := make([]*Fragment, len(items))
	for i, f := range items {
		fragments[i] = f.DeepCopy()
	}

	return &Snapshot{
		Version:   version.DeepCopy(),
		Fragments: fragments,
		Collected: t.Collected(),
	}
}

// NewTextFromSnapshot rebuilds a text from a snapshot. Tombstones restored
// from a snapshot are stamped with the current time.
func NewTextFromSnapshot(snapshot *Snapshot, maxLeafBytes int) (*Text, error) {
	t := NewText(maxLeafBytes)
	if snapshot == nil {
		return nil, fmt.Errorf("nil snapshot: %w", ErrInvalidSnapshot)
	}

	var live strings.Builder
	fragments := make([]*Fragment, 0, len(snapshot.Fragments))
	for i, f := range snapshot.Fragments {
		if err := validateSnapshotFragment(f, snapshot.Version); err != nil {
			return nil, fmt.Errorf("fragment %d: %w", i, err)
		}
		if _, exists := t.index.Get(f.id); exists {
			return nil, fmt.Errorf("duplicate fragment %s: %w", f.id.ToTestString(), ErrInvalidSnapshot)
		}

		f = f.DeepCopy()
		t.index.Put(f.id, f)
		fragments = append(fragments, f)
		if f.IsRemoved() {
			f.removedAt = t.now()
			t.removedFragmentMap[f.id.Key()] = f
		} else {
			live.WriteString(f.content)
		}
	}

	for _, span := range snapshot.Collected {
		if span == nil || span.id == nil || span.length <= 0 {
			return nil, fmt.Errorf("collected range: %w", ErrInvalidSnapshot)
		}
		t.collected.Put(span.id, span)
	}

	if err := checkOverlaps(t); err != nil {
		return nil, err
	}

	t.fragments.Insert(0, fragments...)
	if err := t.visible.Insert(0, live.String()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return t, nil
}

func validateSnapshotFragment(f *Fragment, version time.VersionVector) error {
	if f == nil || f.id == nil || f.id.createdAt == nil {
		return fmt.Errorf("missing id: %w", ErrInvalidSnapshot)
	}
	if f.content == "" || !utf8.ValidString(f.content) {
		return fmt.Errorf("%s has invalid content: %w", f.id.ToTestString(), ErrInvalidSnapshot)
	}
	if version == nil {
		return nil
	}

	if !version.Includes(f.id.createdAt) {
		return fmt.Errorf("%s is newer than the snapshot: %w", f.id.ToTestString(), ErrInvalidSnapshot)
	}
	for _, ticket := range f.removedBy {
		if !version.Includes(ticket) {
			return fmt.Errorf("%s removed by a newer delete: %w", f.id.ToTestString(), ErrInvalidSnapshot)
		}
	}
	return nil
}

// checkOverlaps verifies that no two known ranges share a character.
func checkOverlaps(t *Text) error {
	type extent struct {
		id     *FragmentID
		length int
	}

	var extents []extent
	t.index.Each(func(id *FragmentID, f *Fragment) bool {
		extents = append(extents, extent{id: id, length: len(f.content)})
		return true
	})
	t.collected.Each(func(id *FragmentID, span *CollectedSpan) bool {
		extents = append(extents, extent{id: id, length: span.length})
		return true
	})

	seen := make(map[string][]extent)
	for _, e := range extents {
		key := e.id.createdAt.Key()
		for _, other := range seen[key] {
			if e.id.offset < other.id.offset+other.length && other.id.offset < e.id.offset+e.length {
				return fmt.Errorf("overlapping ranges at %s: %w", e.id.ToTestString(), ErrInvalidSnapshot)
			}
		}
		seen[key] = append(seen[key], e)
	}
	return nil
}
