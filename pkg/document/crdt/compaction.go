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
	"slices"
	gotime "time"

	"github.com/yorkie-team/cotext/pkg/document/time"
)

// CompactionPolicy decides which tombstones may be removed physically.
type CompactionPolicy struct {
	// Stable is the version every known replica has applied. A tombstone is
	// collectable once one of its deletes is included in it.
	Stable time.VersionVector

	// RemovedBefore keeps tombstones that were created after it. The zero
	// value keeps none.
	RemovedBefore gotime.Time

	// Pinned reports fragments that operations still waiting to be applied
	// refer to. Pinned tombstones are kept and counted as conflicts.
	Pinned func(f *Fragment) bool
}

// CompactionReport is the result of a compaction.
type CompactionReport struct {
	Collected      int
	CollectedBytes int
	Conflicts      int
	Remaining      int
}

// Compact removes the tombstones the policy allows. Each removed range is
// recorded with its neighbours so that later lookups can be forwarded.
func (t *Text) Compact(policy CompactionPolicy) CompactionReport {
	report := CompactionReport{}

	type candidate struct {
		index    int
		fragment *Fragment
	}
	var candidates []candidate
	for _, f := range t.removedFragmentMap {
		if policy.Stable == nil || !f.removedBefore(policy.Stable) {
			continue
		}
		if !policy.RemovedBefore.IsZero() && f.removedAt.After(policy.RemovedBefore) {
			continue
		}
		if policy.Pinned != nil && policy.Pinned(f) {
			report.Conflicts++
			continue
		}

		index, _ := t.position(f)
		candidates = append(candidates, candidate{index: index, fragment: f})
	}

	// Remove from the right so the remaining indexes stay valid.
	slices.SortFunc(candidates, func(a, b candidate) int {
		return b.index - a.index
	})
	for _, c := range candidates {
		t.collect(c.index, c.fragment)
		report.Collected++
		report.CollectedBytes += len(c.fragment.content)
	}

	report.Remaining = len(t.removedFragmentMap)
	return report
}

func (t *Text) collect(index int, f *Fragment) {
	var left, right *FragmentID
	if index > 0 {
		left = t.fragments.Get(index - 1).lastCharID()
	}
	if index+1 < t.fragments.Len() {
		right = t.fragments.Get(index + 1).id
	}

	t.fragments.Remove(index, index+1)
	t.index.Remove(f.id)
	delete(t.removedFragmentMap, f.id.Key())
	t.collected.Put(f.id, NewCollectedSpan(f.id, len(f.content), left, right, f.removedBy))
}

// Collected returns the collected ranges in ID order.
func (t *Text) Collected() []*CollectedSpan {
	var spans []*CollectedSpan
	t.collected.Each(func(_ *FragmentID, span *CollectedSpan) bool {
		spans = append(spans, span)
		return true
	})
	return spans
}
