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

package operations

import (
	"github.com/yorkie-team/cotext/pkg/document/crdt"
	"github.com/yorkie-team/cotext/pkg/document/time"
)

// Delete is an operation representing removing characters. It names the
// characters by insertion so it removes exactly what its author saw, even if
// other replicas inserted text in between.
type Delete struct {
	spans      []*crdt.Span
	version    time.VersionVector
	executedAt *time.Ticket
}

// NewDelete creates a new instance of Delete.
func NewDelete(
	spans []*crdt.Span,
	version time.VersionVector,
	executedAt *time.Ticket,
) *Delete {
	return &Delete{
		spans:      spans,
		version:    version,
		executedAt: executedAt,
	}
}

// Execute executes this operation on the given text.
func (d *Delete) Execute(text *crdt.Text) error {
	_, err := text.Tombstone(d.executedAt, d.spans)
	return err
}

// Validate returns nil if every span is known to the given text.
func (d *Delete) Validate(text *crdt.Text) error {
	for _, span := range d.spans {
		if err := text.CheckSpan(span); err != nil {
			return err
		}
	}
	return nil
}

// ExecutedAt returns execution time of this operation.
func (d *Delete) ExecutedAt() *time.Ticket {
	return d.executedAt
}

// Version returns the version the author had applied.
func (d *Delete) Version() time.VersionVector {
	return d.version
}

// References returns the insertions of the removed characters.
func (d *Delete) References() []*time.Ticket {
	refs := make([]*time.Ticket, 0, len(d.spans))
	for _, span := range d.spans {
		refs = append(refs, span.CreatedAt())
	}
	return refs
}

// Spans returns the removed ranges.
func (d *Delete) Spans() []*crdt.Span {
	return d.spans
}
