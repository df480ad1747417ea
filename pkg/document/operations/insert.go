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

// Insert is an operation representing inserting text between two characters.
type Insert struct {
	// origin is the character left of the insertion point, or nil at the
	// start of the text.
	origin *crdt.FragmentID

	// rightOrigin is the character right of the insertion point, or nil at
	// the end of the text.
	rightOrigin *crdt.FragmentID

	// content is the inserted text.
	content string

	// version is the version the author had applied.
	version time.VersionVector

	// executedAt is the time the operation was executed.
	executedAt *time.Ticket
}

// NewInsert creates a new instance of Insert.
func NewInsert(
	origin *crdt.FragmentID,
	rightOrigin *crdt.FragmentID,
	content string,
	version time.VersionVector,
	executedAt *time.Ticket,
) *Insert {
	return &Insert{
		origin:      origin,
		rightOrigin: rightOrigin,
		content:     content,
		version:     version,
		executedAt:  executedAt,
	}
}

// Execute executes this operation on the given text.
func (i *Insert) Execute(text *crdt.Text) error {
	return text.Integrate(crdt.NewFragment(
		crdt.NewFragmentID(i.executedAt, 0),
		i.content,
		i.origin,
		i.rightOrigin,
		nil,
	), i.version)
}

// Validate returns nil if both origins are known to the given text.
func (i *Insert) Validate(text *crdt.Text) error {
	return text.CheckInsertion(i.origin, i.rightOrigin, i.version)
}

// ExecutedAt returns execution time of this operation.
func (i *Insert) ExecutedAt() *time.Ticket {
	return i.executedAt
}

// Version returns the version the author had applied.
func (i *Insert) Version() time.VersionVector {
	return i.version
}

// References returns the insertions of both origins.
func (i *Insert) References() []*time.Ticket {
	var refs []*time.Ticket
	if i.origin != nil {
		refs = append(refs, i.origin.CreatedAt())
	}
	if i.rightOrigin != nil {
		refs = append(refs, i.rightOrigin.CreatedAt())
	}
	return refs
}

// Origin returns the character left of the insertion point.
func (i *Insert) Origin() *crdt.FragmentID {
	return i.origin
}

// RightOrigin returns the character right of the insertion point.
func (i *Insert) RightOrigin() *crdt.FragmentID {
	return i.rightOrigin
}

// Content returns the inserted text.
func (i *Insert) Content() string {
	return i.content
}
