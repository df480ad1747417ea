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

// Package operations implements the operations that can be executed on the
// text of a document.
package operations

import (
	"slices"

	"github.com/yorkie-team/cotext/pkg/document/crdt"
	"github.com/yorkie-team/cotext/pkg/document/time"
)

// Operation represents an operation to be executed on a text.
type Operation interface {
	// Execute executes this operation on the given text.
	Execute(text *crdt.Text) error

	// Validate returns nil if every character this operation refers to is
	// known to the given text.
	Validate(text *crdt.Text) error

	// ExecutedAt returns the ticket that identifies this operation.
	ExecutedAt() *time.Ticket

	// Version returns the version the author had applied when it issued
	// this operation. The operation is causally ready once a replica has
	// applied at least this version.
	Version() time.VersionVector

	// References returns the tickets of the insertions this operation refers
	// to.
	References() []*time.Ticket
}

// Sort orders operations by their tickets.
func Sort(ops []Operation) {
	slices.SortFunc(ops, func(a, b Operation) int {
		return a.ExecutedAt().Compare(b.ExecutedAt())
	})
}
