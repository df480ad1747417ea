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

// Package converter provides the converter for converting operations and
// snapshots to bytes and vice versa. The encoding is protobuf wire format,
// so payloads stay readable by protobuf tooling.
package converter

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the encoded messages.
const (
	// Ticket
	ticketLamport protowire.Number = 1
	ticketActorID protowire.Number = 2

	// FragmentID
	fragmentIDCreatedAt protowire.Number = 1
	fragmentIDOffset    protowire.Number = 2

	// VersionVector entry
	versionActorID protowire.Number = 1
	versionLamport protowire.Number = 2

	// Operation
	operationExecutedAt protowire.Number = 1
	operationVersion    protowire.Number = 2
	operationInsert     protowire.Number = 3
	operationDelete     protowire.Number = 4

	// Insert
	insertOrigin      protowire.Number = 1
	insertRightOrigin protowire.Number = 2
	insertContent     protowire.Number = 3

	// Delete
	deleteSpans protowire.Number = 1

	// Span
	spanCreatedAt protowire.Number = 1
	spanFrom      protowire.Number = 2
	spanTo        protowire.Number = 3

	// Batch
	batchOperations protowire.Number = 1

	// Fragment
	fragmentID          protowire.Number = 1
	fragmentContent     protowire.Number = 2
	fragmentOrigin      protowire.Number = 3
	fragmentRightOrigin protowire.Number = 4
	fragmentRemovedBy   protowire.Number = 5

	// CollectedSpan
	collectedID        protowire.Number = 1
	collectedLength    protowire.Number = 2
	collectedLeft      protowire.Number = 3
	collectedRight     protowire.Number = 4
	collectedRemovedBy protowire.Number = 5

	// Snapshot
	snapshotVersion   protowire.Number = 1
	snapshotFragments protowire.Number = 2
	snapshotCollected protowire.Number = 3
)
