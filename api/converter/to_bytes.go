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

package converter

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/yorkie-team/cotext/pkg/document/crdt"
	"github.com/yorkie-team/cotext/pkg/document/operations"
	"github.com/yorkie-team/cotext/pkg/document/time"
)

// OperationsToBytes converts the given operations to a batch payload.
func OperationsToBytes(ops []operations.Operation) ([]byte, error) {
	var b []byte
	for _, op := range ops {
		encoded, err := OperationToBytes(op)
		if err != nil {
			return nil, err
		}
		b = appendMessage(b, batchOperations, encoded)
	}
	return b, nil
}

// OperationToBytes converts the given operation to bytes.
func OperationToBytes(op operations.Operation) ([]byte, error) {
	var b []byte
	b = appendTicket(b, operationExecutedAt, op.ExecutedAt())
	b = appendVersionVector(b, operationVersion, op.Version())

	switch op := op.(type) {
	case *operations.Insert:
		b = appendMessage(b, operationInsert, toInsert(op))
	case *operations.Delete:
		b = appendMessage(b, operationDelete, toDelete(op))
	default:
		return nil, fmt.Errorf("%T: %w", op, ErrUnsupportedOperation)
	}
	return b, nil
}

// SnapshotToBytes converts the given snapshot to bytes.
func SnapshotToBytes(snapshot *crdt.Snapshot) []byte {
	var b []byte
	b = appendVersionVector(b, snapshotVersion, snapshot.Version)
	for _, f := range snapshot.Fragments {
		b = appendMessage(b, snapshotFragments, toFragment(f))
	}
	for _, span := range snapshot.Collected {
		b = appendMessage(b, snapshotCollected, toCollectedSpan(span))
	}
	return b
}

func toInsert(insert *operations.Insert) []byte {
	var b []byte
	b = appendFragmentID(b, insertOrigin, insert.Origin())
	b = appendFragmentID(b, insertRightOrigin, insert.RightOrigin())
	b = appendString(b, insertContent, insert.Content())
	return b
}

func toDelete(del *operations.Delete) []byte {
	var b []byte
	for _, span := range del.Spans() {
		var msg []byte
		msg = appendTicket(msg, spanCreatedAt, span.CreatedAt())
		msg = appendInt(msg, spanFrom, int64(span.From()))
		msg = appendInt(msg, spanTo, int64(span.To()))
		b = appendMessage(b, deleteSpans, msg)
	}
	return b
}

func toFragment(f *crdt.Fragment) []byte {
	var b []byte
	b = appendFragmentID(b, fragmentID, f.ID())
	b = appendString(b, fragmentContent, f.Content())
	b = appendFragmentID(b, fragmentOrigin, f.Origin())
	b = appendFragmentID(b, fragmentRightOrigin, f.RightOrigin())
	for _, ticket := range f.RemovedBy() {
		b = appendTicket(b, fragmentRemovedBy, ticket)
	}
	return b
}

func toCollectedSpan(span *crdt.CollectedSpan) []byte {
	var b []byte
	b = appendFragmentID(b, collectedID, span.ID())
	b = appendInt(b, collectedLength, int64(span.Len()))
	b = appendFragmentID(b, collectedLeft, span.Left())
	b = appendFragmentID(b, collectedRight, span.Right())
	for _, ticket := range span.RemovedBy() {
		b = appendTicket(b, collectedRemovedBy, ticket)
	}
	return b
}

func appendTicket(b []byte, num protowire.Number, ticket *time.Ticket) []byte {
	if ticket == nil {
		return b
	}

	var msg []byte
	msg = appendInt(msg, ticketLamport, ticket.Lamport())
	msg = appendBytes(msg, ticketActorID, ticket.ActorID().Bytes())
	return appendMessage(b, num, msg)
}

func appendFragmentID(b []byte, num protowire.Number, id *crdt.FragmentID) []byte {
	if id == nil {
		return b
	}

	var msg []byte
	msg = appendTicket(msg, fragmentIDCreatedAt, id.CreatedAt())
	msg = appendInt(msg, fragmentIDOffset, int64(id.Offset()))
	return appendMessage(b, num, msg)
}

// appendVersionVector appends one entry per actor, sorted by actor so that
// equal vectors encode identically.
func appendVersionVector(b []byte, num protowire.Number, vector time.VersionVector) []byte {
	for _, actorID := range vector.Keys() {
		var msg []byte
		msg = appendBytes(msg, versionActorID, actorID.Bytes())
		msg = appendInt(msg, versionLamport, vector.VersionOf(actorID))
		b = appendMessage(b, num, msg)
	}
	return b
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func appendBytes(b []byte, num protowire.Number, value []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, value)
}

func appendString(b []byte, num protowire.Number, value string) []byte {
	if value == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, value)
}

func appendInt(b []byte, num protowire.Number, value int64) []byte {
	if value == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(value))
}
