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
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/yorkie-team/cotext/pkg/document/crdt"
	"github.com/yorkie-team/cotext/pkg/document/operations"
	"github.com/yorkie-team/cotext/pkg/document/time"
)

// field is a decoded field of a message. Unknown fields are skipped.
type field struct {
	num   protowire.Number
	typ   protowire.Type
	value uint64
	bytes []byte
}

func (f field) int() int64 {
	return int64(f.value)
}

// BytesToOperations converts the given batch payload to operations.
func BytesToOperations(payload []byte) ([]operations.Operation, error) {
	fields, err := parseFields(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedOperation, err)
	}

	var ops []operations.Operation
	for _, f := range fields {
		if f.num != batchOperations {
			continue
		}
		if f.typ != protowire.BytesType {
			return nil, fmt.Errorf("operation %d: %w", len(ops), ErrMalformedOperation)
		}

		op, err := BytesToOperation(f.bytes)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", len(ops), err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// BytesToOperation converts the given bytes to an operation.
func BytesToOperation(b []byte) (operations.Operation, error) {
	op, err := fromOperation(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedOperation, err)
	}
	return op, nil
}

// BytesToSnapshot converts the given bytes to a snapshot. The snapshot is
// checked further when a text is rebuilt from it.
func BytesToSnapshot(b []byte) (*crdt.Snapshot, error) {
	snapshot, err := fromSnapshot(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}
	return snapshot, nil
}

func fromOperation(b []byte) (operations.Operation, error) {
	fields, err := parseFields(b)
	if err != nil {
		return nil, err
	}

	var executedAt *time.Ticket
	var insert, del []byte
	var bodies int
	version := time.NewVersionVector()
	for _, f := range fields {
		switch f.num {
		case operationExecutedAt:
			if executedAt, err = fromTicket(f); err != nil {
				return nil, fmt.Errorf("executed at: %w", err)
			}
		case operationVersion:
			if err := fromVersionEntry(f, version); err != nil {
				return nil, fmt.Errorf("version: %w", err)
			}
		case operationInsert:
			insert = f.bytes
			bodies++
		case operationDelete:
			del = f.bytes
			bodies++
		}
	}

	if executedAt == nil {
		return nil, fmt.Errorf("missing executed at")
	}
	if executedAt.Lamport() <= 0 {
		return nil, fmt.Errorf("invalid lamport %d", executedAt.Lamport())
	}
	if bodies != 1 {
		return nil, fmt.Errorf("%d operation bodies", bodies)
	}

	if insert != nil {
		return fromInsert(insert, version, executedAt)
	}
	return fromDelete(del, version, executedAt)
}

func fromInsert(b []byte, version time.VersionVector, executedAt *time.Ticket) (*operations.Insert, error) {
	fields, err := parseFields(b)
	if err != nil {
		return nil, err
	}

	var origin, rightOrigin *crdt.FragmentID
	var content string
	for _, f := range fields {
		switch f.num {
		case insertOrigin:
			if origin, err = fromFragmentID(f); err != nil {
				return nil, fmt.Errorf("origin: %w", err)
			}
		case insertRightOrigin:
			if rightOrigin, err = fromFragmentID(f); err != nil {
				return nil, fmt.Errorf("right origin: %w", err)
			}
		case insertContent:
			if f.typ != protowire.BytesType {
				return nil, fmt.Errorf("content: wire type %d", f.typ)
			}
			content = string(f.bytes)
		}
	}

	if content == "" || !utf8.ValidString(content) {
		return nil, fmt.Errorf("insert %s: invalid content", executedAt.ToTestString())
	}
	return operations.NewInsert(origin, rightOrigin, content, version, executedAt), nil
}

func fromDelete(b []byte, version time.VersionVector, executedAt *time.Ticket) (*operations.Delete, error) {
	fields, err := parseFields(b)
	if err != nil {
		return nil, err
	}

	var spans []*crdt.Span
	for _, f := range fields {
		if f.num != deleteSpans {
			continue
		}
		span, err := fromSpan(f)
		if err != nil {
			return nil, fmt.Errorf("span %d: %w", len(spans), err)
		}
		spans = append(spans, span)
	}

	if len(spans) == 0 {
		return nil, fmt.Errorf("delete %s: no spans", executedAt.ToTestString())
	}
	return operations.NewDelete(spans, version, executedAt), nil
}

func fromSpan(f field) (*crdt.Span, error) {
	fields, err := parseMessage(f)
	if err != nil {
		return nil, err
	}

	var createdAt *time.Ticket
	var from, to int64
	for _, f := range fields {
		switch f.num {
		case spanCreatedAt:
			if createdAt, err = fromTicket(f); err != nil {
				return nil, err
			}
		case spanFrom:
			from = f.int()
		case spanTo:
			to = f.int()
		}
	}

	if createdAt == nil {
		return nil, fmt.Errorf("missing created at")
	}
	if from < 0 || to <= from {
		return nil, fmt.Errorf("invalid range [%d, %d)", from, to)
	}
	return crdt.NewSpan(createdAt, int(from), int(to)), nil
}

func fromSnapshot(b []byte) (*crdt.Snapshot, error) {
	fields, err := parseFields(b)
	if err != nil {
		return nil, err
	}

	snapshot := &crdt.Snapshot{Version: time.NewVersionVector()}
	for _, f := range fields {
		switch f.num {
		case snapshotVersion:
			if err := fromVersionEntry(f, snapshot.Version); err != nil {
				return nil, fmt.Errorf("version: %w", err)
			}
		case snapshotFragments:
			fragment, err := fromFragment(f)
			if err != nil {
				return nil, fmt.Errorf("fragment %d: %w", len(snapshot.Fragments), err)
			}
			snapshot.Fragments = append(snapshot.Fragments, fragment)
		case snapshotCollected:
			span, err := fromCollectedSpan(f)
			if err != nil {
				return nil, fmt.Errorf("collected range %d: %w", len(snapshot.Collected), err)
			}
			snapshot.Collected = append(snapshot.Collected, span)
		}
	}
	return snapshot, nil
}

func fromFragment(f field) (*crdt.Fragment, error) {
	fields, err := parseMessage(f)
	if err != nil {
		return nil, err
	}

	var id, origin, rightOrigin *crdt.FragmentID
	var content string
	var removedBy []*time.Ticket
	for _, f := range fields {
		switch f.num {
		case fragmentID:
			id, err = fromFragmentID(f)
		case fragmentContent:
			content = string(f.bytes)
		case fragmentOrigin:
			origin, err = fromFragmentID(f)
		case fragmentRightOrigin:
			rightOrigin, err = fromFragmentID(f)
		case fragmentRemovedBy:
			var ticket *time.Ticket
			if ticket, err = fromTicket(f); err == nil {
				removedBy = append(removedBy, ticket)
			}
		}
		if err != nil {
			return nil, err
		}
	}

	if id == nil {
		return nil, fmt.Errorf("missing id")
	}
	return crdt.NewFragment(id, content, origin, rightOrigin, removedBy), nil
}

func fromCollectedSpan(f field) (*crdt.CollectedSpan, error) {
	fields, err := parseMessage(f)
	if err != nil {
		return nil, err
	}

	var id, left, right *crdt.FragmentID
	var length int64
	var removedBy []*time.Ticket
	for _, f := range fields {
		switch f.num {
		case collectedID:
			id, err = fromFragmentID(f)
		case collectedLength:
			length = f.int()
		case collectedLeft:
			left, err = fromFragmentID(f)
		case collectedRight:
			right, err = fromFragmentID(f)
		case collectedRemovedBy:
			var ticket *time.Ticket
			if ticket, err = fromTicket(f); err == nil {
				removedBy = append(removedBy, ticket)
			}
		}
		if err != nil {
			return nil, err
		}
	}

	if id == nil {
		return nil, fmt.Errorf("missing id")
	}
	return crdt.NewCollectedSpan(id, int(length), left, right, removedBy), nil
}

func fromFragmentID(f field) (*crdt.FragmentID, error) {
	fields, err := parseMessage(f)
	if err != nil {
		return nil, err
	}

	var createdAt *time.Ticket
	var offset int64
	for _, f := range fields {
		switch f.num {
		case fragmentIDCreatedAt:
			if createdAt, err = fromTicket(f); err != nil {
				return nil, err
			}
		case fragmentIDOffset:
			offset = f.int()
		}
	}

	if createdAt == nil {
		return nil, fmt.Errorf("fragment id: missing created at")
	}
	if offset < 0 {
		return nil, fmt.Errorf("fragment id: negative offset %d", offset)
	}
	return crdt.NewFragmentID(createdAt, int(offset)), nil
}

func fromTicket(f field) (*time.Ticket, error) {
	fields, err := parseMessage(f)
	if err != nil {
		return nil, err
	}

	var lamport int64
	var actorID *time.ActorID
	for _, f := range fields {
		switch f.num {
		case ticketLamport:
			lamport = f.int()
		case ticketActorID:
			if actorID, err = time.ActorIDFromBytes(f.bytes); err != nil {
				return nil, err
			}
		}
	}

	if actorID == nil {
		return nil, fmt.Errorf("ticket: missing actor id")
	}
	if lamport < 0 {
		return nil, fmt.Errorf("ticket: negative lamport %d", lamport)
	}
	return time.NewTicket(lamport, actorID), nil
}

func fromVersionEntry(f field, vector time.VersionVector) error {
	fields, err := parseMessage(f)
	if err != nil {
		return err
	}

	var lamport int64
	var actorID *time.ActorID
	for _, f := range fields {
		switch f.num {
		case versionActorID:
			if actorID, err = time.ActorIDFromBytes(f.bytes); err != nil {
				return err
			}
		case versionLamport:
			lamport = f.int()
		}
	}

	if actorID == nil {
		return fmt.Errorf("missing actor id")
	}
	vector.Set(actorID, lamport)
	return nil
}

func parseMessage(f field) ([]field, error) {
	if f.typ != protowire.BytesType {
		return nil, fmt.Errorf("field %d: wire type %d is not a message", f.num, f.typ)
	}
	return parseFields(f.bytes)
}

func parseFields(b []byte) ([]field, error) {
	var fields []field
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.value, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]
		fields = append(fields, f)
	}
	return fields, nil
}
