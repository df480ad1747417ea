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

package converter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/yorkie-team/cotext/api/converter"
	"github.com/yorkie-team/cotext/pkg/document/crdt"
	"github.com/yorkie-team/cotext/pkg/document/operations"
	"github.com/yorkie-team/cotext/pkg/document/time"
	"github.com/yorkie-team/cotext/pkg/errors"
	"github.com/yorkie-team/cotext/test/helper"
)

func TestConverter(t *testing.T) {
	actor1, actor2 := helper.ActorIDOf(1), helper.ActorIDOf(2)
	version := helper.VersionVectorOf(map[*time.ActorID]int64{actor1: 3, actor2: 1})

	t.Run("operations test", func(t *testing.T) {
		ops := []operations.Operation{
			operations.NewInsert(
				crdt.NewFragmentID(time.NewTicket(1, actor1), 2),
				crdt.NewFragmentID(time.NewTicket(1, actor2), 0),
				"가나 👍",
				version,
				time.NewTicket(4, actor1),
			),
			operations.NewInsert(nil, nil, "a", time.NewVersionVector(), time.NewTicket(1, actor2)),
			operations.NewDelete([]*crdt.Span{
				crdt.NewSpan(time.NewTicket(1, actor1), 0, 3),
				crdt.NewSpan(time.NewTicket(4, actor1), 3, 7),
			}, version, time.NewTicket(5, actor2)),
		}

		payload, err := converter.OperationsToBytes(ops)
		require.NoError(t, err)

		decoded, err := converter.BytesToOperations(payload)
		require.NoError(t, err)
		require.Len(t, decoded, 3)

		insert := decoded[0].(*operations.Insert)
		assert.Equal(t, "4:01", insert.ExecutedAt().ToTestString())
		assert.Equal(t, "1:01:2", insert.Origin().ToTestString())
		assert.Equal(t, "1:02:0", insert.RightOrigin().ToTestString())
		assert.Equal(t, "가나 👍", insert.Content())
		assert.Equal(t, version.Marshal(), insert.Version().Marshal())

		head := decoded[1].(*operations.Insert)
		assert.Nil(t, head.Origin())
		assert.Nil(t, head.RightOrigin())
		assert.Empty(t, head.Version())

		del := decoded[2].(*operations.Delete)
		require.Len(t, del.Spans(), 2)
		assert.Equal(t, "1:01:0-3", del.Spans()[0].ToTestString())
		assert.Equal(t, "4:01:3-7", del.Spans()[1].ToTestString())

		// equal operations encode identically
		again, err := converter.OperationsToBytes(decoded)
		require.NoError(t, err)
		assert.Equal(t, payload, again)
	})

	t.Run("snapshot test", func(t *testing.T) {
		text := crdt.NewText(0)
		clock := time.NewClock(actor1)
		vector := time.NewVersionVector()
		edit := func(ticket *time.Ticket, apply func() error) {
			require.NoError(t, apply())
			vector.Observe(ticket)
		}

		ticket := clock.NextTicket()
		edit(ticket, func() error {
			return text.Integrate(crdt.NewFragment(crdt.NewFragmentID(ticket, 0), "hello\nworld", nil, nil, nil), nil)
		})
		spans, err := text.DeleteSpans(2, 8)
		require.NoError(t, err)
		ticket = clock.NextTicket()
		edit(ticket, func() error {
			_, err := text.Tombstone(ticket, spans)
			return err
		})
		spans, err = text.DeleteSpans(0, 1)
		require.NoError(t, err)
		ticket = clock.NextTicket()
		edit(ticket, func() error {
			_, err := text.Tombstone(ticket, spans)
			return err
		})
		text.Compact(crdt.CompactionPolicy{Stable: helper.VersionVectorOf(map[*time.ActorID]int64{actor1: 2})})

		b := converter.SnapshotToBytes(text.Snapshot(vector))
		snapshot, err := converter.BytesToSnapshot(b)
		require.NoError(t, err)
		assert.Equal(t, vector.Marshal(), snapshot.Version.Marshal())

		restored, err := crdt.NewTextFromSnapshot(snapshot, 0)
		require.NoError(t, err)
		assert.Equal(t, text.String(), restored.String())
		assert.Equal(t, text.StructureAsString(), restored.StructureAsString())
		assert.Equal(t, 1, restored.CollectedLen())
		require.Len(t, restored.Collected()[0].RemovedBy(), 1)
		assert.Equal(t, "2:01", restored.Collected()[0].RemovedBy()[0].ToTestString())
		assert.Equal(t, b, converter.SnapshotToBytes(restored.Snapshot(vector)))
	})

	t.Run("malformed operation test", func(t *testing.T) {
		payload, err := converter.OperationsToBytes([]operations.Operation{
			operations.NewInsert(nil, nil, "abc", nil, time.NewTicket(1, actor1)),
		})
		require.NoError(t, err)

		_, err = converter.BytesToOperations(payload[:len(payload)-2])
		assert.ErrorIs(t, err, converter.ErrMalformedOperation)
		assert.Equal(t, errors.ErrCodeInvalidArgument, errors.StatusOf(err))

		// an operation without a body
		var b []byte
		var ticket []byte
		ticket = protowire.AppendTag(ticket, 1, protowire.VarintType)
		ticket = protowire.AppendVarint(ticket, 1)
		ticket = protowire.AppendTag(ticket, 2, protowire.BytesType)
		ticket = protowire.AppendBytes(ticket, actor1.Bytes())
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, ticket)
		_, err = converter.BytesToOperation(b)
		assert.ErrorIs(t, err, converter.ErrMalformedOperation)

		// an actor ID of the wrong size
		var short []byte
		short = protowire.AppendTag(short, 2, protowire.BytesType)
		short = protowire.AppendBytes(short, []byte{1, 2, 3})
		var op []byte
		op = protowire.AppendTag(op, 1, protowire.BytesType)
		op = protowire.AppendBytes(op, short)
		_, err = converter.BytesToOperation(op)
		assert.ErrorIs(t, err, converter.ErrMalformedOperation)

		// unknown fields are skipped
		extended := protowire.AppendTag(payload, 15, protowire.Fixed32Type)
		extended = protowire.AppendFixed32(extended, 7)
		ops, err := converter.BytesToOperations(extended)
		require.NoError(t, err)
		assert.Len(t, ops, 1)
	})

	t.Run("malformed snapshot test", func(t *testing.T) {
		_, err := converter.BytesToSnapshot([]byte{0xff})
		assert.ErrorIs(t, err, converter.ErrMalformedSnapshot)
		assert.Equal(t, errors.ErrCodeDataLoss, errors.StatusOf(err))

		snapshot, err := converter.BytesToSnapshot(nil)
		require.NoError(t, err)
		assert.Empty(t, snapshot.Fragments)
	})
}
