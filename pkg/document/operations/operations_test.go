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

package operations_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorkie-team/cotext/pkg/document/crdt"
	"github.com/yorkie-team/cotext/pkg/document/operations"
	"github.com/yorkie-team/cotext/pkg/document/time"
	"github.com/yorkie-team/cotext/test/helper"
)

func TestOperations(t *testing.T) {
	ticketOf := func(lamport int64, actor int) *time.Ticket {
		return time.NewTicket(lamport, helper.ActorIDOf(actor))
	}

	t.Run("insert and delete test", func(t *testing.T) {
		text := crdt.NewText(0)
		ins := operations.NewInsert(nil, nil, "hello", time.NewVersionVector(), ticketOf(1, 1))
		require.NoError(t, ins.Validate(text))
		require.NoError(t, ins.Execute(text))
		assert.Empty(t, ins.References())

		origin, rightOrigin, err := text.InsertOrigins(5)
		require.NoError(t, err)
		next := operations.NewInsert(origin, rightOrigin, "!", time.NewVersionVector(), ticketOf(2, 1))
		require.NoError(t, next.Execute(text))
		assert.Equal(t, "hello!", text.String())
		require.Len(t, next.References(), 1)
		assert.Equal(t, "1:01", next.References()[0].ToTestString())

		spans, err := text.DeleteSpans(1, 6)
		require.NoError(t, err)
		del := operations.NewDelete(spans, time.NewVersionVector(), ticketOf(3, 1))
		require.NoError(t, del.Validate(text))
		require.NoError(t, del.Execute(text))
		assert.Equal(t, "h", text.String())
		assert.Len(t, del.References(), 2)
	})

	t.Run("validate unknown references test", func(t *testing.T) {
		text := crdt.NewText(0)
		unknown := crdt.NewFragmentID(ticketOf(1, 2), 0)

		ins := operations.NewInsert(unknown, nil, "x", time.NewVersionVector(), ticketOf(2, 1))
		assert.ErrorIs(t, ins.Validate(text), crdt.ErrUnknownReference)

		del := operations.NewDelete(
			[]*crdt.Span{crdt.NewSpan(ticketOf(1, 2), 0, 1)},
			time.NewVersionVector(),
			ticketOf(2, 1),
		)
		assert.ErrorIs(t, del.Validate(text), crdt.ErrUnknownReference)
	})

	t.Run("sort test", func(t *testing.T) {
		ops := []operations.Operation{
			operations.NewInsert(nil, nil, "c", nil, ticketOf(2, 2)),
			operations.NewInsert(nil, nil, "a", nil, ticketOf(1, 3)),
			operations.NewInsert(nil, nil, "b", nil, ticketOf(2, 1)),
		}
		operations.Sort(ops)

		var contents string
		for _, op := range ops {
			contents += op.(*operations.Insert).Content()
		}
		assert.Equal(t, "abc", contents)
	})
}
