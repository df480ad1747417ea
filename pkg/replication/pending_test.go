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

package replication_test

import (
	"testing"
	gotime "time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorkie-team/cotext/pkg/document/crdt"
	"github.com/yorkie-team/cotext/pkg/document/operations"
	"github.com/yorkie-team/cotext/pkg/document/time"
	"github.com/yorkie-team/cotext/pkg/errors"
	"github.com/yorkie-team/cotext/pkg/replication"
	"github.com/yorkie-team/cotext/test/helper"
)

func insertOp(lamport int64, actor int, origin *crdt.FragmentID, version time.VersionVector) operations.Operation {
	if version == nil {
		version = time.NewVersionVector()
	}
	return operations.NewInsert(
		origin, nil, "x", version,
		time.NewTicket(lamport, helper.ActorIDOf(actor)),
	)
}

func TestPending(t *testing.T) {
	now := gotime.Date(2026, 1, 1, 0, 0, 0, 0, gotime.UTC)
	actor1 := helper.ActorIDOf(1)

	t.Run("pop ready operations in ticket order test", func(t *testing.T) {
		pending := replication.NewPending(0)
		needs := func(lamport int64) time.VersionVector {
			return helper.VersionVectorOf(map[*time.ActorID]int64{actor1: lamport})
		}

		require.NoError(t, pending.Add(insertOp(5, 2, nil, needs(3)), now))
		require.NoError(t, pending.Add(insertOp(4, 3, nil, needs(3)), now))
		require.NoError(t, pending.Add(insertOp(9, 2, nil, needs(8)), now))
		require.NoError(t, pending.Add(insertOp(5, 2, nil, needs(3)), now))
		assert.Equal(t, 3, pending.Len())
		assert.True(t, pending.Has(time.NewTicket(9, helper.ActorIDOf(2))))

		local := needs(3)
		assert.Equal(t, int64(8), pending.Missing(local).VersionOf(actor1))

		ready := pending.PopReady(func(op operations.Operation) bool {
			return local.AfterOrEqual(op.Version())
		})
		require.Len(t, ready, 2)
		assert.Equal(t, "4:03", ready[0].ExecutedAt().ToTestString())
		assert.Equal(t, "5:02", ready[1].ExecutedAt().ToTestString())
		assert.Equal(t, 1, pending.Len())
	})

	t.Run("pins referenced insertions test", func(t *testing.T) {
		pending := replication.NewPending(0)
		origin := crdt.NewFragmentID(time.NewTicket(1, actor1), 2)
		op := insertOp(2, 2, origin, nil)
		require.NoError(t, pending.Add(op, now))

		assert.True(t, pending.Pins(time.NewTicket(1, actor1)))
		pending.Drop([]operations.Operation{op})
		assert.False(t, pending.Pins(time.NewTicket(1, actor1)))
		assert.Equal(t, 0, pending.Len())
	})

	t.Run("expired operations test", func(t *testing.T) {
		pending := replication.NewPending(0)
		require.NoError(t, pending.Add(insertOp(1, 2, nil, nil), now))
		require.NoError(t, pending.Add(insertOp(2, 2, nil, nil), now.Add(gotime.Minute)))

		assert.Empty(t, pending.Expired(now))
		expired := pending.Expired(now.Add(gotime.Second))
		require.Len(t, expired, 1)
		assert.Equal(t, "1:02", expired[0].ExecutedAt().ToTestString())
		assert.Len(t, pending.Operations(), 2)
	})

	t.Run("limit test", func(t *testing.T) {
		pending := replication.NewPending(1)
		require.NoError(t, pending.Add(insertOp(1, 2, nil, nil), now))
		err := pending.Add(insertOp(2, 2, nil, nil), now)
		assert.ErrorIs(t, err, replication.ErrTooManyPending)
		assert.Equal(t, errors.ErrCodeResourceExhausted, errors.StatusOf(err))
	})
}

func TestCausalGapError(t *testing.T) {
	err := &replication.CausalGapError{
		Missing:    helper.VersionVectorOf(map[*time.ActorID]int64{helper.ActorIDOf(1): 3}),
		Operations: []*time.Ticket{time.NewTicket(4, helper.ActorIDOf(2))},
	}
	assert.ErrorIs(t, err, replication.ErrCausalGap)
	assert.Contains(t, err.Error(), "4:02")

	var gap *replication.CausalGapError
	assert.True(t, errors.As(errors.Join(err), &gap))
	assert.Len(t, gap.Operations, 1)
}
