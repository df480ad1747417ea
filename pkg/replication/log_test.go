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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorkie-team/cotext/pkg/document/operations"
	"github.com/yorkie-team/cotext/pkg/document/time"
	"github.com/yorkie-team/cotext/pkg/replication"
	"github.com/yorkie-team/cotext/test/helper"
)

func tickets(ops []operations.Operation) []string {
	var result []string
	for _, op := range ops {
		result = append(result, op.ExecutedAt().ToTestString())
	}
	return result
}

func TestLog(t *testing.T) {
	actor1, actor2 := helper.ActorIDOf(1), helper.ActorIDOf(2)

	t.Run("operations since a version test", func(t *testing.T) {
		log, err := replication.NewLog()
		require.NoError(t, err)

		for _, op := range []operations.Operation{
			insertOp(1, 1, nil, nil),
			insertOp(2, 2, nil, nil),
			insertOp(3, 1, nil, nil),
			insertOp(2, 1, nil, nil),
		} {
			appended, err := log.Append(op)
			require.NoError(t, err)
			assert.True(t, appended)
		}
		appended, err := log.Append(insertOp(2, 2, nil, nil))
		require.NoError(t, err)
		assert.False(t, appended)
		assert.Equal(t, 4, log.Len())

		ops, err := log.OperationsSince(time.NewVersionVector())
		require.NoError(t, err)
		assert.Equal(t, []string{"1:01", "2:02", "3:01", "2:01"}, tickets(ops))

		ops, err = log.OperationsSince(helper.VersionVectorOf(map[*time.ActorID]int64{
			actor1: 2, actor2: 2,
		}))
		require.NoError(t, err)
		assert.Equal(t, []string{"3:01"}, tickets(ops))
	})

	t.Run("truncate test", func(t *testing.T) {
		log, err := replication.NewLog()
		require.NoError(t, err)
		for _, op := range []operations.Operation{
			insertOp(1, 1, nil, nil),
			insertOp(2, 1, nil, nil),
			insertOp(3, 2, nil, nil),
		} {
			_, err := log.Append(op)
			require.NoError(t, err)
		}

		removed, err := log.Truncate(helper.VersionVectorOf(map[*time.ActorID]int64{actor1: 1}))
		require.NoError(t, err)
		assert.Equal(t, 1, removed)
		assert.Equal(t, 2, log.Len())
		assert.Equal(t, int64(1), log.Floor().VersionOf(actor1))

		ops, err := log.OperationsSince(helper.VersionVectorOf(map[*time.ActorID]int64{actor1: 1}))
		require.NoError(t, err)
		assert.Equal(t, []string{"2:01", "3:02"}, tickets(ops))

		_, err = log.OperationsSince(time.NewVersionVector())
		assert.ErrorIs(t, err, replication.ErrSnapshotRequired)

		removed, err = log.Truncate(helper.VersionVectorOf(map[*time.ActorID]int64{actor1: 1}))
		require.NoError(t, err)
		assert.Equal(t, 0, removed)
	})

	t.Run("log restored from a snapshot test", func(t *testing.T) {
		log, err := replication.NewLog()
		require.NoError(t, err)

		_, err = log.Truncate(helper.VersionVectorOf(map[*time.ActorID]int64{actor2: 5}))
		require.NoError(t, err)
		_, err = log.OperationsSince(time.NewVersionVector())
		assert.ErrorIs(t, err, replication.ErrSnapshotRequired)

		ops, err := log.OperationsSince(helper.VersionVectorOf(map[*time.ActorID]int64{actor2: 5}))
		require.NoError(t, err)
		assert.Empty(t, ops)
	})
}
