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

	"github.com/yorkie-team/cotext/pkg/document/time"
	"github.com/yorkie-team/cotext/pkg/replication"
	"github.com/yorkie-team/cotext/test/helper"
)

func TestTracker(t *testing.T) {
	actor1, actor2, actor3 := helper.ActorIDOf(1), helper.ActorIDOf(2), helper.ActorIDOf(3)

	t.Run("ready and applied test", func(t *testing.T) {
		tracker := replication.NewTracker(actor1, nil)
		tracker.Applied(time.NewTicket(1, actor1))

		assert.True(t, tracker.Includes(time.NewTicket(1, actor1)))
		assert.False(t, tracker.Includes(time.NewTicket(1, actor2)))
		assert.True(t, tracker.Ready(helper.VersionVectorOf(map[*time.ActorID]int64{actor1: 1})))
		assert.False(t, tracker.Ready(helper.VersionVectorOf(map[*time.ActorID]int64{actor2: 1})))

		tracker.Applied(time.NewTicket(3, actor2))
		assert.True(t, tracker.Ready(helper.VersionVectorOf(map[*time.ActorID]int64{actor2: 2})))
		assert.Equal(t, int64(3), tracker.Local().VersionOf(actor2))
	})

	t.Run("stable version test", func(t *testing.T) {
		tracker := replication.NewTracker(actor1, helper.VersionVectorOf(map[*time.ActorID]int64{
			actor1: 5, actor2: 4,
		}))
		assert.Equal(t, int64(5), tracker.StableVersion().VersionOf(actor1))

		tracker.ObservePeer(
			time.NewTicket(4, actor2),
			helper.VersionVectorOf(map[*time.ActorID]int64{actor1: 2}),
		)
		stable := tracker.StableVersion()
		assert.Equal(t, int64(2), stable.VersionOf(actor1))
		assert.Equal(t, int64(4), stable.VersionOf(actor2))

		// stale reports do not move the version backwards
		tracker.UpdatePeer(actor2, helper.VersionVectorOf(map[*time.ActorID]int64{actor1: 1}))
		assert.Equal(t, int64(2), tracker.StableVersion().VersionOf(actor1))

		// the local replica is never a peer of itself
		tracker.UpdatePeer(actor1, time.NewVersionVector())
		assert.Len(t, tracker.Peers(), 1)

		tracker.UpdatePeer(actor3, time.NewVersionVector())
		assert.Equal(t, int64(0), tracker.StableVersion().VersionOf(actor1))
		assert.True(t, tracker.RemovePeer(actor3))
		assert.False(t, tracker.RemovePeer(actor3))
		assert.Equal(t, int64(2), tracker.StableVersion().VersionOf(actor1))
	})

	t.Run("caught up test", func(t *testing.T) {
		tracker := replication.NewTracker(actor1, nil)
		assert.True(t, tracker.CaughtUp())

		tracker.UpdatePeer(actor2, helper.VersionVectorOf(map[*time.ActorID]int64{actor2: 3}))
		assert.False(t, tracker.CaughtUp())

		tracker.Applied(time.NewTicket(3, actor2))
		assert.True(t, tracker.CaughtUp())

		version, ok := tracker.PeerVersion(actor2)
		assert.True(t, ok)
		assert.Equal(t, int64(3), version.VersionOf(actor2))
		_, ok = tracker.PeerVersion(actor3)
		assert.False(t, ok)
	})
}
