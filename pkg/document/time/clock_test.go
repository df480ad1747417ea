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

package time_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yorkie-team/cotext/pkg/document/time"
)

func TestClock(t *testing.T) {
	t.Run("next ticket is strictly increasing test", func(t *testing.T) {
		actorID := time.NewActorID()
		clock := time.NewClock(actorID)

		prev := clock.NextTicket()
		assert.Equal(t, int64(1), prev.Lamport())
		assert.True(t, prev.ActorID().Equal(actorID))
		for i := 0; i < 10; i++ {
			next := clock.NextTicket()
			assert.True(t, next.After(prev))
			prev = next
		}
	})

	t.Run("observe advances past remote timestamps test", func(t *testing.T) {
		clock := time.NewClock(time.NewActorID())
		clock.NextTicket()

		clock.Observe(10)
		assert.Equal(t, int64(11), clock.Lamport())
		assert.Equal(t, int64(12), clock.NextTicket().Lamport())

		// lower or equal timestamps do not move the clock
		clock.Observe(3)
		clock.Observe(12)
		assert.Equal(t, int64(12), clock.Lamport())
	})
}
