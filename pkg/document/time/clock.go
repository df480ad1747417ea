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

package time

// Clock is the Lamport clock of a replica. It is not safe for concurrent use;
// the document that owns it serializes access.
type Clock struct {
	actorID *ActorID
	lamport int64
}

// NewClock creates a clock for the given replica starting at InitialLamport.
func NewClock(actorID *ActorID) *Clock {
	return &Clock{actorID: actorID, lamport: InitialLamport}
}

// ActorID returns the id of the replica that owns this clock.
func (c *Clock) ActorID() *ActorID {
	return c.actorID
}

// Lamport returns the last issued or observed timestamp.
func (c *Clock) Lamport() int64 {
	return c.lamport
}

// NextTicket returns a ticket with a timestamp strictly greater than every
// ticket issued or observed before.
func (c *Clock) NextTicket() *Ticket {
	c.lamport++
	return NewTicket(c.lamport, c.actorID)
}

// Observe advances the clock past a timestamp seen on a remote operation.
// Timestamps not greater than the local value leave the clock unchanged.
func (c *Clock) Observe(lamport int64) {
	if lamport > c.lamport {
		c.lamport = lamport + 1
	}
}
