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

// Package time provides the logical clock, tickets and version vectors used to
// identify and order operations of a replicated text.
package time

import (
	"fmt"
	"math"
	"strconv"
)

const (
	// InitialLamport is the initial value of Lamport timestamp.
	InitialLamport = 0

	// MaxLamport is the maximum value stored in lamport.
	MaxLamport = math.MaxInt64
)

var (
	// InitialTicket is the initial value of Ticket.
	InitialTicket = NewTicket(InitialLamport, InitialActorID)

	// MaxTicket is the maximum value of Ticket.
	MaxTicket = NewTicket(MaxLamport, MaxActorID)
)

// Ticket identifies an operation globally. It is the pair of the Lamport
// timestamp and the ActorID of the replica that generated the operation.
//
// Tickets are totally ordered by (lamport, actorID). The order is consistent
// with causality but cannot tell whether two tickets are concurrent; use a
// VersionVector for that.
type Ticket struct {
	lamport int64
	actorID *ActorID

	// cachedKey is the cache of the string representation of the ticket.
	cachedKey string
}

// NewTicket creates an instance of Ticket.
func NewTicket(lamport int64, actorID *ActorID) *Ticket {
	return &Ticket{
		lamport: lamport,
		actorID: actorID,
	}
}

// ToTestString returns a string containing the metadata of the ticket
// for debugging purpose.
func (t *Ticket) ToTestString() string {
	return fmt.Sprintf("%d:%s", t.lamport, t.actorID.String()[22:24])
}

// Key returns the key string for this Ticket.
func (t *Ticket) Key() string {
	if t.cachedKey == "" {
		t.cachedKey = strconv.FormatInt(t.lamport, 10) + ":" + t.actorID.String()
	}

	return t.cachedKey
}

// Lamport returns the lamport value.
func (t *Ticket) Lamport() int64 {
	return t.lamport
}

// ActorID returns the actorID value.
func (t *Ticket) ActorID() *ActorID {
	return t.actorID
}

// ActorIDHex returns the actorID's hex value.
func (t *Ticket) ActorIDHex() string {
	return t.actorID.String()
}

// After returns whether the given ticket was created later.
func (t *Ticket) After(other *Ticket) bool {
	return t.Compare(other) > 0
}

// Equal returns whether the two tickets identify the same operation.
func (t *Ticket) Equal(other *Ticket) bool {
	return t.lamport == other.lamport && t.actorID.Equal(other.actorID)
}

// Compare returns an integer comparing two Ticket by (lamport, actorID).
// The result will be 0 if t==other, -1 if t < other, and +1 if t > other.
func (t *Ticket) Compare(other *Ticket) int {
	if t.lamport > other.lamport {
		return 1
	} else if t.lamport < other.lamport {
		return -1
	}

	return t.actorID.Compare(other.actorID)
}
