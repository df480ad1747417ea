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

package replication

import (
	"github.com/yorkie-team/cotext/pkg/document/time"
)

// Tracker keeps the version vector of the local replica and the last known
// version vector of every peer.
type Tracker struct {
	actorID *time.ActorID
	local   time.VersionVector
	peers   map[string]*peer
}

type peer struct {
	actorID *time.ActorID
	version time.VersionVector
}

// NewTracker creates a new instance of Tracker.
func NewTracker(actorID *time.ActorID, local time.VersionVector) *Tracker {
	if local == nil {
		local = time.NewVersionVector()
	}
	return &Tracker{
		actorID: actorID,
		local:   local,
		peers:   make(map[string]*peer),
	}
}

// Local returns a copy of the local version vector.
func (t *Tracker) Local() time.VersionVector {
	return t.local.DeepCopy()
}

// Includes returns whether the operation of the given ticket was applied.
func (t *Tracker) Includes(ticket *time.Ticket) bool {
	return t.local.Includes(ticket)
}

// Ready returns whether every operation the given version covers was
// applied locally.
func (t *Tracker) Ready(version time.VersionVector) bool {
	return t.local.AfterOrEqual(version)
}

// Applied records the operation of the given ticket as applied.
func (t *Tracker) Applied(ticket *time.Ticket) {
	t.local.Observe(ticket)
}

// UpdatePeer merges the given version into the known version of a peer.
// Versions only move forward, so stale reports are harmless.
func (t *Tracker) UpdatePeer(actorID *time.ActorID, version time.VersionVector) {
	if actorID.Equal(t.actorID) {
		return
	}

	key := actorID.String()
	p, ok := t.peers[key]
	if !ok {
		p = &peer{actorID: actorID, version: time.NewVersionVector()}
		t.peers[key] = p
	}
	p.version.Max(version)
}

// ObservePeer records that the peer that issued the given operation has
// applied everything its version covers and the operation itself.
func (t *Tracker) ObservePeer(ticket *time.Ticket, version time.VersionVector) {
	v := version.DeepCopy()
	v.Observe(ticket)
	t.UpdatePeer(ticket.ActorID(), v)
}

// RemovePeer forgets a peer, e.g. when it left the session. Its version no
// longer holds back compaction.
func (t *Tracker) RemovePeer(actorID *time.ActorID) bool {
	key := actorID.String()
	if _, ok := t.peers[key]; !ok {
		return false
	}
	delete(t.peers, key)
	return true
}

// Peers returns the known peers.
func (t *Tracker) Peers() []*time.ActorID {
	actors := make([]*time.ActorID, 0, len(t.peers))
	for _, p := range t.peers {
		actors = append(actors, p.actorID)
	}
	return actors
}

// PeerVersion returns a copy of the known version of a peer.
func (t *Tracker) PeerVersion(actorID *time.ActorID) (time.VersionVector, bool) {
	p, ok := t.peers[actorID.String()]
	if !ok {
		return nil, false
	}
	return p.version.DeepCopy(), true
}

// StableVersion returns the version every known replica has applied. Any
// operation it covers will never be referenced by an operation that is
// still unknown to some replica.
func (t *Tracker) StableVersion() time.VersionVector {
	stable := t.local.DeepCopy()
	for _, p := range t.peers {
		stable.Min(p.version)
	}
	return stable
}

// CaughtUp returns whether the local replica has applied every operation
// each peer has issued, as far as it knows.
func (t *Tracker) CaughtUp() bool {
	for _, p := range t.peers {
		if t.local.VersionOf(p.actorID) < p.version.VersionOf(p.actorID) {
			return false
		}
	}
	return true
}
