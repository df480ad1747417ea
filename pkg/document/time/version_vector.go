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

import (
	"bytes"
	"sort"
	"strconv"
	"strings"
)

// VersionVector maps a replica to the highest Lamport timestamp of that
// replica's operations that have been applied. Replicas absent from the
// vector are at InitialLamport.
type VersionVector map[actorID]int64

// NewVersionVector creates a new instance of VersionVector.
func NewVersionVector() VersionVector {
	return make(VersionVector)
}

// Get gets the version of the given actor.
// Returns the version and whether the actor exists in the vector.
func (v VersionVector) Get(id *ActorID) (int64, bool) {
	version, exists := v[id.bytes]
	return version, exists
}

// Set sets the given actor's version to the given value.
func (v VersionVector) Set(id *ActorID, i int64) {
	v[id.bytes] = i
}

// Unset removes the version for the given actor from the VersionVector.
func (v VersionVector) Unset(id *ActorID) {
	delete(v, id.bytes)
}

// VersionOf returns the version of the given actor.
func (v VersionVector) VersionOf(id *ActorID) int64 {
	return v[id.bytes]
}

// Observe records the given ticket as applied.
func (v VersionVector) Observe(t *Ticket) {
	if v[t.actorID.bytes] < t.lamport {
		v[t.actorID.bytes] = t.lamport
	}
}

// Includes returns whether the operation identified by the given ticket is
// covered by this vector.
func (v VersionVector) Includes(t *Ticket) bool {
	lamport, ok := v[t.actorID.bytes]
	if !ok {
		return false
	}

	return lamport >= t.lamport
}

// DeepCopy creates a deep copy of this VersionVector.
func (v VersionVector) DeepCopy() VersionVector {
	copied := make(VersionVector, len(v))
	for k, val := range v {
		copied[k] = val
	}
	return copied
}

// Marshal returns a stable string form of this VersionVector, sorted by actor.
func (v VersionVector) Marshal() string {
	builder := strings.Builder{}
	builder.WriteRune('{')

	for i, id := range v.Keys() {
		if i > 0 {
			builder.WriteRune(',')
		}
		builder.WriteString(id.String())
		builder.WriteRune(':')
		builder.WriteString(strconv.FormatInt(v[id.bytes], 10))
	}
	builder.WriteRune('}')

	return builder.String()
}

// AfterOrEqual returns whether every entry of this VersionVector is greater
// than or equal to the corresponding entry of the given one.
func (v VersionVector) AfterOrEqual(other VersionVector) bool {
	for k, val := range other {
		if v[k] < val {
			return false
		}
	}

	return true
}

// Lack returns the entries of other that this vector has not reached yet, with
// the values of other.
func (v VersionVector) Lack(other VersionVector) VersionVector {
	lack := NewVersionVector()
	for k, val := range other {
		if v[k] < val {
			lack[k] = val
		}
	}
	return lack
}

// Min modifies the receiver in-place to contain the minimum values between itself
// and the given version vector, and returns the modified receiver. An actor
// missing from either side is treated as InitialLamport.
func (v VersionVector) Min(other VersionVector) VersionVector {
	for key, value := range v {
		if otherValue, exists := other[key]; exists {
			if value > otherValue {
				v[key] = otherValue
			}
		} else {
			v[key] = InitialLamport
		}
	}

	for key := range other {
		if _, exists := v[key]; !exists {
			v[key] = InitialLamport
		}
	}

	return v
}

// Max modifies the receiver in-place to contain the maximum values between itself
// and the given version vector, and returns the modified receiver.
func (v VersionVector) Max(other VersionVector) VersionVector {
	for key, value := range other {
		if v[key] < value {
			v[key] = value
		}
	}

	return v
}

// MaxLamport returns max lamport value in version vector.
func (v VersionVector) MaxLamport() int64 {
	var maxLamport int64 = InitialLamport
	for _, value := range v {
		if value > maxLamport {
			maxLamport = value
		}
	}

	return maxLamport
}

// Keys returns the ActorIDs present in the VersionVector, sorted.
func (v VersionVector) Keys() []*ActorID {
	keys := make([]actorID, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})

	actors := make([]*ActorID, len(keys))
	for i, k := range keys {
		actors[i] = actorIDFromKey(k)
	}
	return actors
}
