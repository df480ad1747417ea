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
	"encoding/hex"
	"fmt"
	"math"

	"github.com/rs/xid"

	"github.com/yorkie-team/cotext/pkg/errors"
)

const actorIDSize = 12

// actorID is the comparable form of ActorID used as a map key.
type actorID [actorIDSize]byte

var (
	// InitialActorID represents the initial value of ActorID.
	InitialActorID = &ActorID{}

	// MaxActorID represents the maximum value of ActorID.
	MaxActorID = &ActorID{
		bytes: actorID{
			math.MaxUint8, math.MaxUint8, math.MaxUint8, math.MaxUint8,
			math.MaxUint8, math.MaxUint8, math.MaxUint8, math.MaxUint8,
			math.MaxUint8, math.MaxUint8, math.MaxUint8, math.MaxUint8,
		},
	}

	// ErrInvalidHexString is returned when the given string is not valid hex.
	ErrInvalidHexString = errors.InvalidArgument("invalid hex string").WithCode("ErrInvalidHexString")

	// ErrInvalidActorID is returned when the given ID is not valid.
	ErrInvalidActorID = errors.InvalidArgument("invalid actor id").WithCode("ErrInvalidActorID")
)

// ActorID represents the unique ID of a replica. It is composed of 12 bytes
// and is assigned once per session; it is never reused while the session
// lives. The string representation is cached, so an ActorID should be used
// from a single goroutine or after locking the document that owns it.
type ActorID struct {
	bytes actorID

	cachedString string
}

// NewActorID returns a fresh ActorID. The bytes are an xid, which is unique
// across processes without coordination.
func NewActorID() *ActorID {
	id := &ActorID{}
	copy(id.bytes[:], xid.New().Bytes())
	return id
}

// ActorIDFromHex returns the ActorID represented by the hexadecimal string str.
func ActorIDFromHex(str string) (*ActorID, error) {
	if str == "" {
		return nil, fmt.Errorf("empty string: %w", ErrInvalidHexString)
	}

	decoded, err := hex.DecodeString(str)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", str, ErrInvalidHexString)
	}

	if len(decoded) != actorIDSize {
		return nil, fmt.Errorf("decoded length %d: %w", len(decoded), ErrInvalidHexString)
	}

	id := &ActorID{}
	copy(id.bytes[:], decoded)
	return id, nil
}

// ActorIDFromBytes returns the ActorID represented by the given raw bytes.
func ActorIDFromBytes(b []byte) (*ActorID, error) {
	if len(b) != actorIDSize {
		return nil, fmt.Errorf("bytes length %d: %w", len(b), ErrInvalidActorID)
	}

	id := &ActorID{}
	copy(id.bytes[:], b)
	return id, nil
}

func actorIDFromKey(key actorID) *ActorID {
	return &ActorID{bytes: key}
}

// String returns the hexadecimal encoding of ActorID.
func (id *ActorID) String() string {
	if id.cachedString == "" {
		id.cachedString = hex.EncodeToString(id.bytes[:])
	}

	return id.cachedString
}

// Bytes returns the bytes of ActorID itself.
func (id *ActorID) Bytes() []byte {
	return id.bytes[:]
}

// Compare returns an integer comparing two ActorID lexicographically.
// The result will be 0 if id==other, -1 if id < other, and +1 if id > other.
func (id *ActorID) Compare(other *ActorID) int {
	return bytes.Compare(id.bytes[:], other.bytes[:])
}

// Equal returns whether the two ActorIDs are the same.
func (id *ActorID) Equal(other *ActorID) bool {
	return id.bytes == other.bytes
}
