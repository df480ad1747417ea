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

// Package helper provides helper functions for testing.
package helper

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yorkie-team/cotext/pkg/document"
	"github.com/yorkie-team/cotext/pkg/document/time"
	"github.com/yorkie-team/cotext/pkg/logging"
)

// ActorIDOf returns the actor ID of the given number. Its hex form is the
// number zero-padded to 24 digits.
func ActorIDOf(n int) *time.ActorID {
	actorID, err := time.ActorIDFromHex(fmt.Sprintf("%024x", n))
	if err != nil {
		panic(err)
	}
	return actorID
}

// VersionVectorOf creates a new version vector from the given actors.
func VersionVectorOf(actors map[*time.ActorID]int64) time.VersionVector {
	vector := time.NewVersionVector()
	for actor, lamport := range actors {
		vector.Set(actor, lamport)
	}
	return vector
}

// NewRangeSlice returns a slice of integers from start to end.
func NewRangeSlice(start, end int) []int {
	var slice []int
	if start < end {
		for i := start; i <= end; i++ {
			slice = append(slice, i)
		}
		return slice
	}

	for i := start; i >= end; i-- {
		slice = append(slice, i)
	}
	return slice
}

// QuietLogger returns a logger that discards everything.
func QuietLogger() logging.Logger {
	return logging.NewWithWriter(io.Discard, "test")
}

// Replicas creates n empty documents owned by the actors 1 to n.
func Replicas(t testing.TB, n int, opts ...document.Option) []*document.Document {
	opts = append([]document.Option{document.WithLogger(QuietLogger())}, opts...)

	docs := make([]*document.Document, n)
	for i := range docs {
		doc, err := document.New(ActorIDOf(i+1), opts...)
		require.NoError(t, err)
		docs[i] = doc
	}
	return docs
}

// Sync flushes the local operations of every document and delivers them to
// all the others.
func Sync(t testing.TB, docs ...*document.Document) {
	for _, doc := range docs {
		payload, err := doc.FlushOperations()
		require.NoError(t, err)
		if payload == nil {
			continue
		}

		for _, other := range docs {
			if other != doc {
				require.NoError(t, other.ApplyPayload(payload))
			}
		}
	}
}

// Flush returns the encoded local operations of the given document.
func Flush(t testing.TB, doc *document.Document) []byte {
	payload, err := doc.FlushOperations()
	require.NoError(t, err)
	return payload
}

// Edit applies a local edit and fails the test on error.
func Edit(t testing.TB, doc *document.Document, from, to int, text string) {
	_, err := doc.ApplyLocalEdit(from, to, text)
	require.NoError(t, err)
}
