//go:build bench

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

package bench

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorkie-team/cotext/api/converter"
	"github.com/yorkie-team/cotext/pkg/document"
	"github.com/yorkie-team/cotext/pkg/rope"
	"github.com/yorkie-team/cotext/test/helper"
)

func benchmarkTyping(b *testing.B, size int) {
	for range b.N {
		doc := helper.Replicas(b, 1)[0]
		for i := range size {
			helper.Edit(b, doc, i, i, "a")
		}
		assert.Equal(b, size, doc.Len())
	}
}

func benchmarkRandomEdits(b *testing.B, size int) {
	for range b.N {
		r := rand.New(rand.NewSource(1))
		doc := helper.Replicas(b, 1)[0]
		for range size {
			length := doc.Len()
			if length > 0 && r.Intn(4) == 0 {
				from := r.Intn(length)
				helper.Edit(b, doc, from, from+1, "")
				continue
			}
			offset := r.Intn(length + 1)
			helper.Edit(b, doc, offset, offset, "xyz")
		}
	}
}

func benchmarkRemoteApply(b *testing.B, size int) {
	source := helper.Replicas(b, 1)[0]
	for i := range size {
		helper.Edit(b, source, i, i, "a")
	}
	payload := helper.Flush(b, source)

	b.ResetTimer()
	for range b.N {
		docs := helper.Replicas(b, 2)
		require.NoError(b, docs[1].ApplyPayload(payload))
		assert.Equal(b, size, docs[1].Len())
	}
}

func benchmarkCompaction(b *testing.B, size int) {
	for range b.N {
		b.StopTimer()
		docs := helper.Replicas(b, 2)
		for i := range size {
			helper.Edit(b, docs[0], i, i, "ab")
			helper.Edit(b, docs[0], i+1, i+2, "")
		}
		helper.Sync(b, docs...)
		docs[0].UpdatePeerVersion(docs[1].ActorID(), docs[1].VersionVector())
		b.StartTimer()

		report, err := docs[0].Compact()
		require.NoError(b, err)
		assert.Equal(b, size, report.Collected)
	}
}

func benchmarkSnapshot(b *testing.B, size int) {
	doc := helper.Replicas(b, 1)[0]
	for i := range size {
		helper.Edit(b, doc, i, i, "ab")
		helper.Edit(b, doc, i+1, i+2, "")
	}

	b.ResetTimer()
	for range b.N {
		snapshot := doc.Snapshot()
		loaded, err := document.Load(doc.ActorID(), snapshot, document.WithLogger(helper.QuietLogger()))
		require.NoError(b, err)
		assert.Equal(b, doc.String(), loaded.String())
	}
}

func benchmarkOperationCodec(b *testing.B, size int) {
	doc := helper.Replicas(b, 1)[0]
	var payloads [][]byte
	for i := range size {
		helper.Edit(b, doc, i, i, "a")
		payloads = append(payloads, helper.Flush(b, doc))
	}

	b.ResetTimer()
	for range b.N {
		for _, payload := range payloads {
			ops, err := converter.BytesToOperations(payload)
			require.NoError(b, err)
			_, err = converter.OperationsToBytes(ops)
			require.NoError(b, err)
		}
	}
}

func benchmarkRopePoints(b *testing.B, lines int) {
	r := rope.New(0)
	for i := range lines {
		require.NoError(b, r.Insert(r.Len(), fmt.Sprintf("line %d\n", i)))
	}

	b.ResetTimer()
	for range b.N {
		for row := 0; row < lines; row += 97 {
			offset, err := r.PointToOffset(rope.Point{Row: row})
			require.NoError(b, err)
			_, err = r.OffsetToPoint(offset)
			require.NoError(b, err)
		}
	}
}

func BenchmarkDocument(b *testing.B) {
	for _, size := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("typing %d", size), func(b *testing.B) {
			benchmarkTyping(b, size)
		})
		b.Run(fmt.Sprintf("random edits %d", size), func(b *testing.B) {
			benchmarkRandomEdits(b, size)
		})
		b.Run(fmt.Sprintf("remote apply %d", size), func(b *testing.B) {
			benchmarkRemoteApply(b, size)
		})
		b.Run(fmt.Sprintf("compaction %d", size), func(b *testing.B) {
			benchmarkCompaction(b, size)
		})
		b.Run(fmt.Sprintf("snapshot %d", size), func(b *testing.B) {
			benchmarkSnapshot(b, size)
		})
		b.Run(fmt.Sprintf("operation codec %d", size), func(b *testing.B) {
			benchmarkOperationCodec(b, size)
		})
	}
}

func BenchmarkRope(b *testing.B) {
	for _, lines := range []int{1000, 100000} {
		b.Run(fmt.Sprintf("points %d", lines), func(b *testing.B) {
			benchmarkRopePoints(b, lines)
		})
	}
}
