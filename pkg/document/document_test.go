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

package document_test

import (
	"context"
	"math/rand"
	"testing"
	gotime "time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorkie-team/cotext/api/converter"
	"github.com/yorkie-team/cotext/pkg/document"
	"github.com/yorkie-team/cotext/pkg/document/crdt"
	"github.com/yorkie-team/cotext/pkg/document/operations"
	"github.com/yorkie-team/cotext/pkg/document/time"
	"github.com/yorkie-team/cotext/pkg/errors"
	"github.com/yorkie-team/cotext/pkg/replication"
	"github.com/yorkie-team/cotext/pkg/rope"
	"github.com/yorkie-team/cotext/test/helper"
)

func TestDocument(t *testing.T) {
	t.Run("local edit test", func(t *testing.T) {
		doc := helper.Replicas(t, 1)[0]

		ops, err := doc.ApplyLocalEdit(0, 0, "hello\nworld")
		require.NoError(t, err)
		require.Len(t, ops, 1)
		assert.Equal(t, "hello\nworld", doc.String())
		assert.Equal(t, 2, doc.LineCount())

		point, err := doc.OffsetToPoint(7)
		require.NoError(t, err)
		assert.Equal(t, rope.Point{Row: 1, Column: 1}, point)
		offset, err := doc.PointToOffset(rope.Point{Row: 0, Column: 100})
		require.NoError(t, err)
		assert.Equal(t, 5, offset)

		ops, err = doc.ApplyLocalEdit(0, 5, "HELLO!")
		require.NoError(t, err)
		require.Len(t, ops, 2)
		assert.IsType(t, &operations.Delete{}, ops[0])
		assert.IsType(t, &operations.Insert{}, ops[1])
		assert.True(t, ops[1].Version().Includes(ops[0].ExecutedAt()))

		text, err := doc.ReadText(0, 6)
		require.NoError(t, err)
		assert.Equal(t, "HELLO!", text)
		assert.Equal(t, int64(3), doc.VersionVector().VersionOf(helper.ActorIDOf(1)))

		ops, err = doc.ApplyLocalEdit(3, 3, "")
		require.NoError(t, err)
		assert.Empty(t, ops)
	})

	t.Run("invalid local edit test", func(t *testing.T) {
		doc := helper.Replicas(t, 1)[0]
		helper.Edit(t, doc, 0, 0, "가나")

		_, err := doc.ApplyLocalEdit(1, 1, "x")
		assert.ErrorIs(t, err, rope.ErrNotCharBoundary)
		_, err = doc.ApplyLocalEdit(0, 7, "")
		assert.ErrorIs(t, err, rope.ErrOutOfRange)
		_, err = doc.ApplyLocalEdit(0, 3, "\xff")
		assert.ErrorIs(t, err, rope.ErrInvalidUTF8)

		// nothing was applied
		assert.Equal(t, "가나", doc.String())
		assert.Equal(t, 1, doc.Stats().Outbox)
	})

	t.Run("edit inside a line break test", func(t *testing.T) {
		doc := helper.Replicas(t, 1)[0]
		helper.Edit(t, doc, 0, 0, "ab\r\ncd")

		_, err := doc.ApplyLocalEdit(3, 3, "x")
		assert.ErrorIs(t, err, rope.ErrNotCharBoundary)
		_, err = doc.ApplyLocalEdit(2, 3, "")
		assert.ErrorIs(t, err, rope.ErrNotCharBoundary)
		_, err = doc.CreateAnchor(3, crdt.BiasLeft)
		assert.ErrorIs(t, err, rope.ErrNotCharBoundary)
		_, err = doc.OffsetToPoint(3)
		assert.ErrorIs(t, err, rope.ErrNotCharBoundary)

		point, err := doc.OffsetToPoint(4)
		require.NoError(t, err)
		assert.Equal(t, rope.Point{Row: 1, Column: 0}, point)
		offset, err := doc.PointToOffset(rope.Point{Row: 0, Column: 2})
		require.NoError(t, err)
		assert.Equal(t, 2, offset)

		helper.Edit(t, doc, 2, 4, "")
		assert.Equal(t, "abcd", doc.String())
	})

	t.Run("concurrent inserts at the same position test", func(t *testing.T) {
		docs := helper.Replicas(t, 2)
		docA, docB := docs[0], docs[1]

		helper.Edit(t, docA, 0, 0, "ac")
		helper.Sync(t, docA, docB)

		helper.Edit(t, docA, 1, 1, "x")
		helper.Edit(t, docB, 1, 1, "b")
		helper.Sync(t, docB, docA)

		assert.Equal(t, "axbc", docA.String())
		assert.Equal(t, "axbc", docB.String())
	})

	t.Run("delete delivered before its insert test", func(t *testing.T) {
		docs := helper.Replicas(t, 2)
		docA, docB := docs[0], docs[1]

		helper.Edit(t, docA, 0, 0, "abc")
		insert := helper.Flush(t, docA)
		helper.Edit(t, docA, 1, 2, "")
		del := helper.Flush(t, docA)

		require.NoError(t, docB.ApplyPayload(del))
		assert.Equal(t, "", docB.String())
		assert.Equal(t, 1, docB.Stats().Pending)

		require.NoError(t, docB.ApplyPayload(insert))
		assert.Equal(t, "ac", docB.String())
		assert.Equal(t, 0, docB.Stats().Pending)

		// duplicates are ignored
		require.NoError(t, docB.ApplyPayload(insert))
		require.NoError(t, docB.ApplyPayload(del))
		assert.Equal(t, "ac", docB.String())
		assert.Equal(t, docA.VersionVector(), docB.VersionVector())
	})

	t.Run("causal gap and resync test", func(t *testing.T) {
		now := gotime.Date(2026, 1, 1, 0, 0, 0, 0, gotime.UTC)
		docs := helper.Replicas(t, 2, document.WithNow(func() gotime.Time { return now }))
		docA, docB := docs[0], docs[1]

		helper.Edit(t, docA, 0, 0, "abc")
		helper.Flush(t, docA)
		helper.Edit(t, docA, 3, 3, "d")
		require.NoError(t, docB.ApplyPayload(helper.Flush(t, docA)))
		assert.Equal(t, 1, docB.Stats().Pending)

		now = now.Add(31 * gotime.Second)
		err := docB.ExpirePending()
		assert.ErrorIs(t, err, replication.ErrCausalGap)
		var gap *replication.CausalGapError
		require.True(t, errors.As(err, &gap))
		assert.Equal(t, int64(1), gap.Missing.VersionOf(helper.ActorIDOf(1)))
		require.Len(t, gap.Operations, 1)
		assert.Equal(t, 0, docB.Stats().Pending)

		payload, err := docA.OperationsSince(docB.VersionVector())
		require.NoError(t, err)
		require.NoError(t, docB.ApplyPayload(payload))
		assert.Equal(t, "abcd", docB.String())
	})

	t.Run("malformed payload test", func(t *testing.T) {
		doc := helper.Replicas(t, 1)[0]
		err := doc.ApplyPayload([]byte{0x0a, 0xff})
		assert.ErrorIs(t, err, converter.ErrMalformedOperation)
		assert.Equal(t, "", doc.String())
	})

	t.Run("anchor test", func(t *testing.T) {
		docs := helper.Replicas(t, 2)
		docA, docB := docs[0], docs[1]
		helper.Edit(t, docA, 0, 0, "hello world")
		helper.Sync(t, docA, docB)

		cursor, err := docA.CreateAnchor(6, crdt.BiasRight)
		require.NoError(t, err)

		helper.Edit(t, docB, 0, 0, ">> ")
		helper.Edit(t, docB, 8, 8, ",")
		helper.Sync(t, docB, docA)

		offset, err := docA.ResolveAnchor(cursor)
		require.NoError(t, err)
		assert.Equal(t, ">> hello, world", docA.String())
		assert.Equal(t, 10, offset)
	})

	t.Run("run test", func(t *testing.T) {
		docs := helper.Replicas(t, 2)
		docA, docB := docs[0], docs[1]

		ingress := make(chan []byte, 2)
		helper.Edit(t, docA, 0, 0, "abc")
		ingress <- helper.Flush(t, docA)
		ingress <- []byte{0xff}
		close(ingress)

		require.NoError(t, docB.Run(context.Background(), ingress))
		assert.Equal(t, "abc", docB.String())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, docB.Run(ctx, make(chan []byte)), context.Canceled)
	})
}

func TestCompaction(t *testing.T) {
	actor1, actor2 := helper.ActorIDOf(1), helper.ActorIDOf(2)

	t.Run("compaction waits for peers test", func(t *testing.T) {
		docs := helper.Replicas(t, 2)
		docA, docB := docs[0], docs[1]

		helper.Edit(t, docA, 0, 0, "abcdef")
		helper.Sync(t, docA, docB)
		helper.Edit(t, docA, 1, 3, "")

		// B has not seen the delete yet
		docA.UpdatePeerVersion(actor2, docB.VersionVector())
		report, err := docA.Compact()
		require.NoError(t, err)
		assert.Equal(t, 0, report.Collected)
		assert.Equal(t, 1, report.Remaining)

		helper.Sync(t, docA, docB)
		docA.UpdatePeerVersion(actor2, docB.VersionVector())
		report, err = docA.Compact()
		require.NoError(t, err)
		assert.Equal(t, 1, report.Collected)
		assert.Equal(t, 2, report.CollectedBytes)

		stats := docA.Stats()
		assert.Equal(t, 0, stats.Tombstones)
		assert.Equal(t, 1, stats.Collected)
		assert.Equal(t, 0, stats.LogSize)
		assert.Equal(t, 1, stats.Peers)
		assert.Equal(t, "adef", docA.String())

		// B edits next to the collected range
		helper.Edit(t, docB, 1, 1, "X")
		helper.Sync(t, docB, docA)
		assert.Equal(t, "aXdef", docA.String())
		assert.Equal(t, "aXdef", docB.String())
	})

	t.Run("snapshot required after truncation test", func(t *testing.T) {
		docs := helper.Replicas(t, 1)
		docA := docs[0]
		helper.Edit(t, docA, 0, 0, "hello world")
		helper.Edit(t, docA, 0, 6, "")
		_, err := docA.Compact()
		require.NoError(t, err)

		_, err = docA.OperationsSince(time.NewVersionVector())
		assert.ErrorIs(t, err, replication.ErrSnapshotRequired)

		docC, err := document.Load(helper.ActorIDOf(3), docA.Snapshot(), document.WithLogger(helper.QuietLogger()))
		require.NoError(t, err)
		assert.Equal(t, "world", docC.String())
		assert.Equal(t, docA.VersionVector(), docC.VersionVector())

		helper.Edit(t, docC, 5, 5, "!")
		helper.Edit(t, docA, 0, 0, "a ")
		helper.Sync(t, docA, docC)
		assert.Equal(t, "a world!", docA.String())
		assert.Equal(t, "a world!", docC.String())

		payload, err := docA.OperationsSince(docA.VersionVector())
		require.NoError(t, err)
		assert.Empty(t, payload)
	})

	t.Run("reference to collected text test", func(t *testing.T) {
		docs := helper.Replicas(t, 2)
		docA, docB := docs[0], docs[1]
		helper.Edit(t, docA, 0, 0, "abc")
		helper.Sync(t, docA, docB)

		// B wrongly reports that it has seen the delete
		helper.Edit(t, docA, 1, 2, "")
		docA.UpdatePeerVersion(actor2, docA.VersionVector())
		report, err := docA.Compact()
		require.NoError(t, err)
		require.Equal(t, 1, report.Collected)

		helper.Edit(t, docB, 2, 2, "X")
		err = docA.ApplyPayload(helper.Flush(t, docB))
		assert.ErrorIs(t, err, crdt.ErrCollectedReference)
		assert.Equal(t, errors.ErrCodeDataLoss, errors.StatusOf(err))
		assert.Equal(t, actor2.String(), errors.Metadata(err)["actor"])
		assert.Equal(t, "ac", docA.String())
		assert.Equal(t, int64(3), docA.VersionVector().VersionOf(actor2))
		assert.Equal(t, int64(2), docA.VersionVector().VersionOf(actor1))
	})

	t.Run("insert next to text collected before its author saw it deleted test", func(t *testing.T) {
		docs := helper.Replicas(t, 3)
		docA, docB, docC := docs[0], docs[1], docs[2]
		helper.Edit(t, docA, 0, 0, "abc")
		helper.Sync(t, docA, docB, docC)

		// only B receives the delete of "b" before A collects it
		helper.Edit(t, docA, 1, 2, "")
		del := helper.Flush(t, docA)
		require.NoError(t, docB.ApplyPayload(del))
		docA.UpdatePeerVersion(actor2, docB.VersionVector())
		report, err := docA.Compact()
		require.NoError(t, err)
		require.Equal(t, 1, report.Collected)

		helper.Edit(t, docC, 1, 1, "X")
		helper.Edit(t, docA, 1, 1, "Y")
		insX, insY := helper.Flush(t, docC), helper.Flush(t, docA)

		require.NoError(t, docB.ApplyPayload(insX))
		require.NoError(t, docB.ApplyPayload(insY))
		require.NoError(t, docC.ApplyPayload(del))
		require.NoError(t, docC.ApplyPayload(insY))

		// A cannot order "X" against text it no longer has and reports it
		err = docA.ApplyPayload(insX)
		assert.ErrorIs(t, err, crdt.ErrCollectedReference)
		assert.Equal(t, errors.ErrCodeDataLoss, errors.StatusOf(err))
		assert.Equal(t, helper.ActorIDOf(3).String(), errors.Metadata(err)["actor"])
		assert.Equal(t, "aYc", docA.String())

		assert.Equal(t, docB.String(), docC.String())
		assert.Contains(t, docB.String(), "X")
		assert.Contains(t, docB.String(), "Y")
	})

	t.Run("automatic compaction test", func(t *testing.T) {
		config := document.NewConfig()
		config.CompactionThreshold = 1
		docs := helper.Replicas(t, 2, document.WithConfig(config))
		docA, docB := docs[0], docs[1]

		helper.Edit(t, docA, 0, 0, "abc")
		helper.Sync(t, docA, docB)
		helper.Edit(t, docA, 0, 1, "")
		helper.Sync(t, docA, docB)

		assert.Equal(t, 1, docB.Stats().Collected)
		assert.Equal(t, "bc", docB.String())
	})
}

func TestConvergence(t *testing.T) {
	t.Run("random edits with reordered and duplicated delivery test", func(t *testing.T) {
		const replicaCount = 3
		r := rand.New(rand.NewSource(11))
		docs := helper.Replicas(t, replicaCount)
		words := []string{"a", "bc", "가나", "👍", "\n", "xyz "}

		for round := 0; round < 20; round++ {
			var payloads [][]byte
			for _, doc := range docs {
				for n := r.Intn(4); n > 0; n-- {
					length := doc.Len()
					from := r.Intn(length + 1)
					for !isBoundary(doc, from) {
						from--
					}
					to := from
					if length > from && r.Intn(3) == 0 {
						to = from + 1
						for !isBoundary(doc, to) {
							to++
						}
					}
					helper.Edit(t, doc, from, to, words[r.Intn(len(words))])

					// split the edits of a replica into several payloads
					if r.Intn(2) == 0 {
						payloads = append(payloads, helper.Flush(t, doc))
					}
				}
				if payload := helper.Flush(t, doc); payload != nil {
					payloads = append(payloads, payload)
				}
			}

			for _, doc := range docs {
				delivery := append([][]byte{}, payloads...)
				delivery = append(delivery, payloads[:r.Intn(len(payloads)+1)]...)
				r.Shuffle(len(delivery), func(i, j int) {
					delivery[i], delivery[j] = delivery[j], delivery[i]
				})
				for _, payload := range delivery {
					require.NoError(t, doc.ApplyPayload(payload))
				}
			}

			for _, doc := range docs[1:] {
				require.Equal(t, docs[0].String(), doc.String(), "round %d", round)
				require.Equal(t, docs[0].VersionVector(), doc.VersionVector(), "round %d", round)
				require.Equal(t, 0, doc.Stats().Pending)
			}
		}
	})

	t.Run("partial delivery with compaction and a late replica test", func(t *testing.T) {
		const replicaCount = 3
		r := rand.New(rand.NewSource(7))
		docs := helper.Replicas(t, replicaCount)
		words := []string{"a", "bc", "가나", "👍", "\n", "", "xyz "}

		// every replica knows every other one from the start
		for _, doc := range docs {
			for _, peer := range docs {
				doc.UpdatePeerVersion(peer.ActorID(), peer.VersionVector())
			}
		}

		// inbox[i] holds the payloads replica i has not received yet
		inbox := make([][][]byte, replicaCount)
		for round := 0; round < 30; round++ {
			for i, doc := range docs {
				for n := r.Intn(3); n > 0; n-- {
					randomEdit(t, r, doc, words)
				}
				payload := helper.Flush(t, doc)
				if payload == nil {
					continue
				}
				for j := range docs {
					if j != i {
						inbox[j] = append(inbox[j], payload)
					}
				}
			}

			for i, doc := range docs {
				r.Shuffle(len(inbox[i]), func(a, b int) {
					inbox[i][a], inbox[i][b] = inbox[i][b], inbox[i][a]
				})
				delivered := r.Intn(len(inbox[i]) + 1)
				for _, payload := range inbox[i][:delivered] {
					require.NoError(t, doc.ApplyPayload(payload), "round %d", round)
				}
				inbox[i] = inbox[i][delivered:]
			}

			for _, doc := range docs {
				for _, peer := range docs {
					if r.Intn(2) == 0 {
						doc.UpdatePeerVersion(peer.ActorID(), peer.VersionVector())
					}
				}
				if r.Intn(2) == 0 {
					_, err := doc.Compact()
					require.NoError(t, err, "round %d", round)
				}
			}
		}

		for i, doc := range docs {
			for _, payload := range inbox[i] {
				require.NoError(t, doc.ApplyPayload(payload))
			}
		}
		for _, doc := range docs[1:] {
			require.Equal(t, docs[0].String(), doc.String())
			require.Equal(t, docs[0].VersionVector(), doc.VersionVector())
			require.Equal(t, 0, doc.Stats().Pending)
		}

		// a replica joining from a snapshot merges like the others
		late, err := document.Load(helper.ActorIDOf(replicaCount+1), docs[0].Snapshot(), document.WithLogger(helper.QuietLogger()))
		require.NoError(t, err)
		assert.Equal(t, docs[0].String(), late.String())
		assert.Equal(t, docs[0].VersionVector(), late.VersionVector())

		helper.Edit(t, late, 0, 0, "late ")
		helper.Edit(t, docs[1], docs[1].Len(), docs[1].Len(), " end")
		helper.Sync(t, late, docs[0], docs[1], docs[2])
		for _, doc := range docs {
			assert.Equal(t, late.String(), doc.String())
		}
	})
}

func randomEdit(t *testing.T, r *rand.Rand, doc *document.Document, words []string) {
	length := doc.Len()
	from := r.Intn(length + 1)
	for !isBoundary(doc, from) {
		from--
	}
	to := from
	if length > from && r.Intn(2) == 0 {
		to = from + 1
		for !isBoundary(doc, to) {
			to++
		}
	}
	helper.Edit(t, doc, from, to, words[r.Intn(len(words))])
}

func isBoundary(doc *document.Document, offset int) bool {
	_, err := doc.CreateAnchor(offset, crdt.BiasLeft)
	return err == nil
}
